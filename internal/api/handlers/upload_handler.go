package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"reconciliation-service/internal/api/middleware"
	"reconciliation-service/internal/api/responses"
	"reconciliation-service/internal/core/headers"
	"reconciliation-service/internal/core/importer"
	"reconciliation-service/internal/domain"

	"github.com/gin-gonic/gin"
)

// UploadHandler recebe as planilhas de Pedidos e Faturas.
type UploadHandler struct {
	service importer.Service
}

// NewUploadHandler cria um novo handler de importação.
func NewUploadHandler(service importer.Service) *UploadHandler {
	return &UploadHandler{service: service}
}

// UploadResponse is the body returned after an import.
type UploadResponse struct {
	Files []domain.FileOutcome `json:"files"`
	Hints []string             `json:"hints,omitempty"`
}

var (
	ordersHint   = fmt.Sprintf("Dica: a planilha de Pedidos precisa ter a coluna “%s” na linha 2.", headers.OrdersSignature)
	paymentsHint = fmt.Sprintf("Dica: a planilha de Faturas precisa ter a coluna “%s” na linha 2.", headers.PaymentsSignature)
	separateHint = "Dica: envie Pedidos e Faturas em arquivos separados."
)

// HandleUpload importa um ou mais arquivos do campo multipart "files".
func (h *UploadHandler) HandleUpload(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		responses.Error(c, http.StatusUnauthorized, "Usuário não autenticado")
		return
	}

	var fileHeaders []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil {
		fileHeaders = form.File["files"]
	}
	if len(fileHeaders) == 0 {
		responses.Error(c, http.StatusBadRequest, "Selecione as planilhas: Pedidos e Faturas.")
		return
	}

	uploads := make([]importer.Upload, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			responses.Error(c, http.StatusInternalServerError, fmt.Sprintf("Não foi possível abrir o arquivo %s", fh.Filename))
			return
		}
		defer f.Close()
		uploads = append(uploads, importer.Upload{Filename: fh.Filename, Reader: f})
	}

	outcomes, err := h.service.ImportBatch(c.Request.Context(), userID, uploads)
	if errors.Is(err, importer.ErrImportInProgress) {
		responses.Error(c, http.StatusConflict, "Já existe uma importação em andamento. Aguarde alguns instantes.")
		return
	}
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "Erro ao importar as planilhas", err.Error())
		return
	}

	message := "Importação concluída"
	for _, o := range outcomes {
		if !o.Result.OK() {
			message = "Importação concluída com erros"
			break
		}
	}
	responses.Success(c, UploadResponse{Files: outcomes, Hints: hintsFor(outcomes)}, message)
}

// hintsFor sugere o que corrigir quando algum arquivo não foi reconhecido.
func hintsFor(outcomes []domain.FileOutcome) []string {
	var needOrders, needPayments, ambiguous bool
	for _, o := range outcomes {
		switch o.Kind {
		case domain.FileKindAmbiguous:
			ambiguous = true
		case domain.FileKindUnknown:
			needOrders, needPayments = true, true
		}
		for _, msg := range o.Result.Errors {
			if strings.Contains(msg, headers.OrdersSignature) {
				needOrders = true
			}
			if strings.Contains(msg, headers.PaymentsSignature) {
				needPayments = true
			}
		}
	}

	var hints []string
	if needOrders {
		hints = append(hints, ordersHint)
	}
	if needPayments {
		hints = append(hints, paymentsHint)
	}
	if ambiguous {
		hints = append(hints, separateHint)
	}
	return hints
}
