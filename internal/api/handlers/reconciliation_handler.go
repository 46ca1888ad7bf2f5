package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"reconciliation-service/internal/api/middleware"
	"reconciliation-service/internal/api/responses"
	"reconciliation-service/internal/core/export"
	"reconciliation-service/internal/core/reconciliation"
	"reconciliation-service/internal/domain"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Reconciler is the part of the reconciliation engine the handlers use.
type Reconciler interface {
	Dashboard(ctx context.Context, userID uint64) (domain.DashboardResult, error)
	PendingRows(ctx context.Context, userID uint64, q reconciliation.PendingQuery) (domain.PendingReport, error)
	Settings() reconciliation.Settings
	Now() time.Time
}

// UserLookup resolves the account that is exporting a report.
type UserLookup interface {
	User(ctx context.Context, id uint64) (domain.User, error)
}

// ReconciliationHandler expõe o painel, as pendências e as exportações.
type ReconciliationHandler struct {
	engine     Reconciler
	users      UserLookup
	csvCharset string
}

// NewReconciliationHandler cria o handler de conciliação.
func NewReconciliationHandler(engine Reconciler, users UserLookup, csvCharset string) *ReconciliationHandler {
	return &ReconciliationHandler{engine: engine, users: users, csvCharset: csvCharset}
}

func (h *ReconciliationHandler) HandleDashboard(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		responses.Error(c, http.StatusUnauthorized, "Usuário não autenticado")
		return
	}

	result, err := h.engine.Dashboard(c.Request.Context(), userID)
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "Erro ao calcular o painel", err.Error())
		return
	}
	responses.Success(c, result, "")
}

func (h *ReconciliationHandler) HandlePending(c *gin.Context) {
	userID, q, ok := h.pendingQuery(c)
	if !ok {
		return
	}

	report, err := h.engine.PendingRows(c.Request.Context(), userID, q)
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "Erro ao calcular as pendências", err.Error())
		return
	}
	responses.Success(c, report, "")
}

// HandleExportCSV baixa as pendências em CSV (';' e vírgula decimal).
func (h *ReconciliationHandler) HandleExportCSV(c *gin.Context) {
	userID, q, ok := h.pendingQuery(c)
	if !ok {
		return
	}

	charset := c.DefaultQuery("charset", h.csvCharset)
	if _, err := export.ParseCharset(charset); err != nil {
		responses.Error(c, http.StatusBadRequest, "Parâmetro 'charset' inválido", err.Error())
		return
	}

	report, err := h.engine.PendingRows(c.Request.Context(), userID, q)
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "Erro ao calcular as pendências", err.Error())
		return
	}

	output, err := export.CSV(report.Rows, export.CSVOptions{Charset: charset})
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "Erro ao gerar o CSV", err.Error())
		return
	}

	contentCharset, _ := export.ParseCharset(charset)
	fileName := fmt.Sprintf("pendencias_%s.csv", h.engine.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	c.Data(http.StatusOK, "text/csv; charset="+contentCharset, output)
	responses.Logger().Info("CSV exportado", zap.Uint64("user_id", userID), zap.Int("rows", len(report.Rows)))
}

// HandleReport baixa o relatório de pendências em texto.
func (h *ReconciliationHandler) HandleReport(c *gin.Context) {
	userID, q, ok := h.pendingQuery(c)
	if !ok {
		return
	}

	report, err := h.engine.PendingRows(c.Request.Context(), userID, q)
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "Erro ao calcular as pendências", err.Error())
		return
	}

	exportedBy := ""
	if h.users != nil {
		if user, err := h.users.User(c.Request.Context(), userID); err == nil {
			exportedBy = user.DisplayName()
		}
	}

	now := h.engine.Now()
	output, err := export.Report(report.Rows, export.ReportMeta{
		GeneratedAt: now,
		ExportedBy:  exportedBy,
		GroupBy:     report.Summary.GroupBy,
		CutoffDays:  report.Summary.CutoffDays,
	})
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "Erro ao gerar o relatório", err.Error())
		return
	}

	fileName := fmt.Sprintf("relatorio_pendencias_%s.txt", now.Format("20060102_150405"))
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", output)
}

// pendingQuery lê group_by, cutoff e limit. Responde 400 e devolve ok=false
// quando algum parâmetro é inválido.
func (h *ReconciliationHandler) pendingQuery(c *gin.Context) (uint64, reconciliation.PendingQuery, bool) {
	var q reconciliation.PendingQuery

	userID, ok := middleware.UserID(c)
	if !ok {
		responses.Error(c, http.StatusUnauthorized, "Usuário não autenticado")
		return 0, q, false
	}

	q.GroupBy = domain.ParseGroupMode(c.Query("group_by"))

	if raw := strings.TrimSpace(c.Query("cutoff")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			responses.Error(c, http.StatusBadRequest, "Parâmetro 'cutoff' inválido")
			return 0, q, false
		}
		q.CutoffDays = &n
	}

	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			responses.Error(c, http.StatusBadRequest, "Parâmetro 'limit' inválido")
			return 0, q, false
		}
		q.Limit = n
	}
	return userID, q, true
}
