// Package importer lê as planilhas de Pedidos e de Faturas/Pagamentos da SHEIN,
// filtra e deduplica as linhas e grava o resultado no repositório do usuário.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"reconciliation-service/internal/core/headers"
	"reconciliation-service/internal/core/spreadsheet"
	"reconciliation-service/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrImportInProgress is returned when another import holds the user's lock.
var ErrImportInProgress = errors.New("já existe uma importação em andamento para este usuário")

// Store is the persistence the importer needs.
type Store interface {
	// ExistingOrderKeys devolve as chaves de deduplicação (OrderLineItem.DedupKey) já gravadas.
	ExistingOrderKeys(ctx context.Context, userID uint64) (map[string]struct{}, error)
	// InsertOrders grava os itens ignorando conflitos de unicidade e devolve quantos entraram.
	InsertOrders(ctx context.Context, items []domain.OrderLineItem) (int, error)
	// ExistingPaymentNumbers devolve, entre os números informados, os que já têm pagamento.
	ExistingPaymentNumbers(ctx context.Context, userID uint64, numbers []string) (map[string]struct{}, error)
	// InsertPaymentsAndPurge grava os pagamentos e remove, na mesma transação, os
	// pagamentos não positivos de pedidos que já têm pagamento positivo.
	InsertPaymentsAndPurge(ctx context.Context, userID uint64, payments []domain.PaymentRecord) (int, error)
}

// Locker serializes imports of the same user.
type Locker interface {
	Acquire(ctx context.Context, userID uint64) (release func(), err error)
}

// Notifier is told when a batch of files has been processed.
type Notifier interface {
	ImportCompleted(ctx context.Context, userID uint64, outcomes []domain.FileOutcome) error
}

// Upload is one file received for import.
type Upload struct {
	Filename string
	Reader   io.Reader
}

// Options tunes the importer.
type Options struct {
	HeaderRow           int
	SampleRows          int
	SkippedNumbersLimit int
	Location            *time.Location
}

func (o Options) withDefaults() Options {
	if o.HeaderRow <= 0 {
		o.HeaderRow = 2
	}
	if o.SampleRows <= 0 {
		o.SampleRows = 250
	}
	if o.SkippedNumbersLimit <= 0 {
		o.SkippedNumbersLimit = 50
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	return o
}

// Service define a interface do importador de planilhas.
type Service interface {
	ImportBatch(ctx context.Context, userID uint64, uploads []Upload) ([]domain.FileOutcome, error)
	ImportFile(ctx context.Context, userID uint64, filename string, r io.Reader) domain.FileOutcome
	ImportOrders(ctx context.Context, userID uint64, sheet spreadsheet.Sheet) domain.ImportResult
	ImportPayments(ctx context.Context, userID uint64, sheet spreadsheet.Sheet) domain.ImportResult
}

type importFunc func(ctx context.Context, userID uint64, sheet spreadsheet.Sheet) domain.ImportResult

type service struct {
	store    Store
	locker   Locker
	notifier Notifier
	opts     Options
	logger   *zap.Logger
	dispatch map[domain.FileKind]importFunc
	newBatch func() string
}

// NewService cria o importador. locker e notifier podem ser nil.
func NewService(store Store, locker Locker, notifier Notifier, opts Options, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &service{
		store:    store,
		locker:   locker,
		notifier: notifier,
		opts:     opts.withDefaults(),
		logger:   logger,
		newBatch: uuid.NewString,
	}
	svc.dispatch = map[domain.FileKind]importFunc{
		domain.FileKindOrders:    svc.ImportOrders,
		domain.FileKindPayments:  svc.ImportPayments,
		domain.FileKindAmbiguous: rejectAmbiguous,
		domain.FileKindUnknown:   svc.rejectUnknown,
	}
	return svc
}

// ImportBatch processa os arquivos em ordem, sob o lock do usuário.
// Um arquivo com erro não interrompe os demais.
func (s *service) ImportBatch(ctx context.Context, userID uint64, uploads []Upload) ([]domain.FileOutcome, error) {
	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, userID)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	outcomes := make([]domain.FileOutcome, 0, len(uploads))
	for _, up := range uploads {
		outcomes = append(outcomes, s.ImportFile(ctx, userID, up.Filename, up.Reader))
	}

	if s.notifier != nil {
		if err := s.notifier.ImportCompleted(ctx, userID, outcomes); err != nil {
			s.logger.Warn("falha ao publicar notificação de importação", zap.Uint64("user_id", userID), zap.Error(err))
		}
	}
	return outcomes, nil
}

// ImportFile abre, classifica e importa um arquivo. Um panic na leitura vira
// erro do próprio arquivo.
func (s *service) ImportFile(ctx context.Context, userID uint64, filename string, r io.Reader) (outcome domain.FileOutcome) {
	outcome = domain.FileOutcome{Filename: filename, Kind: domain.FileKindUnknown}
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("panic ao processar arquivo", zap.String("filename", filename), zap.Any("panic", rec))
			outcome.Result = failed(fmt.Sprintf("Erro ao ler o arquivo %s: %v", filename, rec))
		}
	}()

	sheet, err := spreadsheet.Open(filename, r)
	if err != nil {
		s.logger.Warn("arquivo ilegível", zap.String("filename", filename), zap.Error(err))
		outcome.Result = failed(fmt.Sprintf("Erro ao ler o arquivo %s: %v", filename, err))
		return outcome
	}

	kind := headers.Classify(spreadsheet.HeaderStrings(sheet, s.opts.HeaderRow))
	outcome.Kind = kind
	outcome.Result = s.dispatch[kind](ctx, userID, sheet)

	s.logger.Info("arquivo processado",
		zap.Uint64("user_id", userID),
		zap.String("filename", filename),
		zap.String("kind", string(kind)),
		zap.String("batch", outcome.Result.Batch),
		zap.Int("imported", outcome.Result.Imported),
		zap.Int("skipped", outcome.Result.SkippedCount),
		zap.Strings("errors", outcome.Result.Errors),
	)
	return outcome
}

func rejectAmbiguous(_ context.Context, _ uint64, _ spreadsheet.Sheet) domain.ImportResult {
	return failed(fmt.Sprintf("O arquivo contém os cabeçalhos de Pedidos (“%s”) e de Faturas (“%s”); envie as planilhas separadamente.",
		headers.OrdersSignature, headers.PaymentsSignature))
}

func (s *service) rejectUnknown(_ context.Context, _ uint64, sheet spreadsheet.Sheet) domain.ImportResult {
	msg := fmt.Sprintf("Não foi possível identificar o arquivo. Esperado cabeçalho contendo “%s” (Pedidos) ou “%s” (Faturas).",
		headers.OrdersSignature, headers.PaymentsSignature)

	hdrs := spreadsheet.HeaderStrings(sheet, s.opts.HeaderRow)
	var near []string
	if closest := headers.ClosestHeader(hdrs, headers.OrdersSignature); closest != "" {
		near = append(near, fmt.Sprintf("“%s” para Pedidos", closest))
	}
	if closest := headers.ClosestHeader(hdrs, headers.PaymentsSignature); closest != "" {
		near = append(near, fmt.Sprintf("“%s” para Faturas", closest))
	}
	if len(near) > 0 {
		msg += fmt.Sprintf(" (cabeçalhos mais próximos encontrados: %s)", strings.Join(near, ", "))
	}
	return failed(msg)
}

// missingHeader monta a mensagem de cabeçalho obrigatório ausente, com sugestão.
func missingHeader(kindLabel, phrase string, hdrs []string) domain.ImportResult {
	msg := fmt.Sprintf("O arquivo enviado não parece ser o de %s. Esperado cabeçalho contendo “%s”.", kindLabel, phrase)
	if closest := headers.ClosestHeader(hdrs, phrase); closest != "" {
		msg += fmt.Sprintf(" (cabeçalho mais próximo encontrado: “%s”)", closest)
	}
	return failed(msg)
}

func failed(msgs ...string) domain.ImportResult {
	return domain.ImportResult{SkippedNumbers: []string{}, Errors: msgs}
}

func (s *service) result(batch string, imported int, skipped []string) domain.ImportResult {
	numbers := skipped
	if len(numbers) > s.opts.SkippedNumbersLimit {
		numbers = numbers[:s.opts.SkippedNumbersLimit]
	}
	if numbers == nil {
		numbers = []string{}
	}
	return domain.ImportResult{
		Imported:       imported,
		SkippedCount:   len(skipped),
		SkippedNumbers: numbers,
		Errors:         []string{},
		Batch:          batch,
	}
}

// guard converte pânico ou erro da importação em mensagem de resultado.
func guard(label string, result *domain.ImportResult) {
	if r := recover(); r != nil {
		*result = failed(fmt.Sprintf("Erro ao importar %s: %v", label, r))
	}
}
