package importer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"reconciliation-service/internal/domain"
	"reconciliation-service/internal/testutils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var orderHeader = []string{
	"Número do pedido", "Status do pedido", "ID do item", "SKU do vendedor",
	"Coletado em", "Receita estimada de mercadorias", "Moeda do vendedor", "Comissão",
}

func newTestService(store Store, opts Options) *service {
	if opts.Location == nil {
		opts.Location = testutils.SaoPaulo()
	}
	svc := NewService(store, nil, nil, opts, zap.NewNop()).(*service)
	svc.newBatch = func() string { return "batch-1" }
	return svc
}

func TestImportOrders(t *testing.T) {
	store := testutils.NewMemoryStore()
	svc := newTestService(store, Options{})

	sheet := testutils.Sheet(orderHeader,
		[]any{"A1", "Entregue", "it-1", "SKU1", "15/01/2024 10:00", "10,00", "BRL", "1,50"},
		[]any{"A1", "Entregue", "it-1", "SKU1", "15/01/2024 10:00", "10,00", "BRL", "1,50"},
		[]any{"A2", "Reembolsado por Cliente", "it-9", "SKU9", nil, "30,00", "BRL", nil},
		[]any{nil, "Entregue", "it-8", "SKU8", nil, "5,00", "BRL", nil},
		[]any{"A3", "Entregue", nil, "SKU-X", nil, "20,00", "BRL", nil},
		[]any{"A3", "Entregue", nil, "SKU-Y", nil, "20,00", "BRL", nil},
	)

	res := svc.ImportOrders(context.Background(), 7, sheet)

	assert.Empty(t, res.Errors)
	assert.Equal(t, 3, res.Imported)
	assert.Equal(t, 1, res.SkippedCount)
	assert.Equal(t, []string{"A1"}, res.SkippedNumbers)
	assert.Equal(t, "batch-1", res.Batch)

	require.Len(t, store.Orders, 3)
	first := store.Orders[0]
	assert.Equal(t, uint64(7), first.UserID)
	assert.Equal(t, "A1", first.OrderNumber)
	assert.Equal(t, domain.PlatformSHEIN, first.Platform)
	assert.Equal(t, 1, first.LineCount)
	assert.True(t, decimal.NewFromInt(10).Equal(first.ValueTotal))
	require.NotNil(t, first.CollectedAt)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 0, 0, 0, testutils.SaoPaulo()).Unix(), first.CollectedAt.Unix())
	require.NotNil(t, first.Commission)
	assert.Equal(t, "1.5", first.Commission.String())
	assert.Equal(t, "BRL", first.SellerCurrency)
	assert.Equal(t, "SKU1", first.Raw["SKU do vendedor"])

	// fingerprint distinto para itens sem ID
	assert.Equal(t, "SKU-X", store.Orders[1].SellerSKU)
	assert.Equal(t, "SKU-Y", store.Orders[2].SellerSKU)
}

func TestImportOrders_ReimportSkipsEverything(t *testing.T) {
	store := testutils.NewMemoryStore()
	svc := newTestService(store, Options{})
	sheet := testutils.Sheet(orderHeader,
		[]any{"A1", "Entregue", "it-1", "SKU1", nil, "10,00", "BRL", nil},
		[]any{"A3", "Entregue", nil, "SKU-X", nil, "20,00", "BRL", nil},
	)

	first := svc.ImportOrders(context.Background(), 1, sheet)
	second := svc.ImportOrders(context.Background(), 1, sheet)
	other := svc.ImportOrders(context.Background(), 2, sheet)

	assert.Equal(t, 2, first.Imported)
	assert.Equal(t, 0, second.Imported)
	assert.Equal(t, 2, second.SkippedCount)
	assert.Equal(t, []string{"A1", "A3"}, second.SkippedNumbers)
	assert.Equal(t, 2, other.Imported, "dedup is scoped to the user")
	assert.Len(t, store.Orders, 4)
}

func TestImportOrders_SkippedNumbersAreCapped(t *testing.T) {
	store := testutils.NewMemoryStore()
	svc := newTestService(store, Options{SkippedNumbersLimit: 2})
	sheet := testutils.Sheet(orderHeader,
		[]any{"A1", "Entregue", "it-1", nil, nil, "1", nil, nil},
		[]any{"A1", "Entregue", "it-1", nil, nil, "1", nil, nil},
		[]any{"A1", "Entregue", "it-1", nil, nil, "1", nil, nil},
		[]any{"A1", "Entregue", "it-1", nil, nil, "1", nil, nil},
	)

	res := svc.ImportOrders(context.Background(), 1, sheet)
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 3, res.SkippedCount)
	assert.Len(t, res.SkippedNumbers, 2)
}

func TestImportOrders_HeaderErrors(t *testing.T) {
	tests := []struct {
		name       string
		header     []string
		wantPrefix string
	}{
		{
			name:       "missing signature",
			header:     []string{"Número do pedido", "Receita de mercadoria", "Status"},
			wantPrefix: "O arquivo enviado não parece ser o de Pedidos. Esperado cabeçalho contendo “Receita estimada de mercadorias”.",
		},
		{
			name:       "missing order number",
			header:     []string{"Código", "Receita estimada de mercadorias"},
			wantPrefix: "Erro ao importar Pedidos: Coluna 'Número do pedido' não encontrada.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testutils.NewMemoryStore()
			svc := newTestService(store, Options{})
			res := svc.ImportOrders(context.Background(), 1, testutils.Sheet(tt.header, []any{"A1", "10"}))

			require.Len(t, res.Errors, 1)
			assert.True(t, strings.HasPrefix(res.Errors[0], tt.wantPrefix), res.Errors[0])
			assert.Equal(t, 0, res.Imported)
			assert.Empty(t, store.Orders)
		})
	}
}

func TestImportOrders_MissingSignatureSuggestsClosestHeader(t *testing.T) {
	svc := newTestService(testutils.NewMemoryStore(), Options{})
	res := svc.ImportOrders(context.Background(), 1,
		testutils.Sheet([]string{"Número do pedido", "Receita estimada mercadoria"}))

	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "cabeçalho mais próximo encontrado: “Receita estimada mercadoria”")
}

type panicStore struct{ Store }

func (panicStore) ExistingOrderKeys(context.Context, uint64) (map[string]struct{}, error) {
	panic("boom")
}

func (panicStore) ExistingPaymentNumbers(context.Context, uint64, []string) (map[string]struct{}, error) {
	return nil, errors.New("db down")
}

func TestImport_FailuresBecomeMessages(t *testing.T) {
	svc := newTestService(panicStore{}, Options{})

	orders := svc.ImportOrders(context.Background(), 1, testutils.Sheet(orderHeader,
		[]any{"A1", "Entregue", "it-1", nil, nil, "1", nil, nil}))
	assert.Equal(t, []string{"Erro ao importar Pedidos: boom"}, orders.Errors)
	assert.Equal(t, 0, orders.Imported)
	assert.NotNil(t, orders.SkippedNumbers)

	payments := svc.ImportPayments(context.Background(), 1, testutils.Sheet(
		[]string{"Número do pedido", "Valor a receber"}, []any{"A1", "10"}))
	require.Len(t, payments.Errors, 1)
	assert.Equal(t, "Erro ao importar Pagamentos: erro ao carregar pagamentos existentes: db down", payments.Errors[0])
}

func TestImportPayments(t *testing.T) {
	store := testutils.NewMemoryStore()
	store.AddPayments(
		domain.PaymentRecord{UserID: 1, OrderNumber: "B9", Amount: decimal.NewFromInt(5)},
		domain.PaymentRecord{UserID: 1, OrderNumber: "B4", Amount: decimal.Zero},
		domain.PaymentRecord{UserID: 1, OrderNumber: "B4", Amount: decimal.NewFromInt(30)},
	)
	svc := newTestService(store, Options{})

	sheet := testutils.Sheet([]string{"Número do pedido", "Data de pagamento", "Valor a receber", "Tipo de fatura"},
		[]any{"B1", "01/02/2024", "10,00", "Venda"},
		[]any{"B1", "02/02/2024", "25,00", "Venda"},
		[]any{"B1", "03/02/2024", "-5,00", "Estorno"},
		[]any{"B2", nil, "-12,00", "Estorno"},
		[]any{"B2", nil, "0", "Estorno"},
		[]any{"B9", nil, "7,00", "Venda"},
		[]any{nil, nil, "7,00", "Venda"},
	)

	res := svc.ImportPayments(context.Background(), 1, sheet)

	assert.Empty(t, res.Errors)
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 1, res.SkippedCount)
	assert.Equal(t, []string{"B9"}, res.SkippedNumbers)

	var b1 []domain.PaymentRecord
	var b4 []domain.PaymentRecord
	for _, p := range store.Payments {
		switch p.OrderNumber {
		case "B1":
			b1 = append(b1, p)
		case "B2":
			t.Fatalf("non-positive payment imported: %+v", p)
		case "B4":
			b4 = append(b4, p)
		}
	}
	require.Len(t, b1, 1)
	assert.True(t, decimal.NewFromInt(25).Equal(b1[0].Amount))
	assert.Equal(t, "Venda", b1[0].InvoiceType)
	assert.Equal(t, "batch-1", b1[0].ImportBatch)
	require.NotNil(t, b1[0].PaidAt)
	assert.Equal(t, 2, b1[0].PaidAt.Day())

	require.Len(t, b4, 1, "zero payment purged once a positive one exists")
	assert.True(t, b4[0].IsPaid())
}

func TestImportPayments_MissingSignature(t *testing.T) {
	svc := newTestService(testutils.NewMemoryStore(), Options{})
	res := svc.ImportPayments(context.Background(), 1,
		testutils.Sheet([]string{"Número do pedido", "Receita estimada de mercadorias"}))

	require.Len(t, res.Errors, 1)
	assert.True(t, strings.HasPrefix(res.Errors[0],
		"O arquivo enviado não parece ser o de Faturas/Pagamentos. Esperado cabeçalho contendo “Valor a receber”."))
}

const ordersCSV = "Relatório de pedidos\n" +
	"Número do pedido;Status do pedido;ID do item;Receita estimada de mercadorias\n" +
	"A1;Entregue;it-1;10,00\n"

const paymentsCSV = "Relatório de faturas\n" +
	"Número do pedido;Valor a receber\n" +
	"A1;10,00\n"

func TestImportBatch(t *testing.T) {
	store := testutils.NewMemoryStore()
	locker := new(testutils.MockLocker)
	notifier := new(testutils.MockNotifier)

	released := false
	locker.On("Acquire", mock.Anything, uint64(3)).Return(func() { released = true }, nil)
	notifier.On("ImportCompleted", mock.Anything, uint64(3), mock.AnythingOfType("[]domain.FileOutcome")).Return(errors.New("redis down"))

	svc := NewService(store, locker, notifier, Options{Location: testutils.SaoPaulo()}, zap.NewNop())

	outcomes, err := svc.ImportBatch(context.Background(), 3, []Upload{
		{Filename: "pedidos.csv", Reader: strings.NewReader(ordersCSV)},
		{Filename: "faturas.csv", Reader: strings.NewReader(paymentsCSV)},
		{Filename: "ambos.csv", Reader: strings.NewReader("x\nReceita estimada de mercadorias;Valor a receber\n")},
		{Filename: "outro.csv", Reader: strings.NewReader("x\nA;B\n")},
		{Filename: "relatorio.pdf", Reader: strings.NewReader("%PDF")},
	})

	require.NoError(t, err)
	require.Len(t, outcomes, 5)

	assert.Equal(t, domain.FileKindOrders, outcomes[0].Kind)
	assert.Equal(t, 1, outcomes[0].Result.Imported)
	assert.True(t, outcomes[0].Result.OK())
	assert.NotEmpty(t, outcomes[0].Result.Batch)

	assert.Equal(t, domain.FileKindPayments, outcomes[1].Kind)
	assert.Equal(t, 1, outcomes[1].Result.Imported)

	assert.Equal(t, domain.FileKindAmbiguous, outcomes[2].Kind)
	assert.False(t, outcomes[2].Result.OK())

	assert.Equal(t, domain.FileKindUnknown, outcomes[3].Kind)
	assert.False(t, outcomes[3].Result.OK())

	assert.Equal(t, domain.FileKindUnknown, outcomes[4].Kind)
	require.Len(t, outcomes[4].Result.Errors, 1)
	assert.Contains(t, outcomes[4].Result.Errors[0], "(use .xlsx ou .csv)")

	assert.True(t, released)
	locker.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestImportBatch_LockBusy(t *testing.T) {
	locker := new(testutils.MockLocker)
	locker.On("Acquire", mock.Anything, uint64(3)).Return(nil, ErrImportInProgress)

	svc := NewService(testutils.NewMemoryStore(), locker, nil, Options{}, nil)
	outcomes, err := svc.ImportBatch(context.Background(), 3, []Upload{
		{Filename: "pedidos.csv", Reader: strings.NewReader(ordersCSV)},
	})

	assert.True(t, errors.Is(err, ErrImportInProgress))
	assert.Nil(t, outcomes)
}

type explodingReader struct{}

func (explodingReader) Read([]byte) (int, error) { panic("leitor quebrado") }

func TestImportFile_PanicWhileReadingBecomesError(t *testing.T) {
	svc := newTestService(testutils.NewMemoryStore(), Options{})

	outcome := svc.ImportFile(context.Background(), 1, "pedidos.csv", explodingReader{})

	assert.Equal(t, "pedidos.csv", outcome.Filename)
	assert.Equal(t, domain.FileKindUnknown, outcome.Kind)
	require.Len(t, outcome.Result.Errors, 1)
	assert.Contains(t, outcome.Result.Errors[0], "leitor quebrado")
	assert.NotNil(t, outcome.Result.SkippedNumbers)
}

func TestImportFile_UnknownSuggestsClosestHeaders(t *testing.T) {
	svc := newTestService(testutils.NewMemoryStore(), Options{})

	csv := "Relatório\nNúmero do pedido;Receita estimada de mercadoria;Valor a recebe\nA1;10,00;10,00\n"
	outcome := svc.ImportFile(context.Background(), 1, "planilha.csv", strings.NewReader(csv))

	assert.Equal(t, domain.FileKindUnknown, outcome.Kind)
	require.Len(t, outcome.Result.Errors, 1)
	msg := outcome.Result.Errors[0]
	assert.Contains(t, msg, "“Receita estimada de mercadoria” para Pedidos")
	assert.Contains(t, msg, "“Valor a recebe” para Faturas")
}
