package headers

import (
	"testing"

	"reconciliation-service/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestFindField(t *testing.T) {
	headers := []string{"Tipo de pedido", "Número do Pedido", "Status do pedido", "ID do item"}

	tests := []struct {
		name     string
		synonyms []string
		want     string
	}{
		{name: "acento e caixa ignorados", synonyms: []string{"numero do pedido"}, want: "Número do Pedido"},
		{name: "prioridade do sinônimo vence a ordem das colunas", synonyms: []string{"número do pedido", "pedido"}, want: "Número do Pedido"},
		{name: "sinônimo genérico pega a primeira coluna que contém", synonyms: []string{"pedido"}, want: "Tipo de pedido"},
		{name: "segundo sinônimo quando o primeiro falha", synonyms: []string{"order number", "status"}, want: "Status do pedido"},
		{name: "ausente", synonyms: []string{"valor a receber"}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FindField(headers, tt.synonyms...))
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    domain.FileKind
	}{
		{name: "pedidos", headers: []string{"Número do pedido", "Receita Estimada de Mercadorias (R$)"}, want: domain.FileKindOrders},
		{name: "pagamentos", headers: []string{"Número do pedido", "Valor a Receber"}, want: domain.FileKindPayments},
		{name: "ambíguo", headers: []string{"Receita estimada de mercadorias", "valor a receber"}, want: domain.FileKindAmbiguous},
		{name: "desconhecido", headers: []string{"Foo", "Bar"}, want: domain.FileKindUnknown},
		{name: "vazio", headers: nil, want: domain.FileKindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.headers))
		})
	}
}

func TestClosestHeader(t *testing.T) {
	headers := []string{"Número do pedido", "Receita estimada mercadoria", "Status"}
	assert.Equal(t, "Receita estimada mercadoria", ClosestHeader(headers, OrdersSignature))
	assert.Equal(t, "", ClosestHeader(nil, OrdersSignature))
}

func TestDetectValueColumn_BySynonym(t *testing.T) {
	headers := []string{"Pedido", "Valor do pedido", "A", "B"}
	assert.Equal(t, "Valor do pedido", DetectValueColumn(headers, nil))
}

func TestDetectValueColumn_Heuristic(t *testing.T) {
	headers := []string{"Pedido", "Texto", "Quantia", "Outro", "Ultima1", "Ultima2"}
	rows := []domain.RawRow{
		{"Pedido": "A1", "Texto": "x", "Quantia": "10,50", "Outro": "abc", "Ultima1": 999.0, "Ultima2": 999.0},
		{"Pedido": "A2", "Texto": "y", "Quantia": 20.0, "Outro": "", "Ultima1": 999.0, "Ultima2": 999.0},
	}
	// As duas últimas colunas nunca são candidatas, mesmo sendo numéricas.
	assert.Equal(t, "Quantia", DetectValueColumn(headers, rows))
}

func TestDetectValueColumn_TieBrokenBySum(t *testing.T) {
	headers := []string{"Pedido", "Menor", "Maior", "Z1", "Z2"}
	rows := []domain.RawRow{
		{"Pedido": "A", "Menor": "1", "Maior": "100"},
		{"Pedido": "B", "Menor": "2", "Maior": "200"},
	}
	assert.Equal(t, "Maior", DetectValueColumn(headers, rows))
}

func TestDetectValueColumn_Fallback(t *testing.T) {
	headers := []string{"A", "B", "C", "D", "E"}
	rows := []domain.RawRow{{"A": "x", "B": "y", "C": "z"}}
	// Nenhuma candidata com soma positiva: antepenúltima não vazia.
	assert.Equal(t, "C", DetectValueColumn(headers, rows))
}

func TestDetectValueColumn_Degenerate(t *testing.T) {
	assert.Equal(t, "", DetectValueColumn(nil, nil))
	assert.Equal(t, "Só", DetectValueColumn([]string{"", "Só", " "}, nil))
	assert.Equal(t, "A", DetectValueColumn([]string{"A", "B", "C"}, nil))
}
