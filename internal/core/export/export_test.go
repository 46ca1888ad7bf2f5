package export

import (
	"strings"
	"testing"
	"time"

	"reconciliation-service/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func intPtr(n int) *int { return &n }

func sampleRows() []domain.PendingRow {
	return []domain.PendingRow{
		{OrderNumber: "GSH1", Platform: "SHEIN", Status: "Entregue", Value: decimal.RequireFromString("1234.5"), AgeDays: intPtr(95), Date: "27/03/2024"},
		{OrderNumber: "GSH\"2", Platform: "SHEIN", Status: "Ação pendente", Value: decimal.RequireFromString("10"), AgeDays: intPtr(40)},
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		cell string
	}{
		{"0", "0,00"},
		{"1234.56", "1.234,56"},
		{"1234567.891", "1.234.567,89"},
		{"-1500", "-1.500,00"},
		{"999.999", "1.000,00"},
		{"12.3", "12,30"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d := decimal.RequireFromString(tt.in)
			assert.Equal(t, tt.cell, FormatMoneyCell(d))
			assert.Equal(t, "R$ "+tt.cell, FormatBRL(d))
		})
	}
}

func TestCSV_UTF8(t *testing.T) {
	out, err := CSV(sampleRows(), CSVOptions{})
	require.NoError(t, err)

	text := string(out)
	require.True(t, strings.HasPrefix(text, "\xef\xbb\xbf"))
	lines := strings.Split(strings.TrimSuffix(strings.TrimPrefix(text, "\xef\xbb\xbf"), "\r\n"), "\r\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `"Pedido";"Plataforma";"Status";"Valor pendente (R$)";"Dias vencidos";"Coletado em"`, lines[0])
	assert.Equal(t, `"GSH1";"SHEIN";"Entregue";"1.234,50";"95";"27/03/2024"`, lines[1])
	assert.Equal(t, `"GSH""2";"SHEIN";"Ação pendente";"10,00";"40";""`, lines[2])
}

func TestCSV_Windows1252(t *testing.T) {
	out, err := CSV(sampleRows(), CSVOptions{Charset: "cp1252"})
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(string(out), "\xef\xbb\xbf"))

	decoded, err := charmap.Windows1252.NewDecoder().Bytes(out)
	require.NoError(t, err)
	assert.Contains(t, string(decoded), `"Ação pendente"`)
	assert.NotContains(t, string(out), "Ação", "output must not be UTF-8")
}

func TestCSV_UnknownCharset(t *testing.T) {
	_, err := CSV(nil, CSVOptions{Charset: "ebcdic"})
	require.Error(t, err)
}

func TestReport(t *testing.T) {
	generated := time.Date(2024, 6, 30, 14, 5, 0, 0, time.UTC)
	out, err := Report(sampleRows(), ReportMeta{
		GeneratedAt: generated,
		ExportedBy:  "Maria (maria@loja.com)",
		GroupBy:     domain.GroupByOrder,
		CutoffDays:  30,
	})
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "Relatório de Pendências")
	assert.Contains(t, text, "gerado em 30/06/2024 14:05")
	assert.Contains(t, text, "Exportado por: Maria (maria@loja.com)")
	assert.Contains(t, text, "Pedidos pendentes: 2")
	assert.Contains(t, text, "Valor pendente: R$ 1.244,50")
	assert.Contains(t, text, "GSH1")
	assert.Contains(t, text, "27/03/2024")
	// data reconstruída: 30/06 - 40 dias
	assert.Contains(t, text, "21/05/2024")
	assert.NotContains(t, text, emptyReportText)
}

func TestReport_Empty(t *testing.T) {
	out, err := Report(nil, ReportMeta{GeneratedAt: time.Now()})
	require.NoError(t, err)
	assert.Contains(t, string(out), "Pedidos pendentes: 0")
	assert.Contains(t, string(out), "Valor pendente: R$ 0,00")
	assert.Contains(t, string(out), emptyReportText)
}
