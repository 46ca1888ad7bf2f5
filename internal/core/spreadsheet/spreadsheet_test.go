package spreadsheet

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

func TestOpen_CSVSemicolon(t *testing.T) {
	data := "\xef\xbb\xbfRelatório;;\nNúmero do pedido;Receita estimada de mercadorias;Status\nGSH1;10,50;Entregue\n"
	sheet, err := Open("pedidos.csv", strings.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, 3, sheet.LastRow())
	assert.Equal(t, []string{"Número do pedido", "Receita estimada de mercadorias", "Status"}, HeaderStrings(sheet, 2))
	assert.Equal(t, []any{"GSH1", "10,50", "Entregue"}, sheet.Row(3))
	assert.Nil(t, sheet.Row(4))
	assert.Nil(t, sheet.Row(0))
}

func TestOpen_CSVCommaAndLatin1(t *testing.T) {
	latin1, err := charmap.ISO8859_1.NewEncoder().String("titulo\nNúmero do pedido,Valor a receber\nA1,\"12,00\"\n")
	require.NoError(t, err)

	sheet, err := Open("PAGAMENTOS.CSV", strings.NewReader(latin1))
	require.NoError(t, err)
	assert.Equal(t, []string{"Número do pedido", "Valor a receber"}, HeaderStrings(sheet, 2))
	assert.Equal(t, []any{"A1", "12,00"}, sheet.Row(3))
}

func TestOpen_XLSX(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Relatório"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "Número do pedido"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", "Receita estimada de mercadorias"))
	require.NoError(t, f.SetCellValue("Sheet1", "A3", "00123"))
	require.NoError(t, f.SetCellValue("Sheet1", "B3", 99.9))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	sheet, err := Open("pedidos.xlsx", buf)
	require.NoError(t, err)
	assert.Equal(t, 3, sheet.LastRow())
	row := sheet.Row(3)
	require.Len(t, row, 2)
	assert.Equal(t, "00123", row[0])
	assert.Equal(t, 99.9, row[1])
}

func TestOpen_Unsupported(t *testing.T) {
	_, err := Open("pedidos.pdf", strings.NewReader(""))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
	assert.Contains(t, err.Error(), ".pdf (use .xlsx ou .csv)")
}

func TestLooksNumeric(t *testing.T) {
	assert.True(t, looksNumeric("45366.5"))
	assert.True(t, looksNumeric("-12"))
	assert.True(t, looksNumeric("0.5"))
	assert.False(t, looksNumeric("00123"))
	assert.False(t, looksNumeric("GSH1"))
	assert.False(t, looksNumeric(" 12"))
}
