// Package spreadsheet abre planilhas enviadas (.xlsx, .xlsm, .xls, .csv) e expõe a
// primeira aba como linhas de células indexadas a partir de 1.
package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// ErrUnsupportedFormat is returned for extensions the service cannot read.
var ErrUnsupportedFormat = errors.New("formato não suportado")

// Sheet is the first worksheet of an uploaded file.
// Cells are nil, string or float64 (numbers and dates as spreadsheet serials).
type Sheet interface {
	// Row devolve a linha i (1-based); linhas inexistentes são nil.
	Row(i int) []any
	// LastRow é o índice da última linha.
	LastRow() int
}

type memorySheet struct {
	rows [][]any
}

// NewSheet wraps already-parsed rows. Row 1 is rows[0].
func NewSheet(rows [][]any) Sheet {
	return &memorySheet{rows: rows}
}

func (s *memorySheet) Row(i int) []any {
	if i < 1 || i > len(s.rows) {
		return nil
	}
	return s.rows[i-1]
}

func (s *memorySheet) LastRow() int {
	return len(s.rows)
}

// HeaderStrings devolve o texto de cada célula da linha de cabeçalho.
func HeaderStrings(s Sheet, row int) []string {
	cells := s.Row(row)
	out := make([]string, len(cells))
	for i, c := range cells {
		switch v := c.(type) {
		case nil:
		case string:
			out[i] = v
		case float64:
			out[i] = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}

// Open escolhe o leitor pela extensão do arquivo.
func Open(filename string, r io.Reader) (Sheet, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".xlsx", ".xlsm":
		return openXLSX(r)
	case ".xls":
		return openXLS(r)
	case ".csv":
		return openCSV(r)
	default:
		return nil, fmt.Errorf("%w: %s (use .xlsx ou .csv)", ErrUnsupportedFormat, ext)
	}
}

func openXLSX(r io.Reader) (Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("erro ao abrir planilha .xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("a planilha não contém abas")
	}
	sheetName := sheets[0]

	rawRows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("erro ao ler linhas da planilha: %w", err)
	}

	rows := make([][]any, len(rawRows))
	for i, raw := range rawRows {
		row := make([]any, len(raw))
		for j, val := range raw {
			if val == "" {
				continue
			}
			row[j] = val
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				continue
			}
			cellType, err := f.GetCellType(sheetName, cell)
			if err != nil {
				continue
			}
			switch cellType {
			case excelize.CellTypeUnset, excelize.CellTypeNumber, excelize.CellTypeDate:
				if n, err := strconv.ParseFloat(val, 64); err == nil {
					row[j] = n
				}
			}
		}
		rows[i] = row
	}
	return NewSheet(rows), nil
}

func openXLS(r io.Reader) (Sheet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	workbook, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		// talvez seja xlsx salvo com extensão .xls; tentar excelize
		if sheet, errX := openXLSX(bytes.NewReader(data)); errX == nil {
			return sheet, nil
		}
		return nil, fmt.Errorf("erro ao abrir planilha .xls: %w", err)
	}
	if len(workbook.GetSheets()) == 0 {
		return nil, fmt.Errorf("o arquivo .xls não contém planilhas")
	}
	sheet, err := workbook.GetSheet(0)
	if err != nil {
		return nil, fmt.Errorf("erro ao obter planilha do arquivo .xls: %w", err)
	}

	var rows [][]any
	for _, xlsRow := range sheet.GetRows() {
		var row []any
		for _, cell := range xlsRow.GetCols() {
			val := cell.GetString()
			if val == "" {
				row = append(row, nil)
				continue
			}
			if looksNumeric(val) {
				if n, err := strconv.ParseFloat(val, 64); err == nil {
					row = append(row, n)
					continue
				}
			}
			row = append(row, val)
		}
		rows = append(rows, row)
	}
	return NewSheet(rows), nil
}

// looksNumeric aceita só números "limpos"; zeros à esquerda indicam código, não valor.
func looksNumeric(val string) bool {
	if val == "" || strings.TrimSpace(val) != val {
		return false
	}
	digits := strings.TrimPrefix(val, "-")
	if len(digits) > 1 && digits[0] == '0' && digits[1] != '.' {
		return false
	}
	for _, r := range digits {
		if (r < '0' || r > '9') && r != '.' && r != 'E' && r != 'e' && r != '+' && r != '-' {
			return false
		}
	}
	return true
}

func openCSV(r io.Reader) (Sheet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	var src io.Reader = bytes.NewReader(data)
	if !utf8.Valid(data) {
		src = transform.NewReader(src, charmap.ISO8859_1.NewDecoder())
	}

	reader := csv.NewReader(src)
	reader.Comma = sniffDelimiter(data)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("erro ao ler CSV: %w", err)
	}

	rows := make([][]any, len(records))
	for i, rec := range records {
		row := make([]any, len(rec))
		for j, val := range rec {
			if strings.TrimSpace(val) == "" {
				continue
			}
			row[j] = val
		}
		rows[i] = row
	}
	return NewSheet(rows), nil
}

// sniffDelimiter olha as primeiras linhas e escolhe ';' ou ','.
func sniffDelimiter(data []byte) rune {
	lines := bytes.SplitN(data, []byte("\n"), 4)
	semicolons, commas := 0, 0
	for _, line := range lines {
		semicolons += bytes.Count(line, []byte(";"))
		commas += bytes.Count(line, []byte(","))
	}
	if semicolons > 0 && semicolons >= commas {
		return ';'
	}
	return ','
}
