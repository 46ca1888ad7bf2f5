package export

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"reconciliation-service/internal/domain"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Charsets aceitos no CSV.
const (
	CharsetUTF8        = "utf-8"
	CharsetWindows1252 = "windows-1252"
)

var csvHeader = []string{"Pedido", "Plataforma", "Status", "Valor pendente (R$)", "Dias vencidos", "Coletado em"}

// CSVOptions controls the CSV output.
type CSVOptions struct {
	// Charset é utf-8 (com BOM, padrão) ou windows-1252.
	Charset string
}

// ParseCharset normaliza o nome do charset, devolvendo erro para valores desconhecidos.
func ParseCharset(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "utf-8", "utf8":
		return CharsetUTF8, nil
	case "windows-1252", "cp1252", "latin1", "iso-8859-1":
		return CharsetWindows1252, nil
	default:
		return "", fmt.Errorf("charset não suportado: %s", s)
	}
}

// CSV gera o arquivo de pendências com ';' como separador e vírgula decimal.
// Todos os campos vão entre aspas.
func CSV(rows []domain.PendingRow, opts CSVOptions) ([]byte, error) {
	charset, err := ParseCharset(opts.Charset)
	if err != nil {
		return nil, err
	}

	var buffer bytes.Buffer
	var w io.Writer = &buffer
	var closer io.Closer
	if charset == CharsetWindows1252 {
		tw := transform.NewWriter(&buffer, encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder()))
		w, closer = tw, tw
	} else {
		buffer.WriteString("\xef\xbb\xbf")
	}

	if err := writeQuoted(w, csvHeader); err != nil {
		return nil, err
	}
	for _, row := range rows {
		age := ""
		if row.AgeDays != nil {
			age = strconv.Itoa(*row.AgeDays)
		}
		record := []string{
			row.OrderNumber,
			row.Platform,
			row.Status,
			FormatMoneyCell(row.Value),
			age,
			row.Date,
		}
		if err := writeQuoted(w, record); err != nil {
			return nil, fmt.Errorf("erro ao gerar CSV: %w", err)
		}
	}

	if closer != nil {
		if err := closer.Close(); err != nil {
			return nil, fmt.Errorf("erro ao codificar CSV: %w", err)
		}
	}
	return buffer.Bytes(), nil
}

func writeQuoted(w io.Writer, fields []string) error {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		f = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(f)
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	_, err := io.WriteString(w, strings.Join(quoted, ";")+"\r\n")
	return err
}
