// Package normalize converte células de planilha (números, datas e textos em
// formato brasileiro) em tipos canônicos. Nenhuma função daqui falha: valores
// ilegíveis viram zero ou nil.
package normalize

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldText remove acentos, converte para minúsculas e apara espaços.
func FoldText(str string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
		return unicode.Is(unicode.Mn, r)
	}))
	result, _, err := transform.String(t, str)
	if err != nil {
		result = str
	}
	return strings.TrimSpace(strings.ToLower(result))
}

// CellString devolve o texto canônico de uma célula.
func CellString(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case bool:
		return strconv.FormatBool(v)
	case decimal.Decimal:
		return v.String()
	case time.Time:
		return v.Format("2006-01-02 15:04:05")
	default:
		return ""
	}
}

// Presence devolve nil para célula vazia.
func Presence(raw any) *string {
	s := CellString(raw)
	if s == "" {
		return nil
	}
	return &s
}

var truthy = map[string]bool{"sim": true, "yes": true, "true": true, "1": true, "y": true}
var falsy = map[string]bool{"não": true, "nao": true, "no": true, "false": true, "0": true, "n": true}

// ParseBool reconhece sim/não em português e inglês. Qualquer outra coisa é nil.
func ParseBool(raw any) *bool {
	s := strings.ToLower(CellString(raw))
	switch {
	case truthy[s]:
		b := true
		return &b
	case falsy[s]:
		b := false
		return &b
	default:
		return nil
	}
}
