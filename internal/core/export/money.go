// Package export gera o CSV e o relatório em texto das pendências.
package export

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatMoneyCell formata no padrão brasileiro sem símbolo: 1.234,56.
func FormatMoneyCell(d decimal.Decimal) string {
	s := d.Round(2).Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if d.Round(2).IsNegative() {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}

// FormatBRL formata com o símbolo: R$ 1.234,56.
func FormatBRL(d decimal.Decimal) string {
	return "R$ " + FormatMoneyCell(d)
}
