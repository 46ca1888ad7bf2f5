// Package headers resolve quais colunas de uma planilha correspondem aos campos
// de pedidos e pagamentos, tolerando acentos, caixa e pequenas variações de nome.
package headers

import (
	"strings"

	"reconciliation-service/internal/core/normalize"
	"reconciliation-service/internal/domain"

	"github.com/schollz/closestmatch"
	"github.com/shopspring/decimal"
)

// Frases de assinatura dos dois relatórios da SHEIN.
const (
	OrdersSignature   = "Receita estimada de mercadorias"
	PaymentsSignature = "Valor a receber"
)

// ValueSynonyms são os nomes prováveis da coluna de valor do relatório de pedidos.
var ValueSynonyms = []string{
	"Receita estimada de mercadorias",
	"Receita estimada de mercadorias (R$)",
	"Receita de mercadorias",
	"Valor total",
	"Total do pedido",
	"Valor do pedido",
	"Estimated merchandise revenue",
	"Merchandise revenue",
	"Order total",
}

const (
	maxValueCandidates = 6
	maxSampleRows      = 250
)

// FindField devolve o primeiro cabeçalho que contém algum sinônimo, testando os
// sinônimos em ordem de prioridade. Devolve "" quando nada casa.
func FindField(headers []string, synonyms ...string) string {
	folded := make([]string, len(headers))
	for i, h := range headers {
		folded[i] = normalize.FoldText(h)
	}
	for _, syn := range synonyms {
		want := normalize.FoldText(syn)
		if want == "" {
			continue
		}
		for i, h := range folded {
			if strings.Contains(h, want) {
				return headers[i]
			}
		}
	}
	return ""
}

// ContainsRequiredHeader reports whether any header contains the phrase.
func ContainsRequiredHeader(headers []string, phrase string) bool {
	return FindField(headers, phrase) != ""
}

// Classify identifica o tipo do arquivo pelas frases de assinatura.
func Classify(headers []string) domain.FileKind {
	orders := ContainsRequiredHeader(headers, OrdersSignature)
	payments := ContainsRequiredHeader(headers, PaymentsSignature)
	switch {
	case orders && payments:
		return domain.FileKindAmbiguous
	case orders:
		return domain.FileKindOrders
	case payments:
		return domain.FileKindPayments
	default:
		return domain.FileKindUnknown
	}
}

// ClosestHeader sugere o cabeçalho mais parecido com a frase procurada.
func ClosestHeader(headers []string, phrase string) string {
	keys := make([]string, 0, len(headers))
	byKey := make(map[string]string, len(headers))
	for _, h := range headers {
		k := normalize.FoldText(h)
		if k == "" {
			continue
		}
		if _, seen := byKey[k]; !seen {
			keys = append(keys, k)
			byKey[k] = strings.TrimSpace(h)
		}
	}
	if len(keys) == 0 {
		return ""
	}
	cm := closestmatch.New(keys, []int{3, 4})
	match := cm.Closest(normalize.FoldText(phrase))
	return byKey[match]
}

// DetectValueColumn encontra a coluna de valor do relatório de pedidos.
// Ordem: sinônimos; heurística numérica nas últimas colunas (ignorando sempre
// as duas últimas não vazias); por fim, a antepenúltima não vazia.
func DetectValueColumn(headers []string, sampleRows []domain.RawRow) string {
	if byName := FindField(headers, ValueSynonyms...); byName != "" {
		return byName
	}

	var nonEmpty []string
	for _, h := range headers {
		if strings.TrimSpace(h) != "" {
			nonEmpty = append(nonEmpty, h)
		}
	}
	switch {
	case len(nonEmpty) == 0:
		return ""
	case len(nonEmpty) <= 1:
		return nonEmpty[len(nonEmpty)-1]
	case len(nonEmpty) == 3:
		return nonEmpty[0]
	}

	candidates := nonEmpty
	if len(nonEmpty) >= 4 {
		candidates = nonEmpty[:len(nonEmpty)-2]
	}
	if len(candidates) > maxValueCandidates {
		candidates = candidates[len(candidates)-maxValueCandidates:]
	}

	sample := sampleRows
	if len(sample) > maxSampleRows {
		sample = sample[:maxSampleRows]
	}

	bestHeader := ""
	bestCount := -1
	bestSum := decimal.Zero
	for _, h := range candidates {
		count := 0
		sum := decimal.Zero
		for _, row := range sample {
			v := row[h]
			if normalize.IsNumericLike(v) {
				count++
			}
			sum = sum.Add(normalize.ParseDecimal(v))
		}
		if count > bestCount || (count == bestCount && sum.GreaterThan(bestSum)) {
			bestHeader, bestCount, bestSum = h, count, sum
		}
	}

	if bestHeader != "" && bestSum.IsPositive() {
		return bestHeader
	}
	if len(nonEmpty) >= 3 {
		return nonEmpty[len(nonEmpty)-3]
	}
	return nonEmpty[len(nonEmpty)-1]
}
