package reconciliation

import (
	"sort"
	"strings"
	"time"

	"reconciliation-service/internal/domain"

	"github.com/shopspring/decimal"
)

// PaidSet devolve os números de pedido com algum pagamento positivo.
func PaidSet(payments []domain.PaymentRecord) map[string]struct{} {
	paid := make(map[string]struct{})
	for _, p := range payments {
		if p.IsPaid() {
			paid[strings.TrimSpace(p.OrderNumber)] = struct{}{}
		}
	}
	return paid
}

// PendingCandidates keeps items with a positive value whose order is not paid.
func PendingCandidates(orders []domain.OrderLineItem, paid map[string]struct{}) []domain.OrderLineItem {
	var out []domain.OrderLineItem
	for _, o := range orders {
		if !o.ValueTotal.IsPositive() {
			continue
		}
		if _, ok := paid[strings.TrimSpace(o.OrderNumber)]; ok {
			continue
		}
		out = append(out, o)
	}
	return out
}

// DedupItems mantém um representante por item de cada pedido: pelo ID do item
// quando existe, senão pela impressão digital de 10 campos. Vence a primeira
// ocorrência; os pedidos saem na ordem em que aparecem.
func DedupItems(items []domain.OrderLineItem) []domain.OrderLineItem {
	type group struct {
		withID    []domain.OrderLineItem
		withoutID []domain.OrderLineItem
		seen      map[string]struct{}
	}
	groups := make(map[string]*group)
	var numbers []string

	for _, item := range items {
		num := strings.TrimSpace(item.OrderNumber)
		g, ok := groups[num]
		if !ok {
			g = &group{seen: make(map[string]struct{})}
			groups[num] = g
			numbers = append(numbers, num)
		}
		key := item.DedupKey()
		if _, dup := g.seen[key]; dup {
			continue
		}
		g.seen[key] = struct{}{}
		if item.HasItemID() {
			g.withID = append(g.withID, item)
		} else {
			g.withoutID = append(g.withoutID, item)
		}
	}

	out := make([]domain.OrderLineItem, 0, len(items))
	for _, num := range numbers {
		g := groups[num]
		out = append(out, g.withID...)
		out = append(out, g.withoutID...)
	}
	return out
}

// AgeInDays é a diferença em dias de calendário, no fuso do negócio, entre hoje
// e a data de referência. nil quando a data é desconhecida.
func AgeInDays(since *time.Time, today time.Time, loc *time.Location) *int {
	if since == nil {
		return nil
	}
	days := int(civilDate(today, loc).Sub(civilDate(*since, loc)).Hours() / 24)
	return &days
}

func civilDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func platformOf(o domain.OrderLineItem) string {
	if p := strings.TrimSpace(o.Platform); p != "" {
		return p
	}
	return domain.PlatformSHEIN
}

func formatDate(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return t.In(loc).Format("02/01/2006")
}

// ItemRows gera uma linha por item pendente.
func ItemRows(items []domain.OrderLineItem, anchor AgeAnchor, today time.Time, loc *time.Location) []domain.PendingRow {
	rows := make([]domain.PendingRow, 0, len(items))
	for _, o := range items {
		since := anchor.Of(o)
		rows = append(rows, domain.PendingRow{
			OrderNumber: strings.TrimSpace(o.OrderNumber),
			Platform:    platformOf(o),
			Status:      o.Status,
			Value:       o.ValueTotal.Round(2),
			AgeDays:     AgeInDays(since, today, loc),
			CollectedAt: since,
			Date:        formatDate(since, loc),
		})
	}
	return rows
}

// OrderRows reagrupa os itens por pedido. A idade parte da data mais antiga e
// o valor é a soma dos itens; status e plataforma vêm do primeiro item.
func OrderRows(items []domain.OrderLineItem, anchor AgeAnchor, today time.Time, loc *time.Location) []domain.PendingRow {
	index := make(map[string]int)
	var rows []domain.PendingRow
	for _, o := range items {
		num := strings.TrimSpace(o.OrderNumber)
		i, ok := index[num]
		if !ok {
			index[num] = len(rows)
			rows = append(rows, domain.PendingRow{
				OrderNumber: num,
				Platform:    platformOf(o),
				Status:      o.Status,
				Value:       decimal.Zero,
			})
			i = len(rows) - 1
		}
		row := &rows[i]
		row.Value = row.Value.Add(o.ValueTotal)
		if since := anchor.Of(o); since != nil && (row.CollectedAt == nil || since.Before(*row.CollectedAt)) {
			at := *since
			row.CollectedAt = &at
		}
	}
	for i := range rows {
		rows[i].Value = rows[i].Value.Round(2)
		rows[i].AgeDays = AgeInDays(rows[i].CollectedAt, today, loc)
		rows[i].Date = formatDate(rows[i].CollectedAt, loc)
	}
	if rows == nil {
		rows = []domain.PendingRow{}
	}
	return rows
}

// ApplyCutoff keeps rows whose age is at least cutoffDays, sorted oldest and
// most valuable first, ties by order number. limit <= 0 keeps everything.
func ApplyCutoff(rows []domain.PendingRow, cutoffDays, limit int) []domain.PendingRow {
	out := make([]domain.PendingRow, 0, len(rows))
	for _, r := range rows {
		if r.AgeDays != nil && *r.AgeDays >= cutoffDays {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Age() != b.Age() {
			return a.Age() > b.Age()
		}
		if !a.Value.Equal(b.Value) {
			return a.Value.GreaterThan(b.Value)
		}
		return a.OrderNumber < b.OrderNumber
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Totals soma quantidade e valor das linhas.
func Totals(rows []domain.PendingRow) (int, decimal.Decimal) {
	sum := decimal.Zero
	for _, r := range rows {
		sum = sum.Add(r.Value)
	}
	return len(rows), sum.Round(2)
}
