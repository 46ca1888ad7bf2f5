package export

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"reconciliation-service/internal/domain"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
)

// ReportMeta is the context printed around the pending table.
type ReportMeta struct {
	GeneratedAt time.Time
	ExportedBy  string
	GroupBy     domain.GroupMode
	CutoffDays  int
}

const emptyReportText = "Sem pendências com o filtro atual."

// Report gera o relatório de pendências em texto. Os totais do cabeçalho são
// calculados das próprias linhas.
func Report(rows []domain.PendingRow, meta ReportMeta) ([]byte, error) {
	var buf bytes.Buffer

	count := len(rows)
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Value)
	}

	fmt.Fprintln(&buf, "Relatório de Pendências")
	fmt.Fprintf(&buf, "gerado em %s\n", meta.GeneratedAt.Format("02/01/2006 15:04"))
	if meta.ExportedBy != "" {
		fmt.Fprintf(&buf, "Exportado por: %s\n", meta.ExportedBy)
	}
	mode := "item"
	if meta.GroupBy == domain.GroupByOrder {
		mode = "pedido"
	}
	fmt.Fprintf(&buf, "Agrupamento: por %s | Corte: %d dias\n", mode, meta.CutoffDays)
	fmt.Fprintf(&buf, "Pedidos pendentes: %d\n", count)
	fmt.Fprintf(&buf, "Valor pendente: %s\n\n", FormatBRL(total))

	if count == 0 {
		fmt.Fprintln(&buf, emptyReportText)
		return buf.Bytes(), nil
	}

	table := tablewriter.NewWriter(&buf)
	table.Header([]string{"Pedido", "Valor pendente (R$)", "Dias vencidos", "Coletado em"})
	for _, r := range rows {
		age := ""
		if r.AgeDays != nil {
			age = strconv.Itoa(*r.AgeDays)
		}
		if err := table.Append([]string{r.OrderNumber, FormatMoneyCell(r.Value), age, reportDate(r, meta.GeneratedAt)}); err != nil {
			return nil, fmt.Errorf("erro ao montar relatório: %w", err)
		}
	}
	table.Footer([]string{"Total", FormatMoneyCell(total), "", ""})
	if err := table.Render(); err != nil {
		return nil, fmt.Errorf("erro ao renderizar relatório: %w", err)
	}
	return buf.Bytes(), nil
}

// reportDate usa a data da linha ou, sem ela, reconstrói hoje - dias vencidos.
func reportDate(r domain.PendingRow, now time.Time) string {
	if r.Date != "" {
		return r.Date
	}
	if age := r.Age(); age > 0 {
		return now.AddDate(0, 0, -age).Format("02/01/2006")
	}
	return "-"
}
