package importer

import (
	"strings"

	"reconciliation-service/internal/core/headers"
	"reconciliation-service/internal/core/spreadsheet"
	"reconciliation-service/internal/domain"
)

type fieldSpec struct {
	name     string
	synonyms []string
}

// Campos do relatório de pedidos, na ordem de prioridade dos sinônimos.
var orderFields = []fieldSpec{
	{"order_number", []string{"número do pedido", "numero do pedido", "pedido", "order number"}},
	{"status", []string{"status do pedido", "status"}},
	{"order_date", []string{"coletado em", "coletado"}},
	{"item_id", []string{"id do item"}},
	{"order_type", []string{"tipo de pedido"}},
	{"exchange_order_number", []string{"pedido de troca"}},
	{"shipping_mode", []string{"modo de envio"}},
	{"instado", []string{"instado ou não", "instado"}},
	{"is_lost", []string{"está perdido", "esta perdido"}},
	{"should_stay", []string{"se deve ficar"}},
	{"has_issues", []string{"pedido com problemas"}},
	{"product_name", []string{"nome do produto"}},
	{"product_number", []string{"número do produto", "numero do produto"}},
	{"variation", []string{"variação", "variacao"}},
	{"seller_sku", []string{"sku do vendedor"}},
	{"shein_sku", []string{"shein-sku"}},
	{"skc", []string{"skc"}},
	{"product_status", []string{"status do produto"}},
	{"inventory_id", []string{"id do inventário", "id do inventario"}},
	{"exchange_code", []string{"código de troca", "codigo de troca"}},
	{"exchange_reason", []string{"motivo da substituição", "motivo da substituicao"}},
	{"exchange_product_id", []string{"id do produto a ser trocado"}},
	{"is_blocked", []string{"bloqueado ou não", "bloqueado"}},
	{"label_print_deadline", []string{"prazo para imprimir etiqueta"}},
	{"collection_required_at", []string{"data e hora requeridas para coleta"}},
	{"collected_at", []string{"coletado em"}},
	{"tracking_code", []string{"código de rastreio", "codigo de rastreio"}},
	{"last_mile_provider", []string{"fornecedor de logística de última milha", "fornecedor de logistica de ultima milha"}},
	{"merchant_package", []string{"pacote do comerciante"}},
	{"passes_through_warehouse", []string{"se o pacote passa pelo armazém", "se o pacote passa pelo armazem"}},
	{"first_mile_provider", []string{"fornecedor de logística de primeira mão", "fornecedor de logistica de primeira mao"}},
	{"first_mile_waybill", []string{"número da carta de porte de primeira viagem", "numero da carta de porte de primeira viagem"}},
	{"seller_currency", []string{"moeda do vendedor"}},
	{"product_price", []string{"preço do produto", "preco do produto"}},
	{"coupon_value", []string{"valor do cupom"}},
	{"store_campaign_discount", []string{"desconto de campanha da loja"}},
	{"commission", []string{"comissão", "comissao"}},
}

// Campos do relatório de faturas/pagamentos.
var paymentFields = []fieldSpec{
	{"order_number", []string{"número do pedido", "numero do pedido", "pedido", "order number"}},
	{"paid_at", []string{"data de pagamento", "data", "pago em"}},
	{"amount", []string{"valor a receber", "valor recebido", "valor pago"}},
	{"site", []string{"site"}},
	{"related_order_number", []string{"número de pedido relacionado", "numero de pedido relacionado"}},
	{"invoice_number", []string{"número de fatura", "numero de fatura"}},
	{"seller_delivery_date", []string{"data de entrega do vendedor"}},
	{"delivered_at", []string{"data e hora de entrega"}},
	{"invoice_type", []string{"tipo de fatura"}},
	{"product_price_summary", []string{"resumo de preços de produtos", "resumo de precos de produtos"}},
	{"campaign_discount", []string{"desconto da campanha"}},
	{"store_coupon_value", []string{"valor do cupom da loja"}},
	{"payment_commission", []string{"comissão", "comissao"}},
	{"freight_intermediation_fee", []string{"taxa de intermediação de frete", "taxa de intermediacao de frete"}},
	{"storage_operation_fee", []string{"taxa de operação de estocagem", "taxa de operacao de estocagem"}},
	{"return_processing_fee", []string{"taxa de processamento de devolução", "taxa de processamento de devolucao"}},
}

// columns mapeia nome do campo -> cabeçalho encontrado ("" quando ausente).
type columns map[string]string

func resolveColumns(hdrs []string, specs []fieldSpec) columns {
	cols := make(columns, len(specs))
	for _, spec := range specs {
		cols[spec.name] = headers.FindField(hdrs, spec.synonyms...)
	}
	return cols
}

// cell devolve a célula do campo na linha, ou nil se a coluna não existe.
func (c columns) cell(row domain.RawRow, field string) any {
	h := c[field]
	if h == "" {
		return nil
	}
	return row[h]
}

// readRows associa cada linha de dados ao cabeçalho, como um mapa.
func readRows(sheet spreadsheet.Sheet, headerRow int, hdrs []string) []domain.RawRow {
	var rows []domain.RawRow
	for i := headerRow + 1; i <= sheet.LastRow(); i++ {
		cells := sheet.Row(i)
		row := make(domain.RawRow, len(hdrs))
		for j, h := range hdrs {
			if strings.TrimSpace(h) == "" {
				continue
			}
			var v any
			if j < len(cells) {
				v = cells[j]
			}
			row[h] = v
		}
		rows = append(rows, row)
	}
	return rows
}
