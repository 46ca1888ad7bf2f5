package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"reconciliation-service/internal/core/headers"
	"reconciliation-service/internal/core/normalize"
	"reconciliation-service/internal/core/spreadsheet"
	"reconciliation-service/internal/domain"
)

const refundedByCustomer = "reembolsado por cliente"

var (
	errValueColumnNotFound = errors.New("Não foi possível identificar a coluna de valor em Pedidos")
	errOrderNumberNotFound = errors.New("Coluna 'Número do pedido' não encontrada.")
)

// ImportOrders importa a planilha de pedidos.
func (s *service) ImportOrders(ctx context.Context, userID uint64, sheet spreadsheet.Sheet) (res domain.ImportResult) {
	defer guard("Pedidos", &res)

	hdrs := spreadsheet.HeaderStrings(sheet, s.opts.HeaderRow)
	if !headers.ContainsRequiredHeader(hdrs, headers.OrdersSignature) {
		return missingHeader("Pedidos", headers.OrdersSignature, hdrs)
	}

	res, err := s.importOrders(ctx, userID, sheet, hdrs)
	if err != nil {
		s.logger.Sugar().Errorw("erro ao importar pedidos", "user_id", userID, "error", err)
		return failed(fmt.Sprintf("Erro ao importar Pedidos: %v", err))
	}
	return res
}

func (s *service) importOrders(ctx context.Context, userID uint64, sheet spreadsheet.Sheet, hdrs []string) (domain.ImportResult, error) {
	rows := readRows(sheet, s.opts.HeaderRow, hdrs)

	sample := rows
	if len(sample) > s.opts.SampleRows {
		sample = sample[:s.opts.SampleRows]
	}
	valueCol := headers.DetectValueColumn(hdrs, sample)
	if valueCol == "" {
		return domain.ImportResult{}, errValueColumnNotFound
	}

	cols := resolveColumns(hdrs, orderFields)
	if cols["order_number"] == "" {
		return domain.ImportResult{}, errOrderNumberNotFound
	}

	seen, err := s.store.ExistingOrderKeys(ctx, userID)
	if err != nil {
		return domain.ImportResult{}, fmt.Errorf("erro ao carregar pedidos existentes: %w", err)
	}
	if seen == nil {
		seen = make(map[string]struct{})
	}

	batch := s.newBatch()
	var items []domain.OrderLineItem
	var skipped []string
	for _, row := range rows {
		number := normalize.CellString(cols.cell(row, "order_number"))
		if number == "" {
			continue
		}
		status := normalize.CellString(cols.cell(row, "status"))
		if strings.Contains(normalize.FoldText(status), refundedByCustomer) {
			continue
		}

		item := s.buildOrderItem(cols, row, valueCol)
		item.UserID = userID
		item.ImportBatch = batch
		item.OrderNumber = number
		item.Status = status

		key := item.DedupKey()
		if _, dup := seen[key]; dup {
			skipped = append(skipped, number)
			continue
		}
		seen[key] = struct{}{}
		items = append(items, item)
	}

	imported := 0
	if len(items) > 0 {
		imported, err = s.store.InsertOrders(ctx, items)
		if err != nil {
			return domain.ImportResult{}, fmt.Errorf("erro ao gravar pedidos: %w", err)
		}
	}
	return s.result(batch, imported, skipped), nil
}

func (s *service) buildOrderItem(cols columns, row domain.RawRow, valueCol string) domain.OrderLineItem {
	loc := s.opts.Location
	str := func(field string) string { return normalize.CellString(cols.cell(row, field)) }

	return domain.OrderLineItem{
		Platform:             domain.PlatformSHEIN,
		OrderDate:            normalize.ParseDatetime(cols.cell(row, "order_date"), loc),
		CollectedAt:          normalize.ParseDatetime(cols.cell(row, "collected_at"), loc),
		CollectionRequiredAt: normalize.ParseDatetime(cols.cell(row, "collection_required_at"), loc),
		LabelPrintDeadline:   normalize.ParseDatetime(cols.cell(row, "label_print_deadline"), loc),
		ValueTotal:           normalize.ParseDecimal(row[valueCol]),
		LineCount:            1,

		ItemID:           str("item_id"),
		ProductNumber:    str("product_number"),
		Variation:        str("variation"),
		SellerSKU:        str("seller_sku"),
		SheinSKU:         str("shein_sku"),
		SKC:              str("skc"),
		InventoryID:      str("inventory_id"),
		TrackingCode:     str("tracking_code"),
		FirstMileWaybill: str("first_mile_waybill"),

		OrderType:              str("order_type"),
		ExchangeOrderNumber:    str("exchange_order_number"),
		ShippingMode:           str("shipping_mode"),
		Instado:                normalize.ParseBool(cols.cell(row, "instado")),
		IsLost:                 normalize.ParseBool(cols.cell(row, "is_lost")),
		ShouldStay:             normalize.ParseBool(cols.cell(row, "should_stay")),
		HasIssues:              normalize.ParseBool(cols.cell(row, "has_issues")),
		ProductName:            str("product_name"),
		ProductStatus:          str("product_status"),
		ExchangeCode:           str("exchange_code"),
		ExchangeReason:         str("exchange_reason"),
		ExchangeProductID:      str("exchange_product_id"),
		IsBlocked:              normalize.ParseBool(cols.cell(row, "is_blocked")),
		LastMileProvider:       str("last_mile_provider"),
		MerchantPackage:        normalize.ParseBool(cols.cell(row, "merchant_package")),
		PassesThroughWarehouse: normalize.ParseBool(cols.cell(row, "passes_through_warehouse")),
		FirstMileProvider:      str("first_mile_provider"),
		SellerCurrency:         str("seller_currency"),
		ProductPrice:           normalize.DecimalOrNil(cols.cell(row, "product_price")),
		CouponValue:            normalize.DecimalOrNil(cols.cell(row, "coupon_value")),
		StoreCampaignDiscount:  normalize.DecimalOrNil(cols.cell(row, "store_campaign_discount")),
		Commission:             normalize.DecimalOrNil(cols.cell(row, "commission")),

		Raw: row,
	}
}
