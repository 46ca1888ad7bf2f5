package importer

import (
	"context"
	"fmt"

	"reconciliation-service/internal/core/headers"
	"reconciliation-service/internal/core/normalize"
	"reconciliation-service/internal/core/spreadsheet"
	"reconciliation-service/internal/domain"
)

// ImportPayments importa a planilha de faturas/pagamentos.
func (s *service) ImportPayments(ctx context.Context, userID uint64, sheet spreadsheet.Sheet) (res domain.ImportResult) {
	defer guard("Pagamentos", &res)

	hdrs := spreadsheet.HeaderStrings(sheet, s.opts.HeaderRow)
	if !headers.ContainsRequiredHeader(hdrs, headers.PaymentsSignature) {
		return missingHeader("Faturas/Pagamentos", headers.PaymentsSignature, hdrs)
	}

	res, err := s.importPayments(ctx, userID, sheet, hdrs)
	if err != nil {
		s.logger.Sugar().Errorw("erro ao importar pagamentos", "user_id", userID, "error", err)
		return failed(fmt.Sprintf("Erro ao importar Pagamentos: %v", err))
	}
	return res
}

func (s *service) importPayments(ctx context.Context, userID uint64, sheet spreadsheet.Sheet, hdrs []string) (domain.ImportResult, error) {
	cols := resolveColumns(hdrs, paymentFields)
	if cols["order_number"] == "" {
		return domain.ImportResult{}, errOrderNumberNotFound
	}

	batch := s.newBatch()

	// maior valor positivo por pedido; a ordem de primeira aparição é preservada
	best := make(map[string]domain.PaymentRecord)
	var order []string
	for _, row := range readRows(sheet, s.opts.HeaderRow, hdrs) {
		number := normalize.CellString(cols.cell(row, "order_number"))
		if number == "" {
			continue
		}
		p := s.buildPayment(cols, row)
		if !p.IsPaid() {
			continue
		}
		cur, ok := best[number]
		if !ok {
			order = append(order, number)
		}
		if !ok || p.Amount.GreaterThan(cur.Amount) {
			p.UserID = userID
			p.ImportBatch = batch
			p.OrderNumber = number
			best[number] = p
		}
	}

	existing, err := s.store.ExistingPaymentNumbers(ctx, userID, order)
	if err != nil {
		return domain.ImportResult{}, fmt.Errorf("erro ao carregar pagamentos existentes: %w", err)
	}

	var payments []domain.PaymentRecord
	var skipped []string
	for _, number := range order {
		if _, dup := existing[number]; dup {
			skipped = append(skipped, number)
			continue
		}
		payments = append(payments, best[number])
	}

	imported := 0
	if len(payments) > 0 {
		imported, err = s.store.InsertPaymentsAndPurge(ctx, userID, payments)
		if err != nil {
			return domain.ImportResult{}, fmt.Errorf("erro ao gravar pagamentos: %w", err)
		}
	}
	return s.result(batch, imported, skipped), nil
}

func (s *service) buildPayment(cols columns, row domain.RawRow) domain.PaymentRecord {
	loc := s.opts.Location
	return domain.PaymentRecord{
		Platform:                 domain.PlatformSHEIN,
		Amount:                   normalize.ParseDecimal(cols.cell(row, "amount")),
		PaidAt:                   normalize.ParseDatetime(cols.cell(row, "paid_at"), loc),
		Site:                     normalize.CellString(cols.cell(row, "site")),
		RelatedOrderNumber:       normalize.CellString(cols.cell(row, "related_order_number")),
		InvoiceNumber:            normalize.CellString(cols.cell(row, "invoice_number")),
		SellerDeliveryDate:       normalize.ParseDatetime(cols.cell(row, "seller_delivery_date"), loc),
		DeliveredAt:              normalize.ParseDatetime(cols.cell(row, "delivered_at"), loc),
		InvoiceType:              normalize.CellString(cols.cell(row, "invoice_type")),
		ProductPriceSummary:      normalize.ParseDecimal(cols.cell(row, "product_price_summary")),
		CampaignDiscount:         normalize.ParseDecimal(cols.cell(row, "campaign_discount")),
		StoreCouponValue:         normalize.ParseDecimal(cols.cell(row, "store_coupon_value")),
		PaymentCommission:        normalize.ParseDecimal(cols.cell(row, "payment_commission")),
		FreightIntermediationFee: normalize.ParseDecimal(cols.cell(row, "freight_intermediation_fee")),
		StorageOperationFee:      normalize.ParseDecimal(cols.cell(row, "storage_operation_fee")),
		ReturnProcessingFee:      normalize.ParseDecimal(cols.cell(row, "return_processing_fee")),
		Raw:                      row,
	}
}
