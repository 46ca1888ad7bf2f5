// package domain/models.go
package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PlatformSHEIN is the only marketplace the service reconciles.
const PlatformSHEIN = "SHEIN"

// FileKind is the classification of an uploaded spreadsheet.
type FileKind string

// Constants for file kinds.
const (
	FileKindOrders    FileKind = "orders"
	FileKindPayments  FileKind = "payments"
	FileKindAmbiguous FileKind = "ambiguous"
	FileKindUnknown   FileKind = "unknown"
)

// GroupMode defines how pending items are presented.
type GroupMode string

// Constants for grouping modes.
const (
	GroupByItem  GroupMode = "item"
	GroupByOrder GroupMode = "order"
)

// ParseGroupMode converts a query value into a GroupMode, defaulting to per-item.
func ParseGroupMode(s string) GroupMode {
	if strings.EqualFold(strings.TrimSpace(s), string(GroupByOrder)) {
		return GroupByOrder
	}
	return GroupByItem
}

// RawRow is the untouched spreadsheet row, keyed by header, kept for audit only.
type RawRow map[string]any

// --- Pedidos ---

// OrderLineItem is one row imported from an orders spreadsheet.
type OrderLineItem struct {
	ID          uint64
	UserID      uint64
	ImportBatch string

	OrderNumber          string
	Platform             string
	Status               string
	OrderDate            *time.Time
	CollectedAt          *time.Time
	CollectionRequiredAt *time.Time
	LabelPrintDeadline   *time.Time
	ValueTotal           decimal.Decimal
	LineCount            int

	// Identidade do item
	ItemID           string
	ProductNumber    string
	Variation        string
	SellerSKU        string
	SheinSKU         string
	SKC              string
	InventoryID      string
	TrackingCode     string
	FirstMileWaybill string

	OrderType              string
	ExchangeOrderNumber    string
	ShippingMode           string
	Instado                *bool
	IsLost                 *bool
	ShouldStay             *bool
	HasIssues              *bool
	ProductName            string
	ProductStatus          string
	ExchangeCode           string
	ExchangeReason         string
	ExchangeProductID      string
	IsBlocked              *bool
	LastMileProvider       string
	MerchantPackage        *bool
	PassesThroughWarehouse *bool
	FirstMileProvider      string
	SellerCurrency         string
	ProductPrice           *decimal.Decimal
	CouponValue            *decimal.Decimal
	StoreCampaignDiscount  *decimal.Decimal
	Commission             *decimal.Decimal

	Raw RawRow
}

// HasItemID reports whether the row carries an explicit item identifier.
func (o OrderLineItem) HasItemID() bool {
	return strings.TrimSpace(o.ItemID) != ""
}

// Fingerprint is the composite key used for rows without an item identifier.
func (o OrderLineItem) Fingerprint() string {
	parts := []string{
		strings.TrimSpace(o.OrderNumber),
		o.ValueTotal.StringFixed(2),
		strings.TrimSpace(o.ProductNumber),
		strings.TrimSpace(o.Variation),
		strings.TrimSpace(o.SellerSKU),
		strings.TrimSpace(o.SheinSKU),
		strings.TrimSpace(o.SKC),
		strings.TrimSpace(o.InventoryID),
		strings.TrimSpace(o.TrackingCode),
		strings.TrimSpace(o.FirstMileWaybill),
	}
	return strings.Join(parts, "\x1f")
}

// DedupKey identifies a logical line item within one user's data.
func (o OrderLineItem) DedupKey() string {
	if o.HasItemID() {
		return "id\x1f" + strings.TrimSpace(o.OrderNumber) + "\x1f" + strings.TrimSpace(o.ItemID)
	}
	return "fp\x1f" + o.Fingerprint()
}

// --- Pagamentos ---

// PaymentRecord is one row imported from a payments spreadsheet.
type PaymentRecord struct {
	ID          uint64
	UserID      uint64
	ImportBatch string

	OrderNumber string
	Platform    string
	Amount      decimal.Decimal
	PaidAt      *time.Time

	Site                     string
	RelatedOrderNumber       string
	InvoiceNumber            string
	SellerDeliveryDate       *time.Time
	DeliveredAt              *time.Time
	InvoiceType              string
	ProductPriceSummary      decimal.Decimal
	CampaignDiscount         decimal.Decimal
	StoreCouponValue         decimal.Decimal
	PaymentCommission        decimal.Decimal
	FreightIntermediationFee decimal.Decimal
	StorageOperationFee      decimal.Decimal
	ReturnProcessingFee      decimal.Decimal

	Raw RawRow
}

// IsPaid reports whether the record counts as a payment for its order.
func (p PaymentRecord) IsPaid() bool {
	return p.Amount.IsPositive()
}

// --- Importação ---

// ImportResult is the outcome of importing one spreadsheet.
type ImportResult struct {
	Imported       int      `json:"imported"`
	SkippedCount   int      `json:"skipped_count"`
	SkippedNumbers []string `json:"skipped_numbers"`
	Errors         []string `json:"errors"`
	Batch          string   `json:"batch,omitempty"`
}

// OK reports whether the import finished without errors.
func (r ImportResult) OK() bool {
	return len(r.Errors) == 0
}

// FileOutcome reports what happened to one uploaded file.
type FileOutcome struct {
	Filename string       `json:"filename"`
	Kind     FileKind     `json:"kind"`
	Result   ImportResult `json:"result"`
}

// --- Conciliação ---

// PendingRow is one line of a pending report, either an item or an order.
type PendingRow struct {
	OrderNumber string          `json:"numero_pedido"`
	Platform    string          `json:"plataforma"`
	Status      string          `json:"status"`
	Value       decimal.Decimal `json:"valor_pendente"`
	AgeDays     *int            `json:"dias_vencidos"`
	// CollectedAt é a data de referência da idade (por padrão, a coleta).
	CollectedAt *time.Time      `json:"-"`
	Date        string          `json:"data,omitempty"`
}

// Age returns the age in days, or zero when it is unknown.
func (r PendingRow) Age() int {
	if r.AgeDays == nil {
		return 0
	}
	return *r.AgeDays
}

// PendingSummary holds the metrics of a pending report.
type PendingSummary struct {
	GroupBy      GroupMode       `json:"group_by"`
	CutoffDays   int             `json:"cutoff_days"`
	PendingCount int             `json:"pedidos_pendentes"`
	PendingValue decimal.Decimal `json:"valor_pendente"`
	OlderCount   int             `json:"older_count"`
	OlderValue   decimal.Decimal `json:"older_value"`

	TotalsPerItemCount  int             `json:"totals_per_item_count"`
	TotalsPerItemValue  decimal.Decimal `json:"totals_per_item_value"`
	TotalsPerOrderCount int             `json:"totals_per_order_count"`
	TotalsPerOrderValue decimal.Decimal `json:"totals_per_order_value"`

	TotalOrders   int             `json:"total_pedidos"`
	InvoicedValue decimal.Decimal `json:"valor_faturado"`
	Warning       string          `json:"swal_warning,omitempty"`
}

// PendingReport is the result of a pending-rows query.
type PendingReport struct {
	Summary PendingSummary `json:"summary"`
	Rows    []PendingRow   `json:"rows"`
}

// DashboardSummary holds the dashboard KPIs.
type DashboardSummary struct {
	TotalOrders   int             `json:"total_pedidos"`
	InvoicedValue decimal.Decimal `json:"valor_faturado"`
	CutoffDays    int             `json:"cutoff_days"`
	PendingCount  int             `json:"pedidos_pendentes"`
	PendingValue  decimal.Decimal `json:"valor_pendente"`

	TotalsPerItemCount  int             `json:"totals_per_item_count"`
	TotalsPerItemValue  decimal.Decimal `json:"totals_per_item_value"`
	TotalsPerOrderCount int             `json:"totals_per_order_count"`
	TotalsPerOrderValue decimal.Decimal `json:"totals_per_order_value"`

	Warning string `json:"swal_warning,omitempty"`
}

// DashboardResult is the dashboard summary plus its top pending orders.
type DashboardResult struct {
	Summary DashboardSummary `json:"summary"`
	Rows    []PendingRow     `json:"rows"`
}

// --- Usuários ---

// User is a seller account.
type User struct {
	ID           uint64
	Email        string
	FullName     string
	CNPJ         string
	PasswordHash string
}

// DisplayName returns "Nome (email)" or whichever part is available.
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FullName)
	if fields := strings.Fields(name); len(fields) > 0 {
		name = fields[0]
	}
	mail := strings.TrimSpace(u.Email)
	switch {
	case name != "" && mail != "":
		return name + " (" + mail + ")"
	case name != "":
		return name
	default:
		return mail
	}
}
