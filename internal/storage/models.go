package storage

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"reconciliation-service/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrUnsupportedPlatform is returned when a record names a marketplace other than SHEIN.
var ErrUnsupportedPlatform = errors.New("plataforma não suportada")

// OrderModel é a linha da tabela orders.
type OrderModel struct {
	ID          uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	UserID      uint64 `gorm:"column:user_id;not null;uniqueIndex:uk_orders_user_item,priority:1;uniqueIndex:uk_orders_user_dedup,priority:1;index:idx_orders_user_number,priority:1"`
	ImportBatch string `gorm:"column:import_batch;type:varchar(36);index"`

	OrderNumber          string          `gorm:"column:order_number;type:varchar(64);not null;uniqueIndex:uk_orders_user_item,priority:2;index:idx_orders_user_number,priority:2"`
	Platform             string          `gorm:"column:platform;type:varchar(16);not null;default:'SHEIN'"`
	Status               string          `gorm:"column:status;type:varchar(128)"`
	OrderDate            *time.Time      `gorm:"column:order_date"`
	CollectedAt          *time.Time      `gorm:"column:collected_at"`
	CollectionRequiredAt *time.Time      `gorm:"column:collection_required_at"`
	LabelPrintDeadline   *time.Time      `gorm:"column:label_print_deadline"`
	ValueTotal           decimal.Decimal `gorm:"column:value_total;type:decimal(14,2);not null;default:0"`
	LineCount            int             `gorm:"column:line_count;not null;default:1"`

	ItemID           *string `gorm:"column:item_id;type:varchar(64);uniqueIndex:uk_orders_user_item,priority:3"`
	DedupKey         *string `gorm:"column:dedup_key;type:char(40);uniqueIndex:uk_orders_user_dedup,priority:2"`
	ProductNumber    string  `gorm:"column:product_number;type:varchar(128)"`
	Variation        string  `gorm:"column:variation;type:varchar(255)"`
	SellerSKU        string  `gorm:"column:seller_sku;type:varchar(128)"`
	SheinSKU         string  `gorm:"column:shein_sku;type:varchar(128)"`
	SKC              string  `gorm:"column:skc;type:varchar(128)"`
	InventoryID      string  `gorm:"column:inventory_id;type:varchar(128)"`
	TrackingCode     string  `gorm:"column:tracking_code;type:varchar(128)"`
	FirstMileWaybill string  `gorm:"column:first_mile_waybill;type:varchar(128)"`

	OrderType              string              `gorm:"column:order_type;type:varchar(64)"`
	ExchangeOrderNumber    string              `gorm:"column:exchange_order_number;type:varchar(64)"`
	ShippingMode           string              `gorm:"column:shipping_mode;type:varchar(64)"`
	Instado                *bool               `gorm:"column:instado"`
	IsLost                 *bool               `gorm:"column:is_lost"`
	ShouldStay             *bool               `gorm:"column:should_stay"`
	HasIssues              *bool               `gorm:"column:has_issues"`
	ProductName            string              `gorm:"column:product_name;type:varchar(512)"`
	ProductStatus          string              `gorm:"column:product_status;type:varchar(128)"`
	ExchangeCode           string              `gorm:"column:exchange_code;type:varchar(128)"`
	ExchangeReason         string              `gorm:"column:exchange_reason;type:varchar(255)"`
	ExchangeProductID      string              `gorm:"column:exchange_product_id;type:varchar(128)"`
	IsBlocked              *bool               `gorm:"column:is_blocked"`
	LastMileProvider       string              `gorm:"column:last_mile_provider;type:varchar(128)"`
	MerchantPackage        *bool               `gorm:"column:merchant_package"`
	PassesThroughWarehouse *bool               `gorm:"column:passes_through_warehouse"`
	FirstMileProvider      string              `gorm:"column:first_mile_provider;type:varchar(128)"`
	SellerCurrency         string              `gorm:"column:seller_currency;type:varchar(8)"`
	ProductPrice           decimal.NullDecimal `gorm:"column:product_price;type:decimal(14,2)"`
	CouponValue            decimal.NullDecimal `gorm:"column:coupon_value;type:decimal(14,2)"`
	StoreCampaignDiscount  decimal.NullDecimal `gorm:"column:store_campaign_discount;type:decimal(14,2)"`
	Commission             decimal.NullDecimal `gorm:"column:commission;type:decimal(14,2)"`

	Raw datatypes.JSON `gorm:"column:raw;type:json"`

	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (OrderModel) TableName() string {
	return "orders"
}

// BeforeSave fixa a plataforma e recusa qualquer outra.
func (m *OrderModel) BeforeSave(_ *gorm.DB) error {
	p, err := checkPlatform(m.Platform)
	m.Platform = p
	return err
}

// PaymentModel é a linha da tabela payments.
type PaymentModel struct {
	ID          uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	UserID      uint64 `gorm:"column:user_id;not null;uniqueIndex:uk_payments_user_number,priority:1"`
	ImportBatch string `gorm:"column:import_batch;type:varchar(36);index"`

	OrderNumber string          `gorm:"column:order_number;type:varchar(64);not null;uniqueIndex:uk_payments_user_number,priority:2"`
	Platform    string          `gorm:"column:platform;type:varchar(16);not null;default:'SHEIN'"`
	Amount      decimal.Decimal `gorm:"column:amount;type:decimal(14,2);not null;default:0"`
	PaidAt      *time.Time      `gorm:"column:paid_at"`

	Site                     string          `gorm:"column:site;type:varchar(64)"`
	RelatedOrderNumber       string          `gorm:"column:related_order_number;type:varchar(64)"`
	InvoiceNumber            string          `gorm:"column:invoice_number;type:varchar(64)"`
	SellerDeliveryDate       *time.Time      `gorm:"column:seller_delivery_date;type:date"`
	DeliveredAt              *time.Time      `gorm:"column:delivered_at"`
	InvoiceType              string          `gorm:"column:invoice_type;type:varchar(64)"`
	ProductPriceSummary      decimal.Decimal `gorm:"column:product_price_summary;type:decimal(14,2);default:0"`
	CampaignDiscount         decimal.Decimal `gorm:"column:campaign_discount;type:decimal(14,2);default:0"`
	StoreCouponValue         decimal.Decimal `gorm:"column:store_coupon_value;type:decimal(14,2);default:0"`
	PaymentCommission        decimal.Decimal `gorm:"column:payment_commission;type:decimal(14,2);default:0"`
	FreightIntermediationFee decimal.Decimal `gorm:"column:freight_intermediation_fee;type:decimal(14,2);default:0"`
	StorageOperationFee      decimal.Decimal `gorm:"column:storage_operation_fee;type:decimal(14,2);default:0"`
	ReturnProcessingFee      decimal.Decimal `gorm:"column:return_processing_fee;type:decimal(14,2);default:0"`

	Raw datatypes.JSON `gorm:"column:raw;type:json"`

	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (PaymentModel) TableName() string {
	return "payments"
}

// BeforeSave fixa a plataforma e recusa qualquer outra.
func (m *PaymentModel) BeforeSave(_ *gorm.DB) error {
	p, err := checkPlatform(m.Platform)
	m.Platform = p
	return err
}

// UserModel é a conta do vendedor.
type UserModel struct {
	ID           uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	Email        string    `gorm:"column:email;type:varchar(255);not null;uniqueIndex:uk_users_email"`
	FullName     string    `gorm:"column:full_name;type:varchar(255)"`
	CNPJ         *string   `gorm:"column:cnpj;type:char(14);uniqueIndex:uk_users_cnpj"`
	PasswordHash string    `gorm:"column:password_hash;type:varchar(255);not null"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
	UpdatedAt    time.Time `gorm:"column:updated_at;not null"`
}

func (UserModel) TableName() string {
	return "users"
}

func checkPlatform(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" || strings.EqualFold(p, domain.PlatformSHEIN) {
		return domain.PlatformSHEIN, nil
	}
	return p, ErrUnsupportedPlatform
}

// fingerprintHash é o valor da coluna dedup_key: sha1 da impressão digital.
func fingerprintHash(o domain.OrderLineItem) string {
	sum := sha1.Sum([]byte(o.Fingerprint()))
	return hex.EncodeToString(sum[:])
}

func rawJSON(raw domain.RawRow) datatypes.JSON {
	if raw == nil {
		return datatypes.JSON("{}")
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(b)
}

func rawRow(j datatypes.JSON) domain.RawRow {
	if len(j) == 0 {
		return nil
	}
	var row domain.RawRow
	if err := json.Unmarshal(j, &row); err != nil {
		return nil
	}
	return row
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func decimalPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

func strPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func strVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orderToModel(o domain.OrderLineItem) OrderModel {
	m := OrderModel{
		ID:                     o.ID,
		UserID:                 o.UserID,
		ImportBatch:            o.ImportBatch,
		OrderNumber:            strings.TrimSpace(o.OrderNumber),
		Platform:               o.Platform,
		Status:                 o.Status,
		OrderDate:              o.OrderDate,
		CollectedAt:            o.CollectedAt,
		CollectionRequiredAt:   o.CollectionRequiredAt,
		LabelPrintDeadline:     o.LabelPrintDeadline,
		ValueTotal:             o.ValueTotal,
		LineCount:              o.LineCount,
		ItemID:                 strPtr(o.ItemID),
		ProductNumber:          o.ProductNumber,
		Variation:              o.Variation,
		SellerSKU:              o.SellerSKU,
		SheinSKU:               o.SheinSKU,
		SKC:                    o.SKC,
		InventoryID:            o.InventoryID,
		TrackingCode:           o.TrackingCode,
		FirstMileWaybill:       o.FirstMileWaybill,
		OrderType:              o.OrderType,
		ExchangeOrderNumber:    o.ExchangeOrderNumber,
		ShippingMode:           o.ShippingMode,
		Instado:                o.Instado,
		IsLost:                 o.IsLost,
		ShouldStay:             o.ShouldStay,
		HasIssues:              o.HasIssues,
		ProductName:            o.ProductName,
		ProductStatus:          o.ProductStatus,
		ExchangeCode:           o.ExchangeCode,
		ExchangeReason:         o.ExchangeReason,
		ExchangeProductID:      o.ExchangeProductID,
		IsBlocked:              o.IsBlocked,
		LastMileProvider:       o.LastMileProvider,
		MerchantPackage:        o.MerchantPackage,
		PassesThroughWarehouse: o.PassesThroughWarehouse,
		FirstMileProvider:      o.FirstMileProvider,
		SellerCurrency:         o.SellerCurrency,
		ProductPrice:           nullDecimal(o.ProductPrice),
		CouponValue:            nullDecimal(o.CouponValue),
		StoreCampaignDiscount:  nullDecimal(o.StoreCampaignDiscount),
		Commission:             nullDecimal(o.Commission),
		Raw:                    rawJSON(o.Raw),
	}
	if m.LineCount == 0 {
		m.LineCount = 1
	}
	if !o.HasItemID() {
		key := fingerprintHash(o)
		m.DedupKey = &key
	}
	return m
}

func (m OrderModel) toDomain() domain.OrderLineItem {
	return domain.OrderLineItem{
		ID:                     m.ID,
		UserID:                 m.UserID,
		ImportBatch:            m.ImportBatch,
		OrderNumber:            m.OrderNumber,
		Platform:               m.Platform,
		Status:                 m.Status,
		OrderDate:              m.OrderDate,
		CollectedAt:            m.CollectedAt,
		CollectionRequiredAt:   m.CollectionRequiredAt,
		LabelPrintDeadline:     m.LabelPrintDeadline,
		ValueTotal:             m.ValueTotal,
		LineCount:              m.LineCount,
		ItemID:                 strVal(m.ItemID),
		ProductNumber:          m.ProductNumber,
		Variation:              m.Variation,
		SellerSKU:              m.SellerSKU,
		SheinSKU:               m.SheinSKU,
		SKC:                    m.SKC,
		InventoryID:            m.InventoryID,
		TrackingCode:           m.TrackingCode,
		FirstMileWaybill:       m.FirstMileWaybill,
		OrderType:              m.OrderType,
		ExchangeOrderNumber:    m.ExchangeOrderNumber,
		ShippingMode:           m.ShippingMode,
		Instado:                m.Instado,
		IsLost:                 m.IsLost,
		ShouldStay:             m.ShouldStay,
		HasIssues:              m.HasIssues,
		ProductName:            m.ProductName,
		ProductStatus:          m.ProductStatus,
		ExchangeCode:           m.ExchangeCode,
		ExchangeReason:         m.ExchangeReason,
		ExchangeProductID:      m.ExchangeProductID,
		IsBlocked:              m.IsBlocked,
		LastMileProvider:       m.LastMileProvider,
		MerchantPackage:        m.MerchantPackage,
		PassesThroughWarehouse: m.PassesThroughWarehouse,
		FirstMileProvider:      m.FirstMileProvider,
		SellerCurrency:         m.SellerCurrency,
		ProductPrice:           decimalPtr(m.ProductPrice),
		CouponValue:            decimalPtr(m.CouponValue),
		StoreCampaignDiscount:  decimalPtr(m.StoreCampaignDiscount),
		Commission:             decimalPtr(m.Commission),
		Raw:                    rawRow(m.Raw),
	}
}

func paymentToModel(p domain.PaymentRecord) PaymentModel {
	return PaymentModel{
		ID:                       p.ID,
		UserID:                   p.UserID,
		ImportBatch:              p.ImportBatch,
		OrderNumber:              strings.TrimSpace(p.OrderNumber),
		Platform:                 p.Platform,
		Amount:                   p.Amount,
		PaidAt:                   p.PaidAt,
		Site:                     p.Site,
		RelatedOrderNumber:       p.RelatedOrderNumber,
		InvoiceNumber:            p.InvoiceNumber,
		SellerDeliveryDate:       p.SellerDeliveryDate,
		DeliveredAt:              p.DeliveredAt,
		InvoiceType:              p.InvoiceType,
		ProductPriceSummary:      p.ProductPriceSummary,
		CampaignDiscount:         p.CampaignDiscount,
		StoreCouponValue:         p.StoreCouponValue,
		PaymentCommission:        p.PaymentCommission,
		FreightIntermediationFee: p.FreightIntermediationFee,
		StorageOperationFee:      p.StorageOperationFee,
		ReturnProcessingFee:      p.ReturnProcessingFee,
		Raw:                      rawJSON(p.Raw),
	}
}

func (m PaymentModel) toDomain() domain.PaymentRecord {
	return domain.PaymentRecord{
		ID:                       m.ID,
		UserID:                   m.UserID,
		ImportBatch:              m.ImportBatch,
		OrderNumber:              m.OrderNumber,
		Platform:                 m.Platform,
		Amount:                   m.Amount,
		PaidAt:                   m.PaidAt,
		Site:                     m.Site,
		RelatedOrderNumber:       m.RelatedOrderNumber,
		InvoiceNumber:            m.InvoiceNumber,
		SellerDeliveryDate:       m.SellerDeliveryDate,
		DeliveredAt:              m.DeliveredAt,
		InvoiceType:              m.InvoiceType,
		ProductPriceSummary:      m.ProductPriceSummary,
		CampaignDiscount:         m.CampaignDiscount,
		StoreCouponValue:         m.StoreCouponValue,
		PaymentCommission:        m.PaymentCommission,
		FreightIntermediationFee: m.FreightIntermediationFee,
		StorageOperationFee:      m.StorageOperationFee,
		ReturnProcessingFee:      m.ReturnProcessingFee,
		Raw:                      rawRow(m.Raw),
	}
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		Email:        u.Email,
		FullName:     u.FullName,
		CNPJ:         strPtr(u.CNPJ),
		PasswordHash: u.PasswordHash,
	}
}

func (m UserModel) toDomain() domain.User {
	return domain.User{
		ID:           m.ID,
		Email:        m.Email,
		FullName:     m.FullName,
		CNPJ:         strVal(m.CNPJ),
		PasswordHash: m.PasswordHash,
	}
}
