package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendapos/venda-backend/pkg/enums"
)

// Sale is the committed, immutable record of one checkout.
type Sale struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID     *uuid.UUID          `gorm:"column:customer_id;type:uuid;index"`
	Subtotal       decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Discount       decimal.Decimal     `gorm:"column:discount;type:numeric(12,2);not null;default:0"`
	Tax            decimal.Decimal     `gorm:"column:tax;type:numeric(12,2);not null;default:0"`
	Total          decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null"`
	PaymentMethod  enums.PaymentMethod `gorm:"column:payment_method;not null"`
	AmountPaid     decimal.Decimal     `gorm:"column:amount_paid;type:numeric(12,2);not null"`
	Change         decimal.Decimal     `gorm:"column:change;type:numeric(12,2);not null;default:0"`
	RedeemedPoints int                 `gorm:"column:redeemed_points;not null;default:0"`
	Notes          *string             `gorm:"column:notes"`
	Items          []SaleItem          `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
}

// SaleItem snapshots one cart line at commit time.
type SaleItem struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SaleID       uuid.UUID       `gorm:"column:sale_id;type:uuid;not null;index"`
	ProductID    uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index"`
	ProductName  string          `gorm:"column:product_name;not null"`
	Quantity     decimal.Decimal `gorm:"column:quantity;type:numeric(12,3);not null"`
	UnitPrice    decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	LineDiscount decimal.Decimal `gorm:"column:line_discount;type:numeric(12,2);not null;default:0"`
	LineTotal    decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`
}
