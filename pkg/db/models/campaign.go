package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendapos/venda-backend/pkg/enums"
)

// Campaign is a discount rule; Code is set only for promo-code campaigns.
type Campaign struct {
	ID                uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name              string               `gorm:"column:name;not null"`
	Code              *string              `gorm:"column:code;uniqueIndex"`
	Status            enums.CampaignStatus `gorm:"column:status;not null;default:active"`
	DiscountType      enums.DiscountType   `gorm:"column:discount_type;not null"`
	DiscountValue     decimal.Decimal      `gorm:"column:discount_value;type:numeric(12,2);not null"`
	MinPurchaseAmount decimal.Decimal      `gorm:"column:min_purchase_amount;type:numeric(12,2);not null;default:0"`
	MaxDiscountAmount *decimal.Decimal     `gorm:"column:max_discount_amount;type:numeric(12,2)"`
	StartsAt          time.Time            `gorm:"column:starts_at;not null"`
	EndsAt            time.Time            `gorm:"column:ends_at;not null"`
	UsageLimit        *int                 `gorm:"column:usage_limit"`
	PerCustomerLimit  *int                 `gorm:"column:per_customer_limit"`
	UsageCount        int                  `gorm:"column:usage_count;not null;default:0"`
	CreatedAt         time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// CampaignUsage is the best-effort ledger of campaign applications.
type CampaignUsage struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CampaignID   uuid.UUID       `gorm:"column:campaign_id;type:uuid;not null;index"`
	CustomerID   *uuid.UUID      `gorm:"column:customer_id;type:uuid;index"`
	CustomerName *string         `gorm:"column:customer_name"`
	SaleTotal    decimal.Decimal `gorm:"column:sale_total;type:numeric(12,2);not null"`
	Discount     decimal.Decimal `gorm:"column:discount;type:numeric(12,2);not null"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
}
