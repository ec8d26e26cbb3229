package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendapos/venda-backend/pkg/enums"
)

// Product is the canonical catalog listing consumed by the till.
type Product struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code         string            `gorm:"column:code;not null;uniqueIndex"`
	Name         string            `gorm:"column:name;not null"`
	Barcode      *string           `gorm:"column:barcode;uniqueIndex"`
	Unit         enums.ProductUnit `gorm:"column:unit;not null;default:piece"`
	Price        decimal.Decimal   `gorm:"column:price;type:numeric(12,2);not null"`
	CurrentStock decimal.Decimal   `gorm:"column:current_stock;type:numeric(12,3);not null;default:0"`
	IsActive     bool              `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
