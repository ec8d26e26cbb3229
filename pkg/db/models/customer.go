package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer carries the loyalty ledger balance; the checkout engine never
// mutates points directly, only the sales write path does.
type Customer struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code          string    `gorm:"column:code;not null;uniqueIndex"`
	Name          string    `gorm:"column:name;not null"`
	Phone         *string   `gorm:"column:phone;index"`
	LoyaltyPoints int       `gorm:"column:loyalty_points;not null;default:0"`
	// ActiveCampaigns is derived at query time for eligibility display:
	// running campaigns this customer can still use. Never stored.
	ActiveCampaigns int       `gorm:"column:active_campaigns;->;-:migration"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
