package campaigns

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendapos/venda-backend/pkg/db/models"
	"github.com/vendapos/venda-backend/pkg/enums"
)

// Repository is the gorm-backed campaign catalog and usage ledger.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// ListActive returns every campaign that is active and inside its window at
// the given instant. Usage caps are left to the engine so callers see the
// same eligibility logic everywhere.
func (r *Repository) ListActive(ctx context.Context, now time.Time) ([]models.Campaign, error) {
	var campaigns []models.Campaign
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.CampaignStatusActive).
		Where("starts_at <= ? AND ends_at >= ?", now, now).
		Order("created_at ASC").
		Find(&campaigns).Error
	if err != nil {
		return nil, err
	}
	return campaigns, nil
}

// FindByCode looks up a campaign by promo code, case-insensitively. Callers
// should pass the code already lowercased; the query lowers the stored side.
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Campaign, error) {
	var campaign models.Campaign
	err := r.db.WithContext(ctx).
		Where("code IS NOT NULL AND LOWER(code) = ?", code).
		First(&campaign).Error
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

// CountCustomerUsage counts ledger rows for a campaign/customer pair.
func (r *Repository) CountCustomerUsage(ctx context.Context, campaignID, customerID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CampaignUsage{}).
		Where("campaign_id = ? AND customer_id = ?", campaignID, customerID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// CreateUsage appends a ledger row for a committed sale.
func (r *Repository) CreateUsage(ctx context.Context, usage *models.CampaignUsage) error {
	return r.db.WithContext(ctx).Create(usage).Error
}

// IncrementUsage bumps the campaign's aggregate usage counter.
func (r *Repository) IncrementUsage(ctx context.Context, campaignID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Campaign{}).
		Where("id = ?", campaignID).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error
}
