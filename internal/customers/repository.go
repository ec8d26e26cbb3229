// Package customers looks up loyalty members at the till.
package customers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendapos/venda-backend/pkg/db/models"
	apperrors "github.com/vendapos/venda-backend/pkg/errors"
)

// Repository is the gorm-backed customer directory.
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

// activeCampaignsSelect derives, per customer, how many currently running
// campaigns they can still use: the campaign either has no per-customer cap
// or this customer's ledger count sits below it.
const activeCampaignsSelect = `customers.*, (
	SELECT COUNT(*) FROM campaigns
	WHERE campaigns.status = 'active'
	  AND campaigns.starts_at <= ? AND campaigns.ends_at >= ?
	  AND (campaigns.per_customer_limit IS NULL OR (
	    SELECT COUNT(*) FROM campaign_usages
	    WHERE campaign_usages.campaign_id = campaigns.id
	      AND campaign_usages.customer_id = customers.id
	  ) < campaigns.per_customer_limit)
) AS active_campaigns`

// List returns the directory ordered by name, each customer annotated with
// their active-campaign count for eligibility display at the till.
func (r *Repository) List(ctx context.Context) ([]models.Customer, error) {
	now := time.Now()

	var customers []models.Customer
	err := r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Select(activeCampaignsSelect, now, now).
		Order("name ASC").
		Find(&customers).Error
	if err != nil {
		return nil, err
	}
	return customers, nil
}

// Search filters customers by name, phone or member code fragment.
func (r *Repository) Search(ctx context.Context, query string) ([]models.Customer, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return r.List(ctx)
	}
	pattern := "%" + strings.ToLower(trimmed) + "%"
	now := time.Now()

	var customers []models.Customer
	err := r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Select(activeCampaignsSelect, now, now).
		Where("LOWER(name) LIKE ? OR phone LIKE ? OR LOWER(code) LIKE ?", pattern, pattern, pattern).
		Order("name ASC").
		Find(&customers).Error
	if err != nil {
		return nil, err
	}
	return customers, nil
}

// FindByID loads one customer.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "customer not found")
		}
		return nil, err
	}
	return &customer, nil
}

// DeductPoints atomically removes redeemed points, guarding against a
// balance that dropped since the session loaded the customer.
func (r *Repository) DeductPoints(ctx context.Context, id uuid.UUID, points int) error {
	if points <= 0 {
		return nil
	}
	result := r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ? AND loyalty_points >= ?", id, points).
		UpdateColumn("loyalty_points", gorm.Expr("loyalty_points - ?", points))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeInsufficientPoints, "loyalty point balance too low").
			WithDetails(map[string]any{"customer_id": id, "requested_points": points})
	}
	return nil
}
