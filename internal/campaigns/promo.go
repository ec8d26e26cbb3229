package campaigns

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vendapos/venda-backend/pkg/db/models"
	apperrors "github.com/vendapos/venda-backend/pkg/errors"
)

// CatalogReader is the slice of campaign storage the resolver needs.
type CatalogReader interface {
	FindByCode(ctx context.Context, code string) (*models.Campaign, error)
	CountCustomerUsage(ctx context.Context, campaignID, customerID uuid.UUID) (int, error)
}

// CodeResolver validates promo codes against the campaign catalog and the
// usage ledger. Codes are matched case-insensitively.
type CodeResolver struct {
	catalog CatalogReader
	now     func() time.Time
}

func NewCodeResolver(catalog CatalogReader) (*CodeResolver, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	return &CodeResolver{catalog: catalog, now: time.Now}, nil
}

// Resolve returns the campaign behind code if it can apply to the purchase,
// or a VALIDATION_ERROR describing why it cannot. The customer is optional;
// per-customer limits are skipped for walk-in sales.
func (r *CodeResolver) Resolve(ctx context.Context, code string, subtotal decimal.Decimal, customerID *uuid.UUID) (*models.Campaign, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "promo code is required")
	}

	campaign, err := r.catalog.FindByCode(ctx, strings.ToLower(trimmed))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeValidation, "promo code not recognized").
				WithDetails(map[string]any{"code": trimmed})
		}
		if typed := apperrors.As(err); typed != nil && typed.Code() == apperrors.CodeNotFound {
			return nil, apperrors.New(apperrors.CodeValidation, "promo code not recognized").
				WithDetails(map[string]any{"code": trimmed})
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "failed to look up promo code")
	}

	now := r.now()
	switch {
	case campaign.Status.IsTerminal():
		return nil, apperrors.New(apperrors.CodeValidation, "promo code has been retired")
	case !campaign.Status.IsActive():
		return nil, apperrors.New(apperrors.CodeValidation, "promo code is not currently active")
	case now.Before(campaign.StartsAt):
		return nil, apperrors.New(apperrors.CodeValidation, "promo code is not active yet").
			WithDetails(map[string]any{"starts_at": campaign.StartsAt})
	case now.After(campaign.EndsAt):
		return nil, apperrors.New(apperrors.CodeValidation, "promo code has expired").
			WithDetails(map[string]any{"ended_at": campaign.EndsAt})
	case subtotal.LessThan(campaign.MinPurchaseAmount):
		return nil, apperrors.New(apperrors.CodeValidation, "purchase amount below promo minimum").
			WithDetails(map[string]any{"min_purchase_amount": campaign.MinPurchaseAmount})
	case campaign.UsageLimit != nil && campaign.UsageCount >= *campaign.UsageLimit:
		return nil, apperrors.New(apperrors.CodeValidation, "promo code usage limit reached")
	}

	if campaign.PerCustomerLimit != nil && customerID != nil {
		used, err := r.catalog.CountCustomerUsage(ctx, campaign.ID, *customerID)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeInternal, err, "failed to count promo usage")
		}
		if used >= *campaign.PerCustomerLimit {
			return nil, apperrors.New(apperrors.CodeValidation, "promo code already used by this customer").
				WithDetails(map[string]any{"per_customer_limit": *campaign.PerCustomerLimit})
		}
	}

	return campaign, nil
}
