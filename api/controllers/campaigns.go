package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendapos/venda-backend/api/responses"
	"github.com/vendapos/venda-backend/api/validators"
	"github.com/vendapos/venda-backend/internal/campaigns"
	"github.com/vendapos/venda-backend/pkg/db/models"
	pkgerrors "github.com/vendapos/venda-backend/pkg/errors"
	"github.com/vendapos/venda-backend/pkg/logger"
)

type promoResolver interface {
	Resolve(ctx context.Context, code string, subtotal decimal.Decimal, customerID *uuid.UUID) (*models.Campaign, error)
}

type validateCodeRequest struct {
	Code       string     `json:"code" validate:"required"`
	Subtotal   string     `json:"subtotal" validate:"required"`
	CustomerID *uuid.UUID `json:"customer_id,omitempty"`
}

type validateCodeResponse struct {
	CampaignID uuid.UUID       `json:"campaign_id"`
	Name       string          `json:"name"`
	Discount   decimal.Decimal `json:"discount"`
}

// ValidateCode checks a promo code against a prospective subtotal without
// touching any session, so clients can preview a discount before applying it.
func ValidateCode(resolver promoResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if resolver == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promo resolver unavailable"))
			return
		}

		var payload validateCodeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		subtotal, err := decimal.NewFromString(payload.Subtotal)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid subtotal"))
			return
		}

		campaign, err := resolver.Resolve(r.Context(), payload.Code, subtotal, payload.CustomerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, validateCodeResponse{
			CampaignID: campaign.ID,
			Name:       campaign.Name,
			Discount:   campaigns.ComputeDiscount(*campaign, subtotal),
		})
	}
}
