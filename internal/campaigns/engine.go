package campaigns

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendapos/venda-backend/pkg/db/models"
	"github.com/vendapos/venda-backend/pkg/enums"
	"github.com/vendapos/venda-backend/pkg/money"
)

// Applied is a campaign folded into the current checkout with its computed
// discount. It is transient: rebuilt whenever subtotal or customer changes,
// except for code-sourced entries which survive until removed.
type Applied struct {
	CampaignID uuid.UUID       `json:"campaign_id"`
	Name       string          `json:"name"`
	Code       *string         `json:"code,omitempty"`
	Discount   decimal.Decimal `json:"discount"`
}

// FromCode reports whether the entry was activated by a promo code.
func (a Applied) FromCode() bool {
	return a.Code != nil && *a.Code != ""
}

// Eligible reports whether the campaign can apply to the given subtotal at
// the given instant. Only campaign-wide state is checked here; per-customer
// caps need the usage ledger and are enforced by the callers that hold it.
func Eligible(c models.Campaign, subtotal decimal.Decimal, now time.Time) bool {
	if c.Status != enums.CampaignStatusActive {
		return false
	}
	if now.Before(c.StartsAt) || now.After(c.EndsAt) {
		return false
	}
	if subtotal.LessThan(c.MinPurchaseAmount) {
		return false
	}
	if c.UsageLimit != nil && c.UsageCount >= *c.UsageLimit {
		return false
	}
	return true
}

// ComputeDiscount returns the campaign's discount for the subtotal: the raw
// percentage or fixed value, clamped to the campaign cap and to the subtotal.
func ComputeDiscount(c models.Campaign, subtotal decimal.Decimal) decimal.Decimal {
	var raw decimal.Decimal
	switch c.DiscountType {
	case enums.DiscountTypePercentage:
		raw = money.Percent(subtotal, c.DiscountValue)
	case enums.DiscountTypeFixed:
		raw = c.DiscountValue
	default:
		return money.Zero
	}
	if c.MaxDiscountAmount != nil && raw.GreaterThan(*c.MaxDiscountAmount) {
		raw = *c.MaxDiscountAmount
	}
	raw = money.Min(raw, subtotal)
	return money.Round(money.FloorAtZero(raw))
}

// EvaluateAutomatic applies every eligible code-less campaign to the
// subtotal. All of them stack and their discounts sum; there is no aggregate
// cap beyond each campaign's own cap. customerUsage holds the selected
// customer's ledger counts per campaign; nil means a walk-in sale, which
// skips per-customer caps entirely.
func EvaluateAutomatic(catalog []models.Campaign, subtotal decimal.Decimal, now time.Time, customerUsage map[uuid.UUID]int) []Applied {
	if subtotal.Sign() <= 0 {
		return nil
	}
	var applied []Applied
	for _, c := range catalog {
		if c.Code != nil && *c.Code != "" {
			continue
		}
		if !Eligible(c, subtotal, now) {
			continue
		}
		if customerUsage != nil && c.PerCustomerLimit != nil && customerUsage[c.ID] >= *c.PerCustomerLimit {
			continue
		}
		discount := ComputeDiscount(c, subtotal)
		if discount.IsZero() {
			continue
		}
		applied = append(applied, Applied{
			CampaignID: c.ID,
			Name:       c.Name,
			Discount:   discount,
		})
	}
	return applied
}

// SumDiscounts totals the applied discounts, never exceeding the subtotal.
func SumDiscounts(applied []Applied, subtotal decimal.Decimal) decimal.Decimal {
	sum := money.Zero
	for _, a := range applied {
		sum = sum.Add(a.Discount)
	}
	return money.Min(sum, subtotal)
}
