// Package pricing folds discounts into the cart subtotal and applies tax.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/vendapos/venda-backend/pkg/money"
)

// Totals is the priced breakdown of a checkout.
type Totals struct {
	Subtotal         decimal.Decimal `json:"subtotal"`
	CampaignDiscount decimal.Decimal `json:"campaign_discount"`
	LoyaltyDiscount  decimal.Decimal `json:"loyalty_discount"`
	TaxableAmount    decimal.Decimal `json:"taxable_amount"`
	Tax              decimal.Decimal `json:"tax"`
	Total            decimal.Decimal `json:"total"`
}

// Calculator computes sale totals at a fixed tax rate. The rate is loaded
// once when the session opens so a mid-sale settings change cannot shift
// the totals under the cashier.
type Calculator struct {
	ratePercent decimal.Decimal
}

func NewCalculator(ratePercent decimal.Decimal) *Calculator {
	return &Calculator{ratePercent: money.FloorAtZero(ratePercent)}
}

// RatePercent returns the tax rate the calculator was built with.
func (c *Calculator) RatePercent() decimal.Decimal {
	return c.ratePercent
}

// Compute prices the sale: discounts come off the subtotal (floored at
// zero), tax applies to what remains, and every figure is rounded to cents.
func (c *Calculator) Compute(subtotal, campaignDiscount, loyaltyDiscount decimal.Decimal) Totals {
	taxable := money.FloorAtZero(subtotal.Sub(campaignDiscount).Sub(loyaltyDiscount))
	tax := money.Round(money.Percent(taxable, c.ratePercent))
	return Totals{
		Subtotal:         money.Round(subtotal),
		CampaignDiscount: money.Round(campaignDiscount),
		LoyaltyDiscount:  money.Round(loyaltyDiscount),
		TaxableAmount:    money.Round(taxable),
		Tax:              tax,
		Total:            money.Round(taxable.Add(tax)),
	}
}
