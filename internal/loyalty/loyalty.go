// Package loyalty converts a customer's point balance into a checkout
// discount. Points are whole-valued; each point is worth a configured
// currency amount.
package loyalty

import (
	"github.com/shopspring/decimal"

	apperrors "github.com/vendapos/venda-backend/pkg/errors"
	"github.com/vendapos/venda-backend/pkg/money"
)

// Redemption is the outcome of applying a customer's points to a purchase.
type Redemption struct {
	RedeemedPoints int
	Discount       decimal.Decimal
}

// Compute determines how many points a redemption consumes and the discount
// it grants. The redeemable amount is what remains after campaign discounts,
// floored to whole currency units; the customer can never redeem more points
// than that amount is worth, nor more than they hold.
func Compute(points int, subtotal, campaignDiscount, pointValue decimal.Decimal, enabled bool) (Redemption, error) {
	if !enabled {
		return Redemption{Discount: money.Zero}, nil
	}
	if subtotal.Sign() <= 0 {
		return Redemption{}, apperrors.New(apperrors.CodeValidation, "cannot redeem points on an empty sale")
	}
	if points <= 0 {
		return Redemption{Discount: money.Zero}, nil
	}
	if pointValue.Sign() <= 0 {
		return Redemption{Discount: money.Zero}, nil
	}

	remaining := money.FloorAtZero(subtotal.Sub(campaignDiscount))
	eligible := remaining.Div(pointValue).Floor()
	if eligible.Sign() <= 0 {
		return Redemption{Discount: money.Zero}, nil
	}

	redeemed := int(eligible.IntPart())
	if redeemed > points {
		redeemed = points
	}

	return Redemption{
		RedeemedPoints: redeemed,
		Discount:       money.Round(decimal.NewFromInt(int64(redeemed)).Mul(pointValue)),
	}, nil
}
