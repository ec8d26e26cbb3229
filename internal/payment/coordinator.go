// Package payment tracks the payment half of a checkout: which method the
// cashier picked, how much was tendered, and whether the sale may commit.
package payment

import (
	"github.com/shopspring/decimal"

	"github.com/vendapos/venda-backend/pkg/enums"
	apperrors "github.com/vendapos/venda-backend/pkg/errors"
	"github.com/vendapos/venda-backend/pkg/money"
)

// State is a read-only snapshot of the coordinator.
type State struct {
	Method         enums.PaymentMethod   `json:"method,omitempty"`
	Provider       enums.MobileProvider  `json:"provider,omitempty"`
	Phone          string                `json:"phone,omitempty"`
	AmountPaid     decimal.Decimal       `json:"amount_paid"`
	TenderedAmount decimal.Decimal       `json:"tendered_amount"`
	Change         decimal.Decimal       `json:"change"`
	Confirmed      bool                  `json:"confirmed"`
	Ready          bool                  `json:"ready"`
}

// Coordinator walks a sale from no payment method through a committable
// state. Cash, card and QR are ready the moment they are selected with the
// amount pre-filled from the sale total; mobile money stays locked until a
// phone number is captured and the provider push is confirmed.
type Coordinator struct {
	method    enums.PaymentMethod
	provider  enums.MobileProvider
	phone     string
	total     decimal.Decimal
	tendered  decimal.Decimal
	confirmed bool
}

func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// Select picks a payment method for a sale totalling total. Selecting a
// method replaces any previous selection. Cash pre-fills the tendered
// amount with the total; the cashier can overwrite it with what was
// actually handed over. Mobile requires a provider.
func (c *Coordinator) Select(method enums.PaymentMethod, provider enums.MobileProvider, total decimal.Decimal) error {
	if !method.IsValid() {
		return apperrors.New(apperrors.CodeValidation, "unknown payment method")
	}
	if total.Sign() < 0 {
		return apperrors.New(apperrors.CodeValidation, "sale total cannot be negative")
	}
	if method == enums.PaymentMethodMobile && !provider.IsValid() {
		return apperrors.New(apperrors.CodeValidation, "mobile payments require a provider")
	}

	c.reset()
	c.method = method
	c.total = total
	switch method {
	case enums.PaymentMethodMobile:
		c.provider = provider
	case enums.PaymentMethodCash:
		c.tendered = money.Round(total)
	}
	return nil
}

// SetPhone captures the payer's mobile-money number. Only valid for mobile.
func (c *Coordinator) SetPhone(phone string) error {
	if c.method != enums.PaymentMethodMobile {
		return apperrors.New(apperrors.CodeValidation, "phone number only applies to mobile payments")
	}
	if phone == "" {
		return apperrors.New(apperrors.CodeValidation, "phone number is required")
	}
	c.phone = phone
	c.confirmed = false
	return nil
}

// ConfirmMobile marks the provider push as confirmed, unlocking commit.
func (c *Coordinator) ConfirmMobile() error {
	if c.method != enums.PaymentMethodMobile {
		return apperrors.New(apperrors.CodeValidation, "no mobile payment in progress")
	}
	if c.phone == "" {
		return apperrors.New(apperrors.CodeValidation, "phone number is required before confirming")
	}
	c.confirmed = true
	return nil
}

// SetTendered records the cash handed over. Tendered must cover the total.
func (c *Coordinator) SetTendered(amount decimal.Decimal) error {
	if c.method != enums.PaymentMethodCash {
		return apperrors.New(apperrors.CodeValidation, "tendered amount only applies to cash payments")
	}
	if amount.LessThan(c.total) {
		return apperrors.New(apperrors.CodeValidation, "tendered amount is below the sale total").
			WithDetails(map[string]any{"total": c.total, "tendered": amount})
	}
	c.tendered = money.Round(amount)
	return nil
}

// Cancel abandons the current selection and returns to unselected.
func (c *Coordinator) Cancel() {
	c.reset()
}

// Retotal updates the coordinator after the sale total changes. Cash is
// pre-filled again with the new total; mobile confirmations no longer hold.
func (c *Coordinator) Retotal(total decimal.Decimal) {
	if c.method == "" {
		return
	}
	c.total = total
	c.tendered = money.Zero
	if c.method == enums.PaymentMethodCash {
		c.tendered = money.Round(total)
	}
	c.confirmed = false
}

// Method returns the selected payment method, empty when unselected.
func (c *Coordinator) Method() enums.PaymentMethod {
	return c.method
}

// Ready reports whether the payment side of the sale can commit.
func (c *Coordinator) Ready() bool {
	switch c.method {
	case enums.PaymentMethodCash:
		return c.tendered.GreaterThanOrEqual(c.total)
	case enums.PaymentMethodCard, enums.PaymentMethodQR:
		return true
	case enums.PaymentMethodMobile:
		return c.phone != "" && c.confirmed
	default:
		return false
	}
}

// AmountPaid is what the sale record carries: the exact total for card, QR
// and mobile, the tendered cash for cash.
func (c *Coordinator) AmountPaid() decimal.Decimal {
	if c.method == enums.PaymentMethodCash {
		return c.tendered
	}
	if c.method == "" {
		return money.Zero
	}
	return c.total
}

// Change is the cash returned to the customer; zero for non-cash methods.
func (c *Coordinator) Change() decimal.Decimal {
	if c.method != enums.PaymentMethodCash || c.tendered.LessThan(c.total) {
		return money.Zero
	}
	return money.Round(c.tendered.Sub(c.total))
}

// Provider returns the mobile-money operator, empty for non-mobile methods.
func (c *Coordinator) Provider() enums.MobileProvider {
	return c.provider
}

// Phone returns the captured mobile-money number.
func (c *Coordinator) Phone() string {
	return c.phone
}

// Snapshot exposes the coordinator state for API responses.
func (c *Coordinator) Snapshot() State {
	return State{
		Method:         c.method,
		Provider:       c.provider,
		Phone:          c.phone,
		AmountPaid:     c.AmountPaid(),
		TenderedAmount: c.tendered,
		Change:         c.Change(),
		Confirmed:      c.confirmed,
		Ready:          c.Ready(),
	}
}

func (c *Coordinator) reset() {
	c.method = ""
	c.provider = ""
	c.phone = ""
	c.total = money.Zero
	c.tendered = money.Zero
	c.confirmed = false
}
