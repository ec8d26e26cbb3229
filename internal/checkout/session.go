package checkout

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendapos/venda-backend/internal/campaigns"
	"github.com/vendapos/venda-backend/internal/cart"
	"github.com/vendapos/venda-backend/internal/loyalty"
	"github.com/vendapos/venda-backend/internal/payment"
	"github.com/vendapos/venda-backend/internal/pricing"
	"github.com/vendapos/venda-backend/pkg/db/models"
	"github.com/vendapos/venda-backend/pkg/enums"
	apperrors "github.com/vendapos/venda-backend/pkg/errors"
)

// Session owns one checkout from the first scanned item to commit. All
// derived state (applied campaigns, redemption, totals) is recomputed from
// the cart on every mutation rather than patched incrementally.
type Session struct {
	id  uuid.UUID
	svc *Service

	mu         sync.Mutex
	committing atomic.Bool

	cart     *cart.Cart
	catalog  []models.Campaign
	customer *models.Customer
	// usage holds the selected customer's per-campaign ledger counts so
	// automatic campaigns with an exhausted per-customer cap stop applying.
	// nil means walk-in.
	usage map[uuid.UUID]int
	promo []models.Campaign
	applied  []campaigns.Applied
	redeem   bool
	points   loyalty.Redemption
	calc     *pricing.Calculator
	payment  *payment.Coordinator
	totals   pricing.Totals

	// stale flags that the server rejected a commit on stock and the cart
	// needs a fresh validation pass before the next attempt.
	stale bool

	createdAt  time.Time
	lastActive time.Time
	now        func() time.Time
}

// State is the session snapshot returned to the API layer.
type State struct {
	SessionID      uuid.UUID           `json:"session_id"`
	Lines          []cart.Line         `json:"lines"`
	Customer       *models.Customer    `json:"customer,omitempty"`
	Applied        []campaigns.Applied `json:"applied_campaigns"`
	RedeemEnabled  bool                `json:"redeem_enabled"`
	RedeemedPoints int                 `json:"redeemed_points"`
	Totals         pricing.Totals      `json:"totals"`
	Payment        payment.State       `json:"payment"`
	StockStale     bool                `json:"stock_stale"`
	TaxRatePercent decimal.Decimal     `json:"tax_rate_percent"`
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// AddProductByID fetches the product and adds qty of it to the cart.
func (s *Session) AddProductByID(ctx context.Context, productID uuid.UUID, qty decimal.Decimal) (State, error) {
	product, err := s.svc.products.FindByID(ctx, productID)
	if err != nil {
		return s.Snapshot(), err
	}
	return s.addProduct(product, qty)
}

// AddProductByScan resolves a scanned code or barcode and adds qty of it.
func (s *Session) AddProductByScan(ctx context.Context, scanned string, qty decimal.Decimal) (State, error) {
	product, err := s.svc.products.FindByCodeOrBarcode(ctx, scanned)
	if err != nil {
		return s.Snapshot(), err
	}
	return s.addProduct(product, qty)
}

func (s *Session) addProduct(product *models.Product, qty decimal.Decimal) (State, error) {
	if !product.IsActive {
		return s.Snapshot(), apperrors.New(apperrors.CodeValidation, "product is not sellable")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.cart.AddLine(product, qty); err != nil {
		return s.snapshotLocked(), err
	}
	s.recompute()
	return s.snapshotLocked(), nil
}

// UpdateQuantity changes a line's quantity; below one whole unit (or zero
// weight) the line is removed.
func (s *Session) UpdateQuantity(lineID uuid.UUID, qty decimal.Decimal) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.cart.UpdateQuantity(lineID, qty); err != nil {
		return s.snapshotLocked(), err
	}
	s.recompute()
	return s.snapshotLocked(), nil
}

// SetLineDiscount applies a manual per-line discount.
func (s *Session) SetLineDiscount(lineID uuid.UUID, discount decimal.Decimal) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.cart.SetLineDiscount(lineID, discount); err != nil {
		return s.snapshotLocked(), err
	}
	s.recompute()
	return s.snapshotLocked(), nil
}

// RemoveLine drops a cart line.
func (s *Session) RemoveLine(lineID uuid.UUID) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.cart.RemoveLine(lineID); err != nil {
		return s.snapshotLocked(), err
	}
	s.recompute()
	return s.snapshotLocked(), nil
}

// ClearCart empties the cart but keeps the customer selection.
func (s *Session) ClearCart() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart.Clear()
	s.recompute()
	return s.snapshotLocked()
}

// SelectCustomer attaches a loyalty member to the sale. Switching customers
// always resets the redemption toggle so a stale redemption cannot carry
// over between members.
func (s *Session) SelectCustomer(ctx context.Context, customerID uuid.UUID) (State, error) {
	customer, err := s.svc.customers.FindByID(ctx, customerID)
	if err != nil {
		return s.Snapshot(), err
	}
	usage, err := s.loadCustomerUsage(ctx, customerID)
	if err != nil {
		return s.Snapshot(), err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.customer = customer
	s.usage = usage
	s.redeem = false
	s.recompute()
	return s.snapshotLocked(), nil
}

// loadCustomerUsage fetches the customer's ledger counts for every
// automatic campaign that carries a per-customer cap.
func (s *Session) loadCustomerUsage(ctx context.Context, customerID uuid.UUID) (map[uuid.UUID]int, error) {
	usage := make(map[uuid.UUID]int)
	for _, c := range s.catalog {
		if c.PerCustomerLimit == nil {
			continue
		}
		if c.Code != nil && *c.Code != "" {
			continue
		}
		used, err := s.svc.catalog.CountCustomerUsage(ctx, c.ID, customerID)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeInternal, err, "failed to count campaign usage")
		}
		usage[c.ID] = used
	}
	return usage, nil
}

// ClearCustomer reverts to a walk-in sale. Promo-code campaigns survive;
// the cashier entered them explicitly.
func (s *Session) ClearCustomer() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.customer = nil
	s.usage = nil
	s.redeem = false
	s.recompute()
	return s.snapshotLocked()
}

// ApplyCode validates a promo code and folds its campaign into the applied
// set. Re-applying a code whose campaign is already present is rejected, so
// the same campaign can never stack with itself.
func (s *Session) ApplyCode(ctx context.Context, code string) (State, error) {
	s.mu.Lock()
	subtotal := s.cart.Subtotal()
	var customerID *uuid.UUID
	if s.customer != nil {
		customerID = &s.customer.ID
	}
	s.mu.Unlock()

	if subtotal.Sign() <= 0 {
		return s.Snapshot(), apperrors.New(apperrors.CodeValidation, "add items before applying a promo code")
	}

	campaign, err := s.svc.resolver.Resolve(ctx, code, subtotal, customerID)
	if err != nil {
		return s.Snapshot(), err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.promo {
		if existing.ID == campaign.ID {
			return s.snapshotLocked(), apperrors.New(apperrors.CodeValidation, "promo code already applied")
		}
	}
	s.promo = append(s.promo, *campaign)
	s.recompute()
	return s.snapshotLocked(), nil
}

// RemoveCode drops exactly the promo campaign the code activated, leaving
// automatic campaigns untouched.
func (s *Session) RemoveCode(campaignID uuid.UUID) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.promo {
		if existing.ID == campaignID {
			s.promo = append(s.promo[:i], s.promo[i+1:]...)
			s.recompute()
			return s.snapshotLocked(), nil
		}
	}
	return s.snapshotLocked(), apperrors.New(apperrors.CodeNotFound, "promo code is not applied")
}

// SetRedemption toggles loyalty point redemption.
func (s *Session) SetRedemption(enabled bool) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if enabled && s.customer == nil {
		return s.snapshotLocked(), apperrors.New(apperrors.CodeValidation, "point redemption requires a customer")
	}
	if enabled && s.cart.IsEmpty() {
		return s.snapshotLocked(), apperrors.New(apperrors.CodeValidation, "cannot redeem points on an empty sale")
	}
	s.redeem = enabled
	s.recompute()
	return s.snapshotLocked(), nil
}

// SelectPayment picks the payment method using the current sale total.
func (s *Session) SelectPayment(method enums.PaymentMethod, provider enums.MobileProvider) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.payment.Select(method, provider, s.totals.Total); err != nil {
		return s.snapshotLocked(), err
	}
	return s.snapshotLocked(), nil
}

// SetTendered records cash handed over.
func (s *Session) SetTendered(amount decimal.Decimal) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.payment.SetTendered(amount); err != nil {
		return s.snapshotLocked(), err
	}
	return s.snapshotLocked(), nil
}

// SetPaymentPhone captures the mobile-money number.
func (s *Session) SetPaymentPhone(phone string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.payment.SetPhone(phone); err != nil {
		return s.snapshotLocked(), err
	}
	return s.snapshotLocked(), nil
}

// ConfirmMobilePayment marks the provider push as confirmed.
func (s *Session) ConfirmMobilePayment() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.payment.ConfirmMobile(); err != nil {
		return s.snapshotLocked(), err
	}
	return s.snapshotLocked(), nil
}

// CancelPayment returns the payment side to unselected.
func (s *Session) CancelPayment() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.payment.Cancel()
	return s.snapshotLocked()
}

// Snapshot returns the current session state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// LastActive reports when the session last handled a call, for expiry.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// recompute rebuilds every derived value from the cart. Callers hold s.mu.
func (s *Session) recompute() {
	s.lastActive = s.now()
	subtotal := s.cart.Subtotal()

	if subtotal.Sign() <= 0 {
		// An emptied cart drops everything, explicit promo codes included.
		s.promo = nil
		s.applied = nil
		s.points = loyalty.Redemption{}
		s.redeem = false
		s.totals = s.calc.Compute(subtotal, decimal.Zero, decimal.Zero)
		s.payment.Retotal(s.totals.Total)
		return
	}

	applied := campaigns.EvaluateAutomatic(s.catalog, subtotal, s.now(), s.usage)
	for _, promo := range s.promo {
		discount := campaigns.ComputeDiscount(promo, subtotal)
		applied = append(applied, campaigns.Applied{
			CampaignID: promo.ID,
			Name:       promo.Name,
			Code:       promo.Code,
			Discount:   discount,
		})
	}
	s.applied = applied

	campaignDiscount := campaigns.SumDiscounts(applied, subtotal)

	s.points = loyalty.Redemption{}
	if s.redeem && s.customer != nil {
		redemption, err := loyalty.Compute(s.customer.LoyaltyPoints, subtotal, campaignDiscount, s.svc.opts.PointValue, true)
		if err == nil {
			s.points = redemption
		}
	}

	s.totals = s.calc.Compute(subtotal, campaignDiscount, s.points.Discount)
	s.payment.Retotal(s.totals.Total)
}

func (s *Session) snapshotLocked() State {
	return State{
		SessionID:      s.id,
		Lines:          s.cart.Lines(),
		Customer:       s.customer,
		Applied:        append([]campaigns.Applied(nil), s.applied...),
		RedeemEnabled:  s.redeem,
		RedeemedPoints: s.points.RedeemedPoints,
		Totals:         s.totals,
		Payment:        s.payment.Snapshot(),
		StockStale:     s.stale,
		TaxRatePercent: s.calc.RatePercent(),
	}
}
