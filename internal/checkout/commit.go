package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/vendapos/venda-backend/internal/campaigns"
	"github.com/vendapos/venda-backend/internal/sales"
	"github.com/vendapos/venda-backend/pkg/db/models"
	"github.com/vendapos/venda-backend/pkg/enums"
	apperrors "github.com/vendapos/venda-backend/pkg/errors"
	"github.com/vendapos/venda-backend/pkg/money"
)

// Commit turns the session into an immutable sale. Exactly one commit may
// be in flight per session; a second call while one is outstanding fails
// fast instead of queueing. On failure the session is left untouched so the
// cashier can correct and resubmit; success is the only path that clears
// state.
func (s *Session) Commit(ctx context.Context) (*models.Sale, error) {
	if !s.committing.CompareAndSwap(false, true) {
		return nil, apperrors.New(apperrors.CodeConflict, "a commit is already in flight for this session")
	}
	defer s.committing.Store(false)

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx = s.svc.log.WithSessionID(ctx, s.id.String())

	if s.cart.IsEmpty() {
		return nil, apperrors.New(apperrors.CodeValidation, "cannot commit an empty sale")
	}
	if !s.payment.Ready() {
		return nil, apperrors.New(apperrors.CodeValidation, "payment is not ready to commit")
	}

	lines := s.cart.Lines()
	if err := s.svc.stock.Validate(ctx, lines); err != nil {
		s.noteStockConflict(err)
		s.svc.metrics.IncFailure(string(errorCode(err)))
		return nil, err
	}

	input := s.buildSaleInput()

	start := s.now()
	commitCtx, cancel := context.WithTimeout(ctx, s.svc.opts.CommitTimeout)
	defer cancel()

	sale, err := s.svc.sales.Create(commitCtx, input)
	elapsed := time.Since(start)

	if err != nil {
		err = classifyCommitError(err)
		s.noteStockConflict(err)
		s.svc.metrics.ObserveCommitDuration("failure", elapsed)
		s.svc.metrics.IncFailure(string(errorCode(err)))
		s.svc.log.Error(ctx, "sale commit failed", err)
		return nil, err
	}

	s.svc.metrics.ObserveCommitDuration("success", elapsed)
	s.svc.metrics.IncCommit(string(sale.PaymentMethod))
	s.svc.log.Info(s.svc.log.WithSaleID(ctx, sale.ID.String()), "sale committed")

	s.finishCommit(ctx, sale)
	return sale, nil
}

// buildSaleInput snapshots the session into the immutable sale record.
// Callers hold s.mu.
func (s *Session) buildSaleInput() sales.Input {
	lines := s.cart.Lines()
	items := make([]sales.ItemInput, 0, len(lines))
	for _, line := range lines {
		items = append(items, sales.ItemInput{
			ProductID:    line.ProductID,
			ProductName:  line.ProductName,
			Quantity:     line.Quantity,
			UnitPrice:    line.UnitPrice,
			LineDiscount: line.LineDiscount,
			LineTotal:    money.Round(line.Total()),
		})
	}

	var customerID *uuid.UUID
	if s.customer != nil {
		id := s.customer.ID
		customerID = &id
	}

	return sales.Input{
		CustomerID:     customerID,
		Items:          items,
		Subtotal:       s.totals.Subtotal,
		Discount:       s.totals.CampaignDiscount.Add(s.totals.LoyaltyDiscount),
		Tax:            s.totals.Tax,
		Total:          s.totals.Total,
		PaymentMethod:  s.payment.Method(),
		AmountPaid:     s.payment.AmountPaid(),
		Change:         s.payment.Change(),
		RedeemedPoints: s.points.RedeemedPoints,
		Notes:          s.saleNote(),
	}
}

// saleNote picks the receipt note: the mobile-money number when one was
// captured, else the customer's name, else the walk-in label.
func (s *Session) saleNote() *string {
	if s.payment.Method() == enums.PaymentMethodMobile && s.payment.Phone() != "" {
		note := s.payment.Phone()
		return &note
	}
	if s.customer != nil {
		note := s.customer.Name
		return &note
	}
	note := s.svc.opts.WalkInName
	return &note
}

// finishCommit clears all transient state and fires the best-effort usage
// recorder. Callers hold s.mu.
func (s *Session) finishCommit(ctx context.Context, sale *models.Sale) {
	applied := append([]campaigns.Applied(nil), s.applied...)
	var customerID *uuid.UUID
	var customerName *string
	if s.customer != nil {
		id := s.customer.ID
		name := s.customer.Name
		customerID = &id
		customerName = &name
	}
	if len(applied) > 0 {
		// Not part of the commit transaction: a failed ledger write must
		// never invalidate the sale.
		go s.svc.recorder.RecordSale(context.WithoutCancel(ctx), applied, sale.Total, customerID, customerName)
	}

	s.cart.Clear()
	s.customer = nil
	s.usage = nil
	s.promo = nil
	s.applied = nil
	s.redeem = false
	s.stale = false
	s.payment.Cancel()
	s.recompute()
}

// noteStockConflict marks the session for re-validation when the failure
// was a stock conflict, from either validator.
func (s *Session) noteStockConflict(err error) {
	code := errorCode(err)
	if code == apperrors.CodeInsufficientStock || code == apperrors.CodeProductRemoved {
		s.stale = true
		s.svc.metrics.IncStockConflict()
	}
}

func classifyCommitError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(apperrors.CodeTimeout, err, "sale commit timed out")
	}
	if typed := apperrors.As(err); typed != nil {
		return err
	}
	return apperrors.Wrap(apperrors.CodeInternal, err, "sale commit failed")
}

func errorCode(err error) apperrors.Code {
	if typed := apperrors.As(err); typed != nil {
		return typed.Code()
	}
	return apperrors.CodeInternal
}
