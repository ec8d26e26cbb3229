package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vendapos/venda-backend/internal/stock"
	"github.com/vendapos/venda-backend/pkg/enums"
	apperrors "github.com/vendapos/venda-backend/pkg/errors"
)

func readyCashSession(t *testing.T, env *testEnv) *Session {
	t.Helper()

	product := env.addProduct("rice", 100)
	session := env.openSession(t)
	ctx := context.Background()

	mustState(t)(session.AddProductByID(ctx, product.ID, decimal.NewFromInt(5)))
	mustState(t)(session.SelectPayment(enums.PaymentMethodCash, ""))
	mustState(t)(session.SetTendered(decimal.NewFromInt(1000)))
	return session
}

func TestCommitSuccessResetsSession(t *testing.T) {
	env := newTestEnv(t)
	env.addAutoCampaign("ten percent", 10)
	session := readyCashSession(t, env)

	sale, err := session.Commit(context.Background())
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if !sale.Subtotal.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("sale subtotal = %s, want 500", sale.Subtotal)
	}
	if !sale.Discount.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("sale discount = %s, want 50", sale.Discount)
	}
	if sale.PaymentMethod != enums.PaymentMethodCash {
		t.Fatalf("payment method = %s, want cash", sale.PaymentMethod)
	}
	if sale.Notes == nil || *sale.Notes != "Walk-in" {
		t.Fatalf("note = %v, want Walk-in", sale.Notes)
	}

	state := session.Snapshot()
	if len(state.Lines) != 0 || len(state.Applied) != 0 || state.Customer != nil ||
		state.RedeemEnabled || state.Payment.Method != "" {
		t.Fatalf("session not reset after commit: %+v", state)
	}
	if !state.Totals.Total.IsZero() {
		t.Fatalf("total after commit = %s, want 0", state.Totals.Total)
	}

	select {
	case applied := <-env.recorder.calls:
		if len(applied) != 1 {
			t.Fatalf("recorded %d campaigns, want 1", len(applied))
		}
	case <-time.After(time.Second):
		t.Fatal("usage recorder was not invoked")
	}
}

func TestCommitNotePrefersMobilePhone(t *testing.T) {
	env := newTestEnv(t)
	product := env.addProduct("rice", 100)
	customer := env.addCustomer("Ana", 0)

	session := env.openSession(t)
	ctx := context.Background()

	mustState(t)(session.AddProductByID(ctx, product.ID, decimal.NewFromInt(1)))
	mustState(t)(session.SelectCustomer(ctx, customer.ID))
	mustState(t)(session.SelectPayment(enums.PaymentMethodMobile, enums.MobileProviderMpesa))
	mustState(t)(session.SetPaymentPhone("+258841234567"))
	mustState(t)(session.ConfirmMobilePayment())

	sale, err := session.Commit(ctx)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if sale.Notes == nil || *sale.Notes != "+258841234567" {
		t.Fatalf("note = %v, want the mobile number", sale.Notes)
	}
}

func TestCommitNoteFallsBackToCustomerName(t *testing.T) {
	env := newTestEnv(t)
	product := env.addProduct("rice", 100)
	customer := env.addCustomer("Ana", 0)

	session := env.openSession(t)
	ctx := context.Background()

	mustState(t)(session.AddProductByID(ctx, product.ID, decimal.NewFromInt(1)))
	mustState(t)(session.SelectCustomer(ctx, customer.ID))
	mustState(t)(session.SelectPayment(enums.PaymentMethodCard, ""))

	sale, err := session.Commit(ctx)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if sale.Notes == nil || *sale.Notes != "Ana" {
		t.Fatalf("note = %v, want Ana", sale.Notes)
	}
}

func TestCommitRequiresReadyPayment(t *testing.T) {
	env := newTestEnv(t)
	product := env.addProduct("rice", 100)

	session := env.openSession(t)
	ctx := context.Background()
	mustState(t)(session.AddProductByID(ctx, product.ID, decimal.NewFromInt(1)))

	_, err := session.Commit(ctx)
	typed := apperrors.As(err)
	if typed == nil || typed.Code() != apperrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCommitEmptyCartRejected(t *testing.T) {
	env := newTestEnv(t)
	session := env.openSession(t)

	_, err := session.Commit(context.Background())
	typed := apperrors.As(err)
	if typed == nil || typed.Code() != apperrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCommitStockConflictLeavesStateUntouched(t *testing.T) {
	env := newTestEnv(t)
	session := readyCashSession(t, env)
	env.stock.err = apperrors.New(apperrors.CodeInsufficientStock, "insufficient stock for one or more items").
		WithDetails(map[string]any{"issues": []stock.Issue{{Available: decimal.NewFromInt(2), Requested: decimal.NewFromInt(5)}}})

	_, err := session.Commit(context.Background())
	typed := apperrors.As(err)
	if typed == nil || typed.Code() != apperrors.CodeInsufficientStock {
		t.Fatalf("expected INSUFFICIENT_STOCK, got %v", err)
	}

	state := session.Snapshot()
	if len(state.Lines) != 1 {
		t.Fatal("cart must survive a failed commit")
	}
	if !state.StockStale {
		t.Fatal("session should be flagged for stock re-validation")
	}

	// The failure must come from the pre-commit validator, not the writer.
	if len(env.sales.inputs) != 0 {
		t.Fatal("sale writer should not have been called")
	}
}

func TestCommitServerStockConflictAuthoritative(t *testing.T) {
	env := newTestEnv(t)
	session := readyCashSession(t, env)
	env.sales.err = apperrors.New(apperrors.CodeInsufficientStock, "insufficient stock for one or more items")

	_, err := session.Commit(context.Background())
	typed := apperrors.As(err)
	if typed == nil || typed.Code() != apperrors.CodeInsufficientStock {
		t.Fatalf("expected INSUFFICIENT_STOCK, got %v", err)
	}
	if !session.Snapshot().StockStale {
		t.Fatal("server stock conflict should flag the session stale")
	}
}

func TestCommitTimeoutClassified(t *testing.T) {
	env := newTestEnv(t)
	env.svc.opts.CommitTimeout = 50 * time.Millisecond
	session := readyCashSession(t, env)
	env.sales.release = make(chan struct{})

	_, err := session.Commit(context.Background())
	typed := apperrors.As(err)
	if typed == nil || typed.Code() != apperrors.CodeTimeout {
		t.Fatalf("expected TIMEOUT, got %v", err)
	}
	if !apperrors.Retryable(err) {
		t.Fatal("timeouts must be retryable")
	}
	if len(session.Snapshot().Lines) != 1 {
		t.Fatal("cart must survive a timed-out commit")
	}
}

func TestCommitSingleFlight(t *testing.T) {
	env := newTestEnv(t)
	session := readyCashSession(t, env)
	env.sales.release = make(chan struct{})

	first := make(chan error, 1)
	go func() {
		_, err := session.Commit(context.Background())
		first <- err
	}()

	// Wait for the first commit to reach the blocked writer.
	deadline := time.After(time.Second)
	for !session.committing.Load() {
		select {
		case <-deadline:
			t.Fatal("first commit never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	_, err := session.Commit(context.Background())
	typed := apperrors.As(err)
	if typed == nil || typed.Code() != apperrors.CodeConflict {
		t.Fatalf("expected CONFLICT for concurrent commit, got %v", err)
	}

	close(env.sales.release)
	if err := <-first; err != nil {
		t.Fatalf("first commit: %v", err)
	}
}
