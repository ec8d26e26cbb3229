package loyalty

import (
	"testing"

	"github.com/shopspring/decimal"

	apperrors "github.com/vendapos/venda-backend/pkg/errors"
)

var onePerPoint = decimal.NewFromInt(1)

func TestComputeDisabledRedeemsNothing(t *testing.T) {
	got, err := Compute(500, decimal.NewFromInt(100), decimal.Zero, onePerPoint, false)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if got.RedeemedPoints != 0 || !got.Discount.IsZero() {
		t.Fatalf("disabled redemption consumed %d points, discount %s", got.RedeemedPoints, got.Discount)
	}
}

func TestComputeCappedByBalance(t *testing.T) {
	got, err := Compute(14, decimal.NewFromInt(1000), decimal.Zero, onePerPoint, true)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if got.RedeemedPoints != 14 {
		t.Fatalf("redeemed %d points, want 14", got.RedeemedPoints)
	}
	if !got.Discount.Equal(decimal.NewFromInt(14)) {
		t.Fatalf("discount = %s, want 14", got.Discount)
	}
}

func TestComputeCappedByRemainingAmount(t *testing.T) {
	// 1000 subtotal, 14 campaign discount: only 986 remains redeemable
	// even for a customer holding far more points.
	got, err := Compute(5000, decimal.NewFromInt(1000), decimal.NewFromInt(14), onePerPoint, true)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if got.RedeemedPoints != 986 {
		t.Fatalf("redeemed %d points, want 986", got.RedeemedPoints)
	}
	if !got.Discount.Equal(decimal.NewFromInt(986)) {
		t.Fatalf("discount = %s, want 986", got.Discount)
	}
}

func TestComputeFlooredToWholePoints(t *testing.T) {
	got, err := Compute(5000, decimal.RequireFromString("99.75"), decimal.Zero, onePerPoint, true)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if got.RedeemedPoints != 99 {
		t.Fatalf("redeemed %d points, want 99", got.RedeemedPoints)
	}
}

func TestComputeFractionalPointValue(t *testing.T) {
	// A half-unit point value doubles the points a given amount absorbs.
	got, err := Compute(30, decimal.NewFromInt(10), decimal.Zero, decimal.RequireFromString("0.5"), true)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if got.RedeemedPoints != 20 {
		t.Fatalf("redeemed %d points, want 20", got.RedeemedPoints)
	}
	if !got.Discount.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("discount = %s, want 10", got.Discount)
	}
}

func TestComputeZeroSubtotalRejected(t *testing.T) {
	_, err := Compute(10, decimal.Zero, decimal.Zero, onePerPoint, true)
	typed := apperrors.As(err)
	if typed == nil || typed.Code() != apperrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestComputeNoPointsNoDiscount(t *testing.T) {
	got, err := Compute(0, decimal.NewFromInt(100), decimal.Zero, onePerPoint, true)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if got.RedeemedPoints != 0 || !got.Discount.IsZero() {
		t.Fatalf("zero balance redeemed %d points", got.RedeemedPoints)
	}
}
