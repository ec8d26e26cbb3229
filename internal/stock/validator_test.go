package stock

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendapos/venda-backend/internal/cart"
	"github.com/vendapos/venda-backend/pkg/db/models"
	apperrors "github.com/vendapos/venda-backend/pkg/errors"
)

type fakeProducts struct {
	products []models.Product
	err      error
}

func (f *fakeProducts) ListByIDs(_ context.Context, _ []uuid.UUID) ([]models.Product, error) {
	return f.products, f.err
}

func newTestValidator(t *testing.T, products *fakeProducts) *Validator {
	t.Helper()
	v, err := NewValidator(products)
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	return v
}

func stockedProduct(name string, stock int64) models.Product {
	return models.Product{
		ID:           uuid.New(),
		Name:         name,
		CurrentStock: decimal.NewFromInt(stock),
		IsActive:     true,
	}
}

func lineFor(p models.Product, qty int64) cart.Line {
	return cart.Line{
		ID:          uuid.New(),
		ProductID:   p.ID,
		ProductName: p.Name,
		Quantity:    decimal.NewFromInt(qty),
	}
}

func TestValidatePassesWithSufficientStock(t *testing.T) {
	soap := stockedProduct("soap", 10)
	v := newTestValidator(t, &fakeProducts{products: []models.Product{soap}})

	if err := v.Validate(context.Background(), []cart.Line{lineFor(soap, 10)}); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateEmptyCart(t *testing.T) {
	v := newTestValidator(t, &fakeProducts{err: errors.New("should not be called")})
	if err := v.Validate(context.Background(), nil); err != nil {
		t.Fatalf("Validate on empty cart: %v", err)
	}
}

func TestValidateReportsAllShortfallsAtOnce(t *testing.T) {
	soap := stockedProduct("soap", 2)
	rice := stockedProduct("rice", 100)
	oil := stockedProduct("oil", 0)
	v := newTestValidator(t, &fakeProducts{products: []models.Product{soap, rice, oil}})

	err := v.Validate(context.Background(), []cart.Line{
		lineFor(soap, 5),
		lineFor(rice, 1),
		lineFor(oil, 3),
	})
	typed := apperrors.As(err)
	if typed == nil || typed.Code() != apperrors.CodeInsufficientStock {
		t.Fatalf("expected INSUFFICIENT_STOCK, got %v", err)
	}

	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("details = %T, want map", typed.Details())
	}
	issues, ok := details["issues"].([]Issue)
	if !ok {
		t.Fatalf("issues = %T, want []Issue", details["issues"])
	}
	if len(issues) != 2 {
		t.Fatalf("got %d issues, want 2", len(issues))
	}
	if !issues[0].Available.Equal(decimal.NewFromInt(2)) || !issues[0].Requested.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("soap issue = %+v", issues[0])
	}
}

func TestValidateMissingProductReportsZeroAvailable(t *testing.T) {
	ghost := stockedProduct("discontinued", 50)
	v := newTestValidator(t, &fakeProducts{products: nil})

	err := v.Validate(context.Background(), []cart.Line{lineFor(ghost, 1)})
	typed := apperrors.As(err)
	if typed == nil || typed.Code() != apperrors.CodeInsufficientStock {
		t.Fatalf("expected INSUFFICIENT_STOCK, got %v", err)
	}
	issues := typed.Details().(map[string]any)["issues"].([]Issue)
	if len(issues) != 1 || !issues[0].Available.IsZero() {
		t.Fatalf("issues = %+v, want one with zero available", issues)
	}
}

func TestValidateInactiveProductReportsZeroAvailable(t *testing.T) {
	pulled := stockedProduct("pulled", 50)
	pulled.IsActive = false
	v := newTestValidator(t, &fakeProducts{products: []models.Product{pulled}})

	err := v.Validate(context.Background(), []cart.Line{lineFor(pulled, 1)})
	typed := apperrors.As(err)
	if typed == nil || typed.Code() != apperrors.CodeInsufficientStock {
		t.Fatalf("expected INSUFFICIENT_STOCK, got %v", err)
	}
}

func TestValidateStorageFailure(t *testing.T) {
	product := stockedProduct("soap", 10)
	v := newTestValidator(t, &fakeProducts{err: errors.New("connection reset")})

	err := v.Validate(context.Background(), []cart.Line{lineFor(product, 1)})
	typed := apperrors.As(err)
	if typed == nil || typed.Code() != apperrors.CodeInternal {
		t.Fatalf("expected INTERNAL_ERROR, got %v", err)
	}
}
