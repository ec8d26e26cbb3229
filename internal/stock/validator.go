// Package stock pre-validates cart quantities against authoritative stock
// just before commit. The check is advisory: the committer re-checks inside
// the transaction, this pass exists to fail fast with a full issue list.
package stock

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendapos/venda-backend/internal/cart"
	"github.com/vendapos/venda-backend/pkg/db/models"
	apperrors "github.com/vendapos/venda-backend/pkg/errors"
)

// Issue describes one line that cannot be fulfilled.
type Issue struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Available   decimal.Decimal `json:"available"`
	Requested   decimal.Decimal `json:"requested"`
}

type productLister interface {
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

// Validator checks cart lines against freshly fetched stock levels.
type Validator struct {
	products productLister
}

func NewValidator(products productLister) (*Validator, error) {
	if products == nil {
		return nil, fmt.Errorf("product lister required")
	}
	return &Validator{products: products}, nil
}

// Validate re-fetches stock for every cart line and returns an aggregate
// INSUFFICIENT_STOCK error itemizing all shortfalls at once. A product that
// has disappeared or been deactivated since it entered the cart reports as
// zero available.
func (v *Validator) Validate(ctx context.Context, lines []cart.Line) error {
	if len(lines) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}

	products, err := v.products.ListByIDs(ctx, ids)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "failed to fetch stock levels")
	}

	available := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		available[p.ID] = p
	}

	var issues []Issue
	for _, line := range lines {
		product, ok := available[line.ProductID]
		if !ok || !product.IsActive {
			issues = append(issues, Issue{
				ProductID:   line.ProductID,
				ProductName: line.ProductName,
				Available:   decimal.Zero,
				Requested:   line.Quantity,
			})
			continue
		}
		if product.CurrentStock.LessThan(line.Quantity) {
			issues = append(issues, Issue{
				ProductID:   line.ProductID,
				ProductName: product.Name,
				Available:   product.CurrentStock,
				Requested:   line.Quantity,
			})
		}
	}

	if len(issues) > 0 {
		return apperrors.New(apperrors.CodeInsufficientStock, "insufficient stock for one or more items").
			WithDetails(map[string]any{"issues": issues})
	}
	return nil
}
