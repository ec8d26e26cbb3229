// Package sales persists committed checkouts. The write path is the single
// authority over stock and loyalty balances: every decrement is guarded at
// the row level so concurrent tills cannot oversell.
package sales

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vendapos/venda-backend/internal/customers"
	"github.com/vendapos/venda-backend/internal/stock"
	"github.com/vendapos/venda-backend/pkg/db/models"
	"github.com/vendapos/venda-backend/pkg/enums"
	apperrors "github.com/vendapos/venda-backend/pkg/errors"
	"github.com/vendapos/venda-backend/pkg/pagination"
)

// ItemInput is one line of the sale snapshot to persist.
type ItemInput struct {
	ProductID    uuid.UUID
	ProductName  string
	Quantity     decimal.Decimal
	UnitPrice    decimal.Decimal
	LineDiscount decimal.Decimal
	LineTotal    decimal.Decimal
}

// Input is the immutable sale snapshot built by the checkout session.
type Input struct {
	CustomerID     *uuid.UUID
	Items          []ItemInput
	Subtotal       decimal.Decimal
	Discount       decimal.Decimal
	Tax            decimal.Decimal
	Total          decimal.Decimal
	PaymentMethod  enums.PaymentMethod
	AmountPaid     decimal.Decimal
	Change         decimal.Decimal
	RedeemedPoints int
	Notes          *string
}

// Repository is the gorm-backed sale writer. Loyalty deductions go through
// the customer repository so the balance guard lives in one place.
type Repository struct {
	db        *gorm.DB
	customers *customers.Repository
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, customers: customers.NewRepository(db)}
}

// Create commits the sale atomically: every stock decrement, the loyalty
// deduction and the sale rows succeed together or not at all. Stock is
// checked inside the same guarded UPDATE that decrements it, so the check
// cannot race another till.
func (r *Repository) Create(ctx context.Context, input Input) (*models.Sale, error) {
	if len(input.Items) == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "a sale needs at least one item")
	}

	var sale *models.Sale
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.decrementStock(tx, input.Items); err != nil {
			return err
		}
		if input.RedeemedPoints > 0 {
			if input.CustomerID == nil {
				return apperrors.New(apperrors.CodeValidation, "point redemption requires a customer")
			}
			if err := r.customers.WithTx(tx).DeductPoints(ctx, *input.CustomerID, input.RedeemedPoints); err != nil {
				return err
			}
		}

		record := &models.Sale{
			ID:             uuid.New(),
			CustomerID:     input.CustomerID,
			Subtotal:       input.Subtotal,
			Discount:       input.Discount,
			Tax:            input.Tax,
			Total:          input.Total,
			PaymentMethod:  input.PaymentMethod,
			AmountPaid:     input.AmountPaid,
			Change:         input.Change,
			RedeemedPoints: input.RedeemedPoints,
			Notes:          input.Notes,
		}
		for _, item := range input.Items {
			record.Items = append(record.Items, models.SaleItem{
				ID:           uuid.New(),
				SaleID:       record.ID,
				ProductID:    item.ProductID,
				ProductName:  item.ProductName,
				Quantity:     item.Quantity,
				UnitPrice:    item.UnitPrice,
				LineDiscount: item.LineDiscount,
				LineTotal:    item.LineTotal,
			})
		}
		if err := tx.Create(record).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "failed to persist sale")
		}

		sale = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// decrementStock applies every item's guarded decrement, collecting all
// failures before reporting so the cashier sees the full picture in one
// round trip.
func (r *Repository) decrementStock(tx *gorm.DB, items []ItemInput) error {
	var (
		shortfalls []stock.Issue
		removed    []stock.Issue
	)

	for _, item := range items {
		result := tx.Model(&models.Product{}).
			Where("id = ? AND is_active = ? AND current_stock >= ?", item.ProductID, true, item.Quantity).
			UpdateColumn("current_stock", gorm.Expr("current_stock - ?", item.Quantity))
		if result.Error != nil {
			return apperrors.Wrap(apperrors.CodeInternal, result.Error, "failed to decrement stock")
		}
		if result.RowsAffected > 0 {
			continue
		}

		var product models.Product
		err := tx.First(&product, "id = ?", item.ProductID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			removed = append(removed, stock.Issue{
				ProductID:   item.ProductID,
				ProductName: item.ProductName,
				Available:   decimal.Zero,
				Requested:   item.Quantity,
			})
		case err != nil:
			return apperrors.Wrap(apperrors.CodeInternal, err, "failed to inspect product stock")
		case !product.IsActive:
			removed = append(removed, stock.Issue{
				ProductID:   item.ProductID,
				ProductName: product.Name,
				Available:   decimal.Zero,
				Requested:   item.Quantity,
			})
		default:
			shortfalls = append(shortfalls, stock.Issue{
				ProductID:   item.ProductID,
				ProductName: product.Name,
				Available:   product.CurrentStock,
				Requested:   item.Quantity,
			})
		}
	}

	switch {
	case len(shortfalls) > 0:
		// Removed products fold into the shortfall list as zero available
		// so mixed failures still surface every blocked line.
		return apperrors.New(apperrors.CodeInsufficientStock, "insufficient stock for one or more items").
			WithDetails(map[string]any{"issues": append(shortfalls, removed...)})
	case len(removed) > 0:
		return apperrors.New(apperrors.CodeProductRemoved, "a cart item is no longer available").
			WithDetails(map[string]any{"issues": removed})
	}
	return nil
}

// FindByID loads a committed sale with its items, for receipt reprints.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).Preload("Items").First(&sale, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "sale not found")
		}
		return nil, err
	}
	return &sale, nil
}

// Page is one slice of sales history plus the cursor for the next one.
type Page struct {
	Sales      []models.Sale `json:"sales"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// ListPage returns sales newest first, keyset-paginated so the listing stays
// stable while new sales commit.
func (r *Repository) ListPage(ctx context.Context, params pagination.Params) (*Page, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))
	if cursor != nil {
		query = query.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var sales []models.Sale
	if err := query.Find(&sales).Error; err != nil {
		return nil, err
	}

	page := &Page{Sales: sales}
	if len(sales) > limit {
		page.Sales = sales[:limit]
		last := page.Sales[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}
