package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendapos/venda-backend/pkg/db/models"
	"github.com/vendapos/venda-backend/pkg/enums"
	pkgerrors "github.com/vendapos/venda-backend/pkg/errors"
	"github.com/vendapos/venda-backend/pkg/money"
)

// Line is one cart entry. Quantity is a decimal so weight-sold products can
// carry fractional amounts; countable units are kept whole.
type Line struct {
	ID           uuid.UUID
	ProductID    uuid.UUID
	ProductName  string
	Unit         enums.ProductUnit
	UnitPrice    decimal.Decimal
	Quantity     decimal.Decimal
	LineDiscount decimal.Decimal
}

// Total returns quantity × unit price − line discount, never negative.
func (l Line) Total() decimal.Decimal {
	gross := l.Quantity.Mul(l.UnitPrice)
	return money.FloorAtZero(gross.Sub(l.LineDiscount))
}

// Cart owns the line items of one checkout session. It is purely in-memory:
// no I/O, and the subtotal is derived from the lines on every read.
type Cart struct {
	lines []Line
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// AddLine appends a product to the cart, merging quantities when the product
// is already present. The unit price is snapshotted at add time.
func (c *Cart) AddLine(product *models.Product, qty decimal.Decimal) (uuid.UUID, error) {
	if product == nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "product is required")
	}
	normalized, err := normalizeQuantity(product.Unit, qty)
	if err != nil {
		return uuid.Nil, err
	}

	for i := range c.lines {
		if c.lines[i].ProductID == product.ID {
			merged, err := normalizeQuantity(product.Unit, c.lines[i].Quantity.Add(normalized))
			if err != nil {
				return uuid.Nil, err
			}
			c.lines[i].Quantity = merged
			return c.lines[i].ID, nil
		}
	}

	line := Line{
		ID:           uuid.New(),
		ProductID:    product.ID,
		ProductName:  product.Name,
		Unit:         product.Unit,
		UnitPrice:    product.Price,
		Quantity:     normalized,
		LineDiscount: money.Zero,
	}
	c.lines = append(c.lines, line)
	return line.ID, nil
}

// UpdateQuantity replaces a line's quantity. A quantity below one whole unit
// (or at or below zero for weight units) removes the line.
func (c *Cart) UpdateQuantity(lineID uuid.UUID, qty decimal.Decimal) error {
	idx := c.indexOf(lineID)
	if idx < 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}

	unit := c.lines[idx].Unit
	if shouldRemove(unit, qty) {
		c.removeAt(idx)
		return nil
	}

	normalized, err := normalizeQuantity(unit, qty)
	if err != nil {
		return err
	}
	c.lines[idx].Quantity = normalized
	return nil
}

// SetLineDiscount applies a per-line discount, capped by the line gross.
func (c *Cart) SetLineDiscount(lineID uuid.UUID, discount decimal.Decimal) error {
	idx := c.indexOf(lineID)
	if idx < 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	if discount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "line discount cannot be negative")
	}
	gross := c.lines[idx].Quantity.Mul(c.lines[idx].UnitPrice)
	if discount.GreaterThan(gross) {
		return pkgerrors.New(pkgerrors.CodeValidation, "line discount exceeds line total")
	}
	c.lines[idx].LineDiscount = discount
	return nil
}

// RemoveLine drops the identified line.
func (c *Cart) RemoveLine(lineID uuid.UUID) error {
	idx := c.indexOf(lineID)
	if idx < 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	c.removeAt(idx)
	return nil
}

// Clear drops every line.
func (c *Cart) Clear() {
	c.lines = nil
}

// Lines returns a copy of the current lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Subtotal sums the line totals. It is recomputed on every call so it can
// never go stale relative to the lines.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := money.Zero
	for _, line := range c.lines {
		sum = sum.Add(line.Total())
	}
	return money.Round(sum)
}

func (c *Cart) indexOf(lineID uuid.UUID) int {
	for i := range c.lines {
		if c.lines[i].ID == lineID {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(idx int) {
	c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
}

// shouldRemove implements the quantity-below-one removal rule for countable
// units; weight units are removed only at or below zero.
func shouldRemove(unit enums.ProductUnit, qty decimal.Decimal) bool {
	if unit.IsWeight() {
		return qty.Sign() <= 0
	}
	return qty.LessThan(decimal.NewFromInt(1))
}

func normalizeQuantity(unit enums.ProductUnit, qty decimal.Decimal) (decimal.Decimal, error) {
	if qty.Sign() <= 0 {
		return decimal.Decimal{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if unit.IsWeight() {
		return qty.Truncate(3), nil
	}
	if !qty.Equal(qty.Truncate(0)) {
		return decimal.Decimal{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a whole number for countable units")
	}
	return qty, nil
}
