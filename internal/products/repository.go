// Package products exposes the catalog the till sells from.
package products

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendapos/venda-backend/pkg/db/models"
	apperrors "github.com/vendapos/venda-backend/pkg/errors"
)

// Repository is the gorm-backed product catalog.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// ListActive returns the sellable catalog ordered by name.
func (r *Repository) ListActive(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// Search filters the active catalog by name, code or barcode fragment.
func (r *Repository) Search(ctx context.Context, query string) ([]models.Product, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return r.ListActive(ctx)
	}
	pattern := "%" + strings.ToLower(trimmed) + "%"

	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ? OR barcode LIKE ?", pattern, pattern, pattern).
		Order("name ASC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// FindByID loads a single product, active or not.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "product not found")
		}
		return nil, err
	}
	return &product, nil
}

// FindByCodeOrBarcode resolves a till scan: exact code match first, then
// barcode. Only active products can be scanned into a cart.
func (r *Repository) FindByCodeOrBarcode(ctx context.Context, scanned string) (*models.Product, error) {
	trimmed := strings.TrimSpace(scanned)
	if trimmed == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "product code is required")
	}

	var product models.Product
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("code = ? OR barcode = ?", trimmed, trimmed).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "no product matches the scanned code")
		}
		return nil, err
	}
	return &product, nil
}

// ListByIDs loads products by primary key; missing IDs are simply absent
// from the result so callers can detect removed products.
func (r *Repository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}
