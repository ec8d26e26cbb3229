package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/vendapos/venda-backend/api/responses"
	"github.com/vendapos/venda-backend/api/validators"
	"github.com/vendapos/venda-backend/pkg/db/models"
	pkgerrors "github.com/vendapos/venda-backend/pkg/errors"
	"github.com/vendapos/venda-backend/pkg/logger"
)

type productCatalog interface {
	ListActive(ctx context.Context) ([]models.Product, error)
	Search(ctx context.Context, query string) ([]models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByCodeOrBarcode(ctx context.Context, scanned string) (*models.Product, error)
}

// ListProducts returns the sellable catalog, filtered by ?q= when present.
func ListProducts(catalog productCatalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if catalog == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product catalog unavailable"))
			return
		}

		query := strings.TrimSpace(r.URL.Query().Get("q"))
		products, err := catalog.Search(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, products)
	}
}

// GetProduct returns a single product by ID.
func GetProduct(catalog productCatalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if catalog == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product catalog unavailable"))
			return
		}

		productID, err := validators.UUIDParam(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := catalog.FindByID(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// LookupProduct resolves a scanned product code or barcode, the path the
// barcode scanner hits between every item.
func LookupProduct(catalog productCatalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if catalog == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product catalog unavailable"))
			return
		}

		scanned := strings.TrimSpace(r.URL.Query().Get("code"))
		if scanned == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "code query parameter required"))
			return
		}

		product, err := catalog.FindByCodeOrBarcode(r.Context(), scanned)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}
