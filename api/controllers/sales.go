package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/vendapos/venda-backend/api/responses"
	"github.com/vendapos/venda-backend/api/validators"
	"github.com/vendapos/venda-backend/internal/sales"
	"github.com/vendapos/venda-backend/pkg/db/models"
	pkgerrors "github.com/vendapos/venda-backend/pkg/errors"
	"github.com/vendapos/venda-backend/pkg/logger"
	"github.com/vendapos/venda-backend/pkg/pagination"
)

type saleReader interface {
	ListPage(ctx context.Context, params pagination.Params) (*sales.Page, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Sale, error)
}

// ListSales returns sales history newest first, cursor-paginated.
func ListSales(reader saleReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reader == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales unavailable"))
			return
		}

		limit, err := validators.QueryInt(r, "limit", 0)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := reader.ListPage(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

// GetSale returns one committed sale with its items.
func GetSale(reader saleReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reader == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales unavailable"))
			return
		}

		saleID, err := validators.UUIDParam(r, "saleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sale, err := reader.FindByID(r.Context(), saleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sale)
	}
}
