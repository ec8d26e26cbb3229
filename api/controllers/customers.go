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

type customerDirectory interface {
	Search(ctx context.Context, query string) ([]models.Customer, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
}

// ListCustomers returns loyalty members, filtered by ?q= across name, phone
// and customer code.
func ListCustomers(directory customerDirectory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if directory == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer directory unavailable"))
			return
		}

		query := strings.TrimSpace(r.URL.Query().Get("q"))
		customers, err := directory.Search(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, customers)
	}
}

// GetCustomer returns a single loyalty member by ID.
func GetCustomer(directory customerDirectory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if directory == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer directory unavailable"))
			return
		}

		customerID, err := validators.UUIDParam(r, "customerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customer, err := directory.FindByID(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, customer)
	}
}
