package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendapos/venda-backend/api/responses"
	"github.com/vendapos/venda-backend/api/validators"
	checkoutsvc "github.com/vendapos/venda-backend/internal/checkout"
	"github.com/vendapos/venda-backend/pkg/enums"
	pkgerrors "github.com/vendapos/venda-backend/pkg/errors"
	"github.com/vendapos/venda-backend/pkg/logger"
)

// OpenSession starts a fresh checkout session for a till.
func OpenSession(manager *checkoutsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if manager == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout unavailable"))
			return
		}

		session, err := manager.Open(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, session.Snapshot())
	}
}

// GetSession returns the current snapshot of a session.
func GetSession(manager *checkoutsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFromRequest(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session.Snapshot())
	}
}

// CloseSession abandons a session without committing.
func CloseSession(manager *checkoutsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if manager == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout unavailable"))
			return
		}

		sessionID, err := validators.UUIDParam(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		manager.Close(sessionID)
		w.WriteHeader(http.StatusNoContent)
	}
}

type addItemRequest struct {
	ProductID *uuid.UUID `json:"product_id,omitempty"`
	Code      *string    `json:"code,omitempty"`
	Quantity  string     `json:"quantity" validate:"required"`
}

// AddItem puts a product on the cart, either by ID or by scanned code.
func AddItem(manager *checkoutsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFromRequest(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		qty, err := parseAmount(payload.Quantity, "quantity")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var state checkoutsvc.State
		switch {
		case payload.ProductID != nil:
			state, err = session.AddProductByID(r.Context(), *payload.ProductID, qty)
		case payload.Code != nil && strings.TrimSpace(*payload.Code) != "":
			state, err = session.AddProductByScan(r.Context(), *payload.Code, qty)
		default:
			err = pkgerrors.New(pkgerrors.CodeValidation, "product_id or code required")
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, state)
	}
}

type updateItemRequest struct {
	Quantity string `json:"quantity" validate:"required"`
}

// UpdateItem changes a line's quantity.
func UpdateItem(manager *checkoutsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFromRequest(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lineID, err := validators.UUIDParam(r, "lineID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		qty, err := parseAmount(payload.Quantity, "quantity")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := session.UpdateQuantity(lineID, qty)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, state)
	}
}

type lineDiscountRequest struct {
	Discount string `json:"discount" validate:"required"`
}

// SetItemDiscount applies a manual discount to one line.
func SetItemDiscount(manager *checkoutsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFromRequest(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lineID, err := validators.UUIDParam(r, "lineID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload lineDiscountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		discount, err := parseAmount(payload.Discount, "discount")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := session.SetLineDiscount(lineID, discount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, state)
	}
}

// RemoveItem drops one line from the cart.
func RemoveItem(manager *checkoutsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFromRequest(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lineID, err := validators.UUIDParam(r, "lineID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := session.RemoveLine(lineID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, state)
	}
}

// ClearItems empties the cart.
func ClearItems(manager *checkoutsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFromRequest(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session.ClearCart())
	}
}

type selectCustomerRequest struct {
	CustomerID uuid.UUID `json:"customer_id" validate:"required"`
}

// SelectCustomer attaches a loyalty member to the session.
func SelectCustomer(manager *checkoutsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFromRequest(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload selectCustomerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := session.SelectCustomer(r.Context(), payload.CustomerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, state)
	}
}

// ClearCustomer reverts the session to a walk-in sale.
func ClearCustomer(manager *checkoutsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFromRequest(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session.ClearCustomer())
	}
}

type applyCodeRequest struct {
	Code string `json:"code" validate:"required"`
}

// ApplyCode activates a promo code on the session.
func ApplyCode(manager *checkoutsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFromRequest(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload applyCodeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := session.ApplyCode(r.Context(), payload.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, state)
	}
}

// RemoveCode detaches a previously applied promo campaign.
func RemoveCode(manager *checkoutsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFromRequest(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		campaignID, err := validators.UUIDParam(r, "campaignID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := session.RemoveCode(campaignID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, state)
	}
}

type redemptionRequest struct {
	Enabled bool `json:"enabled"`
}

// SetRedemption toggles loyalty point redemption on the session.
func SetRedemption(manager *checkoutsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFromRequest(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload redemptionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := session.SetRedemption(payload.Enabled)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, state)
	}
}

type selectPaymentRequest struct {
	Method   string  `json:"method" validate:"required"`
	Provider *string `json:"provider,omitempty"`
}

// SelectPayment picks the payment method, with a provider for mobile money.
func SelectPayment(manager *checkoutsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFromRequest(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload selectPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(strings.TrimSpace(payload.Method))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		var provider enums.MobileProvider
		if payload.Provider != nil && strings.TrimSpace(*payload.Provider) != "" {
			provider, err = enums.ParseMobileProvider(strings.TrimSpace(*payload.Provider))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid mobile provider"))
				return
			}
		}

		state, err := session.SelectPayment(method, provider)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, state)
	}
}

type tenderedRequest struct {
	Amount string `json:"amount" validate:"required"`
}

// SetTendered records the cash handed over by the customer.
func SetTendered(manager *checkoutsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFromRequest(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload tenderedRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		amount, err := parseAmount(payload.Amount, "amount")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := session.SetTendered(amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, state)
	}
}

type paymentPhoneRequest struct {
	Phone string `json:"phone" validate:"required"`
}

// SetPaymentPhone captures the mobile-money number for the payment push.
func SetPaymentPhone(manager *checkoutsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFromRequest(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload paymentPhoneRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := session.SetPaymentPhone(payload.Phone)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, state)
	}
}

// ConfirmPayment marks the mobile-money push as confirmed by the cashier.
func ConfirmPayment(manager *checkoutsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFromRequest(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := session.ConfirmMobilePayment()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, state)
	}
}

// CancelPayment drops the payment selection.
func CancelPayment(manager *checkoutsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFromRequest(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session.CancelPayment())
	}
}

// CommitSession finalizes the sale.
func CommitSession(manager *checkoutsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFromRequest(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithSessionID(ctx, session.ID().String())
		}

		sale, err := session.Commit(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			ctx = logg.WithSaleID(ctx, sale.ID.String())
			logg.Info(ctx, "sale.committed")
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, sale)
	}
}

func sessionFromRequest(manager *checkoutsvc.Manager, r *http.Request) (*checkoutsvc.Session, error) {
	sessionID, err := validators.UUIDParam(r, "sessionID")
	if err != nil {
		return nil, err
	}

	if manager == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "checkout unavailable")
	}

	return manager.Get(sessionID)
}

func parseAmount(value, field string) (decimal.Decimal, error) {
	parsed, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Decimal{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field)
	}
	return parsed, nil
}
