package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/huertohogar/storefront/internal/platform/httpx"
	"github.com/huertohogar/storefront/internal/platform/requestctx"
	"github.com/huertohogar/storefront/internal/services"
)

func writeJSONResponse(w http.ResponseWriter, status int, payload any) {
	httpx.WriteJSON(w, status, payload)
}

func writeBodyError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, httpx.ErrBodyTooLarge):
		httpx.WriteError(r.Context(), w, httpx.NewError("payload_too_large", err.Error(), http.StatusRequestEntityTooLarge))
	case errors.Is(err, httpx.ErrEmptyBody):
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	default:
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_json", "request body must be valid JSON", http.StatusBadRequest))
	}
}

// requireCustomer writes 401 and returns "" when the request carries no customer identity.
func requireCustomer(w http.ResponseWriter, r *http.Request) string {
	customerID := strings.TrimSpace(requestctx.CustomerID(r.Context()))
	if customerID == "" {
		httpx.WriteError(r.Context(), w, httpx.NewError("unauthenticated", "customer identity is required", http.StatusUnauthorized))
	}
	return customerID
}

func writeCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrCatalogProductNotFound):
		httpx.WriteError(r.Context(), w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCatalogInvalidReview), errors.Is(err, services.ErrCatalogInvalidInput):
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCatalogNotLoaded):
		httpx.WriteError(r.Context(), w, httpx.NewError("catalog_unavailable", "catalog is not loaded", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(r.Context(), w, httpx.NewError("catalog_error", "catalog operation failed", http.StatusInternalServerError))
	}
}

func writeCartError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrCartInvalidQuantity), errors.Is(err, services.ErrCartInvalidInput):
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCartInsufficientStock):
		httpx.WriteError(r.Context(), w, httpx.NewError("insufficient_stock", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrCatalogNotLoaded):
		httpx.WriteError(r.Context(), w, httpx.NewError("catalog_unavailable", "catalog is not loaded", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(r.Context(), w, httpx.NewError("cart_error", "cart operation failed", http.StatusInternalServerError))
	}
}

func writeCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrCheckoutInvalidInput):
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCheckoutCustomerNotFound):
		httpx.WriteError(r.Context(), w, httpx.NewError("customer_not_found", "customer not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCheckoutEmptyCart):
		httpx.WriteError(r.Context(), w, httpx.NewError("cart_empty", "cart is empty", http.StatusConflict))
	case errors.Is(err, services.ErrCheckoutMissingDeliveryMethod),
		errors.Is(err, services.ErrCheckoutMissingBranch),
		errors.Is(err, services.ErrCheckoutIncompleteAddress),
		errors.Is(err, services.ErrCheckoutUnknownSavedAddress):
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_delivery", err.Error(), http.StatusUnprocessableEntity))
	default:
		httpx.WriteError(r.Context(), w, httpx.NewError("checkout_failed", "order could not be placed", http.StatusInternalServerError))
	}
}

func writeOrderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(r.Context(), w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrOrderInvalidStatus), errors.Is(err, services.ErrOrderInvalidInput):
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	default:
		httpx.WriteError(r.Context(), w, httpx.NewError("order_error", "order operation failed", http.StatusInternalServerError))
	}
}

func writeCustomerError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrCustomerInvalidInput):
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCustomerConflict):
		httpx.WriteError(r.Context(), w, httpx.NewError("customer_exists", "customer already registered", http.StatusConflict))
	case errors.Is(err, services.ErrCustomerNotFound):
		httpx.WriteError(r.Context(), w, httpx.NewError("customer_not_found", "customer not found", http.StatusNotFound))
	default:
		httpx.WriteError(r.Context(), w, httpx.NewError("customer_error", "customer operation failed", http.StatusInternalServerError))
	}
}
