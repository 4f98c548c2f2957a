package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/huertohogar/storefront/internal/platform/format"
	"github.com/huertohogar/storefront/internal/platform/httpx"
	"github.com/huertohogar/storefront/internal/platform/requestctx"
	"github.com/huertohogar/storefront/internal/services"
)

// CheckoutHandlers quotes and places orders for the session cart.
type CheckoutHandlers struct {
	checkout     services.CheckoutService
	maxBodyBytes int64
}

// NewCheckoutHandlers wires checkout endpoints.
func NewCheckoutHandlers(checkout services.CheckoutService, maxBodyBytes int64) *CheckoutHandlers {
	return &CheckoutHandlers{checkout: checkout, maxBodyBytes: maxBodyBytes}
}

// Routes registers checkout endpoints under the provided router.
func (h *CheckoutHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/quote", h.quote)
	r.Post("/", h.placeOrder)
}

type checkoutDeliveryRequest struct {
	Method            string `json:"method"`
	Branch            string `json:"branch"`
	Street            string `json:"street"`
	City              string `json:"city"`
	Region            string `json:"region"`
	SavedAddressIndex *int   `json:"savedAddressIndex"`
}

type checkoutRequest struct {
	UsePoints   bool                    `json:"usePoints"`
	SaveAddress bool                    `json:"saveAddress"`
	Delivery    checkoutDeliveryRequest `json:"delivery"`
}

type quotePayload struct {
	services.CheckoutQuote
	FormattedFinalTotal string `json:"formattedFinalTotal"`
	Currency            string `json:"currency"`
}

func (h *CheckoutHandlers) quote(w http.ResponseWriter, r *http.Request) {
	if h.checkout == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("checkout_unavailable", "checkout service unavailable", http.StatusServiceUnavailable))
		return
	}
	customerID := requireCustomer(w, r)
	if customerID == "" {
		return
	}
	usePoints := false
	if raw := strings.TrimSpace(r.URL.Query().Get("usePoints")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "usePoints must be a boolean", http.StatusBadRequest))
			return
		}
		usePoints = parsed
	}

	quote, err := h.checkout.Quote(r.Context(), services.QuoteCommand{
		SessionID:  requestctx.SessionID(r.Context()),
		CustomerID: customerID,
		UsePoints:  usePoints,
	})
	if err != nil {
		writeCheckoutError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, quotePayload{
		CheckoutQuote:       quote,
		FormattedFinalTotal: format.Price(quote.FinalTotal),
		Currency:            format.CurrencyCode,
	})
}

func (h *CheckoutHandlers) placeOrder(w http.ResponseWriter, r *http.Request) {
	if h.checkout == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("checkout_unavailable", "checkout service unavailable", http.StatusServiceUnavailable))
		return
	}
	customerID := requireCustomer(w, r)
	if customerID == "" {
		return
	}
	var req checkoutRequest
	if err := httpx.DecodeJSON(r, h.maxBodyBytes, &req); err != nil {
		writeBodyError(w, r, err)
		return
	}

	order, err := h.checkout.Checkout(r.Context(), services.CheckoutCommand{
		SessionID:   requestctx.SessionID(r.Context()),
		CustomerID:  customerID,
		UsePoints:   req.UsePoints,
		SaveAddress: req.SaveAddress,
		Delivery: services.DeliveryRequest{
			Method:            req.Delivery.Method,
			Branch:            req.Delivery.Branch,
			Street:            req.Delivery.Street,
			City:              req.Delivery.City,
			Region:            req.Delivery.Region,
			SavedAddressIndex: req.Delivery.SavedAddressIndex,
		},
	})
	if err != nil {
		writeCheckoutError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, buildOrderPayload(order))
}
