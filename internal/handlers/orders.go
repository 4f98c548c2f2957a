package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/huertohogar/storefront/internal/platform/httpx"
	"github.com/huertohogar/storefront/internal/services"
)

// OrderHandlers exposes the calling customer's order history.
type OrderHandlers struct {
	orders services.OrderService
}

func NewOrderHandlers(orders services.OrderService) *OrderHandlers {
	return &OrderHandlers{orders: orders}
}

// Routes registers customer order endpoints under the provided router.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listOrders)
	r.Get("/{orderID}", h.getOrder)
}

func (h *OrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	if h.orders == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("orders_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}
	customerID := requireCustomer(w, r)
	if customerID == "" {
		return
	}
	orders, err := h.orders.ListByCustomer(r.Context(), customerID)
	if err != nil {
		writeOrderError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"items": buildOrderPayloads(orders)})
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	if h.orders == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("orders_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}
	customerID := requireCustomer(w, r)
	if customerID == "" {
		return
	}
	order, err := h.orders.Get(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		writeOrderError(w, r, err)
		return
	}
	// Other customers' orders are reported as missing.
	if order.CustomerID != customerID {
		writeOrderError(w, r, services.ErrOrderNotFound)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildOrderPayload(order))
}
