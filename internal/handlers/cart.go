package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/huertohogar/storefront/internal/platform/httpx"
	"github.com/huertohogar/storefront/internal/platform/requestctx"
	"github.com/huertohogar/storefront/internal/services"
)

// CartHandlers exposes the session cart.
type CartHandlers struct {
	sessions     services.CartSessions
	catalog      services.ProductCatalog
	maxBodyBytes int64
}

// NewCartHandlers wires cart endpoints backed by per-session engines.
func NewCartHandlers(sessions services.CartSessions, catalog services.ProductCatalog, maxBodyBytes int64) *CartHandlers {
	return &CartHandlers{
		sessions:     sessions,
		catalog:      catalog,
		maxBodyBytes: maxBodyBytes,
	}
}

// Routes registers cart endpoints under the provided router.
func (h *CartHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.getCart)
	r.Delete("/", h.clearCart)
	r.Post("/items", h.addItem)
	r.Put("/items/{productID}", h.setItemQuantity)
	r.Delete("/items/{productID}", h.removeItem)
	r.Post("/items/{productID}:increment", h.incrementItem)
	r.Post("/items/{productID}:decrement", h.decrementItem)
	r.Delete("/session", h.dropSession)
}

type addCartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type setCartItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	cart, sessionID, ok := h.cart(w, r)
	if !ok {
		return
	}
	defer h.sessions.Release(r.Context(), sessionID)
	writeJSONResponse(w, http.StatusOK, buildCartPayload(sessionID, cart))
}

func (h *CartHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	var req addCartItemRequest
	if err := httpx.DecodeJSON(r, h.maxBodyBytes, &req); err != nil {
		writeBodyError(w, r, err)
		return
	}
	product, ok := h.product(w, r, req.ProductID)
	if !ok {
		return
	}
	cart, sessionID, ok := h.cart(w, r)
	if !ok {
		return
	}
	defer h.sessions.Release(r.Context(), sessionID)

	ctx := r.Context()
	if req.Quantity > 0 && !cart.CheckAvailability(ctx, product, cart.Quantity(product.ID)+req.Quantity) {
		httpx.WriteError(ctx, w, httpx.NewError("insufficient_stock", services.ErrCartInsufficientStock.Error(), http.StatusConflict).
			WithDetails(map[string]any{"productId": product.ID, "available": product.Stock}))
		return
	}
	if err := cart.AddToCart(ctx, product, req.Quantity); err != nil {
		writeCartError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildCartPayload(sessionID, cart))
}

func (h *CartHandlers) setItemQuantity(w http.ResponseWriter, r *http.Request) {
	var req setCartItemRequest
	if err := httpx.DecodeJSON(r, h.maxBodyBytes, &req); err != nil {
		writeBodyError(w, r, err)
		return
	}
	h.setQuantity(w, r, req.Quantity)
}

func (h *CartHandlers) removeItem(w http.ResponseWriter, r *http.Request) {
	h.setQuantity(w, r, 0)
}

func (h *CartHandlers) setQuantity(w http.ResponseWriter, r *http.Request, quantity int) {
	product, ok := h.product(w, r, chi.URLParam(r, "productID"))
	if !ok {
		return
	}
	cart, sessionID, ok := h.cart(w, r)
	if !ok {
		return
	}
	defer h.sessions.Release(r.Context(), sessionID)
	if err := cart.SetQuantity(r.Context(), product, quantity); err != nil {
		writeCartError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildCartPayload(sessionID, cart))
}

func (h *CartHandlers) incrementItem(w http.ResponseWriter, r *http.Request) {
	h.changeQuantity(w, r, 1)
}

func (h *CartHandlers) decrementItem(w http.ResponseWriter, r *http.Request) {
	h.changeQuantity(w, r, -1)
}

func (h *CartHandlers) changeQuantity(w http.ResponseWriter, r *http.Request, delta int) {
	cart, sessionID, ok := h.cart(w, r)
	if !ok {
		return
	}
	defer h.sessions.Release(r.Context(), sessionID)
	if err := cart.ChangeQuantity(r.Context(), chi.URLParam(r, "productID"), delta); err != nil {
		writeCartError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildCartPayload(sessionID, cart))
}

func (h *CartHandlers) clearCart(w http.ResponseWriter, r *http.Request) {
	cart, sessionID, ok := h.cart(w, r)
	if !ok {
		return
	}
	defer h.sessions.Release(r.Context(), sessionID)
	if err := cart.ClearCart(r.Context()); err != nil {
		writeCartError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildCartPayload(sessionID, cart))
}

// dropSession ends the session: reserved stock is returned and the engine is forgotten.
func (h *CartHandlers) dropSession(w http.ResponseWriter, r *http.Request) {
	if h.sessions == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("cart_unavailable", "cart service unavailable", http.StatusServiceUnavailable))
		return
	}
	if err := h.sessions.Drop(r.Context(), requestctx.SessionID(r.Context())); err != nil {
		writeCartError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// cart resolves the session engine. Callers release it with h.sessions.Release once the response is built.
func (h *CartHandlers) cart(w http.ResponseWriter, r *http.Request) (services.CartEngine, string, bool) {
	if h.sessions == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("cart_unavailable", "cart service unavailable", http.StatusServiceUnavailable))
		return nil, "", false
	}
	sessionID := strings.TrimSpace(requestctx.SessionID(r.Context()))
	if sessionID == "" {
		httpx.WriteError(r.Context(), w, httpx.NewError("missing_session", "cart session is required", http.StatusBadRequest))
		return nil, "", false
	}
	cart, err := h.sessions.Get(r.Context(), sessionID)
	if err != nil {
		writeCartError(w, r, err)
		return nil, "", false
	}
	return cart, sessionID, true
}

func (h *CartHandlers) product(w http.ResponseWriter, r *http.Request, productID string) (services.Product, bool) {
	if h.catalog == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("catalog_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return services.Product{}, false
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "productId is required", http.StatusBadRequest))
		return services.Product{}, false
	}
	product, ok := h.catalog.FindByID(r.Context(), productID)
	if !ok {
		writeCatalogError(w, r, services.ErrCatalogProductNotFound)
		return services.Product{}, false
	}
	return product, true
}
