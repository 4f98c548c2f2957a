package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/huertohogar/storefront/internal/platform/httpx"
	"github.com/huertohogar/storefront/internal/services"
)

// AdminHandlers exposes order status management and pricing edits to administrators.
type AdminHandlers struct {
	orders       services.OrderService
	catalog      services.ProductCatalog
	customers    services.CustomerService
	maxBodyBytes int64
}

// NewAdminHandlers wires admin endpoints. Every route requires a customer flagged as admin.
func NewAdminHandlers(orders services.OrderService, catalog services.ProductCatalog, customers services.CustomerService, maxBodyBytes int64) *AdminHandlers {
	return &AdminHandlers{
		orders:       orders,
		catalog:      catalog,
		customers:    customers,
		maxBodyBytes: maxBodyBytes,
	}
}

// Routes registers admin endpoints under the provided router.
func (h *AdminHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Use(h.requireAdmin)
	r.Get("/orders", h.listOrders)
	r.Get("/reports", h.reports)
	r.Patch("/orders/{orderID}", h.updateOrderStatus)
	r.Patch("/products/{productID}", h.updateProduct)
}

func (h *AdminHandlers) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.customers == nil {
			httpx.WriteError(r.Context(), w, httpx.NewError("admin_unavailable", "admin service unavailable", http.StatusServiceUnavailable))
			return
		}
		customerID := requireCustomer(w, r)
		if customerID == "" {
			return
		}
		customer, err := h.customers.Get(r.Context(), customerID)
		if err != nil || !customer.IsAdmin {
			httpx.WriteError(r.Context(), w, httpx.NewError("forbidden", "administrator access required", http.StatusForbidden))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *AdminHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	if h.orders == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("orders_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}
	orders, err := h.orders.ListAll(r.Context())
	if err != nil {
		writeOrderError(w, r, err)
		return
	}
	status := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status")))
	if status != "" {
		filtered := make([]services.Order, 0, len(orders))
		for _, order := range orders {
			if string(order.Status) == status {
				filtered = append(filtered, order)
			}
		}
		orders = filtered
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"items": buildOrderPayloads(orders)})
}

func (h *AdminHandlers) reports(w http.ResponseWriter, r *http.Request) {
	if h.orders == nil || h.catalog == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("reports_unavailable", "report services unavailable", http.StatusServiceUnavailable))
		return
	}
	sales, err := h.orders.SalesReport(r.Context())
	if err != nil {
		writeOrderError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildReportPayload(sales, h.catalog.InventoryReport(r.Context())))
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

func (h *AdminHandlers) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	if h.orders == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("orders_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}
	var req updateOrderStatusRequest
	if err := httpx.DecodeJSON(r, h.maxBodyBytes, &req); err != nil {
		writeBodyError(w, r, err)
		return
	}
	order, err := h.orders.UpdateStatus(r.Context(), services.UpdateOrderStatusCommand{
		OrderID: chi.URLParam(r, "orderID"),
		Status:  req.Status,
	})
	if err != nil {
		writeOrderError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildOrderPayload(order))
}

type updateProductRequest struct {
	Price         *int64 `json:"price"`
	DiscountPrice *int64 `json:"discountPrice"`
	ClearDiscount bool   `json:"clearDiscount"`
	CriticalStock *int   `json:"criticalStock"`
}

func (h *AdminHandlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("catalog_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}
	var req updateProductRequest
	if err := httpx.DecodeJSON(r, h.maxBodyBytes, &req); err != nil {
		writeBodyError(w, r, err)
		return
	}
	product, err := h.catalog.UpdateProduct(r.Context(), services.UpdateProductCommand{
		ProductID:     chi.URLParam(r, "productID"),
		Price:         req.Price,
		DiscountPrice: req.DiscountPrice,
		ClearDiscount: req.ClearDiscount,
		CriticalStock: req.CriticalStock,
	})
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildProductPayload(product))
}
