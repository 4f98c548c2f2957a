package handlers

import (
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/huertohogar/storefront/internal/platform/httpx"
	"github.com/huertohogar/storefront/internal/services"
)

// ProductHandlers exposes catalog reads and customer reviews.
type ProductHandlers struct {
	catalog      services.ProductCatalog
	customers    services.CustomerService
	maxBodyBytes int64
}

// NewProductHandlers wires the catalog endpoints. customers may be nil, in which case reviews are rejected.
func NewProductHandlers(catalog services.ProductCatalog, customers services.CustomerService, maxBodyBytes int64) *ProductHandlers {
	return &ProductHandlers{
		catalog:      catalog,
		customers:    customers,
		maxBodyBytes: maxBodyBytes,
	}
}

// Routes registers catalog endpoints under the provided router.
func (h *ProductHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listProducts)
	r.Get("/{productID}", h.getProduct)
	r.Post("/{productID}/reviews", h.addReview)
}

func (h *ProductHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("catalog_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	products := h.catalog.ListAll(r.Context())
	items := make([]productPayload, 0, len(products))
	for _, product := range products {
		if category != "" && !strings.EqualFold(product.Category, category) {
			continue
		}
		items = append(items, buildProductPayload(product))
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	writeJSONResponse(w, http.StatusOK, map[string]any{"items": items})
}

func (h *ProductHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("catalog_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}
	product, ok := h.catalog.FindByID(r.Context(), chi.URLParam(r, "productID"))
	if !ok {
		writeCatalogError(w, r, services.ErrCatalogProductNotFound)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildProductPayload(product))
}

type addReviewRequest struct {
	Rating int    `json:"rating"`
	Text   string `json:"text"`
}

func (h *ProductHandlers) addReview(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil || h.customers == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("catalog_unavailable", "review service unavailable", http.StatusServiceUnavailable))
		return
	}
	customerID := requireCustomer(w, r)
	if customerID == "" {
		return
	}
	var req addReviewRequest
	if err := httpx.DecodeJSON(r, h.maxBodyBytes, &req); err != nil {
		writeBodyError(w, r, err)
		return
	}
	customer, err := h.customers.Get(r.Context(), customerID)
	if err != nil {
		writeCustomerError(w, r, err)
		return
	}
	author := strings.TrimSpace(strings.Join([]string{customer.Name, customer.LastName}, " "))
	product, err := h.catalog.AddReview(r.Context(), services.AddReviewCommand{
		ProductID: chi.URLParam(r, "productID"),
		Author:    author,
		Rating:    req.Rating,
		Text:      req.Text,
	})
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, buildProductPayload(product))
}
