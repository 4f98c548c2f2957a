package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/huertohogar/storefront/internal/platform/httpx"
	"github.com/huertohogar/storefront/internal/services"
)

// CustomerHandlers registers customers and returns the caller's profile.
type CustomerHandlers struct {
	customers    services.CustomerService
	maxBodyBytes int64
}

func NewCustomerHandlers(customers services.CustomerService, maxBodyBytes int64) *CustomerHandlers {
	return &CustomerHandlers{customers: customers, maxBodyBytes: maxBodyBytes}
}

// Routes registers customer endpoints under the provided router.
func (h *CustomerHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.register)
	r.Get("/me", h.me)
}

type addressRequest struct {
	Street string `json:"street"`
	City   string `json:"city"`
	Region string `json:"region"`
}

type registerCustomerRequest struct {
	RUT      string          `json:"rut"`
	Name     string          `json:"name"`
	LastName string          `json:"lastName"`
	Email    string          `json:"email"`
	Address  *addressRequest `json:"address"`
}

func (h *CustomerHandlers) register(w http.ResponseWriter, r *http.Request) {
	if h.customers == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("customers_unavailable", "customer service unavailable", http.StatusServiceUnavailable))
		return
	}
	var req registerCustomerRequest
	if err := httpx.DecodeJSON(r, h.maxBodyBytes, &req); err != nil {
		writeBodyError(w, r, err)
		return
	}
	cmd := services.RegisterCustomerCommand{
		RUT:      req.RUT,
		Name:     req.Name,
		LastName: req.LastName,
		Email:    req.Email,
	}
	if req.Address != nil {
		cmd.Address = &services.Address{Street: req.Address.Street, City: req.Address.City, Region: req.Address.Region}
	}
	customer, err := h.customers.Register(r.Context(), cmd)
	if err != nil {
		writeCustomerError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, customer)
}

func (h *CustomerHandlers) me(w http.ResponseWriter, r *http.Request) {
	if h.customers == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("customers_unavailable", "customer service unavailable", http.StatusServiceUnavailable))
		return
	}
	customerID := requireCustomer(w, r)
	if customerID == "" {
		return
	}
	customer, err := h.customers.Get(r.Context(), customerID)
	if err != nil {
		writeCustomerError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, customer)
}
