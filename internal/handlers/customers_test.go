package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huertohogar/storefront/internal/domain"
)

func TestCustomerHandlersRegister(t *testing.T) {
	h := newHarness(t)

	rr := h.do(t, call{method: http.MethodPost, path: "/api/v1/customers", session: testSession, body: map[string]any{
		"rut":   "12.345.678-5",
		"name":  "Ana",
		"email": "Ana@Duoc.cl",
		"address": map[string]any{
			"street": "Los Aromos 12",
			"city":   "Talca",
			"region": "Maule",
		},
	}})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	customer := decodeBody[domain.Customer](t, rr)
	assert.NotEmpty(t, customer.ID)
	assert.Equal(t, "ana@duoc.cl", customer.Email)
	assert.Zero(t, customer.Points)
	require.Len(t, customer.Addresses, 1)

	rr = h.do(t, call{method: http.MethodGet, path: "/api/v1/customers/me", customer: customer.ID})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, customer.ID, decodeBody[domain.Customer](t, rr).ID)

	rr = h.do(t, call{method: http.MethodPost, path: "/api/v1/customers", session: testSession, body: map[string]any{
		"rut":   "12345678-5",
		"name":  "Otra",
		"email": "otra@gmail.com",
	}})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = h.do(t, call{method: http.MethodGet, path: "/api/v1/notifications", session: testSession})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "¡Registro exitoso! Ahora puedes iniciar sesión.")
}

func TestCustomerHandlersRegisterValidation(t *testing.T) {
	h := newHarness(t)

	rr := h.do(t, call{method: http.MethodPost, path: "/api/v1/customers", session: testSession, body: map[string]any{
		"rut":   "12345678-9",
		"name":  "Ana",
		"email": "ana@gmail.com",
	}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = h.do(t, call{method: http.MethodPost, path: "/api/v1/customers", session: testSession, body: map[string]any{
		"rut":   "12345678-5",
		"name":  "Ana",
		"email": "ana@yahoo.com",
	}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = h.do(t, call{method: http.MethodGet, path: "/api/v1/customers/me"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = h.do(t, call{method: http.MethodGet, path: "/api/v1/customers/me", customer: "ghost"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
