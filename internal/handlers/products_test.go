package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductHandlersListAndGet(t *testing.T) {
	h := newHarness(t)

	rr := h.do(t, call{method: http.MethodGet, path: "/api/v1/products"})
	require.Equal(t, http.StatusOK, rr.Code)
	list := decodeBody[struct {
		Items []productPayload `json:"items"`
	}](t, rr)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "P1", list.Items[0].ID)

	rr = h.do(t, call{method: http.MethodGet, path: "/api/v1/products?category=ORGANICOS"})
	require.Equal(t, http.StatusOK, rr.Code)
	list = decodeBody[struct {
		Items []productPayload `json:"items"`
	}](t, rr)
	require.Len(t, list.Items, 1)
	miel := list.Items[0]
	assert.Equal(t, "Miel", miel.Name)
	assert.Equal(t, int64(4000), miel.UnitPrice)
	assert.Equal(t, "$4.000", miel.FormattedPrice)
	assert.True(t, miel.InStock)

	rr = h.do(t, call{method: http.MethodGet, path: "/api/v1/products/ghost"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestProductHandlersAddReview(t *testing.T) {
	h := newHarness(t)
	customer := h.registerCustomer(t)

	rr := h.do(t, call{method: http.MethodPost, path: "/api/v1/products/P1/reviews", body: map[string]any{"rating": 5, "text": "Muy fresca"}})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = h.do(t, call{method: http.MethodPost, path: "/api/v1/products/P1/reviews", session: testSession, customer: customer.ID, body: map[string]any{"rating": 5, "text": "<b>Muy</b> fresca"}})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	product := decodeBody[productPayload](t, rr)
	require.Len(t, product.Reviews, 1)
	assert.Equal(t, "Ana", product.Reviews[0].Author)
	assert.Equal(t, "Muy fresca", product.Reviews[0].Text)
	assert.InDelta(t, 5.0, product.AverageRating, 0.001)

	rr = h.do(t, call{method: http.MethodPost, path: "/api/v1/products/P1/reviews", session: testSession, customer: customer.ID, body: map[string]any{"rating": 6, "text": "demasiado"}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = h.do(t, call{method: http.MethodPost, path: "/api/v1/products/ghost/reviews", session: testSession, customer: customer.ID, body: map[string]any{"rating": 4, "text": "ok"}})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
