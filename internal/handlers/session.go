package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/huertohogar/storefront/internal/platform/observability"
	"github.com/huertohogar/storefront/internal/platform/requestctx"
)

const (
	defaultSessionHeader  = "X-Session-ID"
	defaultCustomerHeader = "X-Customer-ID"
)

// SessionMiddleware resolves the cart session and the calling customer from request headers.
// A missing or malformed session id is replaced by a fresh UUID, echoed back on the response.
func SessionMiddleware(sessionHeader, customerHeader string) func(http.Handler) http.Handler {
	if strings.TrimSpace(sessionHeader) == "" {
		sessionHeader = defaultSessionHeader
	}
	if strings.TrimSpace(customerHeader) == "" {
		customerHeader = defaultCustomerHeader
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := strings.TrimSpace(r.Header.Get(sessionHeader))
			if _, err := uuid.Parse(sessionID); err != nil {
				sessionID = uuid.NewString()
			}
			w.Header().Set(sessionHeader, sessionID)

			ctx := requestctx.WithSessionID(r.Context(), sessionID)
			fields := []zap.Field{zap.String("sessionId", sessionID)}
			if customerID := strings.TrimSpace(r.Header.Get(customerHeader)); customerID != "" {
				ctx = requestctx.WithCustomerID(ctx, customerID)
				fields = append(fields, zap.String("customerId", observability.SanitizeIdentifier(customerID)))
			}
			logger := observability.WithRequestFields(requestctx.Logger(ctx), fields...)
			ctx = requestctx.WithLogger(ctx, logger)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
