package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/huertohogar/storefront/internal/platform/httpx"
	"github.com/huertohogar/storefront/internal/services"
)

// NotificationHandlers lets the client poll and dismiss session notifications.
type NotificationHandlers struct {
	feed services.NotificationFeed
}

func NewNotificationHandlers(feed services.NotificationFeed) *NotificationHandlers {
	return &NotificationHandlers{feed: feed}
}

// Routes registers notification endpoints under the provided router.
func (h *NotificationHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listNotifications)
	r.Delete("/{notificationID}", h.dismissNotification)
}

func (h *NotificationHandlers) listNotifications(w http.ResponseWriter, r *http.Request) {
	if h.feed == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("notifications_unavailable", "notification service unavailable", http.StatusServiceUnavailable))
		return
	}
	items := h.feed.Active(r.Context())
	if items == nil {
		items = []services.Notification{}
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"items": items})
}

func (h *NotificationHandlers) dismissNotification(w http.ResponseWriter, r *http.Request) {
	if h.feed == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("notifications_unavailable", "notification service unavailable", http.StatusServiceUnavailable))
		return
	}
	if !h.feed.Dismiss(r.Context(), chi.URLParam(r, "notificationID")) {
		httpx.WriteError(r.Context(), w, httpx.NewError("notification_not_found", "notification not found", http.StatusNotFound))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
