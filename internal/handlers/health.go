package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/huertohogar/storefront/internal/platform/httpx"
)

const defaultReadinessTimeout = 3 * time.Second

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// HealthHandlers serves liveness and readiness probes.
type HealthHandlers struct {
	clock     func() time.Time
	startedAt time.Time
	version   string
	checks    map[string]ReadinessCheck
	timeout   time.Duration
}

// HealthOption customises HealthHandlers.
type HealthOption func(*HealthHandlers)

// NewHealthHandlers constructs probe handlers.
func NewHealthHandlers(opts ...HealthOption) *HealthHandlers {
	h := &HealthHandlers{
		clock:   time.Now,
		checks:  make(map[string]ReadinessCheck),
		timeout: defaultReadinessTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	if h.startedAt.IsZero() {
		h.startedAt = h.clock()
	}
	return h
}

// WithHealthClock overrides the clock used for uptime and timestamps.
func WithHealthClock(clock func() time.Time) HealthOption {
	return func(h *HealthHandlers) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// WithHealthStartedAt pins the process start time.
func WithHealthStartedAt(started time.Time) HealthOption {
	return func(h *HealthHandlers) {
		h.startedAt = started
	}
}

// WithHealthVersion reports the running build.
func WithHealthVersion(version string) HealthOption {
	return func(h *HealthHandlers) {
		h.version = version
	}
}

// WithReadinessCheck registers a named dependency check evaluated by /readyz.
func WithReadinessCheck(name string, check ReadinessCheck) HealthOption {
	return func(h *HealthHandlers) {
		if name != "" && check != nil {
			h.checks[name] = check
		}
	}
}

// Healthz reports process liveness.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	now := h.clock().UTC()
	payload := map[string]any{
		"status":    "ok",
		"uptime":    now.Sub(h.startedAt).Round(time.Second).String(),
		"timestamp": now.Format(time.RFC3339),
	}
	if h.version != "" {
		payload["version"] = h.version
	}
	httpx.WriteJSON(w, http.StatusOK, payload)
}

// Readyz runs every registered check and fails when any of them errors.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "ok"
	code := http.StatusOK
	results := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			results[name] = err.Error()
			status = "error"
			code = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	httpx.WriteJSON(w, code, map[string]any{
		"status":    status,
		"checks":    results,
		"timestamp": h.clock().UTC().Format(time.RFC3339),
	})
}
