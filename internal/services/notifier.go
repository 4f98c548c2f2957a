package services

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/huertohogar/storefront/internal/platform/requestctx"
)

const defaultNotificationTTL = 3 * time.Second

// NotificationCenterDeps bundles the collaborators required to construct a notification center.
type NotificationCenterDeps struct {
	TTL         time.Duration
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

// NotificationCenter keeps auto-expiring notifications per session. There is no queue limit.
type NotificationCenter struct {
	mu        sync.Mutex
	bySession map[string][]Notification
	ttl       time.Duration
	clock     func() time.Time
	newID     func() string
	logger    func(context.Context, string, map[string]any)
}

var _ NotificationFeed = (*NotificationCenter)(nil)

// NewNotificationCenter constructs a notification center with a 3 second default lifetime.
func NewNotificationCenter(deps NotificationCenterDeps) *NotificationCenter {
	ttl := deps.TTL
	if ttl <= 0 {
		ttl = defaultNotificationTTL
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &NotificationCenter{
		bySession: make(map[string][]Notification),
		ttl:       ttl,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		logger: logger,
	}
}

// Notify appends a notification for the session in ctx.
func (c *NotificationCenter) Notify(ctx context.Context, message string, severity Severity) {
	now := c.clock()
	session := requestctx.SessionID(ctx)
	notification := Notification{
		ID:        c.newID(),
		Message:   message,
		Severity:  severity,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}

	c.mu.Lock()
	c.bySession[session] = append(c.bySession[session], notification)
	c.mu.Unlock()

	c.logger(ctx, "notification.sent", map[string]any{
		"notificationId": notification.ID,
		"severity":       string(severity),
		"message":        message,
	})
}

// Active returns the unexpired notifications of the session in ctx in insertion order.
func (c *NotificationCenter) Active(ctx context.Context) []Notification {
	now := c.clock()
	session := requestctx.SessionID(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	pending := c.bySession[session]
	kept := pending[:0]
	for _, n := range pending {
		if now.Before(n.ExpiresAt) {
			kept = append(kept, n)
		}
	}
	if len(kept) == 0 {
		delete(c.bySession, session)
		return []Notification{}
	}
	c.bySession[session] = kept
	return append([]Notification(nil), kept...)
}

// Dismiss removes a notification before it expires.
func (c *NotificationCenter) Dismiss(ctx context.Context, notificationID string) bool {
	session := requestctx.SessionID(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	pending := c.bySession[session]
	for i, n := range pending {
		if n.ID == notificationID {
			c.bySession[session] = append(pending[:i:i], pending[i+1:]...)
			return true
		}
	}
	return false
}
