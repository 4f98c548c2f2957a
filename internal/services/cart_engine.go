package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/huertohogar/storefront/internal/domain"
	"github.com/huertohogar/storefront/internal/platform/requestctx"
	"github.com/huertohogar/storefront/internal/repositories"
)

var (
	// ErrCartInvalidQuantity signals a non-positive quantity.
	ErrCartInvalidQuantity = errors.New("cart: invalid quantity")
	// ErrCartInsufficientStock signals the catalog refused the reservation.
	ErrCartInsufficientStock = errors.New("cart: insufficient stock")
	// ErrCartInvalidInput signals malformed arguments such as an unsupported quantity step.
	ErrCartInvalidInput = errors.New("cart: invalid input")
)

const (
	msgCartInvalidQuantity = "La cantidad debe ser mayor a 0."
	msgCartUpdateFailed    = "No se pudo actualizar el carrito."
)

// CartEngineDeps bundles the collaborators required to construct a cart engine.
type CartEngineDeps struct {
	SessionID string
	Catalog   ProductCatalog
	Store     repositories.CartSnapshotStore
	Notifier  Notifier
	Clock     func() time.Time
	Logger    func(ctx context.Context, event string, fields map[string]any)
}

type cartEngine struct {
	sessionID string
	catalog   ProductCatalog
	store     repositories.CartSnapshotStore
	notifier  Notifier
	clock     func() time.Time
	logger    func(context.Context, string, map[string]any)

	mu    sync.Mutex
	lines []CartLine
}

// NewCartEngine constructs an empty engine for one session. Call LoadInitialState before use.
func NewCartEngine(deps CartEngineDeps) (CartEngine, error) {
	if strings.TrimSpace(deps.SessionID) == "" {
		return nil, errors.New("cart engine: session id is required")
	}
	if deps.Catalog == nil {
		return nil, errors.New("cart engine: catalog is required")
	}
	if deps.Store == nil {
		return nil, errors.New("cart engine: snapshot store is required")
	}
	if deps.Notifier == nil {
		return nil, errors.New("cart engine: notifier is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &cartEngine{
		sessionID: strings.TrimSpace(deps.SessionID),
		catalog:   deps.Catalog,
		store:     deps.Store,
		notifier:  deps.Notifier,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

// LoadInitialState restores the persisted snapshot. A missing or malformed snapshot yields an empty cart.
func (e *cartEngine) LoadInitialState(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	snapshot, err := e.store.Load(ctx, e.sessionID)
	switch {
	case err == nil:
	case repositories.IsNotFound(err):
		e.lines = nil
		return nil
	default:
		e.logger(ctx, "cart.snapshot.ignored", map[string]any{"sessionId": e.sessionID, "error": err.Error()})
		e.lines = nil
		return nil
	}

	if problem := validateSnapshot(snapshot); problem != "" {
		e.logger(ctx, "cart.snapshot.ignored", map[string]any{"sessionId": e.sessionID, "reason": problem})
		e.lines = nil
		return nil
	}
	e.lines = cloneLines(snapshot.Lines)
	return nil
}

func (e *cartEngine) CheckAvailability(ctx context.Context, product Product, desired int) bool {
	e.mu.Lock()
	current := e.quantityLocked(product.ID)
	e.mu.Unlock()

	net := desired - current
	if net <= 0 {
		return true
	}
	live, ok := e.catalog.FindByID(ctx, product.ID)
	if !ok {
		live = product
	}
	if net > live.Stock {
		e.notify(ctx, fmt.Sprintf("Stock insuficiente. Solo quedan %d unidades de %s.", live.Stock, live.Name), domain.SeverityError)
		return false
	}
	return true
}

func (e *cartEngine) AddToCart(ctx context.Context, product Product, qty int) (err error) {
	ctx, span := startSpan(ctx, "cart.AddToCart",
		attribute.String("product.id", product.ID),
		attribute.Int("quantity", qty))
	defer func() { endSpan(span, err) }()

	if qty <= 0 {
		e.notify(ctx, msgCartInvalidQuantity, domain.SeverityError)
		return fmt.Errorf("%w: %d", ErrCartInvalidQuantity, qty)
	}
	if strings.TrimSpace(product.ID) == "" {
		return fmt.Errorf("%w: product id is required", ErrCartInvalidInput)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	reserved, err := e.catalog.ReserveStock(ctx, product.ID, qty)
	if err != nil {
		e.notify(ctx, msgCartUpdateFailed, domain.SeverityError)
		return fmt.Errorf("cart: reserve %s: %w", product.ID, err)
	}
	if !reserved {
		e.notify(ctx, fmt.Sprintf("No hay stock suficiente de %s.", product.Name), domain.SeverityError)
		return fmt.Errorf("%w: %s", ErrCartInsufficientStock, product.ID)
	}

	previous := cloneLines(e.lines)
	// The merged line takes the latest resolved price for every unit it holds.
	e.upsertLocked(product, qty)

	if err := e.persistLocked(ctx); err != nil {
		e.lines = previous
		e.compensate(ctx, product.ID, -qty)
		e.notify(ctx, msgCartUpdateFailed, domain.SeverityError)
		return fmt.Errorf("cart: persist: %w", err)
	}

	e.logger(ctx, "cart.item.added", map[string]any{"sessionId": e.sessionID, "productId": product.ID, "quantity": qty})
	e.notify(ctx, fmt.Sprintf("%s (x%d) agregado al carrito.", product.Name, qty), domain.SeveritySuccess)
	return nil
}

func (e *cartEngine) ChangeQuantity(ctx context.Context, productID string, delta int) (err error) {
	ctx, span := startSpan(ctx, "cart.ChangeQuantity",
		attribute.String("product.id", productID),
		attribute.Int("delta", delta))
	defer func() { endSpan(span, err) }()

	if delta != 1 && delta != -1 {
		return fmt.Errorf("%w: quantity step must be +1 or -1, got %d", ErrCartInvalidInput, delta)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.indexLocked(productID)
	if idx < 0 {
		return nil
	}
	line := e.lines[idx]
	previous := cloneLines(e.lines)

	if delta > 0 {
		reserved, err := e.catalog.ReserveStock(ctx, line.ProductID, 1)
		if err != nil {
			e.notify(ctx, msgCartUpdateFailed, domain.SeverityError)
			return fmt.Errorf("cart: reserve %s: %w", line.ProductID, err)
		}
		if !reserved {
			e.notify(ctx, fmt.Sprintf("No hay más stock de %s.", line.Name), domain.SeverityError)
			return fmt.Errorf("%w: %s", ErrCartInsufficientStock, line.ProductID)
		}
		e.lines[idx].Quantity++
	} else {
		if err := e.catalog.ReleaseStock(ctx, line.ProductID, 1); err != nil {
			e.notify(ctx, msgCartUpdateFailed, domain.SeverityError)
			return fmt.Errorf("cart: release %s: %w", line.ProductID, err)
		}
		if line.Quantity <= 1 {
			e.lines = append(e.lines[:idx:idx], e.lines[idx+1:]...)
		} else {
			e.lines[idx].Quantity--
		}
	}

	if err := e.persistLocked(ctx); err != nil {
		e.lines = previous
		e.compensate(ctx, line.ProductID, -delta)
		e.notify(ctx, msgCartUpdateFailed, domain.SeverityError)
		return fmt.Errorf("cart: persist: %w", err)
	}
	return nil
}

func (e *cartEngine) SetQuantity(ctx context.Context, product Product, desired int) (err error) {
	ctx, span := startSpan(ctx, "cart.SetQuantity",
		attribute.String("product.id", product.ID),
		attribute.Int("quantity", desired))
	defer func() { endSpan(span, err) }()

	if desired < 0 {
		e.notify(ctx, msgCartInvalidQuantity, domain.SeverityError)
		return fmt.Errorf("%w: %d", ErrCartInvalidQuantity, desired)
	}
	if strings.TrimSpace(product.ID) == "" {
		return fmt.Errorf("%w: product id is required", ErrCartInvalidInput)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	current := e.quantityLocked(product.ID)
	net := desired - current
	if net == 0 {
		return nil
	}

	previous := cloneLines(e.lines)
	if net > 0 {
		reserved, err := e.catalog.ReserveStock(ctx, product.ID, net)
		if err != nil {
			e.notify(ctx, msgCartUpdateFailed, domain.SeverityError)
			return fmt.Errorf("cart: reserve %s: %w", product.ID, err)
		}
		if !reserved {
			stock := 0
			if live, ok := e.catalog.FindByID(ctx, product.ID); ok {
				stock = live.Stock
			}
			e.notify(ctx, fmt.Sprintf("Stock insuficiente. Solo quedan %d unidades de %s.", stock, product.Name), domain.SeverityError)
			return fmt.Errorf("%w: %s", ErrCartInsufficientStock, product.ID)
		}
		e.upsertLocked(product, net)
	} else {
		if err := e.catalog.ReleaseStock(ctx, product.ID, -net); err != nil {
			e.notify(ctx, msgCartUpdateFailed, domain.SeverityError)
			return fmt.Errorf("cart: release %s: %w", product.ID, err)
		}
		idx := e.indexLocked(product.ID)
		if desired == 0 {
			e.lines = append(e.lines[:idx:idx], e.lines[idx+1:]...)
		} else {
			e.lines[idx].Quantity = desired
		}
	}

	if err := e.persistLocked(ctx); err != nil {
		e.lines = previous
		e.compensate(ctx, product.ID, -net)
		e.notify(ctx, msgCartUpdateFailed, domain.SeverityError)
		return fmt.Errorf("cart: persist: %w", err)
	}
	e.logger(ctx, "cart.item.quantity_set", map[string]any{"sessionId": e.sessionID, "productId": product.ID, "quantity": desired})
	return nil
}

// ClearCart returns the stock of every line, then empties the cart. A failed release does not stop the others.
func (e *cartEngine) ClearCart(ctx context.Context) (err error) {
	ctx, span := startSpan(ctx, "cart.ClearCart")
	defer func() { endSpan(span, err) }()

	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.lines) == 0 {
		return nil
	}

	var errs []error
	for _, line := range e.lines {
		if relErr := e.catalog.ReleaseStock(ctx, line.ProductID, line.Quantity); relErr != nil {
			e.logger(ctx, "cart.clear.release_failed", map[string]any{"sessionId": e.sessionID, "productId": line.ProductID, "quantity": line.Quantity, "error": relErr})
			errs = append(errs, fmt.Errorf("release %s: %w", line.ProductID, relErr))
		}
	}
	e.lines = nil
	if persistErr := e.persistLocked(ctx); persistErr != nil {
		errs = append(errs, fmt.Errorf("persist: %w", persistErr))
	}
	if len(errs) > 0 {
		e.notify(ctx, msgCartUpdateFailed, domain.SeverityError)
		return fmt.Errorf("cart: clear: %w", errors.Join(errs...))
	}
	e.logger(ctx, "cart.cleared", map[string]any{"sessionId": e.sessionID})
	return nil
}

func (e *cartEngine) Settle(ctx context.Context, commit func(ctx context.Context, lines []CartLine) error) (settled []CartLine, err error) {
	ctx, span := startSpan(ctx, "cart.Settle")
	defer func() { endSpan(span, err) }()

	e.mu.Lock()
	defer e.mu.Unlock()

	settled = cloneLines(e.lines)
	if commit != nil {
		if err := commit(ctx, cloneLines(settled)); err != nil {
			return nil, err
		}
	}
	if len(settled) == 0 {
		return nil, nil
	}
	e.lines = nil
	e.discardSnapshotLocked(ctx)
	e.logger(ctx, "cart.settled", map[string]any{"sessionId": e.sessionID, "lines": len(settled)})
	return settled, nil
}

// discardSnapshotLocked removes the persisted cart after a settle. When the delete fails an empty
// snapshot is written instead so a restart cannot bring sold lines back.
func (e *cartEngine) discardSnapshotLocked(ctx context.Context) {
	err := e.store.Delete(ctx, e.sessionID)
	if err == nil || repositories.IsNotFound(err) {
		return
	}
	e.logger(ctx, "cart.snapshot.delete_failed", map[string]any{"sessionId": e.sessionID, "error": err})
	if err := e.persistLocked(ctx); err != nil {
		e.logger(ctx, "cart.snapshot.reset_failed", map[string]any{"sessionId": e.sessionID, "error": err})
	}
}

func (e *cartEngine) Lines() []CartLine {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneLines(e.lines)
}

func (e *cartEngine) ItemCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	count := 0
	for _, line := range e.lines {
		count += line.Quantity
	}
	return count
}

func (e *cartEngine) Total() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return linesTotal(e.lines)
}

func (e *cartEngine) Quantity(productID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.quantityLocked(productID)
}

func (e *cartEngine) upsertLocked(product Product, qty int) {
	price := product.UnitPrice()
	if idx := e.indexLocked(product.ID); idx >= 0 {
		e.lines[idx].Quantity += qty
		e.lines[idx].Price = price
		return
	}
	e.lines = append(e.lines, CartLine{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     price,
		Quantity:  qty,
		Unit:      product.Unit,
	})
}

func (e *cartEngine) indexLocked(productID string) int {
	productID = strings.TrimSpace(productID)
	for i, line := range e.lines {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}

func (e *cartEngine) quantityLocked(productID string) int {
	if idx := e.indexLocked(productID); idx >= 0 {
		return e.lines[idx].Quantity
	}
	return 0
}

func (e *cartEngine) persistLocked(ctx context.Context) error {
	return e.store.Save(ctx, CartSnapshot{
		SessionID: e.sessionID,
		Lines:     cloneLines(e.lines),
		UpdatedAt: e.clock(),
	})
}

// compensate reverses a stock move of stockDelta units after the cart could not be persisted.
func (e *cartEngine) compensate(ctx context.Context, productID string, stockDelta int) {
	var err error
	switch {
	case stockDelta < 0:
		err = e.catalog.ReleaseStock(ctx, productID, -stockDelta)
	case stockDelta > 0:
		var reserved bool
		reserved, err = e.catalog.ReserveStock(ctx, productID, stockDelta)
		if err == nil && !reserved {
			err = ErrCartInsufficientStock
		}
	}
	if err != nil {
		e.logger(ctx, "cart.compensation.failed", map[string]any{"sessionId": e.sessionID, "productId": productID, "stockDelta": stockDelta, "error": err})
	}
}

func (e *cartEngine) notify(ctx context.Context, message string, severity Severity) {
	if requestctx.SessionID(ctx) != e.sessionID {
		ctx = requestctx.WithSessionID(ctx, e.sessionID)
	}
	e.notifier.Notify(ctx, message, severity)
}

func validateSnapshot(snapshot CartSnapshot) string {
	seen := make(map[string]struct{}, len(snapshot.Lines))
	for _, line := range snapshot.Lines {
		if strings.TrimSpace(line.ProductID) == "" {
			return "line without product id"
		}
		if line.Quantity <= 0 {
			return "non-positive quantity"
		}
		if line.Price < 0 {
			return "negative price"
		}
		if _, dup := seen[line.ProductID]; dup {
			return "duplicate product line"
		}
		seen[line.ProductID] = struct{}{}
	}
	return ""
}

func linesTotal(lines []CartLine) int64 {
	var total int64
	for _, line := range lines {
		total += line.Subtotal()
	}
	return total
}

func cloneLines(lines []CartLine) []CartLine {
	if len(lines) == 0 {
		return nil
	}
	return append([]CartLine(nil), lines...)
}
