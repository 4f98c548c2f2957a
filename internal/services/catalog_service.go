package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/huertohogar/storefront/internal/domain"
	"github.com/huertohogar/storefront/internal/platform/observability"
	"github.com/huertohogar/storefront/internal/repositories"
)

const (
	stockReasonReserve = "reserve"
	stockReasonRelease = "release"

	maxReviewLength = 1000
)

var (
	// ErrCatalogNotLoaded indicates LoadInitialState has not completed.
	ErrCatalogNotLoaded = errors.New("catalog: not loaded")
	// ErrCatalogProductNotFound indicates the product does not exist.
	ErrCatalogProductNotFound = errors.New("catalog: product not found")
	// ErrCatalogInvalidReview indicates the review rating or text is invalid.
	ErrCatalogInvalidReview = errors.New("catalog: invalid review")
	// ErrCatalogInvalidInput indicates invalid product edits.
	ErrCatalogInvalidInput = errors.New("catalog: invalid input")
	// ErrCatalogPersistence indicates the product store rejected a write. The cached catalog is unchanged.
	ErrCatalogPersistence = errors.New("catalog: persistence failed")
)

// CatalogServiceDeps bundles the collaborators required to construct the product catalog.
type CatalogServiceDeps struct {
	Products repositories.ProductStore
	// Seed supplies the initial product list when the store is empty. Optional.
	Seed     func() ([]Product, error)
	Events   StockEventPublisher
	Metrics  *observability.StockMetrics
	Notifier Notifier
	Clock    func() time.Time
	Logger   func(ctx context.Context, event string, fields map[string]any)
}

type catalogService struct {
	store    repositories.ProductStore
	seed     func() ([]Product, error)
	events   StockEventPublisher
	metrics  *observability.StockMetrics
	notifier Notifier
	policy   *bluemonday.Policy
	clock    func() time.Time
	logger   func(context.Context, string, map[string]any)

	mu        sync.Mutex
	loaded    bool
	products  []Product
	index     map[string]int
	observers map[int]StockObserver
	nextObs   int
}

// NewCatalogService wires dependencies into a ProductCatalog.
func NewCatalogService(deps CatalogServiceDeps) (ProductCatalog, error) {
	if deps.Products == nil {
		return nil, errors.New("catalog service: product store is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &catalogService{
		store:    deps.Products,
		seed:     deps.Seed,
		events:   deps.Events,
		metrics:  deps.Metrics,
		notifier: deps.Notifier,
		policy:   bluemonday.StrictPolicy(),
		clock: func() time.Time {
			return clock().UTC()
		},
		logger:    logger,
		index:     make(map[string]int),
		observers: make(map[int]StockObserver),
	}, nil
}

func (s *catalogService) LoadInitialState(ctx context.Context) error {
	products, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("catalog: load products: %w", err)
	}
	if len(products) == 0 && s.seed != nil {
		seeded, err := s.seed()
		if err != nil {
			return fmt.Errorf("catalog: seed products: %w", err)
		}
		if len(seeded) > 0 {
			if err := s.store.Save(ctx, seeded...); err != nil {
				return fmt.Errorf("catalog: save seed: %w", err)
			}
			s.logger(ctx, "catalog.seeded", map[string]any{"count": len(seeded)})
		}
		products = seeded
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = make([]Product, 0, len(products))
	s.index = make(map[string]int, len(products))
	for _, product := range products {
		if product.Stock < 0 {
			s.logger(ctx, "catalog.stock.clamped", map[string]any{"productId": product.ID, "stock": product.Stock})
			product.Stock = 0
		}
		s.index[product.ID] = len(s.products)
		s.products = append(s.products, product.Clone())
	}
	s.loaded = true
	return nil
}

func (s *catalogService) FindByID(_ context.Context, productID string) (Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.index[strings.TrimSpace(productID)]
	if !ok {
		return Product{}, false
	}
	return s.products[idx].Clone(), true
}

func (s *catalogService) ListAll(context.Context) []Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Product, 0, len(s.products))
	for _, product := range s.products {
		out = append(out, product.Clone())
	}
	return out
}

// LowStockFloor is the stock level under which a product is reported as low even without a
// critical threshold.
const LowStockFloor = 10

func (s *catalogService) InventoryReport(context.Context) InventoryReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	var report InventoryReport
	for _, product := range s.products {
		report.TotalStock += product.Stock
		if product.BelowCritical() || product.Stock < LowStockFloor {
			report.LowStock = append(report.LowStock, product.Clone())
		}
	}
	sort.Slice(report.LowStock, func(i, j int) bool {
		a, b := report.LowStock[i], report.LowStock[j]
		if a.Stock != b.Stock {
			return a.Stock < b.Stock
		}
		return a.ID < b.ID
	})
	return report
}

func (s *catalogService) ReserveStock(ctx context.Context, productID string, qty int) (bool, error) {
	productID = strings.TrimSpace(productID)
	if qty <= 0 {
		s.logger(ctx, "catalog.reserve.rejected", map[string]any{"productId": productID, "quantity": qty, "reason": "invalid_quantity"})
		return false, nil
	}

	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return false, ErrCatalogNotLoaded
	}
	idx, ok := s.index[productID]
	if !ok {
		s.mu.Unlock()
		s.logger(ctx, "catalog.reserve.ignored", map[string]any{"productId": productID, "reason": "not_found"})
		return false, nil
	}
	product := &s.products[idx]
	// The store holds the authoritative count; the cached copy is refreshed from its answer.
	stock, applied, err := s.store.AdjustStock(ctx, productID, -qty)
	if err != nil {
		s.mu.Unlock()
		s.logger(ctx, "catalog.reserve.failed", map[string]any{"productId": productID, "quantity": qty, "error": err})
		return false, fmt.Errorf("%w: reserve %s: %v", ErrCatalogPersistence, productID, err)
	}
	product.Stock = stock
	if !applied {
		s.mu.Unlock()
		s.metrics.Rejected(ctx, productID)
		s.logger(ctx, "catalog.reserve.rejected", map[string]any{"productId": productID, "quantity": qty, "stock": stock, "reason": "insufficient_stock"})
		return false, nil
	}
	change := StockChange{ProductID: productID, Delta: -qty, Stock: stock, Reason: stockReasonReserve, OccurredAt: s.clock()}
	critical := product.BelowCritical()
	observers := s.observersLocked()
	s.mu.Unlock()

	s.metrics.Reserved(ctx, productID, qty)
	if critical {
		s.logger(ctx, "catalog.stock.critical", map[string]any{"productId": productID, "stock": change.Stock})
	}
	s.broadcast(ctx, change, observers)
	return true, nil
}

func (s *catalogService) ReleaseStock(ctx context.Context, productID string, qty int) error {
	productID = strings.TrimSpace(productID)
	if qty <= 0 {
		return nil
	}

	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return ErrCatalogNotLoaded
	}
	idx, ok := s.index[productID]
	if !ok {
		s.mu.Unlock()
		s.logger(ctx, "catalog.release.ignored", map[string]any{"productId": productID, "quantity": qty, "reason": "not_found"})
		return nil
	}
	stock, _, err := s.store.AdjustStock(ctx, productID, qty)
	if err != nil {
		s.mu.Unlock()
		s.logger(ctx, "catalog.release.failed", map[string]any{"productId": productID, "quantity": qty, "error": err})
		return fmt.Errorf("%w: release %s: %v", ErrCatalogPersistence, productID, err)
	}
	s.products[idx].Stock = stock
	change := StockChange{ProductID: productID, Delta: qty, Stock: stock, Reason: stockReasonRelease, OccurredAt: s.clock()}
	observers := s.observersLocked()
	s.mu.Unlock()

	s.metrics.Released(ctx, productID, qty)
	s.broadcast(ctx, change, observers)
	return nil
}

func (s *catalogService) Subscribe(observer StockObserver) func() {
	if observer == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = observer
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.observers, id)
			s.mu.Unlock()
		})
	}
}

func (s *catalogService) AddReview(ctx context.Context, cmd AddReviewCommand) (Product, error) {
	if cmd.Rating < 1 || cmd.Rating > 5 {
		s.notify(ctx, "La calificación debe ser entre 1 y 5.", domain.SeverityError)
		return Product{}, fmt.Errorf("%w: rating %d out of range", ErrCatalogInvalidReview, cmd.Rating)
	}
	text := strings.TrimSpace(s.policy.Sanitize(cmd.Text))
	if text == "" {
		s.notify(ctx, "El comentario no puede estar vacío.", domain.SeverityError)
		return Product{}, fmt.Errorf("%w: text is required", ErrCatalogInvalidReview)
	}
	if len([]rune(text)) > maxReviewLength {
		s.notify(ctx, "El comentario es demasiado largo.", domain.SeverityError)
		return Product{}, fmt.Errorf("%w: text exceeds %d characters", ErrCatalogInvalidReview, maxReviewLength)
	}
	author := strings.TrimSpace(s.policy.Sanitize(cmd.Author))
	if author == "" {
		return Product{}, fmt.Errorf("%w: author is required", ErrCatalogInvalidReview)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.index[strings.TrimSpace(cmd.ProductID)]
	if !ok {
		return Product{}, ErrCatalogProductNotFound
	}
	product := &s.products[idx]
	review := Review{
		Author:    author,
		Rating:    cmd.Rating,
		Text:      text,
		CreatedAt: s.clock(),
	}
	if err := s.store.AppendReview(ctx, product.ID, review); err != nil {
		s.notify(ctx, "Error al enviar la reseña.", domain.SeverityError)
		return Product{}, fmt.Errorf("%w: review %s: %v", ErrCatalogPersistence, product.ID, err)
	}
	product.Reviews = append(append([]Review(nil), product.Reviews...), review)
	s.notify(ctx, "¡Reseña enviada con éxito!", domain.SeveritySuccess)
	return product.Clone(), nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, cmd UpdateProductCommand) (Product, error) {
	if cmd.Price != nil && *cmd.Price < 0 {
		return Product{}, fmt.Errorf("%w: price must be non-negative", ErrCatalogInvalidInput)
	}
	if cmd.DiscountPrice != nil && *cmd.DiscountPrice < 0 {
		return Product{}, fmt.Errorf("%w: discount price must be non-negative", ErrCatalogInvalidInput)
	}
	if cmd.CriticalStock != nil && *cmd.CriticalStock < 0 {
		return Product{}, fmt.Errorf("%w: critical stock must be non-negative", ErrCatalogInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.index[strings.TrimSpace(cmd.ProductID)]
	if !ok {
		return Product{}, ErrCatalogProductNotFound
	}
	updated := s.products[idx].Clone()
	if cmd.Price != nil {
		updated.Price = *cmd.Price
	}
	switch {
	case cmd.ClearDiscount:
		updated.DiscountPrice = nil
	case cmd.DiscountPrice != nil:
		discount := *cmd.DiscountPrice
		updated.DiscountPrice = &discount
	}
	if updated.DiscountPrice != nil && *updated.DiscountPrice >= updated.Price {
		return Product{}, fmt.Errorf("%w: discount price must be below price", ErrCatalogInvalidInput)
	}
	if cmd.CriticalStock != nil {
		critical := *cmd.CriticalStock
		updated.CriticalStock = &critical
	}

	if err := s.store.Save(ctx, updated.Clone()); err != nil {
		return Product{}, fmt.Errorf("%w: update %s: %v", ErrCatalogPersistence, updated.ID, err)
	}
	s.products[idx] = updated
	s.logger(ctx, "catalog.product.updated", map[string]any{"productId": updated.ID, "price": updated.Price})
	return updated.Clone(), nil
}

func (s *catalogService) observersLocked() []StockObserver {
	out := make([]StockObserver, 0, len(s.observers))
	for i := 0; i < s.nextObs; i++ {
		if fn, ok := s.observers[i]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func (s *catalogService) broadcast(ctx context.Context, change StockChange, observers []StockObserver) {
	for _, observer := range observers {
		observer(ctx, change)
	}
	if s.events == nil {
		return
	}
	if _, err := s.events.PublishStockChange(ctx, change); err != nil {
		s.logger(ctx, "catalog.stock.publish_failed", map[string]any{"productId": change.ProductID, "error": err})
	}
}

func (s *catalogService) notify(ctx context.Context, message string, severity Severity) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, message, severity)
	}
}
