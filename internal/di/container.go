package di

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/huertohogar/storefront/internal/platform/config"
	pfirestore "github.com/huertohogar/storefront/internal/platform/firestore"
	"github.com/huertohogar/storefront/internal/platform/jobs"
	"github.com/huertohogar/storefront/internal/platform/observability"
	"github.com/huertohogar/storefront/internal/platform/seed"
	"github.com/huertohogar/storefront/internal/repositories"
	firestoreRepo "github.com/huertohogar/storefront/internal/repositories/firestore"
	"github.com/huertohogar/storefront/internal/repositories/memory"
	"github.com/huertohogar/storefront/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon. Concrete implementations
// are assembled via dependency injection in NewContainer.
type Services struct {
	Notifications *services.NotificationCenter
	Catalog       services.ProductCatalog
	Carts         services.CartSessions
	Checkout      services.CheckoutService
	Orders        services.OrderService
	Customers     services.CustomerService
}

// Container wires repositories, services, and event publishers for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services

	logger   *zap.Logger
	pubsub   *pubsub.Client
	ownsPub  bool
	topics   []*pubsub.Topic
	clock    func() time.Time
	unsubFns []func()
}

// Option customises container construction.
type Option func(*Container)

// WithLogger sets the base logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Container) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPubSubClient supplies an existing Pub/Sub client. The container does not close it.
func WithPubSubClient(client *pubsub.Client) Option {
	return func(c *Container) {
		c.pubsub = client
	}
}

// WithClock overrides the clock shared by every service.
func WithClock(clock func() time.Time) Option {
	return func(c *Container) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// OpenRegistry selects the storage backend named by cfg.Storage.Backend.
func OpenRegistry(cfg config.Config) (repositories.Registry, *pfirestore.Provider, error) {
	switch cfg.Storage.Backend {
	case config.StorageMemory, "":
		return memory.NewRegistry(), nil, nil
	case config.StorageFirestore:
		provider := pfirestore.NewProvider(cfg.Firestore)
		reg, err := firestoreRepo.NewRegistry(provider)
		if err != nil {
			return nil, nil, fmt.Errorf("build firestore registry: %w", err)
		}
		return reg, provider, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}
}

// NewContainer constructs the runtime dependencies, restores the catalog and bootstraps the admin account.
func NewContainer(ctx context.Context, cfg config.Config, reg repositories.Registry, opts ...Option) (*Container, error) {
	if reg == nil {
		return nil, errors.New("repositories registry is required")
	}

	c := &Container{
		Config:       cfg,
		Repositories: reg,
		logger:       zap.NewNop(),
		clock:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.connectPubSub(ctx); err != nil {
		return nil, err
	}

	svc, err := c.buildServices(ctx)
	if err != nil {
		_ = c.Close(ctx)
		return nil, err
	}
	c.Services = svc
	return c, nil
}

// Logger returns the base logger the container was built with.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Close flushes publishers and releases repository clients.
func (c *Container) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}
	for _, unsubscribe := range c.unsubFns {
		unsubscribe()
	}
	c.unsubFns = nil
	for _, topic := range c.topics {
		topic.Stop()
	}
	c.topics = nil

	var errs []error
	if c.pubsub != nil && c.ownsPub {
		if err := c.pubsub.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pubsub: %w", err))
		}
		c.pubsub = nil
	}
	if c.Repositories != nil {
		if err := c.Repositories.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close repositories: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (c *Container) connectPubSub(ctx context.Context) error {
	if c.pubsub != nil || !c.Config.PubSub.PublishingEnabled() {
		return nil
	}
	client, err := pubsub.NewClient(ctx, strings.TrimSpace(c.Config.PubSub.ProjectID))
	if err != nil {
		return fmt.Errorf("build pubsub client: %w", err)
	}
	c.pubsub = client
	c.ownsPub = true
	return nil
}

func (c *Container) buildServices(ctx context.Context) (Services, error) {
	var svc Services
	eventLogger := observability.EventLogger(c.logger)

	svc.Notifications = services.NewNotificationCenter(services.NotificationCenterDeps{
		TTL:    c.Config.Cart.NotificationTTL,
		Clock:  c.clock,
		Logger: eventLogger,
	})

	var stockEvents services.StockEventPublisher
	var orderEvents services.OrderEventPublisher
	if c.pubsub != nil {
		stockTopic := c.pubsub.Topic(c.Config.PubSub.StockTopic)
		stockTopic.EnableMessageOrdering = true
		orderTopic := c.pubsub.Topic(c.Config.PubSub.OrderTopic)
		c.topics = append(c.topics, stockTopic, orderTopic)

		stockPublisher, err := jobs.NewPubSubStockPublisher(stockTopic)
		if err != nil {
			return Services{}, fmt.Errorf("build stock publisher: %w", err)
		}
		orderPublisher, err := jobs.NewPubSubOrderPublisher(orderTopic)
		if err != nil {
			return Services{}, fmt.Errorf("build order publisher: %w", err)
		}
		stockEvents = stockPublisher
		orderEvents = orderPublisher
	}

	var seedFn func() ([]services.Product, error)
	if c.Config.Catalog.SeedOnEmpty {
		seedFile := c.Config.Catalog.SeedFile
		seedFn = func() ([]services.Product, error) {
			return seed.LoadFile(seedFile)
		}
	}

	catalog, err := services.NewCatalogService(services.CatalogServiceDeps{
		Products: c.Repositories.Products(),
		Seed:     seedFn,
		Events:   stockEvents,
		Metrics:  observability.NewStockMetrics(nil, c.logger.Named("metrics")),
		Notifier: svc.Notifications,
		Clock:    c.clock,
		Logger:   eventLogger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build catalog service: %w", err)
	}
	if err := catalog.LoadInitialState(ctx); err != nil {
		return Services{}, fmt.Errorf("load catalog: %w", err)
	}
	svc.Catalog = catalog

	stockLogger := c.logger.Named("stock")
	c.unsubFns = append(c.unsubFns, catalog.Subscribe(func(ctx context.Context, change services.StockChange) {
		observability.FromContext(ctx).Debug("stock changed",
			zap.String("productId", change.ProductID),
			zap.Int("delta", change.Delta),
			zap.Int("stock", change.Stock),
			zap.String("reason", change.Reason),
		)
		if change.Stock == 0 {
			stockLogger.Info("product sold out", zap.String("productId", change.ProductID))
		}
	}))

	carts, err := services.NewCartSessions(services.CartSessionsDeps{
		Catalog:  catalog,
		Store:    c.Repositories.Carts(),
		Notifier: svc.Notifications,
		Clock:    c.clock,
		Logger:   eventLogger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build cart sessions: %w", err)
	}
	svc.Carts = carts

	customers, err := services.NewCustomerService(services.CustomerServiceDeps{
		Customers: c.Repositories.Customers(),
		Notifier:  svc.Notifications,
		Clock:     c.clock,
		Logger:    eventLogger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build customer service: %w", err)
	}
	svc.Customers = customers

	if adminID := strings.TrimSpace(c.Config.Admin.CustomerID); adminID != "" {
		if _, err := customers.EnsureAdmin(ctx, services.AdminAccount{CustomerID: adminID, Email: c.Config.Admin.Email}); err != nil {
			return Services{}, fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	orders, err := services.NewOrderService(services.OrderServiceDeps{
		Orders: c.Repositories.Orders(),
		Clock:  c.clock,
		Logger: eventLogger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build order service: %w", err)
	}
	svc.Orders = orders

	checkout, err := services.NewCheckoutService(services.CheckoutServiceDeps{
		Carts:         carts,
		Customers:     c.Repositories.Customers(),
		Orders:        c.Repositories.Orders(),
		Notifier:      svc.Notifications,
		Events:        orderEvents,
		PointsDivisor: c.Config.Checkout.PointsDivisor,
		Clock:         c.clock,
		Logger:        eventLogger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build checkout service: %w", err)
	}
	svc.Checkout = checkout

	return svc, nil
}
