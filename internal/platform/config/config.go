package config

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile            = ".env"
	defaultPort               = "8080"
	defaultReadTimeout        = 15 * time.Second
	defaultWriteTimeout       = 30 * time.Second
	defaultIdleTimeout        = 120 * time.Second
	defaultShutdownTimeout    = 10 * time.Second
	defaultStorageBackend     = StorageMemory
	defaultNotificationTTL    = 3 * time.Second
	defaultPointsDivisor      = 1000
	defaultSessionHeader      = "X-Session-ID"
	defaultCustomerHeader     = "X-Customer-ID"
	defaultStockTopic         = "storefront-stock-changes"
	defaultOrderTopic         = "storefront-orders"
	defaultMaxRequestBodySize = 64 * 1024
	defaultAdminCustomerID    = "admin"
	defaultAdminEmail         = "admin@huertohogar.cl"
)

// Storage backends understood by the container.
const (
	StorageMemory    = "memory"
	StorageFirestore = "firestore"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Firestore FirestoreConfig
	PubSub    PubSubConfig
	Cart      CartConfig
	Checkout  CheckoutConfig
	Session   SessionConfig
	Catalog   CatalogConfig
	Admin     AdminConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
}

// StorageConfig selects where products, carts, orders and customers live.
type StorageConfig struct {
	Backend string
}

// FirestoreConfig stores database parameters.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
}

// PubSubConfig configures optional event publishing. Publishing is disabled when ProjectID is empty.
type PubSubConfig struct {
	ProjectID  string
	StockTopic string
	OrderTopic string
}

// CartConfig tunes the cart engine and notifier.
type CartConfig struct {
	NotificationTTL time.Duration
}

// CheckoutConfig tunes loyalty point accrual.
type CheckoutConfig struct {
	PointsDivisor int64
}

// SessionConfig names the headers used to identify carts and customers.
type SessionConfig struct {
	Header         string
	CustomerHeader string
}

// CatalogConfig controls initial catalog seeding.
type CatalogConfig struct {
	SeedOnEmpty bool
	SeedFile    string
}

// AdminConfig names the administrator account created at startup.
type AdminConfig struct {
	CustomerID string
	Email      string
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option mutates loader behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the dotenv file location. An empty path disables dotenv loading.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap supplies explicit values that take precedence over every other source.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv ignores the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load resolves configuration from defaults, the dotenv file, the process environment and explicit overrides.
func Load(ctx context.Context, opts ...Option) (Config, error) {
	_ = ctx
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	cfg := Config{
		Server: ServerConfig{
			Port:            stringWithDefault(lookup, "STOREFRONT_SERVER_PORT", defaultPort),
			ReadTimeout:     durationWithDefault(lookup, "STOREFRONT_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout:    durationWithDefault(lookup, "STOREFRONT_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:     durationWithDefault(lookup, "STOREFRONT_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
			ShutdownTimeout: durationWithDefault(lookup, "STOREFRONT_SERVER_SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
			MaxBodyBytes:    int64(intWithDefault(lookup, "STOREFRONT_SERVER_MAX_BODY_BYTES", defaultMaxRequestBodySize)),
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(stringWithDefault(lookup, "STOREFRONT_STORAGE_BACKEND", defaultStorageBackend)),
		},
		Firestore: FirestoreConfig{
			ProjectID:    stringWithDefault(lookup, "STOREFRONT_FIRESTORE_PROJECT_ID", ""),
			EmulatorHost: stringWithDefault(lookup, "STOREFRONT_FIRESTORE_EMULATOR_HOST", ""),
		},
		PubSub: PubSubConfig{
			ProjectID:  stringWithDefault(lookup, "STOREFRONT_PUBSUB_PROJECT_ID", ""),
			StockTopic: stringWithDefault(lookup, "STOREFRONT_PUBSUB_STOCK_TOPIC", defaultStockTopic),
			OrderTopic: stringWithDefault(lookup, "STOREFRONT_PUBSUB_ORDER_TOPIC", defaultOrderTopic),
		},
		Cart: CartConfig{
			NotificationTTL: durationWithDefault(lookup, "STOREFRONT_CART_NOTIFICATION_TTL", defaultNotificationTTL),
		},
		Checkout: CheckoutConfig{
			PointsDivisor: int64(intWithDefault(lookup, "STOREFRONT_CHECKOUT_POINTS_DIVISOR", defaultPointsDivisor)),
		},
		Session: SessionConfig{
			Header:         stringWithDefault(lookup, "STOREFRONT_SESSION_HEADER", defaultSessionHeader),
			CustomerHeader: stringWithDefault(lookup, "STOREFRONT_SESSION_CUSTOMER_HEADER", defaultCustomerHeader),
		},
		Catalog: CatalogConfig{
			SeedOnEmpty: boolWithDefault(lookup, "STOREFRONT_CATALOG_SEED", true),
			SeedFile:    stringWithDefault(lookup, "STOREFRONT_CATALOG_SEED_FILE", ""),
		},
		Admin: AdminConfig{
			CustomerID: stringWithDefault(lookup, "STOREFRONT_ADMIN_CUSTOMER_ID", defaultAdminCustomerID),
			Email:      stringWithDefault(lookup, "STOREFRONT_ADMIN_EMAIL", defaultAdminEmail),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// PublishingEnabled reports whether Pub/Sub event publishers should be constructed.
func (c PubSubConfig) PublishingEnabled() bool {
	return strings.TrimSpace(c.ProjectID) != ""
}

func validateConfig(cfg Config) error {
	var missing []string

	if cfg.Server.Port == "" {
		missing = append(missing, "Server.Port")
	}
	if cfg.Server.MaxBodyBytes <= 0 {
		missing = append(missing, "Server.MaxBodyBytes")
	}
	switch cfg.Storage.Backend {
	case StorageMemory:
	case StorageFirestore:
		if cfg.Firestore.ProjectID == "" {
			missing = append(missing, "Firestore.ProjectID")
		}
	default:
		missing = append(missing, "Storage.Backend")
	}
	if cfg.PubSub.PublishingEnabled() {
		if strings.TrimSpace(cfg.PubSub.StockTopic) == "" {
			missing = append(missing, "PubSub.StockTopic")
		}
		if strings.TrimSpace(cfg.PubSub.OrderTopic) == "" {
			missing = append(missing, "PubSub.OrderTopic")
		}
	}
	if cfg.Cart.NotificationTTL <= 0 {
		missing = append(missing, "Cart.NotificationTTL")
	}
	if cfg.Checkout.PointsDivisor <= 0 {
		missing = append(missing, "Checkout.PointsDivisor")
	}
	if strings.TrimSpace(cfg.Session.Header) == "" {
		missing = append(missing, "Session.Header")
	}
	if strings.TrimSpace(cfg.Session.CustomerHeader) == "" {
		missing = append(missing, "Session.CustomerHeader")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		values[key] = strings.Trim(strings.TrimSpace(value), "\"'")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}
