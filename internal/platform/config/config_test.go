package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(context.Background(), WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Storage.Backend != StorageMemory {
		t.Errorf("expected memory backend, got %s", cfg.Storage.Backend)
	}
	if cfg.Cart.NotificationTTL != 3*time.Second {
		t.Errorf("expected 3s notification ttl, got %s", cfg.Cart.NotificationTTL)
	}
	if cfg.Checkout.PointsDivisor != 1000 {
		t.Errorf("expected points divisor 1000, got %d", cfg.Checkout.PointsDivisor)
	}
	if cfg.Session.Header != defaultSessionHeader {
		t.Errorf("expected session header %s, got %s", defaultSessionHeader, cfg.Session.Header)
	}
	if !cfg.Catalog.SeedOnEmpty {
		t.Error("expected catalog seeding enabled by default")
	}
	if cfg.PubSub.PublishingEnabled() {
		t.Error("expected publishing disabled without project")
	}
	if cfg.Admin.CustomerID != "admin" || cfg.Admin.Email != "admin@huertohogar.cl" {
		t.Errorf("unexpected admin defaults: %+v", cfg.Admin)
	}
}

func TestLoadWithOverrides(t *testing.T) {
	env := map[string]string{
		"STOREFRONT_SERVER_PORT":             "9090",
		"STOREFRONT_SERVER_WRITE_TIMEOUT":    "25s",
		"STOREFRONT_STORAGE_BACKEND":         "FIRESTORE",
		"STOREFRONT_FIRESTORE_PROJECT_ID":    "huerto-prod",
		"STOREFRONT_PUBSUB_PROJECT_ID":       "huerto-prod",
		"STOREFRONT_PUBSUB_STOCK_TOPIC":      "stock",
		"STOREFRONT_CART_NOTIFICATION_TTL":   "5s",
		"STOREFRONT_CHECKOUT_POINTS_DIVISOR": "500",
		"STOREFRONT_CATALOG_SEED":            "off",
	}

	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Server.WriteTimeout != 25*time.Second {
		t.Errorf("unexpected write timeout: %s", cfg.Server.WriteTimeout)
	}
	if cfg.Storage.Backend != StorageFirestore {
		t.Errorf("expected firestore backend, got %s", cfg.Storage.Backend)
	}
	if !cfg.PubSub.PublishingEnabled() || cfg.PubSub.StockTopic != "stock" {
		t.Errorf("unexpected pubsub config: %+v", cfg.PubSub)
	}
	if cfg.PubSub.OrderTopic != defaultOrderTopic {
		t.Errorf("expected default order topic, got %s", cfg.PubSub.OrderTopic)
	}
	if cfg.Cart.NotificationTTL != 5*time.Second {
		t.Errorf("unexpected notification ttl: %s", cfg.Cart.NotificationTTL)
	}
	if cfg.Checkout.PointsDivisor != 500 {
		t.Errorf("unexpected points divisor: %d", cfg.Checkout.PointsDivisor)
	}
	if cfg.Catalog.SeedOnEmpty {
		t.Error("expected catalog seeding disabled")
	}
}

func TestLoadValidationErrors(t *testing.T) {
	env := map[string]string{
		"STOREFRONT_STORAGE_BACKEND":         "firestore",
		"STOREFRONT_CHECKOUT_POINTS_DIVISOR": "0",
	}

	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err == nil {
		t.Fatal("expected validation error")
	}
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	fields := vErr.Fields()
	want := map[string]bool{"Firestore.ProjectID": false, "Checkout.PointsDivisor": false}
	for _, f := range fields {
		if _, ok := want[f]; ok {
			want[f] = true
		}
	}
	for field, seen := range want {
		if !seen {
			t.Errorf("expected %s in validation fields %v", field, fields)
		}
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	env := map[string]string{"STOREFRONT_STORAGE_BACKEND": "redis"}
	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestLoadFromDotEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# local overrides\nexport STOREFRONT_SERVER_PORT=7070\nSTOREFRONT_CATALOG_SEED_FILE=\"/tmp/catalog.yaml\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := Load(context.Background(),
		WithEnvFile(path),
		WithoutSystemEnv(),
		WithEnvMap(map[string]string{"STOREFRONT_SERVER_PORT": "6060"}),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "6060" {
		t.Errorf("expected explicit map to win, got %s", cfg.Server.Port)
	}
	if cfg.Catalog.SeedFile != "/tmp/catalog.yaml" {
		t.Errorf("expected seed file from dotenv, got %s", cfg.Catalog.SeedFile)
	}
}
