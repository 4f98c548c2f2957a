package firestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/huertohogar/storefront/internal/platform/config"
)

const dialBudget = 10 * time.Second

// ErrProviderClosed is returned once Close has been called.
var ErrProviderClosed = errors.New("firestore: provider is closed")

// Provider owns the storefront's single Firestore client. The client is dialed on first use and a
// failed dial is attempted again on the next call.
type Provider struct {
	projectID    string
	emulatorHost string

	mu     sync.Mutex
	client *firestore.Client
	closed bool
}

// NewProvider resolves project and emulator settings from cfg, falling back to the
// GOOGLE_CLOUD_PROJECT and FIRESTORE_EMULATOR_HOST variables.
func NewProvider(cfg config.FirestoreConfig) *Provider {
	return &Provider{
		projectID:    firstNonBlank(cfg.ProjectID, os.Getenv("GOOGLE_CLOUD_PROJECT")),
		emulatorHost: firstNonBlank(cfg.EmulatorHost, os.Getenv("FIRESTORE_EMULATOR_HOST")),
	}
}

// Client returns the shared client.
func (p *Provider) Client(ctx context.Context) (*firestore.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.closed:
		return nil, ErrProviderClosed
	case p.client != nil:
		return p.client, nil
	case p.projectID == "":
		return nil, errors.New("firestore: project id is required")
	}

	dialCtx, cancel := context.WithTimeout(ctx, dialBudget)
	defer cancel()

	var opts []option.ClientOption
	if p.emulatorHost != "" {
		opts = append(opts,
			option.WithEndpoint(p.emulatorHost),
			option.WithoutAuthentication(),
			option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
	}
	client, err := firestore.NewClient(dialCtx, p.projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore: dial %s: %w", p.projectID, err)
	}
	p.client = client
	return client, nil
}

// RunTransaction executes fn inside a transaction on the shared client.
func (p *Provider) RunTransaction(ctx context.Context, fn TxFunc) error {
	client, err := p.Client(ctx)
	if err != nil {
		return err
	}
	return RunTransaction(ctx, client, fn)
}

// Close releases the client. Later calls to Client fail with ErrProviderClosed.
func (p *Provider) Close() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	client := p.client
	p.client = nil
	if client == nil {
		return nil
	}
	return client.Close()
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
