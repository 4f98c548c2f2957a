package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cucumber/godog"

	"github.com/huertohogar/storefront/internal/repositories/memory"
)

type cartFeatureContext struct {
	products *memory.ProductStore
	catalog  ProductCatalog
	notifier *captureNotifier
	engine   CartEngine
	err      error
	ok       bool
}

func (c *cartFeatureContext) reset() {
	c.products = memory.NewProductStore()
	c.catalog = nil
	c.notifier = &captureNotifier{}
	c.engine = nil
	c.err = nil
	c.ok = false
}

func (c *cartFeatureContext) ensureEngine(ctx context.Context) error {
	if c.engine != nil {
		return nil
	}
	catalog, err := NewCatalogService(CatalogServiceDeps{Products: c.products})
	if err != nil {
		return err
	}
	if err := catalog.LoadInitialState(ctx); err != nil {
		return err
	}
	engine, err := NewCartEngine(CartEngineDeps{
		SessionID: "feature-session",
		Catalog:   catalog,
		Store:     memory.NewCartStore(),
		Notifier:  c.notifier,
	})
	if err != nil {
		return err
	}
	if err := engine.LoadInitialState(ctx); err != nil {
		return err
	}
	c.catalog = catalog
	c.engine = engine
	return nil
}

func (c *cartFeatureContext) product(ctx context.Context, id string) (Product, error) {
	if err := c.ensureEngine(ctx); err != nil {
		return Product{}, err
	}
	product, ok := c.catalog.FindByID(ctx, id)
	if !ok {
		return Product{}, fmt.Errorf("product %s not in catalog", id)
	}
	return product, nil
}

func (c *cartFeatureContext) aCatalogWithProduct(id string, price, stock int) error {
	if c.engine != nil {
		return errors.New("catalog products must be declared before cart operations")
	}
	return c.products.Save(context.Background(), testProduct(id, int64(price), stock))
}

func (c *cartFeatureContext) iAddUnitsToTheCart(ctx context.Context, qty int, id string) error {
	product, err := c.product(ctx, id)
	if err != nil {
		return err
	}
	c.err = c.engine.AddToCart(ctx, product, qty)
	return nil
}

func (c *cartFeatureContext) iIncrement(ctx context.Context, id string) error {
	if err := c.ensureEngine(ctx); err != nil {
		return err
	}
	c.err = c.engine.ChangeQuantity(ctx, id, 1)
	return nil
}

func (c *cartFeatureContext) iDecrement(ctx context.Context, id string) error {
	if err := c.ensureEngine(ctx); err != nil {
		return err
	}
	c.err = c.engine.ChangeQuantity(ctx, id, -1)
	return nil
}

func (c *cartFeatureContext) iCheckAvailability(ctx context.Context, qty int, id string) error {
	product, err := c.product(ctx, id)
	if err != nil {
		return err
	}
	c.ok = c.engine.CheckAvailability(ctx, product, qty)
	return nil
}

func (c *cartFeatureContext) iSetTheQuantity(ctx context.Context, id string, qty int) error {
	product, err := c.product(ctx, id)
	if err != nil {
		return err
	}
	c.err = c.engine.SetQuantity(ctx, product, qty)
	return nil
}

func (c *cartFeatureContext) iClearTheCart(ctx context.Context) error {
	if err := c.ensureEngine(ctx); err != nil {
		return err
	}
	c.err = c.engine.ClearCart(ctx)
	return nil
}

func (c *cartFeatureContext) theCartTotalIs(total int) error {
	if got := c.engine.Total(); got != int64(total) {
		return fmt.Errorf("expected cart total %d, got %d", total, got)
	}
	return nil
}

func (c *cartFeatureContext) theStockIs(ctx context.Context, id string, stock int) error {
	product, err := c.product(ctx, id)
	if err != nil {
		return err
	}
	if product.Stock != stock {
		return fmt.Errorf("expected stock %d for %s, got %d", stock, id, product.Stock)
	}
	return nil
}

func (c *cartFeatureContext) theLineHasQuantity(id string, qty int) error {
	if got := c.engine.Quantity(id); got != qty {
		return fmt.Errorf("expected quantity %d for %s, got %d", qty, id, got)
	}
	return nil
}

func (c *cartFeatureContext) theOperationIsRejected() error {
	if !errors.Is(c.err, ErrCartInsufficientStock) {
		return fmt.Errorf("expected insufficient stock rejection, got %v", c.err)
	}
	return nil
}

func (c *cartFeatureContext) theProductIsAvailable() error {
	if !c.ok {
		return errors.New("expected product to be available")
	}
	return nil
}

func (c *cartFeatureContext) theLastNotificationIs(message string) error {
	if got := c.notifier.last().message; got != message {
		return fmt.Errorf("expected notification %q, got %q", message, got)
	}
	return nil
}

func (c *cartFeatureContext) theCartIsEmpty() error {
	if lines := c.engine.Lines(); len(lines) != 0 {
		return fmt.Errorf("expected empty cart, got %+v", lines)
	}
	if c.engine.ItemCount() != 0 {
		return errors.New("expected item count 0")
	}
	return nil
}

func (c *cartFeatureContext) noNotificationWasSent() error {
	if n := c.notifier.count(); n != 0 {
		return fmt.Errorf("expected no notifications, got %v", c.notifier.messages())
	}
	return nil
}

func initializeCartScenario(ctx *godog.ScenarioContext) {
	tc := &cartFeatureContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	ctx.Step(`^a catalog with product "([^"]*)" priced (\d+) with stock (\d+)$`, tc.aCatalogWithProduct)

	ctx.Step(`^I add (\d+) units of "([^"]*)" to the cart$`, tc.iAddUnitsToTheCart)
	ctx.Step(`^I increment "([^"]*)" by one$`, tc.iIncrement)
	ctx.Step(`^I decrement "([^"]*)" by one$`, tc.iDecrement)
	ctx.Step(`^I check availability of (\d+) units of "([^"]*)"$`, tc.iCheckAvailability)
	ctx.Step(`^I set the quantity of "([^"]*)" to (\d+)$`, tc.iSetTheQuantity)
	ctx.Step(`^I clear the cart$`, tc.iClearTheCart)

	ctx.Step(`^the cart total is (\d+)$`, tc.theCartTotalIs)
	ctx.Step(`^the stock of "([^"]*)" is (\d+)$`, tc.theStockIs)
	ctx.Step(`^the cart line for "([^"]*)" has quantity (\d+)$`, tc.theLineHasQuantity)
	ctx.Step(`^the operation is rejected for insufficient stock$`, tc.theOperationIsRejected)
	ctx.Step(`^the product is available$`, tc.theProductIsAvailable)
	ctx.Step(`^the last notification is "([^"]*)"$`, tc.theLastNotificationIs)
	ctx.Step(`^the cart is empty$`, tc.theCartIsEmpty)
	ctx.Step(`^no notification was sent$`, tc.noNotificationWasSent)
}

func TestCartFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeCartScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/cart.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
