package service

import (
	"context"
	"testing"

	"shop-service/internal/apperr"
	"shop-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkoutFixture(t *testing.T) (*memStore, *CartService, *CheckoutService, *fakePublisher) {
	t.Helper()
	store := newMemStore()
	store.addProduct(models.Product{Code: "P1", Title: "First", Price: decimal.NewFromInt(10)})
	store.addProduct(models.Product{Code: "P2", Title: "Second", Price: decimal.NewFromInt(25)})
	publisher := &fakePublisher{}
	return store, NewCartService(store, nil), NewCheckoutService(store, publisher, nil), publisher
}

func TestCheckoutComputesTotalAndClearsCart(t *testing.T) {
	_, cart, checkout, publisher := checkoutFixture(t)
	ctx := context.Background()

	for _, code := range []string{"P1", "P2"} {
		_, err := cart.Add(ctx, "sess-1", code, 1)
		require.NoError(t, err)
	}

	result, err := checkout.Checkout(ctx, "sess-1", "shopper@example.com")
	require.NoError(t, err)
	assert.Equal(t, "35", result.Order.Total.String())
	assert.Equal(t, "shopper@example.com", result.Order.Email)
	assert.NotEmpty(t, result.Order.Label)
	require.Len(t, result.Items, 2)

	summary, err := cart.List(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, summary.Items)

	require.Len(t, publisher.ordersPlaced, 1)
	assert.Equal(t, result.Order.ID, publisher.ordersPlaced[0].OrderID)
	assert.Equal(t, models.EventTypeOrderPlaced, publisher.ordersPlaced[0].EventType)
}

func TestCheckoutCapturesPriceAtOrderTime(t *testing.T) {
	store, cart, checkout, _ := checkoutFixture(t)
	ctx := context.Background()

	_, err := cart.Add(ctx, "sess-1", "P1", 1)
	require.NoError(t, err)

	result, err := checkout.Checkout(ctx, "sess-1", "shopper@example.com")
	require.NoError(t, err)

	// A later price change must not affect the stored order
	for _, p := range store.products {
		p.Price = p.Price.Mul(decimal.NewFromInt(3))
	}

	order, items, err := checkout.GetOrder(ctx, result.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, "10", order.Total.String())
	require.Len(t, items, 1)
	assert.Equal(t, "10", items[0].Price.String())
}

func TestCheckoutEmptyCart(t *testing.T) {
	_, _, checkout, publisher := checkoutFixture(t)

	_, err := checkout.Checkout(context.Background(), "sess-1", "shopper@example.com")
	assert.ErrorIs(t, err, apperr.ErrEmptyCart)
	assert.Empty(t, publisher.ordersPlaced)
}

func TestCheckoutInvalidEmailLeavesCartUnchanged(t *testing.T) {
	_, cart, checkout, _ := checkoutFixture(t)
	ctx := context.Background()

	_, err := cart.Add(ctx, "sess-1", "P1", 1)
	require.NoError(t, err)

	_, err = checkout.Checkout(ctx, "sess-1", "not-an-email")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	summary, err := cart.List(ctx, "sess-1")
	require.NoError(t, err)
	assert.Len(t, summary.Items, 1)
}

func TestCheckoutAbortsWhenProductVanishes(t *testing.T) {
	store, cart, _, _ := checkoutFixture(t)
	ctx := context.Background()

	_, err := cart.Add(ctx, "sess-1", "P1", 1)
	require.NoError(t, err)

	// Simulate a delete racing the checkout transaction by leaving a
	// dangling cart entry behind.
	product, err := store.GetProductByCode(ctx, "P1")
	require.NoError(t, err)
	store.mu.Lock()
	delete(store.products, product.ID)
	store.mu.Unlock()

	_, _, err = store.PlaceOrder(ctx, "sess-1", "shopper@example.com", "ORD-X", true)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	// Strict all-or-nothing: no order persisted, cart untouched
	store.mu.Lock()
	orders, entries := len(store.orders), len(store.cart)
	store.mu.Unlock()
	assert.Zero(t, orders)
	assert.Equal(t, 1, entries)
}

func TestDirectCheckoutFlipsAvailability(t *testing.T) {
	store, cart, checkout, _ := checkoutFixture(t)
	ctx := context.Background()

	for _, code := range []string{"P1", "P2"} {
		_, err := cart.Add(ctx, "sess-1", code, 1)
		require.NoError(t, err)
	}

	result, err := checkout.Checkout(ctx, "sess-1", "shopper@example.com")
	require.NoError(t, err)
	assert.True(t, result.Order.Confirmed)

	for _, code := range []string{"P1", "P2"} {
		product, err := store.GetProductByCode(ctx, code)
		require.NoError(t, err)
		assert.False(t, product.IsAvailable, "product %s should be unavailable", code)
	}
}

func TestDeferredConfirmationIsIdempotent(t *testing.T) {
	store := newMemStore()
	p := store.addProduct(models.Product{Code: "P1", Title: "First", Price: decimal.NewFromInt(10)})
	publisher := &fakePublisher{}
	checkout := NewCheckoutService(store, publisher, nil)
	ctx := context.Background()

	// Unconfirmed order via the deferred path
	_, err := store.AddCartItem(ctx, "sess-1", p.ID, 1)
	require.NoError(t, err)
	order, _, err := store.PlaceOrder(ctx, "sess-1", "shopper@example.com", "ORD-TEST", false)
	require.NoError(t, err)

	fresh, err := store.GetProductByCode(ctx, "P1")
	require.NoError(t, err)
	assert.True(t, fresh.IsAvailable, "availability must not flip before confirmation")

	confirmed, err := checkout.Confirm(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, confirmed.Confirmed)

	fresh, err = store.GetProductByCode(ctx, "P1")
	require.NoError(t, err)
	assert.False(t, fresh.IsAvailable)

	// Repeating the confirmation is a no-op and publishes nothing new
	again, err := checkout.Confirm(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, again.Confirmed)
	assert.Len(t, publisher.ordersConfirmed, 1)
}

func TestConfirmUnknownOrder(t *testing.T) {
	checkout := NewCheckoutService(newMemStore(), &fakePublisher{}, nil)

	_, err := checkout.Confirm(context.Background(), 42)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
