package repository

import (
	"context"
	"sync"
	"testing"

	"poster-shop/internal/docstore"
	"poster-shop/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCarts(t *testing.T) *CartRepository {
	t.Helper()
	store, err := docstore.NewStore(t.TempDir())
	require.NoError(t, err)
	return NewCartRepository(store)
}

func TestGetCartUnknownUserIsEmpty(t *testing.T) {
	carts := newTestCarts(t)

	cart, err := carts.GetCart(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, cart)
	assert.Empty(t, cart)
}

func TestAddItemToEmptyCart(t *testing.T) {
	carts := newTestCarts(t)

	cart, err := carts.AddItem(context.Background(), "u1", "poster-cat", 3)
	require.NoError(t, err)
	assert.Equal(t, models.Cart{{ProductID: "poster-cat", Quantity: 3}}, cart)
}

func TestAddSameProductMergesQuantities(t *testing.T) {
	carts := newTestCarts(t)
	ctx := context.Background()

	_, err := carts.AddItem(ctx, "u1", "poster-cat", 2)
	require.NoError(t, err)
	cart, err := carts.AddItem(ctx, "u1", "poster-cat", 5)
	require.NoError(t, err)

	require.Len(t, cart, 1, "same product must never appear on two lines")
	assert.Equal(t, models.CartItem{ProductID: "poster-cat", Quantity: 7}, cart[0])
}

func TestAddItemPreservesLineOrder(t *testing.T) {
	carts := newTestCarts(t)
	ctx := context.Background()

	_, err := carts.AddItem(ctx, "u1", "first", 1)
	require.NoError(t, err)
	_, err = carts.AddItem(ctx, "u1", "second", 1)
	require.NoError(t, err)
	cart, err := carts.AddItem(ctx, "u1", "first", 1)
	require.NoError(t, err)

	assert.Equal(t, models.Cart{
		{ProductID: "first", Quantity: 2},
		{ProductID: "second", Quantity: 1},
	}, cart)
}

func TestAddItemRejectsNonPositiveQuantity(t *testing.T) {
	carts := newTestCarts(t)
	ctx := context.Background()

	for _, quantity := range []int{0, -1, -100} {
		_, err := carts.AddItem(ctx, "u1", "poster-cat", quantity)
		assert.ErrorIs(t, err, models.ErrValidation, "quantity=%d", quantity)
	}

	cart, err := carts.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, cart, "rejected adds must not touch the cart")
}

func TestRemoveAbsentProductIsNoOp(t *testing.T) {
	carts := newTestCarts(t)
	ctx := context.Background()

	_, err := carts.AddItem(ctx, "u1", "poster-cat", 1)
	require.NoError(t, err)

	cart, err := carts.RemoveItem(ctx, "u1", "poster-dog")
	require.NoError(t, err)
	assert.Equal(t, models.Cart{{ProductID: "poster-cat", Quantity: 1}}, cart)
}

func TestRemoveItemDropsLine(t *testing.T) {
	carts := newTestCarts(t)
	ctx := context.Background()

	_, err := carts.AddItem(ctx, "u1", "poster-cat", 1)
	require.NoError(t, err)
	_, err = carts.AddItem(ctx, "u1", "poster-dog", 2)
	require.NoError(t, err)

	cart, err := carts.RemoveItem(ctx, "u1", "poster-cat")
	require.NoError(t, err)
	assert.Equal(t, models.Cart{{ProductID: "poster-dog", Quantity: 2}}, cart)
}

func TestClearCartLeavesEmptySequence(t *testing.T) {
	carts := newTestCarts(t)
	ctx := context.Background()

	_, err := carts.AddItem(ctx, "u1", "poster-cat", 1)
	require.NoError(t, err)

	require.NoError(t, carts.ClearCart(ctx, "u1"))

	cart, err := carts.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.NotNil(t, cart)
	assert.Empty(t, cart)
}

func TestConcurrentAddsBothSurvive(t *testing.T) {
	carts := newTestCarts(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, productID := range []string{"poster-a", "poster-b"} {
		wg.Add(1)
		go func(productID string) {
			defer wg.Done()
			_, err := carts.AddItem(ctx, "u1", productID, 1)
			assert.NoError(t, err)
		}(productID)
	}
	wg.Wait()

	cart, err := carts.GetCart(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, cart, 2, "neither concurrent add may be lost")

	quantities := map[string]int{}
	for _, item := range cart {
		quantities[item.ProductID] = item.Quantity
	}
	assert.Equal(t, map[string]int{"poster-a": 1, "poster-b": 1}, quantities)
}

func TestCartsAreIsolatedPerUser(t *testing.T) {
	carts := newTestCarts(t)
	ctx := context.Background()

	_, err := carts.AddItem(ctx, "u1", "poster-cat", 1)
	require.NoError(t, err)
	_, err = carts.AddItem(ctx, "u2", "poster-dog", 2)
	require.NoError(t, err)

	require.NoError(t, carts.ClearCart(ctx, "u1"))

	cart, err := carts.GetCart(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, models.Cart{{ProductID: "poster-dog", Quantity: 2}}, cart)
}
