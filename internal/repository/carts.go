package repository

import (
	"context"
	"fmt"

	"poster-shop/internal/docstore"
	"poster-shop/internal/models"
)

const cartsDocument = "carts.json"

// CartRepository stores one cart per user id in carts.json. Product ids are
// opaque strings here; whether they name a real product is the caller's
// concern.
type CartRepository struct {
	carts *docstore.Collection[models.Cart]
}

// NewCartRepository creates a cart repository backed by store
func NewCartRepository(store *docstore.Store) *CartRepository {
	return &CartRepository{
		carts: docstore.NewCollection[models.Cart](store, cartsDocument),
	}
}

// GetCart returns the user's cart, empty if none has been recorded
func (r *CartRepository) GetCart(ctx context.Context, userID string) (models.Cart, error) {
	carts, err := r.carts.Load(ctx)
	if err != nil {
		return nil, err
	}

	cart, ok := carts[userID]
	if !ok || cart == nil {
		return models.Cart{}, nil
	}
	return cart, nil
}

// AddItem adds quantity of productID to the user's cart. An existing line
// for the same product has its quantity increased; the cart never holds two
// lines for one product. Returns the updated cart.
func (r *CartRepository) AddItem(ctx context.Context, userID, productID string, quantity int) (models.Cart, error) {
	if productID == "" {
		return nil, fmt.Errorf("%w: product id is required", models.ErrValidation)
	}
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be a positive integer, got %d", models.ErrValidation, quantity)
	}

	var updated models.Cart
	err := r.carts.Update(ctx, func(carts map[string]models.Cart) error {
		cart := carts[userID]

		found := false
		for i := range cart {
			if cart[i].ProductID == productID {
				cart[i].Quantity += quantity
				found = true
				break
			}
		}
		if !found {
			cart = append(cart, models.CartItem{ProductID: productID, Quantity: quantity})
		}

		carts[userID] = cart
		updated = cart
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RemoveItem drops the line for productID from the user's cart. Removing a
// product that is not in the cart is a no-op, not an error. Returns the
// updated cart.
func (r *CartRepository) RemoveItem(ctx context.Context, userID, productID string) (models.Cart, error) {
	if productID == "" {
		return nil, fmt.Errorf("%w: product id is required", models.ErrValidation)
	}

	var updated models.Cart
	err := r.carts.Update(ctx, func(carts map[string]models.Cart) error {
		cart := carts[userID]

		filtered := make(models.Cart, 0, len(cart))
		for _, item := range cart {
			if item.ProductID != productID {
				filtered = append(filtered, item)
			}
		}

		carts[userID] = filtered
		updated = filtered
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ClearCart resets the user's cart to an empty sequence
func (r *CartRepository) ClearCart(ctx context.Context, userID string) error {
	return r.carts.Update(ctx, func(carts map[string]models.Cart) error {
		carts[userID] = models.Cart{}
		return nil
	})
}
