package repository

import (
	"context"
	"fmt"
	"time"

	"poster-shop/internal/docstore"
	"poster-shop/internal/models"
	"poster-shop/internal/util"

	"github.com/google/uuid"
)

const purchasesDocument = "purchases.json"

// PurchaseRepository stores append-only purchase history per username in
// purchases.json. Purchases are never mutated or deleted once recorded.
type PurchaseRepository struct {
	purchases *docstore.Collection[[]models.Purchase]
}

// NewPurchaseRepository creates a purchase repository backed by store
func NewPurchaseRepository(store *docstore.Store) *PurchaseRepository {
	return &PurchaseRepository{
		purchases: docstore.NewCollection[[]models.Purchase](store, purchasesDocument),
	}
}

// RecordPurchase appends a new purchase to the user's history and returns it.
// The item list is copied, so the caller's cart slice can be mutated later
// without touching the recorded purchase. Ids are random uuids; timestamps
// alone are not collision-safe under concurrent checkouts.
func (r *PurchaseRepository) RecordPurchase(ctx context.Context, username string, items []models.CartItem) (*models.Purchase, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", models.ErrValidation)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: purchase must contain at least one item", models.ErrValidation)
	}

	snapshot := make([]models.CartItem, len(items))
	copy(snapshot, items)

	purchase := models.Purchase{
		ID:    uuid.NewString(),
		Items: snapshot,
		Date:  models.Timestamp(time.Now()),
	}

	err := r.purchases.Update(ctx, func(purchases map[string][]models.Purchase) error {
		purchases[username] = append(purchases[username], purchase)
		return nil
	})
	if err != nil {
		return nil, err
	}

	util.PurchasesRecordedTotal.Inc()
	return &purchase, nil
}

// ListPurchases returns the user's purchase history in recording order,
// empty if the user has never checked out
func (r *PurchaseRepository) ListPurchases(ctx context.Context, username string) ([]models.Purchase, error) {
	purchases, err := r.purchases.Load(ctx)
	if err != nil {
		return nil, err
	}

	history, ok := purchases[username]
	if !ok {
		return []models.Purchase{}, nil
	}
	return history, nil
}
