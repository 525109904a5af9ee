package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"poster-shop/internal/docstore"
	"poster-shop/internal/models"
	"poster-shop/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorderLog captures activity calls in memory
type recorderLog struct {
	mu      sync.Mutex
	entries []string
}

func (r *recorderLog) Log(ctx context.Context, username, activity string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, username+":"+activity)
}

func (r *recorderLog) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.entries...)
}

type checkoutFixture struct {
	users     *repository.UserRepository
	carts     *repository.CartRepository
	purchases *repository.PurchaseRepository
	activity  *recorderLog
	service   *CheckoutService
	user      *models.User
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()

	store, err := docstore.NewStore(t.TempDir())
	require.NoError(t, err)

	carts := repository.NewCartRepository(store)
	users := repository.NewUserRepository(store, carts)
	purchases := repository.NewPurchaseRepository(store)
	activity := &recorderLog{}

	user, err := users.CreateUser(context.Background(), "kat", "secret")
	require.NoError(t, err)

	return &checkoutFixture{
		users:     users,
		carts:     carts,
		purchases: purchases,
		activity:  activity,
		service:   NewCheckoutService(users, carts, purchases, activity),
		user:      user,
	}
}

func TestCheckoutEmptyCartFails(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	_, err := f.service.Checkout(ctx, f.user.ID)
	assert.ErrorIs(t, err, models.ErrEmptyCart)

	history, err := f.purchases.ListPurchases(ctx, "kat")
	require.NoError(t, err)
	assert.Empty(t, history, "a failed checkout must not record a purchase")
	assert.Empty(t, f.activity.all(), "a failed checkout must not log activity")
}

func TestCheckoutUnknownUserFails(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.service.Checkout(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCheckoutRecordsPurchaseClearsCartAndLogs(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	_, err := f.carts.AddItem(ctx, f.user.ID, "poster-a", 2)
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, f.user.ID, "poster-b", 1)
	require.NoError(t, err)

	purchase, err := f.service.Checkout(ctx, f.user.ID)
	require.NoError(t, err)

	assert.NotEmpty(t, purchase.ID)
	assert.Equal(t, []models.CartItem{
		{ProductID: "poster-a", Quantity: 2},
		{ProductID: "poster-b", Quantity: 1},
	}, purchase.Items)

	history, err := f.purchases.ListPurchases(ctx, "kat")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, purchase.ID, history[0].ID)

	cart, err := f.carts.GetCart(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, cart, "checkout must leave the cart empty")

	assert.Equal(t, []string{"kat:checkout"}, f.activity.all())
}

func TestCheckoutPurchaseSurvivesLaterCartMutation(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	_, err := f.carts.AddItem(ctx, f.user.ID, "poster-a", 2)
	require.NoError(t, err)

	purchase, err := f.service.Checkout(ctx, f.user.ID)
	require.NoError(t, err)

	_, err = f.carts.AddItem(ctx, f.user.ID, "poster-a", 40)
	require.NoError(t, err)

	history, err := f.purchases.ListPurchases(ctx, "kat")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 2, history[0].Items[0].Quantity)
	assert.Equal(t, purchase.ID, history[0].ID)
}

// flakyCarts wraps the real cart repository but fails ClearCart on demand
type flakyCarts struct {
	*repository.CartRepository
	failClear bool
}

func (f *flakyCarts) ClearCart(ctx context.Context, userID string) error {
	if f.failClear {
		return fmt.Errorf("disk full")
	}
	return f.CartRepository.ClearCart(ctx, userID)
}

func TestCheckoutReportsPartialSuccessWhenClearFails(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	_, err := f.carts.AddItem(ctx, f.user.ID, "poster-a", 1)
	require.NoError(t, err)

	svc := NewCheckoutService(f.users, &flakyCarts{CartRepository: f.carts, failClear: true}, f.purchases, f.activity)

	purchase, err := svc.Checkout(ctx, f.user.ID)
	require.Error(t, err)

	var partial *PartialCheckoutError
	require.ErrorAs(t, err, &partial)
	require.NotNil(t, purchase, "the recorded purchase must reach the caller")
	assert.Equal(t, purchase.ID, partial.Purchase.ID)

	// Purchase durable, cart intact: re-running checkout stays possible.
	history, err := f.purchases.ListPurchases(ctx, "kat")
	require.NoError(t, err)
	require.Len(t, history, 1)

	cart, err := f.carts.GetCart(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Len(t, cart, 1)
}

func TestConcurrentCheckoutAndAddDoNotCorruptState(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	_, err := f.carts.AddItem(ctx, f.user.ID, "poster-a", 1)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = f.service.Checkout(ctx, f.user.ID)
	}()
	go func() {
		defer wg.Done()
		_, _ = f.carts.AddItem(ctx, f.user.ID, "poster-b", 1)
	}()
	wg.Wait()

	// Whatever interleaving happened, the documents must still parse and
	// every recorded purchase must be non-empty.
	history, err := f.purchases.ListPurchases(ctx, "kat")
	require.NoError(t, err)
	for _, p := range history {
		assert.NotEmpty(t, p.Items)
	}
	_, err = f.carts.GetCart(ctx, f.user.ID)
	assert.NoError(t, err)
}
