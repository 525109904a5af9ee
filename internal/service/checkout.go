package service

import (
	"context"
	"fmt"

	"poster-shop/internal/models"
	"poster-shop/internal/util"

	"go.uber.org/zap"
)

// The checkout workflow depends on narrow interfaces rather than the
// concrete repositories, keeping the ordering logic testable without a
// filesystem. The repositories in internal/repository satisfy them.

// UserStore resolves user ids for checkout
type UserStore interface {
	GetUsernameByID(ctx context.Context, userID string) (string, error)
}

// CartStore is the slice of cart behavior checkout needs. Checkout is the
// only caller that both reads a cart and subsequently clears it within one
// logical operation.
type CartStore interface {
	GetCart(ctx context.Context, userID string) (models.Cart, error)
	ClearCart(ctx context.Context, userID string) error
}

// PurchaseStore records purchases
type PurchaseStore interface {
	RecordPurchase(ctx context.Context, username string, items []models.CartItem) (*models.Purchase, error)
}

// ActivityLog records audit entries without failing the caller
type ActivityLog interface {
	Log(ctx context.Context, username, activity string)
}

// PartialCheckoutError reports a checkout where the purchase was durably
// recorded but the cart could not be cleared afterwards. The caller gets the
// purchase and enough detail to distinguish this from total failure.
type PartialCheckoutError struct {
	Purchase *models.Purchase
	Err      error
}

func (e *PartialCheckoutError) Error() string {
	return fmt.Sprintf("purchase %s recorded but cart not cleared: %v", e.Purchase.ID, e.Err)
}

func (e *PartialCheckoutError) Unwrap() error {
	return e.Err
}

// CheckoutService turns a non-empty cart into a recorded purchase
type CheckoutService struct {
	users     UserStore
	carts     CartStore
	purchases PurchaseStore
	activity  ActivityLog
	logger    *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(users UserStore, carts CartStore, purchases PurchaseStore, activity ActivityLog) *CheckoutService {
	return &CheckoutService{
		users:     users,
		carts:     carts,
		purchases: purchases,
		activity:  activity,
		logger:    util.GetLogger(),
	}
}

// Checkout records the user's cart as a purchase, clears the cart, and logs
// the event. The purchase is recorded before the cart is cleared: if the
// process dies between the two steps, the cart is still intact and the
// purchase already exists, so re-running checkout at worst duplicates a
// purchase entry instead of losing an order. Logging runs last and is
// best-effort.
//
// A clear failure after a successful record comes back as a
// *PartialCheckoutError together with the purchase.
func (s *CheckoutService) Checkout(ctx context.Context, userID string) (*models.Purchase, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.Checkout")
	defer span.End()

	username, err := s.users.GetUsernameByID(ctx, userID)
	if err != nil {
		util.CheckoutsFailedTotal.WithLabelValues("unknown_user").Inc()
		return nil, err
	}

	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		util.CheckoutsFailedTotal.WithLabelValues("storage_error").Inc()
		return nil, err
	}
	if len(cart) == 0 {
		util.CheckoutsFailedTotal.WithLabelValues("empty_cart").Inc()
		return nil, fmt.Errorf("%w: user %q", models.ErrEmptyCart, username)
	}

	purchase, err := s.purchases.RecordPurchase(ctx, username, cart)
	if err != nil {
		util.CheckoutsFailedTotal.WithLabelValues("record_failed").Inc()
		return nil, fmt.Errorf("failed to record purchase: %w", err)
	}

	s.logger.Info("Purchase recorded",
		zap.String("purchase_id", purchase.ID),
		zap.String("username", username),
		zap.Int("items", len(purchase.Items)))

	if err := s.carts.ClearCart(ctx, userID); err != nil {
		util.CheckoutsPartialTotal.Inc()
		s.logger.Error("Checkout recorded but cart not cleared",
			zap.String("purchase_id", purchase.ID),
			zap.String("user_id", userID),
			zap.Error(err))
		return purchase, &PartialCheckoutError{Purchase: purchase, Err: err}
	}

	s.activity.Log(ctx, username, models.ActivityCheckout)
	util.CheckoutsTotal.Inc()

	return purchase, nil
}
