package repository

import (
	"context"
	"fmt"
	"strings"

	"poster-shop/internal/docstore"
	"poster-shop/internal/models"
	"poster-shop/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const usersDocument = "users.json"

// AdminUsername is the seeded administrator account
const AdminUsername = "admin"

// UserRepository stores user records keyed by username in users.json
type UserRepository struct {
	users  *docstore.Collection[models.User]
	carts  *CartRepository
	logger *zap.Logger
}

// NewUserRepository creates a user repository backed by store
func NewUserRepository(store *docstore.Store, carts *CartRepository) *UserRepository {
	return &UserRepository{
		users:  docstore.NewCollection[models.User](store, usersDocument),
		carts:  carts,
		logger: util.GetLogger(),
	}
}

// CreateUser registers a new user and provisions their empty cart.
// Usernames are case-sensitive and never reused; a duplicate fails with
// ErrAlreadyExists and leaves the existing record untouched.
func (r *UserRepository) CreateUser(ctx context.Context, username, password string) (*models.User, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", models.ErrValidation)
	}

	user := models.User{
		ID:       uuid.NewString(),
		Username: username,
		Password: password,
	}

	err := r.users.Update(ctx, func(users map[string]models.User) error {
		if _, ok := users[username]; ok {
			return fmt.Errorf("%w: username %q", models.ErrAlreadyExists, username)
		}
		users[username] = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The cart lives in a different document, so this runs under its own
	// lock. A crash between the two writes leaves a user with no cart
	// record, which readers already treat as an empty cart.
	if err := r.carts.ClearCart(ctx, user.ID); err != nil {
		r.logger.Warn("Failed to provision cart for new user",
			zap.String("user_id", user.ID),
			zap.Error(err))
	}

	r.logger.Info("User created", zap.String("username", username), zap.String("user_id", user.ID))
	return &user, nil
}

// GetUser retrieves a user by username, or nil if no such user exists
func (r *UserRepository) GetUser(ctx context.Context, username string) (*models.User, error) {
	users, err := r.users.Load(ctx)
	if err != nil {
		return nil, err
	}

	user, ok := users[username]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

// GetUsernameByID resolves a user id back to its username. A linear scan is
// fine at this data scale.
func (r *UserRepository) GetUsernameByID(ctx context.Context, userID string) (string, error) {
	users, err := r.users.Load(ctx)
	if err != nil {
		return "", err
	}

	for _, user := range users {
		if user.ID == userID {
			return user.Username, nil
		}
	}
	return "", fmt.Errorf("%w: user id %q", models.ErrNotFound, userID)
}

// EnsureAdmin seeds the admin account if it does not exist yet. The fixed id
// matches the record shipped with earlier deployments.
func (r *UserRepository) EnsureAdmin(ctx context.Context) error {
	return r.users.Update(ctx, func(users map[string]models.User) error {
		if _, ok := users[AdminUsername]; ok {
			return nil
		}
		users[AdminUsername] = models.User{ID: "admin", Username: AdminUsername, Password: "admin"}
		return nil
	})
}

// validateUsername rejects names that cannot round-trip through the
// comma-separated activity log
func validateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("%w: username is required", models.ErrValidation)
	}
	if strings.ContainsAny(username, ",\n\r") {
		return fmt.Errorf("%w: username must not contain commas or line breaks", models.ErrValidation)
	}
	return nil
}
