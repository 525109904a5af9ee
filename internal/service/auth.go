package service

import (
	"context"
	"errors"
	"time"

	"poster-shop/internal/models"
	"poster-shop/internal/repository"
	"poster-shop/internal/session"
	"poster-shop/internal/util"

	"go.uber.org/zap"
)

// ErrInvalidCredentials means the username/password pair did not match a
// user. Deliberately a single error for both cases so responses do not leak
// which usernames exist.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidSession means the presented token is missing, expired, or no
// longer matches a live user
var ErrInvalidSession = errors.New("invalid session")

// AuthService handles registration, login, and session checks
type AuthService struct {
	users       *repository.UserRepository
	sessions    *session.Store
	activity    ActivityLog
	sessionTTL  time.Duration
	rememberTTL time.Duration
	logger      *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	users *repository.UserRepository,
	sessions *session.Store,
	activity ActivityLog,
	sessionTTL, rememberTTL time.Duration,
) *AuthService {
	return &AuthService{
		users:       users,
		sessions:    sessions,
		activity:    activity,
		sessionTTL:  sessionTTL,
		rememberTTL: rememberTTL,
		logger:      util.GetLogger(),
	}
}

// Register creates a new user account
func (s *AuthService) Register(ctx context.Context, username, password string) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "AuthService.Register")
	defer span.End()

	user, err := s.users.CreateUser(ctx, username, password)
	if err != nil {
		return nil, err
	}

	util.UsersRegisteredTotal.Inc()
	s.activity.Log(ctx, user.Username, models.ActivityRegister)
	return user, nil
}

// Login verifies credentials and issues a session. rememberMe stretches the
// session lifetime.
func (s *AuthService) Login(ctx context.Context, username, password string, rememberMe bool) (session.Session, error) {
	ctx, span := util.StartSpan(ctx, "AuthService.Login")
	defer span.End()

	user, err := s.users.GetUser(ctx, username)
	if err != nil {
		return session.Session{}, err
	}
	if user == nil || user.Password != password {
		return session.Session{}, ErrInvalidCredentials
	}

	ttl := s.sessionTTL
	if rememberMe {
		ttl = s.rememberTTL
	}

	sess := s.sessions.Create(user.ID, user.Username, ttl)
	s.activity.Log(ctx, user.Username, models.ActivityLogin)
	s.logger.Info("User logged in", zap.String("username", user.Username))
	return sess, nil
}

// Logout discards the session for token. Unknown tokens are a no-op.
func (s *AuthService) Logout(ctx context.Context, token string) {
	sess, ok := s.sessions.Get(token)
	s.sessions.Delete(token)
	if ok {
		s.activity.Log(ctx, sess.Username, models.ActivityLogout)
	}
}

// Authenticate resolves a session token back to its session, verifying the
// user behind it still exists with the same id
func (s *AuthService) Authenticate(ctx context.Context, token string) (session.Session, error) {
	sess, ok := s.sessions.Get(token)
	if !ok {
		return session.Session{}, ErrInvalidSession
	}

	user, err := s.users.GetUser(ctx, sess.Username)
	if err != nil {
		return session.Session{}, err
	}
	if user == nil || user.ID != sess.UserID {
		s.sessions.Delete(token)
		return session.Session{}, ErrInvalidSession
	}
	return sess, nil
}

// IsAdmin reports whether the session belongs to the admin account
func (s *AuthService) IsAdmin(sess session.Session) bool {
	return sess.Username == repository.AdminUsername
}
