// Package auth is the email/password auth component. It owns the auth_users
// and auth_sessions tables and hands profile bookkeeping to a Callbacks
// implementation supplied by the application.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/krshsl/intervue/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthenticated    = errors.New("not authenticated")

	// ErrSessionTokenRequired is returned when sign-out is given no token or
	// an access token, which is stateless and cannot be revoked.
	ErrSessionTokenRequired = fmt.Errorf("%w: session token required", ErrInvalidInput)
)

const minPasswordLength = 8

// AuthProfile is what the component knows about a user when it asks the
// application to create a profile.
type AuthProfile struct {
	Email string
	Name  *string
	Image *string
}

// Callbacks maps auth records onto application records. Both calls are
// made once per lifecycle event and are not retried.
type Callbacks interface {
	// OnCreateUser creates the local record and returns its id.
	OnCreateUser(ctx context.Context, profile AuthProfile) (string, error)
	// OnDeleteUser removes the local record created for the user.
	OnDeleteUser(ctx context.Context, profileID string) error
}

// Store persists auth users and sessions.
type Store interface {
	CreateAuthUser(ctx context.Context, user *models.AuthUser) error
	GetAuthUser(ctx context.Context, id string) (*models.AuthUser, error)
	GetAuthUserByEmail(ctx context.Context, email string) (*models.AuthUser, error)
	SaveAuthUser(ctx context.Context, user *models.AuthUser) error
	DeleteAuthUser(ctx context.Context, id string) error

	CreateAuthSession(ctx context.Context, session *models.AuthSession) error
	GetAuthSessionByTokenHash(ctx context.Context, tokenHash string) (*models.AuthSession, error)
	DeleteAuthSession(ctx context.Context, tokenHash string) error
	DeleteAuthSessionsForUser(ctx context.Context, authUserID string) error
}

// Auditor records lifecycle events.
type Auditor interface {
	AppendAuditLog(ctx context.Context, actor, action string, details map[string]interface{}) error
}

type Component struct {
	store         Store
	callbacks     Callbacks
	auditor       Auditor
	jwtSecret     []byte
	accessExpiry  time.Duration
	sessionExpiry time.Duration
	bcryptCost    int
	secureCookies bool
	now           func() time.Time
}

type Option func(*Component)

func WithAccessExpiry(d time.Duration) Option {
	return func(c *Component) { c.accessExpiry = d }
}

func WithSessionExpiry(d time.Duration) Option {
	return func(c *Component) { c.sessionExpiry = d }
}

func WithAuditor(a Auditor) Option {
	return func(c *Component) { c.auditor = a }
}

func WithBcryptCost(cost int) Option {
	return func(c *Component) { c.bcryptCost = cost }
}

// WithSecureCookies marks issued cookies Secure. Enable behind HTTPS.
func WithSecureCookies(secure bool) Option {
	return func(c *Component) { c.secureCookies = secure }
}

func WithClock(now func() time.Time) Option {
	return func(c *Component) { c.now = now }
}

func NewComponent(store Store, callbacks Callbacks, jwtSecret string, opts ...Option) *Component {
	c := &Component{
		store:         store,
		callbacks:     callbacks,
		jwtSecret:     []byte(jwtSecret),
		accessExpiry:  5 * time.Minute,
		sessionExpiry: 30 * 24 * time.Hour,
		bcryptCost:    bcrypt.DefaultCost,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type CreateUserInput struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name,omitempty"`
	Image    *string `json:"image,omitempty"`
}

// UpdateUserInput carries the fields to change; nil leaves a field as is.
type UpdateUserInput struct {
	Email *string `json:"email,omitempty"`
	Name  *string `json:"name,omitempty"`
	Image *string `json:"image,omitempty"`
}

// CreateUser registers a new identity and asks the callbacks for a profile.
func (c *Component) CreateUser(ctx context.Context, in CreateUserInput) (*models.AuthUser, error) {
	if strings.TrimSpace(in.Email) == "" || len(in.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: email and a password of at least %d characters are required", ErrInvalidInput, minPasswordLength)
	}

	if err := c.ensureEmailFree(ctx, in.Email); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), c.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	profileID, err := c.callbacks.OnCreateUser(ctx, AuthProfile{Email: in.Email, Name: in.Name, Image: in.Image})
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	ts := c.now()
	user := &models.AuthUser{
		Email:        in.Email,
		Name:         in.Name,
		Image:        in.Image,
		PasswordHash: string(hash),
		UserID:       profileID,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	if err := c.store.CreateAuthUser(ctx, user); err != nil {
		// Undo the profile so a retry with the same email starts clean.
		if cbErr := c.callbacks.OnDeleteUser(ctx, profileID); cbErr != nil {
			slog.Error("Failed to remove orphaned profile", "error", cbErr, "profile_id", profileID)
		}
		// A concurrent signup won the unique index on email.
		if errors.Is(err, models.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create auth user: %w", err)
	}

	c.audit(ctx, profileID, "user.create", map[string]interface{}{"auth_user_id": user.ID})
	slog.Info("User created", "auth_user_id", user.ID, "profile_id", profileID)
	return user, nil
}

// UpdateUser changes auth metadata only. The linked profile is not touched.
func (c *Component) UpdateUser(ctx context.Context, authUserID string, in UpdateUserInput) (*models.AuthUser, error) {
	user, err := c.store.GetAuthUser(ctx, authUserID)
	if err != nil {
		return nil, err
	}

	if in.Email != nil && *in.Email != user.Email {
		if strings.TrimSpace(*in.Email) == "" {
			return nil, fmt.Errorf("%w: email cannot be empty", ErrInvalidInput)
		}
		if err := c.ensureEmailFree(ctx, *in.Email); err != nil {
			return nil, err
		}
		user.Email = *in.Email
	}
	if in.Name != nil {
		user.Name = in.Name
	}
	if in.Image != nil {
		user.Image = in.Image
	}

	if err := c.store.SaveAuthUser(ctx, user); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to update auth user: %w", err)
	}

	c.audit(ctx, user.UserID, "user.update", map[string]interface{}{"auth_user_id": user.ID})
	return user, nil
}

// DeleteUser removes the identity and its sessions, then asks the callbacks
// to remove the linked profile. A profile that is already gone is not an
// error.
func (c *Component) DeleteUser(ctx context.Context, authUserID string) error {
	user, err := c.store.GetAuthUser(ctx, authUserID)
	if err != nil {
		return err
	}

	if err := c.store.DeleteAuthSessionsForUser(ctx, user.ID); err != nil {
		return err
	}
	if err := c.store.DeleteAuthUser(ctx, user.ID); err != nil {
		return err
	}
	if err := c.callbacks.OnDeleteUser(ctx, user.UserID); err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("failed to delete profile: %w", err)
		}
		slog.Warn("Profile already removed", "auth_user_id", user.ID, "profile_id", user.UserID)
	}

	c.audit(ctx, user.UserID, "user.delete", map[string]interface{}{"auth_user_id": user.ID})
	slog.Info("User deleted", "auth_user_id", user.ID, "profile_id", user.UserID)
	return nil
}

func (c *Component) ensureEmailFree(ctx context.Context, email string) error {
	_, err := c.store.GetAuthUserByEmail(ctx, email)
	switch {
	case err == nil:
		return ErrEmailTaken
	case errors.Is(err, models.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("failed to check existing user: %w", err)
	}
}

func (c *Component) audit(ctx context.Context, actor, action string, details map[string]interface{}) {
	if c.auditor == nil {
		return
	}
	if err := c.auditor.AppendAuditLog(ctx, actor, action, details); err != nil {
		slog.Warn("Failed to write audit log", "error", err, "action", action)
	}
}
