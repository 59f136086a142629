package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/krshsl/intervue/models"
)

// Claims are carried by access tokens.
type Claims struct {
	AuthUserID string `json:"auth_user_id"`
	ProfileID  string `json:"profile_id"`
	Email      string `json:"email"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller.
type Identity struct {
	AuthUserID string `json:"auth_user_id"`
	ProfileID  string `json:"profile_id"`
	Email      string `json:"email"`
}

// SessionMeta is recorded alongside a new session.
type SessionMeta struct {
	IPAddress string
	UserAgent string
}

// Session is returned on sign-in. SessionToken is only ever shown once;
// the store keeps its hash.
type Session struct {
	User         *models.AuthUser `json:"user"`
	SessionToken string           `json:"session_token"`
	AccessToken  string           `json:"access_token"`
	ExpiresAt    time.Time        `json:"expires_at"`
}

// CreateSession verifies credentials and opens a session.
func (c *Component) CreateSession(ctx context.Context, email, password string, meta SessionMeta) (*Session, error) {
	user, err := c.store.GetAuthUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := generateSecureToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	ts := c.now()
	record := &models.AuthSession{
		AuthUserID: user.ID,
		TokenHash:  hashToken(token),
		ExpiresAt:  ts.Add(c.sessionExpiry),
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
		CreatedAt:  ts,
	}
	if err := c.store.CreateAuthSession(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	access, err := c.IssueAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	c.audit(ctx, user.UserID, "session.create", map[string]interface{}{"ip_address": meta.IPAddress})
	slog.Info("Session created", "auth_user_id", user.ID)
	return &Session{User: user, SessionToken: token, AccessToken: access, ExpiresAt: record.ExpiresAt}, nil
}

// DeleteSession signs out the session identified by token.
func (c *Component) DeleteSession(ctx context.Context, token string) error {
	if token == "" || isAccessToken(token) {
		return ErrSessionTokenRequired
	}
	return c.store.DeleteAuthSession(ctx, hashToken(token))
}

// Authenticate resolves either an access token or a session token.
func (c *Component) Authenticate(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	if claims, err := c.parseAccessToken(token); err == nil {
		// The user may have been deleted since the token was issued.
		if _, err := c.store.GetAuthUser(ctx, claims.AuthUserID); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, ErrUnauthenticated
			}
			return nil, fmt.Errorf("failed to load auth user: %w", err)
		}
		return &Identity{AuthUserID: claims.AuthUserID, ProfileID: claims.ProfileID, Email: claims.Email}, nil
	}

	user, err := c.userForSession(ctx, token)
	if err != nil {
		return nil, err
	}
	return &Identity{AuthUserID: user.ID, ProfileID: user.UserID, Email: user.Email}, nil
}

// IsAuthenticated reports whether token identifies a live user.
func (c *Component) IsAuthenticated(ctx context.Context, token string) bool {
	_, err := c.Authenticate(ctx, token)
	return err == nil
}

// RefreshAccessToken exchanges a session token for a new access token.
func (c *Component) RefreshAccessToken(ctx context.Context, sessionToken string) (string, *Identity, error) {
	user, err := c.userForSession(ctx, sessionToken)
	if err != nil {
		return "", nil, err
	}
	access, err := c.IssueAccessToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	return access, &Identity{AuthUserID: user.ID, ProfileID: user.UserID, Email: user.Email}, nil
}

func (c *Component) userForSession(ctx context.Context, token string) (*models.AuthUser, error) {
	session, err := c.store.GetAuthSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	if !session.ExpiresAt.After(c.now()) {
		return nil, ErrUnauthenticated
	}

	user, err := c.store.GetAuthUser(ctx, session.AuthUserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return user, nil
}

// IssueAccessToken signs a short-lived HS256 token for user.
func (c *Component) IssueAccessToken(user *models.AuthUser) (string, error) {
	ts := c.now()
	claims := &Claims{
		AuthUserID: user.ID,
		ProfileID:  user.UserID,
		Email:      user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(ts.Add(c.accessExpiry)),
			IssuedAt:  jwt.NewNumericDate(ts),
			NotBefore: jwt.NewNumericDate(ts),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.jwtSecret)
}

func (c *Component) parseAccessToken(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.jwtSecret, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// isAccessToken reports whether token is shaped like a JWT, signed or not.
// Session tokens are plain hex.
func isAccessToken(token string) bool {
	_, _, err := jwt.NewParser().ParseUnverified(token, &Claims{})
	return err == nil
}

func generateSecureToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// GetAuthUser returns the auth record behind token, or nil when token does
// not authenticate.
func (c *Component) GetAuthUser(ctx context.Context, token string) (*models.AuthUser, error) {
	id, err := c.Authenticate(ctx, token)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			return nil, nil
		}
		return nil, err
	}
	return c.LookupUser(ctx, id.AuthUserID)
}

// LookupUser returns the auth record with the given id.
func (c *Component) LookupUser(ctx context.Context, authUserID string) (*models.AuthUser, error) {
	return c.store.GetAuthUser(ctx, authUserID)
}
