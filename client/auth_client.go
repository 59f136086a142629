package client

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// User is the merged auth identity and profile returned by the backend.
type User struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Email       string          `json:"email"`
	Name        *string         `json:"name,omitempty"`
	Image       *string         `json:"image,omitempty"`
	FullName    string          `json:"full_name"`
	AvatarURL   *string         `json:"avatar_url,omitempty"`
	Preferences json.RawMessage `json:"preferences,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Session is what signup and login hand back.
type Session struct {
	User         *User  `json:"user"`
	SessionToken string `json:"session_token"`
	AccessToken  string `json:"access_token"`
	Message      string `json:"message"`
}

type SignUpInput struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name,omitempty"`
	Image    *string `json:"image,omitempty"`
}

type UpdateUserInput struct {
	Email *string `json:"email,omitempty"`
	Name  *string `json:"name,omitempty"`
	Image *string `json:"image,omitempty"`
}

// AuthClient wraps the /auth routes. Calls that need a caller take the
// access token explicitly.
type AuthClient struct {
	c *Client
}

func NewAuthClient(c *Client) *AuthClient {
	return &AuthClient{c: c}
}

func (a *AuthClient) SignUp(ctx context.Context, in SignUpInput) (*Session, error) {
	var s Session
	if err := a.c.do(ctx, http.MethodPost, "/api/v1/auth/signup", in, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (a *AuthClient) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var s Session
	body := map[string]string{"email": email, "password": password}
	if err := a.c.do(ctx, http.MethodPost, "/api/v1/auth/login", body, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SignOut closes the session identified by sessionToken. The server answers
// 400 when given an access token instead.
func (a *AuthClient) SignOut(ctx context.Context, sessionToken string) error {
	return a.c.WithToken(sessionToken).do(ctx, http.MethodPost, "/api/v1/auth/logout", nil, nil)
}

// CurrentUser returns nil without error for an anonymous token.
func (a *AuthClient) CurrentUser(ctx context.Context, token string) (*User, error) {
	var out struct {
		User *User `json:"user"`
	}
	if err := a.c.WithToken(token).do(ctx, http.MethodGet, "/api/v1/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (a *AuthClient) IsAuthenticated(ctx context.Context, token string) (bool, error) {
	var out struct {
		Authenticated bool `json:"authenticated"`
	}
	if err := a.c.WithToken(token).do(ctx, http.MethodGet, "/api/v1/auth/session", nil, &out); err != nil {
		return false, err
	}
	return out.Authenticated, nil
}

func (a *AuthClient) UpdateUser(ctx context.Context, token string, in UpdateUserInput) (*User, error) {
	var out struct {
		User *User `json:"user"`
	}
	if err := a.c.WithToken(token).do(ctx, http.MethodPatch, "/api/v1/auth/me", in, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// DeleteUser removes the caller's identity; the backend drops the profile
// with it.
func (a *AuthClient) DeleteUser(ctx context.Context, token string) error {
	return a.c.WithToken(token).do(ctx, http.MethodDelete, "/api/v1/auth/me", nil, nil)
}
