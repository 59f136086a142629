package services

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/krshsl/intervue/auth"
)

type AuthEndpoints struct {
	auth *AuthFunctions
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name,omitempty"`
	Image    *string `json:"image,omitempty"`
}

// SessionResponse is returned on signup and login. The tokens are also set
// as cookies; non-browser clients use them as bearer tokens.
type SessionResponse struct {
	User         *CurrentUser `json:"user"`
	SessionToken string       `json:"session_token"`
	AccessToken  string       `json:"access_token"`
	Message      string       `json:"message"`
}

func NewAuthEndpoints(a *AuthFunctions) *AuthEndpoints {
	return &AuthEndpoints{auth: a}
}

func (e *AuthEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", e.SignupHandler)
		r.Post("/login", e.LoginHandler)
		r.Post("/logout", e.LogoutHandler)
		r.Get("/me", e.MeHandler)
		r.Get("/session", e.SessionHandler)

		r.Group(func(r chi.Router) {
			r.Use(e.auth.Middleware)
			r.Patch("/me", e.UpdateHandler)
			r.Delete("/me", e.DeleteHandler)
		})
	})
}

func (e *AuthEndpoints) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := e.auth.CreateUser(r.Context(), auth.CreateUserInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Image:    req.Image,
	})
	if err != nil {
		writeError(w, err, "Signup failed")
		return
	}

	e.startSession(w, r, user.Email, req.Password, http.StatusCreated, "Signup successful")
	slog.Info("User signed up", "auth_user_id", user.ID, "profile_id", user.UserID)
}

func (e *AuthEndpoints) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	e.startSession(w, r, req.Email, req.Password, http.StatusOK, "Login successful")
}

func (e *AuthEndpoints) startSession(w http.ResponseWriter, r *http.Request, email, password string, status int, msg string) {
	session, err := e.auth.CreateSession(r.Context(), email, password, auth.SessionMeta{
		IPAddress: r.RemoteAddr,
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		writeError(w, err, "Login failed")
		return
	}

	current, err := e.auth.mergeProfile(r.Context(), session.User)
	if err != nil {
		writeError(w, err, "Login failed")
		return
	}

	e.auth.SetCookies(w, session)
	writeJSON(w, status, SessionResponse{
		User:         current,
		SessionToken: session.SessionToken,
		AccessToken:  session.AccessToken,
		Message:      msg,
	})
}

// LogoutHandler closes the session named by the session cookie or a bearer
// session token. A bearer access token alone is refused with 400. Cookies
// are cleared either way.
func (e *AuthEndpoints) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	token := auth.TokenFromRequest(r)
	if c, err := r.Cookie(auth.SessionTokenCookie); err == nil && c.Value != "" {
		token = c.Value
	}

	e.auth.ClearCookies(w)
	if err := e.auth.DeleteSession(r.Context(), token); err != nil {
		writeError(w, err, "Logout failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Logout successful"})
}

// MeHandler answers with {"user": null} for anonymous callers.
func (e *AuthEndpoints) MeHandler(w http.ResponseWriter, r *http.Request) {
	user, err := e.auth.GetCurrentUser(r.Context(), auth.TokenFromRequest(r))
	if err != nil {
		writeError(w, err, "Failed to get current user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

func (e *AuthEndpoints) SessionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"authenticated": e.auth.IsAuthenticated(r.Context(), auth.TokenFromRequest(r)),
	})
}

func (e *AuthEndpoints) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req auth.UpdateUserInput
	if !decodeJSON(w, r, &req) {
		return
	}

	if _, err := e.auth.UpdateUser(r.Context(), id.AuthUserID, req); err != nil {
		writeError(w, err, "Failed to update user")
		return
	}

	user, err := e.auth.CurrentUserFor(r.Context(), id)
	if err != nil {
		writeError(w, err, "Failed to get current user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

func (e *AuthEndpoints) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	if err := e.auth.DeleteUser(r.Context(), id.AuthUserID); err != nil {
		writeError(w, err, "Failed to delete user")
		return
	}

	e.auth.ClearCookies(w)
	w.WriteHeader(http.StatusNoContent)
}
