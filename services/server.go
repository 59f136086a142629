package services

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/krshsl/intervue/auth"
	"github.com/krshsl/intervue/repository"
	"github.com/krshsl/intervue/storage"
	ws "github.com/krshsl/intervue/websocket"
)

// Pinger is a dependency the readiness check can ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds all server dependencies
type Server struct {
	config *Config
	repo   *repository.GORMRepository
	store  *storage.Client
	db     Pinger

	auth             *AuthFunctions
	health           *HealthCheck
	tasks            *TaskRunner
	wsHub            *ws.Hub
	upgrader         websocket.Upgrader
	authEndpoints    *AuthEndpoints
	profileEndpoints *ProfileEndpoints
	resumeEndpoints  *ResumeEndpoints
	sessionEndpoints *SessionEndpoints
	catalogEndpoints *CatalogEndpoints
}

// NewServer wires every component onto repo. store may be nil when object
// storage is not configured; resume uploads are then unavailable.
func NewServer(config *Config, repo *repository.GORMRepository, store *storage.Client) *Server {
	s := &Server{
		config: config,
		repo:   repo,
		store:  store,
		db:     repo,
		health: NewHealthCheck(nil),
		wsHub:  ws.NewHub(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return CheckOrigin(r, config.WebSocket.AllowedOrigins)
			},
		},
	}

	component := auth.NewComponent(repo, NewProfileCallbacks(repo), config.Auth.JWTSecret,
		auth.WithAccessExpiry(config.Auth.AccessExpiry),
		auth.WithSessionExpiry(config.Auth.SessionExpiry),
		auth.WithAuditor(repo),
		auth.WithSecureCookies(config.IsProduction()),
	)
	s.auth = NewAuthFunctions(component, repo)

	var remover ObjectRemover
	if store != nil {
		remover = store
		s.resumeEndpoints = NewResumeEndpoints(repo, store, config.Server.MaxUploadBytes)
	}
	s.tasks = NewTaskRunner(repo, remover, config.Tasks)

	s.authEndpoints = NewAuthEndpoints(s.auth)
	s.profileEndpoints = NewProfileEndpoints(repo)
	s.sessionEndpoints = NewSessionEndpoints(repo, s.wsHub)
	s.catalogEndpoints = NewCatalogEndpoints(repo)
	return s
}

// Auth exposes the auth functions, for seeding demo accounts.
func (s *Server) Auth() *AuthFunctions {
	return s.auth
}

// SetupRoutes configures all HTTP routes
func (s *Server) SetupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health.Handler)
	r.Get("/ready", s.readyHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", s.apiV1Handler)
		r.Get("/healthCheck/check", s.health.Handler)

		s.authEndpoints.RegisterRoutes(r)
		s.catalogEndpoints.RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(s.auth.Middleware)
			r.Get("/ws", s.websocketHandlerFunc)
			r.Get("/system/tasks", s.tasks.TasksHandler)

			s.profileEndpoints.RegisterRoutes(r)
			s.sessionEndpoints.RegisterRoutes(r)
			s.catalogEndpoints.RegisterProtectedRoutes(r)
			if s.resumeEndpoints != nil {
				s.resumeEndpoints.RegisterRoutes(r)
			}
		})
	})

	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully. The hub
// and task runner live for the same span.
func (s *Server) Start(ctx context.Context) error {
	port := s.config.Server.Port
	if port == "" {
		port = "8080"
	}

	go s.wsHub.Run(ctx)
	go s.tasks.Start(ctx)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           s.SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server...")
	timeout := s.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		return err
	}

	slog.Info("Server exited")
	return nil
}

// CheckOrigin validates the origin of WebSocket connections to prevent CSRF attacks.
// Browsers always send Origin on a websocket handshake; a request without one
// comes from a non-browser client that still has to pass the auth middleware.
func CheckOrigin(r *http.Request, allowedOriginsStr string) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if allowedOriginsStr == "" {
		slog.Warn("WebSocket connection rejected: no allowed origins configured", "origin", origin)
		return false
	}

	for _, allowed := range strings.Split(allowedOriginsStr, ",") {
		if strings.TrimSpace(allowed) == origin {
			slog.Debug("WebSocket connection accepted", "origin", origin)
			return true
		}
	}

	slog.Warn("WebSocket connection rejected: origin not allowed", "origin", origin, "allowed_origins", allowedOriginsStr)
	return false
}

// readyHandler reports dependency state. It always answers 200 so the body
// can say which part is degraded.
func (s *Server) readyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	dbStatus := "not configured"
	storageStatus := "not configured"

	if s.db != nil {
		dbStatus = "up"
		if err := s.db.Ping(ctx); err != nil {
			slog.Warn("Database ping failed", "error", err)
			dbStatus = "down"
			status = "degraded"
		}
	}
	if s.store != nil {
		storageStatus = "up"
		if err := s.store.Ping(ctx); err != nil {
			slog.Warn("Storage ping failed", "error", err)
			storageStatus = "down"
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   status,
		"database": dbStatus,
		"storage":  storageStatus,
	})
}

func (s *Server) apiV1Handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "API v1", "version": "1.0.0"})
}

// websocketHandlerFunc subscribes the caller to live updates for one of
// their own sessions, given as ?session_id=.
func (s *Server) websocketHandlerFunc(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		http.Error(w, "Session ID is required", http.StatusBadRequest)
		return
	}
	if !isUUID(sessionID) {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	if _, err := s.repo.GetInterviewSession(r.Context(), sessionID, id.ProfileID); err != nil {
		writeError(w, err, "Failed to get session")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed", "error", err)
		return
	}

	client, err := s.wsHub.Subscribe(conn, id.ProfileID, sessionID)
	if err != nil {
		slog.Warn("WebSocket subscribe failed", "error", err, "session_id", sessionID)
		conn.Close()
		return
	}

	slog.Info("WebSocket connection established", "profile_id", id.ProfileID, "session_id", sessionID)
	go client.WritePump()
	client.ReadPump()
}
