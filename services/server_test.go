package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krshsl/intervue/repository"
)

func TestCheckOrigin(t *testing.T) {
	tests := []struct {
		name           string
		allowedOrigins string
		requestOrigin  string
		expected       bool
	}{
		{
			name:           "Allowed origin - exact match",
			allowedOrigins: "http://localhost,http://example.com",
			requestOrigin:  "http://localhost",
			expected:       true,
		},
		{
			name:           "Allowed origin - second in list",
			allowedOrigins: "http://localhost,http://example.com",
			requestOrigin:  "http://example.com",
			expected:       true,
		},
		{
			name:           "Disallowed origin",
			allowedOrigins: "http://localhost,http://example.com",
			requestOrigin:  "http://malicious.com",
			expected:       false,
		},
		{
			name:           "Empty allowed origins - deny all",
			allowedOrigins: "",
			requestOrigin:  "http://localhost",
			expected:       false,
		},
		{
			name:           "Origin with whitespace in config",
			allowedOrigins: "http://localhost, http://example.com",
			requestOrigin:  "http://example.com",
			expected:       true,
		},
		{
			name:           "Port mismatch - deny",
			allowedOrigins: "http://localhost:5173",
			requestOrigin:  "http://localhost:8080",
			expected:       false,
		},
		{
			name:           "No origin header - non-browser client",
			allowedOrigins: "http://localhost:5173",
			requestOrigin:  "",
			expected:       true,
		},
		{
			name:           "No origin header and nothing configured",
			allowedOrigins: "",
			requestOrigin:  "",
			expected:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			viper.Set("websocket.allowed_origins", tt.allowedOrigins)

			req := httptest.NewRequest("GET", "/api/v1/ws", nil)
			if tt.requestOrigin != "" {
				req.Header.Set("Origin", tt.requestOrigin)
			}

			result := CheckOrigin(req, viper.GetString("websocket.allowed_origins"))
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestHealthCheckNeverGoesBackwards(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := []time.Time{base, base.Add(-time.Minute), base.Add(time.Second)}
	i := 0
	h := NewHealthCheck(func() time.Time {
		now := clock[i]
		i++
		return now
	})

	first := h.Check()
	second := h.Check()
	third := h.Check()

	assert.True(t, first.OK)
	assert.Equal(t, base.UnixMilli(), first.Timestamp)
	assert.Equal(t, first.Timestamp, second.Timestamp)
	assert.Equal(t, base.Add(time.Second).UnixMilli(), third.Timestamp)
}

func TestHealthHandlerBody(t *testing.T) {
	fixed := time.UnixMilli(1700000000123)
	h := NewHealthCheck(func() time.Time { return fixed })

	rec := httptest.NewRecorder()
	h.Handler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"timestamp":1700000000123}`, rec.Body.String())
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func TestReadyHandler(t *testing.T) {
	tests := []struct {
		name     string
		db       Pinger
		status   string
		database string
	}{
		{name: "no database", db: nil, status: "ok", database: "not configured"},
		{name: "database up", db: fakePinger{}, status: "ok", database: "up"},
		{name: "database down", db: fakePinger{err: errors.New("refused")}, status: "degraded", database: "down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Server{db: tt.db}
			rec := httptest.NewRecorder()
			s.readyHandler(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			require.Equal(t, http.StatusOK, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.status, body["status"])
			assert.Equal(t, tt.database, body["database"])
			assert.Equal(t, "not configured", body["storage"])
		})
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := repository.OpenConn(sqlDB, repository.Options{})
	require.NoError(t, err)

	cfg := &Config{Auth: AuthConfig{JWTSecret: "test-secret"}}
	return NewServer(cfg, repository.NewGORMRepository(db), nil)
}

func TestServerRoutes(t *testing.T) {
	router := newTestServer(t).SetupRoutes()

	tests := []struct {
		method string
		path   string
		code   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/v1/healthCheck/check", http.StatusOK},
		{http.MethodGet, "/api/v1/", http.StatusOK},
		{http.MethodGet, "/api/v1/auth/session", http.StatusOK},
		{http.MethodGet, "/api/v1/profile", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/sessions", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/ws", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/resumes", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}
