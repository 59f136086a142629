// Command intervue-health checks a running backend and prints its health
// check answer. The backend is taken from INTERVUE_URL.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/krshsl/intervue/client"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	cfg, err := client.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	providers, err := client.NewProviders(cfg)
	if errors.Is(err, client.ErrMissingURL) {
		slog.Error("INTERVUE_URL must point at the backend")
		os.Exit(2)
	}
	if err != nil {
		slog.Error("Failed to create client", "error", err)
		os.Exit(1)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	status, err := providers.Client.Health(ctx)
	if err != nil {
		slog.Error("Health check failed", "url", providers.Client.BaseURL(), "error", err)
		os.Exit(1)
	}

	json.NewEncoder(os.Stdout).Encode(status)
	if !status.OK {
		os.Exit(1)
	}
}
