package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/krshsl/intervue/repository"
	"github.com/krshsl/intervue/schema"
	"github.com/krshsl/intervue/services"
	"github.com/krshsl/intervue/storage"
)

func main() {
	config := services.LoadConfig()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: config.Log.SlogLevel()}))
	slog.SetDefault(logger)

	if config.Database.URL == "" {
		slog.Error("DATABASE_URL is not set")
		os.Exit(1)
	}
	if config.Auth.JWTSecret == "" {
		slog.Error("JWT_SECRET is not set")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if config.Database.Migrate {
		if err := schema.Migrate(ctx, config.Database.URL); err != nil {
			slog.Error("Failed to run migrations", "error", err)
			os.Exit(1)
		}
	}

	pool, err := pgxpool.New(ctx, config.Database.URL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()

	db, err := repository.OpenConn(sqlDB, repository.Options{
		LogLevel:     config.Database.LogLevel,
		MaxIdleConns: config.Database.MaxIdleConns,
		MaxOpenConns: config.Database.MaxOpenConns,
	})
	if err != nil {
		slog.Error("Failed to initialize gorm", "error", err)
		os.Exit(1)
	}
	slog.Info("Connected to database")

	var store *storage.Client
	if config.Storage.Endpoint != "" {
		store, err = storage.New(ctx, storage.Config{
			Endpoint:   config.Storage.Endpoint,
			AccessKey:  config.Storage.AccessKey,
			SecretKey:  config.Storage.SecretKey,
			Bucket:     config.Storage.Bucket,
			UseSSL:     config.Storage.UseSSL,
			PresignTTL: config.Storage.PresignTTL,
		})
		if err != nil {
			slog.Error("Failed to connect to object storage", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Warn("STORAGE_ENDPOINT not set, resume uploads disabled")
	}

	repo := repository.NewGORMRepository(db)
	server := services.NewServer(config, repo, store)

	if config.Database.Seed {
		var users services.UserCreator
		if !config.IsProduction() {
			users = server.Auth()
		}
		if err := services.NewDatabaseSeeder(repo, users).SeedDatabase(ctx); err != nil {
			slog.Error("Failed to seed database", "error", err)
		}
	}

	if err := server.Start(ctx); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
	slog.Info("Server exited")
}
