package services

import (
	"log/slog"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Auth        AuthConfig
	Storage     StorageConfig
	WebSocket   WebSocketConfig
	Tasks       TasksConfig
	Log         LogConfig
}

type ServerConfig struct {
	Port            string
	ShutdownTimeout time.Duration
	MaxUploadBytes  int64
}

type DatabaseConfig struct {
	URL          string
	Migrate      bool
	Seed         bool
	LogLevel     string
	MaxIdleConns int
	MaxOpenConns int
}

type AuthConfig struct {
	JWTSecret     string
	AccessExpiry  time.Duration
	SessionExpiry time.Duration
}

type StorageConfig struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	Bucket     string
	UseSSL     bool
	PresignTTL time.Duration
}

type WebSocketConfig struct {
	AllowedOrigins string
}

type TasksConfig struct {
	Interval     time.Duration
	CleanupBatch int
}

type LogConfig struct {
	Level string
}

// IsProduction reports whether cookies should be marked Secure.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// LoadConfig loads configuration from environment variables and config files
func LoadConfig() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("environment", "development")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.shutdown_timeout", "5s")
	viper.SetDefault("server.max_upload_bytes", 10<<20)
	viper.SetDefault("websocket.allowed_origins", "")
	viper.SetDefault("jwt.secret", "")
	viper.SetDefault("jwt.access_expiry", "5m")
	viper.SetDefault("jwt.session_expiry", "720h")
	viper.SetDefault("database.url", "")
	viper.SetDefault("database.migrate", "true")
	viper.SetDefault("database.seed", "true")
	viper.SetDefault("database.log_level", "silent")
	viper.SetDefault("database.max_idle_conns", "10")
	viper.SetDefault("database.max_open_conns", "100")
	viper.SetDefault("storage.endpoint", "")
	viper.SetDefault("storage.bucket", "resumes")
	viper.SetDefault("storage.use_ssl", "false")
	viper.SetDefault("storage.presign_ttl", "15m")
	viper.SetDefault("tasks.interval", "10m")
	viper.SetDefault("tasks.cleanup_batch", "50")
	viper.SetDefault("log.level", "info")

	// Map environment variables to config keys
	viper.BindEnv("environment", "ENVIRONMENT")
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.shutdown_timeout", "SERVER_SHUTDOWN_TIMEOUT")
	viper.BindEnv("server.max_upload_bytes", "SERVER_MAX_UPLOAD_BYTES")
	viper.BindEnv("websocket.allowed_origins", "WEBSOCKET_ALLOWED_ORIGINS")
	viper.BindEnv("jwt.secret", "JWT_SECRET")
	viper.BindEnv("jwt.access_expiry", "JWT_ACCESS_EXPIRY")
	viper.BindEnv("jwt.session_expiry", "JWT_SESSION_EXPIRY")
	viper.BindEnv("database.url", "DATABASE_URL")
	viper.BindEnv("database.migrate", "DATABASE_MIGRATE")
	viper.BindEnv("database.seed", "DATABASE_SEED")
	viper.BindEnv("database.log_level", "DATABASE_LOG_LEVEL")
	viper.BindEnv("database.max_idle_conns", "DATABASE_MAX_IDLE_CONNS")
	viper.BindEnv("database.max_open_conns", "DATABASE_MAX_OPEN_CONNS")
	viper.BindEnv("storage.endpoint", "STORAGE_ENDPOINT")
	viper.BindEnv("storage.access_key", "STORAGE_ACCESS_KEY")
	viper.BindEnv("storage.secret_key", "STORAGE_SECRET_KEY")
	viper.BindEnv("storage.bucket", "STORAGE_BUCKET")
	viper.BindEnv("storage.use_ssl", "STORAGE_USE_SSL")
	viper.BindEnv("storage.presign_ttl", "STORAGE_PRESIGN_TTL")
	viper.BindEnv("tasks.interval", "TASKS_INTERVAL")
	viper.BindEnv("tasks.cleanup_batch", "TASKS_CLEANUP_BATCH")
	viper.BindEnv("log.level", "LOG_LEVEL")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Warn("Config file not found, using defaults and environment variables")
		} else {
			slog.Error("Error reading config file", "error", err)
		}
	}

	return &Config{
		Environment: viper.GetString("environment"),
		Server: ServerConfig{
			Port:            viper.GetString("server.port"),
			ShutdownTimeout: viper.GetDuration("server.shutdown_timeout"),
			MaxUploadBytes:  viper.GetInt64("server.max_upload_bytes"),
		},
		Database: DatabaseConfig{
			URL:          viper.GetString("database.url"),
			Migrate:      viper.GetBool("database.migrate"),
			Seed:         viper.GetBool("database.seed"),
			LogLevel:     viper.GetString("database.log_level"),
			MaxIdleConns: viper.GetInt("database.max_idle_conns"),
			MaxOpenConns: viper.GetInt("database.max_open_conns"),
		},
		Auth: AuthConfig{
			JWTSecret:     viper.GetString("jwt.secret"),
			AccessExpiry:  viper.GetDuration("jwt.access_expiry"),
			SessionExpiry: viper.GetDuration("jwt.session_expiry"),
		},
		Storage: StorageConfig{
			Endpoint:   viper.GetString("storage.endpoint"),
			AccessKey:  viper.GetString("storage.access_key"),
			SecretKey:  viper.GetString("storage.secret_key"),
			Bucket:     viper.GetString("storage.bucket"),
			UseSSL:     viper.GetBool("storage.use_ssl"),
			PresignTTL: viper.GetDuration("storage.presign_ttl"),
		},
		WebSocket: WebSocketConfig{
			AllowedOrigins: viper.GetString("websocket.allowed_origins"),
		},
		Tasks: TasksConfig{
			Interval:     viper.GetDuration("tasks.interval"),
			CleanupBatch: viper.GetInt("tasks.cleanup_batch"),
		},
		Log: LogConfig{
			Level: viper.GetString("log.level"),
		},
	}
}

// SlogLevel maps the configured log level onto slog.
func (c LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}
