package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/krshsl/intervue/models"
)

// Options tunes the gorm connection.
type Options struct {
	LogLevel     string
	MaxIdleConns int
	MaxOpenConns int
}

type GORMRepository struct {
	db *gorm.DB
}

func NewGORMRepository(db *gorm.DB) *GORMRepository {
	return &GORMRepository{db: db}
}

// Open connects to PostgreSQL at dsn.
func Open(dsn string, opts Options) (*gorm.DB, error) {
	return open(postgres.Open(dsn), opts)
}

// OpenConn wraps an existing connection, for example one created by sqlmock.
func OpenConn(conn *sql.DB, opts Options) (*gorm.DB, error) {
	return open(postgres.New(postgres.Config{Conn: conn}), opts)
}

func open(dialector gorm.Dialector, opts Options) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.Default.LogMode(parseLogLevel(opts.LogLevel)),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}

	return db, nil
}

func parseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return logger.Silent
	}
}

// Ping checks that the database is reachable.
func (r *GORMRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// now is swapped in tests.
var now = func() time.Time { return time.Now().UTC() }

const (
	pgUniqueViolation     = "23505"
	pgInvalidTextEncoding = "22P02"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// notFound maps gorm's missing-row error onto models.ErrNotFound. A key
// Postgres cannot parse as a uuid cannot match a row either.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) || pgCode(err) == pgInvalidTextEncoding {
		return models.ErrNotFound
	}
	return err
}

// duplicate maps a unique-index violation onto models.ErrDuplicate.
func duplicate(err error) error {
	if pgCode(err) == pgUniqueViolation {
		return fmt.Errorf("%w: %v", models.ErrDuplicate, err)
	}
	return err
}

// Profile operations

func (r *GORMRepository) CreateProfile(ctx context.Context, profile *models.Profile) error {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		slog.Error("Failed to create profile", "error", err)
		return fmt.Errorf("failed to create profile: %w", err)
	}
	slog.Info("Profile created", "profile_id", profile.ID)
	return nil
}

func (r *GORMRepository) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		if err = notFound(err); errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		slog.Error("Failed to get profile", "error", err, "profile_id", id)
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &profile, nil
}

// GetProfileByEmail reads along the by_email index.
func (r *GORMRepository) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&profile).Error; err != nil {
		if err = notFound(err); errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		slog.Error("Failed to get profile by email", "error", err)
		return nil, fmt.Errorf("failed to get profile by email: %w", err)
	}
	return &profile, nil
}

// ProfileUpdate lists the mutable profile fields; nil means unchanged.
type ProfileUpdate struct {
	FullName    *string
	AvatarURL   *string
	Preferences []byte
}

func (r *GORMRepository) UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*models.Profile, error) {
	values := map[string]interface{}{"updated_at": now()}
	if update.FullName != nil {
		values["full_name"] = *update.FullName
	}
	if update.AvatarURL != nil {
		values["avatar_url"] = *update.AvatarURL
	}
	if update.Preferences != nil {
		values["preferences"] = update.Preferences
	}

	res := r.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		slog.Error("Failed to update profile", "error", res.Error, "profile_id", id)
		return nil, fmt.Errorf("failed to update profile: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, models.ErrNotFound
	}

	return r.GetProfile(ctx, id)
}

// DeleteProfile removes exactly the profile with the given id.
func (r *GORMRepository) DeleteProfile(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Profile{})
	if res.Error != nil {
		slog.Error("Failed to delete profile", "error", res.Error, "profile_id", id)
		return fmt.Errorf("failed to delete profile: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	slog.Info("Profile deleted", "profile_id", id)
	return nil
}
