package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/krshsl/intervue/auth"
	"github.com/krshsl/intervue/models"
)

// SeedRepository is what the seeder reads and writes.
type SeedRepository interface {
	GetQuestionByTitle(ctx context.Context, title string) (*models.Question, error)
	CreateQuestion(ctx context.Context, question *models.Question) error
	GetResourceByURL(ctx context.Context, url string) (*models.Resource, error)
	CreateResource(ctx context.Context, resource *models.Resource) error
	GetCompanyByName(ctx context.Context, name string) (*models.Company, error)
	CreateCompany(ctx context.Context, company *models.Company) error
	CreateJobPosting(ctx context.Context, posting *models.JobPosting) error
}

// UserCreator registers demo accounts through the normal signup path so
// their profiles are created by the same callbacks.
type UserCreator interface {
	CreateUser(ctx context.Context, in auth.CreateUserInput) (*models.AuthUser, error)
}

// DatabaseSeeder handles database seeding operations
type DatabaseSeeder struct {
	repo  SeedRepository
	users UserCreator
}

// NewDatabaseSeeder creates a new database seeder. users may be nil, in
// which case no demo accounts are created.
func NewDatabaseSeeder(repo SeedRepository, users UserCreator) *DatabaseSeeder {
	return &DatabaseSeeder{repo: repo, users: users}
}

func strPtr(s string) *string { return &s }

var defaultQuestions = []models.Question{
	{
		Title:      "Tell me about yourself",
		Body:       "Walk me through your background and what brings you to this role.",
		Tags:       pq.StringArray{"behavioral", "intro"},
		Difficulty: strPtr("easy"),
	},
	{
		Title:      "A conflict with a teammate",
		Body:       "Describe a time you disagreed with a teammate. How did you resolve it?",
		Tags:       pq.StringArray{"behavioral"},
		Difficulty: strPtr("medium"),
	},
	{
		Title:        "Design a URL shortener",
		Body:         "Design a service that turns long URLs into short links and redirects visitors.",
		Tags:         pq.StringArray{"system_design"},
		Difficulty:   strPtr("medium"),
		SampleAnswer: strPtr("Cover key generation, storage choice, read-heavy caching and redirect latency."),
	},
	{
		Title:      "Two sum",
		Body:       "Given an array of integers and a target, return the indices of two numbers that add up to the target.",
		Tags:       pq.StringArray{"algorithms", "technical"},
		Difficulty: strPtr("easy"),
	},
	{
		Title:      "Rate limiter",
		Body:       "How would you limit each API client to N requests per minute across many servers?",
		Tags:       pq.StringArray{"system_design", "technical"},
		Difficulty: strPtr("hard"),
	},
}

var defaultResources = []models.Resource{
	{
		Title: "The STAR method for behavioral interviews",
		URL:   "https://www.themuse.com/advice/star-interview-method",
		Type:  strPtr("article"),
		Tags:  pq.StringArray{"behavioral"},
	},
	{
		Title: "System Design Primer",
		URL:   "https://github.com/donnemartin/system-design-primer",
		Type:  strPtr("course"),
		Tags:  pq.StringArray{"system_design"},
	},
	{
		Title: "Cracking the Coding Interview",
		URL:   "https://www.crackingthecodinginterview.com/",
		Type:  strPtr("book"),
		Tags:  pq.StringArray{"algorithms", "technical"},
	},
}

var demoUsers = []auth.CreateUserInput{
	{Email: "test@example.com", Password: "password", Name: strPtr("Test User")},
	{Email: "demo@example.com", Password: "password", Name: strPtr("Demo User")},
}

// SeedDatabase seeds the database with initial data (idempotent)
func (s *DatabaseSeeder) SeedDatabase(ctx context.Context) error {
	var errs []error

	for _, q := range defaultQuestions {
		if err := s.seedQuestion(ctx, q); err != nil {
			slog.Error("Failed to seed question", "title", q.Title, "error", err)
			errs = append(errs, err)
		}
	}

	for _, res := range defaultResources {
		if err := s.seedResource(ctx, res); err != nil {
			slog.Error("Failed to seed resource", "url", res.URL, "error", err)
			errs = append(errs, err)
		}
	}

	if err := s.seedCompany(ctx); err != nil {
		slog.Error("Failed to seed company", "error", err)
		errs = append(errs, err)
	}

	if s.users != nil {
		for _, u := range demoUsers {
			if err := s.seedUser(ctx, u); err != nil {
				slog.Error("Failed to seed user", "email", u.Email, "error", err)
				errs = append(errs, err)
			}
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	slog.Info("Database seeding completed successfully")
	return nil
}

// seedQuestion seeds a single question (idempotent)
func (s *DatabaseSeeder) seedQuestion(ctx context.Context, q models.Question) error {
	_, err := s.repo.GetQuestionByTitle(ctx, q.Title)
	if err == nil {
		slog.Debug("Question already exists, skipping", "title", q.Title)
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("error checking question %s: %w", q.Title, err)
	}

	if err := s.repo.CreateQuestion(ctx, &q); err != nil {
		return fmt.Errorf("failed to create question %s: %w", q.Title, err)
	}
	slog.Info("Created question", "title", q.Title)
	return nil
}

func (s *DatabaseSeeder) seedResource(ctx context.Context, res models.Resource) error {
	_, err := s.repo.GetResourceByURL(ctx, res.URL)
	if err == nil {
		slog.Debug("Resource already exists, skipping", "url", res.URL)
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("error checking resource %s: %w", res.URL, err)
	}

	if err := s.repo.CreateResource(ctx, &res); err != nil {
		return fmt.Errorf("failed to create resource %s: %w", res.URL, err)
	}
	slog.Info("Created resource", "url", res.URL)
	return nil
}

// seedCompany adds one sample employer with a single posting.
func (s *DatabaseSeeder) seedCompany(ctx context.Context) error {
	const name = "Acme Corp"

	_, err := s.repo.GetCompanyByName(ctx, name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("error checking company %s: %w", name, err)
	}

	company := &models.Company{
		Name:        name,
		Domain:      strPtr("acme.example.com"),
		Description: strPtr("A sample employer used for practice interviews."),
	}
	if err := s.repo.CreateCompany(ctx, company); err != nil {
		return fmt.Errorf("failed to create company %s: %w", name, err)
	}

	posting := &models.JobPosting{
		CompanyID:     company.ID,
		SourceURL:     "https://acme.example.com/careers/backend-engineer",
		Title:         strPtr("Backend Engineer"),
		ExtractedText: strPtr("Build and operate Go services on Postgres. Experience with distributed systems is a plus."),
	}
	if err := s.repo.CreateJobPosting(ctx, posting); err != nil {
		return fmt.Errorf("failed to create job posting: %w", err)
	}

	slog.Info("Created company", "name", name, "company_id", company.ID)
	return nil
}

// seedUser seeds a single user (idempotent)
func (s *DatabaseSeeder) seedUser(ctx context.Context, in auth.CreateUserInput) error {
	_, err := s.users.CreateUser(ctx, in)
	if errors.Is(err, auth.ErrEmailTaken) {
		slog.Debug("User already exists, skipping", "email", in.Email)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create user %s: %w", in.Email, err)
	}

	slog.Info("Created user", "email", in.Email)
	return nil
}
