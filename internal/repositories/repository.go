package repositories

import "context"

// Repository aggregates all entity repositories behind one handle.
type Repository interface {
	// Assessment domain
	Assessment() AssessmentRepository
	Question() QuestionRepository

	// Attempt domain
	Attempt() AttemptRepository
	Answer() AnswerRepository

	// Employee directory (read-only for the assessment service)
	User() UserRepository

	// Transaction support. The callback receives a repository scoped to the
	// transaction; returning an error rolls everything back.
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager manages repository lifecycle.
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
