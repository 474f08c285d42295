package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/blackdot/ems-assessment-service/internal/repositories"
	"github.com/blackdot/ems-assessment-service/internal/repositories/casdoor"
)

// postgresRepository bundles the gorm-backed repositories. The user
// repository is injected separately because the employee directory lives in
// Casdoor, not Postgres, and is therefore never part of a transaction.
type postgresRepository struct {
	db *gorm.DB

	assessment repositories.AssessmentRepository
	question   repositories.QuestionRepository
	attempt    repositories.AttemptRepository
	answer     repositories.AnswerRepository
	user       repositories.UserRepository
}

func NewRepository(db *gorm.DB, userRepo repositories.UserRepository) repositories.Repository {
	return &postgresRepository{
		db:         db,
		assessment: NewAssessmentRepository(db),
		question:   NewQuestionRepository(db),
		attempt:    NewAttemptRepository(db),
		answer:     NewAnswerRepository(db),
		user:       userRepo,
	}
}

func (r *postgresRepository) Assessment() repositories.AssessmentRepository { return r.assessment }
func (r *postgresRepository) Question() repositories.QuestionRepository     { return r.question }
func (r *postgresRepository) Attempt() repositories.AttemptRepository       { return r.attempt }
func (r *postgresRepository) Answer() repositories.AnswerRepository         { return r.answer }
func (r *postgresRepository) User() repositories.UserRepository             { return r.user }

func (r *postgresRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx, r.user))
	})
}

func (r *postgresRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (r *postgresRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// RepositoryConfig bundles the external handles the repository layer needs.
type RepositoryConfig struct {
	DB            *gorm.DB
	RedisClient   *redis.Client
	CasdoorConfig casdoor.CasdoorConfig
}

// repositoryManager implements repositories.RepositoryManager.
type repositoryManager struct {
	config RepositoryConfig
	repo   repositories.Repository
}

func NewRepositoryManager(config RepositoryConfig) repositories.RepositoryManager {
	return &repositoryManager{config: config}
}

func (m *repositoryManager) Initialize() error {
	if m.config.DB == nil {
		return fmt.Errorf("database handle is required")
	}
	userRepo := casdoor.NewUserCasdoor(m.config.CasdoorConfig, m.config.RedisClient)
	m.repo = NewRepository(m.config.DB, userRepo)
	return nil
}

func (m *repositoryManager) GetRepository() repositories.Repository {
	return m.repo
}

func (m *repositoryManager) HealthCheck(ctx context.Context) error {
	return m.repo.Ping(ctx)
}

func (m *repositoryManager) Shutdown(ctx context.Context) error {
	return m.repo.Close()
}
