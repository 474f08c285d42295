package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/blackdot/ems-assessment-service/internal/cache"
	"github.com/blackdot/ems-assessment-service/internal/events"
	"github.com/blackdot/ems-assessment-service/internal/repositories"
	"github.com/blackdot/ems-assessment-service/internal/validator"
)

// DefaultServiceManager wires the service instances with their shared
// dependencies.
type DefaultServiceManager struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.BusinessValidator
	publisher events.EventPublisher
	cache     *cache.CacheManager
	clock     Clock

	attempt    AttemptService
	assessment AssessmentService
}

func NewDefaultServiceManager(repo repositories.Repository, logger *slog.Logger, validator *validator.BusinessValidator, publisher events.EventPublisher, cacheManager *cache.CacheManager, clock Clock) *DefaultServiceManager {
	if clock == nil {
		clock = NewSystemClock()
	}
	return &DefaultServiceManager{
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
		cache:     cacheManager,
		clock:     clock,
	}
}

func (m *DefaultServiceManager) Initialize(ctx context.Context) error {
	if m.repo == nil {
		return fmt.Errorf("repository is required")
	}

	m.attempt = NewAttemptService(m.repo, m.logger, m.validator, m.publisher, m.clock)
	m.assessment = NewAssessmentService(m.repo, m.logger, m.validator, m.cache)

	if err := m.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	m.logger.InfoContext(ctx, "Services initialized")
	return nil
}

func (m *DefaultServiceManager) Attempt() AttemptService       { return m.attempt }
func (m *DefaultServiceManager) Assessment() AssessmentService { return m.assessment }

func (m *DefaultServiceManager) Shutdown(ctx context.Context) error {
	if m.publisher != nil {
		if err := m.publisher.Close(); err != nil {
			return fmt.Errorf("failed to close event publisher: %w", err)
		}
	}
	m.logger.InfoContext(ctx, "Services shut down")
	return nil
}
