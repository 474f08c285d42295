package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/blackdot/ems-assessment-service/internal/cache"
	"github.com/blackdot/ems-assessment-service/internal/models"
	"github.com/blackdot/ems-assessment-service/internal/repositories"
	"github.com/blackdot/ems-assessment-service/internal/validator"
)

type assessmentService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.BusinessValidator
	cache     *cache.CacheManager
}

func NewAssessmentService(repo repositories.Repository, logger *slog.Logger, validator *validator.BusinessValidator, cacheManager *cache.CacheManager) AssessmentService {
	if cacheManager == nil {
		cacheManager = cache.NewCacheManager(nil)
	}
	return &assessmentService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		cache:     cacheManager,
	}
}

// ===== CATALOG OPERATIONS =====

func (s *assessmentService) Create(ctx context.Context, req *validator.AssessmentCreateRequest) (*models.Assessment, error) {
	s.logger.InfoContext(ctx, "Creating assessment", "title", req.Title)

	if verr := s.validator.ValidateAssessmentCreate(req); len(verr) > 0 {
		return nil, verr
	}
	for i := range req.Questions {
		if verr := s.validator.ValidateQuestionCreate(&req.Questions[i]); len(verr) > 0 {
			return nil, verr
		}
	}

	assessment := &models.Assessment{
		Title:            req.Title,
		Description:      req.Description,
		PassingScore:     req.PassingScore,
		TimeLimitMinutes: req.TimeLimitMinutes,
		MaxAttempts:      req.MaxAttempts,
		Deadline:         req.Deadline,
		IsActive:         true,
	}
	if req.Quarter != nil {
		q := models.Quarter(*req.Quarter)
		assessment.Quarter = &q
	}
	assessment.Year = req.Year
	if assessment.MaxAttempts == 0 {
		assessment.MaxAttempts = 1
	}

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Assessment().Create(ctx, assessment); err != nil {
			return err
		}
		for i := range req.Questions {
			question := buildQuestion(assessment.ID, &req.Questions[i])
			if err := txRepo.Question().Create(ctx, question); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create assessment: %w", err)
	}

	s.logger.InfoContext(ctx, "Assessment created",
		"assessment_id", assessment.ID,
		"question_count", len(req.Questions))

	return s.GetByID(ctx, assessment.ID)
}

func (s *assessmentService) GetByID(ctx context.Context, id uint) (*models.Assessment, error) {
	assessment, err := s.repo.Assessment().GetByIDWithQuestions(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	assessment.QuestionCount = len(assessment.Questions)
	for i := range assessment.Questions {
		assessment.TotalPoints += assessment.Questions[i].Points
	}
	return assessment, nil
}

func (s *assessmentService) Update(ctx context.Context, id uint, req *validator.AssessmentUpdateRequest) (*models.Assessment, error) {
	assessment, err := s.repo.Assessment().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	if verr := s.validator.ValidateAssessmentUpdate(req, assessment); len(verr) > 0 {
		return nil, verr
	}

	if req.Title != nil {
		assessment.Title = *req.Title
	}
	if req.Description != nil {
		assessment.Description = req.Description
	}
	if req.PassingScore != nil {
		assessment.PassingScore = *req.PassingScore
	}
	if req.TimeLimitMinutes != nil {
		assessment.TimeLimitMinutes = *req.TimeLimitMinutes
	}
	if req.IsActive != nil {
		assessment.IsActive = *req.IsActive
	}
	if req.Deadline != nil {
		assessment.Deadline = req.Deadline
	}

	if err := s.repo.Assessment().Update(ctx, assessment); err != nil {
		return nil, fmt.Errorf("failed to update assessment: %w", err)
	}

	s.cache.InvalidateAssessment(ctx, id)
	s.logger.InfoContext(ctx, "Assessment updated", "assessment_id", id)

	return s.GetByID(ctx, id)
}

// Deactivate retires an assessment from future quarters. Attempts already
// recorded against it stay untouched, so this is a soft operation.
func (s *assessmentService) Deactivate(ctx context.Context, id uint) error {
	assessment, err := s.repo.Assessment().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrAssessmentNotFound
		}
		return fmt.Errorf("failed to get assessment: %w", err)
	}

	if !assessment.IsActive {
		return nil
	}

	assessment.IsActive = false
	if err := s.repo.Assessment().Update(ctx, assessment); err != nil {
		return fmt.Errorf("failed to deactivate assessment: %w", err)
	}

	s.cache.InvalidateAssessment(ctx, id)
	s.logger.InfoContext(ctx, "Assessment deactivated", "assessment_id", id)
	return nil
}

func (s *assessmentService) List(ctx context.Context, filters repositories.AssessmentFilters) ([]*models.Assessment, int64, error) {
	return s.repo.Assessment().List(ctx, filters)
}

func (s *assessmentService) GetStats(ctx context.Context, id uint) (*repositories.AssessmentStats, error) {
	if _, err := s.repo.Assessment().GetByID(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	var stats repositories.AssessmentStats
	cacheKey := fmt.Sprintf("assessment:%d", id)
	err := s.cache.Stats.CacheOrExecute(ctx, cacheKey, &stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		return s.repo.Assessment().GetStats(ctx, id)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment stats: %w", err)
	}
	return &stats, nil
}

// ===== QUESTION MANAGEMENT =====

func (s *assessmentService) AddQuestion(ctx context.Context, assessmentID uint, req *validator.QuestionCreateRequest) (*models.Question, error) {
	if verr := s.validator.ValidateQuestionCreate(req); len(verr) > 0 {
		return nil, verr
	}

	if _, err := s.repo.Assessment().GetByID(ctx, assessmentID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	question := buildQuestion(assessmentID, req)
	if err := s.repo.Question().Create(ctx, question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	s.cache.InvalidateAssessment(ctx, assessmentID)
	s.logger.InfoContext(ctx, "Question added",
		"assessment_id", assessmentID,
		"question_id", question.ID)

	return s.repo.Question().GetByID(ctx, question.ID)
}

func (s *assessmentService) ListQuestions(ctx context.Context, assessmentID uint) ([]*models.Question, error) {
	if _, err := s.repo.Assessment().GetByID(ctx, assessmentID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	return s.repo.Question().GetByAssessment(ctx, assessmentID)
}

func (s *assessmentService) DeleteQuestion(ctx context.Context, assessmentID, questionID uint) error {
	question, err := s.repo.Question().GetByID(ctx, questionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to get question: %w", err)
	}
	if question.AssessmentID != assessmentID {
		return ErrQuestionNotFound
	}

	if err := s.repo.Question().Delete(ctx, questionID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to delete question: %w", err)
	}

	s.cache.InvalidateAssessment(ctx, assessmentID)
	s.logger.InfoContext(ctx, "Question deleted",
		"assessment_id", assessmentID,
		"question_id", questionID)
	return nil
}

func buildQuestion(assessmentID uint, req *validator.QuestionCreateRequest) *models.Question {
	question := &models.Question{
		AssessmentID: assessmentID,
		Type:         models.QuestionType(req.Type),
		Text:         req.Text,
		Points:       req.Points,
	}
	if question.Points == 0 {
		question.Points = 1
	}
	for _, opt := range req.Options {
		question.Options = append(question.Options, models.QuestionOption{
			Text:      opt.Text,
			IsCorrect: opt.IsCorrect,
		})
	}
	return question
}
