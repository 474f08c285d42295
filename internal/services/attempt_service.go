package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/datatypes"

	"github.com/blackdot/ems-assessment-service/internal/events"
	"github.com/blackdot/ems-assessment-service/internal/models"
	"github.com/blackdot/ems-assessment-service/internal/repositories"
	"github.com/blackdot/ems-assessment-service/internal/validator"
)

type attemptService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.BusinessValidator
	publisher events.EventPublisher
	clock     Clock
}

func NewAttemptService(repo repositories.Repository, logger *slog.Logger, validator *validator.BusinessValidator, publisher events.EventPublisher, clock Clock) AttemptService {
	return &attemptService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
		clock:     clock,
	}
}

// ===== CORE ATTEMPT OPERATIONS =====

func (s *attemptService) Start(ctx context.Context, req *StartAttemptRequest, employeeID string) (*AttemptResponse, error) {
	s.logger.InfoContext(ctx, "Starting assessment attempt",
		"assessment_id", req.AssessmentID,
		"employee_id", employeeID)

	if verr := s.validator.Validate(req); len(verr) > 0 {
		return nil, verr
	}

	exists, err := s.repo.User().ExistsByID(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to check employee: %w", err)
	}
	if !exists {
		return nil, ErrEmployeeNotFound
	}

	assessment, err := s.repo.Assessment().GetByID(ctx, req.AssessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	now := s.clock.Now()
	if !assessment.IsActive {
		return nil, ErrAssessmentInactive
	}
	if assessment.Deadline != nil && now.After(*assessment.Deadline) {
		return nil, ErrAssessmentInactive
	}

	quarter, year := models.PeriodOf(now)

	existing, err := s.repo.Attempt().FindByPeriod(ctx, employeeID, req.AssessmentID, quarter, year)
	if err != nil && !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to look up attempt: %w", err)
	}

	if existing != nil {
		// A started or completed attempt closes the period. Only an
		// assignment created by the scheduler can be claimed.
		if existing.Started() || existing.Completed() {
			return nil, ErrAttemptAlreadyCompleted
		}
		return s.claimAssignedAttempt(ctx, existing, assessment, now)
	}

	questionCount, err := s.repo.Question().CountByAssessment(ctx, req.AssessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to count questions: %w", err)
	}

	attempt := &models.AssessmentAttempt{
		EmployeeID:     employeeID,
		AssessmentID:   req.AssessmentID,
		Quarter:        quarter,
		Year:           year,
		Status:         models.AttemptInProgress,
		StartedAt:      &now,
		TotalQuestions: int(questionCount),
	}

	if err := s.repo.Attempt().Create(ctx, attempt); err != nil {
		// The unique period index closes the race between two concurrent
		// starts: the loser lands here.
		if repositories.IsDuplicateKeyError(err) {
			return nil, ErrAttemptAlreadyCompleted
		}
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}

	s.logger.InfoContext(ctx, "Attempt started",
		"attempt_id", attempt.ID,
		"quarter", quarter,
		"year", year)

	attempt.Assessment = *assessment
	return toAttemptResponse(attempt), nil
}

func (s *attemptService) claimAssignedAttempt(ctx context.Context, attempt *models.AssessmentAttempt, assessment *models.Assessment, now time.Time) (*AttemptResponse, error) {
	attempt.Status = models.AttemptInProgress
	attempt.StartedAt = &now

	if attempt.TotalQuestions == 0 {
		count, err := s.repo.Question().CountByAssessment(ctx, attempt.AssessmentID)
		if err != nil {
			return nil, fmt.Errorf("failed to count questions: %w", err)
		}
		attempt.TotalQuestions = int(count)
	}

	if err := s.repo.Attempt().Update(ctx, attempt); err != nil {
		return nil, fmt.Errorf("failed to claim assigned attempt: %w", err)
	}

	s.logger.InfoContext(ctx, "Assigned attempt claimed",
		"attempt_id", attempt.ID,
		"employee_id", attempt.EmployeeID)

	attempt.Assessment = *assessment
	return toAttemptResponse(attempt), nil
}

func (s *attemptService) Submit(ctx context.Context, req *validator.SubmitAttemptRequest, employeeID string) (*SubmitResultResponse, error) {
	s.logger.InfoContext(ctx, "Submitting assessment attempt",
		"assessment_id", req.AssessmentID,
		"employee_id", employeeID,
		"answer_count", len(req.Answers))

	if verr := s.validator.ValidateSubmission(req); len(verr) > 0 {
		return nil, verr
	}

	now := s.clock.Now()
	quarter, year := models.PeriodOf(now)

	attempt, err := s.repo.Attempt().FindByPeriod(ctx, employeeID, req.AssessmentID, quarter, year)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to look up attempt: %w", err)
	}

	if attempt.Completed() {
		return nil, ErrAttemptAlreadyCompleted
	}
	if !attempt.Started() {
		return nil, ErrAttemptNotStarted
	}

	assessment, err := s.repo.Assessment().GetByIDWithQuestions(ctx, req.AssessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	elapsed := ElapsedMinutes(*attempt.StartedAt, now)
	if assessment.TimeLimitMinutes > 0 && elapsed > assessment.TimeLimitMinutes {
		// The attempt stays open; the end-of-quarter job will close it.
		s.logger.WarnContext(ctx, "Submission rejected, time limit exceeded",
			"attempt_id", attempt.ID,
			"elapsed_minutes", elapsed,
			"limit_minutes", assessment.TimeLimitMinutes)
		return nil, ErrAttemptTimeLimitExceeded
	}

	questions := make([]*models.Question, len(assessment.Questions))
	for i := range assessment.Questions {
		questions[i] = &assessment.Questions[i]
	}

	result := ScoreSubmission(questions, req.Answers, assessment.PassingScore)

	submission, err := json.Marshal(req.Answers)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal submission: %w", err)
	}

	attempt.CompletedAt = &now
	attempt.TimeTakenMinutes = elapsed
	attempt.TotalQuestions = result.TotalQuestions
	attempt.CorrectAnswers = result.CorrectAnswers
	attempt.Score = result.Score
	attempt.Passed = result.Passed
	attempt.Status = models.AttemptCompleted
	attempt.Submission = datatypes.JSON(submission)

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		completed, err := txRepo.Attempt().Complete(ctx, attempt)
		if err != nil {
			return err
		}
		if !completed {
			return ErrAttemptAlreadyCompleted
		}

		answers := make([]*models.UserAnswer, 0, len(result.Answers))
		for _, scored := range result.Answers {
			answers = append(answers, &models.UserAnswer{
				AttemptID:        attempt.ID,
				QuestionID:       scored.QuestionID,
				SelectedOptionID: scored.SelectedOptionID,
				TextAnswer:       scored.TextAnswer,
				IsCorrect:        scored.Correct,
				AnsweredAt:       now,
			})
		}
		return txRepo.Answer().CreateBatch(ctx, answers)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Attempt completed",
		"attempt_id", attempt.ID,
		"score", attempt.Score,
		"passed", attempt.Passed)

	s.publishCompletion(ctx, attempt, assessment)

	attempt.Assessment = *assessment
	return &SubmitResultResponse{
		Attempt: *toAttemptResponse(attempt),
		Answers: result.Answers,
	}, nil
}

// publishCompletion emits the completion event; a bus failure never fails
// the submission.
func (s *attemptService) publishCompletion(ctx context.Context, attempt *models.AssessmentAttempt, assessment *models.Assessment) {
	if s.publisher == nil {
		return
	}

	event := events.NewEvent(events.TypeAttemptCompleted, map[string]interface{}{
		"attempt_id":    attempt.ID,
		"employee_id":   attempt.EmployeeID,
		"assessment_id": attempt.AssessmentID,
		"title":         assessment.Title,
		"quarter":       attempt.Quarter,
		"year":          attempt.Year,
		"score":         attempt.Score,
		"passed":        attempt.Passed,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish completion event",
			"attempt_id", attempt.ID,
			"error", err)
	}
}

// ===== RESULT QUERIES =====

func (s *attemptService) GetByID(ctx context.Context, attemptID uint) (*AttemptResponse, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	return toAttemptResponse(attempt), nil
}

func (s *attemptService) GetEmployeeResults(ctx context.Context, employeeID string) ([]*AttemptResponse, error) {
	exists, err := s.repo.User().ExistsByID(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to check employee: %w", err)
	}
	if !exists {
		return nil, ErrEmployeeNotFound
	}

	attempts, err := s.repo.Attempt().ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	return toAttemptResponses(attempts), nil
}

func (s *attemptService) GetAssessmentResults(ctx context.Context, assessmentID uint) ([]*AttemptResponse, error) {
	if _, err := s.repo.Assessment().GetByID(ctx, assessmentID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	attempts, err := s.repo.Attempt().ListByAssessment(ctx, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	return toAttemptResponses(attempts), nil
}

func (s *attemptService) GetQuarterlyResults(ctx context.Context, quarter models.Quarter, year int) (*QuarterlySummaryResponse, error) {
	attempts, err := s.repo.Attempt().ListByQuarter(ctx, quarter, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list quarterly attempts: %w", err)
	}

	summary := &QuarterlySummaryResponse{
		Quarter:  quarter,
		Year:     year,
		Attempts: toAttemptResponses(attempts),
	}
	for _, attempt := range attempts {
		summary.TotalAttempts++
		if attempt.Completed() {
			summary.CompletedAttempts++
			if attempt.Passed {
				summary.PassedAttempts++
			}
		}
	}
	return summary, nil
}

// ===== HELPERS =====

func toAttemptResponse(attempt *models.AssessmentAttempt) *AttemptResponse {
	return &AttemptResponse{
		ID:               attempt.ID,
		EmployeeID:       attempt.EmployeeID,
		AssessmentID:     attempt.AssessmentID,
		AssessmentTitle:  attempt.Assessment.Title,
		Quarter:          attempt.Quarter,
		Year:             attempt.Year,
		Status:           attempt.Status,
		StartedAt:        attempt.StartedAt,
		CompletedAt:      attempt.CompletedAt,
		TimeTakenMinutes: attempt.TimeTakenMinutes,
		TotalQuestions:   attempt.TotalQuestions,
		CorrectAnswers:   attempt.CorrectAnswers,
		Score:            attempt.Score,
		Passed:           attempt.Passed,
	}
}

func toAttemptResponses(attempts []*models.AssessmentAttempt) []*AttemptResponse {
	out := make([]*AttemptResponse, 0, len(attempts))
	for _, attempt := range attempts {
		out = append(out, toAttemptResponse(attempt))
	}
	return out
}
