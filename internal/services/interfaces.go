package services

import (
	"context"
	"time"

	"github.com/blackdot/ems-assessment-service/internal/models"
	"github.com/blackdot/ems-assessment-service/internal/repositories"
	"github.com/blackdot/ems-assessment-service/internal/validator"
)

// ===== REQUEST / RESPONSE DTOS =====

type StartAttemptRequest struct {
	AssessmentID uint `json:"assessment_id" validate:"required"`
}

// AttemptResponse is the wire representation of an attempt.
type AttemptResponse struct {
	ID               uint                 `json:"id"`
	EmployeeID       string               `json:"employee_id"`
	AssessmentID     uint                 `json:"assessment_id"`
	AssessmentTitle  string               `json:"assessment_title,omitempty"`
	Quarter          models.Quarter       `json:"quarter"`
	Year             int                  `json:"year"`
	Status           models.AttemptStatus `json:"status"`
	StartedAt        *time.Time           `json:"started_at,omitempty"`
	CompletedAt      *time.Time           `json:"completed_at,omitempty"`
	TimeTakenMinutes int                  `json:"time_taken_minutes"`
	TotalQuestions   int                  `json:"total_questions"`
	CorrectAnswers   int                  `json:"correct_answers"`
	Score            int                  `json:"score"`
	Passed           bool                 `json:"passed"`
}

// SubmitResultResponse extends the attempt view with per-question grading.
type SubmitResultResponse struct {
	Attempt AttemptResponse `json:"attempt"`
	Answers []ScoredAnswer  `json:"answers"`
}

// QuarterlySummaryResponse aggregates one quarter's attempts.
type QuarterlySummaryResponse struct {
	Quarter           models.Quarter     `json:"quarter"`
	Year              int                `json:"year"`
	TotalAttempts     int                `json:"total_attempts"`
	CompletedAttempts int                `json:"completed_attempts"`
	PassedAttempts    int                `json:"passed_attempts"`
	Attempts          []*AttemptResponse `json:"attempts"`
}

// ===== SERVICE INTERFACES =====

// AttemptService drives the attempt lifecycle for employees.
type AttemptService interface {
	// Start begins the employee's attempt for the current quarter. A
	// scheduler-assigned attempt is claimed; a started or completed one is
	// rejected with ErrAttemptAlreadyCompleted.
	Start(ctx context.Context, req *StartAttemptRequest, employeeID string) (*AttemptResponse, error)

	// Submit grades the answers and completes the attempt.
	Submit(ctx context.Context, req *validator.SubmitAttemptRequest, employeeID string) (*SubmitResultResponse, error)

	GetByID(ctx context.Context, attemptID uint) (*AttemptResponse, error)
	GetEmployeeResults(ctx context.Context, employeeID string) ([]*AttemptResponse, error)
	GetAssessmentResults(ctx context.Context, assessmentID uint) ([]*AttemptResponse, error)
	GetQuarterlyResults(ctx context.Context, quarter models.Quarter, year int) (*QuarterlySummaryResponse, error)
}

// AssessmentService manages the assessment catalog.
type AssessmentService interface {
	Create(ctx context.Context, req *validator.AssessmentCreateRequest) (*models.Assessment, error)
	GetByID(ctx context.Context, id uint) (*models.Assessment, error)
	Update(ctx context.Context, id uint, req *validator.AssessmentUpdateRequest) (*models.Assessment, error)
	Deactivate(ctx context.Context, id uint) error
	List(ctx context.Context, filters repositories.AssessmentFilters) ([]*models.Assessment, int64, error)
	GetStats(ctx context.Context, id uint) (*repositories.AssessmentStats, error)

	AddQuestion(ctx context.Context, assessmentID uint, req *validator.QuestionCreateRequest) (*models.Question, error)
	ListQuestions(ctx context.Context, assessmentID uint) ([]*models.Question, error)
	DeleteQuestion(ctx context.Context, assessmentID, questionID uint) error
}

// ServiceManager wires and owns the service instances.
type ServiceManager interface {
	Attempt() AttemptService
	Assessment() AssessmentService
	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
