package repositories

import (
	"context"
	"time"

	"github.com/blackdot/ems-assessment-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type AssessmentFilters struct {
	IsActive  *bool           `json:"is_active"`
	Quarter   *models.Quarter `json:"quarter"`
	Year      *int            `json:"year"`
	Limit     int             `json:"limit"`
	Offset    int             `json:"offset"`
	SortBy    string          `json:"sort_by"`    // "created_at", "title"
	SortOrder string          `json:"sort_order"` // "asc", "desc"
}

type AttemptFilters struct {
	EmployeeID   *string               `json:"employee_id"`
	AssessmentID *uint                 `json:"assessment_id"`
	Quarter      *models.Quarter       `json:"quarter"`
	Year         *int                  `json:"year"`
	Status       *models.AttemptStatus `json:"status"`
	DateFrom     *time.Time            `json:"date_from"`
	DateTo       *time.Time            `json:"date_to"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
	SortBy       string                `json:"sort_by"`
	SortOrder    string                `json:"sort_order"`
}

type UserFilters struct {
	Query  string `json:"query"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

// ===== STATISTICS STRUCTS =====

type AssessmentStats struct {
	TotalAttempts     int     `json:"total_attempts"`
	CompletedAttempts int     `json:"completed_attempts"`
	PendingAttempts   int     `json:"pending_attempts"`
	PassRate          float64 `json:"pass_rate"`
	AverageScore      float64 `json:"average_score"`
	EmployeesTaken    int     `json:"employees_taken"`
}

// ===== ENTITY REPOSITORIES =====

type AssessmentRepository interface {
	Create(ctx context.Context, assessment *models.Assessment) error
	GetByID(ctx context.Context, id uint) (*models.Assessment, error)
	GetByIDWithQuestions(ctx context.Context, id uint) (*models.Assessment, error)
	Update(ctx context.Context, assessment *models.Assessment) error
	List(ctx context.Context, filters AssessmentFilters) ([]*models.Assessment, int64, error)
	ListActive(ctx context.Context) ([]*models.Assessment, error)
	GetStats(ctx context.Context, id uint) (*AssessmentStats, error)
}

type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	GetByAssessment(ctx context.Context, assessmentID uint) ([]*models.Question, error)
	CountByAssessment(ctx context.Context, assessmentID uint) (int64, error)
	GetOption(ctx context.Context, optionID uint) (*models.QuestionOption, error)
	Delete(ctx context.Context, id uint) error
}

type AttemptRepository interface {
	Create(ctx context.Context, attempt *models.AssessmentAttempt) error
	GetByID(ctx context.Context, id uint) (*models.AssessmentAttempt, error)
	Update(ctx context.Context, attempt *models.AssessmentAttempt) error

	// FindByPeriod locates the unique attempt for the tuple
	// (employee, assessment, quarter, year), or ErrNotFound.
	FindByPeriod(ctx context.Context, employeeID string, assessmentID uint, quarter models.Quarter, year int) (*models.AssessmentAttempt, error)

	// Complete persists the terminal fields of an attempt, guarded by
	// completed_at IS NULL. Returns false without error when another writer
	// completed the attempt first.
	Complete(ctx context.Context, attempt *models.AssessmentAttempt) (bool, error)

	List(ctx context.Context, filters AttemptFilters) ([]*models.AssessmentAttempt, int64, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]*models.AssessmentAttempt, error)
	ListByAssessment(ctx context.Context, assessmentID uint) ([]*models.AssessmentAttempt, error)
	ListByQuarter(ctx context.Context, quarter models.Quarter, year int) ([]*models.AssessmentAttempt, error)
	ListIncompleteByQuarter(ctx context.Context, quarter models.Quarter, year int) ([]*models.AssessmentAttempt, error)
}

type AnswerRepository interface {
	CreateBatch(ctx context.Context, answers []*models.UserAnswer) error
	GetByAttempt(ctx context.Context, attemptID uint) ([]*models.UserAnswer, error)
}

// UserRepository is the employee directory port. Backed by Casdoor in
// production; the service only ever reads from it.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	ListActiveByRole(ctx context.Context, role models.UserRole) ([]*models.User, error)
	List(ctx context.Context, filters UserFilters) ([]*models.User, int64, error)
}
