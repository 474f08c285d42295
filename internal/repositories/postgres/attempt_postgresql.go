package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/blackdot/ems-assessment-service/internal/models"
	"github.com/blackdot/ems-assessment-service/internal/repositories"
)

type attemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) repositories.AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) Create(ctx context.Context, attempt *models.AssessmentAttempt) error {
	if err := r.db.WithContext(ctx).Create(attempt).Error; err != nil {
		return fmt.Errorf("failed to create attempt: %w", repositories.TranslateError(err))
	}
	return nil
}

func (r *attemptRepository) GetByID(ctx context.Context, id uint) (*models.AssessmentAttempt, error) {
	var attempt models.AssessmentAttempt
	err := r.db.WithContext(ctx).
		Preload("Assessment").
		First(&attempt, id).Error
	if err != nil {
		return nil, repositories.TranslateError(err)
	}
	return &attempt, nil
}

func (r *attemptRepository) Update(ctx context.Context, attempt *models.AssessmentAttempt) error {
	result := r.db.WithContext(ctx).Save(attempt)
	if result.Error != nil {
		return fmt.Errorf("failed to update attempt: %w", repositories.TranslateError(result.Error))
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *attemptRepository) FindByPeriod(ctx context.Context, employeeID string, assessmentID uint, quarter models.Quarter, year int) (*models.AssessmentAttempt, error) {
	var attempt models.AssessmentAttempt
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND assessment_id = ? AND quarter = ? AND year = ?",
			employeeID, assessmentID, quarter, year).
		First(&attempt).Error
	if err != nil {
		return nil, repositories.TranslateError(err)
	}
	return &attempt, nil
}

// Complete writes the terminal fields guarded by completed_at IS NULL, so
// two concurrent submits (or a submit racing the finalization job) can never
// both win. The loser sees RowsAffected == 0.
func (r *attemptRepository) Complete(ctx context.Context, attempt *models.AssessmentAttempt) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.AssessmentAttempt{}).
		Where("id = ? AND completed_at IS NULL", attempt.ID).
		Updates(map[string]interface{}{
			"status":             models.AttemptCompleted,
			"completed_at":       attempt.CompletedAt,
			"time_taken_minutes": attempt.TimeTakenMinutes,
			"total_questions":    attempt.TotalQuestions,
			"correct_answers":    attempt.CorrectAnswers,
			"score":              attempt.Score,
			"passed":             attempt.Passed,
			"submission":         attempt.Submission,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to complete attempt: %w", repositories.TranslateError(result.Error))
	}
	return result.RowsAffected > 0, nil
}

func (r *attemptRepository) List(ctx context.Context, filters repositories.AttemptFilters) ([]*models.AssessmentAttempt, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AssessmentAttempt{})

	if filters.EmployeeID != nil {
		query = query.Where("employee_id = ?", *filters.EmployeeID)
	}
	if filters.AssessmentID != nil {
		query = query.Where("assessment_id = ?", *filters.AssessmentID)
	}
	if filters.Quarter != nil {
		query = query.Where("quarter = ?", *filters.Quarter)
	}
	if filters.Year != nil {
		query = query.Where("year = ?", *filters.Year)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count attempts: %w", err)
	}

	query = applySorting(query, filters.SortBy, filters.SortOrder, "created_at")
	query = applyPagination(query, filters.Limit, filters.Offset)

	var attempts []*models.AssessmentAttempt
	if err := query.Preload("Assessment").Find(&attempts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list attempts: %w", err)
	}
	return attempts, total, nil
}

func (r *attemptRepository) ListByEmployee(ctx context.Context, employeeID string) ([]*models.AssessmentAttempt, error) {
	var attempts []*models.AssessmentAttempt
	err := r.db.WithContext(ctx).
		Preload("Assessment").
		Where("employee_id = ?", employeeID).
		Order("year DESC, quarter DESC, id DESC").
		Find(&attempts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts by employee: %w", err)
	}
	return attempts, nil
}

func (r *attemptRepository) ListByAssessment(ctx context.Context, assessmentID uint) ([]*models.AssessmentAttempt, error) {
	var attempts []*models.AssessmentAttempt
	err := r.db.WithContext(ctx).
		Where("assessment_id = ?", assessmentID).
		Order("id ASC").
		Find(&attempts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts by assessment: %w", err)
	}
	return attempts, nil
}

func (r *attemptRepository) ListByQuarter(ctx context.Context, quarter models.Quarter, year int) ([]*models.AssessmentAttempt, error) {
	var attempts []*models.AssessmentAttempt
	err := r.db.WithContext(ctx).
		Preload("Assessment").
		Where("quarter = ? AND year = ?", quarter, year).
		Order("employee_id ASC, assessment_id ASC").
		Find(&attempts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts by quarter: %w", err)
	}
	return attempts, nil
}

func (r *attemptRepository) ListIncompleteByQuarter(ctx context.Context, quarter models.Quarter, year int) ([]*models.AssessmentAttempt, error) {
	var attempts []*models.AssessmentAttempt
	err := r.db.WithContext(ctx).
		Preload("Assessment").
		Where("quarter = ? AND year = ? AND completed_at IS NULL", quarter, year).
		Order("employee_id ASC, assessment_id ASC").
		Find(&attempts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list incomplete attempts: %w", err)
	}
	return attempts, nil
}
