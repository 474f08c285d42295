package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/blackdot/ems-assessment-service/internal/models"
	"github.com/blackdot/ems-assessment-service/internal/repositories"
)

type assessmentRepository struct {
	db *gorm.DB
}

func NewAssessmentRepository(db *gorm.DB) repositories.AssessmentRepository {
	return &assessmentRepository{db: db}
}

func (r *assessmentRepository) Create(ctx context.Context, assessment *models.Assessment) error {
	if err := r.db.WithContext(ctx).Create(assessment).Error; err != nil {
		return fmt.Errorf("failed to create assessment: %w", repositories.TranslateError(err))
	}
	return nil
}

func (r *assessmentRepository) GetByID(ctx context.Context, id uint) (*models.Assessment, error) {
	var assessment models.Assessment
	err := r.db.WithContext(ctx).First(&assessment, id).Error
	if err != nil {
		return nil, repositories.TranslateError(err)
	}
	return &assessment, nil
}

func (r *assessmentRepository) GetByIDWithQuestions(ctx context.Context, id uint) (*models.Assessment, error) {
	var assessment models.Assessment
	err := r.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.id ASC")
		}).
		Preload("Questions.Options").
		First(&assessment, id).Error
	if err != nil {
		return nil, repositories.TranslateError(err)
	}
	return &assessment, nil
}

func (r *assessmentRepository) Update(ctx context.Context, assessment *models.Assessment) error {
	result := r.db.WithContext(ctx).Save(assessment)
	if result.Error != nil {
		return fmt.Errorf("failed to update assessment: %w", repositories.TranslateError(result.Error))
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *assessmentRepository) List(ctx context.Context, filters repositories.AssessmentFilters) ([]*models.Assessment, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Assessment{})

	if filters.IsActive != nil {
		query = query.Where("is_active = ?", *filters.IsActive)
	}
	if filters.Quarter != nil {
		query = query.Where("quarter = ?", *filters.Quarter)
	}
	if filters.Year != nil {
		query = query.Where("year = ?", *filters.Year)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count assessments: %w", err)
	}

	query = applySorting(query, filters.SortBy, filters.SortOrder, "created_at")
	query = applyPagination(query, filters.Limit, filters.Offset)

	var assessments []*models.Assessment
	if err := query.Find(&assessments).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list assessments: %w", err)
	}
	return assessments, total, nil
}

func (r *assessmentRepository) ListActive(ctx context.Context) ([]*models.Assessment, error) {
	var assessments []*models.Assessment
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&assessments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active assessments: %w", err)
	}
	return assessments, nil
}

func (r *assessmentRepository) GetStats(ctx context.Context, id uint) (*repositories.AssessmentStats, error) {
	stats := &repositories.AssessmentStats{}

	var row struct {
		Total     int64
		Completed int64
		Passed    int64
		AvgScore  *float64
		Employees int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.AssessmentAttempt{}).
		Select(`COUNT(*) AS total,
			COUNT(completed_at) AS completed,
			COUNT(*) FILTER (WHERE passed) AS passed,
			AVG(score) FILTER (WHERE completed_at IS NOT NULL) AS avg_score,
			COUNT(DISTINCT employee_id) AS employees`).
		Where("assessment_id = ?", id).
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute assessment stats: %w", err)
	}

	stats.TotalAttempts = int(row.Total)
	stats.CompletedAttempts = int(row.Completed)
	stats.PendingAttempts = int(row.Total - row.Completed)
	stats.EmployeesTaken = int(row.Employees)
	if row.Completed > 0 {
		stats.PassRate = float64(row.Passed) / float64(row.Completed) * 100
	}
	if row.AvgScore != nil {
		stats.AverageScore = *row.AvgScore
	}
	return stats, nil
}

// applySorting whitelists sort columns; anything unknown falls back to the
// default column descending.
func applySorting(query *gorm.DB, sortBy, sortOrder, defaultCol string) *gorm.DB {
	col := defaultCol
	switch sortBy {
	case "created_at", "title", "score", "completed_at", "year":
		col = sortBy
	}
	order := "DESC"
	if sortOrder == "asc" {
		order = "ASC"
	}
	return query.Order(fmt.Sprintf("%s %s", col, order))
}

func applyPagination(query *gorm.DB, limit, offset int) *gorm.DB {
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}
