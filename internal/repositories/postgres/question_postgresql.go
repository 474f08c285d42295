package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/blackdot/ems-assessment-service/internal/models"
	"github.com/blackdot/ems-assessment-service/internal/repositories"
)

type questionRepository struct {
	db *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) repositories.QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) Create(ctx context.Context, question *models.Question) error {
	// Options are created alongside the question via the association.
	if err := r.db.WithContext(ctx).Create(question).Error; err != nil {
		return fmt.Errorf("failed to create question: %w", repositories.TranslateError(err))
	}
	return nil
}

func (r *questionRepository) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	var question models.Question
	err := r.db.WithContext(ctx).
		Preload("Options").
		First(&question, id).Error
	if err != nil {
		return nil, repositories.TranslateError(err)
	}
	return &question, nil
}

func (r *questionRepository) GetByAssessment(ctx context.Context, assessmentID uint) ([]*models.Question, error) {
	var questions []*models.Question
	err := r.db.WithContext(ctx).
		Preload("Options").
		Where("assessment_id = ?", assessmentID).
		Order("id ASC").
		Find(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return questions, nil
}

func (r *questionRepository) CountByAssessment(ctx context.Context, assessmentID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("assessment_id = ?", assessmentID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}
	return count, nil
}

func (r *questionRepository) GetOption(ctx context.Context, optionID uint) (*models.QuestionOption, error) {
	var option models.QuestionOption
	err := r.db.WithContext(ctx).First(&option, optionID).Error
	if err != nil {
		return nil, repositories.TranslateError(err)
	}
	return &option, nil
}

func (r *questionRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", id).Delete(&models.QuestionOption{}).Error; err != nil {
			return fmt.Errorf("failed to delete question options: %w", err)
		}
		result := tx.Delete(&models.Question{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete question: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return repositories.ErrNotFound
		}
		return nil
	})
}
