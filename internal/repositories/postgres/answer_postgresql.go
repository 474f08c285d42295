package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/blackdot/ems-assessment-service/internal/models"
	"github.com/blackdot/ems-assessment-service/internal/repositories"
)

type answerRepository struct {
	db *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) repositories.AnswerRepository {
	return &answerRepository{db: db}
}

func (r *answerRepository) CreateBatch(ctx context.Context, answers []*models.UserAnswer) error {
	if len(answers) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(answers, 100).Error; err != nil {
		return fmt.Errorf("failed to create answers: %w", repositories.TranslateError(err))
	}
	return nil
}

func (r *answerRepository) GetByAttempt(ctx context.Context, attemptID uint) ([]*models.UserAnswer, error) {
	var answers []*models.UserAnswer
	err := r.db.WithContext(ctx).
		Preload("Question").
		Preload("Question.Options").
		Where("attempt_id = ?", attemptID).
		Order("question_id ASC").
		Find(&answers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	return answers, nil
}
