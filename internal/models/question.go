package models

import (
	"time"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	FreeText       QuestionType = "free_text"
	Essay          QuestionType = "essay"
)

// IsChoiceBased reports whether a question type carries options and can be
// scored automatically. Free-text and essay answers are recorded but never
// earn points without review.
func (t QuestionType) IsChoiceBased() bool {
	return t == MultipleChoice || t == TrueFalse
}

type Question struct {
	ID           uint         `json:"id" gorm:"primaryKey"`
	AssessmentID uint         `json:"assessment_id" gorm:"not null;index"`
	Type         QuestionType `json:"type" gorm:"not null;default:multiple_choice;index" validate:"required,oneof=multiple_choice true_false free_text essay"`
	Text         string       `json:"text" gorm:"type:text;not null" validate:"required"`
	Points       int          `json:"points" gorm:"default:1" validate:"min=1,max=100"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	Options []QuestionOption `json:"options,omitempty" gorm:"foreignKey:QuestionID"`
}

type QuestionOption struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	QuestionID uint   `json:"question_id" gorm:"not null;index"`
	Text       string `json:"text" gorm:"not null" validate:"required"`
	IsCorrect  bool   `json:"is_correct" gorm:"default:false"`
}

func (Question) TableName() string {
	return "questions"
}

func (QuestionOption) TableName() string {
	return "question_options"
}
