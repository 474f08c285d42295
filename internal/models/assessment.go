package models

import (
	"time"
)

// Assessment is a named competency test definition. Assessments are never
// hard-deleted while attempts reference them; deactivation clears IsActive.
type Assessment struct {
	ID               uint       `json:"id" gorm:"primaryKey"`
	Title            string     `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description      *string    `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	PassingScore     int        `json:"passing_score" gorm:"not null;default:70" validate:"min=0,max=100"`
	TimeLimitMinutes int        `json:"time_limit_minutes" gorm:"not null;default:60" validate:"required,min=5,max=480"`
	IsActive         bool       `json:"is_active" gorm:"default:true;index"`
	MaxAttempts      int        `json:"max_attempts" gorm:"default:1" validate:"min=1,max=10"`
	Deadline         *time.Time `json:"deadline"`

	// Optional binding to a specific period; nil means the assessment rolls
	// over every quarter.
	Quarter *Quarter `json:"quarter" gorm:"size:2"`
	Year    *int     `json:"year"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Questions []Question          `json:"questions,omitempty" gorm:"foreignKey:AssessmentID"`
	Attempts  []AssessmentAttempt `json:"-" gorm:"foreignKey:AssessmentID"`

	// Computed fields (not stored)
	QuestionCount int `json:"question_count" gorm:"-"`
	TotalPoints   int `json:"total_points" gorm:"-"`
}

func (Assessment) TableName() string {
	return "assessments"
}
