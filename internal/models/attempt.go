package models

import (
	"time"

	"gorm.io/datatypes"
)

type AttemptStatus string

const (
	AttemptAssigned   AttemptStatus = "assigned"
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
)

// AssessmentAttempt is one employee's record of taking one assessment in one
// quarter. The (employee, assessment, quarter, year) tuple is unique; the
// store-level index closes the duplicate-start race.
//
// Lifecycle: assigned (no StartedAt) -> in_progress (StartedAt set) ->
// completed (CompletedAt set, terminal). CompletedAt is never cleared once
// set; Score and Passed are only meaningful when CompletedAt is non-nil.
type AssessmentAttempt struct {
	ID           uint    `json:"id" gorm:"primaryKey"`
	EmployeeID   string  `json:"employee_id" gorm:"not null;size:255;uniqueIndex:idx_attempt_period"`
	AssessmentID uint    `json:"assessment_id" gorm:"not null;uniqueIndex:idx_attempt_period"`
	Quarter      Quarter `json:"quarter" gorm:"not null;size:2;uniqueIndex:idx_attempt_period"`
	Year         int     `json:"year" gorm:"not null;uniqueIndex:idx_attempt_period"`

	Status AttemptStatus `json:"status" gorm:"default:assigned;index"`

	// Timing
	StartedAt        *time.Time `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at" gorm:"index"`
	TimeTakenMinutes int        `json:"time_taken_minutes"`

	// Scoring
	TotalQuestions int  `json:"total_questions"`
	CorrectAnswers int  `json:"correct_answers"`
	Score          int  `json:"score"` // 0-100 percentage
	Passed         bool `json:"passed"`

	// Reserved for reminder-sent tracking; the reminder job itself stays
	// stateless and idempotent.
	ReminderSent bool `json:"reminder_sent" gorm:"default:false"`

	// Raw submitted answer payload, kept for audit.
	Submission datatypes.JSON `json:"submission,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Assessment Assessment   `json:"assessment,omitempty" gorm:"foreignKey:AssessmentID"`
	Employee   User         `json:"employee,omitempty" gorm:"foreignKey:EmployeeID"`
	Answers    []UserAnswer `json:"answers,omitempty" gorm:"foreignKey:AttemptID"`
}

// Started reports whether the attempt has been started by the employee.
func (a *AssessmentAttempt) Started() bool {
	return a.StartedAt != nil
}

// Completed reports whether the attempt reached its terminal state.
func (a *AssessmentAttempt) Completed() bool {
	return a.CompletedAt != nil
}

// UserAnswer is one answered question within an attempt. IsCorrect is true
// only when the selected option is correct and belongs to the question.
type UserAnswer struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	AttemptID  uint `json:"attempt_id" gorm:"not null;index"`
	QuestionID uint `json:"question_id" gorm:"not null;index"`

	SelectedOptionID *uint   `json:"selected_option_id"`
	TextAnswer       *string `json:"text_answer" gorm:"type:text"`
	IsCorrect        bool    `json:"is_correct" gorm:"default:false"`

	AnsweredAt time.Time `json:"answered_at"`

	// Relations
	Question Question `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
}

func (AssessmentAttempt) TableName() string {
	return "assessment_attempts"
}

func (UserAnswer) TableName() string {
	return "user_answers"
}
