package validator

import (
	"time"
)

// AssessmentCreateRequest represents the request structure for creating assessments
type AssessmentCreateRequest struct {
	Title            string                  `json:"title" validate:"required,assessment_title"`
	Description      *string                 `json:"description" validate:"omitempty,assessment_description"`
	PassingScore     int                     `json:"passing_score" validate:"passing_score"`
	TimeLimitMinutes int                     `json:"time_limit_minutes" validate:"required,time_limit"`
	MaxAttempts      int                     `json:"max_attempts" validate:"omitempty,min=1,max=10"`
	Deadline         *time.Time              `json:"deadline"`
	Quarter          *string                 `json:"quarter" validate:"omitempty,quarter"`
	Year             *int                    `json:"year" validate:"omitempty,min=2000,max=2100"`
	Questions        []QuestionCreateRequest `json:"questions" validate:"omitempty,dive"`
}

// AssessmentUpdateRequest represents the request structure for updating assessments
type AssessmentUpdateRequest struct {
	Title            *string    `json:"title" validate:"omitempty,assessment_title"`
	Description      *string    `json:"description" validate:"omitempty,assessment_description"`
	PassingScore     *int       `json:"passing_score" validate:"omitempty,passing_score"`
	TimeLimitMinutes *int       `json:"time_limit_minutes" validate:"omitempty,time_limit"`
	IsActive         *bool      `json:"is_active"`
	Deadline         *time.Time `json:"deadline"`
}

// QuestionCreateRequest represents the request structure for creating questions
type QuestionCreateRequest struct {
	Type    string                `json:"type" validate:"required,question_type"`
	Text    string                `json:"text" validate:"required,min=1,max=2000"`
	Points  int                   `json:"points" validate:"omitempty,min=1,max=100"`
	Options []OptionCreateRequest `json:"options" validate:"omitempty,max=10,dive"`
}

// OptionCreateRequest represents one answer option of a question
type OptionCreateRequest struct {
	Text      string `json:"text" validate:"required,max=500"`
	IsCorrect bool   `json:"is_correct"`
}

// SubmitAttemptRequest carries an employee's answers for one attempt
type SubmitAttemptRequest struct {
	AssessmentID uint            `json:"assessment_id" validate:"required"`
	Answers      []AnswerRequest `json:"answers" validate:"required,min=1,dive"`
}

// AnswerRequest is one answered question within a submission
type AnswerRequest struct {
	QuestionID       uint    `json:"question_id" validate:"required"`
	SelectedOptionID *uint   `json:"selected_option_id"`
	TextAnswer       *string `json:"text_answer" validate:"omitempty,max=5000"`
}
