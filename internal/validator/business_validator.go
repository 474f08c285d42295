package validator

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/blackdot/ems-assessment-service/internal/models"
)

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// ValidationError represents a business validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates a struct against its tags
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	var errors ValidationErrors

	err := bv.validate.Struct(s)
	if err != nil {
		for _, err := range err.(validator.ValidationErrors) {
			errors = append(errors, ValidationError{
				Field:   err.Field(),
				Message: bv.getErrorMessage(err),
				Value:   err.Value(),
				Rule:    err.Tag(),
			})
		}
	}

	return errors
}

// ValidateAssessmentCreate validates assessment creation business rules
func (bv *BusinessValidator) ValidateAssessmentCreate(req *AssessmentCreateRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	if req.Deadline != nil && req.Deadline.Before(time.Now()) {
		errors = append(errors, ValidationError{
			Field:   "deadline",
			Message: "must be in the future",
			Value:   req.Deadline,
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateAssessmentUpdate validates assessment update business rules
func (bv *BusinessValidator) ValidateAssessmentUpdate(req *AssessmentUpdateRequest, existing *models.Assessment) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	if req.Deadline != nil && req.Deadline.Before(time.Now()) {
		errors = append(errors, ValidationError{
			Field:   "deadline",
			Message: "must be in the future",
			Value:   req.Deadline,
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateQuestionCreate validates question creation business rules
func (bv *BusinessValidator) ValidateQuestionCreate(req *QuestionCreateRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	qType := models.QuestionType(req.Type)
	if qType.IsChoiceBased() {
		if len(req.Options) < 2 {
			errors = append(errors, ValidationError{
				Field:   "options",
				Message: "choice-based questions need at least 2 options",
				Value:   len(req.Options),
				Rule:    "business_logic",
			})
		}

		correct := 0
		for i, opt := range req.Options {
			if strings.TrimSpace(opt.Text) == "" {
				errors = append(errors, ValidationError{
					Field:   fmt.Sprintf("options[%d].text", i),
					Message: "option text cannot be empty",
					Value:   opt.Text,
					Rule:    "business_logic",
				})
			}
			if opt.IsCorrect {
				correct++
			}
		}
		if correct == 0 {
			errors = append(errors, ValidationError{
				Field:   "options",
				Message: "choice-based questions need at least one correct option",
				Value:   correct,
				Rule:    "business_logic",
			})
		}
	} else if len(req.Options) > 0 {
		errors = append(errors, ValidationError{
			Field:   "options",
			Message: "free-text questions cannot carry options",
			Value:   len(req.Options),
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateSubmission validates an attempt submission payload
func (bv *BusinessValidator) ValidateSubmission(req *SubmitAttemptRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	seen := make(map[uint]bool, len(req.Answers))
	for i, ans := range req.Answers {
		if seen[ans.QuestionID] {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("answers[%d].question_id", i),
				Message: "duplicate answer for question",
				Value:   ans.QuestionID,
				Rule:    "business_logic",
			})
		}
		seen[ans.QuestionID] = true
	}

	return errors
}

// registerBusinessRules registers custom business rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	// Passing score validation (0-100)
	bv.validate.RegisterValidation("passing_score", func(fl validator.FieldLevel) bool {
		score := fl.Field().Int()
		return score >= 0 && score <= 100
	})

	// Time limit validation (5-480 minutes)
	bv.validate.RegisterValidation("time_limit", func(fl validator.FieldLevel) bool {
		limit := fl.Field().Int()
		return limit >= 5 && limit <= 480
	})

	// Title validation (1-200 characters)
	bv.validate.RegisterValidation("assessment_title", func(fl validator.FieldLevel) bool {
		title := strings.TrimSpace(fl.Field().String())
		return len(title) >= 1 && len(title) <= 200
	})

	// Description validation (max 1000 characters)
	bv.validate.RegisterValidation("assessment_description", func(fl validator.FieldLevel) bool {
		desc := fl.Field().String()
		return len(desc) <= 1000
	})

	// Quarter label validation
	bv.validate.RegisterValidation("quarter", func(fl validator.FieldLevel) bool {
		switch models.Quarter(fl.Field().String()) {
		case models.Q1, models.Q2, models.Q3, models.Q4:
			return true
		}
		return false
	})

	// Question type validation
	bv.validate.RegisterValidation("question_type", func(fl validator.FieldLevel) bool {
		switch models.QuestionType(fl.Field().String()) {
		case models.MultipleChoice, models.TrueFalse, models.FreeText, models.Essay:
			return true
		}
		return false
	})
}

// getErrorMessage returns user-friendly error messages
func (bv *BusinessValidator) getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "passing_score":
		return "must be between 0 and 100"
	case "time_limit":
		return "must be between 5 and 480 minutes"
	case "assessment_title":
		return "must be between 1 and 200 characters"
	case "assessment_description":
		return "must not exceed 1000 characters"
	case "quarter":
		return "must be one of Q1, Q2, Q3, Q4"
	case "question_type":
		return "must be a valid question type"
	default:
		return fmt.Sprintf("validation failed for rule '%s'", err.Tag())
	}
}
