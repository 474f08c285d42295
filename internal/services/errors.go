package services

import "errors"

// Service-level errors. Handlers map these to HTTP status codes.
var (
	ErrAssessmentNotFound       = errors.New("assessment not found")
	ErrAssessmentInactive       = errors.New("assessment is not active")
	ErrEmployeeNotFound         = errors.New("employee not found")
	ErrQuestionNotFound         = errors.New("question not found")
	ErrAttemptNotFound          = errors.New("attempt not found")
	ErrAttemptNotStarted        = errors.New("attempt has not been started")
	ErrAttemptAlreadyCompleted  = errors.New("attempt already completed for this period")
	ErrAttemptTimeLimitExceeded = errors.New("attempt time limit exceeded")
)
