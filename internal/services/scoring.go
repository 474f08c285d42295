package services

import (
	"time"

	"github.com/blackdot/ems-assessment-service/internal/models"
	"github.com/blackdot/ems-assessment-service/internal/validator"
)

// ScoredAnswer is the grading outcome for a single question.
type ScoredAnswer struct {
	QuestionID       uint    `json:"question_id"`
	SelectedOptionID *uint   `json:"selected_option_id,omitempty"`
	TextAnswer       *string `json:"text_answer,omitempty"`
	Correct          bool    `json:"correct"`
	PointsEarned     int     `json:"points_earned"`
}

// ScoreResult is the aggregate grading outcome for one submission.
type ScoreResult struct {
	TotalQuestions int            `json:"total_questions"`
	CorrectAnswers int            `json:"correct_answers"`
	EarnedPoints   int            `json:"earned_points"`
	TotalPoints    int            `json:"total_points"`
	Score          int            `json:"score"` // 0-100
	Passed         bool           `json:"passed"`
	Answers        []ScoredAnswer `json:"answers"`
}

// ScoreSubmission grades a set of answers against the assessment's
// questions. Only choice-based questions can earn points: a selected option
// must both exist and belong to the question it answers. Free-text answers
// are recorded with zero credit.
//
// The percentage uses integer division, so 5 of 6 points yields 83, not 84.
// An assessment with zero total points scores 0. Passing is inclusive:
// score >= passingScore.
func ScoreSubmission(questions []*models.Question, answers []validator.AnswerRequest, passingScore int) *ScoreResult {
	byQuestion := make(map[uint]validator.AnswerRequest, len(answers))
	for _, ans := range answers {
		byQuestion[ans.QuestionID] = ans
	}

	result := &ScoreResult{
		TotalQuestions: len(questions),
		Answers:        make([]ScoredAnswer, 0, len(questions)),
	}

	for _, question := range questions {
		result.TotalPoints += question.Points

		ans, answered := byQuestion[question.ID]
		if !answered {
			continue
		}

		scored := ScoredAnswer{
			QuestionID:       question.ID,
			SelectedOptionID: ans.SelectedOptionID,
			TextAnswer:       ans.TextAnswer,
		}

		if question.Type.IsChoiceBased() && ans.SelectedOptionID != nil {
			if option := findOption(question, *ans.SelectedOptionID); option != nil && option.IsCorrect {
				scored.Correct = true
				scored.PointsEarned = question.Points
				result.CorrectAnswers++
				result.EarnedPoints += question.Points
			}
		}

		result.Answers = append(result.Answers, scored)
	}

	if result.TotalPoints > 0 {
		result.Score = result.EarnedPoints * 100 / result.TotalPoints
	}
	result.Passed = result.Score >= passingScore

	return result
}

// findOption returns the option only when it belongs to the question. An
// option ID copied from another question never matches.
func findOption(question *models.Question, optionID uint) *models.QuestionOption {
	for i := range question.Options {
		if question.Options[i].ID == optionID {
			return &question.Options[i]
		}
	}
	return nil
}

// ElapsedMinutes reports full minutes between start and now, rounded down.
func ElapsedMinutes(startedAt time.Time, now time.Time) int {
	elapsed := now.Sub(startedAt)
	if elapsed < 0 {
		return 0
	}
	return int(elapsed.Minutes())
}
