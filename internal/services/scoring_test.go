package services

import (
	"testing"

	"github.com/blackdot/ems-assessment-service/internal/models"
	"github.com/blackdot/ems-assessment-service/internal/validator"
)

func choiceQuestion(id uint, points int, correctOptionID uint, otherOptionIDs ...uint) *models.Question {
	q := &models.Question{
		ID:     id,
		Type:   models.MultipleChoice,
		Points: points,
		Options: []models.QuestionOption{
			{ID: correctOptionID, QuestionID: id, IsCorrect: true},
		},
	}
	for _, optID := range otherOptionIDs {
		q.Options = append(q.Options, models.QuestionOption{ID: optID, QuestionID: id})
	}
	return q
}

func optionRef(id uint) *uint { return &id }

func TestScoreSubmission_TruncatesPercentage(t *testing.T) {
	// 5 of 6 points is 83.33..., truncated to 83
	questions := []*models.Question{
		choiceQuestion(1, 2, 10, 11),
		choiceQuestion(2, 3, 20, 21),
		choiceQuestion(3, 1, 30, 31),
	}
	answers := []validator.AnswerRequest{
		{QuestionID: 1, SelectedOptionID: optionRef(10)},
		{QuestionID: 2, SelectedOptionID: optionRef(20)},
		{QuestionID: 3, SelectedOptionID: optionRef(31)}, // wrong
	}

	result := ScoreSubmission(questions, answers, 70)

	if result.EarnedPoints != 5 || result.TotalPoints != 6 {
		t.Fatalf("points = %d/%d, want 5/6", result.EarnedPoints, result.TotalPoints)
	}
	if result.Score != 83 {
		t.Errorf("score = %d, want 83 (truncated)", result.Score)
	}
	if result.CorrectAnswers != 2 {
		t.Errorf("correct answers = %d, want 2", result.CorrectAnswers)
	}
	if !result.Passed {
		t.Error("83 >= 70 should pass")
	}
}

func TestScoreSubmission_ZeroTotalPoints(t *testing.T) {
	result := ScoreSubmission(nil, nil, 70)

	if result.Score != 0 {
		t.Errorf("score = %d, want 0 for empty assessment", result.Score)
	}
	if result.Passed {
		t.Error("empty assessment should not pass a 70 threshold")
	}
}

func TestScoreSubmission_PassingBoundaryIsInclusive(t *testing.T) {
	// 7 of 10 points is exactly 70
	questions := []*models.Question{
		choiceQuestion(1, 7, 10),
		choiceQuestion(2, 3, 20),
	}
	answers := []validator.AnswerRequest{
		{QuestionID: 1, SelectedOptionID: optionRef(10)},
	}

	result := ScoreSubmission(questions, answers, 70)

	if result.Score != 70 {
		t.Fatalf("score = %d, want 70", result.Score)
	}
	if !result.Passed {
		t.Error("score equal to passing score should pass")
	}
}

func TestScoreSubmission_ForeignOptionEarnsNothing(t *testing.T) {
	// Option 20 is correct, but for question 2. Using its ID against
	// question 1 must not earn credit.
	questions := []*models.Question{
		choiceQuestion(1, 5, 10, 11),
		choiceQuestion(2, 5, 20, 21),
	}
	answers := []validator.AnswerRequest{
		{QuestionID: 1, SelectedOptionID: optionRef(20)},
	}

	result := ScoreSubmission(questions, answers, 50)

	if result.EarnedPoints != 0 {
		t.Errorf("earned points = %d, want 0 for foreign option", result.EarnedPoints)
	}
	if result.CorrectAnswers != 0 {
		t.Errorf("correct answers = %d, want 0", result.CorrectAnswers)
	}
}

func TestScoreSubmission_FreeTextNeverEarnsPoints(t *testing.T) {
	text := "a thoughtful essay"
	questions := []*models.Question{
		{ID: 1, Type: models.FreeText, Points: 10},
		choiceQuestion(2, 5, 20),
	}
	answers := []validator.AnswerRequest{
		{QuestionID: 1, TextAnswer: &text},
		{QuestionID: 2, SelectedOptionID: optionRef(20)},
	}

	result := ScoreSubmission(questions, answers, 30)

	if result.EarnedPoints != 5 {
		t.Errorf("earned points = %d, want 5 (free-text carries no credit)", result.EarnedPoints)
	}
	// 5 of 15 points, truncated
	if result.Score != 33 {
		t.Errorf("score = %d, want 33", result.Score)
	}

	// The free-text answer is still recorded
	if len(result.Answers) != 2 {
		t.Fatalf("recorded answers = %d, want 2", len(result.Answers))
	}
	if result.Answers[0].TextAnswer == nil || *result.Answers[0].TextAnswer != text {
		t.Error("free-text answer should be recorded verbatim")
	}
}

func TestScoreSubmission_UnansweredQuestionsCountInTotal(t *testing.T) {
	questions := []*models.Question{
		choiceQuestion(1, 5, 10),
		choiceQuestion(2, 5, 20),
	}
	answers := []validator.AnswerRequest{
		{QuestionID: 1, SelectedOptionID: optionRef(10)},
	}

	result := ScoreSubmission(questions, answers, 60)

	if result.TotalQuestions != 2 {
		t.Errorf("total questions = %d, want 2", result.TotalQuestions)
	}
	if result.Score != 50 {
		t.Errorf("score = %d, want 50", result.Score)
	}
	if result.Passed {
		t.Error("50 < 60 should not pass")
	}
}

func TestScoreSubmission_Deterministic(t *testing.T) {
	questions := []*models.Question{
		choiceQuestion(1, 3, 10, 11),
		choiceQuestion(2, 4, 20, 21),
		choiceQuestion(3, 3, 30, 31),
	}
	answers := []validator.AnswerRequest{
		{QuestionID: 3, SelectedOptionID: optionRef(30)},
		{QuestionID: 1, SelectedOptionID: optionRef(11)},
		{QuestionID: 2, SelectedOptionID: optionRef(20)},
	}

	first := ScoreSubmission(questions, answers, 70)
	for i := 0; i < 10; i++ {
		again := ScoreSubmission(questions, answers, 70)
		if again.Score != first.Score || again.EarnedPoints != first.EarnedPoints {
			t.Fatalf("run %d diverged: %d/%d vs %d/%d",
				i, again.EarnedPoints, again.Score, first.EarnedPoints, first.Score)
		}
	}
}
