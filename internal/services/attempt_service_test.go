package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/blackdot/ems-assessment-service/internal/events"
	"github.com/blackdot/ems-assessment-service/internal/models"
	"github.com/blackdot/ems-assessment-service/internal/repositories"
	"github.com/blackdot/ems-assessment-service/internal/validator"
)

// ===== IN-MEMORY MOCK REPOSITORY =====

type mockRepository struct {
	assessments map[uint]*models.Assessment
	questions   map[uint][]*models.Question
	attempts    map[uint]*models.AssessmentAttempt
	answers     []*models.UserAnswer
	users       map[string]*models.User

	nextAttemptID uint

	// Simulates a concurrent insert winning the unique-index race.
	failCreateWithDuplicate bool
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		assessments:   make(map[uint]*models.Assessment),
		questions:     make(map[uint][]*models.Question),
		attempts:      make(map[uint]*models.AssessmentAttempt),
		users:         make(map[string]*models.User),
		nextAttemptID: 1,
	}
}

func (m *mockRepository) Assessment() repositories.AssessmentRepository { return &mockAssessments{m} }
func (m *mockRepository) Question() repositories.QuestionRepository     { return &mockQuestions{m} }
func (m *mockRepository) Attempt() repositories.AttemptRepository       { return &mockAttempts{m} }
func (m *mockRepository) Answer() repositories.AnswerRepository         { return &mockAnswers{m} }
func (m *mockRepository) User() repositories.UserRepository             { return &mockUsers{m} }

func (m *mockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}
func (m *mockRepository) Ping(ctx context.Context) error { return nil }
func (m *mockRepository) Close() error                   { return nil }

type mockAssessments struct{ repo *mockRepository }

func (r *mockAssessments) Create(ctx context.Context, a *models.Assessment) error {
	r.repo.assessments[a.ID] = a
	return nil
}

func (r *mockAssessments) GetByID(ctx context.Context, id uint) (*models.Assessment, error) {
	if a, ok := r.repo.assessments[id]; ok {
		return a, nil
	}
	return nil, repositories.ErrNotFound
}

func (r *mockAssessments) GetByIDWithQuestions(ctx context.Context, id uint) (*models.Assessment, error) {
	a, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	out := *a
	out.Questions = nil
	for _, q := range r.repo.questions[id] {
		out.Questions = append(out.Questions, *q)
	}
	return &out, nil
}

func (r *mockAssessments) Update(ctx context.Context, a *models.Assessment) error {
	r.repo.assessments[a.ID] = a
	return nil
}

func (r *mockAssessments) List(ctx context.Context, f repositories.AssessmentFilters) ([]*models.Assessment, int64, error) {
	var out []*models.Assessment
	for _, a := range r.repo.assessments {
		out = append(out, a)
	}
	return out, int64(len(out)), nil
}

func (r *mockAssessments) ListActive(ctx context.Context) ([]*models.Assessment, error) {
	var out []*models.Assessment
	for _, a := range r.repo.assessments {
		if a.IsActive {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *mockAssessments) GetStats(ctx context.Context, id uint) (*repositories.AssessmentStats, error) {
	return &repositories.AssessmentStats{}, nil
}

type mockQuestions struct{ repo *mockRepository }

func (r *mockQuestions) Create(ctx context.Context, q *models.Question) error {
	r.repo.questions[q.AssessmentID] = append(r.repo.questions[q.AssessmentID], q)
	return nil
}

func (r *mockQuestions) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	for _, qs := range r.repo.questions {
		for _, q := range qs {
			if q.ID == id {
				return q, nil
			}
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *mockQuestions) GetByAssessment(ctx context.Context, assessmentID uint) ([]*models.Question, error) {
	return r.repo.questions[assessmentID], nil
}

func (r *mockQuestions) CountByAssessment(ctx context.Context, assessmentID uint) (int64, error) {
	return int64(len(r.repo.questions[assessmentID])), nil
}

func (r *mockQuestions) GetOption(ctx context.Context, optionID uint) (*models.QuestionOption, error) {
	return nil, repositories.ErrNotFound
}

func (r *mockQuestions) Delete(ctx context.Context, id uint) error { return nil }

type mockAttempts struct{ repo *mockRepository }

func (r *mockAttempts) Create(ctx context.Context, a *models.AssessmentAttempt) error {
	if r.repo.failCreateWithDuplicate {
		return repositories.ErrDuplicateKey
	}
	for _, existing := range r.repo.attempts {
		if existing.EmployeeID == a.EmployeeID && existing.AssessmentID == a.AssessmentID &&
			existing.Quarter == a.Quarter && existing.Year == a.Year {
			return repositories.ErrDuplicateKey
		}
	}
	a.ID = r.repo.nextAttemptID
	r.repo.nextAttemptID++
	copied := *a
	r.repo.attempts[a.ID] = &copied
	return nil
}

func (r *mockAttempts) GetByID(ctx context.Context, id uint) (*models.AssessmentAttempt, error) {
	if a, ok := r.repo.attempts[id]; ok {
		out := *a
		return &out, nil
	}
	return nil, repositories.ErrNotFound
}

func (r *mockAttempts) Update(ctx context.Context, a *models.AssessmentAttempt) error {
	if _, ok := r.repo.attempts[a.ID]; !ok {
		return repositories.ErrNotFound
	}
	copied := *a
	r.repo.attempts[a.ID] = &copied
	return nil
}

func (r *mockAttempts) FindByPeriod(ctx context.Context, employeeID string, assessmentID uint, quarter models.Quarter, year int) (*models.AssessmentAttempt, error) {
	for _, a := range r.repo.attempts {
		if a.EmployeeID == employeeID && a.AssessmentID == assessmentID &&
			a.Quarter == quarter && a.Year == year {
			out := *a
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *mockAttempts) Complete(ctx context.Context, a *models.AssessmentAttempt) (bool, error) {
	stored, ok := r.repo.attempts[a.ID]
	if !ok {
		return false, repositories.ErrNotFound
	}
	if stored.CompletedAt != nil {
		return false, nil
	}
	copied := *a
	r.repo.attempts[a.ID] = &copied
	return true, nil
}

func (r *mockAttempts) List(ctx context.Context, f repositories.AttemptFilters) ([]*models.AssessmentAttempt, int64, error) {
	var out []*models.AssessmentAttempt
	for _, a := range r.repo.attempts {
		out = append(out, a)
	}
	return out, int64(len(out)), nil
}

func (r *mockAttempts) ListByEmployee(ctx context.Context, employeeID string) ([]*models.AssessmentAttempt, error) {
	var out []*models.AssessmentAttempt
	for _, a := range r.repo.attempts {
		if a.EmployeeID == employeeID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *mockAttempts) ListByAssessment(ctx context.Context, assessmentID uint) ([]*models.AssessmentAttempt, error) {
	var out []*models.AssessmentAttempt
	for _, a := range r.repo.attempts {
		if a.AssessmentID == assessmentID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *mockAttempts) ListByQuarter(ctx context.Context, quarter models.Quarter, year int) ([]*models.AssessmentAttempt, error) {
	var out []*models.AssessmentAttempt
	for _, a := range r.repo.attempts {
		if a.Quarter == quarter && a.Year == year {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *mockAttempts) ListIncompleteByQuarter(ctx context.Context, quarter models.Quarter, year int) ([]*models.AssessmentAttempt, error) {
	var out []*models.AssessmentAttempt
	for _, a := range r.repo.attempts {
		if a.Quarter == quarter && a.Year == year && a.CompletedAt == nil {
			out = append(out, a)
		}
	}
	return out, nil
}

type mockAnswers struct{ repo *mockRepository }

func (r *mockAnswers) CreateBatch(ctx context.Context, answers []*models.UserAnswer) error {
	r.repo.answers = append(r.repo.answers, answers...)
	return nil
}

func (r *mockAnswers) GetByAttempt(ctx context.Context, attemptID uint) ([]*models.UserAnswer, error) {
	var out []*models.UserAnswer
	for _, a := range r.repo.answers {
		if a.AttemptID == attemptID {
			out = append(out, a)
		}
	}
	return out, nil
}

type mockUsers struct{ repo *mockRepository }

func (r *mockUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := r.repo.users[id]; ok {
		return u, nil
	}
	return nil, repositories.ErrNotFound
}

func (r *mockUsers) ExistsByID(ctx context.Context, id string) (bool, error) {
	_, ok := r.repo.users[id]
	return ok, nil
}

func (r *mockUsers) ListActiveByRole(ctx context.Context, role models.UserRole) ([]*models.User, error) {
	var out []*models.User
	for _, u := range r.repo.users {
		if u.IsActive && u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *mockUsers) List(ctx context.Context, f repositories.UserFilters) ([]*models.User, int64, error) {
	var out []*models.User
	for _, u := range r.repo.users {
		out = append(out, u)
	}
	return out, int64(len(out)), nil
}

// ===== TEST FIXTURES =====

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

func setupAttemptService(t *testing.T) (*mockRepository, *testClock, *events.MockEventPublisher, AttemptService) {
	t.Helper()

	repo := newMockRepository()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	clock := &testClock{now: time.Date(2025, time.May, 15, 10, 0, 0, 0, time.UTC)}
	publisher := events.NewMockEventPublisher(logger)

	repo.users["emp-1"] = &models.User{ID: "emp-1", Role: models.RoleDataCapturer, IsActive: true}
	repo.assessments[1] = &models.Assessment{
		ID:               1,
		Title:            "Q2 Compliance Review",
		PassingScore:     70,
		TimeLimitMinutes: 60,
		IsActive:         true,
	}
	repo.questions[1] = []*models.Question{
		{ID: 1, AssessmentID: 1, Type: models.MultipleChoice, Points: 2, Options: []models.QuestionOption{
			{ID: 10, QuestionID: 1, IsCorrect: true},
			{ID: 11, QuestionID: 1},
		}},
		{ID: 2, AssessmentID: 1, Type: models.TrueFalse, Points: 1, Options: []models.QuestionOption{
			{ID: 20, QuestionID: 2, IsCorrect: true},
			{ID: 21, QuestionID: 2},
		}},
	}

	service := NewAttemptService(repo, logger, validator.NewBusinessValidator(), publisher, clock)
	return repo, clock, publisher, service
}

func submitAll(correct bool) *validator.SubmitAttemptRequest {
	pick := func(right, wrong uint) *uint {
		if correct {
			return &right
		}
		return &wrong
	}
	return &validator.SubmitAttemptRequest{
		AssessmentID: 1,
		Answers: []validator.AnswerRequest{
			{QuestionID: 1, SelectedOptionID: pick(10, 11)},
			{QuestionID: 2, SelectedOptionID: pick(20, 21)},
		},
	}
}

// ===== TESTS =====

func TestAttemptService_Start(t *testing.T) {
	t.Run("creates attempt for current period", func(t *testing.T) {
		_, _, _, service := setupAttemptService(t)

		resp, err := service.Start(context.Background(), &StartAttemptRequest{AssessmentID: 1}, "emp-1")
		if err != nil {
			t.Fatalf("Start failed: %v", err)
		}

		if resp.Quarter != models.Q2 || resp.Year != 2025 {
			t.Errorf("period = %s/%d, want Q2/2025", resp.Quarter, resp.Year)
		}
		if resp.Status != models.AttemptInProgress {
			t.Errorf("status = %s, want in_progress", resp.Status)
		}
		if resp.StartedAt == nil {
			t.Error("StartedAt should be set")
		}
		if resp.TotalQuestions != 2 {
			t.Errorf("total questions = %d, want 2", resp.TotalQuestions)
		}
	})

	t.Run("claims scheduler-assigned attempt", func(t *testing.T) {
		repo, _, _, service := setupAttemptService(t)
		repo.attempts[5] = &models.AssessmentAttempt{
			ID: 5, EmployeeID: "emp-1", AssessmentID: 1,
			Quarter: models.Q2, Year: 2025,
			Status: models.AttemptAssigned, TotalQuestions: 2,
		}
		repo.nextAttemptID = 6

		resp, err := service.Start(context.Background(), &StartAttemptRequest{AssessmentID: 1}, "emp-1")
		if err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		if resp.ID != 5 {
			t.Errorf("attempt ID = %d, want the assigned row 5", resp.ID)
		}
		if resp.Status != models.AttemptInProgress || resp.StartedAt == nil {
			t.Error("assigned attempt should transition to in_progress with StartedAt")
		}
	})

	t.Run("second start in same period is rejected", func(t *testing.T) {
		_, _, _, service := setupAttemptService(t)
		ctx := context.Background()

		if _, err := service.Start(ctx, &StartAttemptRequest{AssessmentID: 1}, "emp-1"); err != nil {
			t.Fatalf("first Start failed: %v", err)
		}

		_, err := service.Start(ctx, &StartAttemptRequest{AssessmentID: 1}, "emp-1")
		if !errors.Is(err, ErrAttemptAlreadyCompleted) {
			t.Errorf("got %v, want ErrAttemptAlreadyCompleted", err)
		}
	})

	t.Run("new quarter allows a new attempt", func(t *testing.T) {
		_, clock, _, service := setupAttemptService(t)
		ctx := context.Background()

		if _, err := service.Start(ctx, &StartAttemptRequest{AssessmentID: 1}, "emp-1"); err != nil {
			t.Fatalf("first Start failed: %v", err)
		}

		clock.now = time.Date(2025, time.August, 1, 9, 0, 0, 0, time.UTC)
		resp, err := service.Start(ctx, &StartAttemptRequest{AssessmentID: 1}, "emp-1")
		if err != nil {
			t.Fatalf("Start in new quarter failed: %v", err)
		}
		if resp.Quarter != models.Q3 {
			t.Errorf("quarter = %s, want Q3", resp.Quarter)
		}
	})

	t.Run("duplicate insert race maps to already completed", func(t *testing.T) {
		repo, _, _, service := setupAttemptService(t)
		repo.failCreateWithDuplicate = true

		_, err := service.Start(context.Background(), &StartAttemptRequest{AssessmentID: 1}, "emp-1")
		if !errors.Is(err, ErrAttemptAlreadyCompleted) {
			t.Errorf("got %v, want ErrAttemptAlreadyCompleted", err)
		}
	})

	t.Run("unknown employee", func(t *testing.T) {
		_, _, _, service := setupAttemptService(t)

		_, err := service.Start(context.Background(), &StartAttemptRequest{AssessmentID: 1}, "ghost")
		if !errors.Is(err, ErrEmployeeNotFound) {
			t.Errorf("got %v, want ErrEmployeeNotFound", err)
		}
	})

	t.Run("unknown assessment", func(t *testing.T) {
		_, _, _, service := setupAttemptService(t)

		_, err := service.Start(context.Background(), &StartAttemptRequest{AssessmentID: 99}, "emp-1")
		if !errors.Is(err, ErrAssessmentNotFound) {
			t.Errorf("got %v, want ErrAssessmentNotFound", err)
		}
	})

	t.Run("inactive assessment", func(t *testing.T) {
		repo, _, _, service := setupAttemptService(t)
		repo.assessments[1].IsActive = false

		_, err := service.Start(context.Background(), &StartAttemptRequest{AssessmentID: 1}, "emp-1")
		if !errors.Is(err, ErrAssessmentInactive) {
			t.Errorf("got %v, want ErrAssessmentInactive", err)
		}
	})
}

func TestAttemptService_Submit(t *testing.T) {
	t.Run("grades and completes", func(t *testing.T) {
		repo, clock, publisher, service := setupAttemptService(t)
		ctx := context.Background()

		if _, err := service.Start(ctx, &StartAttemptRequest{AssessmentID: 1}, "emp-1"); err != nil {
			t.Fatalf("Start failed: %v", err)
		}

		clock.now = clock.now.Add(20 * time.Minute)
		result, err := service.Submit(ctx, submitAll(true), "emp-1")
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}

		if result.Attempt.Score != 100 || !result.Attempt.Passed {
			t.Errorf("score/passed = %d/%v, want 100/true", result.Attempt.Score, result.Attempt.Passed)
		}
		if result.Attempt.CorrectAnswers != 2 {
			t.Errorf("correct = %d, want 2", result.Attempt.CorrectAnswers)
		}
		if result.Attempt.TimeTakenMinutes != 20 {
			t.Errorf("time taken = %d, want 20", result.Attempt.TimeTakenMinutes)
		}
		if result.Attempt.CompletedAt == nil {
			t.Error("CompletedAt should be set")
		}

		stored := repo.attempts[result.Attempt.ID]
		if stored.CompletedAt == nil || stored.Status != models.AttemptCompleted {
			t.Error("attempt should be persisted as completed")
		}
		if len(stored.Submission) == 0 {
			t.Error("submission snapshot should be persisted")
		}
		if len(repo.answers) != 2 {
			t.Errorf("persisted answers = %d, want 2", len(repo.answers))
		}

		published := publisher.GetPublishedEvents()
		if len(published) != 1 || published[0].Type != events.TypeAttemptCompleted {
			t.Errorf("expected one %s event, got %v", events.TypeAttemptCompleted, published)
		}
	})

	t.Run("failing score", func(t *testing.T) {
		_, clock, _, service := setupAttemptService(t)
		ctx := context.Background()

		if _, err := service.Start(ctx, &StartAttemptRequest{AssessmentID: 1}, "emp-1"); err != nil {
			t.Fatalf("Start failed: %v", err)
		}

		clock.now = clock.now.Add(10 * time.Minute)
		result, err := service.Submit(ctx, submitAll(false), "emp-1")
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		if result.Attempt.Score != 0 || result.Attempt.Passed {
			t.Errorf("score/passed = %d/%v, want 0/false", result.Attempt.Score, result.Attempt.Passed)
		}
	})

	t.Run("time limit exceeded leaves attempt open", func(t *testing.T) {
		repo, clock, _, service := setupAttemptService(t)
		ctx := context.Background()

		started, err := service.Start(ctx, &StartAttemptRequest{AssessmentID: 1}, "emp-1")
		if err != nil {
			t.Fatalf("Start failed: %v", err)
		}

		clock.now = clock.now.Add(61 * time.Minute)
		_, err = service.Submit(ctx, submitAll(true), "emp-1")
		if !errors.Is(err, ErrAttemptTimeLimitExceeded) {
			t.Fatalf("got %v, want ErrAttemptTimeLimitExceeded", err)
		}

		if repo.attempts[started.ID].CompletedAt != nil {
			t.Error("rejected attempt must stay incomplete for the finalization job")
		}
	})

	t.Run("submission exactly at limit is accepted", func(t *testing.T) {
		_, clock, _, service := setupAttemptService(t)
		ctx := context.Background()

		if _, err := service.Start(ctx, &StartAttemptRequest{AssessmentID: 1}, "emp-1"); err != nil {
			t.Fatalf("Start failed: %v", err)
		}

		clock.now = clock.now.Add(60 * time.Minute)
		if _, err := service.Submit(ctx, submitAll(true), "emp-1"); err != nil {
			t.Fatalf("Submit at exact limit should succeed: %v", err)
		}
	})

	t.Run("no attempt for period", func(t *testing.T) {
		_, _, _, service := setupAttemptService(t)

		_, err := service.Submit(context.Background(), submitAll(true), "emp-1")
		if !errors.Is(err, ErrAttemptNotFound) {
			t.Errorf("got %v, want ErrAttemptNotFound", err)
		}
	})

	t.Run("assigned but never started", func(t *testing.T) {
		repo, _, _, service := setupAttemptService(t)
		repo.attempts[5] = &models.AssessmentAttempt{
			ID: 5, EmployeeID: "emp-1", AssessmentID: 1,
			Quarter: models.Q2, Year: 2025, Status: models.AttemptAssigned,
		}

		_, err := service.Submit(context.Background(), submitAll(true), "emp-1")
		if !errors.Is(err, ErrAttemptNotStarted) {
			t.Errorf("got %v, want ErrAttemptNotStarted", err)
		}
	})

	t.Run("double submit", func(t *testing.T) {
		_, clock, _, service := setupAttemptService(t)
		ctx := context.Background()

		if _, err := service.Start(ctx, &StartAttemptRequest{AssessmentID: 1}, "emp-1"); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		clock.now = clock.now.Add(5 * time.Minute)
		if _, err := service.Submit(ctx, submitAll(true), "emp-1"); err != nil {
			t.Fatalf("first Submit failed: %v", err)
		}

		_, err := service.Submit(ctx, submitAll(true), "emp-1")
		if !errors.Is(err, ErrAttemptAlreadyCompleted) {
			t.Errorf("got %v, want ErrAttemptAlreadyCompleted", err)
		}
	})
}

func TestAttemptService_GetQuarterlyResults(t *testing.T) {
	repo, _, _, service := setupAttemptService(t)

	now := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)
	repo.attempts[1] = &models.AssessmentAttempt{
		ID: 1, EmployeeID: "emp-1", AssessmentID: 1,
		Quarter: models.Q2, Year: 2025,
		Status: models.AttemptCompleted, CompletedAt: &now, Score: 90, Passed: true,
	}
	repo.attempts[2] = &models.AssessmentAttempt{
		ID: 2, EmployeeID: "emp-2", AssessmentID: 1,
		Quarter: models.Q2, Year: 2025,
		Status: models.AttemptCompleted, CompletedAt: &now, Score: 40,
	}
	repo.attempts[3] = &models.AssessmentAttempt{
		ID: 3, EmployeeID: "emp-3", AssessmentID: 1,
		Quarter: models.Q2, Year: 2025, Status: models.AttemptAssigned,
	}
	repo.attempts[4] = &models.AssessmentAttempt{
		ID: 4, EmployeeID: "emp-1", AssessmentID: 1,
		Quarter: models.Q1, Year: 2025, Status: models.AttemptAssigned,
	}

	summary, err := service.GetQuarterlyResults(context.Background(), models.Q2, 2025)
	if err != nil {
		t.Fatalf("GetQuarterlyResults failed: %v", err)
	}

	if summary.TotalAttempts != 3 {
		t.Errorf("total = %d, want 3 (Q1 row excluded)", summary.TotalAttempts)
	}
	if summary.CompletedAttempts != 2 {
		t.Errorf("completed = %d, want 2", summary.CompletedAttempts)
	}
	if summary.PassedAttempts != 1 {
		t.Errorf("passed = %d, want 1", summary.PassedAttempts)
	}
}
