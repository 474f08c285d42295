package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/blackdot/ems-assessment-service/internal/config"
	"github.com/blackdot/ems-assessment-service/internal/events"
	"github.com/blackdot/ems-assessment-service/internal/models"
	"github.com/blackdot/ems-assessment-service/internal/repositories"
	"github.com/blackdot/ems-assessment-service/internal/services"
)

// QuarterlyScheduler owns the periodic jobs that drive the assessment cycle:
// daily assignment, quarter-start notice, weekly reminders, and end-of-quarter
// finalization. Each job is isolated; one failing never blocks the others.
type QuarterlyScheduler struct {
	cron      *cron.Cron
	repo      repositories.Repository
	logger    *slog.Logger
	publisher events.EventPublisher
	clock     services.Clock

	settings     config.SchedulerSettings
	eligibleRole models.UserRole
}

func NewQuarterlyScheduler(repo repositories.Repository, logger *slog.Logger, publisher events.EventPublisher, clock services.Clock, settings config.SchedulerSettings, eligibleRole models.UserRole) *QuarterlyScheduler {
	if clock == nil {
		clock = services.NewSystemClock()
	}
	return &QuarterlyScheduler{
		cron:         cron.New(),
		repo:         repo,
		logger:       logger,
		publisher:    publisher,
		clock:        clock,
		settings:     settings,
		eligibleRole: eligibleRole,
	}
}

// Start registers the jobs and runs the cron loop in the background.
func (s *QuarterlyScheduler) Start() error {
	jobs := []struct {
		name string
		spec string
		run  func(context.Context) error
	}{
		{"quarterly_assignment", s.settings.AssignmentCron, s.AssignQuarterlyAttempts},
		{"quarter_notice", s.settings.NoticeCron, s.SendQuarterlyNotice},
		{"completion_reminder", s.settings.ReminderCron, s.SendCompletionReminders},
		{"quarter_finalization", s.settings.FinalizationCron, s.FinalizeQuarter},
	}

	for _, job := range jobs {
		job := job
		_, err := s.cron.AddFunc(job.spec, func() {
			s.runJob(job.name, job.run)
		})
		if err != nil {
			return fmt.Errorf("failed to register job %s: %w", job.name, err)
		}
	}

	s.cron.Start()
	s.logger.Info("Scheduler started",
		"assignment_cron", s.settings.AssignmentCron,
		"notice_cron", s.settings.NoticeCron,
		"reminder_cron", s.settings.ReminderCron,
		"finalization_cron", s.settings.FinalizationCron)
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *QuarterlyScheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop().Done()
	select {
	case <-done:
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runJob isolates one job run: panics are recovered and errors are logged,
// never propagated into the cron loop.
func (s *QuarterlyScheduler) runJob(name string, run func(context.Context) error) {
	ctx := context.Background()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Scheduled job panicked", "job", name, "panic", r)
		}
	}()

	started := time.Now()
	if err := run(ctx); err != nil {
		s.logger.Error("Scheduled job failed", "job", name, "error", err)
		return
	}
	s.logger.Info("Scheduled job finished", "job", name, "duration", time.Since(started))
}

// ===== JOBS =====

// AssignQuarterlyAttempts ensures every active eligible employee holds an
// attempt row for every active assessment in the current quarter. Runs daily
// so late joiners and new assessments get picked up; already-assigned pairs
// are skipped, making the sweep idempotent.
func (s *QuarterlyScheduler) AssignQuarterlyAttempts(ctx context.Context) error {
	now := s.clock.Now()
	quarter, year := models.PeriodOf(now)

	assessments, err := s.repo.Assessment().ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active assessments: %w", err)
	}

	employees, err := s.repo.User().ListActiveByRole(ctx, s.eligibleRole)
	if err != nil {
		return fmt.Errorf("failed to list eligible employees: %w", err)
	}

	s.logger.InfoContext(ctx, "Running quarterly assignment sweep",
		"quarter", quarter,
		"year", year,
		"assessments", len(assessments),
		"employees", len(employees))

	created := 0
	for _, assessment := range assessments {
		questionCount, err := s.repo.Question().CountByAssessment(ctx, assessment.ID)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to count questions, skipping assessment",
				"assessment_id", assessment.ID, "error", err)
			continue
		}

		for _, employee := range employees {
			_, err := s.repo.Attempt().FindByPeriod(ctx, employee.ID, assessment.ID, quarter, year)
			if err == nil {
				continue // already assigned
			}
			if !repositories.IsNotFoundError(err) {
				s.logger.ErrorContext(ctx, "Failed to check existing attempt",
					"employee_id", employee.ID, "assessment_id", assessment.ID, "error", err)
				continue
			}

			attempt := &models.AssessmentAttempt{
				EmployeeID:     employee.ID,
				AssessmentID:   assessment.ID,
				Quarter:        quarter,
				Year:           year,
				Status:         models.AttemptAssigned,
				TotalQuestions: int(questionCount),
			}
			if err := s.repo.Attempt().Create(ctx, attempt); err != nil {
				// A concurrent sweep or an eager employee got there first.
				if repositories.IsDuplicateKeyError(err) {
					continue
				}
				s.logger.ErrorContext(ctx, "Failed to assign attempt",
					"employee_id", employee.ID, "assessment_id", assessment.ID, "error", err)
				continue
			}
			created++
		}
	}

	s.logger.InfoContext(ctx, "Quarterly assignment sweep finished",
		"quarter", quarter, "year", year, "created", created)

	if created > 0 {
		event := events.NewEvent(events.TypeAttemptAssigned, map[string]interface{}{
			"quarter":  quarter,
			"year":     year,
			"assigned": created,
		})
		if err := s.publish(ctx, event); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish assignment event", "error", err)
		}
	}
	return nil
}

// SendQuarterlyNotice announces the new quarter on its first day. It only
// emits an event; no assessment state changes.
func (s *QuarterlyScheduler) SendQuarterlyNotice(ctx context.Context) error {
	now := s.clock.Now()
	quarter, year := models.PeriodOf(now)

	s.logger.InfoContext(ctx, "New assessment quarter started",
		"quarter", quarter, "year", year)

	return s.publish(ctx, events.NewEvent(events.TypeQuarterNotice, map[string]interface{}{
		"quarter": quarter,
		"year":    year,
	}))
}

// SendCompletionReminders nudges employees with open attempts, one event per
// employee listing everything still outstanding.
func (s *QuarterlyScheduler) SendCompletionReminders(ctx context.Context) error {
	now := s.clock.Now()
	quarter, year := models.PeriodOf(now)

	incomplete, err := s.repo.Attempt().ListIncompleteByQuarter(ctx, quarter, year)
	if err != nil {
		return fmt.Errorf("failed to list incomplete attempts: %w", err)
	}
	if len(incomplete) == 0 {
		return nil
	}

	byEmployee := make(map[string][]*models.AssessmentAttempt)
	for _, attempt := range incomplete {
		byEmployee[attempt.EmployeeID] = append(byEmployee[attempt.EmployeeID], attempt)
	}

	for employeeID, attempts := range byEmployee {
		titles := make([]string, 0, len(attempts))
		for _, attempt := range attempts {
			titles = append(titles, attempt.Assessment.Title)
		}

		event := events.NewEvent(events.TypeCompletionReminder, map[string]interface{}{
			"employee_id": employeeID,
			"quarter":     quarter,
			"year":        year,
			"pending":     len(attempts),
			"assessments": titles,
		})
		if err := s.publish(ctx, event); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish reminder",
				"employee_id", employeeID, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "Completion reminders sent",
		"quarter", quarter, "year", year, "employees", len(byEmployee))
	return nil
}

// FinalizeQuarter force-closes every open attempt at the end of the quarter.
// The cron spec fires on days 28-31 at 23:00; the guard below lets only the
// true last day of a quarter-ending month through.
func (s *QuarterlyScheduler) FinalizeQuarter(ctx context.Context) error {
	now := s.clock.Now()
	if !isLastDayOfQuarter(now) {
		return nil
	}

	quarter, year := models.PeriodOf(now)
	incomplete, err := s.repo.Attempt().ListIncompleteByQuarter(ctx, quarter, year)
	if err != nil {
		return fmt.Errorf("failed to list incomplete attempts: %w", err)
	}

	closed := 0
	for _, attempt := range incomplete {
		attempt.CompletedAt = &now
		attempt.Status = models.AttemptCompleted
		attempt.Score = 0
		attempt.Passed = false
		attempt.CorrectAnswers = 0
		attempt.TimeTakenMinutes = 0

		done, err := s.repo.Attempt().Complete(ctx, attempt)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to force-close attempt",
				"attempt_id", attempt.ID, "error", err)
			continue
		}
		if !done {
			continue // completed by a last-minute submit
		}
		closed++

		event := events.NewEvent(events.TypeAttemptForceClosed, map[string]interface{}{
			"attempt_id":    attempt.ID,
			"employee_id":   attempt.EmployeeID,
			"assessment_id": attempt.AssessmentID,
			"quarter":       quarter,
			"year":          year,
		})
		if err := s.publish(ctx, event); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish force-close event",
				"attempt_id", attempt.ID, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "Quarter finalized",
		"quarter", quarter, "year", year, "closed", closed)
	return nil
}

// ===== HELPERS =====

func (s *QuarterlyScheduler) publish(ctx context.Context, event *events.Event) error {
	if s.publisher == nil {
		return nil
	}
	return s.publisher.Publish(ctx, event)
}

func isLastDayOfQuarter(t time.Time) bool {
	if !models.LastMonth(t.Month()) {
		return false
	}
	return t.AddDate(0, 0, 1).Month() != t.Month()
}
