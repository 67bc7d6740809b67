package game

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cleanquest/cleanquest/internal/level"
	"github.com/cleanquest/cleanquest/internal/model"
	"github.com/cleanquest/cleanquest/internal/store"
	"github.com/cleanquest/cleanquest/internal/task"
)

// earlyBonusPoints is awarded for completing a weekly task any day of its
// due week.
const earlyBonusPoints = 2

// Service owns the scoring and task lifecycle rules. Mutations that touch
// both a task and the profile run inside a single transaction so a failure
// leaves nothing half-applied.
type Service struct {
	db        *sql.DB
	profiles  *store.ProfileStore
	tasks     *store.TaskStore
	templates *store.TemplateStore
	logger    *slog.Logger

	// now is swappable in tests.
	now func() time.Time
}

// NewService creates a Service over the given database.
func NewService(db *sql.DB, logger *slog.Logger) *Service {
	return &Service{
		db:        db,
		profiles:  store.NewProfileStore(db),
		tasks:     store.NewTaskStore(db),
		templates: store.NewTemplateStore(db),
		logger:    logger,
		now:       time.Now,
	}
}

// CompletionResult reports what a completion earned, for toasts and the
// level-up celebration.
type CompletionResult struct {
	TaskID     int64           `json:"task_id"`
	Points     int             `json:"points"`
	BasePoints int             `json:"base_points"`
	EarlyBonus int             `json:"early_bonus"`
	LevelBonus int             `json:"level_bonus"`
	NewXP      int             `json:"new_xp"`
	LeveledUp  bool            `json:"leveled_up"`
	NewLevel   *level.Config   `json:"new_level,omitempty"`
	Successor  *model.UserTask `json:"successor,omitempty"`
}

// CompleteTask marks a due task done, awards points, applies the XP delta,
// and for daily templates inserts the next day's instance. The guarded
// UPDATE inside MarkDone is the serialization point for concurrent
// completions of the same task.
func (s *Service) CompleteTask(userID, taskID int64) (*CompletionResult, error) {
	now := s.now()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin completion: %w", err)
	}
	defer tx.Rollback()

	tasks := s.tasks.WithTx(tx)
	profiles := s.profiles.WithTx(tx)

	t, err := tasks.GetByID(taskID, userID)
	if err != nil {
		return nil, err
	}
	if t == nil || t.Status == task.StatusDeleted {
		return nil, ErrNotFound
	}
	if t.Status != task.StatusDue {
		return nil, fmt.Errorf("complete task %d in status %q: %w", taskID, t.Status, ErrInvalidTransition)
	}

	// The catalog is immutable, so templates are read outside the tx.
	var freq model.Frequency
	if t.TemplateID != nil {
		tpl, err := s.templates.GetByID(*t.TemplateID)
		if err != nil {
			return nil, err
		}
		if tpl == nil {
			return nil, fmt.Errorf("template %q: %w", *t.TemplateID, ErrNotFound)
		}
		freq = tpl.Frequency
	}

	profile, err := profiles.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, fmt.Errorf("profile for user %d: %w", userID, ErrNotFound)
	}

	base := t.Points
	earlyBonus := 0
	if task.EarlyExecutionEligible(t.NextDueAt, freq, now) {
		earlyBonus = earlyBonusPoints
	}
	levelBonus := level.Bonus(level.ForXP(profile.XP))
	total := base + earlyBonus + levelBonus
	newXP := profile.XP + total

	ok, err := tasks.MarkDone(taskID, userID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Another session won the race since our read.
		return nil, fmt.Errorf("complete task %d: %w", taskID, ErrInvalidTransition)
	}

	newTier := level.ForXP(newXP)
	if err := profiles.SetXP(userID, newXP, string(newTier)); err != nil {
		return nil, err
	}

	var successor *model.UserTask
	if freq == model.FreqDaily {
		successor, err = tasks.Create(store.NewTaskParams{
			UserID:     userID,
			TemplateID: t.TemplateID,
			NextDueAt:  task.NextOccurrence(freq, now),
			Points:     t.Points,
		})
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit completion: %w", err)
	}

	result := &CompletionResult{
		TaskID:     taskID,
		Points:     total,
		BasePoints: base,
		EarlyBonus: earlyBonus,
		LevelBonus: levelBonus,
		NewXP:      newXP,
		Successor:  successor,
	}
	if tier, up := level.DetectLevelUp(profile.XP, newXP); up {
		result.LeveledUp = true
		if cfg, found := level.ConfigFor(tier); found {
			result.NewLevel = &cfg
		}
	}

	s.logger.Info("task completed",
		"user_id", userID,
		"task_id", taskID,
		"points", total,
		"new_xp", newXP,
		"leveled_up", result.LeveledUp,
	)
	return result, nil
}

// SnoozeTask moves a due task to snoozed. Snoozed tasks stay put until
// resumed or progress is reset.
func (s *Service) SnoozeTask(userID, taskID int64) error {
	return s.transition(userID, taskID, task.StatusDue, task.StatusSnoozed)
}

// ResumeTask moves a snoozed task back to due.
func (s *Service) ResumeTask(userID, taskID int64) error {
	return s.transition(userID, taskID, task.StatusSnoozed, task.StatusDue)
}

func (s *Service) transition(userID, taskID int64, from, to string) error {
	ok, err := s.tasks.SetStatus(taskID, userID, from, to)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	t, err := s.tasks.GetByID(taskID, userID)
	if err != nil {
		return err
	}
	if t == nil || t.Status == task.StatusDeleted {
		return ErrNotFound
	}
	return fmt.Errorf("task %d in status %q: %w", taskID, t.Status, ErrInvalidTransition)
}

// DeleteTask soft-deletes a task. Deleted tasks are excluded from every
// listing but the row stays for history.
func (s *Service) DeleteTask(userID, taskID int64) error {
	ok, err := s.tasks.SoftDelete(taskID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// AddCustomTask creates a free-form chore with no backing template, due
// immediately.
func (s *Service) AddCustomTask(userID int64, title, room string, durationMin, points int) (*model.UserTask, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("title is required: %w", ErrInvalidInput)
	}
	if points < 0 || durationMin < 0 {
		return nil, fmt.Errorf("points and duration must not be negative: %w", ErrInvalidInput)
	}

	return s.tasks.Create(store.NewTaskParams{
		UserID:         userID,
		NextDueAt:      s.now(),
		Points:         points,
		IsCustom:       true,
		CustomTitle:    title,
		CustomRoom:     strings.TrimSpace(room),
		CustomDuration: durationMin,
	})
}

// ResetProgress zeroes the user's XP, drops them back to the first tier,
// and reverts every done and snoozed task to due.
func (s *Service) ResetProgress(userID int64) error {
	now := s.now()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer tx.Rollback()

	if err := s.profiles.WithTx(tx).SetXP(userID, 0, string(level.TierApprenti)); err != nil {
		return err
	}
	if err := s.tasks.WithTx(tx).ResetAllToDue(userID, now); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reset: %w", err)
	}

	s.logger.Info("progress reset", "user_id", userID)
	return nil
}

// ActivateTemplates instantiates every catalog template applicable to the
// user's profile that has no live task yet. Called at registration and when
// profile attributes change.
func (s *Service) ActivateTemplates(userID int64) (created int, err error) {
	profile, err := s.profiles.GetByUserID(userID)
	if err != nil {
		return 0, err
	}
	if profile == nil {
		return 0, fmt.Errorf("profile for user %d: %w", userID, ErrNotFound)
	}

	templates, err := s.templates.ListApplicable(profile.HasPets, profile.HasGarden)
	if err != nil {
		return 0, err
	}

	now := s.now()
	for _, tpl := range templates {
		live, err := s.tasks.HasLiveForTemplate(userID, tpl.ID)
		if err != nil {
			return created, err
		}
		if live {
			continue
		}
		tplID := tpl.ID
		if _, err := s.tasks.Create(store.NewTaskParams{
			UserID:     userID,
			TemplateID: &tplID,
			NextDueAt:  now,
			Points:     tpl.Points,
		}); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// TaskView decorates a task with its resolved display fields for API
// responses.
type TaskView struct {
	model.UserTask
	Title       string          `json:"title"`
	Room        string          `json:"room"`
	DurationMin int             `json:"duration_min"`
	Frequency   model.Frequency `json:"frequency,omitempty"`
}

// ListTasks returns every non-deleted task for the user, decorated.
func (s *Service) ListTasks(userID int64) ([]TaskView, error) {
	tasks, err := s.tasks.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	return s.decorate(tasks)
}

// TodayTasks returns the due tasks that belong in the "today" list: custom
// and daily tasks always, others on their due date or inside the weekly
// early window.
func (s *Service) TodayTasks(userID int64) ([]TaskView, error) {
	due, err := s.tasks.ListByStatus(userID, task.StatusDue)
	if err != nil {
		return nil, err
	}

	views, err := s.decorate(due)
	if err != nil {
		return nil, err
	}

	now := s.now()
	today := views[:0]
	for _, v := range views {
		if task.IsDueToday(v.UserTask, v.Frequency, now) {
			today = append(today, v)
		}
	}
	return today, nil
}

func (s *Service) decorate(tasks []model.UserTask) ([]TaskView, error) {
	catalog, err := s.templates.List()
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.TaskTemplate, len(catalog))
	for _, tpl := range catalog {
		byID[tpl.ID] = tpl
	}

	views := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		v := TaskView{UserTask: t, Title: t.CustomTitle, Room: t.CustomRoom, DurationMin: t.CustomDuration}
		if t.TemplateID != nil {
			if tpl, ok := byID[*t.TemplateID]; ok {
				v.Title = t.DisplayTitle(&tpl)
				v.Room = t.DisplayRoom(&tpl)
				v.DurationMin = tpl.DurationMin
				v.Frequency = tpl.Frequency
			}
		}
		views = append(views, v)
	}
	return views, nil
}

// Stats summarizes the user's progression for the dashboard.
type Stats struct {
	XP               int          `json:"xp"`
	Level            level.Config `json:"level"`
	Progress         float64      `json:"progress"`
	XPToNext         int          `json:"xp_to_next"`
	WeeklyPoints     int          `json:"weekly_points"`
	WeeklyDone       int          `json:"weekly_done"`
	WeeklyDue        int          `json:"weekly_due"`
	WeeklyCompletion int          `json:"weekly_completion"`
}

// Stats computes progression numbers for the current calendar week and
// caches the completion percentage on the profile.
func (s *Service) Stats(userID int64) (*Stats, error) {
	profile, err := s.profiles.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, fmt.Errorf("profile for user %d: %w", userID, ErrNotFound)
	}

	weekStart, _ := task.EarlyWindow(s.now())
	points, err := s.tasks.SumPointsDoneSince(userID, weekStart)
	if err != nil {
		return nil, err
	}
	done, due, err := s.tasks.CountByStatusSince(userID, weekStart)
	if err != nil {
		return nil, err
	}

	completion := 0
	if done+due > 0 {
		completion = done * 100 / (done + due)
	}
	if completion != profile.WeeklyCompletion {
		if err := s.profiles.SetWeeklyCompletion(userID, completion); err != nil {
			s.logger.Warn("cache weekly completion", "user_id", userID, "error", err)
		}
	}

	cfg, _ := level.ConfigFor(level.ForXP(profile.XP))
	return &Stats{
		XP:               profile.XP,
		Level:            cfg,
		Progress:         level.Progress(profile.XP),
		XPToNext:         level.XPToNext(profile.XP),
		WeeklyPoints:     points,
		WeeklyDone:       done,
		WeeklyDue:        due,
		WeeklyCompletion: completion,
	}, nil
}
