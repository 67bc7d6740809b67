package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cleanquest/cleanquest/internal/game"
	"github.com/cleanquest/cleanquest/internal/model"
	"github.com/cleanquest/cleanquest/internal/store"
)

// Scheduler periodically checks for due-task reminders to send. One reminder
// per user per day, at the configured hour; the notifications_sent table
// dedupes across restarts.
type Scheduler struct {
	mu       sync.RWMutex
	service  *Service
	game     *game.Service
	push     *store.PushStore
	tasks    *store.TaskStore
	settings *store.SettingsStore
	logger   *slog.Logger
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewScheduler creates a reminder scheduler.
func NewScheduler(svc *Service, gameSvc *game.Service, pushStore *store.PushStore, taskStore *store.TaskStore, settingsStore *store.SettingsStore, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		service:  svc,
		game:     gameSvc,
		push:     pushStore,
		tasks:    taskStore,
		settings: settingsStore,
		logger:   logger,
		interval: 60 * time.Second,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(time.Now())
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick(now time.Time) {
	if now.Hour() < s.settings.ReminderHour() {
		return
	}

	userIDs, err := s.tasks.ListDueUserIDs()
	if err != nil {
		s.logger.Error("push scheduler: list due users", "error", err)
		return
	}

	for _, userID := range userIDs {
		s.remindUser(userID, now)
	}
}

func (s *Scheduler) remindUser(userID int64, now time.Time) {
	refID := now.Format("2006-01-02")

	sent, err := s.push.WasSent(userID, model.NotifTypeTaskDue, refID)
	if err != nil {
		s.logger.Error("push scheduler: check sent", "user_id", userID, "error", err)
		return
	}
	if sent {
		return
	}

	today, err := s.game.TodayTasks(userID)
	if err != nil {
		s.logger.Error("push scheduler: today tasks", "user_id", userID, "error", err)
		return
	}
	if len(today) == 0 {
		return
	}

	subs, err := s.push.ListByUser(userID)
	if err != nil {
		s.logger.Error("push scheduler: list subs", "user_id", userID, "error", err)
		return
	}
	if len(subs) == 0 {
		return
	}

	body := fmt.Sprintf("You have %d tasks due today", len(today))
	if len(today) == 1 {
		body = fmt.Sprintf("Task due today: %s", today[0].Title)
	}
	payload := Payload{
		Title: "CleanQuest",
		Body:  body,
		URL:   "/tasks",
		Tag:   "task-daily",
	}

	for _, sub := range subs {
		if err := s.service.Send(&sub, payload); err != nil {
			if errors.Is(err, ErrExpired) {
				if err := s.push.DeleteByEndpoint(sub.Endpoint); err != nil {
					s.logger.Error("push scheduler: drop expired sub", "error", err)
				}
			} else {
				s.logger.Error("push scheduler: send reminder", "user_id", userID, "error", err)
			}
		}
	}

	if err := s.push.MarkSent(userID, model.NotifTypeTaskDue, refID); err != nil {
		s.logger.Error("push scheduler: mark sent", "user_id", userID, "error", err)
	}
}
