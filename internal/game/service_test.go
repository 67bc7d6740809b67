package game

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/cleanquest/cleanquest/internal/database"
	"github.com/cleanquest/cleanquest/internal/level"
	"github.com/cleanquest/cleanquest/internal/model"
	"github.com/cleanquest/cleanquest/internal/store"
	"github.com/cleanquest/cleanquest/internal/task"
)

// fixedNow is a Wednesday. The week's early window runs Sunday Aug 23
// through Saturday Aug 29.
var fixedNow = time.Date(2026, 8, 26, 14, 0, 0, 0, time.Local)

type fixture struct {
	svc      *Service
	tasks    *store.TaskStore
	profiles *store.ProfileStore
	userID   int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := store.NewUserStore(db)
	user, err := users.Create("marie@example.com", "Marie", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	profiles := store.NewProfileStore(db)
	if _, err := profiles.Create(user.ID, model.HousingApartment, model.FamilySingle, false, false); err != nil {
		t.Fatalf("create profile: %v", err)
	}

	svc := NewService(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return fixedNow }

	return &fixture{
		svc:      svc,
		tasks:    store.NewTaskStore(db),
		profiles: profiles,
		userID:   user.ID,
	}
}

func (f *fixture) createFromTemplate(t *testing.T, templateID string, points int, dueAt time.Time) *model.UserTask {
	t.Helper()
	ut, err := f.tasks.Create(store.NewTaskParams{
		UserID:     f.userID,
		TemplateID: &templateID,
		NextDueAt:  dueAt,
		Points:     points,
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return ut
}

func (f *fixture) setXP(t *testing.T, xp int) {
	t.Helper()
	if err := f.profiles.SetXP(f.userID, xp, string(level.ForXP(xp))); err != nil {
		t.Fatalf("set xp: %v", err)
	}
}

func TestCompleteDailyTask(t *testing.T) {
	f := newFixture(t)
	ut := f.createFromTemplate(t, "cuisine-vaisselle", 5, fixedNow)

	res, err := f.svc.CompleteTask(f.userID, ut.ID)
	if err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}

	// Tier apprenti, daily task: no early bonus, no level bonus.
	if res.Points != 5 || res.BasePoints != 5 || res.EarlyBonus != 0 || res.LevelBonus != 0 {
		t.Errorf("scoring = %+v, want base 5 and no bonuses", res)
	}
	if res.NewXP != 5 {
		t.Errorf("NewXP = %d, want 5", res.NewXP)
	}
	if res.LeveledUp {
		t.Error("unexpected level up")
	}

	// The done row stays; a fresh due successor exists at tomorrow 06:00.
	if res.Successor == nil {
		t.Fatal("daily completion must create a successor")
	}
	wantDue := time.Date(2026, 8, 27, 6, 0, 0, 0, time.Local)
	if !res.Successor.NextDueAt.Equal(wantDue) {
		t.Errorf("successor NextDueAt = %v, want %v", res.Successor.NextDueAt, wantDue)
	}
	if res.Successor.Status != task.StatusDue {
		t.Errorf("successor status = %q, want due", res.Successor.Status)
	}

	done, err := f.tasks.GetByID(ut.ID, f.userID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if done.Status != task.StatusDone {
		t.Errorf("original status = %q, want done", done.Status)
	}
	if done.LastDoneAt == nil {
		t.Error("LastDoneAt not set")
	}
}

func TestCompleteWeeklyTaskEarlyWithLevelBonus(t *testing.T) {
	f := newFixture(t)
	f.setXP(t, 600) // maitre, bonus 2

	// Due Saturday of the current week: inside the early window.
	dueAt := time.Date(2026, 8, 29, 6, 0, 0, 0, time.Local)
	ut := f.createFromTemplate(t, "salon-aspirateur", 15, dueAt)

	res, err := f.svc.CompleteTask(f.userID, ut.ID)
	if err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	if res.EarlyBonus != 2 {
		t.Errorf("EarlyBonus = %d, want 2", res.EarlyBonus)
	}
	if res.LevelBonus != 2 {
		t.Errorf("LevelBonus = %d, want 2", res.LevelBonus)
	}
	if res.Points != 15+2+2 {
		t.Errorf("Points = %d, want 19", res.Points)
	}
	if res.Successor != nil {
		t.Error("weekly completion must not create a successor")
	}
}

func TestCompleteWeeklyTaskOutsideWindowNoEarlyBonus(t *testing.T) {
	f := newFixture(t)

	// Due next Wednesday: in the following week, not early-eligible.
	dueAt := time.Date(2026, 9, 2, 6, 0, 0, 0, time.Local)
	ut := f.createFromTemplate(t, "sdb-vasque", 10, dueAt)

	res, err := f.svc.CompleteTask(f.userID, ut.ID)
	if err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	if res.EarlyBonus != 0 {
		t.Errorf("EarlyBonus = %d, want 0", res.EarlyBonus)
	}
	if res.Points != 10 {
		t.Errorf("Points = %d, want 10", res.Points)
	}
}

func TestCompleteTaskLevelUp(t *testing.T) {
	f := newFixture(t)
	f.setXP(t, 198) // 2 XP short of regulier

	ut := f.createFromTemplate(t, "cuisine-vaisselle", 5, fixedNow)
	res, err := f.svc.CompleteTask(f.userID, ut.ID)
	if err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	if !res.LeveledUp {
		t.Fatal("expected level up crossing 200")
	}
	if res.NewLevel == nil || res.NewLevel.ID != level.TierRegulier {
		t.Errorf("NewLevel = %+v, want regulier", res.NewLevel)
	}

	profile, err := f.profiles.GetByUserID(f.userID)
	if err != nil {
		t.Fatalf("reload profile: %v", err)
	}
	if profile.XP != 203 {
		t.Errorf("XP = %d, want 203", profile.XP)
	}
	if profile.CurrentLevel != string(level.TierRegulier) {
		t.Errorf("CurrentLevel = %q, want regulier", profile.CurrentLevel)
	}
}

func TestCompleteTaskRejectsNonDue(t *testing.T) {
	f := newFixture(t)
	ut := f.createFromTemplate(t, "cuisine-vaisselle", 5, fixedNow)

	if _, err := f.svc.CompleteTask(f.userID, ut.ID); err != nil {
		t.Fatalf("first completion: %v", err)
	}
	_, err := f.svc.CompleteTask(f.userID, ut.ID)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second completion err = %v, want ErrInvalidTransition", err)
	}

	profile, _ := f.profiles.GetByUserID(f.userID)
	if profile.XP != 5 {
		t.Errorf("XP after rejected completion = %d, want 5", profile.XP)
	}
}

func TestCompleteTaskNotFound(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.CompleteTask(f.userID, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCompleteTaskScopedByUser(t *testing.T) {
	f := newFixture(t)
	ut := f.createFromTemplate(t, "cuisine-vaisselle", 5, fixedNow)

	if _, err := f.svc.CompleteTask(f.userID+1, ut.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound for foreign user", err)
	}
}

func TestSnoozeAndResume(t *testing.T) {
	f := newFixture(t)
	ut := f.createFromTemplate(t, "sdb-douche", 15, fixedNow)

	if err := f.svc.SnoozeTask(f.userID, ut.ID); err != nil {
		t.Fatalf("snooze: %v", err)
	}
	got, _ := f.tasks.GetByID(ut.ID, f.userID)
	if got.Status != task.StatusSnoozed {
		t.Errorf("status = %q, want snoozed", got.Status)
	}

	// Snoozing a snoozed task is an invalid transition.
	if err := f.svc.SnoozeTask(f.userID, ut.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("double snooze err = %v, want ErrInvalidTransition", err)
	}

	// Snoozed tasks earn nothing.
	if _, err := f.svc.CompleteTask(f.userID, ut.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("complete snoozed err = %v, want ErrInvalidTransition", err)
	}

	if err := f.svc.ResumeTask(f.userID, ut.ID); err != nil {
		t.Fatalf("resume: %v", err)
	}
	got, _ = f.tasks.GetByID(ut.ID, f.userID)
	if got.Status != task.StatusDue {
		t.Errorf("status after resume = %q, want due", got.Status)
	}
}

func TestDeleteTaskExcludedFromListings(t *testing.T) {
	f := newFixture(t)
	ut := f.createFromTemplate(t, "wc-cuvette", 10, fixedNow)

	if err := f.svc.DeleteTask(f.userID, ut.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	all, err := f.svc.ListTasks(f.userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, v := range all {
		if v.ID == ut.ID {
			t.Error("deleted task still listed")
		}
	}

	today, err := f.svc.TodayTasks(f.userID)
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	for _, v := range today {
		if v.ID == ut.ID {
			t.Error("deleted task in today list")
		}
	}

	// Completing a deleted task reports not-found, not invalid transition.
	if _, err := f.svc.CompleteTask(f.userID, ut.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("complete deleted err = %v, want ErrNotFound", err)
	}
	if err := f.svc.DeleteTask(f.userID, ut.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete err = %v, want ErrNotFound", err)
	}
}

func TestAddCustomTask(t *testing.T) {
	f := newFixture(t)

	ut, err := f.svc.AddCustomTask(f.userID, "Ranger le garage", "Garage", 45, 12)
	if err != nil {
		t.Fatalf("AddCustomTask: %v", err)
	}
	if !ut.IsCustom || ut.Status != task.StatusDue || ut.TemplateID != nil {
		t.Errorf("custom task = %+v", ut)
	}

	// Custom tasks are always in the today list while due.
	today, err := f.svc.TodayTasks(f.userID)
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	found := false
	for _, v := range today {
		if v.ID == ut.ID {
			found = true
			if v.Title != "Ranger le garage" || v.Room != "Garage" || v.DurationMin != 45 {
				t.Errorf("view = %+v", v)
			}
		}
	}
	if !found {
		t.Error("custom task missing from today list")
	}

	if _, err := f.svc.AddCustomTask(f.userID, "   ", "Garage", 10, 5); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("blank title err = %v, want ErrInvalidInput", err)
	}
	if _, err := f.svc.AddCustomTask(f.userID, "x", "", -1, 5); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("negative duration err = %v, want ErrInvalidInput", err)
	}
}

func TestResetProgress(t *testing.T) {
	f := newFixture(t)
	f.setXP(t, 700)

	done := f.createFromTemplate(t, "cuisine-vaisselle", 5, fixedNow)
	if _, err := f.svc.CompleteTask(f.userID, done.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	snoozed := f.createFromTemplate(t, "sdb-vasque", 10, fixedNow)
	if err := f.svc.SnoozeTask(f.userID, snoozed.ID); err != nil {
		t.Fatalf("snooze: %v", err)
	}
	deleted := f.createFromTemplate(t, "wc-cuvette", 10, fixedNow)
	if err := f.svc.DeleteTask(f.userID, deleted.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if err := f.svc.ResetProgress(f.userID); err != nil {
		t.Fatalf("ResetProgress: %v", err)
	}

	profile, _ := f.profiles.GetByUserID(f.userID)
	if profile.XP != 0 {
		t.Errorf("XP = %d, want 0", profile.XP)
	}
	if profile.CurrentLevel != string(level.TierApprenti) {
		t.Errorf("CurrentLevel = %q, want apprenti", profile.CurrentLevel)
	}

	for _, id := range []int64{done.ID, snoozed.ID} {
		got, _ := f.tasks.GetByID(id, f.userID)
		if got.Status != task.StatusDue {
			t.Errorf("task %d status = %q, want due after reset", id, got.Status)
		}
	}
	// Deleted rows stay deleted.
	got, _ := f.tasks.GetByID(deleted.ID, f.userID)
	if got.Status != task.StatusDeleted {
		t.Errorf("deleted task status = %q after reset", got.Status)
	}
}

func TestActivateTemplates(t *testing.T) {
	f := newFixture(t)

	// No pets, no garden: only the unconditioned catalog entries apply.
	created, err := f.svc.ActivateTemplates(f.userID)
	if err != nil {
		t.Fatalf("ActivateTemplates: %v", err)
	}
	if created != 8 {
		t.Errorf("created = %d, want 8", created)
	}

	// Idempotent while the instances are live.
	created, err = f.svc.ActivateTemplates(f.userID)
	if err != nil {
		t.Fatalf("second activation: %v", err)
	}
	if created != 0 {
		t.Errorf("second activation created = %d, want 0", created)
	}

	// Gaining a pet picks up the petsOnly template.
	if _, err := f.profiles.UpdateAttributes(f.userID, model.HousingApartment, model.FamilySingle, true, false); err != nil {
		t.Fatalf("update attributes: %v", err)
	}
	created, err = f.svc.ActivateTemplates(f.userID)
	if err != nil {
		t.Fatalf("third activation: %v", err)
	}
	if created != 1 {
		t.Errorf("after adding pet, created = %d, want 1", created)
	}
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	f.setXP(t, 250)

	done := f.createFromTemplate(t, "cuisine-vaisselle", 5, fixedNow)
	if _, err := f.svc.CompleteTask(f.userID, done.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	stats, err := f.svc.Stats(f.userID)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	// 250 + 5 base + 1 regulier bonus.
	if stats.XP != 256 {
		t.Errorf("XP = %d, want 256", stats.XP)
	}
	if stats.Level.ID != level.TierRegulier {
		t.Errorf("Level = %v, want regulier", stats.Level.ID)
	}
	// Weekly points count base task points, not bonuses.
	if stats.WeeklyPoints != 5 {
		t.Errorf("WeeklyPoints = %d, want 5", stats.WeeklyPoints)
	}
	// One done, plus the daily successor which is due.
	if stats.WeeklyDone != 1 || stats.WeeklyDue != 1 {
		t.Errorf("done/due = %d/%d, want 1/1", stats.WeeklyDone, stats.WeeklyDue)
	}
	if stats.WeeklyCompletion != 50 {
		t.Errorf("WeeklyCompletion = %d, want 50", stats.WeeklyCompletion)
	}

	profile, _ := f.profiles.GetByUserID(f.userID)
	if profile.WeeklyCompletion != 50 {
		t.Errorf("cached completion = %d, want 50", profile.WeeklyCompletion)
	}
}
