package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/cleanquest/cleanquest/internal/model"
	"github.com/cleanquest/cleanquest/internal/task"
)

type TaskStore struct {
	db querier
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

// WithTx returns a copy of the store bound to the given transaction.
func (s *TaskStore) WithTx(tx *sql.Tx) *TaskStore {
	return &TaskStore{db: tx}
}

func scanTask(scanner interface{ Scan(...any) error }) (*model.UserTask, error) {
	var t model.UserTask
	var templateID sql.NullString
	var lastDoneAt sql.NullTime
	var isCustom int

	err := scanner.Scan(
		&t.ID, &t.UserID, &templateID, &t.Status, &lastDoneAt, &t.NextDueAt,
		&t.Points, &isCustom, &t.CustomTitle, &t.CustomRoom, &t.CustomDuration,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if templateID.Valid {
		t.TemplateID = &templateID.String
	}
	if lastDoneAt.Valid {
		t.LastDoneAt = &lastDoneAt.Time
	}
	t.IsCustom = isCustom != 0
	return &t, nil
}

const taskCols = `id, user_id, template_id, status, last_done_at, next_due_at, points, is_custom, custom_title, custom_room, custom_duration, created_at`

// NewTaskParams carries the fields for inserting a task row.
type NewTaskParams struct {
	UserID         int64
	TemplateID     *string
	NextDueAt      time.Time
	Points         int
	IsCustom       bool
	CustomTitle    string
	CustomRoom     string
	CustomDuration int
}

func (s *TaskStore) Create(p NewTaskParams) (*model.UserTask, error) {
	var tID sql.NullString
	if p.TemplateID != nil {
		tID = sql.NullString{String: *p.TemplateID, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO user_tasks (user_id, template_id, status, next_due_at, points, is_custom, custom_title, custom_room, custom_duration)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.UserID, tID, task.StatusDue, p.NextDueAt.UTC(), p.Points,
		boolToInt(p.IsCustom), p.CustomTitle, p.CustomRoom, p.CustomDuration,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id, p.UserID)
}

func (s *TaskStore) GetByID(id, userID int64) (*model.UserTask, error) {
	row := s.db.QueryRow(
		`SELECT `+taskCols+` FROM user_tasks WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// ListByUser returns the user's tasks, soft-deleted rows excluded.
func (s *TaskStore) ListByUser(userID int64) ([]model.UserTask, error) {
	rows, err := s.db.Query(
		`SELECT `+taskCols+` FROM user_tasks
		 WHERE user_id = ? AND status != ?
		 ORDER BY next_due_at ASC, id ASC`,
		userID, task.StatusDeleted,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (s *TaskStore) ListByStatus(userID int64, status string) ([]model.UserTask, error) {
	rows, err := s.db.Query(
		`SELECT `+taskCols+` FROM user_tasks
		 WHERE user_id = ? AND status = ?
		 ORDER BY next_due_at ASC, id ASC`,
		userID, status,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks by status: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

// MarkDone transitions a task from due to done. The status guard in the WHERE
// clause is the serialization point for concurrent completions: only one
// caller observes an affected row.
func (s *TaskStore) MarkDone(id, userID int64, now time.Time) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE user_tasks SET status = ?, last_done_at = ?
		 WHERE id = ? AND user_id = ? AND status = ?`,
		task.StatusDone, now.UTC(), id, userID, task.StatusDue,
	)
	if err != nil {
		return false, fmt.Errorf("mark task done: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// SetStatus transitions a task between statuses, guarded by the expected
// current status.
func (s *TaskStore) SetStatus(id, userID int64, from, to string) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE user_tasks SET status = ? WHERE id = ? AND user_id = ? AND status = ?`,
		to, id, userID, from,
	)
	if err != nil {
		return false, fmt.Errorf("set task status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// SoftDelete flags a task deleted. Works from any live status; already
// deleted rows are left alone.
func (s *TaskStore) SoftDelete(id, userID int64) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE user_tasks SET status = ? WHERE id = ? AND user_id = ? AND status != ?`,
		task.StatusDeleted, id, userID, task.StatusDeleted,
	)
	if err != nil {
		return false, fmt.Errorf("soft delete task: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// ResetAllToDue reverts every live task to due, available immediately.
// Used by the reset-progress operation.
func (s *TaskStore) ResetAllToDue(userID int64, now time.Time) error {
	_, err := s.db.Exec(
		`UPDATE user_tasks SET status = ?, next_due_at = ?, last_done_at = NULL
		 WHERE user_id = ? AND status != ?`,
		task.StatusDue, now.UTC(), userID, task.StatusDeleted,
	)
	if err != nil {
		return fmt.Errorf("reset tasks: %w", err)
	}
	return nil
}

// HasLiveForTemplate reports whether the user already has a non-deleted task
// for a template. Used to avoid duplicate instantiation on activation.
func (s *TaskStore) HasLiveForTemplate(userID int64, templateID string) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM user_tasks WHERE user_id = ? AND template_id = ? AND status != ?`,
		userID, templateID, task.StatusDeleted,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count tasks for template: %w", err)
	}
	return n > 0, nil
}

// SumPointsDoneSince totals the points of tasks completed at or after the
// given instant.
func (s *TaskStore) SumPointsDoneSince(userID int64, since time.Time) (int, error) {
	var sum sql.NullInt64
	err := s.db.QueryRow(
		`SELECT COALESCE(SUM(points), 0) FROM user_tasks
		 WHERE user_id = ? AND status = ? AND last_done_at >= ?`,
		userID, task.StatusDone, since.UTC(),
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum points done: %w", err)
	}
	return int(sum.Int64), nil
}

// CountByStatusSince returns how many tasks completed since the instant and
// how many are still due, for the weekly completion figure.
func (s *TaskStore) CountByStatusSince(userID int64, since time.Time) (done, due int, err error) {
	err = s.db.QueryRow(
		`SELECT COUNT(*) FROM user_tasks WHERE user_id = ? AND status = ? AND last_done_at >= ?`,
		userID, task.StatusDone, since.UTC(),
	).Scan(&done)
	if err != nil {
		return 0, 0, fmt.Errorf("count done tasks: %w", err)
	}
	err = s.db.QueryRow(
		`SELECT COUNT(*) FROM user_tasks WHERE user_id = ? AND status = ?`,
		userID, task.StatusDue,
	).Scan(&due)
	if err != nil {
		return 0, 0, fmt.Errorf("count due tasks: %w", err)
	}
	return done, due, nil
}

// ListDueUserIDs returns distinct users that currently have due tasks.
// The reminder scheduler fans out from this.
func (s *TaskStore) ListDueUserIDs() ([]int64, error) {
	rows, err := s.db.Query(
		`SELECT DISTINCT user_id FROM user_tasks WHERE status = ?`, task.StatusDue,
	)
	if err != nil {
		return nil, fmt.Errorf("list due user ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func collectTasks(rows *sql.Rows) ([]model.UserTask, error) {
	var tasks []model.UserTask
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}
