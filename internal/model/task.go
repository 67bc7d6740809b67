package model

import "time"

// UserTask is a per-user instance of a template, or a free-form custom chore.
// Daily recurrence is append-only: completing a daily task leaves the done row
// in place and inserts a fresh successor for the next day.
type UserTask struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"user_id"`
	TemplateID     *string    `json:"template_id"`
	Status         string     `json:"status"`
	LastDoneAt     *time.Time `json:"last_done_at,omitempty"`
	NextDueAt      time.Time  `json:"next_due_at"`
	Points         int        `json:"points"`
	IsCustom       bool       `json:"is_custom"`
	CustomTitle    string     `json:"custom_title,omitempty"`
	CustomRoom     string     `json:"custom_room,omitempty"`
	CustomDuration int        `json:"custom_duration,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// DisplayTitle resolves the title shown for the task: the template's unless
// the task is custom.
func (t UserTask) DisplayTitle(tpl *TaskTemplate) string {
	if t.IsCustom || tpl == nil {
		return t.CustomTitle
	}
	return tpl.Title
}

// DisplayRoom resolves the room label the same way as DisplayTitle.
func (t UserTask) DisplayRoom(tpl *TaskTemplate) string {
	if t.IsCustom || tpl == nil {
		return t.CustomRoom
	}
	return tpl.Room
}
