package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cleanquest/cleanquest/internal/auth"
	"github.com/cleanquest/cleanquest/internal/game"
	"github.com/cleanquest/cleanquest/internal/websocket"
)

type TaskHandler struct {
	game   *game.Service
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewTaskHandler(gameSvc *game.Service, hub *websocket.Hub, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{game: gameSvc, hub: hub, logger: logger}
}

// List handles GET /api/tasks.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.game.ListTasks(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list tasks", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load tasks")
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// Today handles GET /api/tasks/today.
func (h *TaskHandler) Today(w http.ResponseWriter, r *http.Request) {
	views, err := h.game.TodayTasks(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("today tasks", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load tasks")
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// Complete handles POST /api/tasks/{id}/complete.
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	result, err := h.game.CompleteTask(userID, id)
	if err != nil {
		h.writeTaskError(w, "complete task", err)
		return
	}

	h.hub.Notify(userID, websocket.NewMessage("task", "completed", id, map[string]any{
		"points":     result.Points,
		"new_xp":     result.NewXP,
		"leveled_up": result.LeveledUp,
	}))
	writeJSON(w, http.StatusOK, result)
}

// Snooze handles POST /api/tasks/{id}/snooze.
func (h *TaskHandler) Snooze(w http.ResponseWriter, r *http.Request) {
	h.simpleTransition(w, r, "snoozed", h.game.SnoozeTask)
}

// Resume handles POST /api/tasks/{id}/resume.
func (h *TaskHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.simpleTransition(w, r, "resumed", h.game.ResumeTask)
}

// Delete handles DELETE /api/tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.simpleTransition(w, r, "deleted", h.game.DeleteTask)
}

func (h *TaskHandler) simpleTransition(w http.ResponseWriter, r *http.Request, action string, op func(userID, taskID int64) error) {
	userID := auth.UserID(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	if err := op(userID, id); err != nil {
		h.writeTaskError(w, action, err)
		return
	}

	h.hub.Notify(userID, websocket.NewMessage("task", action, id, nil))
	writeJSON(w, http.StatusOK, map[string]string{"status": action})
}

type createCustomRequest struct {
	Title       string `json:"title"`
	Room        string `json:"room"`
	DurationMin int    `json:"duration_min"`
	Points      int    `json:"points"`
}

// CreateCustom handles POST /api/tasks.
func (h *TaskHandler) CreateCustom(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req createCustomRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	t, err := h.game.AddCustomTask(userID, req.Title, req.Room, req.DurationMin, req.Points)
	if err != nil {
		h.writeTaskError(w, "create custom task", err)
		return
	}

	h.hub.Notify(userID, websocket.NewMessage("task", "created", t.ID, nil))
	writeJSON(w, http.StatusCreated, t)
}

func (h *TaskHandler) writeTaskError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, game.ErrNotFound):
		writeError(w, http.StatusNotFound, "task not found")
	case errors.Is(err, game.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "task is not in a valid status for this action")
	case errors.Is(err, game.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error(op, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
