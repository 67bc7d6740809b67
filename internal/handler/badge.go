package handler

import (
	"log/slog"
	"net/http"

	"github.com/cleanquest/cleanquest/internal/auth"
	"github.com/cleanquest/cleanquest/internal/store"
)

type BadgeHandler struct {
	badges *store.BadgeStore
	logger *slog.Logger
}

func NewBadgeHandler(bs *store.BadgeStore, logger *slog.Logger) *BadgeHandler {
	return &BadgeHandler{badges: bs, logger: logger}
}

// List handles GET /api/badges: the full catalog with the caller's unlock
// state for each entry.
func (h *BadgeHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	if err := h.badges.EnsureForUser(userID); err != nil {
		h.logger.Error("ensure badges", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load badges")
		return
	}

	states, err := h.badges.ListStates(userID)
	if err != nil {
		h.logger.Error("list badge states", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load badges")
		return
	}
	writeJSON(w, http.StatusOK, states)
}
