package handler

import (
	"log/slog"
	"net/http"

	"github.com/cleanquest/cleanquest/internal/auth"
	"github.com/cleanquest/cleanquest/internal/game"
	"github.com/cleanquest/cleanquest/internal/store"
	"github.com/cleanquest/cleanquest/internal/websocket"
)

type ProfileHandler struct {
	profiles *store.ProfileStore
	game     *game.Service
	hub      *websocket.Hub
	logger   *slog.Logger
}

func NewProfileHandler(ps *store.ProfileStore, gameSvc *game.Service, hub *websocket.Hub, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: ps, game: gameSvc, hub: hub, logger: logger}
}

// Get handles GET /api/profile.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.GetByUserID(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("load profile", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	if profile == nil {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

type updateAttributesRequest struct {
	HousingType  string `json:"housing_type"`
	FamilyStatus string `json:"family_status"`
	HasPets      bool   `json:"has_pets"`
	HasGarden    bool   `json:"has_garden"`
}

// UpdateAttributes handles PUT /api/profile. Changing pet or garden flags
// re-runs template activation so newly applicable chores appear.
func (h *ProfileHandler) UpdateAttributes(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req updateAttributesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !validHousing(req.HousingType) || !validFamily(req.FamilyStatus) {
		writeError(w, http.StatusBadRequest, "invalid housing type or family status")
		return
	}

	profile, err := h.profiles.UpdateAttributes(userID, req.HousingType, req.FamilyStatus, req.HasPets, req.HasGarden)
	if err != nil {
		h.logger.Error("update profile", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}

	if created, err := h.game.ActivateTemplates(userID); err != nil {
		h.logger.Error("activate templates", "user_id", userID, "error", err)
	} else if created > 0 {
		h.hub.Notify(userID, websocket.NewMessage("task", "created", 0, map[string]any{"count": created}))
	}

	h.hub.Notify(userID, websocket.NewMessage("profile", "updated", profile.ID, nil))
	writeJSON(w, http.StatusOK, profile)
}

// Stats handles GET /api/profile/stats.
func (h *ProfileHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.game.Stats(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("load stats", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ResetProgress handles POST /api/profile/reset.
func (h *ProfileHandler) ResetProgress(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	if err := h.game.ResetProgress(userID); err != nil {
		h.logger.Error("reset progress", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reset progress")
		return
	}

	h.hub.Notify(userID, websocket.NewMessage("profile", "reset", 0, nil))
	writeJSON(w, http.StatusOK, map[string]string{"status": "progress reset"})
}
