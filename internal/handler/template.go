package handler

import (
	"log/slog"
	"net/http"

	"github.com/cleanquest/cleanquest/internal/auth"
	"github.com/cleanquest/cleanquest/internal/store"
)

type TemplateHandler struct {
	templates *store.TemplateStore
	profiles  *store.ProfileStore
	logger    *slog.Logger
}

func NewTemplateHandler(ts *store.TemplateStore, ps *store.ProfileStore, logger *slog.Logger) *TemplateHandler {
	return &TemplateHandler{templates: ts, profiles: ps, logger: logger}
}

// List handles GET /api/templates. With ?applicable=true the catalog is
// filtered by the caller's pet and garden flags.
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("applicable") == "true" {
		profile, err := h.profiles.GetByUserID(auth.UserID(r.Context()))
		if err != nil || profile == nil {
			h.logger.Error("load profile for template filter", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to load templates")
			return
		}
		templates, err := h.templates.ListApplicable(profile.HasPets, profile.HasGarden)
		if err != nil {
			h.logger.Error("list applicable templates", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to load templates")
			return
		}
		writeJSON(w, http.StatusOK, templates)
		return
	}

	templates, err := h.templates.List()
	if err != nil {
		h.logger.Error("list templates", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load templates")
		return
	}
	writeJSON(w, http.StatusOK, templates)
}
