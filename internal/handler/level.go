package handler

import (
	"net/http"

	"github.com/cleanquest/cleanquest/internal/level"
)

// Levels handles GET /api/levels. The tier ladder is static so no handler
// state is needed.
func Levels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, level.All())
}
