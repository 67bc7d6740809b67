package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/cleanquest/cleanquest/internal/auth"
	"github.com/cleanquest/cleanquest/internal/email"
	"github.com/cleanquest/cleanquest/internal/game"
	"github.com/cleanquest/cleanquest/internal/middleware"
	"github.com/cleanquest/cleanquest/internal/model"
	"github.com/cleanquest/cleanquest/internal/store"
)

const sessionMaxAge = 30 * 24 * time.Hour

type AuthHandler struct {
	users       *store.UserStore
	profiles    *store.ProfileStore
	sessions    *store.SessionStore
	resetCodes  *store.ResetCodeStore
	badges      *store.BadgeStore
	game        *game.Service
	emailClient *email.Client
	logger      *slog.Logger
}

func NewAuthHandler(
	us *store.UserStore,
	ps *store.ProfileStore,
	ss *store.SessionStore,
	rcs *store.ResetCodeStore,
	bs *store.BadgeStore,
	gameSvc *game.Service,
	ec *email.Client,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		users:       us,
		profiles:    ps,
		sessions:    ss,
		resetCodes:  rcs,
		badges:      bs,
		game:        gameSvc,
		emailClient: ec,
		logger:      logger,
	}
}

type registerRequest struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	Password     string `json:"password"`
	HousingType  string `json:"housing_type"`
	FamilyStatus string `json:"family_status"`
	HasPets      bool   `json:"has_pets"`
	HasGarden    bool   `json:"has_garden"`
}

// Register handles POST /api/auth/register. It creates the user and profile,
// seeds the badge progress rows, and instantiates the applicable catalog
// templates so the dashboard is populated on first login.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "a valid email is required")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}
	if !validHousing(req.HousingType) || !validFamily(req.FamilyStatus) {
		writeError(w, http.StatusBadRequest, "invalid housing type or family status")
		return
	}

	existing, err := h.users.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("register lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "an account with this email already exists")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	user, err := h.users.Create(req.Email, req.Name, string(hash))
	if err != nil {
		h.logger.Error("create user", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if _, err := h.profiles.Create(user.ID, req.HousingType, req.FamilyStatus, req.HasPets, req.HasGarden); err != nil {
		h.logger.Error("create profile", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := h.badges.EnsureForUser(user.ID); err != nil {
		h.logger.Error("seed badges", "user_id", user.ID, "error", err)
	}
	if _, err := h.game.ActivateTemplates(user.ID); err != nil {
		h.logger.Error("activate templates", "user_id", user.ID, "error", err)
	}

	if err := h.startSession(w, r, user.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.logger.Info("user registered", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	user, err := h.users.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		h.logger.Error("login lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	// Same response for unknown email and wrong password.
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	if err := h.startSession(w, r, user.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.sessions.Delete(cookie.Value); err != nil {
			h.logger.Error("delete session", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByID(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("load user", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type resetRequest struct {
	Email string `json:"email"`
}

// RequestPasswordReset handles POST /api/auth/reset/request. The response is
// identical whether or not the email exists, to prevent enumeration.
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	emailAddr := strings.ToLower(strings.TrimSpace(req.Email))
	if emailAddr == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	defer writeJSON(w, http.StatusOK, map[string]string{"status": "if the account exists, a code was sent"})

	user, err := h.users.GetByEmail(emailAddr)
	if err != nil || user == nil {
		return
	}

	code, err := h.resetCodes.Create(emailAddr)
	if err != nil {
		h.logger.Error("create reset code", "error", err)
		return
	}
	if err := h.emailClient.SendResetCode(emailAddr, code.Token); err != nil {
		h.logger.Error("send reset code", "error", err)
	}
}

type resetConfirmRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

// ConfirmPasswordReset handles POST /api/auth/reset/confirm. A successful
// reset invalidates every existing session for the user.
func (h *AuthHandler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req resetConfirmRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.NewPassword) < 8 {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	emailAddr := strings.ToLower(strings.TrimSpace(req.Email))
	rc, err := h.resetCodes.Consume(emailAddr, strings.TrimSpace(req.Code))
	if err != nil {
		h.logger.Error("consume reset code", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if rc == nil {
		writeError(w, http.StatusUnauthorized, "invalid or expired code")
		return
	}

	user, err := h.users.GetByEmail(rc.Email)
	if err != nil || user == nil {
		writeError(w, http.StatusUnauthorized, "invalid or expired code")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := h.users.UpdatePassword(user.ID, string(hash)); err != nil {
		h.logger.Error("update password", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := h.sessions.DeleteByUser(user.ID); err != nil {
		h.logger.Error("revoke sessions", "error", err)
	}

	h.logger.Info("password reset", "user_id", user.ID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, userID int64) error {
	sess, err := h.sessions.Create(userID)
	if err != nil {
		h.logger.Error("create session", "user_id", userID, "error", err)
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func validHousing(s string) bool {
	switch s {
	case model.HousingHouse, model.HousingApartment, model.HousingStudent:
		return true
	}
	return false
}

func validFamily(s string) bool {
	switch s {
	case model.FamilySingle, model.FamilyParent:
		return true
	}
	return false
}
