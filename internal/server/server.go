package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/cleanquest/cleanquest/internal/backup"
	"github.com/cleanquest/cleanquest/internal/email"
	"github.com/cleanquest/cleanquest/internal/game"
	"github.com/cleanquest/cleanquest/internal/handler"
	"github.com/cleanquest/cleanquest/internal/middleware"
	"github.com/cleanquest/cleanquest/internal/push"
	"github.com/cleanquest/cleanquest/internal/store"
	ws "github.com/cleanquest/cleanquest/internal/websocket"
)

// PushConfig holds the VAPID key pair. Push features are disabled when
// either key is empty.
type PushConfig struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
}

type Server struct {
	db   *sql.DB
	hub  *ws.Hub
	game *game.Service

	authH     *handler.AuthHandler
	taskH     *handler.TaskHandler
	profileH  *handler.ProfileHandler
	templateH *handler.TemplateHandler
	badgeH    *handler.BadgeHandler
	pushH     *handler.PushHandler
	backupH   *handler.BackupHandler
	wsH       *ws.Handler

	sessionStore  *store.SessionStore
	resetStore    *store.ResetCodeStore
	rateLimiter   *middleware.RateLimiter
	backupManager *backup.Manager
	pushScheduler *push.Scheduler
	logger        *slog.Logger
}

func New(db *sql.DB, emailClient *email.Client, backupCfg backup.Config, pushCfg PushConfig, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	profileStore := store.NewProfileStore(db)
	sessionStore := store.NewSessionStore(db)
	resetStore := store.NewResetCodeStore(db)
	templateStore := store.NewTemplateStore(db)
	taskStore := store.NewTaskStore(db)
	badgeStore := store.NewBadgeStore(db)
	pushStore := store.NewPushStore(db)
	backupStore := store.NewBackupStore(db)
	settingsStore := store.NewSettingsStore(db)

	gameSvc := game.NewService(db, logger.With("component", "game"))

	backupMgr := backup.NewManager(backupCfg, db, backupStore, settingsStore, logger.With("component", "backup"))

	var pushSvc *push.Service
	var pushSched *push.Scheduler
	var pushH *handler.PushHandler
	if pushCfg.VAPIDPublicKey != "" && pushCfg.VAPIDPrivateKey != "" {
		pushLogger := logger.With("component", "push")
		pushSvc = push.NewService(pushCfg.VAPIDPublicKey, pushCfg.VAPIDPrivateKey)
		pushSched = push.NewScheduler(pushSvc, gameSvc, pushStore, taskStore, settingsStore, pushLogger)
		pushH = handler.NewPushHandler(pushStore, pushSvc, pushLogger)
	}

	return &Server{
		db:   db,
		hub:  hub,
		game: gameSvc,
		authH: handler.NewAuthHandler(
			userStore, profileStore, sessionStore, resetStore, badgeStore,
			gameSvc, emailClient, logger.With("component", "auth"),
		),
		taskH:         handler.NewTaskHandler(gameSvc, hub, logger.With("component", "task")),
		profileH:      handler.NewProfileHandler(profileStore, gameSvc, hub, logger.With("component", "profile")),
		templateH:     handler.NewTemplateHandler(templateStore, profileStore, logger.With("component", "template")),
		badgeH:        handler.NewBadgeHandler(badgeStore, logger.With("component", "badge")),
		pushH:         pushH,
		backupH:       handler.NewBackupHandler(backupMgr, backupStore, settingsStore, logger.With("component", "backup_api")),
		wsH:           ws.NewHandler(hub, logger.With("component", "websocket")),
		sessionStore:  sessionStore,
		resetStore:    resetStore,
		rateLimiter:   middleware.NewRateLimiter(),
		backupManager: backupMgr,
		pushScheduler: pushSched,
		logger:        logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// ResetCodeStore returns the reset code store for cleanup tasks.
func (s *Server) ResetCodeStore() *store.ResetCodeStore {
	return s.resetStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// BackupManager returns the backup manager.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

// PushScheduler returns the reminder scheduler, nil when push is disabled.
func (s *Server) PushScheduler() *push.Scheduler {
	return s.pushScheduler
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes, rate limited where they touch credentials.
	outerMux.HandleFunc("POST /api/auth/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /api/auth/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("POST /api/auth/reset/request", s.rateLimitedHandler(s.authH.RequestPasswordReset))
	outerMux.HandleFunc("POST /api/auth/reset/confirm", s.rateLimitedHandler(s.authH.ConfirmPasswordReset))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/auth/me", s.authH.Me)

	// Task routes
	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.HandleFunc("POST /api/tasks", s.taskH.CreateCustom)
	mux.HandleFunc("GET /api/tasks/today", s.taskH.Today)
	mux.HandleFunc("POST /api/tasks/{id}/complete", s.taskH.Complete)
	mux.HandleFunc("POST /api/tasks/{id}/snooze", s.taskH.Snooze)
	mux.HandleFunc("POST /api/tasks/{id}/resume", s.taskH.Resume)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.taskH.Delete)

	// Profile routes
	mux.HandleFunc("GET /api/profile", s.profileH.Get)
	mux.HandleFunc("PUT /api/profile", s.profileH.UpdateAttributes)
	mux.HandleFunc("GET /api/profile/stats", s.profileH.Stats)
	mux.HandleFunc("POST /api/profile/reset", s.profileH.ResetProgress)

	// Catalog routes
	mux.HandleFunc("GET /api/templates", s.templateH.List)
	mux.HandleFunc("GET /api/badges", s.badgeH.List)
	mux.HandleFunc("GET /api/levels", handler.Levels)

	// Push notification routes
	if s.pushH != nil {
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
		mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
		mux.HandleFunc("GET /api/push/subscriptions", s.pushH.List)
		mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
	}

	// Backup routes
	mux.HandleFunc("GET /api/backup/status", s.backupH.Status)
	mux.HandleFunc("GET /api/backup/settings", s.backupH.GetSettings)
	mux.HandleFunc("PUT /api/backup/settings", s.backupH.UpdateSettings)
	mux.HandleFunc("POST /api/backup/run", s.backupH.RunNow)
	mux.HandleFunc("GET /api/backup/history", s.backupH.History)
	mux.HandleFunc("POST /api/backup/{id}/restore", s.backupH.Restore)
	mux.HandleFunc("GET /api/backup/{id}/download", s.backupH.Download)

	// Real-time change feed
	mux.Handle("GET /ws", s.wsH)
}
