package handler

import (
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cleanquest/cleanquest/internal/backup"
	"github.com/cleanquest/cleanquest/internal/store"
)

const backupHistoryLimit = 50

type BackupHandler struct {
	manager  *backup.Manager
	backups  *store.BackupStore
	settings *store.SettingsStore
	logger   *slog.Logger
}

func NewBackupHandler(m *backup.Manager, bs *store.BackupStore, ss *store.SettingsStore, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{manager: m, backups: bs, settings: ss, logger: logger}
}

// Status handles GET /api/backup/status.
func (h *BackupHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Status())
}

// GetSettings handles GET /api/backup/settings. Secrets are masked.
func (h *BackupHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.GetBackupSettings()
	if err != nil {
		h.logger.Error("get backup settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}

	if settings["backup_s3_secret_key"] != "" {
		settings["backup_s3_secret_key"] = "********"
	}
	delete(settings, "backup_passphrase_salt")
	writeJSON(w, http.StatusOK, settings)
}

type backupSettingsRequest struct {
	Enabled       *bool   `json:"enabled"`
	ScheduleHour  *int    `json:"schedule_hour"`
	RetentionDays *int    `json:"retention_days"`
	S3Endpoint    *string `json:"s3_endpoint"`
	S3Bucket      *string `json:"s3_bucket"`
	S3Region      *string `json:"s3_region"`
	S3AccessKey   *string `json:"s3_access_key"`
	S3SecretKey   *string `json:"s3_secret_key"`
}

// UpdateSettings handles PUT /api/backup/settings. A passphrase salt is
// generated on first configuration; the manager hot-reloads S3 credentials.
func (h *BackupHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req backupSettingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	set := func(key, value string) error {
		return h.settings.Set(key, value)
	}
	var err error
	if req.Enabled != nil {
		err = set("backup_enabled", strconv.FormatBool(*req.Enabled))
	}
	if err == nil && req.ScheduleHour != nil {
		if *req.ScheduleHour < 0 || *req.ScheduleHour > 23 {
			writeError(w, http.StatusBadRequest, "schedule_hour must be 0-23")
			return
		}
		err = set("backup_schedule_hour", strconv.Itoa(*req.ScheduleHour))
	}
	if err == nil && req.RetentionDays != nil {
		if *req.RetentionDays < 1 {
			writeError(w, http.StatusBadRequest, "retention_days must be positive")
			return
		}
		err = set("backup_retention_days", strconv.Itoa(*req.RetentionDays))
	}
	if err == nil && req.S3Endpoint != nil {
		err = set("backup_s3_endpoint", *req.S3Endpoint)
	}
	if err == nil && req.S3Bucket != nil {
		err = set("backup_s3_bucket", *req.S3Bucket)
	}
	if err == nil && req.S3Region != nil {
		err = set("backup_s3_region", *req.S3Region)
	}
	if err == nil && req.S3AccessKey != nil {
		err = set("backup_s3_access_key", *req.S3AccessKey)
	}
	if err == nil && req.S3SecretKey != nil {
		err = set("backup_s3_secret_key", *req.S3SecretKey)
	}
	if err != nil {
		h.logger.Error("save backup settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}

	settings, err := h.settings.GetBackupSettings()
	if err != nil {
		h.logger.Error("reload backup settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}

	if settings["backup_passphrase_salt"] == "" {
		salt, err := backup.GenerateSalt()
		if err != nil {
			h.logger.Error("generate salt", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to save settings")
			return
		}
		if err := h.settings.Set("backup_passphrase_salt", hex.EncodeToString(salt)); err != nil {
			h.logger.Error("save salt", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to save settings")
			return
		}
	}

	h.manager.UpdateS3Config(backup.S3Config{
		Endpoint:  settings["backup_s3_endpoint"],
		Bucket:    settings["backup_s3_bucket"],
		Region:    settings["backup_s3_region"],
		AccessKey: settings["backup_s3_access_key"],
		SecretKey: settings["backup_s3_secret_key"],
	})

	writeJSON(w, http.StatusOK, map[string]string{"status": "settings saved"})
}

type passphraseRequest struct {
	Passphrase string `json:"passphrase"`
}

// RunNow handles POST /api/backup/run.
func (h *BackupHandler) RunNow(w http.ResponseWriter, r *http.Request) {
	var req passphraseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.Passphrase) < 12 {
		writeError(w, http.StatusBadRequest, "passphrase must be at least 12 characters")
		return
	}

	id, err := h.manager.RunNow(r.Context(), req.Passphrase)
	if err != nil {
		h.logger.Error("run backup", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"backup_id": id})
}

// History handles GET /api/backup/history.
func (h *BackupHandler) History(w http.ResponseWriter, r *http.Request) {
	backups, err := h.backups.List(backupHistoryLimit)
	if err != nil {
		h.logger.Error("list backups", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	writeJSON(w, http.StatusOK, backups)
}

// Restore handles POST /api/backup/{id}/restore. On success the process
// exits so the supervisor restarts on the restored database.
func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid backup id")
		return
	}

	var req passphraseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if err := h.manager.Restore(r.Context(), id, req.Passphrase); err != nil {
		h.logger.Error("restore backup", "backup_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
}

// Download handles GET /api/backup/{id}/download, streaming the encrypted
// backup object.
func (h *BackupHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid backup id")
		return
	}

	body, size, err := h.manager.Download(r.Context(), id)
	if err != nil {
		h.logger.Error("download backup", "backup_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="backup-%d.db.enc"`, id))
	if size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Error("stream backup", "backup_id", id, "error", err)
	}
}
