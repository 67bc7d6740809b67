package middleware

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/cleanquest/cleanquest/internal/auth"
	"github.com/cleanquest/cleanquest/internal/database"
	"github.com/cleanquest/cleanquest/internal/store"
)

func TestRequireAuth(t *testing.T) {
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	user, err := store.NewUserStore(db).Create("marie@example.com", "Marie", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	sessions := store.NewSessionStore(db)
	sess, err := sessions.Create(user.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	var gotUserID int64
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = auth.UserID(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	protected := RequireAuth(sessions)(next)

	t.Run("no cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, httptest.NewRequest("GET", "/api/tasks", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("bogus token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/tasks", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "not-a-real-token"})
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("valid session", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/tasks", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sess.Token})
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if gotUserID != user.ID {
			t.Errorf("context user = %d, want %d", gotUserID, user.ID)
		}
	})
}
