package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/cleanquest/cleanquest/internal/database"
	"github.com/cleanquest/cleanquest/internal/model"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testUser(t *testing.T, db *sql.DB) *model.User {
	t.Helper()
	user, err := NewUserStore(db).Create("marie@example.com", "Marie", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}
