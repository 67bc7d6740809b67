package store

import (
	"testing"
	"time"
)

func TestSessionCreateAndGet(t *testing.T) {
	db := testDB(t)
	user := testUser(t, db)
	sessions := NewSessionStore(db)

	sess, err := sessions.Create(user.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(sess.Token) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(sess.Token))
	}

	got, err := sessions.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.UserID != user.ID {
		t.Errorf("got %+v", got)
	}
}

func TestSessionExpired(t *testing.T) {
	db := testDB(t)
	user := testUser(t, db)
	sessions := NewSessionStore(db)

	sess, err := sessions.Create(user.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := db.Exec(`UPDATE sessions SET expires_at = ? WHERE id = ?`,
		time.Now().UTC().Add(-time.Hour), sess.ID); err != nil {
		t.Fatalf("expire: %v", err)
	}

	got, err := sessions.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("expired session still retrievable")
	}

	n, err := sessions.DeleteExpired()
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d, want 1", n)
	}
}

func TestSessionDeleteByUser(t *testing.T) {
	db := testDB(t)
	user := testUser(t, db)
	sessions := NewSessionStore(db)

	s1, _ := sessions.Create(user.ID)
	s2, _ := sessions.Create(user.ID)

	if err := sessions.DeleteByUser(user.ID); err != nil {
		t.Fatalf("delete by user: %v", err)
	}
	for _, token := range []string{s1.Token, s2.Token} {
		if got, _ := sessions.GetByToken(token); got != nil {
			t.Error("session survived DeleteByUser")
		}
	}
}
