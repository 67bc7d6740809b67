package store

import "testing"

func TestBadgeCatalogSeeded(t *testing.T) {
	db := testDB(t)
	badges := NewBadgeStore(db)

	catalog, err := badges.ListCatalog()
	if err != nil {
		t.Fatalf("list catalog: %v", err)
	}
	if len(catalog) != 3 {
		t.Fatalf("catalog has %d badges, want 3", len(catalog))
	}
}

func TestBadgeEnsureAndUnlock(t *testing.T) {
	db := testDB(t)
	user := testUser(t, db)
	badges := NewBadgeStore(db)

	if err := badges.EnsureForUser(user.ID); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	// Idempotent.
	if err := badges.EnsureForUser(user.ID); err != nil {
		t.Fatalf("second ensure: %v", err)
	}

	states, err := badges.ListStates(user.ID)
	if err != nil {
		t.Fatalf("list states: %v", err)
	}
	if len(states) != 3 {
		t.Fatalf("states = %d, want 3", len(states))
	}
	for _, s := range states {
		if s.Unlocked {
			t.Errorf("badge %q unlocked before any progress", s.ID)
		}
	}

	if err := badges.SetUnlocked(user.ID, "frigo-hero", true); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	states, _ = badges.ListStates(user.ID)
	for _, s := range states {
		switch s.ID {
		case "frigo-hero":
			if !s.Unlocked || s.UnlockedAt == nil {
				t.Error("frigo-hero not unlocked with timestamp")
			}
		default:
			if s.Unlocked {
				t.Errorf("badge %q unexpectedly unlocked", s.ID)
			}
		}
	}
}
