package store

import (
	"testing"

	"github.com/cleanquest/cleanquest/internal/model"
)

func TestProfileCreateDefaults(t *testing.T) {
	db := testDB(t)
	user := testUser(t, db)
	profiles := NewProfileStore(db)

	p, err := profiles.Create(user.ID, model.HousingHouse, model.FamilyParent, true, true)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.XP != 0 {
		t.Errorf("XP = %d, want 0", p.XP)
	}
	if p.CurrentLevel != "apprenti" {
		t.Errorf("CurrentLevel = %q, want apprenti", p.CurrentLevel)
	}
	if !p.HasPets || !p.HasGarden {
		t.Error("boolean flags not persisted")
	}
}

func TestProfileSetXPClampsNegative(t *testing.T) {
	db := testDB(t)
	user := testUser(t, db)
	profiles := NewProfileStore(db)
	if _, err := profiles.Create(user.ID, model.HousingApartment, model.FamilySingle, false, false); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := profiles.SetXP(user.ID, -50, "apprenti"); err != nil {
		t.Fatalf("set xp: %v", err)
	}
	p, _ := profiles.GetByUserID(user.ID)
	if p.XP != 0 {
		t.Errorf("XP = %d, want 0 after clamping", p.XP)
	}

	if err := profiles.SetXP(user.ID, 350, "regulier"); err != nil {
		t.Fatalf("set xp: %v", err)
	}
	p, _ = profiles.GetByUserID(user.ID)
	if p.XP != 350 || p.CurrentLevel != "regulier" {
		t.Errorf("got xp=%d level=%q", p.XP, p.CurrentLevel)
	}
}

func TestProfileUpdateAttributes(t *testing.T) {
	db := testDB(t)
	user := testUser(t, db)
	profiles := NewProfileStore(db)
	if _, err := profiles.Create(user.ID, model.HousingApartment, model.FamilySingle, false, false); err != nil {
		t.Fatalf("create: %v", err)
	}

	p, err := profiles.UpdateAttributes(user.ID, model.HousingHouse, model.FamilyParent, true, false)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if p.HousingType != model.HousingHouse || !p.HasPets || p.HasGarden {
		t.Errorf("got %+v", p)
	}
}

func TestProfileGetMissing(t *testing.T) {
	db := testDB(t)
	p, err := NewProfileStore(db).GetByUserID(999)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p != nil {
		t.Errorf("got %+v, want nil", p)
	}
}
