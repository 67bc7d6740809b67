package store

import (
	"testing"

	"github.com/cleanquest/cleanquest/internal/model"
)

func TestTemplateSeededCatalog(t *testing.T) {
	db := testDB(t)
	templates := NewTemplateStore(db)

	all, err := templates.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 10 {
		t.Fatalf("seeded catalog has %d entries, want 10", len(all))
	}

	tpl, err := templates.GetByID("cuisine-vaisselle")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if tpl == nil {
		t.Fatal("cuisine-vaisselle not seeded")
	}
	if tpl.Frequency != model.FreqDaily || tpl.Points != 5 || tpl.DurationMin != 10 {
		t.Errorf("got %+v", tpl)
	}
}

func TestTemplateListApplicable(t *testing.T) {
	db := testDB(t)
	templates := NewTemplateStore(db)

	cases := []struct {
		name      string
		pets      bool
		garden    bool
		wantCount int
	}{
		{"neither", false, false, 8},
		{"pets only", true, false, 9},
		{"garden only", false, true, 9},
		{"both", true, true, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := templates.ListApplicable(tc.pets, tc.garden)
			if err != nil {
				t.Fatalf("list applicable: %v", err)
			}
			if len(got) != tc.wantCount {
				t.Errorf("count = %d, want %d", len(got), tc.wantCount)
			}
			for _, tpl := range got {
				if tpl.Condition == model.CondPetsOnly && !tc.pets {
					t.Errorf("petsOnly template %q returned without pets", tpl.ID)
				}
				if tpl.Condition == model.CondGardenOnly && !tc.garden {
					t.Errorf("gardenOnly template %q returned without garden", tpl.ID)
				}
			}
		})
	}
}

func TestTemplateGetMissing(t *testing.T) {
	db := testDB(t)
	tpl, err := NewTemplateStore(db).GetByID("no-such-template")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if tpl != nil {
		t.Errorf("got %+v, want nil", tpl)
	}
}
