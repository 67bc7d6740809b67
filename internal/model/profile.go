package model

import "time"

// Housing and family attributes only influence which catalog templates apply.
const (
	HousingHouse     = "house"
	HousingApartment = "apartment"
	HousingStudent   = "student"

	FamilySingle = "single"
	FamilyParent = "parent"
)

type UserProfile struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"user_id"`
	HousingType      string    `json:"housing_type"`
	FamilyStatus     string    `json:"family_status"`
	HasPets          bool      `json:"has_pets"`
	HasGarden        bool      `json:"has_garden"`
	XP               int       `json:"xp"`
	CurrentLevel     string    `json:"current_level"`
	WeeklyCompletion int       `json:"weekly_completion"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
