package store

import (
	"database/sql"
	"fmt"

	"github.com/cleanquest/cleanquest/internal/model"
)

type ProfileStore struct {
	db querier
}

func NewProfileStore(db *sql.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

// WithTx returns a copy of the store bound to the given transaction.
func (s *ProfileStore) WithTx(tx *sql.Tx) *ProfileStore {
	return &ProfileStore{db: tx}
}

func scanProfile(scanner interface{ Scan(...any) error }) (*model.UserProfile, error) {
	var p model.UserProfile
	var pets, garden int

	err := scanner.Scan(
		&p.ID, &p.UserID, &p.HousingType, &p.FamilyStatus, &pets, &garden,
		&p.XP, &p.CurrentLevel, &p.WeeklyCompletion, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.HasPets = pets != 0
	p.HasGarden = garden != 0
	return &p, nil
}

const profileCols = `id, user_id, housing_type, family_status, has_pets, has_garden, xp, current_level, weekly_completion, created_at, updated_at`

func (s *ProfileStore) Create(userID int64, housingType, familyStatus string, hasPets, hasGarden bool) (*model.UserProfile, error) {
	_, err := s.db.Exec(
		`INSERT INTO user_profiles (user_id, housing_type, family_status, has_pets, has_garden)
		 VALUES (?, ?, ?, ?, ?)`,
		userID, housingType, familyStatus, boolToInt(hasPets), boolToInt(hasGarden),
	)
	if err != nil {
		return nil, fmt.Errorf("insert profile: %w", err)
	}
	return s.GetByUserID(userID)
}

func (s *ProfileStore) GetByUserID(userID int64) (*model.UserProfile, error) {
	row := s.db.QueryRow(`SELECT `+profileCols+` FROM user_profiles WHERE user_id = ?`, userID)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// SetXP stores the new XP total and denormalized level label. Negative XP is
// clamped to zero before persisting.
func (s *ProfileStore) SetXP(userID int64, xp int, levelLabel string) error {
	if xp < 0 {
		xp = 0
	}
	_, err := s.db.Exec(
		`UPDATE user_profiles SET xp = ?, current_level = ?, updated_at = CURRENT_TIMESTAMP WHERE user_id = ?`,
		xp, levelLabel, userID,
	)
	if err != nil {
		return fmt.Errorf("set xp: %w", err)
	}
	return nil
}

func (s *ProfileStore) UpdateAttributes(userID int64, housingType, familyStatus string, hasPets, hasGarden bool) (*model.UserProfile, error) {
	_, err := s.db.Exec(
		`UPDATE user_profiles SET housing_type = ?, family_status = ?, has_pets = ?, has_garden = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE user_id = ?`,
		housingType, familyStatus, boolToInt(hasPets), boolToInt(hasGarden), userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update profile attributes: %w", err)
	}
	return s.GetByUserID(userID)
}

func (s *ProfileStore) SetWeeklyCompletion(userID int64, percent int) error {
	_, err := s.db.Exec(
		`UPDATE user_profiles SET weekly_completion = ?, updated_at = CURRENT_TIMESTAMP WHERE user_id = ?`,
		percent, userID,
	)
	if err != nil {
		return fmt.Errorf("set weekly completion: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
