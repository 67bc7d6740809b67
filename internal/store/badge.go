package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/cleanquest/cleanquest/internal/model"
)

type BadgeStore struct {
	db querier
}

func NewBadgeStore(db *sql.DB) *BadgeStore {
	return &BadgeStore{db: db}
}

// BadgeState is a catalog badge joined with one user's unlock state.
type BadgeState struct {
	model.Badge
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
}

const badgeCols = `id, name, description, icon, condition, created_at`

func (s *BadgeStore) ListCatalog() ([]model.Badge, error) {
	rows, err := s.db.Query(`SELECT ` + badgeCols + ` FROM badges ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	defer rows.Close()

	var badges []model.Badge
	for rows.Next() {
		var b model.Badge
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.Icon, &b.Condition, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan badge: %w", err)
		}
		badges = append(badges, b)
	}
	return badges, rows.Err()
}

// EnsureForUser copies the badge catalog into the user's badge rows, locked.
// Safe to call repeatedly; existing rows are untouched.
func (s *BadgeStore) EnsureForUser(userID int64) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO user_badges (user_id, badge_id, unlocked)
		 SELECT ?, id, 0 FROM badges`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("ensure user badges: %w", err)
	}
	return nil
}

// ListStates returns the full catalog with the user's unlock state joined in.
func (s *BadgeStore) ListStates(userID int64) ([]BadgeState, error) {
	rows, err := s.db.Query(
		`SELECT b.id, b.name, b.description, b.icon, b.condition, b.created_at,
		        COALESCE(ub.unlocked, 0), ub.unlocked_at
		 FROM badges b
		 LEFT JOIN user_badges ub ON ub.badge_id = b.id AND ub.user_id = ?
		 ORDER BY b.id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list badge states: %w", err)
	}
	defer rows.Close()

	var states []BadgeState
	for rows.Next() {
		var bs BadgeState
		var unlocked int
		var unlockedAt sql.NullTime
		err := rows.Scan(
			&bs.ID, &bs.Name, &bs.Description, &bs.Icon, &bs.Condition, &bs.CreatedAt,
			&unlocked, &unlockedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan badge state: %w", err)
		}
		bs.Unlocked = unlocked != 0
		if unlockedAt.Valid {
			bs.UnlockedAt = &unlockedAt.Time
		}
		states = append(states, bs)
	}
	return states, rows.Err()
}

func (s *BadgeStore) SetUnlocked(userID int64, badgeID string, unlocked bool) error {
	var unlockedAt any
	if unlocked {
		unlockedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`UPDATE user_badges SET unlocked = ?, unlocked_at = ? WHERE user_id = ? AND badge_id = ?`,
		boolToInt(unlocked), unlockedAt, userID, badgeID,
	)
	if err != nil {
		return fmt.Errorf("set badge unlocked: %w", err)
	}
	return nil
}
