package model

import "time"

// Badge is a catalog achievement definition.
type Badge struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Condition   string    `json:"condition"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserBadge tracks a badge's unlocked state for one user.
type UserBadge struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	BadgeID    string     `json:"badge_id"`
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
