package model

import "time"

// Frequency is the recurrence cadence of a catalog template.
type Frequency string

const (
	FreqDaily     Frequency = "daily"
	FreqWeekly    Frequency = "weekly"
	FreqMonthly   Frequency = "monthly"
	FreqQuarterly Frequency = "quarterly"
	FreqYearly    Frequency = "yearly"
)

// Valid reports whether f is one of the known frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case FreqDaily, FreqWeekly, FreqMonthly, FreqQuarterly, FreqYearly:
		return true
	}
	return false
}

// Condition restricts a template to profiles with matching attributes.
type Condition string

const (
	CondNone       Condition = "none"
	CondPetsOnly   Condition = "petsOnly"
	CondGardenOnly Condition = "gardenOnly"
)

// TaskTemplate is an immutable catalog entry for a recurring chore.
type TaskTemplate struct {
	ID          string    `json:"id"`
	Room        string    `json:"room"`
	Title       string    `json:"title"`
	Frequency   Frequency `json:"frequency"`
	DurationMin int       `json:"duration_min"`
	Points      int       `json:"points"`
	Condition   Condition `json:"condition"`
	CreatedAt   time.Time `json:"created_at"`
}
