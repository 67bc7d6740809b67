package level

// Tier identifies one XP band.
type Tier string

const (
	TierApprenti Tier = "apprenti"
	TierRegulier Tier = "regulier"
	TierMaitre   Tier = "maitre"
	TierLegende  Tier = "legende"
)

// Config describes one tier: its XP band, display name, completion bonus,
// and flavor character. MaxXP == 0 marks the open-ended top tier.
type Config struct {
	ID        Tier      `json:"id"`
	Name      string    `json:"name"`
	MinXP     int       `json:"min_xp"`
	MaxXP     int       `json:"max_xp,omitempty"`
	Bonus     int       `json:"bonus"`
	Character Character `json:"character"`
	Next      Tier      `json:"next_level,omitempty"`
}

// tiers is ordered by ascending MinXP; bands are half-open [MinXP, MaxXP)
// and partition [0, ∞) with no gaps.
var tiers = []Config{
	{ID: TierApprenti, Name: "Novice", MinXP: 0, MaxXP: 200, Bonus: 0, Character: characters[TierApprenti], Next: TierRegulier},
	{ID: TierRegulier, Name: "Guerrier", MinXP: 200, MaxXP: 600, Bonus: 1, Character: characters[TierRegulier], Next: TierMaitre},
	{ID: TierMaitre, Name: "Maître", MinXP: 600, MaxXP: 1200, Bonus: 2, Character: characters[TierMaitre], Next: TierLegende},
	{ID: TierLegende, Name: "Immortel", MinXP: 1200, MaxXP: 0, Bonus: 3, Character: characters[TierLegende]},
}

// All returns every tier in ascending XP order.
func All() []Config {
	out := make([]Config, len(tiers))
	copy(out, tiers)
	return out
}

// ConfigFor returns the configuration for a tier id.
func ConfigFor(t Tier) (Config, bool) {
	for _, c := range tiers {
		if c.ID == t {
			return c, true
		}
	}
	return Config{}, false
}

// ForXP maps an XP value to its tier. Bands are lower-bound inclusive; an XP
// exactly on a boundary belongs to the higher tier. Callers must clamp
// negative XP before calling.
func ForXP(xp int) Tier {
	for _, c := range tiers {
		if xp >= c.MinXP && (c.MaxXP == 0 || xp < c.MaxXP) {
			return c.ID
		}
	}
	return TierLegende
}

// Progress returns the percentage [0,100] through the current tier.
// The open-ended top tier is always 100.
func Progress(xp int) float64 {
	c, _ := ConfigFor(ForXP(xp))
	if c.MaxXP == 0 {
		return 100
	}
	p := float64(xp-c.MinXP) / float64(c.MaxXP-c.MinXP) * 100
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// XPToNext returns the XP remaining before the next tier, 0 at the top.
func XPToNext(xp int) int {
	c, _ := ConfigFor(ForXP(xp))
	if c.MaxXP == 0 {
		return 0
	}
	return c.MaxXP - xp
}

// Bonus returns the fixed per-completion bonus granted while holding a tier.
func Bonus(t Tier) int {
	c, ok := ConfigFor(t)
	if !ok {
		return 0
	}
	return c.Bonus
}

// DetectLevelUp reports the tier reached by newXP when it differs from the
// tier of oldXP. ok is false when no transition happened.
func DetectLevelUp(oldXP, newXP int) (tier Tier, ok bool) {
	from := ForXP(oldXP)
	to := ForXP(newXP)
	if from == to {
		return "", false
	}
	return to, true
}
