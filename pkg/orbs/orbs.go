// Package orbs aggregates the five pattern dimensions into resonance tiers
// and detects one-time tier unlocks.
package orbs

import (
	"math"

	"github.com/jwebster45206/dialogue-engine/pkg/state"
)

// Tier is a milestone band over total orbs.
type Tier string

const (
	TierNascent     Tier = "nascent"
	TierEmerging    Tier = "emerging"
	TierDeveloping  Tier = "developing"
	TierFlourishing Tier = "flourishing"
	TierMastered    Tier = "mastered"
)

// TierFlagPrefix prefixes the persistent global flag granted when a tier is reached.
const TierFlagPrefix = "orb_tier_"

type tierThreshold struct {
	tier      Tier
	threshold int
}

// thresholds returns tiers in ascending order.
func thresholds() []tierThreshold {
	return []tierThreshold{
		{TierNascent, 0},
		{TierEmerging, 10},
		{TierDeveloping, 30},
		{TierFlourishing, 60},
		{TierMastered, 100},
	}
}

// Flag returns the unlock flag for a tier. Nascent has no flag.
func Flag(t Tier) string {
	if t == TierNascent || t == "" {
		return ""
	}
	return TierFlagPrefix + string(t)
}

// TierFlags returns the unlock flags for t and every tier below it.
func TierFlags(t Tier) []string {
	var flags []string
	for _, th := range thresholds() {
		if f := Flag(th.tier); f != "" {
			flags = append(flags, f)
		}
		if th.tier == t {
			break
		}
	}
	return flags
}

// TotalOrbs is the sum of all five pattern dimensions.
func TotalOrbs(p state.PlayerPatterns) int {
	return p.Total()
}

// DominantPattern returns the dimension with the highest value.
// Ties go to the dimension that comes first in state.AllPatterns.
func DominantPattern(p state.PlayerPatterns) state.PatternType {
	order := state.AllPatterns()
	best := order[0]
	bestValue, _ := p.Get(best)
	for _, candidate := range order[1:] {
		if v, _ := p.Get(candidate); v > bestValue {
			best = candidate
			bestValue = v
		}
	}
	return best
}

// TierForTotal returns the highest tier whose threshold total reaches.
func TierForTotal(total int) Tier {
	current := TierNascent
	for _, th := range thresholds() {
		if total >= th.threshold {
			current = th.tier
		}
	}
	return current
}

// Resonance is the result of CalculateOrbResonance.
type Resonance struct {
	TotalOrbs        int   `json:"total_orbs"`
	CurrentTier      Tier  `json:"current_tier"`
	TierJustUnlocked *Tier `json:"tier_just_unlocked"` // Set only on the turn the tier flag is first granted
}

// FlagChecker reports whether a flag is present.
type FlagChecker interface {
	Has(flag string) bool
}

// CalculateOrbResonance computes the current tier and whether it was just reached.
// TierJustUnlocked is non-nil only when the current tier's flag is absent from
// existingFlags, so recomputing after the flag is persisted never re-reports it.
func CalculateOrbResonance(p state.PlayerPatterns, existingFlags FlagChecker) Resonance {
	total := TotalOrbs(p)
	tier := TierForTotal(total)
	res := Resonance{
		TotalOrbs:   total,
		CurrentTier: tier,
	}

	flag := Flag(tier)
	if flag == "" {
		return res
	}
	if existingFlags == nil || !existingFlags.Has(flag) {
		unlocked := tier
		res.TierJustUnlocked = &unlocked
	}
	return res
}

// TierProgress describes progress from the current tier toward the next.
type TierProgress struct {
	CurrentTier Tier  `json:"current_tier"`
	NextTier    *Tier `json:"next_tier"`
	OrbsToNext  int   `json:"orbs_to_next"`
	Progress    int   `json:"progress"` // Percent, 0-100
}

// GetOrbTierProgress interpolates linearly between adjacent tier thresholds.
// At the top tier NextTier is nil and Progress is 100.
func GetOrbTierProgress(total int) TierProgress {
	total = max(total, 0)
	ths := thresholds()

	idx := 0
	for i, th := range ths {
		if total >= th.threshold {
			idx = i
		}
	}

	current := ths[idx]
	if idx == len(ths)-1 {
		return TierProgress{
			CurrentTier: current.tier,
			NextTier:    nil,
			OrbsToNext:  0,
			Progress:    100,
		}
	}

	next := ths[idx+1]
	span := next.threshold - current.threshold
	progress := int(math.Round(float64(total-current.threshold) / float64(span) * 100))
	nextTier := next.tier
	return TierProgress{
		CurrentTier: current.tier,
		NextTier:    &nextTier,
		OrbsToNext:  next.threshold - total,
		Progress:    min(max(progress, 0), 100),
	}
}
