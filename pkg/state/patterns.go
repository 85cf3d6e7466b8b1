package state

// PatternType names one of the five behavioral dimensions tracked for the player.
type PatternType string

const (
	PatternAnalytical PatternType = "analytical"
	PatternPatience   PatternType = "patience"
	PatternExploring  PatternType = "exploring"
	PatternHelping    PatternType = "helping"
	PatternBuilding   PatternType = "building"
)

// AllPatterns returns the pattern dimensions in canonical order.
// Dominant-pattern tie-breaks depend on this order.
func AllPatterns() []PatternType {
	return []PatternType{
		PatternAnalytical,
		PatternPatience,
		PatternExploring,
		PatternHelping,
		PatternBuilding,
	}
}

// IsValidPattern reports whether p is one of the five known dimensions.
func IsValidPattern(p PatternType) bool {
	switch p {
	case PatternAnalytical, PatternPatience, PatternExploring, PatternHelping, PatternBuilding:
		return true
	default:
		return false
	}
}

// PlayerPatterns holds the accumulated orb count for each dimension.
type PlayerPatterns struct {
	Analytical int `json:"analytical"`
	Patience   int `json:"patience"`
	Exploring  int `json:"exploring"`
	Helping    int `json:"helping"`
	Building   int `json:"building"`
}

// Get returns the value of a single dimension. Unknown dimensions report false.
func (pp PlayerPatterns) Get(p PatternType) (int, bool) {
	switch p {
	case PatternAnalytical:
		return pp.Analytical, true
	case PatternPatience:
		return pp.Patience, true
	case PatternExploring:
		return pp.Exploring, true
	case PatternHelping:
		return pp.Helping, true
	case PatternBuilding:
		return pp.Building, true
	default:
		return 0, false
	}
}

// With returns a copy with delta added to dimension p. Values never drop below zero.
// Unknown dimensions return the receiver unchanged.
func (pp PlayerPatterns) With(p PatternType, delta int) PlayerPatterns {
	current, ok := pp.Get(p)
	if !ok {
		return pp
	}
	next := max(current+delta, 0)
	switch p {
	case PatternAnalytical:
		pp.Analytical = next
	case PatternPatience:
		pp.Patience = next
	case PatternExploring:
		pp.Exploring = next
	case PatternHelping:
		pp.Helping = next
	case PatternBuilding:
		pp.Building = next
	}
	return pp
}

// Total is the sum of all five dimensions.
func (pp PlayerPatterns) Total() int {
	return pp.Analytical + pp.Patience + pp.Exploring + pp.Helping + pp.Building
}

// normalized clamps negative values loaded from older or hand-edited snapshots.
func (pp PlayerPatterns) normalized() PlayerPatterns {
	return PlayerPatterns{
		Analytical: max(pp.Analytical, 0),
		Patience:   max(pp.Patience, 0),
		Exploring:  max(pp.Exploring, 0),
		Helping:    max(pp.Helping, 0),
		Building:   max(pp.Building, 0),
	}
}
