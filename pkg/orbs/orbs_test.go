package orbs

import (
	"testing"

	"github.com/jwebster45206/dialogue-engine/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotalOrbs(t *testing.T) {
	p := state.PlayerPatterns{Analytical: 1, Patience: 2, Exploring: 3, Helping: 4, Building: 5}
	assert.Equal(t, 15, TotalOrbs(p))
	assert.Equal(t, p.Analytical+p.Patience+p.Exploring+p.Helping+p.Building, TotalOrbs(p))
	assert.Equal(t, 0, TotalOrbs(state.PlayerPatterns{}))
}

func TestCalculateOrbResonance_AllZero(t *testing.T) {
	res := CalculateOrbResonance(state.PlayerPatterns{}, state.NewFlagSet())
	assert.Equal(t, 0, res.TotalOrbs)
	assert.Equal(t, TierNascent, res.CurrentTier)
	assert.Nil(t, res.TierJustUnlocked)
}

func TestCalculateOrbResonance_CrossingIsIdempotent(t *testing.T) {
	flags := state.NewFlagSet()

	before := CalculateOrbResonance(state.PlayerPatterns{Helping: 9}, flags)
	assert.Equal(t, TierNascent, before.CurrentTier)
	assert.Nil(t, before.TierJustUnlocked)

	after := CalculateOrbResonance(state.PlayerPatterns{Helping: 9, Patience: 1}, flags)
	require.NotNil(t, after.TierJustUnlocked)
	assert.Equal(t, TierEmerging, *after.TierJustUnlocked)

	// Persist the flag, then recompute
	for _, f := range TierFlags(*after.TierJustUnlocked) {
		flags[f] = true
	}
	replay := CalculateOrbResonance(state.PlayerPatterns{Helping: 9, Patience: 1}, flags)
	assert.Equal(t, TierEmerging, replay.CurrentTier)
	assert.Nil(t, replay.TierJustUnlocked)
}

func TestCalculateOrbResonance_NilFlags(t *testing.T) {
	res := CalculateOrbResonance(state.PlayerPatterns{Building: 30}, nil)
	require.NotNil(t, res.TierJustUnlocked)
	assert.Equal(t, TierDeveloping, *res.TierJustUnlocked)
}

func TestTierForTotal(t *testing.T) {
	tests := []struct {
		total    int
		expected Tier
	}{
		{0, TierNascent},
		{9, TierNascent},
		{10, TierEmerging},
		{29, TierEmerging},
		{30, TierDeveloping},
		{59, TierDeveloping},
		{60, TierFlourishing},
		{99, TierFlourishing},
		{100, TierMastered},
		{250, TierMastered},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, TierForTotal(tt.total), "total %d", tt.total)
	}
}

func TestTierFlags(t *testing.T) {
	assert.Empty(t, TierFlags(TierNascent))
	assert.Equal(t, []string{"orb_tier_emerging"}, TierFlags(TierEmerging))
	assert.Equal(t, []string{
		"orb_tier_emerging",
		"orb_tier_developing",
		"orb_tier_flourishing",
		"orb_tier_mastered",
	}, TierFlags(TierMastered))
}

func TestDominantPattern(t *testing.T) {
	tests := []struct {
		name     string
		patterns state.PlayerPatterns
		expected state.PatternType
	}{
		{"all zero picks first canonical", state.PlayerPatterns{}, state.PatternAnalytical},
		{"clear winner", state.PlayerPatterns{Helping: 5, Building: 2}, state.PatternHelping},
		{"tie goes to earlier dimension", state.PlayerPatterns{Building: 4, Exploring: 4}, state.PatternExploring},
		{"tie between patience and helping", state.PlayerPatterns{Helping: 3, Patience: 3}, state.PatternPatience},
		{"last dimension wins outright", state.PlayerPatterns{Analytical: 1, Building: 2}, state.PatternBuilding},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DominantPattern(tt.patterns))
		})
	}
}

func TestGetOrbTierProgress(t *testing.T) {
	t.Run("zero", func(t *testing.T) {
		p := GetOrbTierProgress(0)
		assert.Equal(t, TierNascent, p.CurrentTier)
		require.NotNil(t, p.NextTier)
		assert.Equal(t, TierEmerging, *p.NextTier)
		assert.Equal(t, 0, p.Progress)
		assert.Equal(t, 10, p.OrbsToNext)
	})

	t.Run("top tier", func(t *testing.T) {
		p := GetOrbTierProgress(100)
		assert.Equal(t, TierMastered, p.CurrentTier)
		assert.Nil(t, p.NextTier)
		assert.Equal(t, 100, p.Progress)
		assert.Equal(t, 0, p.OrbsToNext)
	})

	t.Run("midway between developing and flourishing", func(t *testing.T) {
		p := GetOrbTierProgress(45)
		assert.Equal(t, TierDeveloping, p.CurrentTier)
		require.NotNil(t, p.NextTier)
		assert.Equal(t, TierFlourishing, *p.NextTier)
		assert.Equal(t, 50, p.Progress)
		assert.Equal(t, 15, p.OrbsToNext)
	})

	t.Run("exactly on threshold", func(t *testing.T) {
		p := GetOrbTierProgress(10)
		assert.Equal(t, TierEmerging, p.CurrentTier)
		assert.Equal(t, 0, p.Progress)
		assert.Equal(t, 20, p.OrbsToNext)
	})

	t.Run("negative clamps to zero", func(t *testing.T) {
		p := GetOrbTierProgress(-5)
		assert.Equal(t, TierNascent, p.CurrentTier)
		assert.Equal(t, 0, p.Progress)
	})
}
