package state

import (
	"log/slog"
	"time"
)

// DeltaWorker applies declared state changes to a game state.
// The engine runs it against a clone so that a failed commit leaves the
// caller's copy untouched.
type DeltaWorker struct {
	gs     *GameState
	logger *slog.Logger
	now    func() time.Time
}

// NewDeltaWorker creates a new delta worker for applying state changes
func NewDeltaWorker(gs *GameState, logger *slog.Logger) *DeltaWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeltaWorker{
		gs:     gs,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the time source used for interaction timestamps.
// Returns the DeltaWorker for method chaining
func (dw *DeltaWorker) WithClock(now func() time.Time) *DeltaWorker {
	dw.now = now
	return dw
}

// Apply applies a StateChange. characterID is used when the change does not name one.
func (dw *DeltaWorker) Apply(change *StateChange, characterID string) {
	if change.IsEmpty() {
		return
	}

	target := characterID
	if change.CharacterID != "" {
		target = change.CharacterID
	}

	if change.TrustChange != 0 || change.RelationshipStatus != "" {
		if target == "" {
			dw.logger.Warn("Trust change without a character, skipping",
				"trust_change", change.TrustChange)
		} else {
			dw.applyTrust(target, change.TrustChange, change.RelationshipStatus)
		}
	}

	// Iterate in canonical order so logs are stable
	for _, p := range AllPatterns() {
		if delta, ok := change.PatternChanges[p]; ok && delta != 0 {
			dw.GrantPattern(p, delta)
		}
	}
	for p := range change.PatternChanges {
		if !IsValidPattern(p) {
			dw.logger.Warn("Unknown pattern in state change, skipping", "pattern", p)
		}
	}

	dw.SetGlobalFlags(change.AddGlobalFlags...)
	for _, f := range change.RemoveGlobalFlags {
		delete(dw.gs.GlobalFlags, f)
	}

	if len(change.AddKnowledgeFlags) > 0 || len(change.RemoveKnowledgeFlags) > 0 {
		if target == "" {
			dw.logger.Warn("Knowledge flags without a character, skipping",
				"add", change.AddKnowledgeFlags,
				"remove", change.RemoveKnowledgeFlags)
			return
		}
		cs := dw.gs.EnsureCharacter(target)
		for _, f := range change.AddKnowledgeFlags {
			cs.KnowledgeFlags[f] = true
		}
		for _, f := range change.RemoveKnowledgeFlags {
			delete(cs.KnowledgeFlags, f)
		}
	}
}

func (dw *DeltaWorker) applyTrust(characterID string, delta int, statusOverride string) {
	cs := dw.gs.EnsureCharacter(characterID)
	before := cs.Trust
	cs.Trust = clampTrust(cs.Trust + delta)
	if statusOverride != "" {
		cs.RelationshipStatus = statusOverride
	} else {
		cs.RelationshipStatus = RelationshipForTrust(cs.Trust)
	}
	if before != cs.Trust {
		dw.logger.Debug("Trust changed",
			"character_id", characterID,
			"from", before,
			"to", cs.Trust,
			"relationship", cs.RelationshipStatus)
	}
}

// GrantPattern adds orbs to one pattern dimension.
func (dw *DeltaWorker) GrantPattern(p PatternType, delta int) {
	if !IsValidPattern(p) {
		dw.logger.Warn("Unknown pattern, skipping", "pattern", p)
		return
	}
	dw.gs.Patterns = dw.gs.Patterns.With(p, delta)
}

// SetGlobalFlags sets global flags.
func (dw *DeltaWorker) SetGlobalFlags(flags ...string) {
	if len(flags) == 0 {
		return
	}
	if dw.gs.GlobalFlags == nil {
		dw.gs.GlobalFlags = make(FlagSet)
	}
	for _, f := range flags {
		dw.gs.GlobalFlags[f] = true
	}
}

// RecordVisit appends nodeID to the character's conversation history and
// stamps the interaction time.
func (dw *DeltaWorker) RecordVisit(characterID, nodeID string) {
	if characterID == "" || nodeID == "" {
		return
	}
	now := dw.now()
	cs := dw.gs.EnsureCharacter(characterID)
	cs.ConversationHistory = append(cs.ConversationHistory, nodeID)
	cs.LastInteraction = now
	dw.gs.Timestamp = now
}

// BeginEncounter counts a new conversation with a character, creating its state if needed.
func (dw *DeltaWorker) BeginEncounter(characterID string) *CharacterState {
	cs := dw.gs.EnsureCharacter(characterID)
	cs.EncounterCount++
	cs.LastInteraction = dw.now()
	return cs
}
