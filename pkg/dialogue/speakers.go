package dialogue

import (
	"strings"

	"golang.org/x/text/cases"
)

// SpeakerIndex resolves node speaker names to character ids.
type SpeakerIndex map[string]string

// NewSpeakerIndex indexes each graph's character id and speaker names.
func NewSpeakerIndex(graphs ...*DialogueGraph) SpeakerIndex {
	idx := make(SpeakerIndex)
	for _, g := range graphs {
		if g == nil || g.CharacterID == "" {
			continue
		}
		idx.Add(g.CharacterID, g.CharacterID)
		for _, name := range g.SpeakerNames {
			idx.Add(name, g.CharacterID)
		}
	}
	return idx
}

// Add maps a speaker name to a character id.
func (si SpeakerIndex) Add(name, characterID string) {
	if key := foldSpeaker(name); key != "" {
		si[key] = characterID
	}
}

// Resolve returns the character id for a speaker. Matching ignores case and
// surrounding whitespace, and falls back to the speaker's first name.
func (si SpeakerIndex) Resolve(speaker string) (string, bool) {
	key := foldSpeaker(speaker)
	if key == "" {
		return "", false
	}
	if id, ok := si[key]; ok {
		return id, true
	}
	if first, _, found := strings.Cut(key, " "); found {
		if id, ok := si[first]; ok {
			return id, true
		}
	}
	return "", false
}

func foldSpeaker(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	return cases.Fold().String(name)
}
