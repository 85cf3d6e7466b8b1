package state

import (
	"encoding/json"
	"fmt"
	"sort"
)

// FlagSet is a set of string flags. It serializes as a sorted JSON array.
type FlagSet map[string]bool

// NewFlagSet builds a set containing the given flags. Empty names are dropped.
func NewFlagSet(flags ...string) FlagSet {
	fs := make(FlagSet, len(flags))
	for _, f := range flags {
		if f != "" {
			fs[f] = true
		}
	}
	return fs
}

// Has reports whether flag is set. A nil set has no flags.
func (fs FlagSet) Has(flag string) bool {
	return fs[flag]
}

// HasAll reports whether every flag is set. An empty list is trivially satisfied.
func (fs FlagSet) HasAll(flags []string) bool {
	for _, f := range flags {
		if !fs[f] {
			return false
		}
	}
	return true
}

// HasAny reports whether at least one of flags is set.
func (fs FlagSet) HasAny(flags []string) bool {
	for _, f := range flags {
		if fs[f] {
			return true
		}
	}
	return false
}

// Sorted returns the set flags in lexical order.
func (fs FlagSet) Sorted() []string {
	out := make([]string, 0, len(fs))
	for f, on := range fs {
		if on {
			out = append(out, f)
		}
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy.
func (fs FlagSet) Clone() FlagSet {
	out := make(FlagSet, len(fs))
	for f, on := range fs {
		if on {
			out[f] = true
		}
	}
	return out
}

func (fs FlagSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(fs.Sorted())
}

// UnmarshalJSON accepts either an array of flag names or a map of flag to bool.
func (fs *FlagSet) UnmarshalJSON(data []byte) error {
	var asArray []string
	if err := json.Unmarshal(data, &asArray); err == nil {
		*fs = NewFlagSet(asArray...)
		return nil
	}
	var asMap map[string]bool
	if err := json.Unmarshal(data, &asMap); err == nil {
		result := make(FlagSet, len(asMap))
		for f, on := range asMap {
			if on {
				result[f] = true
			}
		}
		*fs = result
		return nil
	}
	return fmt.Errorf("flags: not an array or map: %s", string(data))
}
