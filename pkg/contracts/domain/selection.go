package domain

import (
	"strings"
)

// AllSentinel is the selector value meaning "every variant". The upstream
// dataset UI sends it alongside concrete names; when present it always wins.
const AllSentinel = "ALL"

// VariantSelection is either the "all variants" sentinel or a concrete set of
// variant names. The zero value selects all variants.
type VariantSelection struct {
	names map[string]struct{}
}

// AllVariants returns the selection matching every variant.
func AllVariants() VariantSelection {
	return VariantSelection{}
}

// SelectVariants builds a selection from the given names. An empty list, or a
// list containing the AllSentinel, collapses to the "all variants" selection.
func SelectVariants(names ...string) VariantSelection {
	if len(names) == 0 {
		return AllVariants()
	}
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if strings.EqualFold(name, AllSentinel) {
			return AllVariants()
		}
		set[name] = struct{}{}
	}
	if len(set) == 0 {
		return AllVariants()
	}
	return VariantSelection{names: set}
}

// IsAll reports whether the selection matches every variant.
func (s VariantSelection) IsAll() bool {
	return len(s.names) == 0
}

// Matches reports whether the given variant is selected.
func (s VariantSelection) Matches(variant string) bool {
	if s.IsAll() {
		return true
	}
	_, ok := s.names[variant]
	return ok
}

// Names returns the selected variant names, or nil for the "all" selection.
func (s VariantSelection) Names() []string {
	if s.IsAll() {
		return nil
	}
	names := make([]string, 0, len(s.names))
	for name := range s.names {
		names = append(names, name)
	}
	return names
}

// DisplayMode selects the aggregation policy applied to filtered rows.
type DisplayMode string

const (
	// ModeDistribution keeps one row per weekly observation.
	ModeDistribution DisplayMode = "distribution"
	// ModeRankedMean collapses each variant to the mean of its weekly shares.
	ModeRankedMean DisplayMode = "ranked_mean"
)

// ParseDisplayMode converts a request string into a DisplayMode.
func ParseDisplayMode(s string) (DisplayMode, bool) {
	switch DisplayMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeDistribution:
		return ModeDistribution, true
	case ModeRankedMean:
		return ModeRankedMean, true
	}
	return "", false
}

// Valid reports whether the mode is one of the known display modes.
func (m DisplayMode) Valid() bool {
	return m == ModeDistribution || m == ModeRankedMean
}
