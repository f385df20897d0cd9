package catalog

import (
	"sort"
	"strings"

	"ontarioseed/internal"
)

type Tier string

const (
	TierStrict   Tier = "strict"
	TierFallback Tier = "fallback"
	TierSkip     Tier = "skip"
)

// ClassifyResource places a descriptor in a selection tier. Only TXT resources
// qualify; a "_en.txt" URL is strict, a "_fr.txt" URL is never a candidate,
// and anything else falls back to an English, non-French name.
func ClassifyResource(r internal.ResourceDescriptor) Tier {
	if strings.ToUpper(strings.TrimSpace(r.Format)) != "TXT" {
		return TierSkip
	}

	lowerURL := strings.ToLower(r.URL)
	if strings.Contains(lowerURL, "_fr.txt") {
		return TierSkip
	}
	if strings.Contains(lowerURL, "_en.txt") {
		return TierStrict
	}

	lowerName := strings.ToLower(r.Name)
	if strings.Contains(lowerName, "english") && !strings.Contains(lowerName, "french") {
		return TierFallback
	}
	return TierSkip
}

// PickEnglishTXTResource returns the freshest strict candidate, or the
// freshest fallback candidate when there is no strict one.
func PickEnglishTXTResource(resources []internal.ResourceDescriptor) (internal.ResourceDescriptor, bool) {
	strict := make([]internal.ResourceDescriptor, 0)
	fallback := make([]internal.ResourceDescriptor, 0)
	for _, r := range resources {
		switch ClassifyResource(r) {
		case TierStrict:
			strict = append(strict, r)
		case TierFallback:
			fallback = append(fallback, r)
		}
	}

	choices := strict
	if len(choices) == 0 {
		choices = fallback
	}
	if len(choices) == 0 {
		return internal.ResourceDescriptor{}, false
	}

	sort.SliceStable(choices, func(i, j int) bool {
		return choices[i].FreshnessKey() > choices[j].FreshnessKey()
	})
	return choices[0], true
}
