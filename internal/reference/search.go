package reference

import (
	"sort"
	"strings"

	"ontarioseed/internal/util"
)

const (
	DefaultLimit = 10
	MaxLimit     = 50
	MinScore     = 0.20
)

type Match struct {
	Entry
	Score float64
}

// Search ranks entries against query. An empty query lists the first entries
// in load order.
func (idx *Index) Search(query string, limit int) []Match {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	normalized := util.NormalizeForSearch(query)
	if normalized == "" {
		n := min(limit, len(idx.entries))
		out := make([]Match, 0, n)
		for _, e := range idx.entries[:n] {
			out = append(out, Match{Entry: e.Entry})
		}
		return out
	}

	compact := strings.ReplaceAll(normalized, " ", "")
	queryTokens := util.Tokenize(normalized)

	out := make([]Match, 0)
	for _, e := range idx.entries {
		score := scoreEntry(e, normalized, compact, queryTokens)
		if score >= MinScore {
			out = append(out, Match{Entry: e.Entry, Score: score})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if c := compareFold(out[i].Name, out[j].Name); c != 0 {
			return c < 0
		}
		return compareFold(out[i].City, out[j].City) < 0
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func scoreEntry(e indexedEntry, query, compact string, queryTokens []string) float64 {
	if e.name == query {
		return 1.50
	}
	if e.acronym != "" && e.acronym == compact {
		return 1.35
	}

	score := 0.0
	switch {
	case strings.HasPrefix(e.name, query):
		score += 0.95
	case strings.Contains(e.name, query):
		score += 0.80
	case strings.Contains(e.searchText, query):
		score += 0.45
	}

	if compact != "" {
		switch {
		case strings.HasPrefix(e.compactName, compact):
			score += 0.50
		case strings.Contains(e.compactName, compact):
			score += 0.35
		}
		if e.acronym != "" {
			switch {
			case strings.HasPrefix(e.acronym, compact):
				score += 0.85
			case strings.Contains(e.acronym, compact):
				score += 0.45
			}
		}
	}

	score += 0.45 * util.DiceCoefficient(e.name, query)
	score += 0.25 * util.DiceCoefficient(e.searchText, query)
	score += 0.30 * tokenCoverage(queryTokens, e.tokens)
	if e.acronym != "" && compact != "" {
		score += 0.35 * util.DiceCoefficient(e.acronym, compact)
	}
	return score
}

// tokenCoverage is the share of query tokens found among the entry tokens,
// counting substring and close bigram matches.
func tokenCoverage(queryTokens, entryTokens []string) float64 {
	if len(queryTokens) == 0 || len(entryTokens) == 0 {
		return 0
	}
	matched := 0
	for _, q := range queryTokens {
		for _, t := range entryTokens {
			if t == q || strings.Contains(t, q) || strings.Contains(q, t) || util.DiceCoefficient(t, q) >= 0.55 {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(queryTokens))
}
