package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	reNonAlnumLower = regexp.MustCompile(`[^a-z0-9]+`)
	reNonAlnum      = regexp.MustCompile(`[^A-Za-z0-9]`)
)

// NormalizeText folds free text into its comparison form: lowercase ASCII
// alphanumerics separated by single spaces. Lowercasing uses full Unicode case
// mapping, so "İ" becomes "i" plus a combining dot.
func NormalizeText(input string) string {
	s := cases.Lower(language.Und).String(strings.TrimSpace(input))
	s = reNonAlnumLower.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NormalizePostal formats a six character code as "AAA NNN". Anything else is
// returned compacted and uppercased, without validation. Uppercasing uses full
// case mapping ("ß" becomes "SS").
func NormalizePostal(input string) string {
	compact := reNonAlnum.ReplaceAllString(cases.Upper(language.Und).String(input), "")
	if len(compact) == 6 {
		return compact[:3] + " " + compact[3:]
	}
	return compact
}

// NormalizeForSearch is NormalizeText with accents folded first, so "École"
// matches "ecole".
func NormalizeForSearch(input string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, input)
	if err != nil {
		folded = input
	}
	return NormalizeText(folded)
}

func Tokenize(normalized string) []string {
	if normalized == "" {
		return nil
	}
	return strings.Split(normalized, " ")
}

// Acronym takes the first byte of every token of a normalized name.
func Acronym(normalized string) string {
	out := strings.Builder{}
	for _, token := range Tokenize(normalized) {
		if token != "" {
			out.WriteByte(token[0])
		}
	}
	return out.String()
}

func DiceCoefficient(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	pairs := func(s string) []string {
		r := []rune(s)
		if len(r) < 2 {
			return nil
		}
		out := make([]string, 0, len(r)-1)
		for i := 0; i < len(r)-1; i++ {
			out = append(out, string(r[i:i+2]))
		}
		return out
	}

	aPairs := pairs(a)
	bPairs := pairs(b)
	if len(aPairs) == 0 || len(bPairs) == 0 {
		return 0
	}

	bCount := map[string]int{}
	for _, p := range bPairs {
		bCount[p]++
	}
	inter := 0
	for _, p := range aPairs {
		if bCount[p] > 0 {
			inter++
			bCount[p]--
		}
	}

	return float64(2*inter) / float64(len(aPairs)+len(bPairs))
}
