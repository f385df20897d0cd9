// Package reference loads generated seed files back and ranks their entries
// against free-text queries.
package reference

import (
	"strings"

	"ontarioseed/internal/util"
)

type Kind string

const (
	KindHighSchool     Kind = "school"
	KindCourseProvider Kind = "provider"
)

// Entry is one seed row. BoardName and SchoolSpecialConditions stay empty for
// high schools.
type Entry struct {
	ID                      string
	Name                    string
	BoardName               string
	SchoolSpecialConditions string
	StreetAddress           string
	City                    string
	State                   string
	Country                 string
	Postal                  string
}

// Values returns the entry in the seed column order of kind.
func (e Entry) Values(kind Kind) []string {
	if kind == KindHighSchool {
		return []string{e.ID, e.Name, e.StreetAddress, e.City, e.State, e.Country, e.Postal}
	}
	return []string{
		e.ID, e.Name, e.BoardName, e.SchoolSpecialConditions,
		e.StreetAddress, e.City, e.State, e.Country, e.Postal,
	}
}

type indexedEntry struct {
	Entry
	name        string
	compactName string
	acronym     string
	searchText  string
	tokens      []string
}

type Index struct {
	Kind    Kind
	entries []indexedEntry
}

func BuildIndex(kind Kind, entries []Entry) *Index {
	idx := &Index{Kind: kind, entries: make([]indexedEntry, 0, len(entries))}
	for _, e := range entries {
		name := util.NormalizeForSearch(e.Name)
		acronym := util.Acronym(name)

		parts := make([]string, 0, 8)
		for _, part := range []string{
			name,
			util.NormalizeForSearch(e.BoardName),
			util.NormalizeForSearch(e.SchoolSpecialConditions),
			util.NormalizeForSearch(e.City),
			util.NormalizeForSearch(e.State),
			util.NormalizeForSearch(e.StreetAddress),
			util.NormalizeForSearch(e.Postal),
			acronym,
		} {
			if part != "" {
				parts = append(parts, part)
			}
		}
		searchText := strings.Join(parts, " ")

		idx.entries = append(idx.entries, indexedEntry{
			Entry:       e,
			name:        name,
			compactName: strings.ReplaceAll(name, " ", ""),
			acronym:     acronym,
			searchText:  searchText,
			tokens:      util.Tokenize(searchText),
		})
	}
	return idx
}

func (idx *Index) Len() int {
	return len(idx.entries)
}
