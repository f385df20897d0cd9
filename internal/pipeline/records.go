package pipeline

import (
	"regexp"
	"sort"
	"strings"

	"ontarioseed/internal"
	"ontarioseed/internal/util"
)

var secondaryBoardTypes = map[string]struct{}{
	"public":   {},
	"catholic": {},
}

// sourceFields is the part of a source row shared by both record shapes.
type sourceFields struct {
	SchoolName        string
	SchoolNumber      string
	BoardNumber       string
	BoardName         string
	SpecialConditions string
	StreetAddress     string
	City              string
	Postal            string
}

func readSourceFields(row internal.SourceRow) sourceFields {
	return sourceFields{
		SchoolName:        row.Get(internal.ColSchoolName),
		SchoolNumber:      row.Get(internal.ColSchoolNumber),
		BoardNumber:       row.Get(internal.ColBoardNumber),
		BoardName:         row.Get(internal.ColBoardName),
		SpecialConditions: row.Get(internal.ColSpecialConditions),
		StreetAddress:     buildStreetAddress(row),
		City:              row.Get(internal.ColCity),
		Postal:            util.NormalizePostal(row[internal.ColPostalCode]),
	}
}

// isOntarioSecondary holds the checks both seed sets share: Ontario, a school
// name, a secondary level and a public or Catholic board.
func isOntarioSecondary(row internal.SourceRow) bool {
	if util.NormalizeText(row[internal.ColProvince]) != "ontario" {
		return false
	}
	if row.Get(internal.ColSchoolName) == "" {
		return false
	}
	if !strings.Contains(util.NormalizeText(row[internal.ColSchoolLevel]), "secondary") {
		return false
	}
	_, ok := secondaryBoardTypes[util.NormalizeText(row[internal.ColSchoolType])]
	return ok
}

func buildStreetAddress(row internal.SourceRow) string {
	parts := make([]string, 0, 3)
	if suite := row.Get(internal.ColSuite); suite != "" {
		parts = append(parts, "Suite "+suite)
	}
	if poBox := row.Get(internal.ColPOBox); poBox != "" {
		parts = append(parts, "PO Box "+poBox)
	}
	if street := row.Get(internal.ColStreet); street != "" {
		parts = append(parts, street)
	}
	return strings.Join(parts, ", ")
}

func buildRecordID(prefix string, f sourceFields) string {
	if f.SchoolNumber != "" {
		return prefix + f.BoardNumber + ":" + f.SchoolNumber
	}
	return prefix + f.BoardNumber + ":" + f.SchoolName
}

func dedupeKey(name, streetAddress, city, postal string) string {
	return strings.Join([]string{
		util.NormalizeText(name),
		util.NormalizeText(streetAddress),
		util.NormalizeText(city),
		util.NormalizeText(postal),
	}, "|")
}

func keywordPattern(keywords ...string) *regexp.Regexp {
	return regexp.MustCompile(`\b(` + strings.Join(keywords, "|") + `)\b`)
}

type sortKey struct {
	name, city, street string
}

func newSortKey(name, city, streetAddress string) sortKey {
	return sortKey{
		name:   util.NormalizeText(name),
		city:   util.NormalizeText(city),
		street: util.NormalizeText(streetAddress),
	}
}

func (a sortKey) less(b sortKey) bool {
	if a.name != b.name {
		return a.name < b.name
	}
	if a.city != b.city {
		return a.city < b.city
	}
	return a.street < b.street
}

// sortRecords orders rows by normalized name, city, then street address.
// Equal keys keep their input order.
func sortRecords[T any](rows []T, key func(T) sortKey) {
	sort.SliceStable(rows, func(i, j int) bool {
		return key(rows[i]).less(key(rows[j]))
	})
}
