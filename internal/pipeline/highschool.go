package pipeline

import (
	"ontarioseed/internal"
	"ontarioseed/internal/util"
)

// Alternative programs are kept out of the canonical school list even when the
// row is flagged as a regular secondary school.
var highSchoolExcludedNamePattern = keywordPattern("adult", "program", "e learning", "elearning", "virtual")

var regularSpecialConditions = map[string]struct{}{
	"":               {},
	"not applicable": {},
}

// GenerateHighSchoolRows builds the canonical Ontario public and Catholic
// secondary school list, deduplicated and sorted.
func GenerateHighSchoolRows(rows []internal.SourceRow) []internal.HighSchoolRecord {
	out := make([]internal.HighSchoolRecord, 0)
	seen := map[string]struct{}{}

	for _, row := range rows {
		if !isHighSchool(row) {
			continue
		}

		f := readSourceFields(row)
		record := internal.HighSchoolRecord{
			ID:            buildRecordID(internal.HighSchoolIDPrefix, f),
			Name:          f.SchoolName,
			StreetAddress: f.StreetAddress,
			City:          f.City,
			State:         internal.SeedState,
			Country:       internal.SeedCountry,
			Postal:        f.Postal,
		}

		key := dedupeKey(record.Name, record.StreetAddress, record.City, record.Postal)
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, record)
	}

	sortRecords(out, func(r internal.HighSchoolRecord) sortKey {
		return newSortKey(r.Name, r.City, r.StreetAddress)
	})
	return out
}

func isHighSchool(row internal.SourceRow) bool {
	if !isOntarioSecondary(row) {
		return false
	}
	if highSchoolExcludedNamePattern.MatchString(util.NormalizeText(row[internal.ColSchoolName])) {
		return false
	}
	_, regular := regularSpecialConditions[util.NormalizeText(row[internal.ColSpecialConditions])]
	return regular
}
