package pipeline

import (
	"ontarioseed/internal"
	"ontarioseed/internal/util"
)

var providerSpecialConditions = map[string]struct{}{
	"continuing education":            {},
	"summer":                          {},
	"adult":                           {},
	"online school":                   {},
	"temporary remote learning school": {},
}

var providerNamePattern = keywordPattern(
	"summer", "night", "e learning", "elearning", "online", "virtual", "adult", "continuing", "credit",
)

// GenerateCourseProviderRows builds the external course provider list: Ontario
// secondary programs flagged by a special condition or by a provider keyword
// in their name. The first emitted row wins for a given id.
func GenerateCourseProviderRows(rows []internal.SourceRow) []internal.CourseProviderRecord {
	out := make([]internal.CourseProviderRecord, 0)
	seen := map[string]struct{}{}
	seenIDs := map[string]struct{}{}

	for _, row := range rows {
		if !isCourseProvider(row) {
			continue
		}

		f := readSourceFields(row)
		id := buildRecordID(internal.CourseProviderIDPrefix, f)
		if _, exists := seenIDs[id]; exists {
			continue
		}

		record := internal.CourseProviderRecord{
			ID:                      id,
			Name:                    f.SchoolName,
			BoardName:               f.BoardName,
			SchoolSpecialConditions: f.SpecialConditions,
			StreetAddress:           f.StreetAddress,
			City:                    f.City,
			State:                   internal.SeedState,
			Country:                 internal.SeedCountry,
			Postal:                  f.Postal,
		}

		key := dedupeKey(record.Name, record.StreetAddress, record.City, record.Postal)
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		seenIDs[id] = struct{}{}
		out = append(out, record)
	}

	sortRecords(out, func(r internal.CourseProviderRecord) sortKey {
		return newSortKey(r.Name, r.City, r.StreetAddress)
	})
	return out
}

func isCourseProvider(row internal.SourceRow) bool {
	if !isOntarioSecondary(row) {
		return false
	}
	if _, ok := providerSpecialConditions[util.NormalizeText(row[internal.ColSpecialConditions])]; ok {
		return true
	}
	return providerNamePattern.MatchString(util.NormalizeText(row[internal.ColSchoolName]))
}
