package reference

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"sort"
	"strings"

	"ontarioseed/internal"
	"ontarioseed/internal/util"
)

const (
	highSchoolFields     = 7
	courseProviderFields = 9
)

func LoadHighSchools(path string) (*Index, error) {
	entries, err := loadSeed(path, highSchoolFields, func(f []string) Entry {
		return Entry{
			ID: f[0], Name: f[1], StreetAddress: f[2],
			City: f[3], State: f[4], Country: f[5], Postal: f[6],
		}
	})
	if err != nil {
		return nil, err
	}
	return BuildIndex(KindHighSchool, entries), nil
}

func LoadCourseProviders(path string) (*Index, error) {
	entries, err := loadSeed(path, courseProviderFields, func(f []string) Entry {
		return Entry{
			ID: f[0], Name: f[1], BoardName: f[2], SchoolSpecialConditions: f[3],
			StreetAddress: f[4], City: f[5], State: f[6], Country: f[7], Postal: f[8],
		}
	})
	if err != nil {
		return nil, err
	}
	return BuildIndex(KindCourseProvider, entries), nil
}

// FromHighSchools indexes high school records taken from a snapshot.
func FromHighSchools(records []internal.HighSchoolRecord) *Index {
	entries := make([]Entry, 0, len(records))
	for _, r := range records {
		entries = append(entries, Entry{
			ID: r.ID, Name: r.Name, StreetAddress: r.StreetAddress,
			City: r.City, State: r.State, Country: r.Country, Postal: r.Postal,
		})
	}
	return BuildIndex(KindHighSchool, prepareEntries(entries))
}

// FromCourseProviders indexes course provider records taken from a snapshot.
func FromCourseProviders(records []internal.CourseProviderRecord) *Index {
	entries := make([]Entry, 0, len(records))
	for _, r := range records {
		entries = append(entries, Entry{
			ID: r.ID, Name: r.Name, BoardName: r.BoardName, SchoolSpecialConditions: r.SchoolSpecialConditions,
			StreetAddress: r.StreetAddress, City: r.City, State: r.State, Country: r.Country, Postal: r.Postal,
		})
	}
	return BuildIndex(KindCourseProvider, prepareEntries(entries))
}

// loadSeed reads a seed CSV, skipping the header and short rows.
func loadSeed(path string, minFields int, build func([]string) Entry) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}

	var out []Entry
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) < minFields {
			continue
		}
		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}
		out = append(out, build(record))
	}
	return prepareEntries(out), nil
}

// prepareEntries keeps Ontario rows in Canada, drops later duplicates and
// orders the rest by name, city, then board.
func prepareEntries(entries []Entry) []Entry {
	seen := map[string]struct{}{}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if !isOntario(e.State) || util.NormalizeForSearch(e.Country) != "canada" {
			continue
		}
		key := strings.Join([]string{
			util.NormalizeForSearch(e.Name),
			util.NormalizeForSearch(e.City),
			util.NormalizeForSearch(e.State),
			util.NormalizeForSearch(e.StreetAddress),
			util.NormalizeForSearch(e.Postal),
			util.NormalizeForSearch(e.BoardName),
			util.NormalizeForSearch(e.SchoolSpecialConditions),
		}, "|")
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if c := compareFold(out[i].Name, out[j].Name); c != 0 {
			return c < 0
		}
		if c := compareFold(out[i].City, out[j].City); c != 0 {
			return c < 0
		}
		return compareFold(out[i].BoardName, out[j].BoardName) < 0
	})
	return out
}

func isOntario(state string) bool {
	s := util.NormalizeForSearch(state)
	return s == "ontario" || s == "on"
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}
