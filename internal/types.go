package internal

import "strings"

const (
	HighSchoolIDPrefix     = "on-public:"
	CourseProviderIDPrefix = "on-provider:"

	SeedState   = "Ontario"
	SeedCountry = "Canada"
)

// Source export column names.
const (
	ColProvince          = "Province"
	ColSchoolName        = "School Name"
	ColSchoolLevel       = "School Level"
	ColSchoolType        = "School Type"
	ColSpecialConditions = "School Special Conditions"
	ColSchoolNumber      = "School Number"
	ColBoardNumber       = "Board Number"
	ColBoardName         = "Board Name"
	ColSuite             = "Suite"
	ColPOBox             = "PO Box"
	ColStreet            = "Street"
	ColCity              = "City"
	ColPostalCode        = "Postal Code"
)

type ResourceDescriptor struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Format       string `json:"format"`
	URL          string `json:"url"`
	LastModified string `json:"last_modified"`
	Created      string `json:"created"`
}

// FreshnessKey is compared as an opaque string; CKAN timestamps are ISO-8601.
func (r ResourceDescriptor) FreshnessKey() string {
	if r.LastModified != "" {
		return r.LastModified
	}
	return r.Created
}

type SourceRow map[string]string

// Get returns the trimmed column value, or "" when the column is absent.
func (r SourceRow) Get(column string) string {
	return strings.TrimSpace(r[column])
}

type HighSchoolRecord struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	StreetAddress string `json:"streetAddress"`
	City          string `json:"city"`
	State         string `json:"state"`
	Country       string `json:"country"`
	Postal        string `json:"postal"`
}

type CourseProviderRecord struct {
	ID                      string `json:"id"`
	Name                    string `json:"name"`
	BoardName               string `json:"boardName"`
	SchoolSpecialConditions string `json:"schoolSpecialConditions"`
	StreetAddress           string `json:"streetAddress"`
	City                    string `json:"city"`
	State                   string `json:"state"`
	Country                 string `json:"country"`
	Postal                  string `json:"postal"`
}

var HighSchoolColumns = []string{"id", "name", "streetAddress", "city", "state", "country", "postal"}

var CourseProviderColumns = []string{
	"id", "name", "boardName", "schoolSpecialConditions",
	"streetAddress", "city", "state", "country", "postal",
}

func (r HighSchoolRecord) Values() []string {
	return []string{r.ID, r.Name, r.StreetAddress, r.City, r.State, r.Country, r.Postal}
}

func (r CourseProviderRecord) Values() []string {
	return []string{
		r.ID, r.Name, r.BoardName, r.SchoolSpecialConditions,
		r.StreetAddress, r.City, r.State, r.Country, r.Postal,
	}
}

type SeedResult struct {
	SourceURL       string
	HighSchools     []HighSchoolRecord
	CourseProviders []CourseProviderRecord
}
