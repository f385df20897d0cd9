package pipeline

import (
	"testing"

	"ontarioseed/internal"
)

func schoolRow(overrides map[string]string) internal.SourceRow {
	row := internal.SourceRow{
		internal.ColProvince:          "Ontario",
		internal.ColBoardNumber:       "B28010",
		internal.ColBoardName:         "Toronto District School Board",
		internal.ColSchoolNumber:      "123456",
		internal.ColSchoolName:        "Central High School",
		internal.ColSchoolLevel:       "Secondary School",
		internal.ColSchoolType:        "Public",
		internal.ColSpecialConditions: "",
		internal.ColStreet:            "100 Main St",
		internal.ColCity:              "Toronto",
		internal.ColPostalCode:        "m5v 3l9",
	}
	for k, v := range overrides {
		row[k] = v
	}
	return row
}

func TestGenerateHighSchoolRowsIncludesRegularSchool(t *testing.T) {
	got := GenerateHighSchoolRows([]internal.SourceRow{schoolRow(nil)})
	if len(got) != 1 {
		t.Fatalf("len=%d", len(got))
	}
	want := internal.HighSchoolRecord{
		ID:            "on-public:B28010:123456",
		Name:          "Central High School",
		StreetAddress: "100 Main St",
		City:          "Toronto",
		State:         "Ontario",
		Country:       "Canada",
		Postal:        "M5V 3L9",
	}
	if got[0] != want {
		t.Fatalf("got %+v want %+v", got[0], want)
	}
}

func TestGenerateHighSchoolRowsUsesNameWithoutSchoolNumber(t *testing.T) {
	got := GenerateHighSchoolRows([]internal.SourceRow{schoolRow(map[string]string{internal.ColSchoolNumber: "  "})})
	if len(got) != 1 || got[0].ID != "on-public:B28010:Central High School" {
		t.Fatalf("got %+v", got)
	}
}

func TestGenerateHighSchoolRowsExclusions(t *testing.T) {
	cases := []struct {
		name      string
		overrides map[string]string
	}{
		{name: "adult name", overrides: map[string]string{internal.ColSchoolName: "Central Adult High School"}},
		{name: "program name", overrides: map[string]string{internal.ColSchoolName: "Alternative Program"}},
		{name: "e-learning name", overrides: map[string]string{internal.ColSchoolName: "TDSB E-Learning"}},
		{name: "elearning name", overrides: map[string]string{internal.ColSchoolName: "eLearning Centre"}},
		{name: "virtual name", overrides: map[string]string{internal.ColSchoolName: "Virtual Secondary"}},
		{name: "other province", overrides: map[string]string{internal.ColProvince: "Quebec"}},
		{name: "missing province", overrides: map[string]string{internal.ColProvince: ""}},
		{name: "blank name", overrides: map[string]string{internal.ColSchoolName: "   "}},
		{name: "elementary", overrides: map[string]string{internal.ColSchoolLevel: "Elementary"}},
		{name: "private", overrides: map[string]string{internal.ColSchoolType: "Private"}},
		{name: "type is not exact", overrides: map[string]string{internal.ColSchoolType: "Public Catholic"}},
		{name: "special condition", overrides: map[string]string{internal.ColSpecialConditions: "Continuing Education"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := GenerateHighSchoolRows([]internal.SourceRow{schoolRow(tc.overrides)})
			if len(got) != 0 {
				t.Fatalf("expected exclusion, got %+v", got)
			}
		})
	}
}

func TestGenerateHighSchoolRowsInclusionVariants(t *testing.T) {
	cases := []struct {
		name      string
		overrides map[string]string
	}{
		{name: "catholic", overrides: map[string]string{internal.ColSchoolType: " CATHOLIC "}},
		{name: "not applicable", overrides: map[string]string{internal.ColSpecialConditions: "Not Applicable"}},
		{name: "level substring", overrides: map[string]string{internal.ColSchoolLevel: "Elementary/Secondary"}},
		{name: "province punctuation", overrides: map[string]string{internal.ColProvince: " ontario. "}},
		{name: "keyword inside word", overrides: map[string]string{internal.ColSchoolName: "Programmatic Virtually Adults Academy"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := GenerateHighSchoolRows([]internal.SourceRow{schoolRow(tc.overrides)})
			if len(got) != 1 {
				t.Fatalf("expected inclusion, got %+v", got)
			}
		})
	}
}

func TestBuildStreetAddress(t *testing.T) {
	cases := []struct {
		name string
		row  internal.SourceRow
		want string
	}{
		{name: "all parts", row: internal.SourceRow{internal.ColSuite: " 4 ", internal.ColPOBox: "99", internal.ColStreet: "1 Bay St"}, want: "Suite 4, PO Box 99, 1 Bay St"},
		{name: "po box only", row: internal.SourceRow{internal.ColPOBox: "7"}, want: "PO Box 7"},
		{name: "street only", row: internal.SourceRow{internal.ColStreet: "1 Bay St"}, want: "1 Bay St"},
		{name: "nothing", row: internal.SourceRow{}, want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := buildStreetAddress(tc.row); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestGenerateHighSchoolRowsDedupeKeepsFirst(t *testing.T) {
	rows := []internal.SourceRow{
		schoolRow(map[string]string{internal.ColSchoolNumber: "111"}),
		schoolRow(map[string]string{internal.ColSchoolNumber: "222", internal.ColStreet: "100 Main St.", internal.ColPostalCode: "M5V3L9"}),
	}
	got := GenerateHighSchoolRows(rows)
	if len(got) != 1 {
		t.Fatalf("len=%d", len(got))
	}
	if got[0].ID != "on-public:B28010:111" {
		t.Fatalf("first occurrence should win, got %s", got[0].ID)
	}
}

func TestGenerateHighSchoolRowsOrdering(t *testing.T) {
	rows := []internal.SourceRow{
		schoolRow(map[string]string{internal.ColSchoolName: "Zeta Secondary", internal.ColSchoolNumber: "1"}),
		schoolRow(map[string]string{internal.ColSchoolName: "Alpha Secondary", internal.ColSchoolNumber: "2"}),
		schoolRow(map[string]string{internal.ColSchoolName: "alpha secondary", internal.ColSchoolNumber: "3", internal.ColCity: "Barrie"}),
	}
	got := GenerateHighSchoolRows(rows)
	if len(got) != 3 {
		t.Fatalf("len=%d", len(got))
	}
	if got[0].ID != "on-public:B28010:3" || got[1].ID != "on-public:B28010:2" || got[2].ID != "on-public:B28010:1" {
		t.Fatalf("order=%s,%s,%s", got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestGenerateHighSchoolRowsStableTies(t *testing.T) {
	rows := []internal.SourceRow{
		schoolRow(map[string]string{internal.ColSchoolNumber: "1", internal.ColPostalCode: "K1A 0B1"}),
		schoolRow(map[string]string{internal.ColSchoolNumber: "2", internal.ColPostalCode: "K1A 0B2"}),
	}
	got := GenerateHighSchoolRows(rows)
	if len(got) != 2 || got[0].ID != "on-public:B28010:1" || got[1].ID != "on-public:B28010:2" {
		t.Fatalf("got %+v", got)
	}
}

func TestGenerateCourseProviderRowsNameKeyword(t *testing.T) {
	row := schoolRow(map[string]string{internal.ColSchoolName: "Night School Credit Program"})
	if len(GenerateHighSchoolRows([]internal.SourceRow{row})) != 0 {
		t.Fatal("program name must stay out of the school set")
	}

	got := GenerateCourseProviderRows([]internal.SourceRow{row})
	if len(got) != 1 {
		t.Fatalf("len=%d", len(got))
	}
	want := internal.CourseProviderRecord{
		ID:                      "on-provider:B28010:123456",
		Name:                    "Night School Credit Program",
		BoardName:               "Toronto District School Board",
		SchoolSpecialConditions: "",
		StreetAddress:           "100 Main St",
		City:                    "Toronto",
		State:                   "Ontario",
		Country:                 "Canada",
		Postal:                  "M5V 3L9",
	}
	if got[0] != want {
		t.Fatalf("got %+v want %+v", got[0], want)
	}
}

func TestGenerateCourseProviderRowsSpecialConditions(t *testing.T) {
	for _, condition := range []string{"Continuing Education", "SUMMER", "Adult", "Online School", "Temporary Remote-Learning School"} {
		t.Run(condition, func(t *testing.T) {
			row := schoolRow(map[string]string{internal.ColSpecialConditions: "  " + condition + " "})
			got := GenerateCourseProviderRows([]internal.SourceRow{row})
			if len(got) != 1 {
				t.Fatalf("len=%d", len(got))
			}
			if got[0].SchoolSpecialConditions != condition {
				t.Fatalf("special conditions should be kept verbatim, got %q", got[0].SchoolSpecialConditions)
			}
		})
	}
}

func TestGenerateCourseProviderRowsExclusions(t *testing.T) {
	cases := []struct {
		name      string
		overrides map[string]string
	}{
		{name: "no signal", overrides: nil},
		{name: "unknown condition", overrides: map[string]string{internal.ColSpecialConditions: "Section 23"}},
		{name: "elementary", overrides: map[string]string{internal.ColSchoolLevel: "Elementary", internal.ColSpecialConditions: "Summer"}},
		{name: "other province", overrides: map[string]string{internal.ColProvince: "Manitoba", internal.ColSchoolName: "Night School"}},
		{name: "private", overrides: map[string]string{internal.ColSchoolType: "Private", internal.ColSchoolName: "Online Academy"}},
		{name: "blank name", overrides: map[string]string{internal.ColSchoolName: "", internal.ColSpecialConditions: "Summer"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := GenerateCourseProviderRows([]internal.SourceRow{schoolRow(tc.overrides)})
			if len(got) != 0 {
				t.Fatalf("expected exclusion, got %+v", got)
			}
		})
	}
}

func TestGenerateCourseProviderRowsDropsRepeatedID(t *testing.T) {
	rows := []internal.SourceRow{
		schoolRow(map[string]string{internal.ColSchoolName: "Summer School", internal.ColStreet: "1 First Ave"}),
		schoolRow(map[string]string{internal.ColSchoolName: "Summer School East", internal.ColStreet: "2 Second Ave"}),
	}
	got := GenerateCourseProviderRows(rows)
	if len(got) != 1 || got[0].Name != "Summer School" {
		t.Fatalf("got %+v", got)
	}
}

func TestGenerateCourseProviderRowsDedupeKey(t *testing.T) {
	rows := []internal.SourceRow{
		schoolRow(map[string]string{internal.ColSchoolName: "Adult Learning Centre", internal.ColSchoolNumber: "1"}),
		schoolRow(map[string]string{internal.ColSchoolName: "Adult Learning Centre", internal.ColSchoolNumber: "2"}),
		schoolRow(map[string]string{internal.ColSchoolName: "Adult Learning Centre", internal.ColSchoolNumber: "1", internal.ColStreet: "9 Elsewhere Rd"}),
	}
	got := GenerateCourseProviderRows(rows)
	if len(got) != 1 {
		t.Fatalf("len=%d got %+v", len(got), got)
	}
	if got[0].ID != "on-provider:B28010:1" {
		t.Fatalf("id=%s", got[0].ID)
	}
}

func TestGenerateCourseProviderRowsIDFreedByDedupe(t *testing.T) {
	// The second row loses on the dedupe key, so its id is never emitted and
	// the third row may still use it.
	rows := []internal.SourceRow{
		schoolRow(map[string]string{internal.ColSchoolName: "Night School", internal.ColSchoolNumber: "1"}),
		schoolRow(map[string]string{internal.ColSchoolName: "Night School", internal.ColSchoolNumber: "2"}),
		schoolRow(map[string]string{internal.ColSchoolName: "Night School North", internal.ColSchoolNumber: "2"}),
	}
	got := GenerateCourseProviderRows(rows)
	if len(got) != 2 {
		t.Fatalf("len=%d got %+v", len(got), got)
	}
	if got[1].ID != "on-provider:B28010:2" || got[1].Name != "Night School North" {
		t.Fatalf("got %+v", got[1])
	}
}

func TestGenerateCourseProviderRowsOrdering(t *testing.T) {
	rows := []internal.SourceRow{
		schoolRow(map[string]string{internal.ColSchoolName: "Zeta Night School", internal.ColSchoolNumber: "1"}),
		schoolRow(map[string]string{internal.ColSchoolName: "Alpha Night School", internal.ColSchoolNumber: "2"}),
	}
	got := GenerateCourseProviderRows(rows)
	if len(got) != 2 || got[0].Name != "Alpha Night School" || got[1].Name != "Zeta Night School" {
		t.Fatalf("got %+v", got)
	}
}
