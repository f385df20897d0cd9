package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"ontarioseed/internal"
)

func TestParseSourceRows(t *testing.T) {
	raw := "\uFEFFProvince|School Name|City\nOntario|A \"Quoted\" School|Toronto\n\nOntario|Short Row\nOntario|Extra|Ottawa|ignored\n"
	rows, err := ParseSourceRows(raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("len=%d", len(rows))
	}
	if rows[0]["Province"] != "Ontario" || rows[0]["School Name"] != `A "Quoted" School` || rows[0]["City"] != "Toronto" {
		t.Fatalf("row0=%v", rows[0])
	}
	if _, ok := rows[1]["City"]; ok {
		t.Fatalf("short row should leave City absent: %v", rows[1])
	}
	if rows[1].Get(internal.ColCity) != "" {
		t.Fatalf("absent column should read empty")
	}
	if len(rows[2]) != 3 || rows[2]["City"] != "Ottawa" {
		t.Fatalf("row2=%v", rows[2])
	}
}

func TestParseSourceRowsEmpty(t *testing.T) {
	rows, err := ParseSourceRows("")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Fatalf("len=%d", len(rows))
	}

	rows, err = ParseSourceRows("Province|School Name\n")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Fatalf("header only len=%d", len(rows))
	}
}

func TestParseSourceRowsFixture(t *testing.T) {
	blob, err := os.ReadFile(filepath.Join("testdata", "schools_en.txt"))
	if err != nil {
		t.Fatal(err)
	}
	rows, err := ParseSourceRows(string(blob))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 10 {
		t.Fatalf("len=%d", len(rows))
	}
	if rows[1][internal.ColSuite] != "2" || rows[1][internal.ColPOBox] != "12" {
		t.Fatalf("row1=%v", rows[1])
	}
	if rows[7][internal.ColStreet] != " 21 Queen St" {
		t.Fatalf("raw values are not trimmed by the parser: %q", rows[7][internal.ColStreet])
	}
}

func TestParseSourceRowsQuotedFieldDoesNotSwallowLaterRows(t *testing.T) {
	raw := "Board Number|School Name|City\r\n" +
		"B1|\"Quoted, Name\" High|Toronto\r\n" +
		"B1|\"Pipe | Inside\"|Ottawa\r\n" +
		"B1|\"Say \"\"Hi\"\"\"|Kingston\r\n" +
		"B1|Mid \"quote\" Name|Sudbury\r\n" +
		"B2|Plain School|Windsor"
	rows, err := ParseSourceRows(raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 5 {
		t.Fatalf("len=%d rows=%v", len(rows), rows)
	}

	want := []struct{ name, city string }{
		{"Quoted, Name High", "Toronto"},
		{"Pipe | Inside", "Ottawa"},
		{`Say "Hi"`, "Kingston"},
		{`Mid "quote" Name`, "Sudbury"},
		{"Plain School", "Windsor"},
	}
	for i, w := range want {
		if rows[i][internal.ColSchoolName] != w.name || rows[i][internal.ColCity] != w.city {
			t.Fatalf("row %d = %v, want name=%q city=%q", i, rows[i], w.name, w.city)
		}
	}
}

func TestSplitRecordsQuotedNewlineAndUnterminatedQuote(t *testing.T) {
	got := splitRecords("a|\"two\nlines\"|c\n\nx|\"open")
	if len(got) != 3 {
		t.Fatalf("records=%q", got)
	}
	if len(got[0]) != 3 || got[0][1] != "two\nlines" || got[0][2] != "c" {
		t.Fatalf("record0=%q", got[0])
	}
	if len(got[1]) != 0 {
		t.Fatalf("blank line should be an empty record, got %q", got[1])
	}
	if len(got[2]) != 2 || got[2][1] != "open" {
		t.Fatalf("record2=%q", got[2])
	}
}
