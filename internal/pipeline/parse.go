package pipeline

import (
	"strings"

	"ontarioseed/internal"
)

const (
	sourceDelimiter = '|'
	sourceQuote     = '"'
)

// ParseSourceRows reads a pipe delimited export whose first line is the
// header. Columns missing from a short row are left absent and surplus fields
// are ignored; no schema checks happen here.
func ParseSourceRows(raw string) ([]internal.SourceRow, error) {
	records := splitRecords(strings.TrimPrefix(raw, "\uFEFF"))
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	out := make([]internal.SourceRow, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) == 0 {
			continue
		}
		row := make(internal.SourceRow, len(header))
		for i, column := range header {
			if i < len(record) {
				row[column] = record[i]
			}
		}
		out = append(out, row)
	}
	return out, nil
}

type splitState int

const (
	startRecord splitState = iota
	startField
	inField
	inQuotedField
	quoteInQuotedField
	eatNewline
)

// splitRecords splits delimited text the way a lenient spreadsheet dialect
// does. A quote is only special at the start of a field; inside a quoted
// field a doubled quote is one quote and newlines are kept; text after the
// closing quote is appended up to the next delimiter. Blank lines come back as
// empty records.
func splitRecords(text string) [][]string {
	var (
		records [][]string
		fields  []string
		field   strings.Builder
		state   = startRecord
	)
	saveField := func() {
		fields = append(fields, field.String())
		field.Reset()
	}
	saveRecord := func() {
		if fields == nil {
			fields = []string{}
		}
		records = append(records, fields)
		fields = nil
	}

	for _, c := range text {
		isNewline := c == '\n' || c == '\r'
		switch state {
		case eatNewline:
			if isNewline {
				continue
			}
			state = startRecord
			fallthrough
		case startRecord:
			if isNewline {
				saveRecord()
				state = eatNewline
				continue
			}
			state = startField
			fallthrough
		case startField:
			switch {
			case isNewline:
				saveField()
				saveRecord()
				state = eatNewline
			case c == sourceQuote:
				state = inQuotedField
			case c == sourceDelimiter:
				saveField()
			default:
				field.WriteRune(c)
				state = inField
			}
		case inField:
			switch {
			case isNewline:
				saveField()
				saveRecord()
				state = eatNewline
			case c == sourceDelimiter:
				saveField()
				state = startField
			default:
				field.WriteRune(c)
			}
		case inQuotedField:
			if c == sourceQuote {
				state = quoteInQuotedField
			} else {
				field.WriteRune(c)
			}
		case quoteInQuotedField:
			switch {
			case c == sourceQuote:
				field.WriteRune(c)
				state = inQuotedField
			case c == sourceDelimiter:
				saveField()
				state = startField
			case isNewline:
				saveField()
				saveRecord()
				state = eatNewline
			default:
				field.WriteRune(c)
				state = inField
			}
		}
	}

	if state != startRecord && state != eatNewline {
		saveField()
		saveRecord()
	}
	return records
}
