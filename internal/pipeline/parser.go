package pipeline

import (
	"errors"
	"strings"
)

// ErrBadFormat is reported when the input is not a usable export file:
// fewer than two non-empty lines (header plus at least one data row).
// It is the only ingestion failure surfaced to the caller; nothing is
// committed when it occurs.
var ErrBadFormat = errors.New("pipeline: export file must contain a header row and at least one data row")

// rawTable is the tokenized form of one export file.
type rawTable struct {
	header []string
	rows   [][]string
}

// parseCSV tokenizes raw delimited text. It strips an optional UTF-8
// byte-order marker, accepts both line-ending conventions, and treats
// the first non-empty line as the header row.
func parseCSV(raw string) (*rawTable, error) {
	raw = strings.TrimPrefix(raw, "\ufeff")

	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}

	if len(lines) < 2 {
		return nil, ErrBadFormat
	}

	t := &rawTable{header: splitLine(lines[0])}
	for _, line := range lines[1:] {
		t.rows = append(t.rows, splitLine(line))
	}
	return t, nil
}

// splitLine tokenizes one delimited line. Double quotes toggle an
// inside-quotes state: a delimiter inside quotes belongs to the field,
// and the quote characters themselves are not retained. Whitespace at
// field boundaries is trimmed.
func splitLine(line string) []string {
	var (
		fields   []string
		cur      strings.Builder
		inQuotes bool
	)

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	fields = append(fields, strings.TrimSpace(cur.String()))

	return fields
}

// columns maps logical fields to header positions, -1 when the export
// carries no recognizable header for that field.
type columns map[string]int

// resolveColumns locates each logical field by trying its alias list
// in order against the lower-cased, trimmed header cells. Resolution
// happens once per parse pass.
func resolveColumns(header []string) columns {
	normalized := make([]string, len(header))
	for i, cell := range header {
		normalized[i] = strings.ToLower(strings.TrimSpace(cell))
	}

	cols := make(columns, len(aliasGroups))
	for _, group := range aliasGroups {
		cols[group.field] = -1
	resolve:
		for _, alias := range group.aliases {
			for i, cell := range normalized {
				if cell == alias {
					cols[group.field] = i
					break resolve
				}
			}
		}
	}
	return cols
}

// cell returns the row's value for a logical field, or "" when the
// field is absent from the export or the row is short.
func (c columns) cell(row []string, field string) string {
	idx, ok := c[field]
	if !ok || idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// UnresolvedFields parses only the header of an export file and
// reports which logical fields could not be located. Used by the
// alias-suggestion tool; the ingestion path never calls it.
func UnresolvedFields(raw string) (header []string, missing []string, err error) {
	t, err := parseCSV(raw)
	if err != nil {
		return nil, nil, err
	}
	cols := resolveColumns(t.header)
	for _, group := range aliasGroups {
		if cols[group.field] < 0 {
			missing = append(missing, group.field)
		}
	}
	return t.header, missing, nil
}
