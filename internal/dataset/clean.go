package dataset

import (
	"fmt"
	"strings"
)

// koreaLongName is the one country name the snapshot needs shortened.
const (
	koreaLongName  = "Democratic People's Republic of Korea"
	koreaShortName = "Korea"
)

// LatestYear returns the maximum parseable value of the Year column.
func LatestYear(t *Table) (int, error) {
	idx := t.Index(SourceYear)
	if idx < 0 {
		return 0, &DataLoadError{Path: t.Name, Op: "select columns", Err: fmt.Errorf("missing column %q", SourceYear)}
	}
	latest, found := 0, false
	for _, row := range t.Rows {
		y, ok := parseYear(row[idx])
		if !ok {
			continue
		}
		if !found || y > latest {
			latest, found = y, true
		}
	}
	if !found {
		return 0, &EmptyDatasetError{Stage: "year filter", Rows: len(t.Rows)}
	}
	return latest, nil
}

// FilterYear keeps the rows reported for year. The header is shared.
func FilterYear(t *Table, year int) *Table {
	out := &Table{Name: t.Name, Header: t.Header}
	idx := t.Index(SourceYear)
	if idx < 0 {
		return out
	}
	for _, row := range t.Rows {
		if y, ok := parseYear(row[idx]); ok && y == year {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// Project keeps the seven analysed columns, renamed to their semantic names.
func Project(t *Table) (*Table, error) {
	idxs := make([]int, len(projection))
	header := make([]string, len(projection))
	var missing []string
	for i, p := range projection {
		idxs[i] = t.Index(p.Source)
		header[i] = p.Semantic
		if idxs[i] < 0 {
			missing = append(missing, p.Source)
		}
	}
	if len(missing) > 0 {
		return nil, &DataLoadError{Path: t.Name, Op: "select columns", Err: fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))}
	}
	out := &Table{Name: t.Name, Header: header, Rows: make([][]string, 0, len(t.Rows))}
	for _, row := range t.Rows {
		proj := make([]string, len(idxs))
		for i, idx := range idxs {
			proj[i] = strings.TrimSpace(row[idx])
		}
		out.Rows = append(out.Rows, proj)
	}
	return out, nil
}

// DropIncomplete converts a projected table into records, dropping every row
// with a missing or non-numeric value in any of the seven fields. It returns
// the kept records and the number of dropped rows.
func DropIncomplete(t *Table, opt LoadOptions) ([]Record, int) {
	out := make([]Record, 0, len(t.Rows))
	dropped := 0
	for _, row := range t.Rows {
		rec, ok := toRecord(row, opt)
		if !ok {
			dropped++
			continue
		}
		out = append(out, rec)
	}
	return out, dropped
}

func toRecord(row []string, opt LoadOptions) (Record, bool) {
	if len(row) < len(projection) || isMissing(row[0]) {
		return Record{}, false
	}
	var vals [6]float64
	for i := range vals {
		cell := row[i+1]
		if isMissing(cell) {
			return Record{}, false
		}
		v, ok := parseNumeric(cell, opt)
		if !ok {
			return Record{}, false
		}
		vals[i] = v
	}
	return Record{
		Country:       row[0],
		Population:    vals[0],
		Prevalence:    vals[1],
		Mortality:     vals[2],
		Incidence:     vals[3],
		HIVPercent:    vals[4],
		DetectionRate: vals[5],
	}, true
}

// NormalizeCountryNames applies the fixed Korea rewrite in place and returns
// the number of records changed. No other name is touched.
func NormalizeCountryNames(records []Record) int {
	n := 0
	for i := range records {
		if records[i].Country == koreaLongName {
			records[i].Country = koreaShortName
			n++
		}
	}
	return n
}

// Clean runs year selection, projection, the missing-value filter and the
// name rewrite, in that order.
func Clean(t *Table, opt LoadOptions) (*Cleaned, error) {
	stats := Stats{Source: t.Name, RawRows: len(t.Rows)}
	year, err := LatestYear(t)
	if err != nil {
		return nil, err
	}
	stats.LatestYear = year

	current := FilterYear(t, year)
	stats.YearRows = len(current.Rows)
	if stats.YearRows == 0 {
		return nil, &EmptyDatasetError{Stage: "year filter", Rows: stats.RawRows}
	}

	projected, err := Project(current)
	if err != nil {
		return nil, err
	}
	records, dropped := DropIncomplete(projected, opt)
	stats.Dropped = dropped
	stats.Kept = len(records)
	if len(records) == 0 {
		return nil, &EmptyDatasetError{Stage: "missing-value filter", Rows: stats.YearRows}
	}
	stats.Renamed = NormalizeCountryNames(records)
	return &Cleaned{Records: records, Stats: stats}, nil
}
