package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// LoadOptions controls how source files are read and numbers parsed.
type LoadOptions struct {
	// Delimiter for CSV. If 0, sniffed from the file name (',' or '\t').
	Delimiter rune
	// SheetName selects an XLSX sheet; empty means the first sheet.
	SheetName string
	// DecimalSeparator defaults to '.'.
	DecimalSeparator rune
	// ThousandsSeparator is optional; if 0, ',' ' ' and NBSP are stripped.
	ThousandsSeparator rune
}

// DefaultLoadOptions returns options suited to the published snapshot.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{DecimalSeparator: '.'}
}

// Load reads a CSV/TSV or XLSX file into a Table, choosing the reader by extension.
func Load(path string, opt LoadOptions) (*Table, error) {
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return LoadXLSX(path, opt)
	}
	return LoadCSV(path, opt)
}

// LoadCSV reads a delimited file. A leading UTF-8 or UTF-16 BOM is removed.
func LoadCSV(path string, opt LoadOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DataLoadError{Path: path, Op: "open csv", Err: err}
	}
	defer f.Close()

	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	dec := transform.NewReader(f, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	r := csv.NewReader(dec)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comma = delim

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &DataLoadError{Path: path, Op: "read header", Err: errors.New("file is empty")}
		}
		return nil, &DataLoadError{Path: path, Op: "read header", Err: err}
	}
	t := &Table{Name: filepath.Base(path), Header: trimAll(header)}
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &DataLoadError{Path: path, Op: fmt.Sprintf("read row %d", len(t.Rows)+1), Err: err}
		}
		t.Rows = append(t.Rows, padRow(rec, len(t.Header)))
	}
	return t, nil
}

// LoadXLSX reads the selected sheet of a workbook; the first row is the header.
func LoadXLSX(path string, opt LoadOptions) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &DataLoadError{Path: path, Op: "open xlsx", Err: err}
	}
	defer f.Close()

	sheet := opt.SheetName
	sheets := f.GetSheetList()
	if sheet == "" {
		if len(sheets) == 0 {
			return nil, &DataLoadError{Path: path, Op: "open xlsx", Err: errors.New("workbook has no sheets")}
		}
		sheet = sheets[0]
	} else {
		found := false
		for _, s := range sheets {
			if strings.EqualFold(s, sheet) {
				sheet = s
				found = true
				break
			}
		}
		if !found {
			return nil, &DataLoadError{Path: path, Op: "select sheet",
				Err: fmt.Errorf("sheet '%s' not found; available sheets: %s", opt.SheetName, strings.Join(sheets, ", "))}
		}
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &DataLoadError{Path: path, Op: "read rows", Err: err}
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, &DataLoadError{Path: path, Op: "read header", Err: errors.New("sheet is empty")}
	}
	t := &Table{Name: filepath.Base(path), Header: trimAll(rows[0])}
	for _, rec := range rows[1:] {
		t.Rows = append(t.Rows, padRow(rec, len(t.Header)))
	}
	return t, nil
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

func trimAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.TrimSpace(s)
	}
	return out
}

func padRow(rec []string, n int) []string {
	row := make([]string, max(n, len(rec)))
	copy(row, rec)
	return row
}
