// Package sheetimport turns messy beneficiary spreadsheets (.xlsx or .csv)
// into keyed rows: header lookup through a dictionary of French, Arabic and
// English variants, lenient date parsing and enum normalization.
package sheetimport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	ErrFormat   = errors.New("unsupported file format; upload .xlsx or .csv")
	ErrEmpty    = errors.New("the file contains no data rows")
	ErrNoHeader = errors.New("no recognizable header row (need at least a name column)")
)

// ReadTable returns the raw cells of the first sheet (xlsx) or the whole
// file (csv), chosen by the file extension.
func ReadTable(r io.Reader, filename string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return readXLSX(r)
	case ".csv", ".txt":
		return readCSV(r)
	}
	return nil, ErrFormat
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmpty
	}
	// Raw values keep date cells as serial numbers instead of locale text.
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = sniffDelimiter(data)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr.ReadAll()
}

// sniffDelimiter picks ';' (French Excel exports) or ',' from the first line.
func sniffDelimiter(data []byte) rune {
	first, _, _ := bytes.Cut(data, []byte("\n"))
	if bytes.Count(first, []byte(";")) > bytes.Count(first, []byte(",")) {
		return ';'
	}
	return ','
}

// Row is one data row keyed by canonical field name.
type Row struct {
	Line   int // 1-based spreadsheet line
	Values map[string]string
}

// Get returns the trimmed value of field.
func (r Row) Get(field string) string { return strings.TrimSpace(r.Values[field]) }

// Rows finds the header row among the first few lines, maps its columns to
// fields and returns the data rows after it. Blank rows are dropped.
func Rows(table [][]string) ([]Row, error) {
	headerAt, cols := -1, map[int]string(nil)
	for i := 0; i < len(table) && i < 10; i++ {
		m := MapHeaders(table[i])
		if hasName(m) {
			headerAt, cols = i, m
			break
		}
	}
	if headerAt < 0 {
		return nil, ErrNoHeader
	}

	var out []Row
	for i := headerAt + 1; i < len(table); i++ {
		values := map[string]string{}
		blank := true
		for c, cell := range table[i] {
			field, ok := cols[c]
			if !ok {
				continue
			}
			cell = strings.TrimSpace(cell)
			if cell != "" {
				blank = false
				values[field] = cell
			}
		}
		if blank {
			continue
		}
		out = append(out, Row{Line: i + 1, Values: values})
	}
	if len(out) == 0 {
		return nil, ErrEmpty
	}
	return out, nil
}

func hasName(cols map[int]string) bool {
	for _, f := range cols {
		if f == FieldNom || f == FieldPrenom || f == FieldNomComplet {
			return true
		}
	}
	return false
}
