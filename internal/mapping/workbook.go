package mapping

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Header names recognized in a mapping workbook, compared case-insensitively.
var (
	sourceHeaders = []string{"source", "cognos", "cognos expression", "expression"}
	tableHeaders  = []string{"table", "target table", "pbi table"}
	columnHeaders = []string{"column", "target column", "pbi column"}
)

// ErrMissingHeader is returned when a workbook lacks a required column.
var ErrMissingHeader = errors.New("mapping workbook header is missing a column")

// LoadWorkbook opens an .xlsx file and reads its mapping sheet.
func LoadWorkbook(path, sheet string) (*Table, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mapping workbook %s: %w", path, err)
	}
	defer wb.Close()

	return ReadWorkbook(wb, sheet)
}

// ReadWorkbook reads mapping rows from sheet (or the first sheet when empty).
// The first row is the header; rows with a blank source are skipped and
// consecutive rows for one source accumulate candidates in row order.
func ReadWorkbook(wb *excelize.File, sheet string) (*Table, error) {
	if sheet == "" {
		sheets := wb.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("mapping workbook has no sheets")
		}

		sheet = sheets[0]
	}

	rows, err := wb.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %q is empty", ErrMissingHeader, sheet)
	}

	src, tbl, col := headerIndex(rows[0], sourceHeaders), headerIndex(rows[0], tableHeaders), headerIndex(rows[0], columnHeaders)

	var missing []string

	for _, h := range []struct {
		name string
		idx  int
	}{{"source", src}, {"table", tbl}, {"column", col}} {
		if h.idx < 0 {
			missing = append(missing, h.name)
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: sheet %q lacks %s", ErrMissingHeader, sheet, strings.Join(missing, ", "))
	}

	t := NewTable()

	for _, row := range rows[1:] {
		source := cell(row, src)
		if source == "" {
			continue
		}

		t.Add(source, Candidate{Table: cell(row, tbl), Column: cell(row, col)})
	}

	return t, nil
}

func headerIndex(header []string, names []string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, n := range names {
			if h == n {
				return i
			}
		}
	}

	return -1
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
