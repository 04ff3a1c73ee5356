package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/dqboard/internal/dataset"
)

type xlsxParser struct{}

func (xlsxParser) Extensions() []string { return []string{".xlsx", ".xlsm"} }

func (p xlsxParser) CanParse(filename string) bool { return hasExt(filename, p.Extensions()) }

// Parse reads one sheet; the first non-empty row is the header.
func (xlsxParser) Parse(r io.Reader, name string, opt Options) (*dataset.Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet, err := pickSheet(f.GetSheetList(), opt.Sheet)
	if err != nil {
		return nil, err
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	for len(rows) > 0 && blankRow(rows[0]) {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return dataset.New(name)
	}
	body := rows[1:]
	if opt.MaxRows > 0 && len(body) > opt.MaxRows {
		body = body[:opt.MaxRows]
	}
	return dataset.FromRecords(name, rows[0], body)
}

// pickSheet resolves a sheet by exact name, case-insensitive name, or 1-based index.
func pickSheet(sheets []string, want string) (string, error) {
	if len(sheets) == 0 {
		return "", dataset.Invalid("read workbook", "workbook has no sheets")
	}
	want = strings.TrimSpace(want)
	if want == "" {
		return sheets[0], nil
	}
	for _, s := range sheets {
		if s == want {
			return s, nil
		}
	}
	for _, s := range sheets {
		if strings.EqualFold(strings.TrimSpace(s), want) {
			return s, nil
		}
	}
	if n, err := strconv.Atoi(want); err == nil {
		if n < 1 || n > len(sheets) {
			return "", dataset.Invalid("read workbook", "sheet index %d out of range (1-%d)", n, len(sheets))
		}
		return sheets[n-1], nil
	}
	return "", dataset.Invalid("read workbook", "sheet %q not found (have %s)", want, strings.Join(sheets, ", "))
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
