package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// naTokens are read as missing values, matching common tabular readers.
var naTokens = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

var boolTokens = map[string]bool{
	"True": true, "TRUE": true, "true": true,
	"False": false, "FALSE": false, "false": false,
}

// IsNAToken reports whether a raw cell is read as missing.
func IsNAToken(s string) bool {
	_, ok := naTokens[strings.TrimSpace(s)]
	return ok
}

// FromRecords builds a dataset from a header and string rows. Each column is
// typed as a whole: numeric when every present cell is a number, bool when
// every cell is a bool token, otherwise text with every cell kept verbatim.
// Short rows are padded with nulls; extra cells are ignored.
func FromRecords(name string, header []string, rows [][]string) (*Dataset, error) {
	names := uniqueHeader(header)
	cols := make([]*Column, len(names))
	for j, colName := range names {
		raw := make([]string, len(rows))
		for i, rec := range rows {
			if j < len(rec) {
				raw[i] = rec[j]
			}
		}
		cols[j] = inferColumn(colName, raw)
	}
	return New(name, cols...)
}

func inferColumn(name string, raw []string) *Column {
	numeric, boolean := true, true
	for _, s := range raw {
		if IsNAToken(s) {
			continue
		}
		t := strings.TrimSpace(s)
		if numeric {
			if _, err := strconv.ParseFloat(t, 64); err != nil {
				numeric = false
			}
		}
		if boolean {
			if _, ok := boolTokens[t]; !ok {
				boolean = false
			}
		}
		if !numeric && !boolean {
			break
		}
	}
	vals := make([]Value, len(raw))
	for i, s := range raw {
		if IsNAToken(s) {
			vals[i] = Null()
			continue
		}
		t := strings.TrimSpace(s)
		switch {
		case numeric:
			f, _ := strconv.ParseFloat(t, 64)
			vals[i] = Number(f)
		case boolean:
			vals[i] = BoolCell(boolTokens[t])
		default:
			vals[i] = TextCell(s)
		}
	}
	return NewColumn(name, vals)
}

// uniqueHeader fills blank names and suffixes repeats with ".1", ".2", ...
func uniqueHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		n := strings.TrimSpace(h)
		if i == 0 {
			n = strings.TrimPrefix(n, "\ufeff")
		}
		if n == "" {
			n = fmt.Sprintf("Unnamed: %d", i)
		}
		base := n
		for {
			c, dup := seen[n]
			if !dup {
				break
			}
			seen[base] = c + 1
			n = fmt.Sprintf("%s.%d", base, c+1)
		}
		seen[n] = 0
		out[i] = n
	}
	return out
}

// CSVOptions controls CSV parsing.
type CSVOptions struct {
	// Delimiter defaults to ','.
	Delimiter rune
	// MaxRows limits rows read; 0 means unlimited.
	MaxRows int
}

// ReadCSV parses a CSV stream whose first row is the header.
func ReadCSV(r io.Reader, name string, opt CSVOptions) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	if opt.Delimiter != 0 {
		cr.Comma = opt.Delimiter
	}
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return New(name)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	header = append([]string(nil), header...)
	var rows [][]string
	for {
		if opt.MaxRows > 0 && len(rows) >= opt.MaxRows {
			break
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, rec)
	}
	return FromRecords(name, header, rows)
}

// WriteOptions controls CSV export.
type WriteOptions struct {
	// BOM prefixes the output with a UTF-8 byte order mark for spreadsheet apps.
	BOM bool
}

// WriteCSV writes the header and every row, without an index column.
func WriteCSV(w io.Writer, d *Dataset, opt WriteOptions) error {
	if opt.BOM {
		if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("write BOM: %w", err)
		}
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(d.Names()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, rec := range d.Records() {
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
