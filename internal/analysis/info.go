package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/dqboard/internal/dataset"
)

// ColumnInfo is one line of the dataset info panel.
type ColumnInfo struct {
	Column  string `json:"column"`
	NonNull int    `json:"non_null"`
	DType   string `json:"dtype"`
}

// DatasetInfo describes the shape and dtypes of a dataset.
type DatasetInfo struct {
	Name        string         `json:"name"`
	Rows        int            `json:"rows"`
	Columns     []ColumnInfo   `json:"columns"`
	DTypeCounts map[string]int `json:"dtype_counts"`
}

// Info gathers row count, non-null counts and dtypes.
func Info(d *dataset.Dataset) *DatasetInfo {
	out := &DatasetInfo{Name: d.Name(), Rows: d.Len(), DTypeCounts: map[string]int{}}
	for _, c := range d.Columns() {
		dt := c.DType().String()
		out.Columns = append(out.Columns, ColumnInfo{Column: c.Name(), NonNull: c.Len() - c.NullCount(), DType: dt})
		out.DTypeCounts[dt]++
	}
	return out
}

// Text renders the info panel as a fixed-width listing.
func (i *DatasetInfo) Text() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("RangeIndex: %d entries", i.Rows))
	if i.Rows > 0 {
		b.WriteString(fmt.Sprintf(", 0 to %d", i.Rows-1))
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Data columns (total %d columns):\n", len(i.Columns)))
	w := len("Column")
	for _, c := range i.Columns {
		if len(c.Column) > w {
			w = len(c.Column)
		}
	}
	b.WriteString(fmt.Sprintf(" #   %-*s  Non-Null Count  Dtype\n", w, "Column"))
	b.WriteString(fmt.Sprintf("---  %s  --------------  -----\n", strings.Repeat("-", w)))
	for n, c := range i.Columns {
		b.WriteString(fmt.Sprintf(" %-3d %-*s  %-14s  %s\n", n, w, c.Column, fmt.Sprintf("%d non-null", c.NonNull), c.DType))
	}
	keys := make([]string, 0, len(i.DTypeCounts))
	for k := range i.DTypeCounts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for n, k := range keys {
		parts[n] = fmt.Sprintf("%s(%d)", k, i.DTypeCounts[k])
	}
	b.WriteString("dtypes: " + strings.Join(parts, ", ") + "\n")
	return b.String()
}

// ColumnType pairs a column with its dtype.
type ColumnType struct {
	Column string `json:"column"`
	DType  string `json:"dtype"`
}

// DTypes lists every column's dtype in column order.
func DTypes(d *dataset.Dataset) []ColumnType {
	out := make([]ColumnType, 0, d.Width())
	for _, c := range d.Columns() {
		out = append(out, ColumnType{Column: c.Name(), DType: c.DType().String()})
	}
	return out
}
