// Package dataset holds the in-memory table that every cleaning step reads and
// replaces. A Dataset never changes after construction; operations build a new
// one and share the columns they did not touch.
package dataset

import (
	"fmt"
	"strings"
)

// Dataset is an ordered set of equally long, uniquely named columns.
type Dataset struct {
	name  string
	cols  []*Column
	index map[string]int
	rows  int
}

// New validates the column invariants and builds a dataset.
func New(name string, cols ...*Column) (*Dataset, error) {
	d := &Dataset{name: name, cols: cols, index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if c == nil {
			return nil, fmt.Errorf("column %d is nil", i)
		}
		if _, dup := d.index[c.name]; dup {
			return nil, Invalid("new dataset", "duplicate column name %q", c.name)
		}
		d.index[c.name] = i
		if i == 0 {
			d.rows = c.Len()
		} else if c.Len() != d.rows {
			return nil, fmt.Errorf("column %q has %d rows, want %d", c.name, c.Len(), d.rows)
		}
	}
	return d, nil
}

// Name is the source label, usually the uploaded file name.
func (d *Dataset) Name() string { return d.name }

// Len returns the number of rows.
func (d *Dataset) Len() int { return d.rows }

// Width returns the number of columns.
func (d *Dataset) Width() int { return len(d.cols) }

// Names lists column names in order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.cols))
	for i, c := range d.cols {
		out[i] = c.name
	}
	return out
}

// Columns returns the columns in order. The slice is a copy.
func (d *Dataset) Columns() []*Column {
	out := make([]*Column, len(d.cols))
	copy(out, d.cols)
	return out
}

// Column looks a column up by name.
func (d *Dataset) Column(name string) (*Column, error) {
	i, ok := d.index[name]
	if !ok {
		return nil, &ColumnNotFoundError{Column: name}
	}
	return d.cols[i], nil
}

// Has reports whether a column exists.
func (d *Dataset) Has(name string) bool {
	_, ok := d.index[name]
	return ok
}

// NumericColumns returns the int64 and float64 columns in order.
func (d *Dataset) NumericColumns() []*Column {
	var out []*Column
	for _, c := range d.cols {
		if c.IsNumeric() {
			out = append(out, c)
		}
	}
	return out
}

// Row returns the cells of row i in column order.
func (d *Dataset) Row(i int) []Value {
	out := make([]Value, len(d.cols))
	for j, c := range d.cols {
		out[j] = c.values[i]
	}
	return out
}

// RowKey is an identity for row i: equal rows share a key.
func (d *Dataset) RowKey(i int) string {
	var b strings.Builder
	for j, c := range d.cols {
		if j > 0 {
			b.WriteByte(0x1f)
		}
		k := c.values[i].Key()
		b.WriteString(fmt.Sprintf("%d:", len(k)))
		b.WriteString(k)
	}
	return b.String()
}

// WithColumn returns a dataset where the same-named column is replaced.
func (d *Dataset) WithColumn(col *Column) (*Dataset, error) {
	i, ok := d.index[col.name]
	if !ok {
		return nil, &ColumnNotFoundError{Column: col.name}
	}
	if col.Len() != d.rows {
		return nil, fmt.Errorf("column %q has %d rows, want %d", col.name, col.Len(), d.rows)
	}
	cols := d.Columns()
	cols[i] = col
	return &Dataset{name: d.name, cols: cols, index: d.index, rows: d.rows}, nil
}

// SelectRows keeps the listed rows in the given order.
func (d *Dataset) SelectRows(rows []int) *Dataset {
	cols := make([]*Column, len(d.cols))
	for j, c := range d.cols {
		cols[j] = c.pick(rows)
	}
	return &Dataset{name: d.name, cols: cols, index: d.index, rows: len(rows)}
}

// Head returns the first n rows.
func (d *Dataset) Head(n int) *Dataset {
	if n < 0 || n >= d.rows {
		return d
	}
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return d.SelectRows(rows)
}

// WithNames replaces every column name at once.
func (d *Dataset) WithNames(names []string) (*Dataset, error) {
	if len(names) != len(d.cols) {
		return nil, fmt.Errorf("got %d names for %d columns", len(names), len(d.cols))
	}
	cols := make([]*Column, len(d.cols))
	for i, c := range d.cols {
		cols[i] = c.Rename(names[i])
	}
	return New(d.name, cols...)
}

// WithName relabels the dataset.
func (d *Dataset) WithName(name string) *Dataset {
	return &Dataset{name: name, cols: d.cols, index: d.index, rows: d.rows}
}

// Records renders every row as CSV cells.
func (d *Dataset) Records() [][]string {
	out := make([][]string, d.rows)
	for i := 0; i < d.rows; i++ {
		rec := make([]string, len(d.cols))
		for j, c := range d.cols {
			rec[j] = c.Cell(i)
		}
		out[i] = rec
	}
	return out
}
