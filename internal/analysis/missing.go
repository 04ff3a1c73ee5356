package analysis

import "github.com/KaramelBytes/dqboard/internal/dataset"

// MissingCount is the null tally of one column.
type MissingCount struct {
	Column  string `json:"column"`
	Missing int    `json:"missing"`
	Percent Float  `json:"percent"`
}

// MissingSummary lists per-column null counts in column order.
type MissingSummary struct {
	Rows    int            `json:"rows"`
	Columns []MissingCount `json:"columns"`
	Total   int            `json:"total"`
}

// MissingReport counts null cells per column.
func MissingReport(d *dataset.Dataset) *MissingSummary {
	out := &MissingSummary{Rows: d.Len(), Columns: make([]MissingCount, 0, d.Width())}
	for _, c := range d.Columns() {
		n := c.NullCount()
		mc := MissingCount{Column: c.Name(), Missing: n}
		if d.Len() > 0 {
			mc.Percent = Float(float64(n) * 100 / float64(d.Len()))
		}
		out.Columns = append(out.Columns, mc)
		out.Total += n
	}
	return out
}

// NullMask is the row × column null grid behind the missing-values heatmap.
type NullMask struct {
	Columns []string `json:"columns"`
	Rows    [][]bool `json:"rows"`
}

// MissingMatrix marks every null cell; Rows[i][j] is true when row i of
// column j is missing.
func MissingMatrix(d *dataset.Dataset) *NullMask {
	cols := d.Columns()
	m := &NullMask{Columns: d.Names(), Rows: make([][]bool, d.Len())}
	for i := range m.Rows {
		row := make([]bool, len(cols))
		for j, c := range cols {
			row[j] = c.Value(i).IsNull()
		}
		m.Rows[i] = row
	}
	return m
}
