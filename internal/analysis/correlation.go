package analysis

import (
	"github.com/KaramelBytes/dqboard/internal/dataset"
	"github.com/KaramelBytes/dqboard/internal/stats"
)

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string  `json:"columns"`
	Values  [][]Float `json:"values"` // row-major, Values[i][j]
}

// Correlation computes Pearson r for every pair of numeric columns using the
// rows where both are present. It returns nil when there is nothing to
// correlate; pairs without enough variation are NaN.
func Correlation(d *dataset.Dataset) *CorrMatrix {
	cols := d.NumericColumns()
	if len(cols) == 0 {
		return nil
	}
	n := len(cols)
	m := &CorrMatrix{Columns: make([]string, n), Values: make([][]Float, n)}
	for i, c := range cols {
		m.Columns[i] = c.Name()
		m.Values[i] = make([]Float, n)
	}
	for a := 0; a < n; a++ {
		for b := a; b < n; b++ {
			r := Float(pearson(cols[a], cols[b]))
			m.Values[a][b] = r
			m.Values[b][a] = r
		}
	}
	return m
}

func pearson(x, y *dataset.Column) float64 {
	var acc stats.PairAcc
	for i := 0; i < x.Len(); i++ {
		xv, yv := x.Value(i), y.Value(i)
		if xv.IsNull() || yv.IsNull() {
			continue
		}
		fx, _ := xv.Float()
		fy, _ := yv.Float()
		acc.Add(fx, fy)
	}
	return acc.R()
}

// At returns r for two named columns.
func (m *CorrMatrix) At(a, b string) (float64, bool) {
	ia, ib := -1, -1
	for i, c := range m.Columns {
		if c == a {
			ia = i
		}
		if c == b {
			ib = i
		}
	}
	if ia < 0 || ib < 0 {
		return 0, false
	}
	return float64(m.Values[ia][ib]), true
}
