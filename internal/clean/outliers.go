package clean

import (
	"strings"

	"github.com/KaramelBytes/dqboard/internal/dataset"
	"github.com/KaramelBytes/dqboard/internal/stats"
)

// DefaultIQRFactor is the Tukey fence multiplier.
const DefaultIQRFactor = 1.5

// Bounds is the IQR fence for one column, computed from the dataset it was
// given and never cached.
type Bounds struct {
	Column string  `json:"column"`
	Q1     float64 `json:"q1"`
	Q3     float64 `json:"q3"`
	IQR    float64 `json:"iqr"`
	Lower  float64 `json:"lower"`
	Upper  float64 `json:"upper"`
	// Rows holds the indices of rows whose value falls outside [Lower, Upper].
	// ±Inf cells always land here.
	Rows []int `json:"rows"`
	// NonFinite counts ±Inf cells left out of the quartiles.
	NonFinite int `json:"non_finite,omitempty"`
}

// OutlierBounds computes the 1.5·IQR fence of a numeric column.
func OutlierBounds(d *dataset.Dataset, column string) (*Bounds, error) {
	return OutlierBoundsK(d, column, DefaultIQRFactor)
}

// OutlierBoundsK is OutlierBounds with a custom fence multiplier.
func OutlierBoundsK(d *dataset.Dataset, column string, k float64) (*Bounds, error) {
	c, err := numericColumn(d, "outlier analysis", column)
	if err != nil {
		return nil, err
	}
	vals, skipped := stats.Finite(c.NumericValues())
	if len(vals) == 0 {
		return nil, &dataset.EmptyResultError{What: "column " + column + " has no finite values"}
	}
	sorted := stats.Sorted(vals)
	q1 := stats.Quantile(sorted, 0.25)
	q3 := stats.Quantile(sorted, 0.75)
	iqr := q3 - q1
	b := &Bounds{
		Column:    column,
		Q1:        q1,
		Q3:        q3,
		IQR:       iqr,
		Lower:     q1 - k*iqr,
		Upper:     q3 + k*iqr,
		NonFinite: skipped,
	}
	b.Rows = outsideRows(c, b.Lower, b.Upper)
	return b, nil
}

// numericColumn resolves a column that outlier handling can work on.
func numericColumn(d *dataset.Dataset, op, column string) (*dataset.Column, error) {
	if len(d.NumericColumns()) == 0 {
		return nil, dataset.Invalid(op, "the dataset does not contain any numerical columns")
	}
	c, err := d.Column(column)
	if err != nil {
		return nil, err
	}
	if !c.IsNumeric() {
		return nil, dataset.Invalid(op, "the selected column %q is not numerical", column)
	}
	return c, nil
}

func outsideRows(c *dataset.Column, lower, upper float64) []int {
	var out []int
	for i := 0; i < c.Len(); i++ {
		f, ok := c.Value(i).Float()
		if !ok || c.Value(i).IsNull() {
			continue
		}
		if f < lower || f > upper {
			out = append(out, i)
		}
	}
	return out
}

// OutlierMethod selects how HandleOutliers treats values outside the fence.
type OutlierMethod string

const (
	Clip OutlierMethod = "clip"
	Drop OutlierMethod = "drop"
)

// ParseOutlierMethod validates a method name.
func ParseOutlierMethod(s string) (OutlierMethod, error) {
	switch m := OutlierMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case Clip, Drop:
		return m, nil
	}
	return "", dataset.Invalid("handle outliers", "invalid method %q (use clip or drop)", s)
}

// HandleOutliers clips values to [lower, upper] or drops the rows outside it.
// Nulls are neither clipped nor dropped. On error the input dataset is
// returned unchanged.
func HandleOutliers(d *dataset.Dataset, column string, lower, upper float64, method OutlierMethod) (*dataset.Dataset, error) {
	if method != Clip && method != Drop {
		return d, dataset.Invalid("handle outliers", "invalid method %q (use clip or drop)", method)
	}
	if lower > upper {
		return d, dataset.Invalid("handle outliers", "lower bound %v is above upper bound %v", lower, upper)
	}
	c, err := numericColumn(d, "handle outliers", column)
	if err != nil {
		return d, err
	}
	if method == Drop {
		out := outsideRows(c, lower, upper)
		if len(out) == 0 {
			return d, nil
		}
		drop := make(map[int]struct{}, len(out))
		for _, i := range out {
			drop[i] = struct{}{}
		}
		keep := make([]int, 0, d.Len()-len(out))
		for i := 0; i < d.Len(); i++ {
			if _, gone := drop[i]; !gone {
				keep = append(keep, i)
			}
		}
		return d.SelectRows(keep), nil
	}

	vals := c.Values()
	whole := c.DType() == dataset.Int
	for i, v := range vals {
		f, ok := v.Float()
		if !ok || v.IsNull() {
			continue
		}
		switch {
		case f < lower:
			f = lower
		case f > upper:
			f = upper
		}
		if !isWhole(f) {
			whole = false
		}
		vals[i] = dataset.Number(f)
	}
	dt := dataset.Float
	if whole {
		dt = dataset.Int
	}
	next, err := d.WithColumn(dataset.NewTypedColumn(column, dt, vals))
	if err != nil {
		return d, err
	}
	return next, nil
}
