package clean

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/dqboard/internal/dataset"
	"github.com/KaramelBytes/dqboard/internal/stats"
)

// MissingMethod selects how HandleMissing treats null cells.
type MissingMethod string

const (
	FillMean   MissingMethod = "mean"
	FillMedian MissingMethod = "median"
	FillMode   MissingMethod = "mode"
	DropRows   MissingMethod = "drop"
)

// MissingMethods lists the accepted methods in menu order.
var MissingMethods = []MissingMethod{FillMean, FillMedian, FillMode, DropRows}

// ParseMissingMethod validates a method name.
func ParseMissingMethod(s string) (MissingMethod, error) {
	m := MissingMethod(strings.ToLower(strings.TrimSpace(s)))
	for _, ok := range MissingMethods {
		if m == ok {
			return m, nil
		}
	}
	return "", dataset.Invalid("handle missing", "invalid method %q (use mean, median, mode or drop)", s)
}

// HandleMissing fills or drops null cells in one column, or in every column
// when column is empty. The result replaces the whole dataset.
func HandleMissing(d *dataset.Dataset, method MissingMethod, column string) (*dataset.Dataset, error) {
	targets, err := targetColumns(d, column)
	if err != nil {
		return d, err
	}
	switch method {
	case DropRows:
		return dropNullRows(d, targets), nil
	case FillMean, FillMedian:
		for _, c := range targets {
			if !fillableNumeric(c) {
				return d, dataset.Invalid("handle missing", "cannot compute %s of non-numeric column %q (%s)", method, c.Name(), c.DType())
			}
		}
		return fillEach(d, targets, func(c *dataset.Column) (dataset.Value, bool, error) {
			vals := c.NumericValues()
			if len(vals) == 0 {
				return dataset.Value{}, false, nil
			}
			if method == FillMean {
				return dataset.Number(stats.Mean(vals)), true, nil
			}
			return dataset.Number(stats.Median(vals)), true, nil
		})
	case FillMode:
		single := column != ""
		return fillEach(d, targets, func(c *dataset.Column) (dataset.Value, bool, error) {
			v, ok := Mode(c)
			if !ok && single {
				return dataset.Value{}, false, dataset.Invalid("handle missing", "column %q has no values to take a mode from", c.Name())
			}
			return v, ok, nil
		})
	default:
		return d, dataset.Invalid("handle missing", "invalid method %q (use mean, median, mode or drop)", method)
	}
}

func targetColumns(d *dataset.Dataset, column string) ([]*dataset.Column, error) {
	if column == "" {
		return d.Columns(), nil
	}
	c, err := d.Column(column)
	if err != nil {
		return nil, err
	}
	return []*dataset.Column{c}, nil
}

// fillableNumeric accepts numeric columns and bool columns, which never hold nulls.
func fillableNumeric(c *dataset.Column) bool {
	return c.IsNumeric() || c.DType() == dataset.Bool
}

// fillEach computes one fill value per target column and applies them all,
// or none if any column fails.
func fillEach(d *dataset.Dataset, targets []*dataset.Column, pick func(*dataset.Column) (dataset.Value, bool, error)) (*dataset.Dataset, error) {
	out := d
	for _, c := range targets {
		if c.NullCount() == 0 {
			continue
		}
		fill, ok, err := pick(c)
		if err != nil {
			return d, err
		}
		if !ok {
			continue
		}
		next, err := out.WithColumn(fillColumn(c, fill))
		if err != nil {
			return d, fmt.Errorf("fill %q: %w", c.Name(), err)
		}
		out = next
	}
	return out, nil
}

func fillColumn(c *dataset.Column, fill dataset.Value) *dataset.Column {
	vals := c.Values()
	for i, v := range vals {
		if v.IsNull() {
			vals[i] = fill
		}
	}
	dt := c.DType()
	if dt != dataset.Float {
		dt = dataset.InferDType(vals)
	}
	return dataset.NewTypedColumn(c.Name(), dt, vals)
}

func dropNullRows(d *dataset.Dataset, targets []*dataset.Column) *dataset.Dataset {
	keep := make([]int, 0, d.Len())
	for i := 0; i < d.Len(); i++ {
		ok := true
		for _, c := range targets {
			if c.Value(i).IsNull() {
				ok = false
				break
			}
		}
		if ok {
			keep = append(keep, i)
		}
	}
	if len(keep) == d.Len() {
		return d
	}
	return d.SelectRows(keep)
}

// Mode returns the most frequent non-null value. Ties go to the value that
// sorts first (numbers before bools before text).
func Mode(c *dataset.Column) (dataset.Value, bool) {
	type entry struct {
		v dataset.Value
		n int
	}
	var entries []*entry
	byKey := map[string]*entry{}
	for _, v := range c.Values() {
		if v.IsNull() {
			continue
		}
		k := v.Key()
		e, ok := byKey[k]
		if !ok {
			e = &entry{v: v}
			byKey[k] = e
			entries = append(entries, e)
		}
		e.n++
	}
	if len(entries) == 0 {
		return dataset.Value{}, false
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].n != entries[j].n {
			return entries[i].n > entries[j].n
		}
		return entries[i].v.Compare(entries[j].v) < 0
	})
	return entries[0].v, true
}

// isWhole reports an integral, finite float.
func isWhole(f float64) bool {
	return !math.IsInf(f, 0) && f == math.Trunc(f)
}
