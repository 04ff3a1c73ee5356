package analysis

import (
	"math"
	"sort"

	"github.com/KaramelBytes/dqboard/internal/dataset"
	"github.com/KaramelBytes/dqboard/internal/stats"
)

// NumericDescription is one column of the numeric describe table.
type NumericDescription struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
	Mean   Float  `json:"mean"`
	Std    Float  `json:"std"`
	Min    Float  `json:"min"`
	Q1     Float  `json:"25%"`
	Median Float  `json:"50%"`
	Q3     Float  `json:"75%"`
	Max    Float  `json:"max"`
}

// CategoricalDescription is one column of the fallback describe table.
type CategoricalDescription struct {
	Column string        `json:"column"`
	Count  int           `json:"count"`
	Unique int           `json:"unique"`
	Top    dataset.Value `json:"top"`
	Freq   int           `json:"freq"`
}

// Description holds summary statistics. Numeric is filled when the dataset
// has numeric columns; otherwise Categorical describes the rest.
type Description struct {
	Numeric     []NumericDescription     `json:"numeric,omitempty"`
	Categorical []CategoricalDescription `json:"categorical,omitempty"`
}

// Describe summarises every int64/float64 column, or every column by value
// counts when there are none.
func Describe(d *dataset.Dataset) (*Description, error) {
	if d.Width() == 0 {
		return nil, &dataset.EmptyResultError{What: "cannot describe a dataset without columns"}
	}
	out := &Description{}
	if num := d.NumericColumns(); len(num) > 0 {
		for _, c := range num {
			out.Numeric = append(out.Numeric, describeNumeric(c))
		}
		return out, nil
	}
	for _, c := range d.Columns() {
		out.Categorical = append(out.Categorical, describeCategorical(c))
	}
	return out, nil
}

func describeNumeric(c *dataset.Column) NumericDescription {
	vals := c.NumericValues()
	s := stats.Summarize(vals)
	sorted := stats.Sorted(vals)
	nd := NumericDescription{
		Column: c.Name(),
		Count:  len(vals),
		Mean:   Float(s.Mean()),
		Std:    Float(s.Std()),
		Q1:     Float(stats.Quantile(sorted, 0.25)),
		Median: Float(stats.Quantile(sorted, 0.5)),
		Q3:     Float(stats.Quantile(sorted, 0.75)),
	}
	nd.Min, nd.Max = Float(math.NaN()), Float(math.NaN())
	if s.N > 0 {
		nd.Min, nd.Max = Float(s.Min), Float(s.Max)
	}
	return nd
}

func describeCategorical(c *dataset.Column) CategoricalDescription {
	counts := valueCounts(c)
	cd := CategoricalDescription{Column: c.Name(), Count: c.Len() - c.NullCount(), Unique: len(counts)}
	if len(counts) > 0 {
		cd.Top = counts[0].Value
		cd.Freq = counts[0].Count
	}
	return cd
}

// ValueCount is one distinct non-null cell and how often it occurs.
type ValueCount struct {
	Value dataset.Value `json:"value"`
	Count int           `json:"count"`
}

// valueCounts orders distinct values by count, most frequent first; ties keep
// first-seen order.
func valueCounts(c *dataset.Column) []ValueCount {
	idx := map[string]int{}
	var out []ValueCount
	for i := 0; i < c.Len(); i++ {
		v := c.Value(i)
		if v.IsNull() {
			continue
		}
		k := v.Key()
		if j, ok := idx[k]; ok {
			out[j].Count++
			continue
		}
		idx[k] = len(out)
		out = append(out, ValueCount{Value: v, Count: 1})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}
