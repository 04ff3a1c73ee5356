package analysis

import (
	"math"

	"github.com/KaramelBytes/dqboard/internal/dataset"
	"github.com/KaramelBytes/dqboard/internal/stats"
)

const (
	kdePoints = 200
	maxBins   = 500
)

// Histogram is the binned distribution of one column. Numeric columns fill
// Edges/Counts and usually KDE; other columns fill Categories.
type Histogram struct {
	Column     string       `json:"column"`
	Numeric    bool         `json:"numeric"`
	Edges      []float64    `json:"edges,omitempty"`
	Counts     []int        `json:"counts,omitempty"`
	KDE        *Density     `json:"kde,omitempty"`
	Categories []ValueCount `json:"categories,omitempty"`
	// NonFinite counts ±Inf cells left out of the bins.
	NonFinite int `json:"non_finite,omitempty"`
}

// BinWidth is the width of the first bin, 0 for categorical histograms.
func (h *Histogram) BinWidth() float64 {
	if len(h.Edges) < 2 {
		return 0
	}
	return h.Edges[1] - h.Edges[0]
}

// Density is a Gaussian kernel density estimate sampled on an even grid.
type Density struct {
	Bandwidth float64   `json:"bandwidth"`
	X         []float64 `json:"x"`
	Y         []float64 `json:"y"`
}

// BoxPlot is the five-number summary with Tukey whiskers.
type BoxPlot struct {
	Column      string    `json:"column"`
	Count       int       `json:"count"`
	Q1          float64   `json:"q1"`
	Median      float64   `json:"median"`
	Q3          float64   `json:"q3"`
	WhiskerLow  float64   `json:"whisker_low"`
	WhiskerHigh float64   `json:"whisker_high"`
	Fliers      []float64 `json:"fliers"`
	Mean        float64   `json:"mean"`
}

// Distribution builds the histogram and box-plot inputs for one column.
// bins <= 0 picks the bin count automatically. Non-numeric columns return
// category counts and a nil box plot.
func Distribution(d *dataset.Dataset, column string, bins int) (*Histogram, *BoxPlot, error) {
	c, err := d.Column(column)
	if err != nil {
		return nil, nil, err
	}
	if !c.IsNumeric() {
		counts := valueCounts(c)
		if len(counts) == 0 {
			return nil, nil, &dataset.EmptyResultError{What: "column " + column + " has no values"}
		}
		return &Histogram{Column: column, Categories: counts}, nil, nil
	}
	vals, skipped := stats.Finite(c.NumericValues())
	if len(vals) == 0 {
		return nil, nil, &dataset.EmptyResultError{What: "column " + column + " has no finite values"}
	}
	sorted := stats.Sorted(vals)
	h := &Histogram{Column: column, Numeric: true, NonFinite: skipped}
	h.Edges, h.Counts = histogram(sorted, bins)
	h.KDE = kde(sorted)
	return h, boxPlot(column, sorted), nil
}

// AutoBins picks the bin count the way numpy's "auto" rule does: the
// smaller of the Sturges and Freedman-Diaconis bin widths.
func AutoBins(sorted []float64) int {
	n := len(sorted)
	if n == 0 {
		return 1
	}
	span := sorted[n-1] - sorted[0]
	if span == 0 {
		return 1
	}
	width := span / (math.Log2(float64(n)) + 1)
	iqr := stats.Quantile(sorted, 0.75) - stats.Quantile(sorted, 0.25)
	if fd := 2 * iqr * math.Pow(float64(n), -1.0/3); fd > 0 && fd < width {
		width = fd
	}
	bins := int(math.Ceil(span / width))
	if bins < 1 {
		bins = 1
	}
	if bins > maxBins {
		bins = maxBins
	}
	return bins
}

func histogram(sorted []float64, bins int) ([]float64, []int) {
	if bins <= 0 {
		bins = AutoBins(sorted)
	}
	if bins > maxBins {
		bins = maxBins
	}
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	width := (hi - lo) / float64(bins)
	edges := make([]float64, bins+1)
	for i := range edges {
		edges[i] = lo + float64(i)*width
	}
	edges[bins] = hi
	counts := make([]int, bins)
	for _, x := range sorted {
		i := int((x - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		if i < 0 {
			i = 0
		}
		counts[i]++
	}
	return edges, counts
}

// kde evaluates a Gaussian KDE with Scott's bandwidth over the data range.
// It returns nil when the data has no spread.
func kde(sorted []float64) *Density {
	n := len(sorted)
	if n < 2 {
		return nil
	}
	s := stats.Summarize(sorted)
	sd := s.Std()
	if !(sd > 0) || math.IsInf(sd, 0) {
		return nil
	}
	bw := sd * math.Pow(float64(n), -0.2)
	lo, hi := sorted[0], sorted[n-1]
	out := &Density{Bandwidth: bw, X: make([]float64, kdePoints), Y: make([]float64, kdePoints)}
	step := (hi - lo) / float64(kdePoints-1)
	norm := 1 / (float64(n) * bw * math.Sqrt(2*math.Pi))
	for i := 0; i < kdePoints; i++ {
		x := lo + float64(i)*step
		var sum float64
		for _, xi := range sorted {
			u := (x - xi) / bw
			sum += math.Exp(-0.5 * u * u)
		}
		out.X[i] = x
		out.Y[i] = sum * norm
	}
	return out
}

func boxPlot(column string, sorted []float64) *BoxPlot {
	s := stats.Summarize(sorted)
	b := &BoxPlot{
		Column: column,
		Count:  len(sorted),
		Q1:     stats.Quantile(sorted, 0.25),
		Median: stats.Quantile(sorted, 0.5),
		Q3:     stats.Quantile(sorted, 0.75),
		Mean:   s.Mean(),
		Fliers: []float64{},
	}
	iqr := b.Q3 - b.Q1
	lo, hi := b.Q1-1.5*iqr, b.Q3+1.5*iqr
	b.WhiskerLow, b.WhiskerHigh = b.Q1, b.Q3
	for _, x := range sorted {
		if x < lo || x > hi {
			b.Fliers = append(b.Fliers, x)
			continue
		}
		if x < b.WhiskerLow {
			b.WhiskerLow = x
		}
		if x > b.WhiskerHigh {
			b.WhiskerHigh = x
		}
	}
	return b
}
