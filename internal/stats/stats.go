// Package stats holds the small numeric kernels shared by the cleaning
// transforms and the reporters.
package stats

import (
	"math"
	"sort"
)

// Quantile interpolates linearly between the closest ranks of sorted data.
// It returns NaN for an empty slice.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// Sorted returns a sorted copy.
func Sorted(vals []float64) []float64 {
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	return cp
}

// Finite drops NaN and ±Inf and reports how many values it dropped.
func Finite(vals []float64) ([]float64, int) {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out, len(vals) - len(out)
}

// Median of unsorted values; NaN when empty.
func Median(vals []float64) float64 {
	return Quantile(Sorted(vals), 0.5)
}

// Summary is a running Welford accumulator.
type Summary struct {
	N    int
	mean float64
	m2   float64
	Min  float64
	Max  float64
}

// Add folds one observation in.
func (s *Summary) Add(x float64) {
	if s.N == 0 {
		s.Min, s.Max = x, x
	}
	s.N++
	if x < s.Min {
		s.Min = x
	}
	if x > s.Max {
		s.Max = x
	}
	delta := x - s.mean
	s.mean += delta / float64(s.N)
	s.m2 += delta * (x - s.mean)
}

// Mean is NaN for an empty summary.
func (s *Summary) Mean() float64 {
	if s.N == 0 {
		return math.NaN()
	}
	return s.mean
}

// Std is the sample standard deviation (n-1); NaN below two observations.
func (s *Summary) Std() float64 {
	if s.N < 2 {
		return math.NaN()
	}
	return math.Sqrt(s.m2 / float64(s.N-1))
}

// Summarize folds a whole slice.
func Summarize(vals []float64) Summary {
	var s Summary
	for _, v := range vals {
		s.Add(v)
	}
	return s
}

// Mean of values; NaN when empty.
func Mean(vals []float64) float64 {
	s := Summarize(vals)
	return s.Mean()
}

// PairAcc accumulates centered co-moments for a Pearson coefficient. The
// updates follow Welford, so large offsets (timestamps, ids) keep their spread.
type PairAcc struct {
	N     int
	meanX float64
	meanY float64
	m2x   float64
	m2y   float64
	cxy   float64
}

// Add folds one complete (x, y) observation in.
func (p *PairAcc) Add(x, y float64) {
	p.N++
	n := float64(p.N)
	dx := x - p.meanX
	dy := y - p.meanY
	p.meanX += dx / n
	p.meanY += dy / n
	p.m2x += dx * (x - p.meanX)
	p.m2y += dy * (y - p.meanY)
	p.cxy += dx * (y - p.meanY)
}

// R returns the Pearson coefficient, clamped to [-1, 1]. Degenerate input
// (fewer than two points, zero variance) yields NaN.
func (p *PairAcc) R() float64 {
	if p.N < 2 || p.m2x <= 0 || p.m2y <= 0 {
		return math.NaN()
	}
	denom := math.Sqrt(p.m2x) * math.Sqrt(p.m2y)
	if denom == 0 || math.IsNaN(denom) || math.IsInf(denom, 0) {
		return math.NaN()
	}
	r := p.cxy / denom
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r
}

// MedianMAD computes median and MAD (median absolute deviation) of values.
func MedianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := Sorted(vals)
	median = Quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = Quantile(dev, 0.5)
	return
}
