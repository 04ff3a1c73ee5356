// Package charts renders distribution plots as PNG images.
package charts

import (
	"fmt"
	"io"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/KaramelBytes/dqboard/internal/analysis"
	"github.com/KaramelBytes/dqboard/internal/dataset"
)

const (
	width         = 960
	height        = 540
	maxCategories = 30
)

var padding = chart.Style{Padding: chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 16}}

// pointStyle draws markers without connecting lines.
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: 0,
		StrokeColor: drawing.ColorTransparent,
		DotWidth:    4,
		DotColor:    col,
	}
}

func lineStyle(col drawing.Color, w float64) chart.Style {
	return chart.Style{StrokeColor: col, StrokeWidth: w}
}

// Histogram draws binned counts with the density curve scaled to counts, or
// a bar chart of category counts for non-numeric columns.
func Histogram(w io.Writer, h *analysis.Histogram) error {
	if h == nil {
		return &dataset.EmptyResultError{What: "nothing to plot"}
	}
	if !h.Numeric {
		return categoryBars(w, h)
	}
	if len(h.Counts) == 0 {
		return &dataset.EmptyResultError{What: "column " + h.Column + " has no values"}
	}

	var xs, ys []float64
	peak, total := 0, 0
	xs = append(xs, h.Edges[0])
	ys = append(ys, 0)
	for i, c := range h.Counts {
		xs = append(xs, h.Edges[i], h.Edges[i+1])
		ys = append(ys, float64(c), float64(c))
		if c > peak {
			peak = c
		}
		total += c
	}
	xs = append(xs, h.Edges[len(h.Edges)-1])
	ys = append(ys, 0)

	series := []chart.Series{chart.ContinuousSeries{
		Name:    "count",
		XValues: xs,
		YValues: ys,
		Style: chart.Style{
			StrokeColor: chart.ColorBlue,
			StrokeWidth: 1,
			FillColor:   chart.ColorBlue.WithAlpha(96),
		},
	}}
	top := float64(peak)
	if h.KDE != nil && len(h.KDE.X) > 1 {
		scale := float64(total) * h.BinWidth()
		ky := make([]float64, len(h.KDE.Y))
		for i, y := range h.KDE.Y {
			ky[i] = y * scale
			top = math.Max(top, ky[i])
		}
		series = append(series, chart.ContinuousSeries{
			Name:    "density",
			XValues: h.KDE.X,
			YValues: ky,
			Style:   lineStyle(chart.ColorRed, 2),
		})
	}

	ch := chart.Chart{
		Title:      "Distribution of " + h.Column,
		Width:      width,
		Height:     height,
		Background: padding,
		XAxis: chart.XAxis{
			Name:  h.Column,
			Range: &chart.ContinuousRange{Min: h.Edges[0], Max: h.Edges[len(h.Edges)-1]},
		},
		YAxis: chart.YAxis{
			Name:  "count",
			Range: &chart.ContinuousRange{Min: 0, Max: math.Max(1, top*1.1)},
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render histogram: %w", err)
	}
	return nil
}

func categoryBars(w io.Writer, h *analysis.Histogram) error {
	cats := h.Categories
	if len(cats) == 0 {
		return &dataset.EmptyResultError{What: "column " + h.Column + " has no values"}
	}
	if len(cats) > maxCategories {
		cats = cats[:maxCategories]
	}
	bars := make([]chart.Value, 0, len(cats))
	peak := 0
	for _, c := range cats {
		bars = append(bars, chart.Value{Value: float64(c.Count), Label: label(c.Value.String())})
		if c.Count > peak {
			peak = c.Count
		}
	}
	bc := chart.BarChart{
		Title:      "Counts of " + h.Column,
		Width:      int(math.Max(width, float64(len(bars)*48+160))),
		Height:     height,
		BarWidth:   32,
		BarSpacing: 16,
		Background: padding,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: float64(peak) * 1.1},
		},
		Bars: bars,
	}
	if err := bc.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render bar chart: %w", err)
	}
	return nil
}

func label(s string) string {
	r := []rune(s)
	if len(r) > 12 {
		return string(r[:11]) + "…"
	}
	return s
}

// BoxPlot draws the box, median, Tukey whiskers, mean marker and fliers.
func BoxPlot(w io.Writer, b *analysis.BoxPlot) error {
	if b == nil || b.Count == 0 {
		return &dataset.EmptyResultError{What: "no numeric values to plot"}
	}
	const left, right, capL, capR = 0.7, 1.3, 0.85, 1.15
	series := []chart.Series{
		chart.ContinuousSeries{
			Name:    "IQR",
			XValues: []float64{left, right, right, left, left},
			YValues: []float64{b.Q1, b.Q1, b.Q3, b.Q3, b.Q1},
			Style: chart.Style{
				StrokeColor: chart.ColorBlue,
				StrokeWidth: 2,
				FillColor:   chart.ColorBlue.WithAlpha(64),
			},
		},
		chart.ContinuousSeries{
			Name:    "median",
			XValues: []float64{left, right},
			YValues: []float64{b.Median, b.Median},
			Style:   lineStyle(chart.ColorRed, 2),
		},
		chart.ContinuousSeries{
			XValues: []float64{1, 1, capL, capR},
			YValues: []float64{b.Q1, b.WhiskerLow, b.WhiskerLow, b.WhiskerLow},
			Style:   lineStyle(chart.ColorBlack, 1),
		},
		chart.ContinuousSeries{
			XValues: []float64{1, 1, capL, capR},
			YValues: []float64{b.Q3, b.WhiskerHigh, b.WhiskerHigh, b.WhiskerHigh},
			Style:   lineStyle(chart.ColorBlack, 1),
		},
		chart.ContinuousSeries{
			Name:    "mean",
			XValues: []float64{1},
			YValues: []float64{b.Mean},
			Style:   pointStyle(chart.ColorGreen),
		},
	}
	lo, hi := b.WhiskerLow, b.WhiskerHigh
	if len(b.Fliers) > 0 {
		xs := make([]float64, len(b.Fliers))
		for i, f := range b.Fliers {
			xs[i] = 1
			lo, hi = math.Min(lo, f), math.Max(hi, f)
		}
		series = append(series, chart.ContinuousSeries{
			Name:    "outliers",
			XValues: xs,
			YValues: b.Fliers,
			Style:   pointStyle(chart.ColorAlternateGray),
		})
	}
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = math.Max(math.Abs(hi)*0.05, 0.5)
	}

	ch := chart.Chart{
		Title:      "Box plot of " + b.Column,
		Width:      width / 2,
		Height:     height,
		Background: padding,
		XAxis: chart.XAxis{
			Style: chart.Style{Hidden: true},
			Range: &chart.ContinuousRange{Min: 0, Max: 2},
		},
		YAxis: chart.YAxis{
			Name:  b.Column,
			Range: &chart.ContinuousRange{Min: lo - pad, Max: hi + pad},
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render box plot: %w", err)
	}
	return nil
}
