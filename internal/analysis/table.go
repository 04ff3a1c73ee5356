package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/dqboard/internal/clean"
	"github.com/KaramelBytes/dqboard/internal/dataset"
	"github.com/KaramelBytes/dqboard/internal/stats"
)

// Options controls profile behavior.
type Options struct {
	// SampleRows determines how many example rows to include in the report.
	SampleRows int
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
	// Outlier detection via robust Z-score (MAD). If Outliers is true, counts |z|>threshold.
	Outliers         bool
	OutlierThreshold float64
	// TopValues caps the categories listed per column.
	TopValues int
}

// DefaultOptions returns reasonable defaults for dataset profiling.
func DefaultOptions() Options {
	return Options{
		SampleRows:       5,
		Correlations:     true,
		Outliers:         true,
		OutlierThreshold: 3.5,
		TopValues:        8,
	}
}

// Report is a markdown-friendly profile of a dataset.
type Report struct {
	Name       string          `json:"name"`
	Rows       int             `json:"rows"`
	Duplicates int             `json:"duplicates"`
	Cols       []ColumnSummary `json:"columns"`
	Samples    [][]string      `json:"samples,omitempty"`
	Warnings   []string        `json:"warnings,omitempty"`
	Corr       *CorrMatrix     `json:"correlation,omitempty"`
}

// ColumnSummary captures dtype, kind and statistics per column.
type ColumnSummary struct {
	Name    string `json:"name"`
	DType   string `json:"dtype"`
	Kind    string `json:"kind"` // numeric|boolean|datetime|categorical|text|empty
	NonNull int    `json:"non_null"`
	Missing int    `json:"missing"`
	Unique  int    `json:"unique,omitempty"`
	// Numeric stats
	Min  Float `json:"min,omitempty"`
	Max  Float `json:"max,omitempty"`
	Mean Float `json:"mean,omitempty"`
	Std  Float `json:"std,omitempty"`
	// Outliers (robust Z via MAD)
	OutliersCount    int     `json:"outliers,omitempty"`
	OutliersMaxAbsZ  float64 `json:"outliers_max_abs_z,omitempty"`
	OutlierThreshold float64 `json:"outlier_threshold,omitempty"`
	// Categorical top values
	TopValues    []CategoryCount `json:"top_values,omitempty"`
	ExampleTexts []string        `json:"examples,omitempty"`
}

type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Profile summarises a loaded dataset for the analyze command.
func Profile(d *dataset.Dataset, opt Options) *Report {
	sampleRows := opt.SampleRows
	if sampleRows <= 0 {
		sampleRows = 5
	}
	top := opt.TopValues
	if top <= 0 {
		top = 8
	}
	rep := &Report{Name: d.Name(), Rows: d.Len(), Duplicates: clean.DuplicateCount(d)}
	for _, c := range d.Columns() {
		rep.Cols = append(rep.Cols, summarizeColumn(c, opt, top))
		if c.DType() == dataset.Mixed {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("column %s mixes numbers and text; convert it before numeric analysis", safeName(c.Name())))
		}
	}
	rep.Samples = d.Head(sampleRows).Records()
	if rep.Duplicates > 0 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("%d duplicate rows", rep.Duplicates))
	}
	if opt.Correlations {
		if m := Correlation(d); m != nil && len(m.Columns) >= 2 {
			rep.Corr = m
		}
	}
	return rep
}

func summarizeColumn(c *dataset.Column, opt Options, top int) ColumnSummary {
	s := ColumnSummary{Name: c.Name(), DType: c.DType().Describe(), Missing: c.NullCount()}
	s.NonNull = c.Len() - s.Missing
	switch {
	case s.NonNull == 0:
		s.Kind = "empty"
	case c.IsNumeric():
		s.Kind = "numeric"
		vals := c.NumericValues()
		sum := stats.Summarize(vals)
		s.Min, s.Max, s.Mean = Float(sum.Min), Float(sum.Max), Float(sum.Mean())
		if sum.N > 1 {
			s.Std = Float(sum.Std())
		}
		if opt.Outliers && len(vals) >= 8 {
			s.OutliersCount, s.OutliersMaxAbsZ, s.OutlierThreshold = robustOutliers(vals, opt.OutlierThreshold)
		}
	case c.DType() == dataset.Bool:
		s.Kind = "boolean"
		s.TopValues, s.Unique = topValues(c, top)
	default:
		counts := valueCounts(c)
		s.Unique = len(counts)
		switch {
		case allTimes(counts):
			s.Kind = "datetime"
			s.ExampleTexts = examples(counts)
		case s.Unique <= 10000 && s.Unique < s.NonNull:
			// repeated short tokens read as categories
			s.Kind = "categorical"
			s.TopValues, _ = topValues(c, top)
		default:
			s.Kind = "text"
			s.ExampleTexts = examples(counts)
		}
	}
	return s
}

// robustOutliers counts finite values whose modified z-score exceeds thr.
func robustOutliers(vals []float64, thr float64) (cnt int, maxAbsZ, threshold float64) {
	if thr <= 0 {
		thr = 3.5
	}
	vals, _ = stats.Finite(vals)
	median, mad := stats.MedianMAD(vals)
	if mad > 0 {
		for _, v := range vals {
			az := math.Abs(0.6745 * (v - median) / mad)
			if az > thr {
				cnt++
			}
			if az > maxAbsZ {
				maxAbsZ = az
			}
		}
	}
	return cnt, maxAbsZ, thr
}

func topValues(c *dataset.Column, limit int) ([]CategoryCount, int) {
	counts := valueCounts(c)
	tops := make([]CategoryCount, 0, len(counts))
	for _, vc := range counts {
		tops = append(tops, CategoryCount{Value: vc.Value.String(), Count: vc.Count})
	}
	sort.SliceStable(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > limit {
		tops = tops[:limit]
	}
	return tops, len(counts)
}

func examples(counts []ValueCount) []string {
	var out []string
	for _, vc := range counts {
		if len(out) == 3 {
			break
		}
		out = append(out, vc.Value.String())
	}
	return out
}

func allTimes(counts []ValueCount) bool {
	if len(counts) == 0 {
		return false
	}
	for _, vc := range counts {
		s, ok := vc.Value.Str()
		if !ok {
			return false
		}
		if _, ok := parseTimeMaybe(s); !ok {
			return false
		}
	}
	return true
}

func parseTimeMaybe(s string) (time.Time, bool) {
	layouts := []string{
		time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
		"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, strings.TrimSpace(s)); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Markdown renders a compact report suitable for terminals or standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n", len(r.Cols)))
	b.WriteString(fmt.Sprintf("Duplicate rows: %d\n\n", r.Duplicates))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s/%s (non-null %d, missing %.1f%%)", safeName(c.Name), c.Kind, c.DType, c.NonNull, missPct))
		switch c.Kind {
		case "numeric":
			b.WriteString(fmt.Sprintf("; min %.4g, max %.4g, mean %.4g", float64(c.Min), float64(c.Max), float64(c.Mean)))
			if !c.Std.IsNaN() && c.Std != 0 {
				b.WriteString(fmt.Sprintf(", std %.4g", float64(c.Std)))
			}
			if c.OutlierThreshold > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f", c.OutliersCount, c.OutlierThreshold))
				if c.OutliersMaxAbsZ > 0 {
					b.WriteString(fmt.Sprintf(" (max |z|≈%.2f)", c.OutliersMaxAbsZ))
				}
			}
		case "categorical", "boolean":
			if len(c.TopValues) > 0 {
				b.WriteString("; top: ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
				}
				if c.Unique > len(c.TopValues) {
					b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
				}
			}
		case "text", "datetime":
			if len(c.ExampleTexts) > 0 {
				b.WriteString("; e.g., ")
				for i, ex := range c.ExampleTexts {
					if i > 0 {
						b.WriteString(" | ")
					}
					b.WriteString(safeVal(ex))
				}
			}
		}
		b.WriteString("\n")
	}
	if r.Corr != nil && len(r.Corr.Columns) >= 2 {
		b.WriteString("\n[CORRELATIONS]\n")
		// list top pairs by |r|
		type pr struct {
			A, B string
			R    float64
		}
		var pairs []pr
		n := len(r.Corr.Columns)
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				v := float64(r.Corr.Values[i][j])
				if math.IsNaN(v) {
					continue
				}
				pairs = append(pairs, pr{A: r.Corr.Columns[i], B: r.Corr.Columns[j], R: v})
			}
		}
		sort.Slice(pairs, func(i, j int) bool {
			ai := math.Abs(pairs[i].R)
			aj := math.Abs(pairs[j].R)
			if ai == aj {
				return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
			}
			return ai > aj
		})
		maxp := 10
		if len(pairs) < maxp {
			maxp = len(pairs)
		}
		for i := 0; i < maxp; i++ {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", pairs[i].A, pairs[i].B, pairs[i].R))
		}
	}
	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		b.WriteString("| ")
		for i, c := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c.Name))
		}
		b.WriteString(" |\n")
		b.WriteString("| ")
		for i := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for _, row := range r.Samples {
			b.WriteString("| ")
			for i := range r.Cols {
				if i > 0 {
					b.WriteString(" | ")
				}
				val := ""
				if i < len(row) {
					val = row[i]
				}
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}
func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
