package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/dqboard/internal/analysis"
	"github.com/KaramelBytes/dqboard/internal/charts"
	"github.com/KaramelBytes/dqboard/internal/dataset"
	"github.com/KaramelBytes/dqboard/internal/parser"
	"github.com/KaramelBytes/dqboard/internal/utils"
)

var (
	anaOutputPath string
	anaDelimiter  string
	anaSampleRows int
	anaMaxRows    int
	anaCorr       bool
	anaSheet      string
	anaOutliers   bool
	anaOutlierThr float64
	anaJSON       bool
	anaPlotsDir   string
	anaQuiet      bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <files...>",
	Short: "Profile CSV/TSV/XLSX files and print a Markdown or JSON summary",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandInputs(args)
		if err != nil {
			return err
		}
		popt, err := parseOptions(anaDelimiter, anaSheet, anaMaxRows)
		if err != nil {
			return err
		}

		opt := analysis.DefaultOptions()
		if anaSampleRows > 0 {
			opt.SampleRows = anaSampleRows
		}
		opt.Correlations = anaCorr
		if cmd.Flags().Changed("outliers") {
			opt.Outliers = anaOutliers
		}
		if anaOutlierThr > 0 {
			opt.OutlierThreshold = anaOutlierThr
		}

		logger := newLogger()
		var out bytes.Buffer
		var reports []*analysis.Report
		total := len(files)
		for i, path := range files {
			if total > 1 && !anaQuiet {
				fmt.Fprintf(cmd.ErrOrStderr(), "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			d, err := parser.ParseFile(path, popt)
			if err != nil {
				return err
			}
			logger.Debug("dataset loaded",
				"file", path,
				"rows", d.Len(),
				"columns", d.Width())
			rep := analysis.Profile(d, opt)
			if anaJSON {
				reports = append(reports, rep)
			} else {
				if i > 0 {
					out.WriteString("\n")
				}
				out.WriteString(rep.Markdown())
			}
			if anaPlotsDir != "" {
				n, err := writePlots(anaPlotsDir, d)
				if err != nil {
					return err
				}
				if !anaQuiet {
					fmt.Fprintf(cmd.ErrOrStderr(), "✓ Wrote %d plots for %s to %s\n", n, filepath.Base(path), anaPlotsDir)
				}
			}
		}
		if anaJSON {
			var v any = reports
			if len(reports) == 1 {
				v = reports[0]
			}
			b, err := utils.PrettyJSON(v)
			if err != nil {
				return err
			}
			out.Write(b)
			out.WriteString("\n")
		}

		if anaOutputPath != "" {
			if err := utils.SafeWriteFile(anaOutputPath, out.Bytes()); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			if !anaQuiet {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote analysis to %s\n", anaOutputPath)
			}
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), out.String())
		return nil
	},
}

// expandInputs resolves globs, keeps literal paths that exist and drops
// duplicates. The result is sorted.
func expandInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}

func parseOptions(delimiter, sheet string, maxRows int) (parser.Options, error) {
	opt := parser.Options{Sheet: sheet, MaxRows: maxRows}
	if maxRows == 0 {
		opt.MaxRows = currentConfig().MaxRows
	}
	switch delimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case "\t", "tab":
		opt.Delimiter = '\t'
	case ";":
		opt.Delimiter = ';'
	case "|", "pipe":
		opt.Delimiter = '|'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", delimiter)
	}
	return opt, nil
}

// writePlots renders a histogram for every column and a box plot for every
// numeric one. Columns with nothing to plot are skipped.
func writePlots(dir string, d *dataset.Dataset) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create plots dir: %w", err)
	}
	base := strings.TrimSuffix(filepath.Base(d.Name()), filepath.Ext(d.Name()))
	n := 0
	for _, name := range d.Names() {
		h, b, err := analysis.Distribution(d, name, currentConfig().HistogramBins)
		if err != nil {
			continue
		}
		stem := filepath.Join(dir, base+"__"+fileSafe(name))
		var buf bytes.Buffer
		if err := charts.Histogram(&buf, h); err != nil {
			return n, fmt.Errorf("plot %s: %w", name, err)
		}
		if err := utils.SafeWriteFile(stem+"_hist.png", buf.Bytes()); err != nil {
			return n, err
		}
		n++
		if b == nil {
			continue
		}
		buf.Reset()
		if err := charts.BoxPlot(&buf, b); err != nil {
			return n, fmt.Errorf("plot %s: %w", name, err)
		}
		if err := utils.SafeWriteFile(stem+"_box.png", buf.Bytes()); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func fileSafe(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('-')
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		out = "column"
	}
	return out
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the analysis")
	analyzeCmd.Flags().StringVar(&anaDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | 'pipe'")
	analyzeCmd.Flags().IntVar(&anaSampleRows, "sample-rows", 5, "number of sample rows to include")
	analyzeCmd.Flags().IntVar(&anaMaxRows, "max-rows", 0, "maximum rows to process (0 = config max_rows)")
	analyzeCmd.Flags().BoolVar(&anaCorr, "correlations", true, "compute Pearson correlations among numeric columns")
	analyzeCmd.Flags().BoolVar(&anaOutliers, "outliers", true, "compute robust outlier counts (MAD)")
	analyzeCmd.Flags().Float64Var(&anaOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
	analyzeCmd.Flags().StringVar(&anaSheet, "sheet", "", "XLSX: sheet name or 1-based index")
	analyzeCmd.Flags().BoolVar(&anaJSON, "json", false, "print the profile as JSON instead of Markdown")
	analyzeCmd.Flags().StringVar(&anaPlotsDir, "plots", "", "directory to write histogram and box plot PNGs")
	analyzeCmd.Flags().BoolVarP(&anaQuiet, "quiet", "q", false, "suppress progress output")
}
