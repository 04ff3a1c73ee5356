package cmd

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/dqboard/internal/clean"
	"github.com/KaramelBytes/dqboard/internal/dataset"
	"github.com/KaramelBytes/dqboard/internal/parser"
	"github.com/KaramelBytes/dqboard/internal/server"
	"github.com/KaramelBytes/dqboard/internal/utils"
)

var (
	clOutput    string
	clDelimiter string
	clSheet     string
	clMaxRows   int
	clMissing   []string
	clDedupe    bool
	clOutliers  []string
	clIQRK      float64
	clConvert   []string
	clRename    []string
	clBOM       bool
	clQuiet     bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean <file>",
	Short: "Apply cleaning steps to a dataset and write the result as CSV",
	Long: `Apply cleaning steps to a dataset and write the result as CSV.

Steps always run in this order: --convert, --rename, --missing, --dedupe,
--outliers. Each step sees the output of the previous one; the first
failing step aborts without writing anything.`,
	Example: `  dqboard clean sales.xlsx --convert price=numeric --missing median:price --dedupe
  dqboard clean raw.csv --rename "Cust ID=customer_id" --outliers clip:amount -o clean.csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		popt, err := parseOptions(clDelimiter, clSheet, clMaxRows)
		if err != nil {
			return err
		}
		steps, err := cleanSteps()
		if err != nil {
			return err
		}
		d, err := parser.ParseFile(path, popt)
		if err != nil {
			return err
		}
		logw := cmd.ErrOrStderr()
		if clQuiet {
			logw = io.Discard
		}
		fmt.Fprintf(logw, "Loaded %s: %d rows × %d columns\n", filepath.Base(path), d.Len(), d.Width())
		for _, st := range steps {
			next, err := st.run(d)
			if err != nil {
				return fmt.Errorf("%s: %w", st.name, err)
			}
			fmt.Fprintf(logw, "✓ %s: %d → %d rows\n", st.name, d.Len(), next.Len())
			d = next
		}

		out := clOutput
		if out == "" {
			out = filepath.Join(filepath.Dir(path), server.CleanedName(path))
		}
		bom := currentConfig().CSVBOM
		if cmd.Flags().Changed("bom") {
			bom = clBOM
		}
		var buf bytes.Buffer
		if err := dataset.WriteCSV(&buf, d, dataset.WriteOptions{BOM: bom}); err != nil {
			return err
		}
		if err := utils.SafeWriteFile(out, buf.Bytes()); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(logw, "✓ Wrote %s\n", out)
		return nil
	},
}

type cleanStep struct {
	name string
	run  func(*dataset.Dataset) (*dataset.Dataset, error)
}

// cleanSteps validates every flag up front and returns the steps in their
// fixed order.
func cleanSteps() ([]cleanStep, error) {
	var steps []cleanStep
	for _, arg := range clConvert {
		col, typ, ok := cutLast(arg, "=")
		if !ok || col == "" {
			return nil, fmt.Errorf("invalid --convert %q (want column=numeric|str)", arg)
		}
		target, err := clean.ParseTargetType(typ)
		if err != nil {
			return nil, err
		}
		steps = append(steps, cleanStep{
			name: fmt.Sprintf("convert %s to %s", col, target),
			run: func(d *dataset.Dataset) (*dataset.Dataset, error) {
				return clean.ConvertColumnType(d, col, target)
			},
		})
	}
	if len(clRename) > 0 {
		mapping := make(map[string]string, len(clRename))
		for _, arg := range clRename {
			from, to, ok := strings.Cut(arg, "=")
			if !ok || from == "" {
				return nil, fmt.Errorf("invalid --rename %q (want old=new)", arg)
			}
			mapping[from] = to
		}
		steps = append(steps, cleanStep{
			name: "rename columns",
			run: func(d *dataset.Dataset) (*dataset.Dataset, error) {
				return clean.RenameColumns(d, mapping)
			},
		})
	}
	for _, arg := range clMissing {
		m, col, _ := strings.Cut(arg, ":")
		method, err := clean.ParseMissingMethod(m)
		if err != nil {
			return nil, err
		}
		name := fmt.Sprintf("missing values (%s)", method)
		if col != "" {
			name = fmt.Sprintf("missing values in %s (%s)", col, method)
		}
		steps = append(steps, cleanStep{
			name: name,
			run: func(d *dataset.Dataset) (*dataset.Dataset, error) {
				return clean.HandleMissing(d, method, col)
			},
		})
	}
	if clDedupe {
		steps = append(steps, cleanStep{
			name: "remove duplicates",
			run: func(d *dataset.Dataset) (*dataset.Dataset, error) {
				return clean.RemoveDuplicates(d), nil
			},
		})
	}
	for _, arg := range clOutliers {
		m, col, ok := strings.Cut(arg, ":")
		if !ok || col == "" {
			return nil, fmt.Errorf("invalid --outliers %q (want clip:column or drop:column)", arg)
		}
		method, err := clean.ParseOutlierMethod(m)
		if err != nil {
			return nil, err
		}
		k := clIQRK
		if k <= 0 {
			k = currentConfig().OutlierIQRK
		}
		steps = append(steps, cleanStep{
			name: fmt.Sprintf("%s outliers in %s", method, col),
			run: func(d *dataset.Dataset) (*dataset.Dataset, error) {
				b, err := clean.OutlierBoundsK(d, col, k)
				if err != nil {
					return nil, err
				}
				return clean.HandleOutliers(d, col, b.Lower, b.Upper, method)
			},
		})
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("no cleaning steps given (use --convert, --rename, --missing, --dedupe or --outliers)")
	}
	return steps, nil
}

func cutLast(s, sep string) (before, after string, found bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+len(sep):], true
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().StringVarP(&clOutput, "output", "o", "", "output CSV path (default <name>_cleaned.csv next to the input)")
	cleanCmd.Flags().StringVar(&clDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | 'pipe'")
	cleanCmd.Flags().StringVar(&clSheet, "sheet", "", "XLSX: sheet name or 1-based index")
	cleanCmd.Flags().IntVar(&clMaxRows, "max-rows", 0, "maximum rows to read (0 = config max_rows)")
	cleanCmd.Flags().StringArrayVar(&clConvert, "convert", nil, "column=numeric|str (repeatable)")
	cleanCmd.Flags().StringArrayVar(&clRename, "rename", nil, "old=new column rename (repeatable)")
	cleanCmd.Flags().StringArrayVar(&clMissing, "missing", nil, "mean|median|mode|drop[:column] (repeatable)")
	cleanCmd.Flags().BoolVar(&clDedupe, "dedupe", false, "remove duplicate rows, keeping the first")
	cleanCmd.Flags().StringArrayVar(&clOutliers, "outliers", nil, "clip|drop:column using the IQR fence (repeatable)")
	cleanCmd.Flags().Float64Var(&clIQRK, "iqr-k", 0, "IQR fence multiplier (0 = config outlier_iqr_k)")
	cleanCmd.Flags().BoolVar(&clBOM, "bom", false, "prefix the CSV with a UTF-8 BOM (overrides config csv_bom)")
	cleanCmd.Flags().BoolVarP(&clQuiet, "quiet", "q", false, "suppress progress output")
}
