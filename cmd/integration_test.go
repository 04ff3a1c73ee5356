package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// resetFlags restores bound variables and clears Changed state that cobra
// keeps between Execute calls in one test binary.
func resetFlags() {
	anaOutputPath, anaDelimiter, anaSheet, anaPlotsDir = "", "", "", ""
	anaSampleRows, anaMaxRows = 5, 0
	anaCorr, anaOutliers, anaJSON, anaQuiet = true, true, false, false
	anaOutlierThr = 3.5

	clOutput, clDelimiter, clSheet = "", "", ""
	clMaxRows, clIQRK = 0, 0
	clMissing, clOutliers, clConvert, clRename = nil, nil, nil, nil
	clDedupe, clBOM, clQuiet = false, false, false

	for _, c := range []*cobra.Command{analyzeCmd, cleanCmd} {
		for _, name := range []string{"outliers", "bom", "output", "json", "plots", "quiet"} {
			if fl := c.Flags().Lookup(name); fl != nil {
				fl.Changed = false
			}
		}
	}
}

// runCmd is a helper to execute the root command with args and capture stdout.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	resetFlags()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out.String()
}

func runCmdErr(t *testing.T, args ...string) error {
	t.Helper()
	resetFlags()
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	cfg = nil
	return home
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestCLI_CleanAppliesStepsInOrder(t *testing.T) {
	home := isolateHome(t)
	in := filepath.Join(home, "sales.csv")
	writeFile(t, in, "Price,qty\n$1.50,1\n$1.50,1\n,2\n$3.00,3\n")

	runCmd(t, "clean", in,
		"--convert", "Price=numeric",
		"--rename", "Price=price",
		"--missing", "median:price",
		"--dedupe")

	body, err := os.ReadFile(filepath.Join(home, "sales_cleaned.csv"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	want := "price,qty\n1.5,1\n1.5,2\n3.0,3\n"
	if string(body) != want {
		t.Fatalf("output = %q, want %q", body, want)
	}
}

func TestCLI_CleanFailingStepWritesNothing(t *testing.T) {
	home := isolateHome(t)
	in := filepath.Join(home, "a.csv")
	out := filepath.Join(home, "out.csv")
	writeFile(t, in, "a,b\n1,x\n")

	if err := runCmdErr(t, "clean", in, "-o", out, "--rename", "a=b"); err == nil {
		t.Fatalf("expected rename clash to fail")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("output should not exist, stat err = %v", err)
	}
	if err := runCmdErr(t, "clean", in, "-o", out); err == nil {
		t.Fatalf("expected error without steps")
	}
	if err := runCmdErr(t, "clean", in, "-o", out, "--outliers", "trim:a"); err == nil {
		t.Fatalf("expected invalid outlier method to fail")
	}
}

func TestCLI_CleanOutliersAndBOM(t *testing.T) {
	home := isolateHome(t)
	in := filepath.Join(home, "v.csv")
	out := filepath.Join(home, "v_out.csv")
	writeFile(t, in, "v\n1\n2\n3\n4\n5\n6\n7\n8\n100\n")

	runCmd(t, "clean", in, "-o", out, "--outliers", "drop:v", "--bom")
	body, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.HasPrefix(string(body), "\ufeffv\n") {
		t.Fatalf("missing BOM/header: %q", body)
	}
	if strings.Contains(string(body), "100") {
		t.Fatalf("outlier row kept: %q", body)
	}
}

func TestCLI_AnalyzeGlobAndJSON(t *testing.T) {
	home := isolateHome(t)
	for _, sub := range []string{"d1", "d2"} {
		dir := filepath.Join(home, sub)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
		writeFile(t, filepath.Join(dir, "metrics.csv"), "col1,col2\nA,1\nB,2\nC,3\nC,3\n")
	}

	md := runCmd(t, "analyze", filepath.Join(home, "d*", "metrics.csv"), "-q")
	if strings.Count(md, "[DATASET SUMMARY]") != 2 {
		t.Fatalf("expected two summaries, got:\n%s", md)
	}
	if !strings.Contains(md, "1 duplicate rows") {
		t.Fatalf("duplicate note missing:\n%s", md)
	}

	js := runCmd(t, "analyze", filepath.Join(home, "d1", "metrics.csv"), "--json")
	if !strings.Contains(js, `"duplicates": 1`) {
		t.Fatalf("json missing duplicates: %s", js)
	}
}

func TestCLI_AnalyzeWritesPlots(t *testing.T) {
	home := isolateHome(t)
	in := filepath.Join(home, "m.csv")
	writeFile(t, in, "x,label\n1,a\n2,b\n2,a\n3,c\n9,a\n")
	plots := filepath.Join(home, "plots")
	out := filepath.Join(home, "m.md")

	runCmd(t, "analyze", in, "--plots", plots, "-o", out, "-q")
	for _, name := range []string{"m__x_hist.png", "m__x_box.png", "m__label_hist.png"} {
		if _, err := os.Stat(filepath.Join(plots, name)); err != nil {
			t.Fatalf("missing plot %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(plots, "m__label_box.png")); !os.IsNotExist(err) {
		t.Fatalf("text column should have no box plot")
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("missing markdown output: %v", err)
	}
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	home := isolateHome(t)
	runCmd(t, "config", "set", "preview_rows", "12")
	if _, err := os.Stat(filepath.Join(home, ".dqboard", "config.yaml")); err != nil {
		t.Fatalf("config not saved: %v", err)
	}
	out := runCmd(t, "config", "show")
	if !strings.Contains(out, "preview_rows: 12") {
		t.Fatalf("show output missing value:\n%s", out)
	}
	if err := runCmdErr(t, "config", "set", "nope", "1"); err == nil {
		t.Fatalf("expected unknown key error")
	}
}
