package clean

import (
	"errors"
	"math"
	"testing"

	"github.com/KaramelBytes/dqboard/internal/dataset"
)

var nan = math.NaN()

func mustDataset(t *testing.T, cols ...*dataset.Column) *dataset.Dataset {
	t.Helper()
	d, err := dataset.New("test.csv", cols...)
	if err != nil {
		t.Fatalf("dataset.New: %v", err)
	}
	return d
}

func column(t *testing.T, d *dataset.Dataset, name string) *dataset.Column {
	t.Helper()
	c, err := d.Column(name)
	if err != nil {
		t.Fatalf("column %s: %v", name, err)
	}
	return c
}

func TestCoerceText(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"12a.3.4b", 12.34},
		{"$1,234.50", 1234.5},
		{"42", 42},
		{".5", 0.5},
		{"7.", 7},
	}
	for _, tc := range cases {
		got, err := CoerceText(tc.in)
		if err != nil {
			t.Fatalf("CoerceText(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("CoerceText(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
	for _, bad := range []string{"", "abc", "."} {
		_, err := CoerceText(bad)
		var pe *dataset.ParseError
		if !errors.As(err, &pe) {
			t.Errorf("CoerceText(%q) err = %v, want ParseError", bad, err)
		}
	}
}

func TestCoerceBranches(t *testing.T) {
	if f, ok := Coerce(dataset.BoolCell(true)); !ok || f != 0 {
		t.Fatalf("Coerce(true) = %v,%v want 0,true", f, ok)
	}
	if _, ok := Coerce(dataset.Null()); ok {
		t.Fatalf("null should coerce to null")
	}
	if _, ok := Coerce(dataset.Number(math.Inf(1))); ok {
		t.Fatalf("inf should coerce to null")
	}
	if f, ok := Coerce(dataset.Number(2.5)); !ok || f != 2.5 {
		t.Fatalf("number passthrough = %v,%v", f, ok)
	}
	if v := CoerceValue(dataset.TextCell("n/a")); !v.IsNull() {
		t.Fatalf("unparseable text should become null, got %v", v)
	}
}

func TestHandleMissingMeanNoopWithoutNulls(t *testing.T) {
	d := mustDataset(t, dataset.Floats("x", 1, 2, 3.5))
	out, err := HandleMissing(d, FillMean, "x")
	if err != nil {
		t.Fatalf("HandleMissing: %v", err)
	}
	if out != d {
		t.Fatalf("expected the same dataset back")
	}
}

func TestHandleMissingFills(t *testing.T) {
	d := mustDataset(t,
		dataset.Floats("x", 1, nan, 3, 3),
		dataset.Strings("s", "a", "b", "", "b"),
	)
	mean, err := HandleMissing(d, FillMean, "x")
	if err != nil {
		t.Fatalf("mean: %v", err)
	}
	x := column(t, mean, "x")
	if f, _ := x.Value(1).Float(); math.Abs(f-7.0/3) > 1e-12 {
		t.Fatalf("mean fill = %v", f)
	}
	if x.DType() != dataset.Float {
		t.Fatalf("mean-filled dtype = %s", x.DType())
	}
	if column(t, d, "x").NullCount() != 1 {
		t.Fatalf("input dataset was mutated")
	}

	median, err := HandleMissing(d, FillMedian, "x")
	if err != nil {
		t.Fatalf("median: %v", err)
	}
	if f, _ := column(t, median, "x").Value(1).Float(); f != 3 {
		t.Fatalf("median fill = %v", f)
	}

	mode, err := HandleMissing(d, FillMode, "")
	if err != nil {
		t.Fatalf("mode: %v", err)
	}
	if s, _ := column(t, mode, "s").Value(2).Str(); s != "b" {
		t.Fatalf("mode fill = %q", s)
	}
	if f, _ := column(t, mode, "x").Value(1).Float(); f != 3 {
		t.Fatalf("mode fill x = %v", f)
	}
}

func TestHandleMissingMeanRejectsText(t *testing.T) {
	d := mustDataset(t,
		dataset.Floats("x", 1, nan),
		dataset.Strings("s", "a", ""),
	)
	out, err := HandleMissing(d, FillMean, "")
	if !errors.Is(err, dataset.ErrInvalidInput) {
		t.Fatalf("err = %v, want invalid input", err)
	}
	if out != d || column(t, d, "x").NullCount() != 1 {
		t.Fatalf("dataset must be unchanged on error")
	}
}

func TestHandleMissingDropAndErrors(t *testing.T) {
	d := mustDataset(t,
		dataset.Floats("x", 1, nan, 3),
		dataset.Strings("s", "", "b", "c"),
	)
	one, err := HandleMissing(d, DropRows, "x")
	if err != nil || one.Len() != 2 {
		t.Fatalf("drop x: len=%d err=%v", one.Len(), err)
	}
	all, err := HandleMissing(d, DropRows, "")
	if err != nil || all.Len() != 1 {
		t.Fatalf("drop all: len=%d err=%v", all.Len(), err)
	}
	if _, err := HandleMissing(d, FillMean, "nope"); !errors.Is(err, dataset.ErrNotFound) {
		t.Fatalf("unknown column err = %v", err)
	}
	if _, err := ParseMissingMethod("interpolate"); !errors.Is(err, dataset.ErrInvalidInput) {
		t.Fatalf("bad method err = %v", err)
	}
}

func TestModeTieBreak(t *testing.T) {
	c := dataset.Strings("s", "b", "a", "b", "a", "")
	v, ok := Mode(c)
	if !ok {
		t.Fatalf("no mode")
	}
	if s, _ := v.Str(); s != "a" {
		t.Fatalf("tie should go to first sorted value, got %q", s)
	}
	if _, ok := Mode(dataset.Strings("e", "", "")); ok {
		t.Fatalf("all-null column has no mode")
	}
}

func TestRemoveDuplicatesIdempotent(t *testing.T) {
	d := mustDataset(t,
		dataset.Floats("x", 1, 2, 1, nan, nan, 2),
		dataset.Strings("s", "a", "b", "a", "", "", "c"),
	)
	if n := DuplicateCount(d); n != 2 {
		t.Fatalf("DuplicateCount = %d, want 2", n)
	}
	if rows := DuplicateRows(d); len(rows) != 4 {
		t.Fatalf("DuplicateRows = %v", rows)
	}
	once := RemoveDuplicates(d)
	twice := RemoveDuplicates(once)
	if once.Len() != 4 || twice.Len() != once.Len() {
		t.Fatalf("lens: once=%d twice=%d", once.Len(), twice.Len())
	}
	for i := 0; i < once.Len(); i++ {
		if once.RowKey(i) != twice.RowKey(i) {
			t.Fatalf("row %d differs after second pass", i)
		}
	}
	s := column(t, once, "s")
	if last, _ := s.Value(3).Str(); last != "c" {
		t.Fatalf("order not preserved, last = %q", last)
	}
	if DuplicateCount(once) != 0 {
		t.Fatalf("duplicates remain")
	}
}

func TestRemoveDuplicatesNegativeZero(t *testing.T) {
	d := mustDataset(t, dataset.Floats("x", 0, math.Copysign(0, -1), 1))
	if n := DuplicateCount(d); n != 1 {
		t.Fatalf("DuplicateCount = %d, want 1", n)
	}
	if got := RemoveDuplicates(d).Len(); got != 2 {
		t.Fatalf("rows after dedupe = %d, want 2", got)
	}
}

func TestOutlierBoundsSkipsInfinite(t *testing.T) {
	d := mustDataset(t, dataset.Floats("x", 1, 2, 3, math.Inf(1)))
	b, err := OutlierBounds(d, "x")
	if err != nil {
		t.Fatalf("OutlierBounds: %v", err)
	}
	if b.Q1 != 1.5 || b.Q3 != 2.5 || b.Upper != 4 || b.NonFinite != 1 {
		t.Fatalf("bounds = %+v", b)
	}
	if len(b.Rows) != 1 || b.Rows[0] != 3 {
		t.Fatalf("outlier rows = %v, want the +Inf row", b.Rows)
	}
	inf := mustDataset(t, dataset.Floats("x", math.Inf(1), math.Inf(-1)))
	if _, err := OutlierBounds(inf, "x"); !errors.Is(err, dataset.ErrEmptyResult) {
		t.Fatalf("all-infinite column err = %v", err)
	}
}

func TestOutlierBounds(t *testing.T) {
	d := mustDataset(t, dataset.Floats("x", 1, 2, 3, 4, 5, 6, 7, 8, 100, nan))
	b, err := OutlierBounds(d, "x")
	if err != nil {
		t.Fatalf("OutlierBounds: %v", err)
	}
	if !(b.Lower <= b.Q1 && b.Q1 <= b.Q3 && b.Q3 <= b.Upper) {
		t.Fatalf("bounds out of order: %+v", b)
	}
	if b.Q1 != 3 || b.Q3 != 7 || b.IQR != 4 {
		t.Fatalf("quartiles = %v %v %v", b.Q1, b.Q3, b.IQR)
	}
	if len(b.Rows) != 1 || b.Rows[0] != 8 {
		t.Fatalf("outlier rows = %v", b.Rows)
	}
}

func TestOutlierBoundsErrors(t *testing.T) {
	text := mustDataset(t, dataset.Strings("s", "a", "b"))
	if _, err := OutlierBounds(text, "s"); !errors.Is(err, dataset.ErrInvalidInput) {
		t.Fatalf("no numeric columns err = %v", err)
	}
	mixed := mustDataset(t, dataset.Floats("x", 1, 2), dataset.Strings("s", "a", "b"))
	if _, err := OutlierBounds(mixed, "s"); !errors.Is(err, dataset.ErrInvalidInput) {
		t.Fatalf("non-numeric column err = %v", err)
	}
	if _, err := OutlierBounds(mixed, "missing"); !errors.Is(err, dataset.ErrNotFound) {
		t.Fatalf("unknown column err = %v", err)
	}
	empty := mustDataset(t, dataset.Floats("x", nan, nan))
	if _, err := OutlierBounds(empty, "x"); !errors.Is(err, dataset.ErrEmptyResult) {
		t.Fatalf("all-null column err = %v", err)
	}
}

func TestHandleOutliersClip(t *testing.T) {
	d := mustDataset(t,
		dataset.Floats("x", -50, 2, 3, nan, 100),
		dataset.Strings("s", "a", "b", "c", "d", "e"),
	)
	out, err := HandleOutliers(d, "x", 0, 10, Clip)
	if err != nil {
		t.Fatalf("clip: %v", err)
	}
	if out.Len() != d.Len() {
		t.Fatalf("clip changed row count")
	}
	x := column(t, out, "x")
	for i := 0; i < x.Len(); i++ {
		v := x.Value(i)
		if v.IsNull() {
			continue
		}
		if f, _ := v.Float(); f < 0 || f > 10 {
			t.Fatalf("row %d = %v outside [0,10]", i, f)
		}
	}
	if !x.Value(3).IsNull() {
		t.Fatalf("null should stay null")
	}
}

func TestHandleOutliersClipKeepsIntDType(t *testing.T) {
	d := mustDataset(t, dataset.Floats("n", 1, 5, 50))
	out, err := HandleOutliers(d, "n", 0, 10, Clip)
	if err != nil {
		t.Fatalf("clip: %v", err)
	}
	if dt := column(t, out, "n").DType(); dt != dataset.Int {
		t.Fatalf("dtype = %s, want int64", dt)
	}
	frac, err := HandleOutliers(d, "n", 0, 9.5, Clip)
	if err != nil {
		t.Fatalf("clip: %v", err)
	}
	if dt := column(t, frac, "n").DType(); dt != dataset.Float {
		t.Fatalf("dtype = %s, want float64", dt)
	}
}

func TestHandleOutliersDrop(t *testing.T) {
	d := mustDataset(t, dataset.Floats("x", -50, 2, 3, nan, 100))
	out, err := HandleOutliers(d, "x", 0, 10, Drop)
	if err != nil {
		t.Fatalf("drop: %v", err)
	}
	if out.Len() != 3 {
		t.Fatalf("remaining rows = %d, want 3", out.Len())
	}
	x := column(t, out, "x")
	for i := 0; i < x.Len(); i++ {
		if f, ok := x.Value(i).Float(); ok && !x.Value(i).IsNull() && (f < 0 || f > 10) {
			t.Fatalf("row %d = %v survived the drop", i, f)
		}
	}
	if _, err := HandleOutliers(d, "x", 0, 10, "winsorize"); !errors.Is(err, dataset.ErrInvalidInput) {
		t.Fatalf("bad method err = %v", err)
	}
	if got, err := HandleOutliers(d, "x", 10, 0, Drop); err == nil || got != d {
		t.Fatalf("inverted bounds should fail and keep the dataset")
	}
}

func TestConvertColumnType(t *testing.T) {
	d := mustDataset(t,
		dataset.Strings("price", "$1.50", "abc", "", "3"),
		dataset.Floats("n", 1, 2, 3, 4),
	)
	out, err := ConvertColumnType(d, "price", Numeric)
	if err != nil {
		t.Fatalf("numeric: %v", err)
	}
	p := column(t, out, "price")
	if p.DType() != dataset.Float {
		t.Fatalf("dtype = %s", p.DType())
	}
	if f, _ := p.Value(0).Float(); f != 1.5 {
		t.Fatalf("price[0] = %v", f)
	}
	if !p.Value(1).IsNull() || !p.Value(2).IsNull() {
		t.Fatalf("unparseable and missing cells should be null")
	}

	txt, err := ConvertColumnType(out, "price", String)
	if err != nil {
		t.Fatalf("str: %v", err)
	}
	if s, _ := column(t, txt, "price").Value(2).Str(); s != "nan" {
		t.Fatalf("null as text = %q, want nan", s)
	}
	ints, err := ConvertColumnType(d, "n", String)
	if err != nil {
		t.Fatalf("str: %v", err)
	}
	if s, _ := column(t, ints, "n").Value(0).Str(); s != "1" {
		t.Fatalf("int as text = %q, want 1", s)
	}
	if _, err := ConvertColumnType(d, "zzz", Numeric); !errors.Is(err, dataset.ErrNotFound) {
		t.Fatalf("unknown column err = %v", err)
	}
	if _, err := ParseTargetType("date"); !errors.Is(err, dataset.ErrInvalidInput) {
		t.Fatalf("bad target err = %v", err)
	}
}

func TestRenameColumns(t *testing.T) {
	d := mustDataset(t,
		dataset.Floats("a", 1),
		dataset.Floats("b", 2),
		dataset.Floats("c", 3),
	)
	out, err := RenameColumns(d, map[string]string{"a": "b", "c": "b"})
	if !errors.Is(err, dataset.ErrInvalidInput) {
		t.Fatalf("err = %v, want invalid input", err)
	}
	if out != d {
		t.Fatalf("dataset must be unchanged on error")
	}

	swapped, err := RenameColumns(d, map[string]string{"a": "b", "b": "a"})
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	if got := swapped.Names(); got[0] != "b" || got[1] != "a" || got[2] != "c" {
		t.Fatalf("names = %v", got)
	}
	if _, err := RenameColumns(d, map[string]string{"zz": "y"}); !errors.Is(err, dataset.ErrNotFound) {
		t.Fatalf("unknown column err = %v", err)
	}
	if _, err := RenameColumns(d, map[string]string{"a": " "}); !errors.Is(err, dataset.ErrInvalidInput) {
		t.Fatalf("blank target err = %v", err)
	}
	if d.Names()[0] != "a" {
		t.Fatalf("input dataset was mutated")
	}
}
