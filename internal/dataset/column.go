package dataset

import "math"

// DType is the declared type of a column.
type DType uint8

const (
	Float DType = iota
	Int
	Bool
	Text
	Mixed
)

// String returns the dtype label shown to users. Text and Mixed columns are
// both "object".
func (d DType) String() string {
	switch d {
	case Int:
		return "int64"
	case Float:
		return "float64"
	case Bool:
		return "bool"
	default:
		return "object"
	}
}

// Describe is String with mixed object columns called out.
func (d DType) Describe() string {
	if d == Mixed {
		return "object (mixed)"
	}
	return d.String()
}

// IsNumeric reports int64 and float64 columns.
func (d DType) IsNumeric() bool { return d == Int || d == Float }

// InferDType picks the narrowest dtype that holds every cell.
// All-null columns are float64; integral numbers without nulls are int64.
func InferDType(values []Value) DType {
	var nums, bools, texts, nulls int
	integral := true
	for _, v := range values {
		if v.IsNull() {
			nulls++
			continue
		}
		switch v.kind {
		case KindNumber:
			nums++
			if v.num != math.Trunc(v.num) || math.IsInf(v.num, 0) {
				integral = false
			}
		case KindBool:
			bools++
		case KindText:
			texts++
		}
	}
	switch {
	case nums == 0 && bools == 0 && texts == 0:
		return Float
	case bools == 0 && texts == 0:
		if integral && nulls == 0 {
			return Int
		}
		return Float
	case nums == 0 && texts == 0 && nulls == 0:
		return Bool
	case nums == 0 && bools == 0:
		return Text
	default:
		return Mixed
	}
}

// Column is a named, typed, read-only sequence of cells.
type Column struct {
	name   string
	dtype  DType
	values []Value
}

// NewColumn builds a column and infers its dtype. The slice is owned by the column.
func NewColumn(name string, values []Value) *Column {
	return &Column{name: name, dtype: InferDType(values), values: values}
}

// NewTypedColumn builds a column with an explicit dtype.
func NewTypedColumn(name string, dtype DType, values []Value) *Column {
	return &Column{name: name, dtype: dtype, values: values}
}

// Floats builds a numeric column from plain floats; NaN entries become nulls.
func Floats(name string, xs ...float64) *Column {
	vals := make([]Value, len(xs))
	for i, x := range xs {
		if math.IsNaN(x) {
			vals[i] = Null()
			continue
		}
		vals[i] = Number(x)
	}
	return NewColumn(name, vals)
}

// Strings builds a text column; empty strings become nulls.
func Strings(name string, xs ...string) *Column {
	vals := make([]Value, len(xs))
	for i, x := range xs {
		if x == "" {
			vals[i] = Null()
			continue
		}
		vals[i] = TextCell(x)
	}
	return NewColumn(name, vals)
}

func (c *Column) Name() string { return c.name }

func (c *Column) DType() DType { return c.dtype }

func (c *Column) Len() int { return len(c.values) }

func (c *Column) Value(i int) Value { return c.values[i] }

// IsNumeric reports whether the column's dtype is int64 or float64.
func (c *Column) IsNumeric() bool { return c.dtype.IsNumeric() }

// Values returns a copy of the cells.
func (c *Column) Values() []Value {
	out := make([]Value, len(c.values))
	copy(out, c.values)
	return out
}

// NullCount counts missing cells.
func (c *Column) NullCount() int {
	n := 0
	for _, v := range c.values {
		if v.IsNull() {
			n++
		}
	}
	return n
}

// NumericValues returns the non-null numbers in row order.
func (c *Column) NumericValues() []float64 {
	out := make([]float64, 0, len(c.values))
	for _, v := range c.values {
		if v.kind == KindNumber && !v.IsNull() {
			out = append(out, v.num)
		}
	}
	return out
}

// Cell renders a cell for CSV output: empty for nulls, no ".0" on int64 columns.
func (c *Column) Cell(i int) string {
	v := c.values[i]
	if v.IsNull() {
		return ""
	}
	if c.dtype == Int && v.kind == KindNumber {
		return formatInt(v.num)
	}
	return v.String()
}

// Rename returns a copy of the column under a new name sharing the same cells.
func (c *Column) Rename(name string) *Column {
	return &Column{name: name, dtype: c.dtype, values: c.values}
}

func (c *Column) pick(rows []int) *Column {
	vals := make([]Value, len(rows))
	for i, r := range rows {
		vals[i] = c.values[r]
	}
	return &Column{name: c.name, dtype: c.dtype, values: vals}
}
