package dataset

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Kind identifies what a single cell holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindNumber
	KindBool
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindText:
		return "text"
	default:
		return "null"
	}
}

// Value is one immutable cell of a dataset.
type Value struct {
	kind Kind
	num  float64 // number payload; 1/0 for bools
	text string
}

// Null returns the missing-value cell.
func Null() Value { return Value{} }

// Number wraps a float. NaN is kept as a number but reports IsNull.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// TextCell wraps a string.
func TextCell(s string) Value { return Value{kind: KindText, text: s} }

// BoolCell wraps a boolean.
func BoolCell(b bool) Value {
	v := Value{kind: KindBool}
	if b {
		v.num = 1
	}
	return v
}

func (v Value) Kind() Kind { return v.kind }

// IsNull reports a missing cell: an explicit null or a NaN number.
func (v Value) IsNull() bool {
	return v.kind == KindNull || (v.kind == KindNumber && math.IsNaN(v.num))
}

// Float returns the numeric payload of a number cell.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Str returns the payload of a text cell.
func (v Value) Str() (string, bool) {
	if v.kind != KindText {
		return "", false
	}
	return v.text, true
}

// BoolValue returns the payload of a bool cell.
func (v Value) BoolValue() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.num != 0, true
}

// String renders the cell for display and export: nulls as "nan",
// bools as True/False, whole floats with a trailing ".0".
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return FormatFloat(v.num)
	case KindBool:
		if v.num != 0 {
			return "True"
		}
		return "False"
	case KindText:
		return v.text
	default:
		return "nan"
	}
}

// Equal compares two cells; nulls are equal to each other.
func (v Value) Equal(o Value) bool {
	if v.IsNull() || o.IsNull() {
		return v.IsNull() && o.IsNull()
	}
	if v.kind != o.kind {
		return false
	}
	if v.kind == KindText {
		return v.text == o.text
	}
	return v.num == o.num
}

// Compare orders cells: numbers, then bools, then text, then nulls.
func (v Value) Compare(o Value) int {
	rv, ro := v.rank(), o.rank()
	if rv != ro {
		if rv < ro {
			return -1
		}
		return 1
	}
	switch v.kind {
	case KindText:
		return strings.Compare(v.text, o.text)
	case KindNumber, KindBool:
		if v.IsNull() {
			return 0
		}
		switch {
		case v.num < o.num:
			return -1
		case v.num > o.num:
			return 1
		}
	}
	return 0
}

func (v Value) rank() int {
	if v.IsNull() {
		return 3
	}
	switch v.kind {
	case KindNumber:
		return 0
	case KindBool:
		return 1
	default:
		return 2
	}
}

// Key is a stable identity for hashing rows and counting values; all nulls share one key.
func (v Value) Key() string {
	if v.IsNull() {
		return "\x00"
	}
	switch v.kind {
	case KindNumber:
		f := v.num
		if f == 0 {
			f = 0 // -0 and 0 share a key
		}
		return "n" + strconv.FormatFloat(f, 'g', -1, 64)
	case KindBool:
		if v.num != 0 {
			return "b1"
		}
		return "b0"
	default:
		return "t" + v.text
	}
}

// MarshalJSON encodes null/number/bool/string; non-finite numbers become null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return []byte("null"), nil
		}
		return []byte(strconv.FormatFloat(v.num, 'g', -1, 64)), nil
	case KindBool:
		return json.Marshal(v.num != 0)
	case KindText:
		return json.Marshal(v.text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts the same shapes MarshalJSON produces.
func (v *Value) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case nil:
		*v = Null()
	case float64:
		*v = Number(x)
	case bool:
		*v = BoolCell(x)
	case string:
		*v = TextCell(x)
	default:
		*v = TextCell(string(b))
	}
	return nil
}

// FormatFloat prints a float for display: "3.0", "2.5", "1e+20", "nan".
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	abs := math.Abs(f)
	if abs >= 1e16 || (abs != 0 && abs < 1e-4) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// formatInt prints a whole number without a decimal part.
func formatInt(f float64) string {
	return strconv.FormatFloat(f, 'f', 0, 64)
}
