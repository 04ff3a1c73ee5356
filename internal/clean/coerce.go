// Package clean implements the column transforms behind the dashboard's
// cleaning buttons. Every transform takes a dataset and returns a new one; on
// error the caller keeps the dataset it passed in.
package clean

import (
	"math"
	"strconv"
	"strings"

	"github.com/KaramelBytes/dqboard/internal/dataset"
)

// Coerce turns one cell into a number. ok == false means the result is null.
//
//   - text: keep only digits and periods, keep the first period, parse
//   - number: NaN and ±Inf are null, anything else passes through
//   - null cell: null (a missing cell is NaN in the source table)
//   - anything else, e.g. a bool: 0
func Coerce(v dataset.Value) (float64, bool) {
	switch v.Kind() {
	case dataset.KindText:
		s, _ := v.Str()
		f, err := CoerceText(s)
		if err != nil {
			return 0, false
		}
		return f, true
	case dataset.KindNumber:
		f, _ := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	case dataset.KindNull:
		return 0, false
	default:
		return 0, true
	}
}

// CoerceText scrubs a string down to digits and one period and parses it.
// "12a.3.4b" becomes "12.34".
func CoerceText(s string) (float64, error) {
	var b strings.Builder
	b.Grow(len(s))
	seenDot := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.':
			if !seenDot {
				b.WriteRune(r)
				seenDot = true
			}
		}
	}
	scrubbed := b.String()
	if scrubbed == "" {
		return 0, &dataset.ParseError{Input: s}
	}
	f, err := strconv.ParseFloat(scrubbed, 64)
	if err != nil {
		return 0, &dataset.ParseError{Input: s, Err: err}
	}
	return f, nil
}

// CoerceValue is Coerce expressed as a cell.
func CoerceValue(v dataset.Value) dataset.Value {
	f, ok := Coerce(v)
	if !ok {
		return dataset.Null()
	}
	return dataset.Number(f)
}
