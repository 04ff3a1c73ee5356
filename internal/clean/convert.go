package clean

import (
	"strconv"
	"strings"

	"github.com/KaramelBytes/dqboard/internal/dataset"
)

// TargetType is the dtype a column can be converted to.
type TargetType string

const (
	Numeric TargetType = "numeric"
	String  TargetType = "str"
)

// ParseTargetType accepts "numeric", "str" or "text".
func ParseTargetType(s string) (TargetType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "numeric", "number", "float":
		return Numeric, nil
	case "str", "string", "text":
		return String, nil
	}
	return "", dataset.Invalid("convert column", "invalid target type %q (use numeric or str)", s)
}

// ConvertColumnType rewrites one column. Numeric runs every cell through
// Coerce and always yields a float64 column; cells that fail to parse become
// null. String renders every cell, nulls included, as text.
func ConvertColumnType(d *dataset.Dataset, column string, target TargetType) (*dataset.Dataset, error) {
	c, err := d.Column(column)
	if err != nil {
		return d, err
	}
	vals := c.Values()
	var dt dataset.DType
	switch target {
	case Numeric:
		for i, v := range vals {
			vals[i] = CoerceValue(v)
		}
		dt = dataset.Float
	case String:
		for i, v := range vals {
			vals[i] = dataset.TextCell(cellText(c.DType(), v))
		}
		dt = dataset.Text
	default:
		return d, dataset.Invalid("convert column", "invalid target type %q (use numeric or str)", target)
	}
	next, err := d.WithColumn(dataset.NewTypedColumn(column, dt, vals))
	if err != nil {
		return d, err
	}
	return next, nil
}

// cellText stringifies a cell for a text column; int64 columns print
// without a decimal part.
func cellText(dt dataset.DType, v dataset.Value) string {
	if f, ok := v.Float(); ok && dt == dataset.Int && isWhole(f) {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return v.String()
}
