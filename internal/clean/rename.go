package clean

import (
	"sort"
	"strings"

	"github.com/KaramelBytes/dqboard/internal/dataset"
)

// RenameColumns applies an old→new mapping in one step. Unknown source
// columns, blank targets and mappings that would leave two columns with the
// same name all fail without touching the dataset.
func RenameColumns(d *dataset.Dataset, mapping map[string]string) (*dataset.Dataset, error) {
	if len(mapping) == 0 {
		return d, nil
	}
	olds := make([]string, 0, len(mapping))
	for old := range mapping {
		olds = append(olds, old)
	}
	sort.Strings(olds)
	for _, old := range olds {
		if !d.Has(old) {
			return d, &dataset.ColumnNotFoundError{Column: old}
		}
		if strings.TrimSpace(mapping[old]) == "" {
			return d, dataset.Invalid("rename columns", "new name for %q is empty", old)
		}
	}

	names := d.Names()
	seen := make(map[string]int, len(names))
	for i, n := range names {
		if to, ok := mapping[n]; ok {
			names[i] = to
		}
		if prev, dup := seen[names[i]]; dup {
			return d, dataset.Invalid("rename columns", "columns %q and %q would both be named %q", d.Names()[prev], d.Names()[i], names[i])
		}
		seen[names[i]] = i
	}
	next, err := d.WithNames(names)
	if err != nil {
		return d, err
	}
	return next, nil
}
