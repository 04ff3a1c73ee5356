package clean

import "github.com/KaramelBytes/dqboard/internal/dataset"

// duplicateMarks flags every row that repeats an earlier row across all columns.
func duplicateMarks(d *dataset.Dataset) (marks []bool, groups map[string]int) {
	marks = make([]bool, d.Len())
	groups = make(map[string]int, d.Len())
	for i := 0; i < d.Len(); i++ {
		k := d.RowKey(i)
		if groups[k] > 0 {
			marks[i] = true
		}
		groups[k]++
	}
	return marks, groups
}

// DuplicateCount is the number of rows RemoveDuplicates would drop.
func DuplicateCount(d *dataset.Dataset) int {
	marks, _ := duplicateMarks(d)
	n := 0
	for _, m := range marks {
		if m {
			n++
		}
	}
	return n
}

// DuplicateRows returns the indices of every row that has a twin, first
// occurrences included, in row order.
func DuplicateRows(d *dataset.Dataset) []int {
	_, groups := duplicateMarks(d)
	var out []int
	for i := 0; i < d.Len(); i++ {
		if groups[d.RowKey(i)] > 1 {
			out = append(out, i)
		}
	}
	return out
}

// RemoveDuplicates keeps the first occurrence of each distinct row and
// preserves the relative order of the kept rows.
func RemoveDuplicates(d *dataset.Dataset) *dataset.Dataset {
	marks, _ := duplicateMarks(d)
	keep := make([]int, 0, d.Len())
	for i, dup := range marks {
		if !dup {
			keep = append(keep, i)
		}
	}
	if len(keep) == d.Len() {
		return d
	}
	return d.SelectRows(keep)
}
