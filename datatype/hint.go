package datatype

import "github.com/INLOpen/mergetree/column"

const (
	// Below this many rows a read says too little about value sizes.
	minRowsForHint   = 10
	maxValueSizeHint = 1024
)

// UpdateAvgValueSizeHint folds the observed bytes per row of col into hint.
// The hint rises immediately when values get bigger and decays slowly when
// they get much smaller.
func UpdateAvgValueSizeHint(col column.Column, hint *float64) {
	rows := col.Len()
	if rows <= minRowsForHint {
		return
	}
	current := float64(col.ByteSize()) / float64(rows)
	if current > *hint {
		*hint = min(maxValueSizeHint, current)
	} else if current*2 < *hint {
		*hint = (current + *hint*3) / 4
	}
}
