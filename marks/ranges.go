package marks

import (
	"fmt"
	"strings"

	"github.com/RoaringBitmap/roaring"
)

// Range is the half-open mark interval [Begin, End).
type Range struct {
	Begin int
	End   int
}

func (r Range) String() string {
	return fmt.Sprintf("[%d, %d)", r.Begin, r.End)
}

// Ranges are the mark ranges a reader declares it will read.
type Ranges []Range

func (rs Ranges) String() string {
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = r.String()
	}
	return strings.Join(parts, " ")
}

// Bitmap returns the set of marks covered by the ranges.
func (rs Ranges) Bitmap() *roaring.Bitmap {
	bm := roaring.New()
	for _, r := range rs {
		if r.End > r.Begin {
			bm.AddRange(uint64(r.Begin), uint64(r.End))
		}
	}
	return bm
}

// Validate checks that every range is well formed and within markCount.
// Empty ranges are allowed.
func (rs Ranges) Validate(markCount int) error {
	for _, r := range rs {
		if r.Begin < 0 || r.End < r.Begin || r.End > markCount {
			return fmt.Errorf("invalid mark range %s for %d marks", r, markCount)
		}
	}
	return nil
}
