package mergetree

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/INLOpen/mergetree/marks"
)

// Four blocks at 0, 100, 250 and 400. Marks 2 and 5 start mid-block.
var testMarks = marks.Marks{
	{OffsetInCompressedFile: 0, OffsetInDecompressedBlock: 0},
	{OffsetInCompressedFile: 100, OffsetInDecompressedBlock: 0},
	{OffsetInCompressedFile: 100, OffsetInDecompressedBlock: 64},
	{OffsetInCompressedFile: 250, OffsetInDecompressedBlock: 0},
	{OffsetInCompressedFile: 400, OffsetInDecompressedBlock: 0},
	{OffsetInCompressedFile: 400, OffsetInDecompressedBlock: 32},
	{OffsetInCompressedFile: 400, OffsetInDecompressedBlock: 96},
}

func TestMaxMarkRange(t *testing.T) {
	testCases := []struct {
		name   string
		ranges marks.Ranges
		want   int
	}{
		{"block aligned end", marks.Ranges{{Begin: 0, End: 1}}, 100},
		{"end inside a block extends to the next", marks.Ranges{{Begin: 0, End: 2}}, 250},
		{"largest range wins", marks.Ranges{{Begin: 0, End: 1}, {Begin: 1, End: 3}}, 150},
		{"end in the last block", marks.Ranges{{Begin: 3, End: 5}}, 1 << 20},
		{"end of file", marks.Ranges{{Begin: 0, End: len(testMarks)}}, 1 << 20},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, maxMarkRange(testMarks, tc.ranges, 1<<20))
		})
	}

	assert.Equal(t, 120, maxMarkRange(testMarks, marks.Ranges{{Begin: 0, End: 2}}, 120))
}

func TestEstimatedReadSize(t *testing.T) {
	assert.Equal(t, int64(100), estimatedReadSize(testMarks, marks.Ranges{{Begin: 0, End: 1}}, 500))
	assert.Equal(t, int64(400), estimatedReadSize(testMarks, marks.Ranges{{Begin: 0, End: 1}, {Begin: 2, End: 4}}, 500))
	assert.Equal(t, int64(400), estimatedReadSize(testMarks, marks.Ranges{{Begin: 1, End: len(testMarks)}}, 500))
	assert.Zero(t, estimatedReadSize(testMarks, marks.Ranges{{Begin: 5, End: 6}}, 500))
}
