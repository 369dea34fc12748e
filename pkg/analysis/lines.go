package analysis

import "sort"

// LineIndex maps byte offsets to 1-based line and column numbers. Columns
// count bytes.
type LineIndex struct {
	starts []int
}

// NewLineIndex indexes the line starts of source.
func NewLineIndex(source string) *LineIndex {
	starts := []int{0}
	for i := 0; i < len(source); i++ {
		if source[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{starts: starts}
}

// Position returns the line and column of offset.
func (x *LineIndex) Position(offset int) (line, column int) {
	i := sort.SearchInts(x.starts, offset+1) - 1
	return i + 1, offset - x.starts[i] + 1
}
