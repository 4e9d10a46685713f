package homog

import "github.com/cwbudde/regionquadtree/internal/grid"

// IsHomogeneousVectorized runs the tiered compare kernel over v.
//
// A contiguous view is one run of width*height bytes. A strided view is
// compared row by row (run length = width) and stops at the first row that
// differs. The broadcast fill buffer is built once and shared by all rows.
func IsHomogeneousVectorized(v grid.View) bool {
	return vectorized(v, activeWidths)
}

// vectorized is IsHomogeneousVectorized with an explicit width list so tests
// can exercise every backend regardless of the host CPU.
func vectorized(v grid.View, widths []int) bool {
	bc := newBroadcast(v.FirstValue())

	if v.IsContiguous() {
		return allEqual(v.Span(), bc, widths)
	}

	for r := 0; r < v.Height(); r++ {
		if !allEqual(v.Row(r), bc, widths) {
			return false
		}
	}
	return true
}
