package homog

import "github.com/cwbudde/regionquadtree/internal/grid"

// IsHomogeneousNaive scans every cell of v in row-major order.
//
// There is no early exit and no contiguity special case: differences are
// OR-accumulated and checked once at the end. Cells are addressed through
// the view's pitch, so quadrants of a larger buffer are handled correctly.
// This is the correctness reference the other variants are checked against.
func IsHomogeneousNaive(v grid.View) bool {
	first := v.FirstValue()
	var diff byte
	for r := 0; r < v.Height(); r++ {
		for c := 0; c < v.Width(); c++ {
			diff |= v.At(r, c) ^ first
		}
	}
	return diff == 0
}
