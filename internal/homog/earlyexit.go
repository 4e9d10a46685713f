package homog

import "github.com/cwbudde/regionquadtree/internal/grid"

// IsHomogeneousEarlyExit returns at the first cell that differs from the
// top-left one. Contiguous views are scanned as a single linear run,
// strided views one row span at a time.
func IsHomogeneousEarlyExit(v grid.View) bool {
	first := v.FirstValue()

	if v.IsContiguous() {
		s := v.Span()
		for i := 1; i < len(s); i++ {
			if s[i] != first {
				return false
			}
		}
		return true
	}

	for r := 0; r < v.Height(); r++ {
		for _, b := range v.Row(r) {
			if b != first {
				return false
			}
		}
	}
	return true
}
