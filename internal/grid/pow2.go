package grid

import "math/bits"

// CeilToNextPowerOfTwo rounds n up to the nearest power of two. Values below
// 2 round to 1.
func CeilToNextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
