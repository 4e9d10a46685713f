package homog

import (
	"log/slog"

	"golang.org/x/sys/cpu"
)

// VectorBackend indicates which lane width the vectorized compare sweeps
// with. The compare itself is portable wide-integer code; the backend only
// decides how many bytes are checked per step, matching the widest SIMD
// registers the CPU offers.
type VectorBackend int

const (
	VectorBackendWord VectorBackend = iota // 8-byte words only
	VectorBackendSSE2                      // x86-64, 128-bit
	VectorBackendAVX2                      // x86-64, 256-bit
	VectorBackendNEON                      // ARM64, 128-bit
)

func (b VectorBackend) String() string {
	switch b {
	case VectorBackendAVX2:
		return "AVX2"
	case VectorBackendSSE2:
		return "SSE2"
	case VectorBackendNEON:
		return "NEON"
	case VectorBackendWord:
		return "word"
	default:
		return "unknown"
	}
}

// Widths returns the vector widths to try, widest first. An empty result
// means only the word tiers are used.
func (b VectorBackend) Widths() []int {
	switch b {
	case VectorBackendAVX2:
		return []int{32, 16}
	case VectorBackendSSE2, VectorBackendNEON:
		return []int{16}
	default:
		return nil
	}
}

// ActiveVectorBackend reports which backend was selected at init.
var ActiveVectorBackend VectorBackend

// activeWidths caches ActiveVectorBackend.Widths().
var activeWidths []int

func init() {
	switch {
	case cpu.X86.HasAVX2:
		ActiveVectorBackend = VectorBackendAVX2
	case cpu.X86.HasSSE2:
		ActiveVectorBackend = VectorBackendSSE2
	case cpu.ARM64.HasASIMD:
		ActiveVectorBackend = VectorBackendNEON
	default:
		ActiveVectorBackend = VectorBackendWord
	}
	activeWidths = ActiveVectorBackend.Widths()
	slog.Debug("Homogeneity kernel initialized", "backend", ActiveVectorBackend.String(), "widths", activeWidths)
}
