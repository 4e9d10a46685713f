package homog

import "encoding/binary"

// Tiered "compare N bytes against a broadcast value" kernel.
//
// The shape follows the classic span-equality routine:
//
//	len < 8            tier 0: 16/32-bit loads, subtraction-based difference
//	8 <= len < width   tier 1: 64-bit words, last word aligned to the end
//	len >= width       tier 2: width-byte lane groups, overlapping tail
//
// where width is the widest vector size the active backend offers (32 or 16
// bytes). Lane groups are compared as independent 64-bit lanes against the
// broadcast word; the group is equal when the OR of all lane differences is
// zero, which is the word-level equivalent of an all-ones compare mask.
//
// The final group (or word) is loaded from len-width instead of handling a
// remainder, so every run length uses exactly one code path and no scalar
// byte loop exists anywhere.

const (
	wordSize       = 8
	maxVectorWidth = 32
)

// broadcast is the fill buffer holding the target value repeated. It is
// built once per view and reused for every row.
type broadcast struct {
	buf  [maxVectorWidth]byte
	word uint64
}

func newBroadcast(v byte) *broadcast {
	bc := &broadcast{}
	for i := range bc.buf {
		bc.buf[i] = v
	}
	bc.word = binary.LittleEndian.Uint64(bc.buf[:])
	return bc
}

// AllEqual reports whether every byte of s equals v. An empty slice is
// trivially equal.
func AllEqual(s []byte, v byte) bool {
	return allEqual(s, newBroadcast(v), activeWidths)
}

// allEqual dispatches on length. widths lists the usable vector widths,
// widest first.
func allEqual(s []byte, bc *broadcast, widths []int) bool {
	n := len(s)
	if n < wordSize {
		return equalTiny(s, bc)
	}

	for _, w := range widths {
		if n < w {
			continue
		}
		switch w {
		case 32:
			return equalVector32(s, bc)
		case 16:
			return equalVector16(s, bc)
		}
	}

	return equalWords(s, bc)
}

// equalTiny handles runs shorter than a machine word.
func equalTiny(s []byte, bc *broadcast) bool {
	n := len(s)
	if n < 4 {
		var diff uint32
		off := n & 2
		if off != 0 {
			diff = uint32(binary.LittleEndian.Uint16(s)) - uint32(binary.LittleEndian.Uint16(bc.buf[:]))
		}
		if n&1 != 0 {
			diff |= uint32(s[off]) - uint32(bc.buf[0])
		}
		return diff == 0
	}

	// 4..7 bytes: two possibly overlapping 32-bit loads from both ends.
	fill := binary.LittleEndian.Uint32(bc.buf[:])
	diff := binary.LittleEndian.Uint32(s) - fill
	diff |= binary.LittleEndian.Uint32(s[n-4:]) - fill
	return diff == 0
}

// equalWords handles len(s) >= 8 with 64-bit loads.
func equalWords(s []byte, bc *broadcast) bool {
	last := len(s) - wordSize
	for off := 0; off < last; off += wordSize {
		if binary.LittleEndian.Uint64(s[off:])^bc.word != 0 {
			return false
		}
	}
	return binary.LittleEndian.Uint64(s[last:])^bc.word == 0
}

// equalVector16 handles len(s) >= 16.
func equalVector16(s []byte, bc *broadcast) bool {
	last := len(s) - 16
	for off := 0; off < last; off += 16 {
		if lanes16(s[off:off+16], bc.word) != 0 {
			return false
		}
	}
	return lanes16(s[last:last+16], bc.word) == 0
}

// equalVector32 handles len(s) >= 32.
func equalVector32(s []byte, bc *broadcast) bool {
	last := len(s) - 32
	for off := 0; off < last; off += 32 {
		if lanes32(s[off:off+32], bc.word) != 0 {
			return false
		}
	}
	return lanes32(s[last:last+32], bc.word) == 0
}

func lanes16(v []byte, w uint64) uint64 {
	_ = v[15]
	return (binary.LittleEndian.Uint64(v[0:]) ^ w) |
		(binary.LittleEndian.Uint64(v[8:]) ^ w)
}

func lanes32(v []byte, w uint64) uint64 {
	_ = v[31]
	return (binary.LittleEndian.Uint64(v[0:]) ^ w) |
		(binary.LittleEndian.Uint64(v[8:]) ^ w) |
		(binary.LittleEndian.Uint64(v[16:]) ^ w) |
		(binary.LittleEndian.Uint64(v[24:]) ^ w)
}
