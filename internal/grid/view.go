package grid

import (
	"errors"
	"fmt"
)

// ErrOutOfBounds is returned when a view does not fit inside its buffer.
var ErrOutOfBounds = errors.New("view out of bounds")

// Quadrant identifies one of the four sub-views produced by a split.
type Quadrant int

const (
	TopLeft Quadrant = iota
	TopRight
	BottomLeft
	BottomRight
)

// Quadrants lists the split order used everywhere in the tree.
var Quadrants = [4]Quadrant{TopLeft, TopRight, BottomLeft, BottomRight}

func (q Quadrant) String() string {
	switch q {
	case TopLeft:
		return "top-left"
	case TopRight:
		return "top-right"
	case BottomLeft:
		return "bottom-left"
	case BottomRight:
		return "bottom-right"
	default:
		return "unknown"
	}
}

// View is a read-only rectangular window into a row-major byte buffer.
//
// Cell (row, col) lives at buf[off + row*pitch + col]. The pitch is the row
// length of the underlying buffer, not of the view, so slicing a view never
// changes it. A View does not own buf; it is only valid while the caller
// keeps the buffer alive and unchanged.
type View struct {
	buf    []byte
	off    int
	width  int
	height int
	pitch  int
}

// NewView returns a width x height window at the start of buf whose rows are
// pitch bytes apart.
func NewView(buf []byte, width, height, pitch int) (View, error) {
	if width < 0 || height < 0 {
		return View{}, fmt.Errorf("negative dimensions %dx%d: %w", width, height, ErrOutOfBounds)
	}
	if pitch < width {
		return View{}, fmt.Errorf("pitch %d smaller than width %d: %w", pitch, width, ErrOutOfBounds)
	}
	if !fits(len(buf), width, height, pitch) {
		return View{}, fmt.Errorf("%dx%d pitch %d does not fit a %d byte buffer: %w", width, height, pitch, len(buf), ErrOutOfBounds)
	}
	return View{buf: buf, width: width, height: height, pitch: pitch}, nil
}

// fits reports whether extent(width, height, pitch) <= n without computing
// the product, which may overflow for hostile dimensions.
func fits(n, width, height, pitch int) bool {
	if width == 0 || height == 0 {
		return true
	}
	if width > n {
		return false
	}
	return height-1 <= (n-width)/pitch
}

// extent is the number of bytes spanned from the first to the last cell.
func extent(width, height, pitch int) int {
	if width == 0 || height == 0 {
		return 0
	}
	return (height-1)*pitch + width
}

func (v View) Width() int  { return v.width }
func (v View) Height() int { return v.height }
func (v View) Pitch() int  { return v.pitch }

// Offset is the index of the top-left cell in the underlying buffer.
func (v View) Offset() int { return v.off }

// Len is the number of cells in the view.
func (v View) Len() int { return v.width * v.height }

// Origin reports the buffer coordinates of the top-left cell.
func (v View) Origin() (row, col int) {
	if v.pitch == 0 {
		return 0, 0
	}
	return v.off / v.pitch, v.off % v.pitch
}

// At returns the cell at (row, col) relative to the view.
func (v View) At(row, col int) byte {
	return v.buf[v.off+row*v.pitch+col]
}

// FirstValue is the top-left cell, the reference value for homogeneity.
func (v View) FirstValue() byte {
	return v.buf[v.off]
}

// IsContiguous reports whether the rows are back-to-back in memory.
func (v View) IsContiguous() bool {
	return v.pitch == v.width
}

// Row returns the cells of row r as a sub-slice of the buffer.
func (v View) Row(r int) []byte {
	start := v.off + r*v.pitch
	return v.buf[start : start+v.width : start+v.width]
}

// Span returns all cells as one linear run. Only meaningful when the view is
// contiguous; for strided views it panics.
func (v View) Span() []byte {
	if !v.IsContiguous() {
		panic("grid: Span on non-contiguous view")
	}
	n := v.width * v.height
	return v.buf[v.off : v.off+n : v.off+n]
}

// Quadrant returns one quarter of the view. Width and height are halved, the
// pitch is inherited.
func (v View) Quadrant(q Quadrant) View {
	hw, hh := v.width/2, v.height/2
	sub := v
	sub.width, sub.height = hw, hh
	switch q {
	case TopLeft:
	case TopRight:
		sub.off += hw
	case BottomLeft:
		sub.off += hh * v.pitch
	case BottomRight:
		sub.off += hh*v.pitch + hw
	default:
		panic(fmt.Sprintf("grid: invalid quadrant %d", int(q)))
	}
	return sub
}

// Split returns the four quadrants in tree order.
func (v View) Split() [4]View {
	return [4]View{
		v.Quadrant(TopLeft),
		v.Quadrant(TopRight),
		v.Quadrant(BottomLeft),
		v.Quadrant(BottomRight),
	}
}

// Clone copies the view into a fresh, tightly packed buffer.
func (v View) Clone() View {
	buf := make([]byte, v.width*v.height)
	for r := 0; r < v.height; r++ {
		copy(buf[r*v.width:], v.Row(r))
	}
	return View{buf: buf, width: v.width, height: v.height, pitch: v.width}
}

func (v View) String() string {
	row, col := v.Origin()
	return fmt.Sprintf("View(%d,%d %dx%d pitch=%d)", row, col, v.width, v.height, v.pitch)
}
