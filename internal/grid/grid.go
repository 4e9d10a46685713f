// Package grid holds the byte grids a quadtree is built from and the strided
// views used to walk them without copying.
package grid

import (
	"fmt"
	"math/rand"
)

// Grid is an owned row-major byte buffer.
type Grid struct {
	Pix    []byte
	Width  int
	Height int
	Stride int // bytes between row starts, >= Width
}

// New allocates a tightly packed side x side grid filled with zeros.
func New(side int) *Grid {
	return &Grid{
		Pix:    make([]byte, side*side),
		Width:  side,
		Height: side,
		Stride: side,
	}
}

// NewStrided allocates a width x height grid whose rows are stride bytes
// apart. Padding bytes between rows are left at zero.
func NewStrided(width, height, stride int) (*Grid, error) {
	if stride < width {
		return nil, fmt.Errorf("stride %d smaller than width %d", stride, width)
	}
	return &Grid{
		Pix:    make([]byte, extent(width, height, stride)),
		Width:  width,
		Height: height,
		Stride: stride,
	}, nil
}

// View returns a view over the whole grid.
func (g *Grid) View() View {
	return View{buf: g.Pix, width: g.Width, height: g.Height, pitch: g.Stride}
}

// Set writes one cell.
func (g *Grid) Set(row, col int, v byte) {
	g.Pix[row*g.Stride+col] = v
}

// At reads one cell.
func (g *Grid) At(row, col int) byte {
	return g.Pix[row*g.Stride+col]
}

// FillConstant sets every cell to v.
func (g *Grid) FillConstant(v byte) {
	for r := 0; r < g.Height; r++ {
		row := g.Pix[r*g.Stride : r*g.Stride+g.Width]
		for i := range row {
			row[i] = v
		}
	}
}

// FillRandom fills every cell with uniformly random bytes.
func (g *Grid) FillRandom(rng *rand.Rand) {
	if g.Stride == g.Width {
		rng.Read(g.Pix[:g.Width*g.Height])
		return
	}
	for r := 0; r < g.Height; r++ {
		rng.Read(g.Pix[r*g.Stride : r*g.Stride+g.Width])
	}
}

// FillSparse clears the grid and sets roughly density of the cells to value.
// Sparse masks are the case region quadtrees compress well.
func (g *Grid) FillSparse(rng *rand.Rand, density float64, value byte) {
	g.FillConstant(0)
	for r := 0; r < g.Height; r++ {
		for c := 0; c < g.Width; c++ {
			if rng.Float64() < density {
				g.Set(r, c, value)
			}
		}
	}
}

// PadToPowerOfTwo returns a square, tightly packed copy whose side is the
// next power of two covering both dimensions. New cells are set to fill.
// A grid that already qualifies is returned unchanged.
func (g *Grid) PadToPowerOfTwo(fill byte) *Grid {
	side := CeilToNextPowerOfTwo(max(g.Width, g.Height))
	if g.Width == side && g.Height == side && g.Stride == side {
		return g
	}

	out := New(side)
	out.FillConstant(fill)
	for r := 0; r < g.Height; r++ {
		copy(out.Pix[r*side:], g.Pix[r*g.Stride:r*g.Stride+g.Width])
	}
	return out
}
