package quadtree

import (
	"errors"
	"fmt"
	"math/bits"
	"math/rand"
	"testing"

	"github.com/cwbudde/regionquadtree/internal/grid"
	"github.com/cwbudde/regionquadtree/internal/homog"
	"github.com/stretchr/testify/require"
)

func buildGrid(t *testing.T, g *grid.Grid, opts ...Option) *Node {
	t.Helper()
	root, err := Build(g.Pix, g.Width, g.Height, g.Stride, opts...)
	require.NoError(t, err)
	require.NotNil(t, root)
	return root
}

func TestBuild_UniformGridIsSingleLeaf(t *testing.T) {
	for _, side := range []int{1, 2, 4, 16, 256} {
		for _, v := range homog.Variants {
			t.Run(fmt.Sprintf("%s/%d", v, side), func(t *testing.T) {
				g := grid.New(side)
				g.FillConstant(42)

				root := buildGrid(t, g, WithVariant(v))
				require.True(t, root.IsLeaf())
				val, ok := root.Value()
				require.True(t, ok)
				require.Equal(t, byte(42), val)
				require.Equal(t, side, root.Region.Width())
			})
		}
	}
}

func TestBuild_SingleOutlier(t *testing.T) {
	for _, v := range homog.Variants {
		t.Run(v.String(), func(t *testing.T) {
			g := grid.New(4)
			g.FillConstant(5)
			g.Set(3, 3, 7)

			root := buildGrid(t, g, WithVariant(v))
			require.False(t, root.IsLeaf())

			for _, q := range []grid.Quadrant{grid.TopLeft, grid.TopRight, grid.BottomLeft} {
				child := root.Child(q)
				require.True(t, child.IsLeaf(), q.String())
				require.Equal(t, 2, child.Region.Width())
				val, _ := child.Value()
				require.Equal(t, byte(5), val)
			}

			br := root.Child(grid.BottomRight)
			require.False(t, br.IsLeaf())
			row, col, side := br.Bounds()
			require.Equal(t, [3]int{2, 2, 2}, [3]int{row, col, side})

			want := []byte{5, 5, 5, 7}
			for i, q := range grid.Quadrants {
				leaf := br.Child(q)
				require.True(t, leaf.IsLeaf())
				require.Equal(t, 1, leaf.Region.Width())
				val, ok := leaf.Value()
				require.True(t, ok)
				require.Equal(t, want[i], val, q.String())
			}
		})
	}
}

func TestBuild_InvalidInput(t *testing.T) {
	buf := make([]byte, 64)
	huge := 1 << (bits.UintSize - 2)
	tests := []struct {
		name                  string
		width, height, stride int
	}{
		{"zero", 0, 0, 0},
		{"negative", -4, -4, 4},
		{"not square", 4, 2, 4},
		{"not power of two", 3, 3, 3},
		{"stride below width", 4, 4, 2},
		{"buffer too small", 8, 8, 9},
		{"extent overflows int", huge, huge, huge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := Build(buf, tt.width, tt.height, tt.stride)
			require.Nil(t, root)
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrInvalidInput))
			require.True(t, IsInvalidInput(err))

			var inv *InvalidInputError
			require.True(t, errors.As(err, &inv))
			require.Equal(t, tt.width, inv.Width)
			require.NotEmpty(t, inv.Reason)
		})
	}
}

func TestBuild_ValidationHappensBeforeTesting(t *testing.T) {
	calls := 0
	counting := func(v grid.View) bool {
		calls++
		return homog.IsHomogeneousNaive(v)
	}

	_, err := Build(make([]byte, 9), 3, 3, 3, WithTester(counting))
	require.Error(t, err)
	require.Zero(t, calls)
}

func TestWithTester_NilKeepsVariantTester(t *testing.T) {
	g := grid.New(8)
	g.Set(5, 2, 9)

	b := NewBuilder(WithVariant(homog.EarlyExit), WithTester(nil))
	require.Equal(t, homog.EarlyExit, b.Variant())

	root, err := b.Build(g.Pix, g.Width, g.Height, g.Stride)
	require.NoError(t, err)
	require.True(t, root.Equal(buildGrid(t, g, WithVariant(homog.Naive))))
}

func TestBuild_SingleCellsAreNotTested(t *testing.T) {
	var sides []int
	recording := func(v grid.View) bool {
		sides = append(sides, v.Width())
		return false
	}

	g := grid.New(4)
	root := buildGrid(t, g, WithTester(recording))
	require.Equal(t, []int{4, 2, 2, 2, 2}, sides)
	require.Equal(t, 16, root.Stats().Leaves)
}

// randomGrids yields a mix of random, sparse and blocky grids, some stored
// with padded rows.
func randomGrids(t *testing.T) map[string]*grid.Grid {
	t.Helper()
	rng := rand.New(rand.NewSource(2024))
	grids := make(map[string]*grid.Grid)

	for _, side := range []int{1, 2, 8, 32, 128} {
		for _, extra := range []int{0, 5} {
			mk := func() *grid.Grid {
				g, err := grid.NewStrided(side, side, side+extra)
				require.NoError(t, err)
				return g
			}

			random := mk()
			random.FillRandom(rng)
			grids[fmt.Sprintf("random/%d+%d", side, extra)] = random

			sparse := mk()
			sparse.FillSparse(rng, 0.02, 1)
			grids[fmt.Sprintf("sparse/%d+%d", side, extra)] = sparse

			blocks := mk()
			for r := 0; r < side; r++ {
				for c := 0; c < side; c++ {
					blocks.Set(r, c, byte((r/4+c/4)%2))
				}
			}
			grids[fmt.Sprintf("checker/%d+%d", side, extra)] = blocks
		}
	}
	return grids
}

func TestBuild_CrossVariantTreesMatch(t *testing.T) {
	for name, g := range randomGrids(t) {
		t.Run(name, func(t *testing.T) {
			ref := buildGrid(t, g, WithVariant(homog.Naive))
			for _, v := range homog.Variants[1:] {
				root := buildGrid(t, g, WithVariant(v))
				require.True(t, ref.Equal(root), "%s tree differs from naive", v)
				require.Equal(t, ref.Stats(), root.Stats())
			}
		})
	}
}

func TestBuild_PartitionCoverage(t *testing.T) {
	for name, g := range randomGrids(t) {
		t.Run(name, func(t *testing.T) {
			root := buildGrid(t, g)

			covered := make(map[int]int)
			for _, leaf := range root.Leaves() {
				v := leaf.Region
				for r := 0; r < v.Height(); r++ {
					for c := 0; c < v.Width(); c++ {
						covered[v.Offset()+r*v.Pitch()+c]++
					}
				}
			}

			require.Len(t, covered, g.Width*g.Height)
			for r := 0; r < g.Height; r++ {
				for c := 0; c < g.Width; c++ {
					require.Equal(t, 1, covered[r*g.Stride+c], "cell (%d,%d)", r, c)
				}
			}
		})
	}
}

func TestBuild_LeavesAreHomogeneous(t *testing.T) {
	for name, g := range randomGrids(t) {
		t.Run(name, func(t *testing.T) {
			root := buildGrid(t, g)
			for _, leaf := range root.Leaves() {
				require.True(t, homog.IsHomogeneousNaive(leaf.Region), "leaf %s", leaf.Region)
			}
		})
	}
}

func TestBuild_InternalNodesTileTheirParent(t *testing.T) {
	g := randomGrids(t)["sparse/128+5"]
	root := buildGrid(t, g)

	root.Walk(func(n *Node, _ int) bool {
		if n.IsLeaf() {
			return true
		}
		half := n.Region.Width() / 2
		pr, pc := n.Region.Origin()
		offsets := [4][2]int{{0, 0}, {0, half}, {half, 0}, {half, half}}
		for i, q := range grid.Quadrants {
			child := n.Child(q)
			r, c, side := child.Bounds()
			require.Equal(t, half, side)
			require.Equal(t, pr+offsets[i][0], r)
			require.Equal(t, pc+offsets[i][1], c)
			require.Equal(t, n.Region.Pitch(), child.Region.Pitch())
		}
		return true
	})
}

func TestBuild_Deterministic(t *testing.T) {
	for name, g := range randomGrids(t) {
		t.Run(name, func(t *testing.T) {
			a := buildGrid(t, g)
			b := buildGrid(t, g)
			require.True(t, a.Equal(b))
			require.Equal(t, a.String(), b.String())
		})
	}
}

func TestBuild_StridedMatchesPacked(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	padded, err := grid.NewStrided(64, 64, 80)
	require.NoError(t, err)
	padded.FillSparse(rng, 0.01, 3)
	packed := padded.PadToPowerOfTwo(0)
	require.Equal(t, 64, packed.Stride)

	a := buildGrid(t, padded)
	b := buildGrid(t, packed)
	require.Equal(t, a.Stats(), b.Stats())

	la, lb := a.Leaves(), b.Leaves()
	require.Equal(t, len(la), len(lb))
	for i := range la {
		ra, ca, sa := la[i].Bounds()
		rb, cb, sb := lb[i].Bounds()
		require.Equal(t, [3]int{ra, ca, sa}, [3]int{rb, cb, sb})
	}
}

func TestBuilder_BuildView(t *testing.T) {
	g := grid.New(8)
	g.FillConstant(1)
	g.Set(7, 7, 2)

	b := NewBuilder(WithVariant(homog.EarlyExit))
	require.Equal(t, homog.EarlyExit, b.Variant())

	tl, err := b.BuildView(g.View().Quadrant(grid.TopLeft))
	require.NoError(t, err)
	require.True(t, tl.IsLeaf())

	br, err := b.BuildView(g.View().Quadrant(grid.BottomRight))
	require.NoError(t, err)
	require.False(t, br.IsLeaf())

	bad, err := grid.NewView(g.Pix, 4, 2, 8)
	require.NoError(t, err)
	_, err = b.BuildView(bad)
	require.True(t, IsInvalidInput(err))
}

func TestNewBuilder_DefaultsToVectorized(t *testing.T) {
	require.Equal(t, homog.Vectorized, NewBuilder().Variant())
}
