package quadtree

import (
	"fmt"
	"strings"

	"github.com/cwbudde/regionquadtree/internal/grid"
)

// Node is one region of the decomposition. It is either a leaf (no
// children, region homogeneous or a single cell) or an internal node owning
// exactly four children in grid.Quadrants order.
type Node struct {
	Region   grid.View
	children *[4]Node
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return n.children == nil
}

// Child returns the child covering quadrant q, or nil for a leaf. It panics
// on a quadrant outside TopLeft..BottomRight.
func (n *Node) Child(q grid.Quadrant) *Node {
	if q < grid.TopLeft || q > grid.BottomRight {
		panic(fmt.Sprintf("quadtree: invalid quadrant %d", int(q)))
	}
	if n.children == nil {
		return nil
	}
	return &n.children[q]
}

// Value returns the uniform cell value of a leaf. ok is false for internal
// nodes.
func (n *Node) Value() (v byte, ok bool) {
	if n.children != nil {
		return 0, false
	}
	return n.Region.FirstValue(), true
}

// Bounds returns the region's top-left buffer coordinates and side length.
func (n *Node) Bounds() (row, col, side int) {
	row, col = n.Region.Origin()
	return row, col, n.Region.Width()
}

// Walk visits n and its descendants depth-first, parents before children,
// children in quadrant order. Returning false from fn skips the node's
// children.
func (n *Node) Walk(fn func(n *Node, depth int) bool) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(*Node, int) bool, depth int) {
	if !fn(n, depth) || n.children == nil {
		return
	}
	for i := range n.children {
		n.children[i].walk(fn, depth+1)
	}
}

// Leaves returns every leaf in depth-first quadrant order.
func (n *Node) Leaves() []*Node {
	var out []*Node
	n.Walk(func(node *Node, _ int) bool {
		if node.IsLeaf() {
			out = append(out, node)
		}
		return true
	})
	return out
}

// Stats summarizes the shape of a tree.
type Stats struct {
	Nodes       int `json:"nodes"`
	Leaves      int `json:"leaves"`
	Internal    int `json:"internal"`
	Depth       int `json:"depth"` // edges from root to deepest leaf
	LargestLeaf int `json:"largestLeaf"`
}

// Stats walks the tree once and collects its Stats.
func (n *Node) Stats() Stats {
	var s Stats
	n.Walk(func(node *Node, depth int) bool {
		s.Nodes++
		if depth > s.Depth {
			s.Depth = depth
		}
		if node.IsLeaf() {
			s.Leaves++
			if w := node.Region.Width(); w > s.LargestLeaf {
				s.LargestLeaf = w
			}
		} else {
			s.Internal++
		}
		return true
	})
	return s
}

// Equal reports whether two trees partition their grids identically: same
// shape, and matching region offset and size at every node. Cell values are
// not compared.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.Region.Offset() != other.Region.Offset() ||
		n.Region.Width() != other.Region.Width() ||
		n.Region.Height() != other.Region.Height() {
		return false
	}
	if n.IsLeaf() != other.IsLeaf() {
		return false
	}
	if n.IsLeaf() {
		return true
	}
	for i := range n.children {
		if !n.children[i].Equal(&other.children[i]) {
			return false
		}
	}
	return true
}

// String renders the tree one node per line, indented by depth. Intended
// for debugging small trees.
func (n *Node) String() string {
	var sb strings.Builder
	n.Walk(func(node *Node, depth int) bool {
		row, col, side := node.Bounds()
		sb.WriteString(strings.Repeat("  ", depth))
		if v, ok := node.Value(); ok {
			fmt.Fprintf(&sb, "leaf (%d,%d) %dx%d = %d\n", row, col, side, side, v)
		} else {
			fmt.Fprintf(&sb, "node (%d,%d) %dx%d\n", row, col, side, side)
		}
		return true
	})
	return sb.String()
}
