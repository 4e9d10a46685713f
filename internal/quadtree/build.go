// Package quadtree builds region quadtrees over square byte grids.
//
// A region is kept as one leaf when all of its cells are equal; otherwise it
// is split into four quadrants (top-left, top-right, bottom-left,
// bottom-right) and each is built recursively. Regions of a single cell are
// always leaves. Which homogeneity test is used is configurable; results are
// identical for every variant.
package quadtree

import (
	"errors"
	"fmt"

	"github.com/cwbudde/regionquadtree/internal/grid"
	"github.com/cwbudde/regionquadtree/internal/homog"
)

// ErrInvalidInput matches every *InvalidInputError via errors.Is.
var ErrInvalidInput = &InvalidInputError{}

// InvalidInputError reports a grid the builder cannot decompose.
type InvalidInputError struct {
	Width  int
	Height int
	Stride int
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Reason == "" {
		return "invalid quadtree input"
	}
	return fmt.Sprintf("invalid quadtree input %dx%d (stride %d): %s", e.Width, e.Height, e.Stride, e.Reason)
}

func (e *InvalidInputError) Is(target error) bool {
	_, ok := target.(*InvalidInputError)
	return ok
}

// Option configures a Builder.
type Option func(*Builder)

// WithVariant selects a built-in homogeneity tester.
func WithVariant(v homog.Variant) Option {
	return func(b *Builder) {
		b.variant = v
		b.tester = v.Tester()
	}
}

// WithTester installs a custom homogeneity tester. It must honour the
// homog.Tester contract or the resulting tree is meaningless. A nil tester
// leaves the variant's tester in place.
func WithTester(t homog.Tester) Option {
	return func(b *Builder) {
		if t == nil {
			return
		}
		b.tester = t
	}
}

// Builder turns views into trees. A Builder holds no per-build state and
// may be shared between goroutines.
type Builder struct {
	variant homog.Variant
	tester  homog.Tester
}

// NewBuilder returns a builder using the vectorized tester unless an option
// says otherwise.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		variant: homog.Vectorized,
		tester:  homog.IsHomogeneousVectorized,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Variant reports the configured built-in variant. It is meaningless when a
// custom tester was installed with WithTester.
func (b *Builder) Variant() homog.Variant {
	return b.variant
}

// Build decomposes the width x height grid stored in buf with rows stride
// bytes apart.
func Build(buf []byte, width, height, stride int, opts ...Option) (*Node, error) {
	return NewBuilder(opts...).Build(buf, width, height, stride)
}

// Build decomposes the width x height grid stored in buf with rows stride
// bytes apart. Input is validated once, before any recursion.
func (b *Builder) Build(buf []byte, width, height, stride int) (*Node, error) {
	if err := validate(width, height, stride); err != nil {
		return nil, err
	}

	v, err := grid.NewView(buf, width, height, stride)
	if err != nil {
		return nil, &InvalidInputError{Width: width, Height: height, Stride: stride, Reason: err.Error()}
	}
	return b.build(v), nil
}

// BuildView decomposes an existing view, for example one quadrant of a
// larger grid.
func (b *Builder) BuildView(v grid.View) (*Node, error) {
	if err := validate(v.Width(), v.Height(), v.Pitch()); err != nil {
		return nil, err
	}
	return b.build(v), nil
}

func validate(width, height, stride int) error {
	invalid := func(reason string) error {
		return &InvalidInputError{Width: width, Height: height, Stride: stride, Reason: reason}
	}
	switch {
	case width <= 0 || height <= 0:
		return invalid("dimensions must be positive")
	case width != height:
		return invalid("grid must be square")
	case !grid.IsPowerOfTwo(width):
		return invalid("side must be a power of two")
	case stride < width:
		return invalid("stride must be at least the width")
	}
	return nil
}

// build is the recursion. Split views stay square powers of two, so no
// validation is repeated here.
func (b *Builder) build(v grid.View) *Node {
	root := &Node{}
	b.fill(root, v)
	return root
}

func (b *Builder) fill(n *Node, v grid.View) {
	n.Region = v
	if v.Width() == 1 || b.tester(v) {
		return
	}

	n.children = new([4]Node)
	for i, q := range grid.Quadrants {
		b.fill(&n.children[i], v.Quadrant(q))
	}
}

// IsInvalidInput is shorthand for errors.Is(err, ErrInvalidInput).
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
