// Package bench times repeated quadtree builds over generated grids and
// compares the homogeneity tester variants against each other.
package bench

import (
	"fmt"
	"math/rand"

	"github.com/cwbudde/regionquadtree/internal/grid"
	"github.com/cwbudde/regionquadtree/internal/homog"
)

// Pattern selects how benchmark grids are filled.
type Pattern string

const (
	// PatternRandom fills every cell with a random byte. Nearly every
	// region splits down to single cells.
	PatternRandom Pattern = "random"
	// PatternSparse sets a Density fraction of cells to 1 on a zero
	// background.
	PatternSparse Pattern = "sparse"
	// PatternUniform fills the whole grid with one value; builds are a
	// single homogeneity test over the root.
	PatternUniform Pattern = "uniform"
)

// ParsePattern validates a pattern name.
func ParsePattern(s string) (Pattern, error) {
	switch p := Pattern(s); p {
	case PatternRandom, PatternSparse, PatternUniform:
		return p, nil
	default:
		return "", fmt.Errorf("unknown pattern %q (want random, sparse or uniform)", s)
	}
}

// Config controls a benchmark run.
type Config struct {
	Sizes      []int
	Variants   []homog.Variant
	Iterations int // timed builds per (size, variant)
	Warmup     int // untimed builds before timing
	Seed       int64
	Pattern    Pattern
	Density    float64 // PatternSparse only
	Verify     bool    // compare trees across variants
}

// DefaultConfig mirrors the classic driver: small and medium random grids,
// every variant. Sizes up to 1<<14 are supported but allocate hundreds of
// millions of nodes on random data, so they are opt-in.
func DefaultConfig() Config {
	return Config{
		Sizes:      []int{4, 8, 1024},
		Variants:   append([]homog.Variant(nil), homog.Variants...),
		Iterations: 10,
		Warmup:     1,
		Seed:       42,
		Pattern:    PatternRandom,
		Density:    0.01,
		Verify:     true,
	}
}

// Validate checks the configuration before any grid is allocated.
func (c Config) Validate() error {
	if len(c.Sizes) == 0 {
		return fmt.Errorf("at least one size is required")
	}
	for _, s := range c.Sizes {
		if !grid.IsPowerOfTwo(s) {
			return fmt.Errorf("size %d is not a power of two (next is %d)", s, grid.CeilToNextPowerOfTwo(s))
		}
	}
	if len(c.Variants) == 0 {
		return fmt.Errorf("at least one variant is required")
	}
	for _, v := range c.Variants {
		if !v.Valid() {
			return fmt.Errorf("unknown tester variant %d", int(v))
		}
	}
	if c.Iterations <= 0 {
		return fmt.Errorf("iterations must be positive, got %d", c.Iterations)
	}
	if c.Warmup < 0 {
		return fmt.Errorf("warmup cannot be negative, got %d", c.Warmup)
	}
	if _, err := ParsePattern(string(c.Pattern)); err != nil {
		return err
	}
	if c.Pattern == PatternSparse && (c.Density < 0 || c.Density > 1) {
		return fmt.Errorf("density must be within [0, 1], got %g", c.Density)
	}
	return nil
}

// NewGrid allocates and fills one side x side grid for the configured
// pattern.
func NewGrid(c Config, side int, rng *rand.Rand) *grid.Grid {
	g := grid.New(side)
	switch c.Pattern {
	case PatternSparse:
		g.FillSparse(rng, c.Density, 1)
	case PatternUniform:
		g.FillConstant(byte(rng.Intn(256)))
	default:
		g.FillRandom(rng)
	}
	return g
}
