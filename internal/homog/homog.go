// Package homog answers "are all cells in this view equal to its first
// cell?" with three interchangeable algorithms.
//
// Every variant honours the same contract: the input is a square view whose
// side is a power of two, the pitch may exceed the width, and the result is
// true iff every cell equals View.FirstValue. Variants differ only in cost:
//
//   - Naive:      full row-major scan, no early exit (reference)
//   - EarlyExit:  stops at the first mismatch, single run when contiguous
//   - Vectorized: tiered word/vector compare per run or per row (default)
//
// All testers are pure and safe for concurrent use.
package homog

import (
	"fmt"
	"strings"

	"github.com/cwbudde/regionquadtree/internal/grid"
)

// Tester decides whether a view is homogeneous.
type Tester func(v grid.View) bool

// Variant selects one of the built-in testers.
type Variant int

const (
	Naive Variant = iota
	EarlyExit
	Vectorized
)

// Variants lists every built-in variant in declaration order.
var Variants = []Variant{Naive, EarlyExit, Vectorized}

func (v Variant) String() string {
	switch v {
	case Naive:
		return "naive"
	case EarlyExit:
		return "early-exit"
	case Vectorized:
		return "vectorized"
	default:
		return "unknown"
	}
}

// Valid reports whether v is one of the built-in variants.
func (v Variant) Valid() bool {
	return v >= Naive && v <= Vectorized
}

// Tester returns the function implementing the variant.
func (v Variant) Tester() Tester {
	switch v {
	case Naive:
		return IsHomogeneousNaive
	case EarlyExit:
		return IsHomogeneousEarlyExit
	case Vectorized:
		return IsHomogeneousVectorized
	default:
		panic(fmt.Sprintf("homog: unknown variant %d", int(v)))
	}
}

// ParseVariant maps a name as printed by String back to a Variant. Matching
// ignores case; "earlyexit" and "simd" are accepted as aliases.
func ParseVariant(name string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "naive":
		return Naive, nil
	case "early-exit", "earlyexit", "early":
		return EarlyExit, nil
	case "vectorized", "simd", "vector":
		return Vectorized, nil
	default:
		return 0, fmt.Errorf("unknown tester variant %q (want naive, early-exit or vectorized)", name)
	}
}

// ParseVariants parses a comma separated list such as "naive,vectorized".
func ParseVariants(list string) ([]Variant, error) {
	var out []Variant
	for _, name := range strings.Split(list, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		v, err := ParseVariant(name)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no tester variants in %q", list)
	}
	return out, nil
}

// CompareImplementations runs every variant on v and reports whether they
// all agree with the Naive reference. Used by tests and by the CLI's
// verification mode.
func CompareImplementations(v grid.View) bool {
	want := IsHomogeneousNaive(v)
	for _, variant := range Variants[1:] {
		if variant.Tester()(v) != want {
			return false
		}
	}
	return true
}
