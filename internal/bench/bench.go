package bench

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/cwbudde/regionquadtree/internal/grid"
	"github.com/cwbudde/regionquadtree/internal/homog"
	"github.com/cwbudde/regionquadtree/internal/quadtree"
)

// Sample is one timed build, reported to the Observer as it happens.
type Sample struct {
	Size      int
	Variant   homog.Variant
	Iteration int
	Elapsed   time.Duration
}

// Observer receives every timed sample. It runs on the benchmark goroutine
// between builds, so slow observers do not distort timings.
type Observer func(Sample)

// Result summarizes the timed builds of one (size, variant) pair.
type Result struct {
	Size       int
	Variant    homog.Variant
	Iterations int
	Min        time.Duration
	Mean       time.Duration
	Median     time.Duration
	Max        time.Duration
	NsPerCell  float64 // Mean / (size*size)
	Tree       quadtree.Stats
}

// Report is the outcome of Run.
type Report struct {
	Backend string
	Config  Config
	Results []Result
	Elapsed time.Duration
}

// DisagreementError is returned when two variants produce different trees
// for the same grid.
type DisagreementError struct {
	Size      int
	Reference homog.Variant
	Variant   homog.Variant
}

func (e *DisagreementError) Error() string {
	return fmt.Sprintf("%s and %s built different trees for the %dx%d grid", e.Reference, e.Variant, e.Size, e.Size)
}

// Measure times fn.
func Measure(fn func()) time.Duration {
	start := time.Now()
	fn()
	return time.Since(start)
}

// Run benchmarks every configured size and variant. Each size gets one grid,
// shared by all variants. ctx is checked between builds; a single build is
// never interrupted.
func Run(ctx context.Context, cfg Config, observe Observer) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid benchmark config: %w", err)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	report := &Report{
		Backend: homog.ActiveVectorBackend.String(),
		Config:  cfg,
	}
	start := time.Now()

	for _, size := range cfg.Sizes {
		g := NewGrid(cfg, size, rng)
		slog.Info("Benchmarking grid", "size", size, "pattern", cfg.Pattern, "variants", len(cfg.Variants))

		var reference *quadtree.Node
		var referenceVariant homog.Variant

		for _, variant := range cfg.Variants {
			res, root, err := runVariant(ctx, cfg, g, variant, observe)
			if err != nil {
				return nil, err
			}
			report.Results = append(report.Results, res)

			slog.Info("Variant complete",
				"size", size,
				"variant", variant.String(),
				"mean", res.Mean,
				"min", res.Min,
				"ns_per_cell", fmt.Sprintf("%.3f", res.NsPerCell),
				"leaves", res.Tree.Leaves,
			)

			if !cfg.Verify {
				continue
			}
			if reference == nil {
				reference, referenceVariant = root, variant
				continue
			}
			if !reference.Equal(root) {
				return nil, &DisagreementError{Size: size, Reference: referenceVariant, Variant: variant}
			}
		}
	}

	report.Elapsed = time.Since(start)
	return report, nil
}

func runVariant(ctx context.Context, cfg Config, g *grid.Grid, variant homog.Variant, observe Observer) (Result, *quadtree.Node, error) {
	builder := quadtree.NewBuilder(quadtree.WithVariant(variant))
	name := variant.String()

	var root *quadtree.Node
	var buildErr error
	build := func() {
		root, buildErr = builder.Build(g.Pix, g.Width, g.Height, g.Stride)
	}

	for i := 0; i < cfg.Warmup; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, nil, err
		}
		build()
		if buildErr != nil {
			return Result{}, nil, fmt.Errorf("warmup build: %w", buildErr)
		}
	}

	durations := make([]time.Duration, 0, cfg.Iterations)
	for i := 0; i < cfg.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, nil, err
		}

		elapsed := Measure(build)
		if buildErr != nil {
			return Result{}, nil, fmt.Errorf("build %d: %w", i, buildErr)
		}

		durations = append(durations, elapsed)
		observeBuild(name, g.Width, elapsed.Seconds())
		if observe != nil {
			observe(Sample{Size: g.Width, Variant: variant, Iteration: i, Elapsed: elapsed})
		}
	}

	res := summarize(durations)
	res.Size = g.Width
	res.Variant = variant
	res.Tree = root.Stats()
	res.NsPerCell = float64(res.Mean.Nanoseconds()) / float64(g.Width*g.Height)
	observeLeaves(name, g.Width, res.Tree.Leaves)

	return res, root, nil
}

// summarize computes order statistics over a non-empty sample.
func summarize(durations []time.Duration) Result {
	sorted := append([]time.Duration(nil), durations...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total time.Duration
	for _, d := range sorted {
		total += d
	}

	n := len(sorted)
	median := sorted[n/2]
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	return Result{
		Iterations: n,
		Min:        sorted[0],
		Mean:       total / time.Duration(n),
		Median:     median,
		Max:        sorted[n-1],
	}
}
