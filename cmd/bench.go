package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/cwbudde/regionquadtree/internal/bench"
	"github.com/cwbudde/regionquadtree/internal/homog"
	"github.com/cwbudde/regionquadtree/internal/store"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var (
	benchSizes       []int
	benchVariants    string
	benchIterations  int
	benchWarmup      int
	benchSeed        int64
	benchPattern     string
	benchDensity     float64
	benchVerify      bool
	benchSave        bool
	benchDataDir     string
	benchMetricsAddr string
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Benchmark quadtree construction per homogeneity variant",
	Long: `Build quadtrees over generated grids of each size with every selected
homogeneity variant, timing each build. All variants see the same grid, and
with --verify the trees they build are compared.

Sizes above 1024 on random grids allocate very large trees; 16384 needs
tens of gigabytes.`,
	RunE: runBench,
}

func init() {
	rootCmd.AddCommand(benchCmd)

	defaults := bench.DefaultConfig()
	benchCmd.Flags().IntSliceVar(&benchSizes, "sizes", defaults.Sizes, "Grid side lengths (powers of two)")
	benchCmd.Flags().StringVar(&benchVariants, "variants", "all", "Comma-separated variants: naive, early-exit, vectorized or all")
	benchCmd.Flags().IntVar(&benchIterations, "iterations", defaults.Iterations, "Timed builds per size and variant")
	benchCmd.Flags().IntVar(&benchWarmup, "warmup", defaults.Warmup, "Untimed builds before timing")
	benchCmd.Flags().Int64Var(&benchSeed, "seed", defaults.Seed, "Random seed for grid generation")
	benchCmd.Flags().StringVar(&benchPattern, "pattern", string(defaults.Pattern), "Grid pattern: random, sparse or uniform")
	benchCmd.Flags().Float64Var(&benchDensity, "density", defaults.Density, "Fraction of set cells for the sparse pattern")
	benchCmd.Flags().BoolVar(&benchVerify, "verify", defaults.Verify, "Check that all variants build the same tree")
	benchCmd.Flags().BoolVar(&benchSave, "save", false, "Save the run and its trace under --data-dir")
	benchCmd.Flags().StringVar(&benchDataDir, "data-dir", "./data", "Base directory for saved runs")
	benchCmd.Flags().StringVar(&benchMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running (e.g. :9090)")
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg, err := benchConfigFromFlags()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if benchMetricsAddr != "" {
		shutdown := serveMetrics(benchMetricsAddr)
		defer shutdown()
	}

	var runStore *store.FSStore
	if benchSave {
		runStore, err = store.NewFSStore(benchDataDir)
		if err != nil {
			return fmt.Errorf("failed to open run store: %w", err)
		}
	}

	slog.Info("Starting benchmark",
		"backend", homog.ActiveVectorBackend.String(),
		"sizes", cfg.Sizes,
		"variants", len(cfg.Variants),
		"iterations", cfg.Iterations,
		"pattern", cfg.Pattern,
	)

	report, run, err := benchAndSave(ctx, cfg, runStore)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Warn("Benchmark interrupted")
		}
		return err
	}

	slog.Info("Benchmark complete", "elapsed", report.Elapsed)

	fmt.Printf("\nBackend: %s\n\n", report.Backend)
	printResultRecords(os.Stdout, resultRecordsOf(report.Results))
	if run != nil {
		fmt.Printf("\nSaved run %s\n", run.ID)
	}
	return nil
}

// benchAndSave runs the benchmark. With a non-nil runStore every timed build
// is traced to the run directory and the run is saved on success; on any
// failure the run directory is removed so no trace without a run.json is
// left behind.
func benchAndSave(ctx context.Context, cfg bench.Config, runStore *store.FSStore) (report *bench.Report, run *store.Run, err error) {
	if runStore == nil {
		report, err = bench.Run(ctx, cfg, nil)
		return report, nil, err
	}

	run = store.NewRun(runConfigOf(cfg), homog.ActiveVectorBackend.String(), nil)
	trace, err := store.NewTraceWriter(runStore.BaseDir(), run.ID)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		trace.Close()
		if err == nil {
			return
		}
		if derr := runStore.DeleteRun(run.ID); derr != nil && !errors.Is(derr, store.ErrNotFound) {
			slog.Warn("Failed to remove incomplete run", "run_id", run.ID, "error", derr)
		}
	}()

	observe := func(s bench.Sample) {
		err := trace.Write(store.TraceEntry{
			Size:      s.Size,
			Variant:   s.Variant.String(),
			Iteration: s.Iteration,
			ElapsedNs: s.Elapsed.Nanoseconds(),
			Timestamp: time.Now(),
		})
		if err != nil {
			slog.Warn("Failed to write trace entry", "error", err)
		}
	}

	report, err = bench.Run(ctx, cfg, observe)
	if err != nil {
		return nil, nil, err
	}

	if err = trace.Close(); err != nil {
		return nil, nil, fmt.Errorf("failed to close trace: %w", err)
	}
	run.Results = resultRecordsOf(report.Results)
	run.Timestamp = time.Now()
	if err = runStore.SaveRun(run); err != nil {
		return nil, nil, err
	}
	return report, run, nil
}

func benchConfigFromFlags() (bench.Config, error) {
	cfg := bench.DefaultConfig()
	cfg.Sizes = benchSizes
	cfg.Iterations = benchIterations
	cfg.Warmup = benchWarmup
	cfg.Seed = benchSeed
	cfg.Density = benchDensity
	cfg.Verify = benchVerify

	pattern, err := bench.ParsePattern(benchPattern)
	if err != nil {
		return cfg, err
	}
	cfg.Pattern = pattern

	if benchVariants != "all" {
		variants, err := homog.ParseVariants(benchVariants)
		if err != nil {
			return cfg, err
		}
		cfg.Variants = variants
	}

	return cfg, cfg.Validate()
}

// serveMetrics exposes the default Prometheus registry in the background.
// The returned func shuts the server down.
func serveMetrics(addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		slog.Info("Serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

func runConfigOf(cfg bench.Config) store.RunConfig {
	variants := make([]string, len(cfg.Variants))
	for i, v := range cfg.Variants {
		variants[i] = v.String()
	}
	rc := store.RunConfig{
		Sizes:      cfg.Sizes,
		Variants:   variants,
		Iterations: cfg.Iterations,
		Warmup:     cfg.Warmup,
		Seed:       cfg.Seed,
		Pattern:    string(cfg.Pattern),
	}
	if cfg.Pattern == bench.PatternSparse {
		rc.Density = cfg.Density
	}
	return rc
}

func resultRecordsOf(results []bench.Result) []store.ResultRecord {
	records := make([]store.ResultRecord, len(results))
	for i, r := range results {
		records[i] = store.ResultRecord{
			Size:       r.Size,
			Variant:    r.Variant.String(),
			Iterations: r.Iterations,
			MinNs:      r.Min.Nanoseconds(),
			MeanNs:     r.Mean.Nanoseconds(),
			MedianNs:   r.Median.Nanoseconds(),
			MaxNs:      r.Max.Nanoseconds(),
			NsPerCell:  r.NsPerCell,
			Nodes:      r.Tree.Nodes,
			Leaves:     r.Tree.Leaves,
			Depth:      r.Tree.Depth,
		}
	}
	return records
}

func printResultRecords(out io.Writer, records []store.ResultRecord) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "SIZE\tVARIANT\tMEAN\tMEDIAN\tMIN\tMAX\tNS/CELL\tLEAVES\tDEPTH\t")
	for _, r := range records {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%.3f\t%d\t%d\t\n",
			r.Size,
			r.Variant,
			time.Duration(r.MeanNs),
			time.Duration(r.MedianNs),
			time.Duration(r.MinNs),
			time.Duration(r.MaxNs),
			r.NsPerCell,
			r.Leaves,
			r.Depth,
		)
	}
	w.Flush()
}
