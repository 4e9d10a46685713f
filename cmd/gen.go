package main

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/cwbudde/regionquadtree/internal/bench"
	"github.com/cwbudde/regionquadtree/internal/grid"
	"github.com/spf13/cobra"
)

var (
	genSize    int
	genPattern string
	genSeed    int64
	genDensity float64
	genOut     string
)

var genCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate a grid file",
	Long: `Generate a square grid and write it in the raw grid format.
Output paths ending in .zst are zstd-compressed.`,
	RunE: runGen,
}

func init() {
	rootCmd.AddCommand(genCmd)

	genCmd.Flags().IntVar(&genSize, "size", 1024, "Grid side length (power of two)")
	genCmd.Flags().StringVar(&genPattern, "pattern", string(bench.PatternRandom), "Grid pattern: random, sparse or uniform")
	genCmd.Flags().Int64Var(&genSeed, "seed", 42, "Random seed")
	genCmd.Flags().Float64Var(&genDensity, "density", 0.01, "Fraction of set cells for the sparse pattern")
	genCmd.Flags().StringVarP(&genOut, "out", "o", "grid.rqg", "Output path")
}

func runGen(cmd *cobra.Command, args []string) error {
	g, err := generateGrid(genSize, genPattern, genSeed, genDensity)
	if err != nil {
		return err
	}

	if err := grid.WriteFile(genOut, g); err != nil {
		return err
	}

	slog.Info("Grid written", "path", genOut, "size", genSize, "pattern", genPattern, "seed", genSeed)
	return nil
}

// generateGrid builds one grid the same way the benchmark driver does.
func generateGrid(size int, pattern string, seed int64, density float64) (*grid.Grid, error) {
	p, err := bench.ParsePattern(pattern)
	if err != nil {
		return nil, err
	}

	cfg := bench.DefaultConfig()
	cfg.Sizes = []int{size}
	cfg.Pattern = p
	cfg.Seed = seed
	cfg.Density = density
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid grid parameters: %w", err)
	}

	return bench.NewGrid(cfg, size, rand.New(rand.NewSource(seed))), nil
}
