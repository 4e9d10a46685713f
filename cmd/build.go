package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/cwbudde/regionquadtree/internal/grid"
	"github.com/cwbudde/regionquadtree/internal/homog"
	"github.com/cwbudde/regionquadtree/internal/quadtree"
	"github.com/segmentio/encoding/json"
	"github.com/spf13/cobra"
)

var (
	buildIn      string
	buildSize    int
	buildPattern string
	buildSeed    int64
	buildDensity float64
	buildPad     uint8
	buildVariant string
	buildVerify  bool
	buildPrint   string
	buildJSON    bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a quadtree from a grid file, an image or a generated grid",
	Long: `Build a region quadtree and report its shape.

The input is a grid file written by "gen" (.rqg, optionally .zst), an image
(PNG, GIF, JPEG or BMP, converted to 8-bit gray and padded to the next power
of two), or, without --in, a grid generated from --size and --pattern.`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVarP(&buildIn, "in", "i", "", "Input grid file or image")
	buildCmd.Flags().IntVar(&buildSize, "size", 256, "Generated grid side length when --in is not set")
	buildCmd.Flags().StringVar(&buildPattern, "pattern", "sparse", "Generated grid pattern: random, sparse or uniform")
	buildCmd.Flags().Int64Var(&buildSeed, "seed", 42, "Random seed for generated grids")
	buildCmd.Flags().Float64Var(&buildDensity, "density", 0.01, "Fraction of set cells for the sparse pattern")
	buildCmd.Flags().Uint8Var(&buildPad, "pad", 0, "Fill value used when padding images to a power of two")
	buildCmd.Flags().StringVar(&buildVariant, "variant", homog.Vectorized.String(), "Homogeneity variant: naive, early-exit or vectorized")
	buildCmd.Flags().BoolVar(&buildVerify, "verify", false, "Also build with every other variant and compare the trees")
	buildCmd.Flags().StringVar(&buildPrint, "print", "", "Print the tree (tree) or its leaves (leaves)")
	buildCmd.Flags().BoolVar(&buildJSON, "json", false, "Print statistics as JSON")
}

func runBuild(cmd *cobra.Command, args []string) error {
	variant, err := homog.ParseVariant(buildVariant)
	if err != nil {
		return err
	}
	if buildPrint != "" && buildPrint != "tree" && buildPrint != "leaves" {
		return fmt.Errorf("unknown --print mode %q (want tree or leaves)", buildPrint)
	}

	g, err := loadGrid()
	if err != nil {
		return err
	}

	builder := quadtree.NewBuilder(quadtree.WithVariant(variant))
	start := time.Now()
	root, err := builder.Build(g.Pix, g.Width, g.Height, g.Stride)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	stats := root.Stats()
	slog.Info("Quadtree built",
		"variant", variant.String(),
		"size", g.Width,
		"nodes", stats.Nodes,
		"leaves", stats.Leaves,
		"depth", stats.Depth,
		"elapsed", elapsed,
	)

	if buildVerify {
		if err := verifyVariants(g, variant, root); err != nil {
			return err
		}
	}

	if buildJSON {
		out := struct {
			Variant   string         `json:"variant"`
			Size      int            `json:"size"`
			ElapsedNs int64          `json:"elapsedNs"`
			Stats     quadtree.Stats `json:"stats"`
		}{variant.String(), g.Width, elapsed.Nanoseconds(), stats}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode statistics: %w", err)
		}
		fmt.Println(string(data))
	} else {
		printStats(os.Stdout, variant, g.Width, elapsed, stats)
	}

	switch buildPrint {
	case "tree":
		fmt.Print(root.String())
	case "leaves":
		printLeaves(os.Stdout, root)
	}
	return nil
}

func loadGrid() (*grid.Grid, error) {
	if buildIn == "" {
		return generateGrid(buildSize, buildPattern, buildSeed, buildDensity)
	}

	if isImagePath(buildIn) {
		g, err := grid.ReadImageFile(buildIn)
		if err != nil {
			return nil, err
		}
		padded := g.PadToPowerOfTwo(buildPad)
		if padded != g {
			slog.Info("Image padded", "width", g.Width, "height", g.Height, "side", padded.Width)
		}
		return padded, nil
	}

	return grid.ReadFile(buildIn)
}

func isImagePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".gif", ".jpg", ".jpeg", ".bmp":
		return true
	}
	return false
}

// verifyVariants rebuilds the tree with every other variant and checks the
// root region with all testers.
func verifyVariants(g *grid.Grid, built homog.Variant, root *quadtree.Node) error {
	if !homog.CompareImplementations(g.View()) {
		return fmt.Errorf("homogeneity testers disagree on the root region")
	}
	for _, v := range homog.Variants {
		if v == built {
			continue
		}
		other, err := quadtree.Build(g.Pix, g.Width, g.Height, g.Stride, quadtree.WithVariant(v))
		if err != nil {
			return err
		}
		if !root.Equal(other) {
			return fmt.Errorf("%s and %s built different trees", built, v)
		}
	}
	slog.Info("All variants agree", "variants", len(homog.Variants))
	return nil
}

func printStats(out io.Writer, variant homog.Variant, size int, elapsed time.Duration, stats quadtree.Stats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Variant:\t%s\n", variant)
	fmt.Fprintf(w, "Grid:\t%dx%d\n", size, size)
	fmt.Fprintf(w, "Elapsed:\t%s\n", elapsed)
	fmt.Fprintf(w, "Nodes:\t%d\n", stats.Nodes)
	fmt.Fprintf(w, "Leaves:\t%d\n", stats.Leaves)
	fmt.Fprintf(w, "Internal:\t%d\n", stats.Internal)
	fmt.Fprintf(w, "Depth:\t%d\n", stats.Depth)
	fmt.Fprintf(w, "Largest leaf:\t%d\n", stats.LargestLeaf)
	w.Flush()
}

func printLeaves(out io.Writer, root *quadtree.Node) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ROW\tCOL\tSIDE\tVALUE")
	for _, leaf := range root.Leaves() {
		row, col, side := leaf.Bounds()
		v, _ := leaf.Value()
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\n", row, col, side, v)
	}
	w.Flush()
}
