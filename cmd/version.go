package main

import (
	"fmt"

	"github.com/cwbudde/regionquadtree/internal/homog"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("regionquadtree version %s (vector backend: %s)\n", version, homog.ActiveVectorBackend)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
