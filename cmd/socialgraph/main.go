package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "socialgraph",
	Short: "Social graph backend: follow graph, posts, fan-out timelines",
	Long: `socialgraph serves the follow graph, post actions and fan-out timelines over
HTTP, backed by Redis. Configuration comes from config.yaml, .env and
SOCIALGRAPH_* environment variables.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reconcileCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
