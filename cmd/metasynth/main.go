package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "metasynth",
	Short: "Metasynth - audit report segmentation and chunking",
	Long: `Metasynth splits highlighted audit reports into labeled sections and
token-bounded chunks.

Paragraph highlight colors map to section labels (summary, findings,
recommendations, ...), sections are cut into chunks at sentence
boundaries, and every document is validated and exported as a JSONL
chunk feed plus human-readable reports.`,
	Version: version,
}

func init() {
	rootCmd.AddCommand(segmentCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(versionCmd)
}
