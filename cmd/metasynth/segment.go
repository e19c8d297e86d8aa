package main

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/kweidner/metasynth/internal/config"
	"github.com/kweidner/metasynth/internal/document"
	"github.com/kweidner/metasynth/internal/export"
	"github.com/kweidner/metasynth/internal/parser"
	"github.com/kweidner/metasynth/internal/pipeline"
)

var (
	segmentProfile string
	segmentOut     string
	segmentMaxTok  int
	segmentMinTok  int
	segmentOverlap int
	segmentPdftext bool
	segmentVerbose bool
)

var segmentCmd = &cobra.Command{
	Use:   "segment [patterns...]",
	Short: "Segment documents into labeled, validated chunks",
	Long: `Segment runs the full pipeline over every file matching the given
glob patterns and writes the chunk feed, reports and verification
document for each one.

Patterns support ** for recursive matching.

Examples:
  # One file
  metasynth segment bericht.docx

  # Every report under a folder
  metasynth segment "reports/**/*.docx"

  # Custom profile and output directory
  metasynth segment -p profil.yaml -o ergebnisse "**/*.docx"
`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSegment,
}

func init() {
	segmentCmd.Flags().StringVarP(&segmentProfile, "profile", "p", "", "Path to a YAML segmentation profile")
	segmentCmd.Flags().StringVarP(&segmentOut, "out", "o", "out", "Output directory for exports")
	segmentCmd.Flags().IntVar(&segmentMaxTok, "max-tokens", 0, "Override the profile's max tokens per chunk")
	segmentCmd.Flags().IntVar(&segmentMinTok, "min-tokens", -1, "Override the profile's min tokens per chunk")
	segmentCmd.Flags().IntVar(&segmentOverlap, "overlap-tokens", -1, "Override the profile's chunk overlap")
	segmentCmd.Flags().BoolVar(&segmentPdftext, "pdftotext-fallback", true, "Fall back to the pdftotext binary for stubborn PDFs")
	segmentCmd.Flags().BoolVarP(&segmentVerbose, "verbose", "v", false, "Log every pipeline step")
}

func runSegment(cmd *cobra.Command, args []string) error {
	level := slog.LevelWarn
	if segmentVerbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	profile, err := config.LoadProfile(segmentProfile)
	if err != nil {
		return err
	}

	chunkCfg := profile.Chunking
	if segmentMaxTok > 0 {
		chunkCfg.MaxTokens = segmentMaxTok
	}
	if segmentMinTok >= 0 {
		chunkCfg.MinTokens = segmentMinTok
	}
	if segmentOverlap >= 0 {
		chunkCfg.OverlapTokens = segmentOverlap
	}
	if err := chunkCfg.Validate(); err != nil {
		return fmt.Errorf("chunk sizing: %w", err)
	}
	profile.Chunking = chunkCfg

	engine, err := pipeline.NewEngine(profile)
	if err != nil {
		return err
	}
	catalog, err := profile.Catalog()
	if err != nil {
		return err
	}
	exporter := export.NewExporter(segmentOut, catalog, log)

	paths, err := expandPatterns(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no supported documents match %s", strings.Join(args, ", "))
	}

	failed := 0
	notPassed := 0
	for _, path := range paths {
		res, err := segmentFile(engine, exporter, path)
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			continue
		}
		fmt.Printf("%-44s %3d sections %4d chunks  %s\n",
			res.DocID, len(res.Sections), len(res.Chunks), verdict(res))
		if !res.Report.Passed() {
			notPassed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(paths))
	}
	if notPassed > 0 {
		// A failed validation verdict drives the exit code so CI can
		// gate on it.
		os.Exit(2)
	}
	return nil
}

// expandPatterns resolves glob patterns to a sorted, deduplicated list
// of supported document paths.
func expandPatterns(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if seen[m] || !parser.IsSupportedExtension(m) {
				continue
			}
			info, err := os.Stat(m)
			if err != nil || info.IsDir() {
				continue
			}
			seen[m] = true
			paths = append(paths, m)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// segmentFile runs one document through parse, segment and export.
func segmentFile(engine *pipeline.Engine, exporter *export.Exporter, path string) (*document.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	p, err := parser.ForFile(path)
	if err != nil {
		return nil, err
	}
	if pdf, ok := p.(*parser.PDFParser); ok {
		pdf.FallbackPdftotext = segmentPdftext
	}

	paras, err := p.Parse(bytes.NewReader(data), path)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	docID := pipeline.DocIDFor(path, pipeline.ContentHashHex(data))
	res, err := engine.ProcessDocument(docID, paras)
	if err != nil {
		return nil, err
	}

	if err := exporter.WriteResult(res); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return res, nil
}

func verdict(res *document.Result) string {
	if res.Report.Passed() {
		if n := res.Report.Warnings(); n > 0 {
			return fmt.Sprintf("passed (%d warnings)", n)
		}
		return "passed"
	}
	return "FAILED"
}
