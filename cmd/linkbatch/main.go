// Package main provides the CLI entry point for one-shot local processing:
// a link file in, a zip of per-batch template copies out.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"linkbatch/internal/config"
	"linkbatch/internal/loader"
	"linkbatch/internal/model"
	"linkbatch/internal/service"
	"linkbatch/internal/template"
)

var (
	platformName string
	batchSize    int
	column       string
	outputDir    string
	templatePath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "linkbatch [input.csv|input.xlsx]",
		Short: "Split a link file into batches of template spreadsheets",
		Long: `linkbatch reads a CSV or Excel file containing links, splits them into
fixed-size batches, writes each batch into a copy of the platform's
spreadsheet template, and bundles the copies into one zip archive.`,
		Args: cobra.ExactArgs(1),
		RunE: run,
	}

	rootCmd.Flags().StringVarP(&platformName, "platform", "p", "", "Platform: Instagram or TikTok (required)")
	rootCmd.Flags().IntVarP(&batchSize, "batch-size", "b", 100, "Number of links per output file (1-500)")
	rootCmd.Flags().StringVar(&column, "column", "", "Link column name (default: auto-detect)")
	rootCmd.Flags().StringVarP(&outputDir, "output-dir", "o", ".", "Directory the zip archive is written to")
	rootCmd.Flags().StringVar(&templatePath, "template", "", "Template file path (default: configured search paths)")
	rootCmd.MarkFlagRequired("platform")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	inputPath := args[0]

	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", inputPath)
	}

	platform, ok := model.ParsePlatform(platformName)
	if !ok {
		return fmt.Errorf("invalid platform %q (must be one of %v)", platformName, model.Platforms())
	}

	// The flag always carries a value, so an explicit 0 must not fall
	// through to the service's "unset" default handling.
	if batchSize < service.MinBatchSize || batchSize > service.MaxBatchSize {
		return fmt.Errorf("batch size must be between %d and %d, got %d", service.MinBatchSize, service.MaxBatchSize, batchSize)
	}

	searchPaths := config.Load().Templates.SearchPaths()
	if templatePath != "" {
		searchPaths[platform] = []string{templatePath}
	}
	registry := template.NewRegistry(searchPaths)

	f, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	svc := service.NewRunService(registry, zap.NewNop())
	res, err := svc.Run(context.Background(), service.RunInput{
		Reader:    f,
		Filename:  filepath.Base(inputPath),
		Platform:  platform,
		BatchSize: batchSize,
		Column:    column,
	})
	if err != nil {
		var mce *loader.MissingColumnError
		if errors.As(err, &mce) {
			fmt.Fprintln(os.Stderr, "No link column recognized. Available columns:")
			for _, col := range mce.Columns {
				fmt.Fprintf(os.Stderr, "  - %s\n", col)
			}
			return fmt.Errorf("re-run with --column to select one")
		}
		return err
	}

	outPath := filepath.Join(outputDir, res.ArchiveName)
	if err := os.WriteFile(outPath, res.Archive, 0644); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}

	fmt.Printf("Processed %d links from column %q\n", res.Stats.TotalLinks, res.Stats.Column)
	fmt.Printf("  Batch size:   %d\n", res.Stats.BatchSize)
	fmt.Printf("  Output files: %d\n", res.Stats.NumBatches)
	fmt.Printf("  Archive:      %s\n", outPath)
	return nil
}
