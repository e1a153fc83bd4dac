// Command transform turns a raw harvest table into the processed book
// table and the category aggregate table.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rmachado/go-book-harvest/config"
	"github.com/rmachado/go-book-harvest/models"
	"github.com/rmachado/go-book-harvest/pipeline"
)

func main() {
	defaultCfg := config.DefaultConfig()

	dataDirDefault := defaultCfg.DataDir
	if value, ok := config.EnvString("HARVEST_DATA_DIR"); ok {
		dataDirDefault = value
	}

	dataDir := flag.String("data-dir", dataDirDefault, "Data directory (reads raw/, writes processed/)")
	input := flag.String("input", "", "Raw harvest table to read (defaults to <data-dir>/raw/books_data.csv)")
	outputFormat := flag.String("format", defaultCfg.OutputFormat, "Output format: csv, json, or dual")
	sqlitePath := flag.String("sqlite", "", "Optional sqlite snapshot path (e.g. data/processed/books.db)")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	rawPath := *input
	if rawPath == "" {
		rawPath = filepath.Join(*dataDir, "raw", pipeline.RawFile)
	}
	format := strings.ToLower(*outputFormat)

	raw, err := pipeline.ReadRawCSV(rawPath)
	if err != nil {
		slog.Error("loading raw harvest", slog.String("path", rawPath), slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("raw harvest loaded", slog.Int("records", len(raw)), slog.String("path", rawPath))

	start := time.Now()
	processed, stats := pipeline.Transform(raw)
	slog.Info("transform complete",
		slog.Int("processed", len(processed)),
		slog.Int("categories", len(stats)),
		slog.Duration("took", time.Since(start).Round(time.Millisecond)),
	)

	if err := pipeline.WriteProcessedOutputs(*dataDir, format, processed, stats); err != nil {
		slog.Error("writing processed output", slog.Any("error", err))
		os.Exit(1)
	}

	if *sqlitePath != "" {
		if err := writeStore(*sqlitePath, processed, stats); err != nil {
			// The CSV outputs already landed; the snapshot is just missing.
			slog.Error("writing sqlite snapshot", slog.Any("error", err))
		}
	}

	printSummary(processed, stats, filepath.Join(*dataDir, "processed"))
}

func writeStore(path string, processed []*models.ProcessedBook, stats []*models.CategoryStats) error {
	store, err := pipeline.OpenStore(path)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Replace(context.Background(), processed, stats)
}

func printSummary(processed []*models.ProcessedBook, stats []*models.CategoryStats, outputDir string) {
	var priceSum, ratingSum float64
	for _, b := range processed {
		priceSum += b.Price
		ratingSum += float64(b.Rating)
	}

	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Transform complete")
	fmt.Printf("  Books:       %d\n", len(processed))
	fmt.Printf("  Categories:  %d\n", len(stats))
	if len(processed) > 0 {
		fmt.Printf("  Avg price:   £%.2f\n", priceSum/float64(len(processed)))
		fmt.Printf("  Avg rating:  %.2f\n", ratingSum/float64(len(processed)))
	}
	fmt.Printf("  Output dir:  %s\n", outputDir)
	fmt.Println(separator)
}
