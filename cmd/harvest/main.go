// Command harvest crawls the catalogue site and writes the raw harvest
// table plus periodic checkpoints.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rmachado/go-book-harvest/config"
	"github.com/rmachado/go-book-harvest/crawler"
	"github.com/rmachado/go-book-harvest/models"
	"github.com/rmachado/go-book-harvest/pipeline"
)

func main() {
	defaultCfg := config.DefaultConfig()

	baseDefault := defaultCfg.BaseURL
	if value, ok := config.EnvString("HARVEST_BASE_URL"); ok {
		baseDefault = value
	}
	dataDirDefault := defaultCfg.DataDir
	if value, ok := config.EnvString("HARVEST_DATA_DIR"); ok {
		dataDirDefault = value
	}
	metricsDefault := defaultCfg.MetricsAddr
	if value, ok := config.EnvString("HARVEST_METRICS_ADDR"); ok {
		metricsDefault = value
	}
	pagesDefault := defaultCfg.MaxPages
	if value, ok, err := config.EnvInt("HARVEST_MAX_PAGES"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid HARVEST_MAX_PAGES: %v\n", err)
		os.Exit(1)
	} else if ok {
		pagesDefault = value
	}

	baseURL := flag.String("base-url", baseDefault, "Base catalogue URL to crawl")
	maxPages := flag.Int("pages", pagesDefault, "Safety cap on catalogue pages")
	listingDelayMs := flag.Int("listing-delay", int(defaultCfg.ListingDelay/time.Millisecond), "Delay after each listing-page fetch (milliseconds)")
	detailDelayMs := flag.Int("detail-delay", int(defaultCfg.DetailDelay/time.Millisecond), "Delay after each detail-page fetch (milliseconds)")
	checkpointEvery := flag.Int("checkpoint-every", defaultCfg.CheckpointEvery, "Records between checkpoint snapshots")
	dataDir := flag.String("data-dir", dataDirDefault, "Output directory")
	outputFormat := flag.String("format", defaultCfg.OutputFormat, "Output format: csv, json, or dual")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg := defaultCfg
	cfg.BaseURL = *baseURL
	cfg.MaxPages = *maxPages
	cfg.ListingDelay = time.Duration(*listingDelayMs) * time.Millisecond
	cfg.DetailDelay = time.Duration(*detailDelayMs) * time.Millisecond
	cfg.CheckpointEvery = *checkpointEvery
	cfg.DataDir = *dataDir
	cfg.OutputFormat = strings.ToLower(*outputFormat)
	cfg.MetricsAddr = *metricsAddr
	cfg.Verbose = *verbose

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("starting harvest",
		slog.String("base_url", cfg.BaseURL),
		slog.Duration("listing_delay", cfg.ListingDelay),
		slog.Duration("detail_delay", cfg.DetailDelay),
	)

	checkpointer := pipeline.NewCheckpointer(cfg.DataDir)
	c, err := crawler.New(cfg, checkpointer.Write)
	if err != nil {
		slog.Error("initialising crawler", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, finishing current item")
	}()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(c.Metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	records, result, err := c.Run(ctx)
	if err != nil {
		slog.Error("harvest failed", slog.Any("error", err))
		os.Exit(1)
	}

	if err := pipeline.WriteRawOutputs(cfg.DataDir, cfg.OutputFormat, records); err != nil {
		// In-memory data is intact; report the artifact as missing.
		slog.Error("writing raw output failed", slog.Any("error", err))
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(result, filepath.Join(cfg.DataDir, "raw"))
}

func printSummary(result *models.HarvestResult, outputDir string) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Harvest complete")
	fmt.Printf("  Records:        %d\n", result.RecordsHarvested)
	fmt.Printf("  Pages:          %d\n", result.PagesDiscovered)
	fmt.Printf("  Pages failed:   %d\n", result.PagesFailed)
	fmt.Printf("  Details failed: %d\n", result.DetailsFailed)
	fmt.Printf("  Dropped:        %d\n", result.RecordsDropped)
	fmt.Printf("  Checkpoints:    %d\n", result.CheckpointsWritten)
	fmt.Printf("  Requests:       %d\n", result.RequestCount)
	if len(result.ErrorsByType) > 0 {
		fmt.Printf("  Error types:    %v\n", result.ErrorsByType)
	}
	fmt.Printf("  Duration:       %v\n", result.EndTime.Sub(result.StartTime).Round(time.Millisecond))
	fmt.Printf("  Output dir:     %s\n", outputDir)
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
