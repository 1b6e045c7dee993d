package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/gridguardian/gridsim/internal/config"
	"github.com/gridguardian/gridsim/internal/pipeline"
	gserr "github.com/gridguardian/gridsim/pkg/errors"
	"github.com/gridguardian/gridsim/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file")
	outDir := flag.String("out", "data", "directory for the exported tables")
	sampleSize := flag.Int("sample-size", 0, "override sample.size from configuration")
	flag.Parse()

	// Load configuration; an invalid configuration fails before any generation.
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("configuration: %v", err)
	}
	if *sampleSize > 0 {
		cfg.Sample.Size = *sampleSize
	}

	zapLogger, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	// Standard batch-job abort: SIGINT/SIGTERM cancels between chunks.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := pipeline.New(cfg, zapLogger)
	result, err := runner.Run(ctx)
	if err != nil {
		var cfgErr *gserr.ConfigurationError
		if gserr.As(err, &cfgErr) {
			zapLogger.Error("invalid configuration", zap.Error(err))
			os.Exit(2)
		}
		zapLogger.Error("pipeline failed", zap.Error(err))
		os.Exit(1)
	}

	// Per-unit diagnostics are partial-output conditions, not failures.
	for _, diag := range result.CleanReport.Excluded {
		zapLogger.Warn("unit excluded from output",
			zap.String("equipment_id", diag.EquipmentID),
			zap.String("kind", diag.Kind),
			zap.String("detail", diag.Detail))
	}

	if err := result.Export(*outDir); err != nil {
		zapLogger.Error("export failed", zap.Error(err))
		os.Exit(1)
	}
	zapLogger.Info("tables exported", zap.String("dir", *outDir))
}
