// cmd/transformer/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/David-Botos/ml-logs-transformer/pkg/config"
	"github.com/David-Botos/ml-logs-transformer/pkg/pipeline"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logsPath := flag.String("logs", cfg.LogsPath, "Path to the newline-delimited JSON log file")
	experimentsPath := flag.String("experiments", cfg.ExperimentsPath, "Path to the experiments CSV file")
	outputPath := flag.String("output", cfg.OutputPath, "Output directory for partitioned parquet")
	hours := flag.Float64("hours", cfg.LateHours, "Ingestion-lag threshold in hours (strictly exceeded rows are kept)")
	mode := flag.String("mode", cfg.EngineMode, "Engine execution mode, e.g. local[1] or local[*]")
	flag.Parse()

	cfg.EngineMode = *mode

	logger, err := buildLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if *logsPath == "" || *outputPath == "" {
		return fmt.Errorf("both -logs and -output are required")
	}
	if cfg.ExperimentsSource == config.SourceFile && *experimentsPath == "" {
		return fmt.Errorf("-experiments is required when experiments come from a file")
	}

	runner := pipeline.NewRunner(cfg, logger)
	result, err := runner.Run(context.Background(), pipeline.Params{
		LogsPath:        *logsPath,
		ExperimentsPath: *experimentsPath,
		OutputPath:      *outputPath,
		Hours:           *hours,
	})
	if err != nil {
		logger.Error("Pipeline run failed",
			zap.String("runID", result.RunID),
			zap.Error(err))
		return err
	}

	return nil
}

// buildLogger constructs the process logger from the configured level and
// format ("json" or "console").
func buildLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	if format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(lvl)

	return zapCfg.Build()
}
