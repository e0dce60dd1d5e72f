// pkg/pipeline/runner.go
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/David-Botos/ml-logs-transformer/pkg/config"
	"github.com/David-Botos/ml-logs-transformer/pkg/connector"
	"github.com/David-Botos/ml-logs-transformer/pkg/engine"
	"github.com/David-Botos/ml-logs-transformer/pkg/loader"
	"github.com/David-Botos/ml-logs-transformer/pkg/table"
	"github.com/David-Botos/ml-logs-transformer/pkg/writer"
)

// Params carries the per-run inputs. The late-log threshold is passed here,
// programmatically, rather than read from the environment by the stages.
type Params struct {
	LogsPath        string
	ExperimentsPath string
	OutputPath      string
	Hours           float64
}

// StageStat records the outcome of one pipeline stage.
type StageStat struct {
	Name     string
	Rows     int
	Duration time.Duration
}

// RunResult summarizes a completed pipeline run.
type RunResult struct {
	RunID      string
	AppName    string
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	Stages     []StageStat
	Partitions int
}

// NewRunResult initializes a result for a new run.
func NewRunResult(appName string) *RunResult {
	return &RunResult{
		RunID:     uuid.New().String(),
		AppName:   appName,
		StartTime: time.Now(),
		Stages:    make([]StageStat, 0),
	}
}

// AddStage appends a stage outcome.
func (r *RunResult) AddStage(name string, rows int, duration time.Duration) {
	r.Stages = append(r.Stages, StageStat{Name: name, Rows: rows, Duration: duration})
}

// Complete marks the run as finished and computes its duration.
func (r *RunResult) Complete() {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
}

// Runner wires the full linear dataflow: engine, the three loaders, joiner,
// late-log filter, aggregator and partitioned writer. Every error propagates
// to the caller unchanged; no stage retries.
type Runner struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewRunner creates a pipeline runner.
func NewRunner(cfg *config.Config, logger *zap.Logger) *Runner {
	return &Runner{
		cfg:    cfg,
		logger: logger.Named("pipeline"),
	}
}

// Run executes the pipeline once and returns its summary. The partially
// filled result is returned alongside the error so callers can report how
// far the run got.
func (r *Runner) Run(ctx context.Context, params Params) (*RunResult, error) {
	result := NewRunResult(r.cfg.AppName)
	r.logger.Info("Starting run",
		zap.String("runID", result.RunID),
		zap.String("logsPath", params.LogsPath),
		zap.String("experimentsPath", params.ExperimentsPath),
		zap.String("outputPath", params.OutputPath),
		zap.Float64("hours", params.Hours))

	eng, err := engine.Get(r.cfg.EngineMode, r.cfg.AppName)
	if err != nil {
		return result, err
	}

	logs, err := r.timed(result, "load-logs", func() (*table.Table, error) {
		return loader.LoadLogs(ctx, eng, params.LogsPath)
	})
	if err != nil {
		return result, err
	}
	defer logs.Release()

	experiments, err := r.timed(result, "load-experiments", func() (*table.Table, error) {
		return r.loadExperiments(ctx, eng, params.ExperimentsPath)
	})
	if err != nil {
		return result, err
	}
	defer experiments.Release()

	metrics := loader.LoadMetrics(eng)
	defer metrics.Release()

	joined, err := r.timed(result, "join", func() (*table.Table, error) {
		return Join(eng, logs, experiments, metrics)
	})
	if err != nil {
		return result, err
	}
	defer joined.Release()

	filtered, err := r.timed(result, "filter-late", func() (*table.Table, error) {
		return FilterLate(eng, joined, params.Hours)
	})
	if err != nil {
		return result, err
	}
	defer filtered.Release()

	scores, err := r.timed(result, "aggregate", func() (*table.Table, error) {
		return Aggregate(eng, filtered)
	})
	if err != nil {
		return result, err
	}
	defer scores.Release()

	writeStart := time.Now()
	partitions, err := writer.Save(ctx, eng, scores, params.OutputPath)
	if err != nil {
		return result, err
	}
	result.AddStage("save", scores.NumRows(), time.Since(writeStart))
	result.Partitions = partitions

	if err := writer.VerifyPartitions(params.OutputPath, scores.NumRows()); err != nil {
		return result, err
	}

	result.Complete()
	r.logger.Info("Run complete",
		zap.String("runID", result.RunID),
		zap.Int("scoreRows", scores.NumRows()),
		zap.Int("partitions", partitions),
		zap.Duration("duration", result.Duration))

	return result, nil
}

// loadExperiments dispatches on the configured experiments source.
func (r *Runner) loadExperiments(ctx context.Context, eng *engine.Engine, path string) (*table.Table, error) {
	if r.cfg.ExperimentsSource == config.SourceFile {
		return loader.LoadExperiments(ctx, eng, path)
	}

	factory := connector.NewStoreFactory(r.cfg, r.logger)
	store, err := factory.CreateExperimentStore(ctx)
	if err != nil {
		return nil, &loader.DataSourceError{Source: r.cfg.ExperimentsSource, Err: err}
	}
	defer store.Close()

	if err := store.Validate(); err != nil {
		return nil, &loader.DataSourceError{Source: r.cfg.ExperimentsSource, Err: err}
	}

	return loader.LoadExperimentsFromStore(ctx, eng, store, r.cfg.ExperimentsQuery)
}

// timed runs one stage, records its row count and duration, and logs it.
func (r *Runner) timed(result *RunResult, name string, fn func() (*table.Table, error)) (*table.Table, error) {
	start := time.Now()
	t, err := fn()
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", name, err)
	}
	elapsed := time.Since(start)
	result.AddStage(name, t.NumRows(), elapsed)
	r.logger.Debug("Stage complete",
		zap.String("stage", name),
		zap.Int("rows", t.NumRows()),
		zap.Duration("duration", elapsed))
	return t, nil
}
