// Package pipeline wires the stages end to end: registry and degradation
// schedule, telemetry simulation, preprocessing, feature derivation, and the
// stratified dashboard sample. Per-unit defects accumulate as diagnostics
// alongside the output; only configuration errors abort a run.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gridguardian/gridsim/internal/config"
	"github.com/gridguardian/gridsim/internal/features"
	"github.com/gridguardian/gridsim/internal/preprocess"
	"github.com/gridguardian/gridsim/internal/registry"
	"github.com/gridguardian/gridsim/internal/sampling"
	"github.com/gridguardian/gridsim/internal/simulator"
	gserr "github.com/gridguardian/gridsim/pkg/errors"
	"github.com/gridguardian/gridsim/pkg/metrics"
	"github.com/gridguardian/gridsim/pkg/models"
)

// Result carries every table a run produces plus the accumulated diagnostics.
type Result struct {
	RunID    string
	Registry *registry.Registry
	Schedule *registry.Schedule

	Raw      []models.TelemetryRecord
	Cleaned  []models.TelemetryRecord
	Features []models.FeatureRecord
	Sample   []models.FeatureRecord

	CleanReport preprocess.Report
	// SampleShortfall is set when the requested sample size exceeded the
	// available rows; the sample still holds everything available.
	SampleShortfall *gserr.SamplingError

	Engine *features.Engine
}

// Runner executes the pipeline for one configuration.
type Runner struct {
	cfg    *config.Config
	logger *zap.Logger
}

// New builds a runner.
func New(cfg *config.Config, logger *zap.Logger) *Runner {
	return &Runner{cfg: cfg, logger: logger}
}

// Run executes all stages. The context bounds the whole batch job; cancellation
// aborts between generation chunks.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	runID := uuid.NewString()
	log := r.logger.With(zap.String("run_id", runID))
	cfg := r.cfg

	res := &Result{RunID: runID}

	// Registry + episode schedule, fixed before any telemetry exists.
	reg, err := registry.Build(cfg.Fleet.Substations, cfg.Fleet.EquipmentPerSubstation, cfg.Simulation.Seed)
	if err != nil {
		return nil, err
	}
	sched := registry.BuildSchedule(reg, cfg.Simulation.HorizonHours, cfg.Simulation.DegradedFraction, cfg.Simulation.Seed)
	res.Registry, res.Schedule = reg, sched
	log.Info("fleet registered",
		zap.Int("units", reg.Len()),
		zap.Int("degrading_units", sched.DegradedCount()))

	// Simulation.
	sim, err := simulator.New(simulator.Options{
		Start:      cfg.Start(),
		Horizon:    cfg.Simulation.HorizonHours,
		Seed:       cfg.Simulation.Seed,
		ChunkHours: cfg.Simulation.ChunkHours,
		Workers:    cfg.Simulation.Workers,
		NoiseScale: cfg.Simulation.NoiseScale,
		Envelopes:  cfg.EnvelopeTable(),
	}, sched, log.Named("simulator"))
	if err != nil {
		return nil, err
	}

	stageStart := time.Now()
	res.Raw, err = sim.Run(ctx, reg)
	if err != nil {
		return nil, err
	}
	metrics.StageDuration.WithLabelValues("simulate").Observe(time.Since(stageStart).Seconds())

	// Preprocessing.
	stageStart = time.Now()
	pre := preprocess.New(preprocess.Policy{
		Envelopes:  cfg.EnvelopeTable(),
		MaxFillGap: time.Duration(cfg.Preprocess.MaxFillGapHours) * time.Hour,
	}, log.Named("preprocess"))
	res.Cleaned, res.CleanReport = pre.Clean(res.Raw)
	metrics.StageDuration.WithLabelValues("preprocess").Observe(time.Since(stageStart).Seconds())
	observeCleanReport(res.CleanReport)
	log.Info("batch cleaned",
		zap.Int("input_rows", res.CleanReport.InputRows),
		zap.Int("output_rows", res.CleanReport.OutputRows),
		zap.Int("duplicates_dropped", res.CleanReport.DuplicatesDropped),
		zap.Int("values_clipped", res.CleanReport.ValuesClipped),
		zap.Int("rows_dropped", res.CleanReport.RowsDropped),
		zap.Int("units_excluded", len(res.CleanReport.Excluded)))

	// Feature derivation.
	stageStart = time.Now()
	engine, err := features.NewEngine(reg, cfg.Features.RollingWindows, thresholdsFromConfig(cfg), log.Named("features"))
	if err != nil {
		return nil, err
	}
	res.Engine = engine
	res.Features = engine.Transform(res.Cleaned)
	metrics.StageDuration.WithLabelValues("features").Observe(time.Since(stageStart).Seconds())
	log.Info("feature table derived",
		zap.Int("rows", len(res.Features)),
		zap.Int("rolling_columns", len(engine.RollingColumns())))

	// Stratified sample for interactive consumers.
	stageStart = time.Now()
	sample, sampleErr := sampling.Stratified(res.Features, cfg.Sample.Size, cfg.Sample.Seed)
	res.Sample = sample
	if sampleErr != nil {
		var shortfall *gserr.SamplingError
		if gserr.As(sampleErr, &shortfall) {
			res.SampleShortfall = shortfall
			log.Warn("sample smaller than requested",
				zap.Int("requested", shortfall.Requested),
				zap.Int("available", shortfall.Available))
		} else {
			return nil, sampleErr
		}
	}
	metrics.StageDuration.WithLabelValues("sample").Observe(time.Since(stageStart).Seconds())

	log.Info("pipeline complete",
		zap.Int("raw_rows", len(res.Raw)),
		zap.Int("feature_rows", len(res.Features)),
		zap.Int("sample_rows", len(res.Sample)))
	return res, nil
}

func thresholdsFromConfig(cfg *config.Config) features.Thresholds {
	return features.Thresholds{
		TempHighC:          cfg.Features.TempHighC,
		TempMediumC:        cfg.Features.TempMediumC,
		AcetyleneHighPPM:   cfg.Features.AcetyleneHighPPM,
		AcetyleneMediumPPM: cfg.Features.AcetyleneMediumPPM,
		VibrationHighMMS:   cfg.Features.VibrationHighMMS,
		VibrationMediumMMS: cfg.Features.VibrationMediumMMS,
	}
}

func observeCleanReport(rep preprocess.Report) {
	metrics.RowsDropped.WithLabelValues("null_policy").Add(float64(rep.RowsDropped))
	metrics.RowsDropped.WithLabelValues("duplicate").Add(float64(rep.DuplicatesDropped))
	metrics.ValuesRepaired.WithLabelValues("clipped").Add(float64(rep.ValuesClipped))
	metrics.ValuesRepaired.WithLabelValues("filled").Add(float64(rep.ValuesFilled))
	metrics.UnitsExcluded.Add(float64(len(rep.Excluded)))
}
