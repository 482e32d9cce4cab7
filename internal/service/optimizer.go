package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/busopt/internal/artifact"
	"github.com/UnknownOlympus/busopt/internal/clustering"
	"github.com/UnknownOlympus/busopt/internal/config"
	"github.com/UnknownOlympus/busopt/internal/dataset"
	"github.com/UnknownOlympus/busopt/internal/metrics"
	"github.com/UnknownOlympus/busopt/internal/models"
	"github.com/UnknownOlympus/busopt/internal/plot"
	"github.com/google/uuid"
)

// OptimizerService turns the configured dataset into proposed bus stop
// locations and stores the comparison artifacts of every run.
type OptimizerService struct {
	log     *slog.Logger            // Logger for pipeline activity
	metrics *metrics.Metrics        // Metrics for stage durations and outcomes
	store   *artifact.Store         // Store for the plot and CSV summaries
	csvPath string                  // Dataset read on every run
	cfg     config.ClusteringConfig // Worker count and k-means tuning
}

// NewOptimizerService creates a new instance of OptimizerService.
func NewOptimizerService(
	log *slog.Logger,
	metrics *metrics.Metrics,
	store *artifact.Store,
	csvPath string,
	cfg config.ClusteringConfig,
) *OptimizerService {
	return &OptimizerService{
		log:     log,
		metrics: metrics,
		store:   store,
		csvPath: csvPath,
		cfg:     cfg,
	}
}

// Optimize runs one optimization with the given parameters. Artifacts are
// written only after both clusterings succeed; a failure while writing removes
// whatever was already written for the run.
func (svc *OptimizerService) Optimize(ctx context.Context, params models.OptimizeParams) (*models.OptimizeResult, error) {
	runID := uuid.NewString()
	log := svc.log.With("run_id", runID)

	log.InfoContext(ctx, "Optimization started",
		"target_stations", params.TargetStations,
		"eps", params.Eps,
		"min_samples", params.MinSamples,
	)

	result, err := svc.run(ctx, log, runID, params)
	if err != nil {
		svc.metrics.Optimizations.WithLabelValues("failure").Inc()
		log.ErrorContext(ctx, "Optimization failed", "error", err)
		return nil, err
	}

	svc.metrics.Optimizations.WithLabelValues("success").Inc()
	svc.metrics.DBSCANClusters.Set(float64(result.DBSCANClusters))
	svc.metrics.NoisePoints.Set(float64(result.NoisePoints))
	log.InfoContext(ctx, "Optimization complete",
		"points", result.Points,
		"dbscan_clusters", result.DBSCANClusters,
		"noise_points", result.NoisePoints,
		"kmeans_iterations", result.KMeansIterations,
	)

	return result, nil
}

func (svc *OptimizerService) run(
	ctx context.Context,
	log *slog.Logger,
	runID string,
	params models.OptimizeParams,
) (*models.OptimizeResult, error) {
	var (
		ds       *dataset.Dataset
		features [][]float64
		density  *clustering.DBSCANResult
		top      []models.ClusterSummary
		centers  *clustering.KMeansResult
		err      error
	)

	err = svc.stage(ctx, log, metrics.StageLoad, func() error {
		ds, err = dataset.Load(svc.csvPath)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}

	svc.step(ctx, log, metrics.StageScale, func() {
		raw := make([][]float64, ds.Len())
		for i, p := range ds.Points {
			raw[i] = p.Features()
		}
		features = clustering.Standardize(raw)
	})

	err = svc.stage(ctx, log, metrics.StageDBSCAN, func() error {
		density, err = clustering.DBSCAN{
			Eps:        params.Eps,
			MinSamples: params.MinSamples,
			Workers:    svc.cfg.Workers,
		}.Fit(ctx, features)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("density clustering failed: %w", err)
	}

	svc.step(ctx, log, metrics.StageSummary, func() {
		top = clustering.TopDensityClusters(features, density.Labels, params.TargetStations)
	})

	err = svc.stage(ctx, log, metrics.StageKMeans, func() error {
		centers, err = clustering.KMeans{
			K:       params.TargetStations,
			MaxIter: svc.cfg.KMeansMaxIter,
			Tol:     clustering.DefaultTol,
			Seed:    svc.cfg.KMeansSeed,
			Workers: svc.cfg.Workers,
		}.Fit(ctx, features)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("centroid clustering failed: %w", err)
	}

	names := svc.store.Names()
	kmeansRows := clustering.CentroidSummaries(centers.Centroids)

	err = svc.stage(ctx, log, metrics.StagePlot, func() error {
		return svc.writePlot(names.Comparison, plot.Comparison{Points: features, DBSCAN: top, KMeans: kmeansRows})
	})
	if err == nil {
		err = svc.stage(ctx, log, metrics.StageWriteCSV, func() error {
			if werr := svc.store.WriteDBSCAN(names.DBSCAN, top); werr != nil {
				return werr
			}
			return svc.store.WriteKMeans(names.KMeans, kmeansRows)
		})
	}
	if err != nil {
		if rerr := svc.store.Remove(names.Comparison, names.DBSCAN, names.KMeans); rerr != nil {
			log.WarnContext(ctx, "Failed to remove partial artifacts", "error", rerr)
		}
		return nil, fmt.Errorf("failed to write artifacts: %w", err)
	}

	return &models.OptimizeResult{
		RunID:            runID,
		DBSCANCSV:        names.DBSCAN,
		KMeansCSV:        names.KMeans,
		ComparisonImage:  names.Comparison,
		Points:           ds.Len(),
		DBSCANClusters:   density.Clusters,
		NoisePoints:      density.Noise,
		KMeansIterations: centers.Iterations,
	}, nil
}

func (svc *OptimizerService) writePlot(name string, cmp plot.Comparison) (err error) {
	file, err := svc.store.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, file.Close())
	}()

	return plot.Render(file, cmp)
}

// stage runs fn and records its duration under the given stage label.
func (svc *OptimizerService) stage(ctx context.Context, log *slog.Logger, name string, fn func() error) error {
	startTime := time.Now()
	err := fn()
	svc.observe(ctx, log, name, startTime, err)
	return err
}

// step is stage for work that cannot fail.
func (svc *OptimizerService) step(ctx context.Context, log *slog.Logger, name string, fn func()) {
	startTime := time.Now()
	fn()
	svc.observe(ctx, log, name, startTime, nil)
}

func (svc *OptimizerService) observe(ctx context.Context, log *slog.Logger, name string, startTime time.Time, err error) {
	duration := time.Since(startTime)
	svc.metrics.StageSeconds.WithLabelValues(name).Observe(duration.Seconds())

	log.DebugContext(ctx, "Stage finished", "stage", name, "duration", duration, "ok", err == nil)
}
