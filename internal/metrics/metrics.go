package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline stages observed in StageSeconds.
const (
	StageLoad     = "load"
	StageScale    = "scale"
	StageDBSCAN   = "dbscan"
	StageSummary  = "summarize"
	StageKMeans   = "kmeans"
	StagePlot     = "plot"
	StageWriteCSV = "write_csv"
)

type Metrics struct {
	Optimizations  *prometheus.CounterVec
	StageSeconds   *prometheus.HistogramVec
	DBSCANClusters prometheus.Gauge
	NoisePoints    prometheus.Gauge
	HTTPRequests   *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Optimizations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "busopt_optimizations_total",
			Help: "Total number of optimization runs by outcome.",
		}, []string{"status"}),
		StageSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "busopt_stage_duration_seconds",
			Help:    "Duration of each optimization pipeline stage.",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"stage"}),
		DBSCANClusters: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "busopt_dbscan_clusters",
			Help: "Number of density clusters found by the last optimization run.",
		}),
		NoisePoints: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "busopt_dbscan_noise_points",
			Help: "Number of points labeled as noise by the last optimization run.",
		}),
		HTTPRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "busopt_http_requests_total",
			Help: "Total number of API requests by method and status code.",
		}, []string{"method", "code"}),
	}
}
