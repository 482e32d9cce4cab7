package api

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	"github.com/UnknownOlympus/busopt/internal/clustering"
	"github.com/UnknownOlympus/busopt/internal/dataset"
	"github.com/UnknownOlympus/busopt/internal/metrics"
	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"
)

const (
	maxBodyBytes = 1 << 20

	msgInvalidParams   = "Invalid input parameters"
	msgFileNotFound    = "CSV file not found"
	msgTooManyRequests = "Too many requests"
	msgComplete        = "Optimization complete"
	msgPreflight       = "CORS preflight OK"
)

const homePage = `<!DOCTYPE html>
<html>
<head><title>Bus Station Optimization API</title></head>
<body>
<h1>Bus Station Optimization API</h1>
<p>POST <code>/optimize-bus-stations</code> with an optional JSON body
(<code>target_stations</code>, <code>eps</code>, <code>min_samples</code>)
to cluster the candidate stops with DBSCAN and KMeans.</p>
<p>Generated CSV summaries and the comparison plot are served from <code>/files/{filename}</code>.</p>
</body>
</html>
`

// Handler serves the optimization API.
type Handler struct {
	log       *slog.Logger     // Logger for request handling
	metrics   *metrics.Metrics // Metrics for request counts
	optimizer Optimizer        // Pipeline behind POST /optimize-bus-stations
	files     fs.FS            // Output directory served under /files
	limiter   *rate.Limiter    // Optional limit on optimize requests, nil disables it
}

// NewHandler creates a new instance of Handler that serves artifacts from outputDir.
// A nil limiter leaves the optimize endpoint unlimited.
func NewHandler(
	log *slog.Logger,
	metrics *metrics.Metrics,
	optimizer Optimizer,
	outputDir string,
	limiter *rate.Limiter,
) *Handler {
	return &Handler{
		log:       log,
		metrics:   metrics,
		optimizer: optimizer,
		files:     os.DirFS(outputDir),
		limiter:   limiter,
	}
}

// NewLimiter returns a token bucket allowing rps optimize requests per second,
// or nil when rps is not positive.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), max(1, int(rps)))
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := io.WriteString(w, homePage); err != nil {
		h.log.ErrorContext(r.Context(), "failed to write reply", "error", err)
	}
}

func (h *Handler) file(w http.ResponseWriter, r *http.Request) {
	http.ServeFileFS(w, r, h.files, chi.URLParam(r, "filename"))
}

func (h *Handler) preflight(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, messageResponse{Message: msgPreflight})
}

func (h *Handler) optimize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.log.WarnContext(ctx, "Failed to read request body", "error", err)
		h.writeError(w, r, http.StatusBadRequest, msgInvalidParams)
		return
	}

	params, err := parseParams(body)
	if err != nil {
		h.log.WarnContext(ctx, "Rejected optimization parameters", "error", err)
		h.writeError(w, r, http.StatusBadRequest, msgInvalidParams)
		return
	}

	res, err := h.optimizer.Optimize(ctx, params)
	if err != nil {
		h.optimizeFailed(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, optimizeResponse{
		Message:          msgComplete,
		DBSCANCSVPath:    res.DBSCANCSV,
		KMeansCSVPath:    res.KMeansCSV,
		ComparisonImage:  res.ComparisonImage,
		RunID:            res.RunID,
		Points:           res.Points,
		DBSCANClusters:   res.DBSCANClusters,
		NoisePoints:      res.NoisePoints,
		KMeansIterations: res.KMeansIterations,
	})
}

func (h *Handler) optimizeFailed(w http.ResponseWriter, r *http.Request, err error) {
	var colErr *dataset.MissingColumnsError

	switch {
	case errors.Is(err, dataset.ErrFileNotFound):
		h.log.ErrorContext(r.Context(), "Dataset is missing", "error", err)
		h.writeError(w, r, http.StatusInternalServerError, msgFileNotFound)
	case errors.As(err, &colErr):
		h.log.WarnContext(r.Context(), "Dataset lacks required columns", "missing", colErr.Missing)
		h.writeError(w, r, http.StatusBadRequest, colErr.Error())
	case errors.Is(err, clustering.ErrInvalidParams), errors.Is(err, clustering.ErrTooFewPoints):
		h.log.ErrorContext(r.Context(), "Clustering rejected the parameters", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	default:
		h.log.ErrorContext(r.Context(), "Optimization failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
