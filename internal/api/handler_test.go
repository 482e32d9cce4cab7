package api_test

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Flaque/filet"
	"github.com/UnknownOlympus/busopt/internal/api"
	"github.com/UnknownOlympus/busopt/internal/clustering"
	"github.com/UnknownOlympus/busopt/internal/dataset"
	"github.com/UnknownOlympus/busopt/internal/metrics"
	"github.com/UnknownOlympus/busopt/internal/models"
	"github.com/UnknownOlympus/busopt/test/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	allowedOrigin = "http://localhost:3000"
	optimizePath  = "/optimize-bus-stations"
)

type testAPI struct {
	router    http.Handler
	optimizer *mocks.Optimizer
	metrics   *metrics.Metrics
	dir       string
}

func newTestAPI(t *testing.T, rps float64) *testAPI {
	t.Helper()

	dir := filet.TmpDir(t, "")
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	m := metrics.NewMetrics(prometheus.NewRegistry())
	optimizer := mocks.NewOptimizer(t)
	handler := api.NewHandler(logger, m, optimizer, dir, api.NewLimiter(rps))

	return &testAPI{
		router:    handler.Routes(allowedOrigin),
		optimizer: optimizer,
		metrics:   m,
		dir:       dir,
	}
}

func (a *testAPI) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestOptimize_Success(t *testing.T) {
	defer filet.CleanUp(t)

	result := &models.OptimizeResult{
		RunID:            "run-1",
		DBSCANCSV:        "dbscan_optimized_stops_20240101_120000.csv",
		KMeansCSV:        "kmeans_optimized_stops_20240101_120000.csv",
		ComparisonImage:  "comparison_optimized_stops_20240101_120000.png",
		Points:           1000,
		DBSCANClusters:   12,
		NoisePoints:      40,
		KMeansIterations: 9,
	}

	tests := []struct {
		name   string
		body   string
		params models.OptimizeParams
	}{
		{name: "empty body uses defaults", body: "", params: models.DefaultParams()},
		{name: "empty object uses defaults", body: "{}", params: models.DefaultParams()},
		{
			name:   "numbers",
			body:   `{"target_stations": 20, "eps": 0.3, "min_samples": 5}`,
			params: models.OptimizeParams{TargetStations: 20, Eps: 0.3, MinSamples: 5},
		},
		{
			name:   "numeric strings and fractional integers",
			body:   `{"target_stations": "15", "eps": "0.1", "min_samples": 3.9}`,
			params: models.OptimizeParams{TargetStations: 15, Eps: 0.1, MinSamples: 3},
		},
		{
			name:   "partial body keeps other defaults",
			body:   `{"eps": 0.2, "comment": "ignored"}`,
			params: models.OptimizeParams{TargetStations: 100, Eps: 0.2, MinSamples: 8},
		},
		{
			name:   "no range validation",
			body:   `{"target_stations": -4, "min_samples": 0}`,
			params: models.OptimizeParams{TargetStations: -4, Eps: 0.05, MinSamples: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAPI(t, 0)
			a.optimizer.On("Optimize", mock.Anything, tt.params).Return(result, nil).Once()

			rec := a.do(http.MethodPost, optimizePath, tt.body, map[string]string{"Content-Type": "application/json"})

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			body := decode(t, rec)
			assert.Equal(t, "Optimization complete", body["message"])
			assert.Equal(t, result.DBSCANCSV, body["dbscan_csv_path"])
			assert.Equal(t, result.KMeansCSV, body["kmeans_csv_path"])
			assert.Equal(t, result.ComparisonImage, body["comparison_image"])
			assert.Equal(t, "run-1", body["run_id"])
			assert.InDelta(t, 12, body["dbscan_clusters"], 0)
			assert.InDelta(t, 1, testutil.ToFloat64(a.metrics.HTTPRequests.WithLabelValues("POST", "200")), 0)
		})
	}
}

func TestOptimize_InvalidParams(t *testing.T) {
	defer filet.CleanUp(t)

	bodies := []string{
		`{"eps": "abc"}`,
		`{"target_stations": "ten"}`,
		`{"min_samples": "2.5"}`,
		`{"eps": null}`,
		`{"eps": true}`,
		`{"eps": [0.1]}`,
		`{"eps": {"value": 0.1}}`,
		`{"eps": 0.1`,
		`[1, 2]`,
		`"eps"`,
	}

	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			a := newTestAPI(t, 0)

			rec := a.do(http.MethodPost, optimizePath, body, nil)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "Invalid input parameters", decode(t, rec)["error"])
		})
	}
}

func TestOptimize_Errors(t *testing.T) {
	defer filet.CleanUp(t)

	t.Run("missing dataset", func(t *testing.T) {
		a := newTestAPI(t, 0)
		err := fmt.Errorf("failed to load dataset: %w", fmt.Errorf("%w: stops.csv", dataset.ErrFileNotFound))
		a.optimizer.On("Optimize", mock.Anything, models.DefaultParams()).Return(nil, err).Once()

		rec := a.do(http.MethodPost, optimizePath, "", nil)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, map[string]any{"error": "CSV file not found"}, decode(t, rec))
	})

	t.Run("missing columns", func(t *testing.T) {
		a := newTestAPI(t, 0)
		err := fmt.Errorf("failed to load dataset: %w", &dataset.MissingColumnsError{Missing: []string{"Population Density"}})
		a.optimizer.On("Optimize", mock.Anything, models.DefaultParams()).Return(nil, err).Once()

		rec := a.do(http.MethodPost, optimizePath, "", nil)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		msg, _ := decode(t, rec)["error"].(string)
		assert.Contains(t, msg, "CSV file must contain columns")
		assert.Contains(t, msg, "Population Density")
	})

	t.Run("too few points is a generic failure", func(t *testing.T) {
		a := newTestAPI(t, 0)
		err := fmt.Errorf("centroid clustering failed: %w", clustering.ErrTooFewPoints)
		a.optimizer.On("Optimize", mock.Anything, models.DefaultParams()).Return(nil, err).Once()

		rec := a.do(http.MethodPost, optimizePath, "", nil)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Internal Server Error\n", rec.Body.String())
	})

	t.Run("unexpected failure", func(t *testing.T) {
		a := newTestAPI(t, 0)
		a.optimizer.On("Optimize", mock.Anything, models.DefaultParams()).Return(nil, assert.AnError).Once()

		rec := a.do(http.MethodPost, optimizePath, "", nil)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Internal Server Error\n", rec.Body.String())
		assert.InDelta(t, 1, testutil.ToFloat64(a.metrics.HTTPRequests.WithLabelValues("POST", "500")), 0)
	})
}

func TestOptimize_RateLimited(t *testing.T) {
	defer filet.CleanUp(t)

	a := newTestAPI(t, 0.001)
	a.optimizer.On("Optimize", mock.Anything, models.DefaultParams()).Return(&models.OptimizeResult{}, nil).Once()

	first := a.do(http.MethodPost, optimizePath, "", nil)
	second := a.do(http.MethodPost, optimizePath, "", nil)

	assert.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "Too many requests", decode(t, second)["error"])
}

func TestNewLimiter(t *testing.T) {
	t.Parallel()

	assert.Nil(t, api.NewLimiter(0))
	assert.Nil(t, api.NewLimiter(-1))

	limiter := api.NewLimiter(2.5)
	require.NotNil(t, limiter)
	assert.InDelta(t, 2.5, float64(limiter.Limit()), 1e-9)
	assert.Equal(t, 2, limiter.Burst())
}

func TestPreflight(t *testing.T) {
	defer filet.CleanUp(t)

	t.Run("allowed origin", func(t *testing.T) {
		a := newTestAPI(t, 0)

		rec := a.do(http.MethodOptions, optimizePath, "", map[string]string{
			"Origin":                         allowedOrigin,
			"Access-Control-Request-Method":  http.MethodPost,
			"Access-Control-Request-Headers": "Content-Type",
		})

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, map[string]any{"message": "CORS preflight OK"}, decode(t, rec))
		assert.Equal(t, allowedOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
		assert.Equal(t, "Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
	})

	t.Run("foreign origin gets no permission", func(t *testing.T) {
		a := newTestAPI(t, 0)

		rec := a.do(http.MethodOptions, optimizePath, "", map[string]string{
			"Origin":                        "http://evil.example",
			"Access-Control-Request-Method": http.MethodPost,
		})

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("actual request carries allow origin", func(t *testing.T) {
		a := newTestAPI(t, 0)

		rec := a.do(http.MethodGet, "/", "", map[string]string{"Origin": allowedOrigin})

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, allowedOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestHome(t *testing.T) {
	defer filet.CleanUp(t)
	a := newTestAPI(t, 0)

	rec := a.do(http.MethodGet, "/", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Bus Station Optimization API")
}

func TestFiles(t *testing.T) {
	defer filet.CleanUp(t)
	a := newTestAPI(t, 0)
	filet.File(t, filepath.Join(a.dir, "kmeans_optimized_stops_20240101_120000.csv"), "Latitude,Longitude,Population Density\n")

	t.Run("existing file", func(t *testing.T) {
		rec := a.do(http.MethodGet, "/files/kmeans_optimized_stops_20240101_120000.csv", "", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		data, err := io.ReadAll(rec.Body)
		require.NoError(t, err)
		assert.Equal(t, "Latitude,Longitude,Population Density\n", string(data))
	})

	t.Run("missing file", func(t *testing.T) {
		rec := a.do(http.MethodGet, "/files/nope.png", "", nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
