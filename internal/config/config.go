package config

import (
	"os"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the configuration settings for the bus station optimizer.
//
// Fields:
// - Env: The current environment (e.g., local, development, production).
// - Port: The port for the optimization API.
// - HealthPort: The port for the monitoring server (healthz, metrics).
// - CSVFilePath: The dataset the clustering pipeline reads on every request.
// - OutputDir: The directory where images and CSV summaries are written.
// - AllowedOrigin: The only origin allowed to read API responses.
// - RateLimit: Optimization requests per second, zero disables limiting.
// - Clustering: Tuning knobs for the clustering algorithms.
type Config struct {
	Env           string           `yaml:"env"`            // Env is the current environment: local, dev, prod.
	Port          int              `yaml:"api.port"`       // Port is the API server port.
	HealthPort    int              `yaml:"health.port"`    // HealthPort is the monitoring server port.
	CSVFilePath   string           `yaml:"csv_file_path"`  // CSVFilePath is the input dataset location.
	OutputDir     string           `yaml:"output_dir"`     // OutputDir is where generated artifacts are stored.
	AllowedOrigin string           `yaml:"allowed_origin"` // AllowedOrigin is the CORS origin allowed to read responses.
	RateLimit     float64          `yaml:"rate_limit"`     // RateLimit is the number of optimize requests per second.
	Clustering    ClusteringConfig `yaml:"clustering"`     // Clustering holds the clustering configuration
}

// ClusteringConfig struct holds the settings shared by both clustering algorithms.
type ClusteringConfig struct {
	Workers       int    `yaml:"workers"`         // Workers bounds the goroutines used per clustering stage.
	KMeansSeed    uint64 `yaml:"kmeans_seed"`     // KMeansSeed makes centroid initialization reproducible.
	KMeansMaxIter int    `yaml:"kmeans_max_iter"` // KMeansMaxIter caps the number of Lloyd iterations.
}

// MustLoad loads the configuration from environment variables and returns a Config struct.
func MustLoad() *Config {
	_ = godotenv.Load()

	port, err := strconv.Atoi(setDefaultEnv("BUSOPT_PORT", "5001"))
	if err != nil {
		panic("failed to parse port for api server from configuration")
	}

	healthPort, err := strconv.Atoi(setDefaultEnv("BUSOPT_HEALTH_PORT", "8080"))
	if err != nil {
		panic("failed to parse port for monitoring server from configuration")
	}

	rateLimit, err := strconv.ParseFloat(setDefaultEnv("BUSOPT_RATE_LIMIT", "0"), 64)
	if err != nil {
		panic("failed to parse rate limit from configuration, must be a number")
	}

	workers, err := strconv.Atoi(setDefaultEnv("BUSOPT_WORKERS", strconv.Itoa(runtime.NumCPU())))
	if err != nil {
		panic("failed to parse workers from configuration, must be an integer types")
	}

	seed, err := strconv.ParseUint(setDefaultEnv("BUSOPT_KMEANS_SEED", "42"), 10, 64)
	if err != nil {
		panic("failed to parse kmeans seed from configuration, must be an unsigned integer")
	}

	maxIter, err := strconv.Atoi(setDefaultEnv("BUSOPT_KMEANS_MAX_ITER", "300"))
	if err != nil {
		panic("failed to parse kmeans max iterations from configuration, must be an integer types")
	}

	return &Config{
		Env:           setDefaultEnv("BUSOPT_ENV", "production"),
		Port:          port,
		HealthPort:    healthPort,
		CSVFilePath:   setDefaultEnv("CSV_FILE_PATH", "silicon_valley_stop_points.csv"),
		OutputDir:     setDefaultEnv("OUTPUT_DIR", "./output"),
		AllowedOrigin: setDefaultEnv("BUSOPT_ALLOWED_ORIGIN", "http://localhost:3000"),
		RateLimit:     rateLimit,
		Clustering: ClusteringConfig{
			Workers:       workers,
			KMeansSeed:    seed,
			KMeansMaxIter: maxIter,
		},
	}
}

func setDefaultEnv(key, override string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		value = override
	}

	return value
}
