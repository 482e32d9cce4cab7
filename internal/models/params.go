package models

// Default values applied when a request omits a parameter.
const (
	DefaultTargetStations = 100
	DefaultEps            = 0.05
	DefaultMinSamples     = 8
)

// OptimizeParams holds the caller-tunable clustering parameters.
type OptimizeParams struct {
	TargetStations int     // TargetStations is the number of stations to place (k for k-means, top-N for DBSCAN).
	Eps            float64 // Eps is the DBSCAN neighbourhood radius in standardized units.
	MinSamples     int     // MinSamples is the DBSCAN neighbour count that makes a point a core point.
}

// DefaultParams returns the parameters used when the request body is empty.
func DefaultParams() OptimizeParams {
	return OptimizeParams{
		TargetStations: DefaultTargetStations,
		Eps:            DefaultEps,
		MinSamples:     DefaultMinSamples,
	}
}
