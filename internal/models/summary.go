package models

// ClusterSummary is one aggregated row representing a cluster.
// For density clusters PopulationDensity is the summed density of the members,
// for k-means it is the centroid's density coordinate.
type ClusterSummary struct {
	ClusterID         int
	Latitude          float64
	Longitude         float64
	PopulationDensity float64
}

// OptimizeResult describes the artifacts produced by a single optimization run.
type OptimizeResult struct {
	RunID            string
	DBSCANCSV        string
	KMeansCSV        string
	ComparisonImage  string
	Points           int
	DBSCANClusters   int
	NoisePoints      int
	KMeansIterations int
}
