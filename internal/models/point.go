package models

// Column names of the input dataset that the clustering path relies on.
const (
	ColumnLatitude          = "Latitude"
	ColumnLongitude         = "Longitude"
	ColumnPopulationDensity = "Population Density"
)

// RequiredColumns lists the dataset columns that must be present, in feature order.
func RequiredColumns() []string {
	return []string{ColumnLatitude, ColumnLongitude, ColumnPopulationDensity}
}

// Point represents a candidate bus stop with the features used for clustering.
type Point struct {
	Latitude          float64 // Latitude of the candidate stop.
	Longitude         float64 // Longitude of the candidate stop.
	PopulationDensity float64 // PopulationDensity around the candidate stop.
}

// Features returns the point as a feature vector in clustering column order.
func (p Point) Features() []float64 {
	return []float64{p.Latitude, p.Longitude, p.PopulationDensity}
}
