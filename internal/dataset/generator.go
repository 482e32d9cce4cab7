package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"strconv"

	"github.com/UnknownOlympus/busopt/internal/models"
	"github.com/jaswdr/faker"
)

// Bounds of the synthetic Silicon Valley dataset.
const (
	minLatitude  = 37.2
	maxLatitude  = 37.5
	minLongitude = -122.3
	maxLongitude = -121.8

	minDensity  = 1000
	maxDensity  = 15000
	minTraffic  = 500
	maxTraffic  = 5000
	minCapacity = 1000
	maxCapacity = 10000

	maxClusterLabel = 10
	demandChance    = 0.3
	existingChance  = 0.3
	floatDecimals   = 6
)

// Extra columns written by the generator, ignored by the clustering path.
const (
	ColumnTrafficFlow   = "Traffic Flow"
	ColumnStopDemand    = "Stop Point Demand"
	ColumnClusterLabel  = "Cluster Label"
	ColumnExistingStops = "Existing Stops"
	ColumnStopCapacity  = "Stop Capacity"
)

// DefaultRows is the size of the dataset produced when no row count is given.
const DefaultRows = 150000

// GeneratedColumns returns the header of a synthetic dataset.
func GeneratedColumns() []string {
	return []string{
		models.ColumnLatitude,
		models.ColumnLongitude,
		models.ColumnPopulationDensity,
		ColumnTrafficFlow,
		ColumnStopDemand,
		ColumnClusterLabel,
		ColumnExistingStops,
		ColumnStopCapacity,
	}
}

// Record is a single synthetic row.
type Record struct {
	models.Point
	TrafficFlow  float64
	StopDemand   int
	ClusterLabel int
	ExistingStop *models.Point // nil when the candidate has no existing stop nearby
	StopCapacity float64
}

// Generate produces n synthetic records. The same seed always yields the same rows.
func Generate(n int, seed int64) []Record {
	if n <= 0 {
		n = DefaultRows
	}

	src := rand.NewSource(seed)
	rng := rand.New(src)
	fake := faker.NewWithSeed(src)

	records := make([]Record, n)
	for i := range records {
		rec := Record{
			Point: models.Point{
				Latitude:          uniform(rng, minLatitude, maxLatitude),
				Longitude:         uniform(rng, minLongitude, maxLongitude),
				PopulationDensity: fake.Float64(2, minDensity, maxDensity),
			},
			TrafficFlow:  fake.Float64(2, minTraffic, maxTraffic),
			ClusterLabel: fake.IntBetween(1, maxClusterLabel),
			StopCapacity: fake.Float64(2, minCapacity, maxCapacity),
		}
		if rng.Float64() < demandChance {
			rec.StopDemand = 1
		}
		if rng.Float64() < existingChance {
			rec.ExistingStop = &models.Point{
				Latitude:  uniform(rng, minLatitude, maxLatitude),
				Longitude: uniform(rng, minLongitude, maxLongitude),
			}
		}
		records[i] = rec
	}

	return records
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// WriteCSV writes records with a header row to w.
func WriteCSV(w io.Writer, records []Record) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(GeneratedColumns()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, rec := range records {
		existing := ""
		if rec.ExistingStop != nil {
			existing = fmt.Sprintf("(%s, %s)",
				formatFloat(rec.ExistingStop.Latitude), formatFloat(rec.ExistingStop.Longitude))
		}
		row := []string{
			formatFloat(rec.Latitude),
			formatFloat(rec.Longitude),
			formatFloat(rec.PopulationDensity),
			formatFloat(rec.TrafficFlow),
			strconv.Itoa(rec.StopDemand),
			strconv.Itoa(rec.ClusterLabel),
			existing,
			formatFloat(rec.StopCapacity),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}

	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', floatDecimals, 64)
}
