package clustering

import (
	"cmp"
	"slices"

	"github.com/UnknownOlympus/busopt/internal/models"
)

// Feature columns of a standardized row.
const (
	featLatitude = iota
	featLongitude
	featDensity
)

// TopDensityClusters reduces a DBSCAN labeling to at most n representative
// rows. Each cluster is summarized by the mean latitude and longitude of its
// members and the sum of their density. Clusters are ordered by that sum,
// largest first, with ties resolved by the lower cluster id. Noise is skipped.
func TopDensityClusters(features [][]float64, labels []int, n int) []models.ClusterSummary {
	if n <= 0 {
		return []models.ClusterSummary{}
	}

	type acc struct {
		lat, lon, density float64
		count             int
	}
	groups := make(map[int]*acc)
	for i, label := range labels {
		if label == Noise {
			continue
		}
		g, ok := groups[label]
		if !ok {
			g = &acc{}
			groups[label] = g
		}
		g.lat += features[i][featLatitude]
		g.lon += features[i][featLongitude]
		g.density += features[i][featDensity]
		g.count++
	}

	summaries := make([]models.ClusterSummary, 0, len(groups))
	for label, g := range groups {
		summaries = append(summaries, models.ClusterSummary{
			ClusterID:         label,
			Latitude:          g.lat / float64(g.count),
			Longitude:         g.lon / float64(g.count),
			PopulationDensity: g.density,
		})
	}

	slices.SortFunc(summaries, func(a, b models.ClusterSummary) int {
		if c := cmp.Compare(b.PopulationDensity, a.PopulationDensity); c != 0 {
			return c
		}
		return cmp.Compare(a.ClusterID, b.ClusterID)
	})

	return summaries[:min(n, len(summaries))]
}

// CentroidSummaries turns k-means centroids into rows in centroid order.
func CentroidSummaries(centroids [][]float64) []models.ClusterSummary {
	summaries := make([]models.ClusterSummary, len(centroids))
	for c, centroid := range centroids {
		summaries[c] = models.ClusterSummary{
			ClusterID:         c,
			Latitude:          centroid[featLatitude],
			Longitude:         centroid[featLongitude],
			PopulationDensity: centroid[featDensity],
		}
	}

	return summaries
}
