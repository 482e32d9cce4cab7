package clustering

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Defaults applied by callers that do not tune k-means.
const (
	DefaultMaxIter = 300
	DefaultTol     = 1e-4
)

// KMeans is a Lloyd k-means clusterer with greedy k-means++ seeding.
// Runs with the same Seed over the same input give the same result.
type KMeans struct {
	K       int
	MaxIter int     // Zero means DefaultMaxIter.
	Tol     float64 // Relative to the mean feature variance.
	Seed    uint64
	Workers int // Parallel assignment; zero means runtime.NumCPU().
}

// KMeansResult holds the fitted centroids and the final assignment.
type KMeansResult struct {
	Centroids  [][]float64
	Labels     []int
	Iterations int
	Inertia    float64 // Sum of squared distances to the assigned centroid.
}

// Fit clusters features into exactly K groups.
func (km KMeans) Fit(ctx context.Context, features [][]float64) (*KMeansResult, error) {
	if km.K < 1 || !(km.Tol >= 0) || km.MaxIter < 0 {
		return nil, fmt.Errorf("%w: k=%d tol=%v max_iter=%d", ErrInvalidParams, km.K, km.Tol, km.MaxIter)
	}
	if len(features) < km.K {
		return nil, fmt.Errorf("%w: n_samples=%d n_clusters=%d", ErrTooFewPoints, len(features), km.K)
	}

	maxIter := km.MaxIter
	if maxIter == 0 {
		maxIter = DefaultMaxIter
	}
	tolerance := km.Tol * meanVariance(features)

	rng := rand.New(rand.NewPCG(km.Seed, km.Seed))
	centroids := seedPlusPlus(features, km.K, rng)

	labels := make([]int, len(features))
	dists := make([]float64, len(features))
	iterations := 0
	for iterations < maxIter {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("kmeans interrupted: %w", err)
		}
		iterations++

		if err := km.assign(ctx, features, centroids, labels, dists); err != nil {
			return nil, err
		}
		next := updateCentroids(features, labels, dists, km.K)

		shift := 0.0
		for c := range centroids {
			shift += sqDist(centroids[c], next[c])
		}
		centroids = next
		if shift <= tolerance {
			break
		}
	}

	// Labels must match the centroids that are returned.
	if err := km.assign(ctx, features, centroids, labels, dists); err != nil {
		return nil, err
	}

	return &KMeansResult{
		Centroids:  centroids,
		Labels:     labels,
		Iterations: iterations,
		Inertia:    floats.Sum(dists),
	}, nil
}

// assign writes the nearest centroid and its squared distance for every row.
func (km KMeans) assign(ctx context.Context, features, centroids [][]float64, labels []int, dists []float64) error {
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(workerCount(km.Workers))
	for lo, hi := range chunks(len(features), workerCount(km.Workers)) {
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := lo; i < hi; i++ {
				labels[i], dists[i] = nearest(features[i], centroids)
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return fmt.Errorf("kmeans assignment interrupted: %w", err)
	}

	return nil
}

// updateCentroids moves every centroid to the mean of its members. A centroid
// left without members is moved onto the point that is currently farthest
// from its own centroid, taking the farthest points in order.
func updateCentroids(features [][]float64, labels []int, dists []float64, k int) [][]float64 {
	dims := len(features[0])
	sums := make([][]float64, k)
	for c := range sums {
		sums[c] = make([]float64, dims)
	}
	counts := make([]int, k)
	for i, row := range features {
		floats.Add(sums[labels[i]], row)
		counts[labels[i]]++
	}

	var far []int
	for c := range sums {
		if counts[c] > 0 {
			floats.Scale(1/float64(counts[c]), sums[c])
			continue
		}
		if far == nil {
			far = farthestFirst(dists)
		}
		copy(sums[c], features[far[0]])
		far = far[1:]
	}

	return sums
}

// farthestFirst returns row indices ordered by descending distance, ties by index.
func farthestFirst(dists []float64) []int {
	order := make([]int, len(dists))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(dists[b], dists[a])
	})

	return order
}

// seedPlusPlus picks k initial centroids with greedy k-means++: each new
// centroid is the best of several candidates sampled proportionally to the
// squared distance from the centroids chosen so far.
func seedPlusPlus(features [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(features)
	trials := 2 + int(math.Log(float64(k)))

	centroids := make([][]float64, 0, k)
	centroids = append(centroids, slices.Clone(features[rng.IntN(n)]))

	closest := make([]float64, n)
	for i, row := range features {
		closest[i] = sqDist(row, centroids[0])
	}
	potential := floats.Sum(closest)

	cumulative := make([]float64, n)
	candidate := make([]float64, n)
	best := make([]float64, n)
	for len(centroids) < k {
		floats.CumSum(cumulative, closest)

		bestRow, bestPotential := -1, math.Inf(1)
		for range trials {
			row := sort.SearchFloat64s(cumulative, rng.Float64()*potential)
			if row >= n {
				row = n - 1
			}

			for i, x := range features {
				candidate[i] = min(closest[i], sqDist(x, features[row]))
			}
			if p := floats.Sum(candidate); p < bestPotential {
				bestRow, bestPotential = row, p
				copy(best, candidate)
			}
		}

		centroids = append(centroids, slices.Clone(features[bestRow]))
		copy(closest, best)
		potential = bestPotential
	}

	return centroids
}

func nearest(x []float64, centroids [][]float64) (int, float64) {
	label, best := 0, math.Inf(1)
	for c, centroid := range centroids {
		if d := sqDist(x, centroid); d < best {
			label, best = c, d
		}
	}

	return label, best
}

func sqDist(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}

	return sum
}

// meanVariance is the average population variance of the feature columns.
func meanVariance(features [][]float64) float64 {
	dims := len(features[0])
	column := make([]float64, len(features))
	var total float64
	for j := range dims {
		for i, row := range features {
			column[i] = row[j]
		}
		_, variance := stat.PopMeanVariance(column, nil)
		total += variance
	}

	return total / float64(dims)
}
