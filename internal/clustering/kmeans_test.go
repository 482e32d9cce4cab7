package clustering_test

import (
	"context"
	"math"
	"testing"

	"github.com/UnknownOlympus/busopt/internal/clustering"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKMeans_Fit(t *testing.T) {
	t.Parallel()

	centers := [][]float64{{0, 0, 0}, {5, 5, 5}, {-5, 5, 0}}
	features := blobs(centers, 30, nil)

	res, err := clustering.KMeans{K: 3, Tol: clustering.DefaultTol, Seed: 42}.Fit(t.Context(), features)

	require.NoError(t, err)
	require.Len(t, res.Centroids, 3)
	require.Len(t, res.Labels, len(features))
	assert.Positive(t, res.Iterations)
	assert.LessOrEqual(t, res.Iterations, clustering.DefaultMaxIter)

	// every blob lands in a single cluster, and no two blobs share one
	seen := make(map[int]bool)
	for b := range centers {
		label := res.Labels[b*30]
		for i := b * 30; i < (b+1)*30; i++ {
			require.Equal(t, label, res.Labels[i], "row %d", i)
		}
		assert.False(t, seen[label], "blob %d shares cluster %d", b, label)
		seen[label] = true
	}

	for _, c := range res.Centroids {
		assert.Len(t, c, 3)
	}
	assert.Less(t, res.Inertia, 1.0)
}

func TestKMeans_Deterministic(t *testing.T) {
	t.Parallel()

	features := blobs([][]float64{{0, 0, 0}, {1, 1, 1}, {2, 0, 1}, {0, 2, 2}}, 50, nil)
	algo := clustering.KMeans{K: 7, Tol: clustering.DefaultTol, Seed: 42, Workers: 4}

	first, err := algo.Fit(t.Context(), features)
	require.NoError(t, err)
	second, err := algo.Fit(t.Context(), features)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	algo.Workers = 1
	serial, err := algo.Fit(t.Context(), features)
	require.NoError(t, err)
	assert.Equal(t, first, serial)
}

func TestKMeans_ExactlyKRows(t *testing.T) {
	t.Parallel()

	features := blobs([][]float64{{0, 0, 0}}, 12, nil)

	for _, k := range []int{1, 5, 12} {
		res, err := clustering.KMeans{K: k, Seed: 1}.Fit(t.Context(), features)

		require.NoError(t, err)
		assert.Len(t, res.Centroids, k)
		assert.Len(t, clustering.CentroidSummaries(res.Centroids), k)
	}
}

func TestKMeans_KEqualsN(t *testing.T) {
	t.Parallel()

	features := [][]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

	res, err := clustering.KMeans{K: 4, Seed: 42}.Fit(t.Context(), features)

	require.NoError(t, err)
	assert.InDelta(t, 0, res.Inertia, 1e-12)
	assert.ElementsMatch(t, features, res.Centroids)
}

func TestKMeans_Errors(t *testing.T) {
	t.Parallel()

	features := [][]float64{{0, 0, 0}, {1, 1, 1}}

	t.Run("too few points", func(t *testing.T) {
		t.Parallel()

		res, err := clustering.KMeans{K: 3, Seed: 42}.Fit(t.Context(), features)

		require.Nil(t, res)
		require.ErrorIs(t, err, clustering.ErrTooFewPoints)
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()

		res, err := clustering.KMeans{K: 1, Seed: 42}.Fit(t.Context(), nil)

		require.Nil(t, res)
		require.ErrorIs(t, err, clustering.ErrTooFewPoints)
	})

	t.Run("zero clusters", func(t *testing.T) {
		t.Parallel()

		res, err := clustering.KMeans{K: 0, Seed: 42}.Fit(t.Context(), features)

		require.Nil(t, res)
		require.ErrorIs(t, err, clustering.ErrInvalidParams)
	})

	t.Run("nan tolerance", func(t *testing.T) {
		t.Parallel()

		res, err := clustering.KMeans{K: 3, Tol: math.NaN(), Seed: 42}.Fit(t.Context(), features)

		require.Nil(t, res)
		require.ErrorIs(t, err, clustering.ErrInvalidParams)
	})

	t.Run("context cancelled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		res, err := clustering.KMeans{K: 1, Seed: 42}.Fit(ctx, features)

		require.Nil(t, res)
		require.ErrorIs(t, err, context.Canceled)
	})
}
