package clustering

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomFeatures(n int, seed uint64) [][]float64 {
	rng := rand.New(rand.NewPCG(seed, seed))
	features := make([][]float64, n)
	for i := range features {
		features[i] = []float64{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}
	}

	return features
}

func TestNeighbourIndex_MatchesBruteForce(t *testing.T) {
	t.Parallel()

	features := randomFeatures(500, 1)
	index := newNeighbourIndex(features)

	for _, eps := range []float64{0.05, 0.3, 1} {
		for i, q := range features {
			var want []int
			for j, p := range features {
				if sqDist(q, p) <= eps*eps {
					want = append(want, j)
				}
			}

			got := index.within(q, eps)
			slices.Sort(got)
			require.Equal(t, want, got, "eps=%v row=%d", eps, i)
		}
	}
}

func TestNeighbourIndex_InclusiveRadius(t *testing.T) {
	t.Parallel()

	features := [][]float64{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}}
	index := newNeighbourIndex(features)

	got := index.within(features[0], 1)
	slices.Sort(got)

	assert.Equal(t, []int{0, 1}, got)
}

func TestNeighbourIndex_Empty(t *testing.T) {
	t.Parallel()

	index := newNeighbourIndex(nil)

	assert.Empty(t, index.within([]float64{0, 0, 0}, 1))
}

func TestChunks(t *testing.T) {
	t.Parallel()

	covered := make([]int, 103)
	for lo, hi := range chunks(len(covered), 3) {
		require.Less(t, lo, hi)
		for i := lo; i < hi; i++ {
			covered[i]++
		}
	}
	for i, c := range covered {
		assert.Equal(t, 1, c, "row %d", i)
	}

	for range chunks(0, 4) {
		t.Fatal("no chunks expected for empty input")
	}
}
