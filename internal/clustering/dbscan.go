package clustering

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Noise is the label given to points that belong to no density cluster.
const Noise = -1

// DBSCAN is a density-based clusterer over standardized features.
type DBSCAN struct {
	Eps        float64 // Inclusive neighbourhood radius.
	MinSamples int     // Minimum neighbourhood size of a core point, the point itself included.
	Workers    int     // Parallel neighbour queries; zero means runtime.NumCPU().
}

// DBSCANResult holds the labels of a DBSCAN run.
type DBSCANResult struct {
	Labels   []int // Cluster id per input row, or Noise.
	Clusters int   // Number of distinct cluster ids, numbered from 0.
	Noise    int   // Number of rows labeled Noise.
}

// Fit labels every row of features. Clusters are discovered in row order, so
// the lowest-indexed core point of a cluster fixes its id, and a border point
// reachable from several clusters joins the first one that expands into it.
func (d DBSCAN) Fit(ctx context.Context, features [][]float64) (*DBSCANResult, error) {
	if !(d.Eps > 0) || d.MinSamples < 1 {
		return nil, fmt.Errorf("%w: eps=%v min_samples=%d", ErrInvalidParams, d.Eps, d.MinSamples)
	}

	neighbours, err := d.neighbourhoods(ctx, features)
	if err != nil {
		return nil, err
	}

	core := make([]bool, len(features))
	for i, nb := range neighbours {
		core[i] = len(nb) >= d.MinSamples
	}

	labels := make([]int, len(features))
	for i := range labels {
		labels[i] = Noise
	}

	cluster := 0
	var stack []int
	for i := range features {
		if labels[i] != Noise || !core[i] {
			continue
		}

		if err = ctx.Err(); err != nil {
			return nil, fmt.Errorf("dbscan interrupted: %w", err)
		}

		labels[i] = cluster
		stack = append(stack[:0], i)
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !core[p] {
				continue
			}
			for _, q := range neighbours[p] {
				if labels[q] == Noise {
					labels[q] = cluster
					stack = append(stack, q)
				}
			}
		}
		cluster++
	}

	result := &DBSCANResult{Labels: labels, Clusters: cluster}
	for _, l := range labels {
		if l == Noise {
			result.Noise++
		}
	}

	return result, nil
}

// neighbourhoods runs one range query per row on a bounded worker pool.
func (d DBSCAN) neighbourhoods(ctx context.Context, features [][]float64) ([][]int, error) {
	index := newNeighbourIndex(features)
	out := make([][]int, len(features))

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(workerCount(d.Workers))
	for lo, hi := range chunks(len(features), workerCount(d.Workers)) {
		group.Go(func() error {
			for i := lo; i < hi; i++ {
				if (i-lo)%1024 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				out[i] = index.within(features[i], d.Eps)
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("neighbour search interrupted: %w", err)
	}

	return out, nil
}

func workerCount(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}

	return n
}
