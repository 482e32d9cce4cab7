package clustering

import (
	"gonum.org/v1/gonum/spatial/kdtree"
)

// indexedPoint is a kd-tree point that remembers its row in the feature matrix.
// Building the tree reorders its backing slice, so the row cannot be recovered
// from the position.
type indexedPoint struct {
	coords kdtree.Point
	row    int
}

func (p indexedPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(indexedPoint)
	return p.coords[d] - q.coords[d]
}

func (p indexedPoint) Dims() int { return len(p.coords) }

// Distance returns the squared Euclidean distance.
func (p indexedPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(indexedPoint)
	return p.coords.Distance(q.coords)
}

type indexedPoints []indexedPoint

func (p indexedPoints) Index(i int) kdtree.Comparable { return p[i] }
func (p indexedPoints) Len() int                      { return len(p) }
func (p indexedPoints) Pivot(d kdtree.Dim) int        { return indexedPlane{indexedPoints: p, Dim: d}.Pivot() }
func (p indexedPoints) Slice(start, end int) kdtree.Interface {
	return p[start:end]
}

// indexedPlane sorts points along a single dimension while the tree is built.
type indexedPlane struct {
	kdtree.Dim
	indexedPoints
}

func (p indexedPlane) Less(i, j int) bool {
	return p.indexedPoints[i].coords[p.Dim] < p.indexedPoints[j].coords[p.Dim]
}
func (p indexedPlane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p indexedPlane) Slice(start, end int) kdtree.SortSlicer {
	p.indexedPoints = p.indexedPoints[start:end]
	return p
}
func (p indexedPlane) Swap(i, j int) {
	p.indexedPoints[i], p.indexedPoints[j] = p.indexedPoints[j], p.indexedPoints[i]
}

// neighbourIndex answers fixed-radius queries over a feature matrix.
// It is read-only after construction and safe for concurrent queries.
type neighbourIndex struct {
	tree *kdtree.Tree
}

func newNeighbourIndex(features [][]float64) *neighbourIndex {
	points := make(indexedPoints, len(features))
	for i, row := range features {
		points[i] = indexedPoint{coords: kdtree.Point(row), row: i}
	}

	return &neighbourIndex{tree: kdtree.New(points, false)}
}

// within returns the rows whose Euclidean distance to q is at most eps,
// including q's own row when q is part of the matrix.
func (ni *neighbourIndex) within(q []float64, eps float64) []int {
	keep := kdtree.NewDistKeeper(eps * eps)
	ni.tree.NearestSet(keep, indexedPoint{coords: kdtree.Point(q), row: -1})

	rows := make([]int, 0, len(keep.Heap))
	for _, c := range keep.Heap {
		// NearestSet drops the sentinel, but an empty tree leaves it behind.
		if c.Comparable == nil {
			continue
		}
		rows = append(rows, c.Comparable.(indexedPoint).row)
	}

	return rows
}
