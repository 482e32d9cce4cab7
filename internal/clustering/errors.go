package clustering

import "errors"

var (
	// ErrInvalidParams is returned when an algorithm parameter is out of its valid range.
	ErrInvalidParams = errors.New("invalid clustering parameters")
	// ErrTooFewPoints is returned when k-means is asked for more clusters than there are points.
	ErrTooFewPoints = errors.New("number of points is smaller than the number of clusters")
)
