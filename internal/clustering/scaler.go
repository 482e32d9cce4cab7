package clustering

import (
	"gonum.org/v1/gonum/stat"
)

// scaler holds per-column statistics of a standardization.
type scaler struct {
	mean  []float64
	scale []float64
}

// Standardize rescales every column of features to zero mean and unit variance
// using population statistics over all rows. The input is left untouched.
// Columns with zero variance are only centered.
func Standardize(features [][]float64) [][]float64 {
	if len(features) == 0 {
		return nil
	}

	s := fitScaler(features)
	scaled := make([][]float64, len(features))
	for i, row := range features {
		scaled[i] = s.transform(row)
	}

	return scaled
}

func fitScaler(features [][]float64) *scaler {
	dims := len(features[0])
	s := &scaler{
		mean:  make([]float64, dims),
		scale: make([]float64, dims),
	}

	column := make([]float64, len(features))
	for j := range dims {
		for i, row := range features {
			column[i] = row[j]
		}
		mean, std := stat.PopMeanStdDev(column, nil)
		if std == 0 {
			std = 1
		}
		s.mean[j] = mean
		s.scale[j] = std
	}

	return s
}

func (s *scaler) transform(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.mean[j]) / s.scale[j]
	}

	return out
}
