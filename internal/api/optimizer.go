package api

import (
	"context"

	"github.com/UnknownOlympus/busopt/internal/models"
)

// Optimizer runs a single bus stop optimization.
type Optimizer interface {
	// Optimize clusters the configured dataset with params and returns the names
	// of the artifacts it wrote.
	Optimize(ctx context.Context, params models.OptimizeParams) (*models.OptimizeResult, error)
}
