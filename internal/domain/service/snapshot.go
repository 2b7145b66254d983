package service

import (
	"context"

	"MacroPulse/internal/domain/models"
)

// SnapshotAggregator resolves every applicable field and merges them into one snapshot.
type SnapshotAggregator interface {
	Aggregate(ctx context.Context, p models.SnapshotParams) (*models.Snapshot, error)
}
