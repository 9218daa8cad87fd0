// Package store provides the pluggable persistence behind the transfer
// registry: an in-memory map for single-process deployments and tests, and
// Redis for multi-process deployments.
package store

import (
	"context"
	"time"

	"github.com/openterra/reproject-backend/internal/transfer/domain"
)

// Store persists transfer records. Implementations must be safe for
// concurrent use. Get and Delete return domain.ErrNotFound for unknown
// identifiers.
type Store interface {
	Put(ctx context.Context, rec domain.Record) error
	Get(ctx context.Context, fileID string) (domain.Record, error)
	Delete(ctx context.Context, fileID string) error

	// ExpiredBefore lists records created before cutoff.
	ExpiredBefore(ctx context.Context, cutoff time.Time) ([]domain.Record, error)

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}
