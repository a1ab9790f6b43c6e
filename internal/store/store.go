// Package store defines the table-loading interface for the report engine.
// Implementations include PostgreSQL (source of truth), Redis (read-through
// cache), and in-memory (for testing).
//
// The three tables are built upstream by the import stage; this process only
// ever reads them. The single mutable surface is shared-summary storage,
// which holds rendered summaries published through the share endpoint.
package store

import (
	"context"
	"errors"

	"github.com/buff/report-engine/internal/model"
)

// ErrNotFound is returned when a requested shared summary does not exist.
var ErrNotFound = errors.New("store: not found")

// Store loads the report tables. PostgreSQL is the source of truth; Redis
// provides a read-through cache layer for warm restarts.
type Store interface {
	// Transactions returns the full transaction log in chronological order.
	Transactions(ctx context.Context) ([]model.Transaction, error)

	// Positions returns the open-position snapshot.
	Positions(ctx context.Context) ([]model.Position, error)

	// Chains returns the chain summary table.
	Chains(ctx context.Context) ([]model.Chain, error)

	// PutSharedSummary stores a rendered summary under the given ID.
	PutSharedSummary(ctx context.Context, id string, payload []byte) error

	// GetSharedSummary retrieves a previously shared summary.
	GetSharedSummary(ctx context.Context, id string) ([]byte, error)
}
