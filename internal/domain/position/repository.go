package position

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Repository defines position persistence operations
type Repository interface {
	Create(ctx context.Context, p *Position) error

	// Get returns ErrPositionNotFound when no record exists for the pair.
	Get(ctx context.Context, bondID int64, investorKey string) (*Position, error)

	// ListByInvestor returns every position (including zero-principal
	// tombstones) held by one investor.
	ListByInvestor(ctx context.Context, investorKey string) ([]*Position, error)

	// CountInvestorsByBond counts positions with outstanding principal.
	CountInvestorsByBond(ctx context.Context, bondID int64) (int64, error)

	// Update persists the position, failing with
	// ErrConcurrentModification when the stored version no longer
	// matches.
	Update(ctx context.Context, p *Position) error

	// LockForUpdate acquires a row lock on the position for the duration
	// of the surrounding transaction. Acquired after the bond lock, never
	// before.
	LockForUpdate(ctx context.Context, bondID int64, investorKey string) (*Position, error)

	WithTx(tx pgx.Tx) Repository
}
