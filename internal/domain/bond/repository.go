package bond

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
)

// Repository defines bond persistence operations
type Repository interface {
	// Create inserts the bond and assigns its sequential ID.
	Create(ctx context.Context, b *Bond) error
	GetByID(ctx context.Context, id int64) (*Bond, error)
	List(ctx context.Context) ([]*Bond, error)

	// Update persists the bond, failing with ErrConcurrentModification
	// when the stored version no longer matches.
	Update(ctx context.Context, b *Bond) error

	// LockForUpdate acquires a row lock on the bond for the duration of
	// the surrounding transaction. Ledger operations take this lock
	// before any position lock (fixed bond-before-position order).
	LockForUpdate(ctx context.Context, id int64) (*Bond, error)

	WithTx(tx pgx.Tx) Repository
}

// ErrConcurrentModification indicates optimistic lock failure
type ErrConcurrentModification struct {
	BondID int64
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for bond: " + strconv.FormatInt(e.BondID, 10)
}
