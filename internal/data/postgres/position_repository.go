package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/fracbond-investment-ledger/internal/domain/position"
	"github.com/fracbond-investment-ledger/internal/platform/persistence"
)

// PositionRepository implements the position.Repository interface for PostgreSQL
type PositionRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewPositionRepository creates a new PostgreSQL position repository.
// It expects db.Pool() to satisfy persistence.Querier.
func NewPositionRepository(logger *slog.Logger, db *persistence.PostgresDB) position.Repository {
	return &PositionRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic
// operations across multiple repository calls.
func (r *PositionRepository) WithTx(tx pgx.Tx) position.Repository {
	return &PositionRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new position. The (bond_id, investor_key) pair is the
// primary key, so a duplicate insert fails with a constraint error.
func (r *PositionRepository) Create(ctx context.Context, p *position.Position) error {
	query := `
		INSERT INTO positions (bond_id, investor_key, principal, claimed_interest, last_accrual_at, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.querier.Exec(ctx, query,
		p.BondID,
		p.InvestorKey,
		p.Principal,
		p.ClaimedInterest,
		p.LastAccrualAt,
		p.Version,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create position", "bondID", p.BondID, "investor", p.InvestorKey, "error", err)
		return fmt.Errorf("failed to create position: %w", err)
	}

	return nil
}

// Get retrieves a position by its (bond, investor) pair
func (r *PositionRepository) Get(ctx context.Context, bondID int64, investorKey string) (*position.Position, error) {
	query := `
		SELECT bond_id, investor_key, principal, claimed_interest, last_accrual_at, version, created_at, updated_at
		FROM positions
		WHERE bond_id = $1 AND investor_key = $2
	`

	var p position.Position
	err := r.querier.QueryRow(ctx, query, bondID, investorKey).Scan(
		&p.BondID,
		&p.InvestorKey,
		&p.Principal,
		&p.ClaimedInterest,
		&p.LastAccrualAt,
		&p.Version,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, position.ErrPositionNotFound{BondID: bondID, InvestorKey: investorKey}
		}
		r.logger.Error("Failed to get position", "bondID", bondID, "investor", investorKey, "error", err)
		return nil, fmt.Errorf("failed to get position: %w", err)
	}

	return &p, nil
}

// ListByInvestor retrieves every position held by one investor, including
// zero-principal records left behind by redemption.
func (r *PositionRepository) ListByInvestor(ctx context.Context, investorKey string) ([]*position.Position, error) {
	query := `
		SELECT bond_id, investor_key, principal, claimed_interest, last_accrual_at, version, created_at, updated_at
		FROM positions
		WHERE investor_key = $1
		ORDER BY bond_id
	`

	rows, err := r.querier.Query(ctx, query, investorKey)
	if err != nil {
		r.logger.Error("Failed to list positions", "investor", investorKey, "error", err)
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	defer rows.Close()

	var positions []*position.Position
	for rows.Next() {
		var p position.Position
		err := rows.Scan(
			&p.BondID,
			&p.InvestorKey,
			&p.Principal,
			&p.ClaimedInterest,
			&p.LastAccrualAt,
			&p.Version,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan position row", "error", err)
			return nil, fmt.Errorf("failed to scan position row: %w", err)
		}
		positions = append(positions, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate position rows: %w", err)
	}

	return positions, nil
}

// CountInvestorsByBond counts positions with outstanding principal
func (r *PositionRepository) CountInvestorsByBond(ctx context.Context, bondID int64) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM positions
		WHERE bond_id = $1 AND principal > 0
	`

	var count int64
	err := r.querier.QueryRow(ctx, query, bondID).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count investors", "bondID", bondID, "error", err)
		return 0, fmt.Errorf("failed to count investors: %w", err)
	}

	return count, nil
}

// Update updates an existing position using optimistic locking
func (r *PositionRepository) Update(ctx context.Context, p *position.Position) error {
	query := `
		UPDATE positions
		SET principal = $1, claimed_interest = $2, last_accrual_at = $3, version = $4, updated_at = $5
		WHERE bond_id = $6 AND investor_key = $7 AND version = $8
	`

	result, err := r.querier.Exec(ctx, query,
		p.Principal,
		p.ClaimedInterest,
		p.LastAccrualAt,
		p.Version,
		p.UpdatedAt,
		p.BondID,
		p.InvestorKey,
		p.Version-1, // Check previous version for optimistic locking
	)
	if err != nil {
		r.logger.Error("Failed to update position", "bondID", p.BondID, "investor", p.InvestorKey, "error", err)
		return fmt.Errorf("failed to update position: %w", err)
	}

	if result.RowsAffected() == 0 {
		return position.ErrConcurrentModification{BondID: p.BondID, InvestorKey: p.InvestorKey}
	}

	return nil
}

// LockForUpdate obtains a pessimistic lock on the position and returns its
// current state. Ledger operations take the bond lock first, then this one.
func (r *PositionRepository) LockForUpdate(ctx context.Context, bondID int64, investorKey string) (*position.Position, error) {
	query := `
		SELECT bond_id, investor_key, principal, claimed_interest, last_accrual_at, version, created_at, updated_at
		FROM positions
		WHERE bond_id = $1 AND investor_key = $2
		FOR UPDATE
	`

	var p position.Position
	err := r.querier.QueryRow(ctx, query, bondID, investorKey).Scan(
		&p.BondID,
		&p.InvestorKey,
		&p.Principal,
		&p.ClaimedInterest,
		&p.LastAccrualAt,
		&p.Version,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, position.ErrPositionNotFound{BondID: bondID, InvestorKey: investorKey}
		}
		r.logger.Error("Failed to lock position for update", "bondID", bondID, "investor", investorKey, "error", err)
		return nil, fmt.Errorf("failed to lock position for update: %w", err)
	}

	return &p, nil
}
