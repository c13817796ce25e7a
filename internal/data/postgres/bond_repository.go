// Package postgres provides PostgreSQL implementations of the domain
// repositories. It handles all database operations while maintaining
// transaction safety and proper error handling for the bond ledger.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/fracbond-investment-ledger/internal/domain/bond"
	"github.com/fracbond-investment-ledger/internal/platform/persistence"
)

// BondRepository implements the bond.Repository interface for PostgreSQL
type BondRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewBondRepository creates a new PostgreSQL bond repository.
// It expects db.Pool() to satisfy persistence.Querier.
func NewBondRepository(logger *slog.Logger, db *persistence.PostgresDB) bond.Repository {
	return &BondRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic
// operations across multiple repository calls. The returned repository
// will use the provided transaction for all database operations.
func (r *BondRepository) WithTx(tx pgx.Tx) bond.Repository {
	return &BondRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new bond and assigns its database-generated ID.
func (r *BondRepository) Create(ctx context.Context, b *bond.Bond) error {
	query := `
		INSERT INTO bonds (name, issuer, description, face_value, coupon_rate_bps, issue_at, maturity_at, minimum_investment, state, total_raised, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		b.Name,
		b.Issuer,
		b.Description,
		b.FaceValue,
		b.CouponRateBps,
		b.IssueAt,
		b.MaturityAt,
		b.MinimumInvestment,
		b.State,
		b.TotalRaised,
		b.Version,
		b.CreatedAt,
		b.UpdatedAt,
	).Scan(&b.ID)
	if err != nil {
		r.logger.Error("Failed to create bond", "error", err)
		return fmt.Errorf("failed to create bond: %w", err)
	}

	return nil
}

// GetByID retrieves a bond by its ID
func (r *BondRepository) GetByID(ctx context.Context, id int64) (*bond.Bond, error) {
	query := `
		SELECT id, name, issuer, description, face_value, coupon_rate_bps, issue_at, maturity_at, minimum_investment, state, total_raised, version, created_at, updated_at
		FROM bonds
		WHERE id = $1
	`

	var b bond.Bond
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&b.ID,
		&b.Name,
		&b.Issuer,
		&b.Description,
		&b.FaceValue,
		&b.CouponRateBps,
		&b.IssueAt,
		&b.MaturityAt,
		&b.MinimumInvestment,
		&b.State,
		&b.TotalRaised,
		&b.Version,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, bond.ErrBondNotFound{BondID: id}
		}
		r.logger.Error("Failed to get bond", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get bond: %w", err)
	}

	return &b, nil
}

// List retrieves all bonds ordered by ID
func (r *BondRepository) List(ctx context.Context) ([]*bond.Bond, error) {
	query := `
		SELECT id, name, issuer, description, face_value, coupon_rate_bps, issue_at, maturity_at, minimum_investment, state, total_raised, version, created_at, updated_at
		FROM bonds
		ORDER BY id
	`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list bonds", "error", err)
		return nil, fmt.Errorf("failed to list bonds: %w", err)
	}
	defer rows.Close()

	var bonds []*bond.Bond
	for rows.Next() {
		var b bond.Bond
		err := rows.Scan(
			&b.ID,
			&b.Name,
			&b.Issuer,
			&b.Description,
			&b.FaceValue,
			&b.CouponRateBps,
			&b.IssueAt,
			&b.MaturityAt,
			&b.MinimumInvestment,
			&b.State,
			&b.TotalRaised,
			&b.Version,
			&b.CreatedAt,
			&b.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan bond row", "error", err)
			return nil, fmt.Errorf("failed to scan bond row: %w", err)
		}
		bonds = append(bonds, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bond rows: %w", err)
	}

	return bonds, nil
}

// Update updates an existing bond using optimistic locking
func (r *BondRepository) Update(ctx context.Context, b *bond.Bond) error {
	query := `
		UPDATE bonds
		SET name = $1, issuer = $2, description = $3, state = $4, total_raised = $5, version = $6, updated_at = $7
		WHERE id = $8 AND version = $9
	`

	result, err := r.querier.Exec(ctx, query,
		b.Name,
		b.Issuer,
		b.Description,
		b.State,
		b.TotalRaised,
		b.Version,
		b.UpdatedAt,
		b.ID,
		b.Version-1, // Check previous version for optimistic locking
	)
	if err != nil {
		r.logger.Error("Failed to update bond", "id", b.ID, "error", err)
		return fmt.Errorf("failed to update bond: %w", err)
	}

	if result.RowsAffected() == 0 {
		return bond.ErrConcurrentModification{BondID: b.ID}
	}

	return nil
}

// LockForUpdate obtains a pessimistic lock on the bond and returns its
// current state. This should be used within a transaction when strong
// consistency is required. The bond lock is always taken before any
// position lock on the same bond.
func (r *BondRepository) LockForUpdate(ctx context.Context, id int64) (*bond.Bond, error) {
	query := `
		SELECT id, name, issuer, description, face_value, coupon_rate_bps, issue_at, maturity_at, minimum_investment, state, total_raised, version, created_at, updated_at
		FROM bonds
		WHERE id = $1
		FOR UPDATE
	`

	var b bond.Bond
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&b.ID,
		&b.Name,
		&b.Issuer,
		&b.Description,
		&b.FaceValue,
		&b.CouponRateBps,
		&b.IssueAt,
		&b.MaturityAt,
		&b.MinimumInvestment,
		&b.State,
		&b.TotalRaised,
		&b.Version,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, bond.ErrBondNotFound{BondID: id}
		}
		r.logger.Error("Failed to lock bond for update", "id", id, "error", err)
		return nil, fmt.Errorf("failed to lock bond for update: %w", err)
	}

	return &b, nil
}
