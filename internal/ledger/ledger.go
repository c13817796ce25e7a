// Package ledger implements the investor ledger: invest, claim, and
// redeem. Every operation runs in a single database transaction that
// locks the bond row first and the position row second, realizes accrued
// interest before touching principal, and writes the resulting event to
// the transactional outbox.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fracbond-investment-ledger/internal/accrual"
	"github.com/fracbond-investment-ledger/internal/domain/bond"
	"github.com/fracbond-investment-ledger/internal/domain/money"
	"github.com/fracbond-investment-ledger/internal/domain/outbox"
	"github.com/fracbond-investment-ledger/internal/domain/position"
	"github.com/fracbond-investment-ledger/internal/domain/shared"
)

// TxRunner runs a function inside a database transaction
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// Ledger coordinates all position mutations
type Ledger struct {
	db         TxRunner
	bondRepo   bond.Repository
	positions  position.Repository
	outboxRepo outbox.Repository
	locks      *lockManager
	logger     *slog.Logger
}

// NewLedger creates the investor ledger service
func NewLedger(logger *slog.Logger, db TxRunner, bondRepo bond.Repository, positions position.Repository, outboxRepo outbox.Repository) *Ledger {
	return &Ledger{
		db:         db,
		bondRepo:   bondRepo,
		positions:  positions,
		outboxRepo: outboxRepo,
		locks:      newLockManager(),
		logger:     logger,
	}
}

// NormalizeInvestorKey lowercases an investor address so one wallet maps
// to one position regardless of input casing.
func NormalizeInvestorKey(key string) string {
	return strings.ToLower(key)
}

// Invest adds amount to the investor's position in the bond, creating
// the position on first investment. Interest accrued on the existing
// principal is realized before the principal changes, so past accrual is
// never recomputed against the larger principal.
func (l *Ledger) Invest(ctx context.Context, bondID int64, investorKey string, amount money.Money, now time.Time) (*position.Position, error) {
	investorKey = NormalizeInvestorKey(investorKey)

	lock := l.locks.acquire(bondID, investorKey)
	lock.Lock()
	defer lock.Unlock()

	var result *position.Position
	err := l.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		bonds := l.bondRepo.WithTx(tx)
		positions := l.positions.WithTx(tx)
		outboxMessages := l.outboxRepo.WithTx(tx)

		b, err := bonds.LockForUpdate(ctx, bondID)
		if err != nil {
			return err
		}

		if b.MatureIfDue(now) {
			if err := bonds.Update(ctx, b); err != nil {
				return err
			}
		}

		if !b.AcceptsInvestment() {
			return bond.ErrNotAcceptingInvestment
		}
		if !amount.IsPositive() || amount.LessThan(b.MinimumInvestment) {
			return bond.ErrBelowMinimumInvestment
		}

		var realized money.Money
		p, err := positions.LockForUpdate(ctx, bondID, investorKey)
		if err != nil {
			var notFound position.ErrPositionNotFound
			if !errors.As(err, &notFound) {
				return err
			}
			p = position.New(bondID, investorKey, amount, now)
			if err := positions.Create(ctx, p); err != nil {
				return err
			}
		} else {
			realized = accrual.Accrue(p.Principal, b.CouponRateBps, p.ElapsedSeconds(now))
			p.Realize(realized, now)
			p.AddPrincipal(amount, now)
			if err := positions.Update(ctx, p); err != nil {
				return err
			}
		}

		b.RecordInvestment(amount, now)
		if err := bonds.Update(ctx, b); err != nil {
			return err
		}

		if err := l.recordEvent(ctx, outboxMessages, &shared.LedgerEvent{
			EventID:          uuid.New(),
			Type:             shared.EventTypeInvested,
			BondID:           bondID,
			InvestorKey:      investorKey,
			Amount:           amount,
			RealizedInterest: realized,
			PrincipalAfter:   p.Principal,
			CorrelationID:    shared.CorrelationID(ctx),
			OccurredAt:       now,
		}); err != nil {
			return err
		}

		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("Investment recorded",
		"bond_id", bondID,
		"investor", investorKey,
		"amount", amount.String(),
		"principal_after", result.Principal.String(),
	)
	return result, nil
}

// ClaimInterest realizes all interest accrued since the last accrual
// point and resets the clock. Returns ErrNothingToClaim when the accrued
// amount truncates to zero, and ErrNoPrincipal on a redeemed position.
func (l *Ledger) ClaimInterest(ctx context.Context, bondID int64, investorKey string, now time.Time) (money.Money, error) {
	investorKey = NormalizeInvestorKey(investorKey)

	lock := l.locks.acquire(bondID, investorKey)
	lock.Lock()
	defer lock.Unlock()

	var claimed money.Money
	err := l.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		bonds := l.bondRepo.WithTx(tx)
		positions := l.positions.WithTx(tx)
		outboxMessages := l.outboxRepo.WithTx(tx)

		b, err := bonds.LockForUpdate(ctx, bondID)
		if err != nil {
			return err
		}

		if b.MatureIfDue(now) {
			if err := bonds.Update(ctx, b); err != nil {
				return err
			}
		}

		p, err := positions.LockForUpdate(ctx, bondID, investorKey)
		if err != nil {
			return err
		}
		if !p.HasPrincipal() {
			return position.ErrNoPrincipal
		}

		accrued := accrual.Accrue(p.Principal, b.CouponRateBps, p.ElapsedSeconds(now))
		if accrued.IsZero() {
			return position.ErrNothingToClaim
		}

		p.Realize(accrued, now)
		if err := positions.Update(ctx, p); err != nil {
			return err
		}

		if err := l.recordEvent(ctx, outboxMessages, &shared.LedgerEvent{
			EventID:        uuid.New(),
			Type:           shared.EventTypeInterestClaimed,
			BondID:         bondID,
			InvestorKey:    investorKey,
			Amount:         accrued,
			PrincipalAfter: p.Principal,
			CorrelationID:  shared.CorrelationID(ctx),
			OccurredAt:     now,
		}); err != nil {
			return err
		}

		claimed = accrued
		return nil
	})
	if err != nil {
		return money.Zero, err
	}

	l.logger.Info("Interest claimed",
		"bond_id", bondID,
		"investor", investorKey,
		"amount", claimed.String(),
	)
	return claimed, nil
}

// Redeem pays out the principal of a matured bond. Any interest accrued
// since the last claim is realized into claimed interest first and
// returned separately; the payout itself is principal only. The position
// stays behind with zero principal, which makes a second redeem fail
// with ErrNoPrincipal.
func (l *Ledger) Redeem(ctx context.Context, bondID int64, investorKey string, now time.Time) (payout money.Money, finalInterest money.Money, err error) {
	investorKey = NormalizeInvestorKey(investorKey)

	lock := l.locks.acquire(bondID, investorKey)
	lock.Lock()
	defer lock.Unlock()

	err = l.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		bonds := l.bondRepo.WithTx(tx)
		positions := l.positions.WithTx(tx)
		outboxMessages := l.outboxRepo.WithTx(tx)

		b, err := bonds.LockForUpdate(ctx, bondID)
		if err != nil {
			return err
		}

		if b.MatureIfDue(now) {
			if err := bonds.Update(ctx, b); err != nil {
				return err
			}
		}
		if b.StateAt(now) != bond.StateMatured {
			return bond.ErrNotMatured
		}

		p, err := positions.LockForUpdate(ctx, bondID, investorKey)
		if err != nil {
			return err
		}
		if !p.HasPrincipal() {
			return position.ErrNoPrincipal
		}

		finalInterest = accrual.Accrue(p.Principal, b.CouponRateBps, p.ElapsedSeconds(now))
		p.Realize(finalInterest, now)

		principal := p.Redeem(now)
		if err := positions.Update(ctx, p); err != nil {
			return err
		}

		b.RecordRedemption(principal, now)
		if err := bonds.Update(ctx, b); err != nil {
			return err
		}

		if err := l.recordEvent(ctx, outboxMessages, &shared.LedgerEvent{
			EventID:          uuid.New(),
			Type:             shared.EventTypeRedeemed,
			BondID:           bondID,
			InvestorKey:      investorKey,
			Amount:           principal,
			RealizedInterest: finalInterest,
			PrincipalAfter:   money.Zero,
			CorrelationID:    shared.CorrelationID(ctx),
			OccurredAt:       now,
		}); err != nil {
			return err
		}

		payout = principal
		return nil
	})
	if err != nil {
		return money.Zero, money.Zero, err
	}

	l.logger.Info("Position redeemed",
		"bond_id", bondID,
		"investor", investorKey,
		"payout", payout.String(),
	)
	return payout, finalInterest, nil
}

// GetPosition retrieves one position, tombstones included
func (l *Ledger) GetPosition(ctx context.Context, bondID int64, investorKey string) (*position.Position, error) {
	return l.positions.Get(ctx, bondID, NormalizeInvestorKey(investorKey))
}

func (l *Ledger) recordEvent(ctx context.Context, outboxMessages outbox.Repository, event *shared.LedgerEvent) error {
	message, err := outbox.NewMessage(event)
	if err != nil {
		return err
	}
	return outboxMessages.Create(ctx, message)
}
