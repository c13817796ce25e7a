package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fracbond-investment-ledger/internal/domain/bond"
	"github.com/fracbond-investment-ledger/internal/domain/money"
	"github.com/fracbond-investment-ledger/internal/domain/outbox"
	"github.com/fracbond-investment-ledger/internal/domain/position"
	"github.com/fracbond-investment-ledger/internal/domain/shared"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// In-memory repository fakes. LockForUpdate and Get return copies so a
// mutation that skips Update never leaks into the store, mirroring what a
// rolled-back transaction would look like.

type fakeTxRunner struct{}

func (f *fakeTxRunner) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

type memBondRepo struct {
	bonds  map[int64]*bond.Bond
	nextID int64
}

func newMemBondRepo() *memBondRepo {
	return &memBondRepo{bonds: map[int64]*bond.Bond{}, nextID: 1}
}

func (r *memBondRepo) Create(ctx context.Context, b *bond.Bond) error {
	b.ID = r.nextID
	r.nextID++
	stored := *b
	r.bonds[b.ID] = &stored
	return nil
}

func (r *memBondRepo) GetByID(ctx context.Context, id int64) (*bond.Bond, error) {
	stored, ok := r.bonds[id]
	if !ok {
		return nil, bond.ErrBondNotFound{BondID: id}
	}
	b := *stored
	return &b, nil
}

func (r *memBondRepo) List(ctx context.Context) ([]*bond.Bond, error) {
	out := make([]*bond.Bond, 0, len(r.bonds))
	for _, stored := range r.bonds {
		b := *stored
		out = append(out, &b)
	}
	return out, nil
}

func (r *memBondRepo) Update(ctx context.Context, b *bond.Bond) error {
	if _, ok := r.bonds[b.ID]; !ok {
		return bond.ErrBondNotFound{BondID: b.ID}
	}
	stored := *b
	r.bonds[b.ID] = &stored
	return nil
}

func (r *memBondRepo) LockForUpdate(ctx context.Context, id int64) (*bond.Bond, error) {
	return r.GetByID(ctx, id)
}

func (r *memBondRepo) WithTx(tx pgx.Tx) bond.Repository { return r }

type memPositionRepo struct {
	positions map[string]*position.Position
}

func newMemPositionRepo() *memPositionRepo {
	return &memPositionRepo{positions: map[string]*position.Position{}}
}

func positionKeyOf(bondID int64, investorKey string) string {
	return fmt.Sprintf("%d/%s", bondID, investorKey)
}

func (r *memPositionRepo) Create(ctx context.Context, p *position.Position) error {
	stored := *p
	r.positions[positionKeyOf(p.BondID, p.InvestorKey)] = &stored
	return nil
}

func (r *memPositionRepo) Get(ctx context.Context, bondID int64, investorKey string) (*position.Position, error) {
	stored, ok := r.positions[positionKeyOf(bondID, investorKey)]
	if !ok {
		return nil, position.ErrPositionNotFound{BondID: bondID, InvestorKey: investorKey}
	}
	p := *stored
	return &p, nil
}

func (r *memPositionRepo) ListByInvestor(ctx context.Context, investorKey string) ([]*position.Position, error) {
	var out []*position.Position
	for _, stored := range r.positions {
		if stored.InvestorKey == investorKey {
			p := *stored
			out = append(out, &p)
		}
	}
	return out, nil
}

func (r *memPositionRepo) CountInvestorsByBond(ctx context.Context, bondID int64) (int64, error) {
	var n int64
	for _, stored := range r.positions {
		if stored.BondID == bondID && stored.HasPrincipal() {
			n++
		}
	}
	return n, nil
}

func (r *memPositionRepo) Update(ctx context.Context, p *position.Position) error {
	key := positionKeyOf(p.BondID, p.InvestorKey)
	if _, ok := r.positions[key]; !ok {
		return position.ErrPositionNotFound{BondID: p.BondID, InvestorKey: p.InvestorKey}
	}
	stored := *p
	r.positions[key] = &stored
	return nil
}

func (r *memPositionRepo) LockForUpdate(ctx context.Context, bondID int64, investorKey string) (*position.Position, error) {
	return r.Get(ctx, bondID, investorKey)
}

func (r *memPositionRepo) WithTx(tx pgx.Tx) position.Repository { return r }

type memOutboxRepo struct {
	messages []*outbox.Message
}

func (r *memOutboxRepo) Create(ctx context.Context, message *outbox.Message) error {
	message.ID = int64(len(r.messages) + 1)
	r.messages = append(r.messages, message)
	return nil
}

func (r *memOutboxRepo) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	return nil, nil
}

func (r *memOutboxRepo) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	return nil
}

func (r *memOutboxRepo) IncrementAttempts(ctx context.Context, id int64) error {
	return nil
}

func (r *memOutboxRepo) WithTx(tx pgx.Tx) outbox.Repository { return r }

type ledgerFixture struct {
	ledger    *Ledger
	bonds     *memBondRepo
	positions *memPositionRepo
	outbox    *memOutboxRepo
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	bonds := newMemBondRepo()
	positions := newMemPositionRepo()
	outboxRepo := &memOutboxRepo{}
	return &ledgerFixture{
		ledger:    NewLedger(newTestLogger(), &fakeTxRunner{}, bonds, positions, outboxRepo),
		bonds:     bonds,
		positions: positions,
		outbox:    outboxRepo,
	}
}

func (f *ledgerFixture) createBond(t *testing.T, couponRateBps int64, issuedAt, maturityAt time.Time) int64 {
	t.Helper()
	b, err := bond.New(bond.Terms{
		Name:              "Test Bond",
		Issuer:            "Test Issuer",
		FaceValue:         money.FromMinorUnits(1_000_000_000),
		CouponRateBps:     couponRateBps,
		MaturityAt:        maturityAt,
		MinimumInvestment: money.FromMinorUnits(10_000),
	}, issuedAt)
	require.NoError(t, err)
	require.NoError(t, f.bonds.Create(context.Background(), b))
	return b.ID
}

func (f *ledgerFixture) lastEvent(t *testing.T) *shared.LedgerEvent {
	t.Helper()
	require.NotEmpty(t, f.outbox.messages)
	event, err := f.outbox.messages[len(f.outbox.messages)-1].Event()
	require.NoError(t, err)
	return event
}

func TestLedger_Invest(t *testing.T) {
	ctx := context.Background()
	issuedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	maturityAt := issuedAt.AddDate(2, 0, 0)

	t.Run("first investment creates the position", func(t *testing.T) {
		f := newLedgerFixture(t)
		bondID := f.createBond(t, 450, issuedAt, maturityAt)

		p, err := f.ledger.Invest(ctx, bondID, "0xABC", money.FromMinorUnits(100_000), issuedAt)
		require.NoError(t, err)
		assert.Equal(t, "0xabc", p.InvestorKey)
		assert.Equal(t, money.FromMinorUnits(100_000), p.Principal)
		assert.Equal(t, money.Zero, p.ClaimedInterest)
		assert.Equal(t, issuedAt, p.LastAccrualAt)

		b, err := f.bonds.GetByID(ctx, bondID)
		require.NoError(t, err)
		assert.Equal(t, money.FromMinorUnits(100_000), b.TotalRaised)

		event := f.lastEvent(t)
		assert.Equal(t, shared.EventTypeInvested, event.Type)
		assert.Equal(t, money.FromMinorUnits(100_000), event.Amount)
		assert.Equal(t, money.Zero, event.RealizedInterest)
		assert.Equal(t, money.FromMinorUnits(100_000), event.PrincipalAfter)
	})

	t.Run("second investment realizes interest before adding principal", func(t *testing.T) {
		f := newLedgerFixture(t)
		bondID := f.createBond(t, 450, issuedAt, maturityAt)

		_, err := f.ledger.Invest(ctx, bondID, "0xabc", money.FromMinorUnits(100_000), issuedAt)
		require.NoError(t, err)

		// 100 days at 4.50% on $1000.00 accrues $12.32 (truncated).
		after100Days := issuedAt.Add(100 * 24 * time.Hour)
		p, err := f.ledger.Invest(ctx, bondID, "0xabc", money.FromMinorUnits(100_000), after100Days)
		require.NoError(t, err)
		assert.Equal(t, money.FromMinorUnits(200_000), p.Principal)
		assert.Equal(t, money.FromMinorUnits(1_232), p.ClaimedInterest)
		assert.Equal(t, after100Days, p.LastAccrualAt)

		event := f.lastEvent(t)
		assert.Equal(t, money.FromMinorUnits(1_232), event.RealizedInterest)
		assert.Equal(t, money.FromMinorUnits(200_000), event.PrincipalAfter)
	})

	t.Run("mixed-case addresses map to one position", func(t *testing.T) {
		f := newLedgerFixture(t)
		bondID := f.createBond(t, 450, issuedAt, maturityAt)

		_, err := f.ledger.Invest(ctx, bondID, "0xAbCd", money.FromMinorUnits(100_000), issuedAt)
		require.NoError(t, err)
		p, err := f.ledger.Invest(ctx, bondID, "0xABCD", money.FromMinorUnits(50_000), issuedAt)
		require.NoError(t, err)
		assert.Equal(t, money.FromMinorUnits(150_000), p.Principal)

		got, err := f.ledger.GetPosition(ctx, bondID, "0xabcd")
		require.NoError(t, err)
		assert.Equal(t, money.FromMinorUnits(150_000), got.Principal)
	})

	t.Run("below minimum investment", func(t *testing.T) {
		f := newLedgerFixture(t)
		bondID := f.createBond(t, 450, issuedAt, maturityAt)

		_, err := f.ledger.Invest(ctx, bondID, "0xabc", money.FromMinorUnits(9_999), issuedAt)
		assert.ErrorIs(t, err, bond.ErrBelowMinimumInvestment)

		_, err = f.ledger.Invest(ctx, bondID, "0xabc", money.Zero, issuedAt)
		assert.ErrorIs(t, err, bond.ErrBelowMinimumInvestment)
	})

	t.Run("closed bond rejects investment", func(t *testing.T) {
		f := newLedgerFixture(t)
		bondID := f.createBond(t, 450, issuedAt, maturityAt)

		b, err := f.bonds.GetByID(ctx, bondID)
		require.NoError(t, err)
		require.NoError(t, b.CloseForInvestment(issuedAt))
		require.NoError(t, f.bonds.Update(ctx, b))

		_, err = f.ledger.Invest(ctx, bondID, "0xabc", money.FromMinorUnits(100_000), issuedAt)
		assert.ErrorIs(t, err, bond.ErrNotAcceptingInvestment)
	})

	t.Run("investment at maturity rejected", func(t *testing.T) {
		f := newLedgerFixture(t)
		bondID := f.createBond(t, 450, issuedAt, maturityAt)

		_, err := f.ledger.Invest(ctx, bondID, "0xabc", money.FromMinorUnits(100_000), maturityAt)
		assert.ErrorIs(t, err, bond.ErrNotAcceptingInvestment)
	})

	t.Run("unknown bond", func(t *testing.T) {
		f := newLedgerFixture(t)
		_, err := f.ledger.Invest(ctx, 404, "0xabc", money.FromMinorUnits(100_000), issuedAt)
		assert.ErrorIs(t, err, bond.ErrBondNotFound{BondID: 404})
	})
}

func TestLedger_ClaimInterest(t *testing.T) {
	ctx := context.Background()
	issuedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	maturityAt := issuedAt.AddDate(2, 0, 0)

	t.Run("claims accrued interest and resets the clock", func(t *testing.T) {
		f := newLedgerFixture(t)
		bondID := f.createBond(t, 450, issuedAt, maturityAt)
		_, err := f.ledger.Invest(ctx, bondID, "0xabc", money.FromMinorUnits(100_000), issuedAt)
		require.NoError(t, err)

		// Half a year at 4.50% on $1000.00 is exactly $22.50.
		halfYear := issuedAt.Add(15_768_000 * time.Second)
		claimed, err := f.ledger.ClaimInterest(ctx, bondID, "0xabc", halfYear)
		require.NoError(t, err)
		assert.Equal(t, money.FromMinorUnits(2_250), claimed)

		p, err := f.ledger.GetPosition(ctx, bondID, "0xabc")
		require.NoError(t, err)
		assert.Equal(t, money.FromMinorUnits(2_250), p.ClaimedInterest)
		assert.Equal(t, money.FromMinorUnits(100_000), p.Principal)
		assert.Equal(t, halfYear, p.LastAccrualAt)

		event := f.lastEvent(t)
		assert.Equal(t, shared.EventTypeInterestClaimed, event.Type)
		assert.Equal(t, money.FromMinorUnits(2_250), event.Amount)
	})

	t.Run("second claim in the same second has nothing to claim", func(t *testing.T) {
		f := newLedgerFixture(t)
		bondID := f.createBond(t, 450, issuedAt, maturityAt)
		_, err := f.ledger.Invest(ctx, bondID, "0xabc", money.FromMinorUnits(100_000), issuedAt)
		require.NoError(t, err)

		halfYear := issuedAt.Add(15_768_000 * time.Second)
		_, err = f.ledger.ClaimInterest(ctx, bondID, "0xabc", halfYear)
		require.NoError(t, err)

		_, err = f.ledger.ClaimInterest(ctx, bondID, "0xabc", halfYear)
		assert.ErrorIs(t, err, position.ErrNothingToClaim)
	})

	t.Run("claim on a redeemed position", func(t *testing.T) {
		f := newLedgerFixture(t)
		bondID := f.createBond(t, 450, issuedAt, maturityAt)
		_, err := f.ledger.Invest(ctx, bondID, "0xabc", money.FromMinorUnits(100_000), issuedAt)
		require.NoError(t, err)

		_, _, err = f.ledger.Redeem(ctx, bondID, "0xabc", maturityAt)
		require.NoError(t, err)

		_, err = f.ledger.ClaimInterest(ctx, bondID, "0xabc", maturityAt.Add(time.Hour))
		assert.ErrorIs(t, err, position.ErrNoPrincipal)
	})

	t.Run("claim without a position", func(t *testing.T) {
		f := newLedgerFixture(t)
		bondID := f.createBond(t, 450, issuedAt, maturityAt)

		_, err := f.ledger.ClaimInterest(ctx, bondID, "0xabc", issuedAt)
		assert.ErrorIs(t, err, position.ErrPositionNotFound{BondID: bondID, InvestorKey: "0xabc"})
	})
}

func TestLedger_Redeem(t *testing.T) {
	ctx := context.Background()
	issuedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	maturityAt := issuedAt.Add(31_536_000 * time.Second)

	t.Run("pays exactly the principal at maturity", func(t *testing.T) {
		f := newLedgerFixture(t)
		bondID := f.createBond(t, 450, issuedAt, maturityAt)
		_, err := f.ledger.Invest(ctx, bondID, "0xabc", money.FromMinorUnits(100_000), issuedAt)
		require.NoError(t, err)

		// One full year at 4.50% on $1000.00 realizes $45.00 of interest,
		// but the payout is the $1000.00 principal only.
		payout, finalInterest, err := f.ledger.Redeem(ctx, bondID, "0xabc", maturityAt)
		require.NoError(t, err)
		assert.Equal(t, money.FromMinorUnits(4_500), finalInterest)
		assert.Equal(t, money.FromMinorUnits(100_000), payout)

		p, err := f.ledger.GetPosition(ctx, bondID, "0xabc")
		require.NoError(t, err)
		assert.Equal(t, money.Zero, p.Principal)
		assert.Equal(t, money.FromMinorUnits(4_500), p.ClaimedInterest)

		b, err := f.bonds.GetByID(ctx, bondID)
		require.NoError(t, err)
		assert.Equal(t, bond.StateMatured, b.State)
		assert.Equal(t, money.Zero, b.TotalRaised)

		event := f.lastEvent(t)
		assert.Equal(t, shared.EventTypeRedeemed, event.Type)
		assert.Equal(t, money.FromMinorUnits(100_000), event.Amount)
		assert.Equal(t, money.FromMinorUnits(4_500), event.RealizedInterest)
		assert.Equal(t, money.Zero, event.PrincipalAfter)
	})

	t.Run("redeem before maturity", func(t *testing.T) {
		f := newLedgerFixture(t)
		bondID := f.createBond(t, 450, issuedAt, maturityAt)
		_, err := f.ledger.Invest(ctx, bondID, "0xabc", money.FromMinorUnits(100_000), issuedAt)
		require.NoError(t, err)

		_, _, err = f.ledger.Redeem(ctx, bondID, "0xabc", maturityAt.Add(-time.Second))
		assert.ErrorIs(t, err, bond.ErrNotMatured)
	})

	t.Run("second redeem hits the tombstone", func(t *testing.T) {
		f := newLedgerFixture(t)
		bondID := f.createBond(t, 450, issuedAt, maturityAt)
		_, err := f.ledger.Invest(ctx, bondID, "0xabc", money.FromMinorUnits(100_000), issuedAt)
		require.NoError(t, err)

		_, _, err = f.ledger.Redeem(ctx, bondID, "0xabc", maturityAt)
		require.NoError(t, err)

		_, _, err = f.ledger.Redeem(ctx, bondID, "0xabc", maturityAt.Add(time.Hour))
		assert.ErrorIs(t, err, position.ErrNoPrincipal)
	})

	t.Run("interest already claimed is not paid twice", func(t *testing.T) {
		f := newLedgerFixture(t)
		bondID := f.createBond(t, 450, issuedAt, maturityAt)
		_, err := f.ledger.Invest(ctx, bondID, "0xabc", money.FromMinorUnits(100_000), issuedAt)
		require.NoError(t, err)

		halfYear := issuedAt.Add(15_768_000 * time.Second)
		claimed, err := f.ledger.ClaimInterest(ctx, bondID, "0xabc", halfYear)
		require.NoError(t, err)
		require.Equal(t, money.FromMinorUnits(2_250), claimed)

		payout, finalInterest, err := f.ledger.Redeem(ctx, bondID, "0xabc", maturityAt)
		require.NoError(t, err)
		assert.Equal(t, money.FromMinorUnits(2_250), finalInterest)
		assert.Equal(t, money.FromMinorUnits(100_000), payout)

		p, err := f.ledger.GetPosition(ctx, bondID, "0xabc")
		require.NoError(t, err)
		assert.Equal(t, money.FromMinorUnits(4_500), p.ClaimedInterest)
	})
}

func TestLedger_TotalRaisedMatchesPrincipals(t *testing.T) {
	ctx := context.Background()
	issuedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	maturityAt := issuedAt.AddDate(1, 0, 0)

	f := newLedgerFixture(t)
	bondID := f.createBond(t, 450, issuedAt, maturityAt)

	_, err := f.ledger.Invest(ctx, bondID, "0xaaa", money.FromMinorUnits(100_000), issuedAt)
	require.NoError(t, err)
	_, err = f.ledger.Invest(ctx, bondID, "0xbbb", money.FromMinorUnits(250_000), issuedAt)
	require.NoError(t, err)
	_, err = f.ledger.Invest(ctx, bondID, "0xaaa", money.FromMinorUnits(50_000), issuedAt.Add(time.Hour))
	require.NoError(t, err)

	b, err := f.bonds.GetByID(ctx, bondID)
	require.NoError(t, err)

	var sum money.Money
	for _, key := range []string{"0xaaa", "0xbbb"} {
		p, err := f.ledger.GetPosition(ctx, bondID, key)
		require.NoError(t, err)
		sum = sum.Add(p.Principal)
	}
	assert.Equal(t, b.TotalRaised, sum)

	_, _, err = f.ledger.Redeem(ctx, bondID, "0xaaa", maturityAt)
	require.NoError(t, err)

	b, err = f.bonds.GetByID(ctx, bondID)
	require.NoError(t, err)
	remaining, err := f.ledger.GetPosition(ctx, bondID, "0xbbb")
	require.NoError(t, err)
	assert.Equal(t, b.TotalRaised, remaining.Principal)
}

func TestLedger_EventsCarryCorrelationID(t *testing.T) {
	issuedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f := newLedgerFixture(t)
	bondID := f.createBond(t, 450, issuedAt, issuedAt.AddDate(1, 0, 0))

	ctx := shared.WithCorrelationID(context.Background(), "corr-42")
	_, err := f.ledger.Invest(ctx, bondID, "0xabc", money.FromMinorUnits(100_000), issuedAt)
	require.NoError(t, err)

	event := f.lastEvent(t)
	assert.Equal(t, "corr-42", event.CorrelationID)
	assert.NotEqual(t, "", event.EventID.String())
}
