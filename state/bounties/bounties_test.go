package bounties

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bountyboard/engine/actors"
	"bountyboard/engine/library"
	"bountyboard/state/custody"
	"bountyboard/state/ledger"
)

func key(name string) library.Account {
	account, err := actors.PubKey(library.Sha256Sum(name))
	if err != nil {
		panic(err)
	}
	return account
}

var (
	admin    = key("admin")
	claimant = key("claimant")
	mint     = library.Sha256Sum("bounty token")
	issue    = "https://github.com/example/repo/issues/42"
)

// token accounts, keyed by a readable name
var accounts = map[string]struct {
	owner   library.Account
	mint    library.Account
	balance uint64
}{
	"funding":     {admin, mint, 10_000},
	"reward":      {claimant, mint, 0},
	"dev":         {key("dev"), mint, 0},
	"public":      {key("public"), mint, 0},
	"maintainers": {key("maintainers"), mint, 0},
	"foreign":     {admin, library.Sha256Sum("another token"), 10_000},
	"stolen":      {admin, mint, 0},
}

func account(name string) library.Account {
	return library.Sha256Sum("token account " + name)
}

type harness struct {
	t      *testing.T
	store  *ledger.MemoryStore
	clock  *library.FixedClock
	engine *Engine
	board  Board
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := library.FixedClock(1_000)
	h := &harness{t: t, store: ledger.NewMemoryStore(), clock: &clock}
	h.engine = NewEngine(h.store, h.clock)
	require.NoError(t, h.store.Update(func(txn *ledger.Txn) error {
		for name, a := range accounts {
			if _, err := ledger.InitTokenAccount(txn, account(name), a.owner, a.mint); err != nil {
				return err
			}
			if err := ledger.Credit(txn, account(name), a.balance); err != nil {
				return err
			}
		}
		return nil
	}))
	var err error
	h.board, err = h.engine.InitializeBoard(admin, mint)
	require.NoError(t, err)
	return h
}

func (h *harness) balance(name string) uint64 {
	h.t.Helper()
	var a ledger.TokenAccount
	require.NoError(h.t, h.store.View(func(r ledger.Reader) (err error) {
		a, err = ledger.GetTokenAccount(r, account(name))
		return err
	}))
	return a.Balance
}

func (h *harness) escrowBalance(bounty Bounty) uint64 {
	h.t.Helper()
	var a ledger.TokenAccount
	require.NoError(h.t, h.store.View(func(r ledger.Reader) (err error) {
		a, err = ledger.GetTokenAccount(r, bounty.Escrow)
		return err
	}))
	return a.Balance
}

func (h *harness) create(amount uint64, expiresAt int64) Bounty {
	h.t.Helper()
	b, err := h.engine.CreateBounty(admin, Kind642002{
		Board:         h.board.Address,
		Funding:       account("funding"),
		Amount:        amount,
		TaskReference: issue,
		ExpiresAt:     expiresAt,
	})
	require.NoError(h.t, err)
	return b
}

func (h *harness) claim(bounty Bounty) (Bounty, error) {
	return h.engine.ClaimBounty(claimant, Kind642004{
		Board:         h.board.Address,
		Bounty:        bounty.Address,
		RewardAccount: account("reward"),
	})
}

func (h *harness) payout(bounty Bounty, amount uint64) (PayoutReceipt, error) {
	return h.engine.ProcessPayout(admin, h.payoutRequest(bounty, amount))
}

func (h *harness) payoutRequest(bounty Bounty, amount uint64) Kind642006 {
	return Kind642006{
		Board:         h.board.Address,
		Escrow:        bounty.Escrow,
		Amount:        amount,
		TaskReference: issue,
		Destination:   account("dev"),
		PublicPool:    account("public"),
		Maintainers:   account("maintainers"),
	}
}

// unchanged runs fn, which must fail with want, and checks that no account changed.
func (h *harness) unchanged(want error, fn func() error, msgAndArgs ...interface{}) {
	h.t.Helper()
	before := h.store.Snapshot()
	assert.ErrorIs(h.t, fn(), want, msgAndArgs...)
	assert.Equal(h.t, before, h.store.Snapshot(), msgAndArgs...)
}

// tamper rewrites a stored record, standing in for state reached some other way.
func tamper[T any](t *testing.T, store ledger.Store, address library.Account, kind string, fn func(*T)) {
	t.Helper()
	require.NoError(t, store.Update(func(txn *ledger.Txn) error {
		var v T
		if err := ledger.GetRecord(txn, address, kind, &v); err != nil {
			return err
		}
		fn(&v)
		return ledger.PutRecord(txn, address, v)
	}))
}

func TestInitializeBoard(t *testing.T) {
	h := newHarness(t)
	address, bump, err := BoardAddress(actors.ProgramID, mint)
	require.NoError(t, err)
	assert.Equal(t, address, h.board.Address)
	assert.Equal(t, bump, h.board.Bump)
	assert.True(t, custody.IsKeyless(h.board.Address))
	assert.Equal(t, admin, h.board.Admin)

	stored, err := h.engine.GetBoard(address)
	require.NoError(t, err)
	assert.Equal(t, h.board, stored)

	h.unchanged(library.ErrAlreadyInitialized, func() error {
		_, err := h.engine.InitializeBoard(key("usurper"), mint)
		return err
	})
	h.unchanged(library.ErrInvalidAccountConfig, func() error {
		_, err := h.engine.InitializeBoard(h.board.Address, library.Sha256Sum("fresh mint"))
		return err
	})
	h.unchanged(library.ErrInvalidAccountConfig, func() error {
		_, err := h.engine.InitializeBoard(admin, "not a mint")
		return err
	})
	h.unchanged(library.ErrInvalidAccountConfig, func() error {
		_, err := h.engine.InitializeBoard(admin, strings.ToUpper(library.Sha256Sum("fresh mint")))
		return err
	}, "mints are lowercase hex")
	h.unchanged(library.ErrInvalidAccountConfig, func() error {
		_, err := h.engine.InitializeBoard(strings.ToUpper(admin), library.Sha256Sum("fresh mint"))
		return err
	}, "admins are lowercase hex")
}

func TestCreateBountyEscrowsAmount(t *testing.T) {
	h := newHarness(t)
	bounty := h.create(1_000, 5_000)

	assert.Equal(t, Open, bounty.Status)
	assert.Empty(t, bounty.Claimant)
	assert.Equal(t, uint64(0), bounty.Sequence)
	assert.Equal(t, int64(1_000), bounty.CreatedAt)
	assert.Equal(t, uint64(1_000), h.escrowBalance(bounty))
	assert.Equal(t, uint64(9_000), h.balance("funding"))

	board, err := h.engine.GetBoard(h.board.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), board.TotalBountiesCreated)
	assert.Equal(t, uint64(1_000), board.TotalDeposited)

	second := h.create(0, 5_000)
	assert.Equal(t, uint64(1), second.Sequence)
	assert.NotEqual(t, bounty.Address, second.Address)
	assert.NotEqual(t, bounty.Escrow, second.Escrow)

	found, err := h.engine.BountyAt(h.board.Address, 1)
	require.NoError(t, err)
	assert.Equal(t, second, found)

	m, err := h.engine.GetMapped(h.board.Address)
	require.NoError(t, err)
	assert.Equal(t, []Bounty{bounty, second}, m.Bounties)
	assert.Equal(t, uint64(2), m.Board.TotalBountiesCreated)

	var escrow ledger.TokenAccount
	require.NoError(t, h.store.View(func(r ledger.Reader) (err error) {
		escrow, err = ledger.GetTokenAccount(r, bounty.Escrow)
		return err
	}))
	assert.Equal(t, h.board.Address, escrow.Owner)
	assert.True(t, custody.IsKeyless(bounty.Escrow))
}

func TestCreateBountyFailuresChangeNothing(t *testing.T) {
	h := newHarness(t)
	h.create(100, 5_000)
	valid := Kind642002{
		Board:         h.board.Address,
		Funding:       account("funding"),
		Amount:        100,
		TaskReference: issue,
		ExpiresAt:     5_000,
	}
	for name, tc := range map[string]struct {
		caller library.Account
		edit   func(*Kind642002)
		want   error
	}{
		"not admin":           {claimant, func(*Kind642002) {}, library.ErrUnauthorized},
		"empty reference":     {admin, func(r *Kind642002) { r.TaskReference = "" }, library.ErrInvalidTaskReference},
		"long reference":      {admin, func(r *Kind642002) { r.TaskReference = strings.Repeat("x", 257) }, library.ErrInvalidTaskReference},
		"wrong mint":          {admin, func(r *Kind642002) { r.Funding = account("foreign") }, library.ErrInvalidTokenAccount},
		"someone else's fund": {admin, func(r *Kind642002) { r.Funding = account("dev") }, library.ErrUnauthorized},
		"insufficient funds":  {admin, func(r *Kind642002) { r.Amount = 1_000_000 }, library.ErrInsufficientFunds},
		"missing board":       {admin, func(r *Kind642002) { r.Board = library.Sha256Sum("nothing") }, library.ErrAccountNotFound},
		"not a board":         {admin, func(r *Kind642002) { r.Board = account("funding") }, library.ErrInvalidAccountConfig},
	} {
		req := valid
		tc.edit(&req)
		h.unchanged(tc.want, func() error {
			_, err := h.engine.CreateBounty(tc.caller, req)
			return err
		}, name)
	}
}

func TestCreateBountyAddressCollision(t *testing.T) {
	h := newHarness(t)
	next, _, err := BountyAddress(actors.ProgramID, h.board.Address, 0)
	require.NoError(t, err)
	require.NoError(t, h.store.Update(func(txn *ledger.Txn) error {
		return txn.Create(next, []byte(`{"kind":"squatter"}`))
	}))
	h.unchanged(library.ErrAlreadyInitialized, func() error {
		_, err := h.engine.CreateBounty(admin, Kind642002{Board: h.board.Address, Funding: account("funding"), Amount: 1, TaskReference: issue, ExpiresAt: 5_000})
		return err
	})
}

func TestCreateBountyCounterOverflow(t *testing.T) {
	h := newHarness(t)
	tamper(t, h.store, h.board.Address, KindBoard, func(b *Board) {
		b.TotalBountiesCreated = math.MaxUint64
	})
	h.unchanged(library.ErrNumericalOverflow, func() error {
		_, err := h.engine.CreateBounty(admin, Kind642002{Board: h.board.Address, Funding: account("funding"), Amount: 1, TaskReference: issue, ExpiresAt: 5_000})
		return err
	})

	tamper(t, h.store, h.board.Address, KindBoard, func(b *Board) {
		b.TotalBountiesCreated = 0
		b.TotalDeposited = math.MaxUint64
	})
	h.unchanged(library.ErrNumericalOverflow, func() error {
		_, err := h.engine.CreateBounty(admin, Kind642002{Board: h.board.Address, Funding: account("funding"), Amount: 1, TaskReference: issue, ExpiresAt: 5_000})
		return err
	})
}

func TestEscrowMustBeUnderCustody(t *testing.T) {
	h := newHarness(t)
	bounty, _, err := BountyAddress(actors.ProgramID, h.board.Address, 0)
	require.NoError(t, err)
	escrow, _, err := EscrowAddress(actors.ProgramID, bounty)
	require.NoError(t, err)
	require.NoError(t, h.store.Update(func(txn *ledger.Txn) error {
		_, err := ledger.InitTokenAccount(txn, escrow, admin, mint)
		return err
	}))
	h.unchanged(library.ErrInvalidAccountConfig, func() error {
		_, err := h.engine.CreateBounty(admin, Kind642002{Board: h.board.Address, Funding: account("funding"), Amount: 1, TaskReference: issue, ExpiresAt: 5_000})
		return err
	})
}

func TestClaimPaysHalfRoundedDown(t *testing.T) {
	h := newHarness(t)
	bounty := h.create(101, 5_000)
	claimed, err := h.claim(bounty)
	require.NoError(t, err)

	assert.Equal(t, Claimed, claimed.Status)
	assert.Equal(t, claimant, claimed.Claimant)
	assert.Equal(t, int64(1_000), claimed.ClaimedAt)
	assert.Equal(t, uint64(101), claimed.Amount)
	assert.Equal(t, uint64(50), h.balance("reward"))
	assert.Equal(t, uint64(51), h.escrowBalance(bounty))

	stored, err := h.engine.GetBounty(bounty.Address)
	require.NoError(t, err)
	assert.Equal(t, claimed, stored)
}

func TestClaimSucceedsOnce(t *testing.T) {
	h := newHarness(t)
	bounty := h.create(100, 5_000)
	_, err := h.claim(bounty)
	require.NoError(t, err)
	h.unchanged(library.ErrInvalidBountyStatus, func() error {
		_, err := h.claim(bounty)
		return err
	})

	second := h.create(100, 5_000)
	tamper(t, h.store, second.Address, KindBounty, func(b *Bounty) {
		b.Claimant = key("earlier")
	})
	h.unchanged(library.ErrAlreadyClaimed, func() error {
		_, err := h.claim(second)
		return err
	})
}

func TestClaimAfterDeadline(t *testing.T) {
	h := newHarness(t)
	bounty := h.create(100, 2_000)
	*h.clock = 2_000
	assert.Equal(t, Expired, bounty.EffectiveStatus(h.clock.Now()))
	assert.Equal(t, Open, bounty.EffectiveStatus(1_999))
	h.unchanged(library.ErrBountyExpired, func() error {
		_, err := h.claim(bounty)
		return err
	})
	stored, err := h.engine.GetBounty(bounty.Address)
	require.NoError(t, err)
	assert.Equal(t, Open, stored.Status)
}

func TestClaimOnNonOpenBountyIgnoresExpiry(t *testing.T) {
	h := newHarness(t)
	bounty := h.create(100, 2_000)
	_, err := h.claim(bounty)
	require.NoError(t, err)
	*h.clock = 3_000
	h.unchanged(library.ErrInvalidBountyStatus, func() error {
		_, err := h.claim(bounty)
		return err
	})
	for _, status := range []Status{Completed, Expired} {
		tamper(t, h.store, bounty.Address, KindBounty, func(b *Bounty) {
			b.Status = status
		})
		h.unchanged(library.ErrInvalidBountyStatus, func() error {
			_, err := h.claim(bounty)
			return err
		})
	}
}

func TestClaimAccountChecks(t *testing.T) {
	h := newHarness(t)
	bounty := h.create(100, 5_000)
	h.unchanged(library.ErrInvalidTokenAccount, func() error {
		_, err := h.engine.ClaimBounty(claimant, Kind642004{Board: h.board.Address, Bounty: bounty.Address, RewardAccount: account("stolen")})
		return err
	})
	h.unchanged(library.ErrInvalidTokenAccount, func() error {
		_, err := h.engine.ClaimBounty(admin, Kind642004{Board: h.board.Address, Bounty: bounty.Address, RewardAccount: account("foreign")})
		return err
	})
	h.unchanged(library.ErrAccountNotFound, func() error {
		_, err := h.engine.ClaimBounty(claimant, Kind642004{Board: h.board.Address, Bounty: library.Sha256Sum("no bounty"), RewardAccount: account("reward")})
		return err
	})

	other, err := h.engine.InitializeBoard(admin, library.Sha256Sum("another token"))
	require.NoError(t, err)
	h.unchanged(library.ErrInvalidAccountConfig, func() error {
		_, err := h.engine.ClaimBounty(claimant, Kind642004{Board: other.Address, Bounty: bounty.Address, RewardAccount: account("reward")})
		return err
	})
}

func TestPayoutSplit(t *testing.T) {
	h := newHarness(t)
	bounty := h.create(1_000, 5_000)
	*h.clock = 1_500
	receipt, err := h.payout(bounty, 1_000)
	require.NoError(t, err)

	assert.Equal(t, uint64(995), h.balance("dev"))
	assert.Equal(t, uint64(3), h.balance("public"))
	assert.Equal(t, uint64(2), h.balance("maintainers"))
	assert.Equal(t, uint64(0), h.escrowBalance(bounty))

	board, err := h.engine.GetBoard(h.board.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000), board.TotalValuePaidOut)
	assert.Equal(t, int64(1_500), board.LastPayoutTimestamp)
	assert.Equal(t, uint64(1), board.TotalPayouts)

	stored, err := h.engine.GetPayout(h.board.Address, 0)
	require.NoError(t, err)
	assert.Equal(t, receipt, stored)
	assert.Equal(t, issue, stored.TaskReference)
	assert.Equal(t, int64(1_500), stored.PaidAt)

	// payouts are not tied to the bounty lifecycle
	open, err := h.engine.GetBounty(bounty.Address)
	require.NoError(t, err)
	assert.Equal(t, Open, open.Status)
}

func TestPayoutTruncates(t *testing.T) {
	h := newHarness(t)
	bounty := h.create(10, 5_000)
	receipt, err := h.payout(bounty, 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), receipt.Split.Developer)
	assert.Equal(t, uint64(0), receipt.Split.PublicPool)
	assert.Equal(t, uint64(0), receipt.Split.Maintainers)
	assert.Equal(t, uint64(4), h.escrowBalance(bounty))

	board, err := h.engine.GetBoard(h.board.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), board.TotalValuePaidOut)
}

func TestTotalValuePaidOutSumsPayouts(t *testing.T) {
	h := newHarness(t)
	bounty := h.create(5_000, 9_000)
	var sum uint64
	for _, amount := range []uint64{1, 99, 1_000, 7, 2_500} {
		_, err := h.payout(bounty, amount)
		require.NoError(t, err)
		sum += amount
	}
	board, err := h.engine.GetBoard(h.board.Address)
	require.NoError(t, err)
	assert.Equal(t, sum, board.TotalValuePaidOut)
	assert.Equal(t, uint64(5), board.TotalPayouts)
}

func TestPayoutOverflowChangesNothing(t *testing.T) {
	h := newHarness(t)
	bounty := h.create(1_000, 5_000)
	h.unchanged(library.ErrNumericalOverflow, func() error {
		_, err := h.payout(bounty, math.MaxUint64)
		return err
	})
	h.unchanged(library.ErrNumericalOverflow, func() error {
		_, err := h.payout(bounty, math.MaxUint64/995+1)
		return err
	})
	tamper(t, h.store, h.board.Address, KindBoard, func(b *Board) {
		b.TotalValuePaidOut = math.MaxUint64 - 5
		b.TotalDeposited = math.MaxUint64
	})
	h.unchanged(library.ErrNumericalOverflow, func() error {
		_, err := h.payout(bounty, 10)
		return err
	})
}

func TestPayoutFailuresChangeNothing(t *testing.T) {
	h := newHarness(t)
	bounty := h.create(1_000, 5_000)
	h.create(500, 5_000)
	h.unchanged(library.ErrUnauthorized, func() error {
		_, err := h.engine.ProcessPayout(claimant, h.payoutRequest(bounty, 100))
		return err
	})
	h.unchanged(library.ErrInvalidAccountConfig, func() error {
		req := h.payoutRequest(bounty, 100)
		req.Escrow = account("funding")
		_, err := h.engine.ProcessPayout(admin, req)
		return err
	})
	h.unchanged(library.ErrAccountNotFound, func() error {
		req := h.payoutRequest(bounty, 1_000)
		req.Maintainers = library.Sha256Sum("nowhere")
		_, err := h.engine.ProcessPayout(admin, req)
		return err
	})
	h.unchanged(library.ErrInvalidTokenAccount, func() error {
		req := h.payoutRequest(bounty, 1_000)
		req.PublicPool = account("foreign")
		_, err := h.engine.ProcessPayout(admin, req)
		return err
	})
	h.unchanged(library.ErrInsufficientFunds, func() error {
		_, err := h.payout(bounty, 1_006)
		return err
	})
	h.unchanged(library.ErrInsufficientFunds, func() error {
		_, err := h.payout(bounty, 1_501)
		return err
	})
	h.unchanged(library.ErrInvalidTaskReference, func() error {
		req := h.payoutRequest(bounty, 100)
		req.TaskReference = ""
		_, err := h.engine.ProcessPayout(admin, req)
		return err
	})
}

func TestPayoutCompletesClaimedBounty(t *testing.T) {
	h := newHarness(t)
	bounty := h.create(1_000, 5_000)

	req := h.payoutRequest(bounty, 500)
	req.Bounty = bounty.Address
	h.unchanged(library.ErrInvalidBountyStatus, func() error {
		_, err := h.engine.ProcessPayout(admin, req)
		return err
	})

	_, err := h.claim(bounty)
	require.NoError(t, err)
	receipt, err := h.engine.ProcessPayout(admin, req)
	require.NoError(t, err)
	assert.Equal(t, bounty.Address, receipt.Bounty)

	completed, err := h.engine.GetBounty(bounty.Address)
	require.NoError(t, err)
	assert.Equal(t, Completed, completed.Status)
	assert.Equal(t, claimant, completed.Claimant)
	assert.Equal(t, Completed, completed.EffectiveStatus(math.MaxInt64))
	assert.Equal(t, uint64(500), h.balance("reward"))
	assert.Equal(t, uint64(1), h.escrowBalance(bounty))

	h.unchanged(library.ErrInvalidBountyStatus, func() error {
		_, err := h.engine.ProcessPayout(admin, req)
		return err
	})
	h.unchanged(library.ErrInvalidBountyStatus, func() error {
		_, err := h.claim(bounty)
		return err
	})
}
