package bounties

import (
	"fmt"

	"bountyboard/engine/actors"
	"bountyboard/engine/library"
	"bountyboard/state/custody"
	"bountyboard/state/ledger"
	"bountyboard/state/settlement"
)

// InitializeBoard creates the board for mint with admin as its only administrator.
func (e *Engine) InitializeBoard(admin, mint library.Account) (board Board, err error) {
	if !library.ValidAccount(admin) || custody.IsKeyless(admin) {
		return Board{}, fmt.Errorf("%w: admin %q is not a human account", library.ErrInvalidAccountConfig, admin)
	}
	address, bump, err := BoardAddress(e.programID, mint)
	if err != nil {
		return Board{}, err
	}
	board = Board{
		Kind:    KindBoard,
		Address: address,
		Admin:   admin,
		Mint:    mint,
		Bump:    bump,
	}
	if err = e.store.Update(func(txn *ledger.Txn) error {
		return ledger.CreateRecord(txn, address, board)
	}); err != nil {
		return Board{}, err
	}
	actors.LogCLI(fmt.Sprintf("Initialized board %s for mint %s", address, mint), 3)
	return board, nil
}

// CreateBounty escrows req.Amount from req.Funding into a new bounty. Only the board admin may call it.
func (e *Engine) CreateBounty(caller library.Account, req Kind642002) (bounty Bounty, err error) {
	err = e.store.Update(func(txn *ledger.Txn) error {
		bounty, err = e.createBounty(txn, caller, req)
		return err
	})
	if err != nil {
		return Bounty{}, err
	}
	actors.LogCLI(fmt.Sprintf("Bounty %d created on board %s for %q, %d escrowed in %s", bounty.Sequence, bounty.Board, bounty.TaskReference, bounty.Amount, bounty.Escrow), 3)
	return bounty, nil
}

func (e *Engine) createBounty(txn *ledger.Txn, caller library.Account, req Kind642002) (Bounty, error) {
	board, err := getBoard(txn, req.Board)
	if err != nil {
		return Bounty{}, err
	}
	if caller != board.Admin {
		return Bounty{}, fmt.Errorf("%w: %s is not the admin of board %s", library.ErrUnauthorized, caller, board.Address)
	}
	if err = validTaskReference(req.TaskReference); err != nil {
		return Bounty{}, err
	}
	authority, err := e.authority(board)
	if err != nil {
		return Bounty{}, err
	}
	sequence := board.TotalBountiesCreated
	if board.TotalBountiesCreated, err = settlement.Add(sequence, 1); err != nil {
		return Bounty{}, err
	}
	if board.TotalDeposited, err = settlement.Add(board.TotalDeposited, req.Amount); err != nil {
		return Bounty{}, err
	}
	address, bump, err := BountyAddress(e.programID, board.Address, sequence)
	if err != nil {
		return Bounty{}, err
	}
	escrow, _, err := EscrowAddress(e.programID, address)
	if err != nil {
		return Bounty{}, err
	}
	bounty := Bounty{
		Kind:          KindBounty,
		Address:       address,
		Board:         board.Address,
		Sequence:      sequence,
		Bump:          bump,
		Amount:        req.Amount,
		TaskReference: req.TaskReference,
		ExpiresAt:     req.ExpiresAt,
		Status:        Open,
		Escrow:        escrow,
		CreatedAt:     e.clock.Now(),
	}
	if err = ledger.CreateRecord(txn, address, bounty); err != nil {
		return Bounty{}, err
	}
	if err = openEscrow(txn, escrow, authority.Address(), board.Mint); err != nil {
		return Bounty{}, err
	}
	funding, err := ledger.GetTokenAccount(txn, req.Funding)
	if err != nil {
		return Bounty{}, err
	}
	if funding.Mint != board.Mint {
		return Bounty{}, fmt.Errorf("%w: funding account %s holds %s, board accepts %s", library.ErrInvalidTokenAccount, req.Funding, funding.Mint, board.Mint)
	}
	if err = settlement.Deposit(txn, req.Funding, escrow, caller, req.Amount); err != nil {
		return Bounty{}, err
	}
	if err = ledger.PutRecord(txn, board.Address, board); err != nil {
		return Bounty{}, err
	}
	return bounty, nil
}

// openEscrow creates the escrow token account, or accepts an empty one that is already
// controlled by the custody authority.
func openEscrow(txn *ledger.Txn, escrow, authority, mint library.Account) error {
	exists, err := txn.Exists(escrow)
	if err != nil {
		return err
	}
	if !exists {
		_, err = ledger.InitTokenAccount(txn, escrow, authority, mint)
		return err
	}
	account, err := ledger.GetTokenAccount(txn, escrow)
	if err != nil {
		return fmt.Errorf("%w: escrow %s: %s", library.ErrInvalidAccountConfig, escrow, err.Error())
	}
	if account.Owner != authority || account.Mint != mint || account.Balance != 0 {
		return fmt.Errorf("%w: escrow %s is not an empty account of %s controlled by %s", library.ErrInvalidAccountConfig, escrow, mint, authority)
	}
	return nil
}

// ClaimBounty reserves an open bounty for caller and pays half of it in advance.
func (e *Engine) ClaimBounty(caller library.Account, req Kind642004) (bounty Bounty, err error) {
	var advance uint64
	err = e.store.Update(func(txn *ledger.Txn) error {
		bounty, advance, err = e.claimBounty(txn, caller, req)
		return err
	})
	if err != nil {
		return Bounty{}, err
	}
	actors.LogCLI(fmt.Sprintf("Bounty %s claimed by %s, advance of %d paid to %s", bounty.Address, caller, advance, req.RewardAccount), 3)
	return bounty, nil
}

func (e *Engine) claimBounty(txn *ledger.Txn, caller library.Account, req Kind642004) (Bounty, uint64, error) {
	if !library.ValidAccount(caller) {
		return Bounty{}, 0, fmt.Errorf("%w: claimant %q", library.ErrUnauthorized, caller)
	}
	board, err := getBoard(txn, req.Board)
	if err != nil {
		return Bounty{}, 0, err
	}
	bounty, err := getBounty(txn, req.Bounty)
	if err != nil {
		return Bounty{}, 0, err
	}
	if bounty.Board != board.Address {
		return Bounty{}, 0, fmt.Errorf("%w: bounty %s does not belong to board %s", library.ErrInvalidAccountConfig, bounty.Address, board.Address)
	}
	if bounty.Status != Open {
		return Bounty{}, 0, fmt.Errorf("%w: bounty %s is %s", library.ErrInvalidBountyStatus, bounty.Address, bounty.Status)
	}
	now := e.clock.Now()
	if now >= bounty.ExpiresAt {
		return Bounty{}, 0, fmt.Errorf("%w: bounty %s expired at %d, it is now %d", library.ErrBountyExpired, bounty.Address, bounty.ExpiresAt, now)
	}
	if len(bounty.Claimant) > 0 {
		return Bounty{}, 0, fmt.Errorf("%w: bounty %s is held by %s", library.ErrAlreadyClaimed, bounty.Address, bounty.Claimant)
	}
	reward, err := ledger.GetTokenAccount(txn, req.RewardAccount)
	if err != nil {
		return Bounty{}, 0, err
	}
	if reward.Mint != board.Mint || reward.Owner != caller {
		return Bounty{}, 0, fmt.Errorf("%w: reward account %s must hold %s and belong to %s", library.ErrInvalidTokenAccount, req.RewardAccount, board.Mint, caller)
	}
	authority, err := e.authority(board)
	if err != nil {
		return Bounty{}, 0, err
	}
	bounty.Status = Claimed
	bounty.Claimant = caller
	bounty.ClaimedAt = now
	advance, err := settlement.PayAdvance(txn, authority, bounty.Escrow, req.RewardAccount, bounty.Amount)
	if err != nil {
		return Bounty{}, 0, err
	}
	if err = ledger.PutRecord(txn, bounty.Address, bounty); err != nil {
		return Bounty{}, 0, err
	}
	return bounty, advance, nil
}

// ProcessPayout splits req.Amount out of an escrow controlled by the board. Only the board admin
// may call it.
func (e *Engine) ProcessPayout(caller library.Account, req Kind642006) (receipt PayoutReceipt, err error) {
	err = e.store.Update(func(txn *ledger.Txn) error {
		receipt, err = e.processPayout(txn, caller, req)
		return err
	})
	if err != nil {
		return PayoutReceipt{}, err
	}
	actors.LogCLI(fmt.Sprintf("Payout %d on board %s for %q: %d to developer, %d to public pool, %d to maintainers", receipt.Sequence, receipt.Board, receipt.TaskReference, receipt.Split.Developer, receipt.Split.PublicPool, receipt.Split.Maintainers), 3)
	return receipt, nil
}

func (e *Engine) processPayout(txn *ledger.Txn, caller library.Account, req Kind642006) (PayoutReceipt, error) {
	board, err := getBoard(txn, req.Board)
	if err != nil {
		return PayoutReceipt{}, err
	}
	if caller != board.Admin {
		return PayoutReceipt{}, fmt.Errorf("%w: %s is not the admin of board %s", library.ErrUnauthorized, caller, board.Address)
	}
	if err = validTaskReference(req.TaskReference); err != nil {
		return PayoutReceipt{}, err
	}
	authority, err := e.authority(board)
	if err != nil {
		return PayoutReceipt{}, err
	}
	escrow, err := ledger.GetTokenAccount(txn, req.Escrow)
	if err != nil {
		return PayoutReceipt{}, err
	}
	if escrow.Owner != authority.Address() || escrow.Mint != board.Mint {
		return PayoutReceipt{}, fmt.Errorf("%w: %s is not an escrow of board %s", library.ErrInvalidAccountConfig, req.Escrow, board.Address)
	}
	if _, err = settlement.SplitPayout(req.Amount); err != nil {
		return PayoutReceipt{}, err
	}
	sequence := board.TotalPayouts
	if board.TotalPayouts, err = settlement.Add(sequence, 1); err != nil {
		return PayoutReceipt{}, err
	}
	if board.TotalValuePaidOut, err = settlement.Add(board.TotalValuePaidOut, req.Amount); err != nil {
		return PayoutReceipt{}, err
	}
	if board.TotalValuePaidOut > board.TotalDeposited {
		return PayoutReceipt{}, fmt.Errorf("%w: board %s would pay out %d of %d deposited", library.ErrInsufficientFunds, board.Address, board.TotalValuePaidOut, board.TotalDeposited)
	}
	now := e.clock.Now()
	if len(req.Bounty) > 0 {
		if err = e.completeBounty(txn, board, req, now); err != nil {
			return PayoutReceipt{}, err
		}
	}
	split, err := settlement.PaySplit(txn, authority, req.Escrow, settlement.Destinations{
		Developer:   req.Destination,
		PublicPool:  req.PublicPool,
		Maintainers: req.Maintainers,
	}, req.Amount)
	if err != nil {
		return PayoutReceipt{}, err
	}
	address, _, err := PayoutAddress(e.programID, board.Address, sequence)
	if err != nil {
		return PayoutReceipt{}, err
	}
	receipt := PayoutReceipt{
		Kind:          KindPayoutReceipt,
		Address:       address,
		Board:         board.Address,
		Sequence:      sequence,
		TaskReference: req.TaskReference,
		Bounty:        req.Bounty,
		Escrow:        req.Escrow,
		Amount:        req.Amount,
		Split:         split,
		Destination:   req.Destination,
		PublicPool:    req.PublicPool,
		Maintainers:   req.Maintainers,
		PaidAt:        now,
	}
	if err = ledger.CreateRecord(txn, address, receipt); err != nil {
		return PayoutReceipt{}, err
	}
	board.LastPayoutTimestamp = now
	if err = ledger.PutRecord(txn, board.Address, board); err != nil {
		return PayoutReceipt{}, err
	}
	return receipt, nil
}

func (e *Engine) completeBounty(txn *ledger.Txn, board Board, req Kind642006, now int64) error {
	bounty, err := getBounty(txn, req.Bounty)
	if err != nil {
		return err
	}
	if bounty.Board != board.Address || bounty.Escrow != req.Escrow {
		return fmt.Errorf("%w: bounty %s is not escrowed in %s on board %s", library.ErrInvalidAccountConfig, bounty.Address, req.Escrow, board.Address)
	}
	if bounty.Status != Claimed {
		return fmt.Errorf("%w: bounty %s is %s, only claimed bounties complete", library.ErrInvalidBountyStatus, bounty.Address, bounty.Status)
	}
	bounty.Status = Completed
	bounty.CompletedAt = now
	return ledger.PutRecord(txn, bounty.Address, bounty)
}

// authority rebuilds the custody authority from the board's stored mint and bump and checks it
// still derives the board's own address.
func (e *Engine) authority(board Board) (custody.Authority, error) {
	authority, err := authorityFor(e.programID, board)
	if err != nil {
		return custody.Authority{}, err
	}
	if authority.Address() != board.Address {
		return custody.Authority{}, fmt.Errorf("%w: board %s does not derive from its mint and bump", library.ErrUnauthorized, board.Address)
	}
	return authority, nil
}

func validTaskReference(reference string) error {
	if len(reference) == 0 || len(reference) > MaxTaskReferenceLength {
		return fmt.Errorf("%w: task reference must be 1 to %d bytes, got %d", library.ErrInvalidTaskReference, MaxTaskReferenceLength, len(reference))
	}
	return nil
}
