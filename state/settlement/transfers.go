package settlement

import (
	"fmt"

	"bountyboard/engine/library"
	"bountyboard/state/custody"
	"bountyboard/state/ledger"
)

// Deposit moves amount from the funder's account into escrow. The funder must have signed the
// request, so a Holder is the authority.
func Deposit(txn *ledger.Txn, funding, escrow library.Account, funder library.Account, amount uint64) error {
	return ledger.Transfer(txn, funding, escrow, amount, ledger.Holder(funder))
}

// PayAdvance moves half of amount out of escrow to the claimant's account.
func PayAdvance(txn *ledger.Txn, authority custody.Authority, escrow, destination library.Account, amount uint64) (uint64, error) {
	seal, err := sealFor(txn, authority, escrow)
	if err != nil {
		return 0, err
	}
	advance := Advance(amount)
	if err = ledger.Transfer(txn, escrow, destination, advance, seal); err != nil {
		return 0, err
	}
	return advance, nil
}

// Destinations are the three accounts receiving a split payout.
type Destinations struct {
	Developer   library.Account
	PublicPool  library.Account
	Maintainers library.Account
}

// PaySplit computes the split for amount and moves every share out of escrow. Any failure leaves
// the Txn to be discarded by the caller, so either all shares move or none do.
func PaySplit(txn *ledger.Txn, authority custody.Authority, escrow library.Account, to Destinations, amount uint64) (Split, error) {
	split, err := SplitPayout(amount)
	if err != nil {
		return Split{}, err
	}
	seal, err := sealFor(txn, authority, escrow)
	if err != nil {
		return Split{}, err
	}
	for _, leg := range []struct {
		to     library.Account
		amount uint64
	}{
		{to.Developer, split.Developer},
		{to.PublicPool, split.PublicPool},
		{to.Maintainers, split.Maintainers},
	} {
		if err = ledger.Transfer(txn, escrow, leg.to, leg.amount, seal); err != nil {
			return Split{}, err
		}
	}
	return split, nil
}

// sealFor checks that escrow is owned by the custody authority and returns the seal for it.
func sealFor(r ledger.Reader, authority custody.Authority, escrow library.Account) (custody.Seal, error) {
	account, err := ledger.GetTokenAccount(r, escrow)
	if err != nil {
		return custody.Seal{}, err
	}
	if account.Owner != authority.Address() {
		return custody.Seal{}, fmt.Errorf("%w: escrow %s is owned by %s, not the custody authority %s", library.ErrInvalidAccountConfig, escrow, account.Owner, authority.Address())
	}
	return authority.Seal(account.Owner)
}
