package ledger

import (
	"errors"
	"fmt"
	"math"

	"bountyboard/engine/library"
	"bountyboard/state/custody"
)

const KindTokenAccount = "token"

// TokenAccount holds a balance of one value unit (the mint). Only the owner may move funds out.
type TokenAccount struct {
	Kind    string          `json:"kind"`
	Address library.Account `json:"address"`
	Owner   library.Account `json:"owner"`
	Mint    library.Account `json:"mint"`
	Balance uint64          `json:"balance"`
}

// Signer is the authority presented for an outbound transfer.
type Signer interface {
	Signer() library.Account
}

// Holder is a human account that has proven control of its key (by signing the request).
type Holder library.Account

func (h Holder) Signer() library.Account {
	return library.Account(h)
}

// InitTokenAccount creates an empty token account.
func InitTokenAccount(txn *Txn, address, owner, mint library.Account) (TokenAccount, error) {
	if !library.ValidAccount(owner) || !library.ValidAccount(mint) {
		return TokenAccount{}, fmt.Errorf("%w: token account %s needs a valid owner and mint", library.ErrInvalidAccountConfig, address)
	}
	account := TokenAccount{
		Kind:    KindTokenAccount,
		Address: address,
		Owner:   owner,
		Mint:    mint,
	}
	if err := CreateRecord(txn, address, account); err != nil {
		return TokenAccount{}, err
	}
	return account, nil
}

func GetTokenAccount(r Reader, address library.Account) (a TokenAccount, e error) {
	if err := GetRecord(r, address, KindTokenAccount, &a); err != nil {
		if errors.Is(err, library.ErrAccountNotFound) {
			return TokenAccount{}, err
		}
		return TokenAccount{}, fmt.Errorf("%w: %s", library.ErrInvalidTokenAccount, err.Error())
	}
	return a, nil
}

// Credit adds value entering the system from outside (genesis balances).
func Credit(txn *Txn, address library.Account, amount uint64) error {
	account, err := GetTokenAccount(txn, address)
	if err != nil {
		return err
	}
	if account.Balance > math.MaxUint64-amount {
		return fmt.Errorf("%w: crediting %d to %s", library.ErrNumericalOverflow, amount, address)
	}
	account.Balance += amount
	return PutRecord(txn, address, account)
}

// Transfer moves amount between two token accounts of the same mint. The authority must be the
// owner of the source account, and a Holder can never spend from a keyless custody account.
func Transfer(txn *Txn, from, to library.Account, amount uint64, authority Signer) error {
	if authority == nil {
		return fmt.Errorf("%w: no authority for transfer from %s", library.ErrUnauthorized, from)
	}
	source, err := GetTokenAccount(txn, from)
	if err != nil {
		return err
	}
	destination, err := GetTokenAccount(txn, to)
	if err != nil {
		return err
	}
	if source.Mint != destination.Mint {
		return fmt.Errorf("%w: cannot move %s into an account of mint %s", library.ErrInvalidTokenAccount, source.Mint, destination.Mint)
	}
	if _, human := authority.(Holder); human && custody.IsKeyless(authority.Signer()) {
		return fmt.Errorf("%w: custody account %s can only be spent with a custody seal", library.ErrUnauthorized, authority.Signer())
	}
	if authority.Signer() != source.Owner {
		return fmt.Errorf("%w: %s is not the owner of %s", library.ErrUnauthorized, authority.Signer(), from)
	}
	if source.Balance < amount {
		return fmt.Errorf("%w: %s holds %d, transfer needs %d", library.ErrInsufficientFunds, from, source.Balance, amount)
	}
	if from == to {
		return nil
	}
	if destination.Balance > math.MaxUint64-amount {
		return fmt.Errorf("%w: %s would exceed the maximum balance", library.ErrNumericalOverflow, to)
	}
	source.Balance -= amount
	destination.Balance += amount
	if err = PutRecord(txn, from, source); err != nil {
		return err
	}
	return PutRecord(txn, to, destination)
}
