package custody

import (
	"fmt"

	"bountyboard/engine/library"
)

// Authority is the spending authority over custody accounts. It carries the derivation inputs,
// never a secret, and is checked by recomputing the address.
type Authority struct {
	programID library.Account
	seeds     [][]byte
	bump      uint8
	address   library.Account
}

// Seal is the credential presented to the ledger when moving funds out of a custody account.
// It can only be obtained from Authority.Seal, after the address has been re-derived.
type Seal struct {
	address library.Account
}

func (s Seal) Signer() library.Account {
	return s.address
}

// NewAuthority derives a fresh authority for seeds, searching for the bump.
func NewAuthority(programID library.Account, seeds ...[]byte) (Authority, error) {
	address, bump, err := FindAddress(programID, seeds...)
	if err != nil {
		return Authority{}, err
	}
	return Authority{programID: programID, seeds: copySeeds(seeds), bump: bump, address: address}, nil
}

// LoadAuthority rebuilds an authority from stored seeds and bump. The address is recomputed here,
// it is never read back from storage.
func LoadAuthority(programID library.Account, bump uint8, seeds ...[]byte) (Authority, error) {
	address, err := CreateAddress(programID, bump, seeds...)
	if err != nil {
		return Authority{}, fmt.Errorf("%w: %s", library.ErrUnauthorized, err.Error())
	}
	return Authority{programID: programID, seeds: copySeeds(seeds), bump: bump, address: address}, nil
}

func (a Authority) Address() library.Account {
	return a.address
}

func (a Authority) Bump() uint8 {
	return a.bump
}

// Seal re-derives the address and compares it with expected, the address the caller believes
// controls the funds. Any mismatch fails closed.
func (a Authority) Seal(expected library.Account) (Seal, error) {
	if len(a.address) == 0 {
		return Seal{}, fmt.Errorf("%w: empty custody authority", library.ErrUnauthorized)
	}
	address, err := CreateAddress(a.programID, a.bump, a.seeds...)
	if err != nil {
		return Seal{}, fmt.Errorf("%w: %s", library.ErrUnauthorized, err.Error())
	}
	if address != a.address || address != expected {
		return Seal{}, fmt.Errorf("%w: custody authority %s does not control %s", library.ErrUnauthorized, address, expected)
	}
	return Seal{address: address}, nil
}

func copySeeds(seeds [][]byte) [][]byte {
	c := make([][]byte, len(seeds))
	for i, seed := range seeds {
		c[i] = append([]byte(nil), seed...)
	}
	return c
}
