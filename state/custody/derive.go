package custody

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"

	"bountyboard/engine/library"
)

const derivationMarker = "ProgramDerivedAddress"

// MaxSeeds and MaxSeedLength bound the derivation inputs.
const (
	MaxSeeds      = 16
	MaxSeedLength = 32
)

// CreateAddress hashes the seeds, bump, program ID and a domain marker into an address. It fails if the
// result is a valid x-only secp256k1 public key, because then a private key for it could exist.
func CreateAddress(programID library.Account, bump uint8, seeds ...[]byte) (library.Account, error) {
	program, err := library.DecodeAccount(programID)
	if err != nil {
		return "", err
	}
	if err = checkSeeds(seeds); err != nil {
		return "", err
	}
	h := sha256.New()
	for _, seed := range seeds {
		h.Write(seed)
	}
	h.Write([]byte{bump})
	h.Write(program)
	h.Write([]byte(derivationMarker))
	sum := h.Sum(nil)
	if onCurve(sum) {
		return "", fmt.Errorf("%w: derived address for bump %d has a private key", library.ErrInvalidAccountConfig, bump)
	}
	return hex.EncodeToString(sum), nil
}

// FindAddress returns the first keyless address found walking the bump down from 255.
func FindAddress(programID library.Account, seeds ...[]byte) (library.Account, uint8, error) {
	if _, err := library.DecodeAccount(programID); err != nil {
		return "", 0, err
	}
	if err := checkSeeds(seeds); err != nil {
		return "", 0, err
	}
	for bump := 255; bump >= 0; bump-- {
		if address, err := CreateAddress(programID, uint8(bump), seeds...); err == nil {
			return address, uint8(bump), nil
		}
	}
	return "", 0, fmt.Errorf("%w: no keyless address for these seeds", library.ErrInvalidAccountConfig)
}

func checkSeeds(seeds [][]byte) error {
	if len(seeds) > MaxSeeds-1 {
		return fmt.Errorf("%w: %d seeds, at most %d allowed", library.ErrInvalidAccountConfig, len(seeds), MaxSeeds-1)
	}
	for _, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return fmt.Errorf("%w: seed of %d bytes exceeds %d", library.ErrInvalidAccountConfig, len(seed), MaxSeedLength)
		}
	}
	return nil
}

// IsKeyless reports whether account is a well formed address that is not a point on the curve.
// Only derived addresses are keyless, every account belonging to a human is a valid x-only key.
func IsKeyless(account library.Account) bool {
	b, err := library.DecodeAccount(account)
	if err != nil {
		return false
	}
	return !onCurve(b)
}

func onCurve(x []byte) bool {
	_, err := schnorr.ParsePubKey(x)
	return err == nil
}
