package library

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

func Sha256Sum(data interface{}) Sha256 {
	var b []byte
	switch d := data.(type) {
	case string:
		b = []byte(d)
	case []byte:
		b = d
	default:
		LogCLI("attempted to hash non-string or non-[]byte", 0)
	}
	h := sha256.New()
	h.Write(b)
	return fmt.Sprintf("%x", h.Sum(nil))
}

// DecodeAccount returns the raw 32 bytes of an account.
func DecodeAccount(account Account) ([]byte, error) {
	b, err := hex.DecodeString(account)
	if err != nil {
		return nil, fmt.Errorf("%w: account %q is not hex: %s", ErrInvalidAccountConfig, account, err.Error())
	}
	if len(b) != 32 {
		return nil, fmt.Errorf("%w: account %q is %d bytes, expected 32", ErrInvalidAccountConfig, account, len(b))
	}
	// accounts are compared as strings, so only one spelling is accepted
	if hex.EncodeToString(b) != account {
		return nil, fmt.Errorf("%w: account %q is not lowercase hex", ErrInvalidAccountConfig, account)
	}
	return b, nil
}

// ValidAccount reports whether account is 64 lowercase hex characters.
func ValidAccount(account Account) bool {
	_, err := DecodeAccount(account)
	return err == nil
}

// Uint64LE encodes n as 8 little endian bytes, the encoding used for sequence numbers in derivation seeds.
func Uint64LE(n uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, n)
	return b
}
