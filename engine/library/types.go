package library

type Wallet struct {
	PrivateKey string
	SeedWords  string
	Account    Account
}

// Account is a 32 byte hex encoded address. Human accounts are x-only secp256k1 public keys,
// custody accounts are keyless derived addresses.
type Account = string

type Sha256 = string
