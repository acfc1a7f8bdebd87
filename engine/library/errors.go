package library

import (
	"errors"
)

var (
	ErrUnauthorized         = errors.New("unauthorized access attempt")
	ErrInvalidBountyStatus  = errors.New("invalid bounty status for this operation")
	ErrBountyExpired        = errors.New("bounty has expired")
	ErrAlreadyClaimed       = errors.New("bounty already claimed")
	ErrNumericalOverflow    = errors.New("arithmetic overflow/underflow detected")
	ErrInvalidAccountConfig = errors.New("invalid account configuration")
	ErrInvalidTokenAccount  = errors.New("invalid token account")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrAlreadyInitialized   = errors.New("account already initialized")
	ErrAccountNotFound      = errors.New("account not found")
	ErrInvalidTaskReference = errors.New("invalid task reference")
	ErrReplay               = errors.New("replayed or out of order event")
	ErrInvalidEvent         = errors.New("invalid event")
)

type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindAuthorization
	KindState
	KindArithmetic
	KindConfiguration
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuthorization:
		return "authorization"
	case KindState:
		return "state"
	case KindArithmetic:
		return "arithmetic"
	case KindConfiguration:
		return "configuration"
	default:
		return "unknown"
	}
}

var kinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrUnauthorized, KindAuthorization},
	{ErrReplay, KindAuthorization},
	{ErrInvalidBountyStatus, KindState},
	{ErrBountyExpired, KindState},
	{ErrAlreadyClaimed, KindState},
	{ErrAlreadyInitialized, KindState},
	{ErrInsufficientFunds, KindState},
	{ErrNumericalOverflow, KindArithmetic},
	{ErrInvalidAccountConfig, KindConfiguration},
	{ErrInvalidTokenAccount, KindConfiguration},
	{ErrAccountNotFound, KindConfiguration},
	{ErrInvalidTaskReference, KindConfiguration},
	{ErrInvalidEvent, KindConfiguration},
}

// KindOf classifies err into one of the failure families. Errors that wrap none of the
// sentinels above are KindUnknown.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindUnknown
}
