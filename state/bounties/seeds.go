package bounties

import (
	"bountyboard/engine/library"
	"bountyboard/state/custody"
)

func boardSeeds(mint library.Account) ([][]byte, error) {
	m, err := library.DecodeAccount(mint)
	if err != nil {
		return nil, err
	}
	return [][]byte{[]byte("bounty_board"), m}, nil
}

func sequencedSeeds(prefix string, board library.Account, sequence uint64) ([][]byte, error) {
	b, err := library.DecodeAccount(board)
	if err != nil {
		return nil, err
	}
	return [][]byte{[]byte(prefix), b, library.Uint64LE(sequence)}, nil
}

// BoardAddress is the address of the board for mint, and the custody authority of its escrows.
func BoardAddress(programID, mint library.Account) (library.Account, uint8, error) {
	seeds, err := boardSeeds(mint)
	if err != nil {
		return "", 0, err
	}
	return custody.FindAddress(programID, seeds...)
}

// BountyAddress is the address of the bounty with the given sequence number under board.
func BountyAddress(programID, board library.Account, sequence uint64) (library.Account, uint8, error) {
	seeds, err := sequencedSeeds("bounty", board, sequence)
	if err != nil {
		return "", 0, err
	}
	return custody.FindAddress(programID, seeds...)
}

func EscrowAddress(programID, bounty library.Account) (library.Account, uint8, error) {
	b, err := library.DecodeAccount(bounty)
	if err != nil {
		return "", 0, err
	}
	return custody.FindAddress(programID, []byte("escrow"), b)
}

func PayoutAddress(programID, board library.Account, sequence uint64) (library.Account, uint8, error) {
	seeds, err := sequencedSeeds("payout", board, sequence)
	if err != nil {
		return "", 0, err
	}
	return custody.FindAddress(programID, seeds...)
}

// authorityFor rebuilds the custody authority of board from its stored mint and bump.
func authorityFor(programID library.Account, board Board) (custody.Authority, error) {
	seeds, err := boardSeeds(board.Mint)
	if err != nil {
		return custody.Authority{}, err
	}
	return custody.LoadAuthority(programID, board.Bump, seeds...)
}
