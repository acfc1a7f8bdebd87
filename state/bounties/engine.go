package bounties

import (
	"fmt"

	"bountyboard/engine/actors"
	"bountyboard/engine/library"
	"bountyboard/state/ledger"
)

// Engine runs board and bounty operations against a ledger. Every operation is one ledger Update,
// so a failure leaves every account exactly as it was.
type Engine struct {
	store     ledger.Store
	clock     library.Clock
	programID library.Account
}

func NewEngine(store ledger.Store, clock library.Clock) *Engine {
	return &Engine{store: store, clock: clock, programID: actors.ProgramID}
}

func (e *Engine) ProgramID() library.Account {
	return e.programID
}

func (e *Engine) Store() ledger.Store {
	return e.store
}

func getBoard(r ledger.Reader, address library.Account) (b Board, err error) {
	err = ledger.GetRecord(r, address, KindBoard, &b)
	return
}

func getBounty(r ledger.Reader, address library.Account) (b Bounty, err error) {
	err = ledger.GetRecord(r, address, KindBounty, &b)
	return
}

func (e *Engine) GetBoard(address library.Account) (b Board, err error) {
	err = e.store.View(func(r ledger.Reader) error {
		b, err = getBoard(r, address)
		return err
	})
	return
}

func (e *Engine) GetBounty(address library.Account) (b Bounty, err error) {
	err = e.store.View(func(r ledger.Reader) error {
		b, err = getBounty(r, address)
		return err
	})
	return
}

// BountyAt looks up a bounty by its sequence number, without any index.
func (e *Engine) BountyAt(board library.Account, sequence uint64) (Bounty, error) {
	address, _, err := BountyAddress(e.programID, board, sequence)
	if err != nil {
		return Bounty{}, err
	}
	return e.GetBounty(address)
}

func (e *Engine) GetPayout(board library.Account, sequence uint64) (p PayoutReceipt, err error) {
	address, _, err := PayoutAddress(e.programID, board, sequence)
	if err != nil {
		return PayoutReceipt{}, err
	}
	err = e.store.View(func(r ledger.Reader) error {
		return ledger.GetRecord(r, address, KindPayoutReceipt, &p)
	})
	return
}

// GetMapped returns the board and all of its bounties in creation order.
func (e *Engine) GetMapped(board library.Account) (m Mapped, err error) {
	err = e.store.View(func(r ledger.Reader) error {
		return e.getMapped(r, board, &m)
	})
	return
}

func (e *Engine) getMapped(r ledger.Reader, board library.Account, m *Mapped) error {
	b, err := getBoard(r, board)
	if err != nil {
		return err
	}
	m.Board = b
	m.Bounties = make([]Bounty, 0, b.TotalBountiesCreated)
	for sequence := uint64(0); sequence < b.TotalBountiesCreated; sequence++ {
		address, _, err := BountyAddress(e.programID, board, sequence)
		if err != nil {
			return err
		}
		bounty, err := getBounty(r, address)
		if err != nil {
			return fmt.Errorf("bounty %d of board %s: %w", sequence, board, err)
		}
		m.Bounties = append(m.Bounties, bounty)
	}
	return nil
}
