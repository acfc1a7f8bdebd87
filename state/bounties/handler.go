package bounties

import (
	"encoding/json"
	"fmt"

	"github.com/nbd-wtf/go-nostr"

	"bountyboard/engine/actors"
	"bountyboard/engine/library"
)

// Kinds handled by the engine.
const (
	KindInitializeBoard = 642000
	KindCreateBounty    = 642002
	KindClaimBounty     = 642004
	KindProcessPayout   = 642006
)

func Handles(kind int) bool {
	return kind >= 642000 && kind <= 642099
}

// HandleEvent applies a signed operation event. The event pubkey is the caller, so the signature
// must have been verified before it gets here. A nil error means the operation was committed; the
// returned Mapped is empty when the board could not be read afterwards.
func (e *Engine) HandleEvent(event nostr.Event) (m Mapped, err error) {
	if !Handles(event.Kind) {
		return m, fmt.Errorf("%w: event %s of kind %d did not cause a state change", library.ErrInvalidEvent, event.ID, event.Kind)
	}
	var board library.Account
	switch event.Kind {
	case KindInitializeBoard:
		var unmarshalled Kind642000
		if err = unmarshal(event, &unmarshalled); err != nil {
			return m, err
		}
		var b Board
		if b, err = e.InitializeBoard(event.PubKey, unmarshalled.Mint); err != nil {
			return m, err
		}
		board = b.Address
	case KindCreateBounty:
		var unmarshalled Kind642002
		if err = unmarshal(event, &unmarshalled); err != nil {
			return m, err
		}
		if _, err = e.CreateBounty(event.PubKey, unmarshalled); err != nil {
			return m, err
		}
		board = unmarshalled.Board
	case KindClaimBounty:
		var unmarshalled Kind642004
		if err = unmarshal(event, &unmarshalled); err != nil {
			return m, err
		}
		if _, err = e.ClaimBounty(event.PubKey, unmarshalled); err != nil {
			return m, err
		}
		board = unmarshalled.Board
	case KindProcessPayout:
		var unmarshalled Kind642006
		if err = unmarshal(event, &unmarshalled); err != nil {
			return m, err
		}
		if _, err = e.ProcessPayout(event.PubKey, unmarshalled); err != nil {
			return m, err
		}
		board = unmarshalled.Board
	default:
		return m, fmt.Errorf("%w: event %s has unknown kind %d", library.ErrInvalidEvent, event.ID, event.Kind)
	}
	// the operation is committed, a failed read back must not report it as rejected
	if m, err = e.GetMapped(board); err != nil {
		actors.LogCLI(fmt.Sprintf("event %s changed state but board %s could not be read back: %s", event.ID, board, err.Error()), 1)
		return Mapped{}, nil
	}
	return m, nil
}

func unmarshal(event nostr.Event, v any) error {
	if err := json.Unmarshal([]byte(event.Content), v); err != nil {
		return fmt.Errorf("%w: %s reported for event %s", library.ErrInvalidEvent, err.Error(), event.ID)
	}
	return nil
}
