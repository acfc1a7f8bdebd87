package eventconductor

import (
	"github.com/sasha-s/go-deadlock"

	"bountyboard/engine/library"
	"bountyboard/state/blocks"
	"bountyboard/state/bounties"
	"bountyboard/state/replay"
)

// CurrentState is the latest state reported by each mind.
type CurrentState struct {
	Boards map[library.Account]bounties.Mapped
	Replay replay.Mapped
	Blocks blocks.Mapped
	mu     *deadlock.Mutex
}

type WireState struct {
	Boards map[library.Account]bounties.Mapped `json:"boards"`
	Replay replay.Mapped                       `json:"replay"`
	Blocks blocks.Mapped                       `json:"blocks"`
}

func newCurrentState() *CurrentState {
	return &CurrentState{
		Boards: make(map[library.Account]bounties.Mapped),
		Replay: replay.Mapped{},
		Blocks: blocks.Mapped{},
		mu:     &deadlock.Mutex{},
	}
}

func (c *CurrentState) appendState(name string, state any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch name {
	case "bounties":
		m := state.(bounties.Mapped)
		if len(m.Board.Address) == 0 {
			return false
		}
		c.Boards[m.Board.Address] = m
	case "replay":
		c.Replay = state.(replay.Mapped)
	case "blocks":
		c.Blocks = state.(blocks.Mapped)
	default:
		return false
	}
	return true
}

func (c *CurrentState) wire() (w WireState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	w.Boards = make(map[library.Account]bounties.Mapped, len(c.Boards))
	for board, m := range c.Boards {
		w.Boards[board] = m
	}
	w.Replay = c.Replay
	w.Blocks = c.Blocks
	return
}
