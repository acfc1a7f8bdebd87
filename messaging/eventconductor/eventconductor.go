package eventconductor

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/nbd-wtf/go-nostr"
	"github.com/sasha-s/go-deadlock"

	"bountyboard/engine/library"
	"bountyboard/state/blocks"
	"bountyboard/state/bounties"
	"bountyboard/state/replay"
)

// Conductor verifies incoming events and hands them, one at a time, to the mind that handles
// their kind.
type Conductor struct {
	engine *bounties.Engine
	chain  *blocks.Chain
	guard  *replay.Guard
	queue  *library.EventQueue
	state  *CurrentState
	// eventsInState holds the ID of every event that changed state.
	eventsInState map[library.Sha256]struct{}
	mutex         *deadlock.Mutex
}

func New(engine *bounties.Engine, chain *blocks.Chain, guard *replay.Guard) *Conductor {
	return &Conductor{
		engine:        engine,
		chain:         chain,
		guard:         guard,
		queue:         library.NewEventQueue(16),
		state:         newCurrentState(),
		eventsInState: make(map[library.Sha256]struct{}),
		mutex:         &deadlock.Mutex{},
	}
}

// Push queues an event for the next Drain.
func (c *Conductor) Push(event nostr.Event) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.queue.Push(event)
}

// Drain handles every queued event in arrival order and reports how many changed state.
func (c *Conductor) Drain() (handled, failed int) {
	for {
		c.mutex.Lock()
		event, ok := c.queue.Pop()
		c.mutex.Unlock()
		if !ok {
			return
		}
		if err := c.HandleEvent(event); err != nil {
			library.LogCLI(fmt.Sprintf("%s failed with a %s error: %s", event.ID, library.KindOf(err), err.Error()), 2)
			failed++
			continue
		}
		handled++
	}
}

// HandleEvent verifies event and applies it. Operation events must pass the replay guard, which
// only advances once the operation has succeeded.
func (c *Conductor) HandleEvent(event nostr.Event) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if _, exists := c.eventsInState[event.ID]; exists {
		return fmt.Errorf("%w: event %s is already in our local state", library.ErrReplay, event.ID)
	}
	if err := verify(event); err != nil {
		return err
	}
	library.LogCLI(fmt.Sprintf("Attempting to handle state change event %s of kind %d", event.ID, event.Kind), 4)
	mindName, mappedState, err := c.routeEvent(event)
	if err != nil {
		return err
	}
	c.eventsInState[event.ID] = struct{}{}
	c.state.appendState(mindName, mappedState)
	library.LogCLI(fmt.Sprintf("Handled state change event %s", event.ID), 3)
	return nil
}

func verify(event nostr.Event) error {
	if event.GetID() != event.ID {
		return fmt.Errorf("%w: event %s does not hash to its ID", library.ErrInvalidEvent, event.ID)
	}
	ok, err := event.CheckSignature()
	if err != nil {
		return fmt.Errorf("%w: event %s: %s", library.ErrInvalidEvent, event.ID, err.Error())
	}
	if !ok {
		return fmt.Errorf("%w: event %s has an invalid signature", library.ErrInvalidEvent, event.ID)
	}
	return nil
}

func (c *Conductor) routeEvent(e nostr.Event) (mindName string, newState any, err error) {
	switch k := e.Kind; {
	default:
		err = fmt.Errorf("%w: no mind to handle kind %d", library.ErrInvalidEvent, k)
	case k == blocks.Kind:
		mindName = "blocks"
		newState, err = c.chain.HandleEvent(e)
	case bounties.Handles(k):
		if err = c.guard.Check(e); err != nil {
			return
		}
		var m bounties.Mapped
		if m, err = c.engine.HandleEvent(e); err != nil {
			return
		}
		// the operation is already committed to the ledger, so the event stays in state
		if commitErr := c.guard.Commit(e); commitErr != nil {
			library.LogCLI(fmt.Sprintf("could not record %s in the replay guard: %s", e.ID, commitErr), 1)
		}
		mindName = "bounties"
		newState = m
		c.state.appendState("replay", c.guard.GetMap())
	}
	return
}

// LoadInbox queues every event in a file holding one JSON event per line. Blank lines are skipped.
func (c *Conductor) LoadInbox(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	var n int
	for line := 1; scanner.Scan(); line++ {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var event nostr.Event
		if err = json.Unmarshal(scanner.Bytes(), &event); err != nil {
			return n, fmt.Errorf("%w: %s line %d: %s", library.ErrInvalidEvent, path, line, err.Error())
		}
		c.Push(event)
		n++
	}
	return n, scanner.Err()
}

func (c *Conductor) GetCurrentStateMap() WireState {
	return c.state.wire()
}
