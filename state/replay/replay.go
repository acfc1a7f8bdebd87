package replay

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/nbd-wtf/go-nostr"
	"github.com/sasha-s/go-deadlock"

	"bountyboard/engine/actors"
	"bountyboard/engine/library"
)

type Mapped map[library.Account]string

// Guard tracks the last event handled for every signer. An event is only accepted if its "r" tag
// names that event, so a signed operation can never be applied twice or out of order.
type Guard struct {
	data  map[library.Account]string
	mutex *deadlock.Mutex
	// dir is empty for a guard that is never persisted.
	dir string
}

func NewGuard() *Guard {
	return &Guard{
		data:  make(map[library.Account]string),
		mutex: &deadlock.Mutex{},
	}
}

// OpenGuard restores a guard persisted under dir.
func OpenGuard(dir string) (*Guard, error) {
	g := NewGuard()
	g.dir = dir
	f, ok, err := actors.Open(dir, "replay", "current")
	if err != nil {
		return nil, err
	}
	if ok {
		defer f.Close()
		if err = json.NewDecoder(f).Decode(&g.data); err != nil {
			if err.Error() != "EOF" {
				return nil, fmt.Errorf("could not restore replay state: %s", err.Error())
			}
		}
		if g.data == nil {
			g.data = make(map[library.Account]string)
		}
	}
	actors.LogCLI("Replay Mind has started", 4)
	return g, nil
}

// Check fails with ErrReplay unless the event's "r" tag is the signer's current hash.
func (g *Guard) Check(event nostr.Event) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return g.check(event)
}

func (g *Guard) check(event nostr.Event) error {
	claimedHash, ok := library.GetFirstTag(event, "r")
	if !ok {
		return fmt.Errorf("%w: event %s has no replay tag", library.ErrReplay, event.ID)
	}
	if current := g.current(event.PubKey); claimedHash != current {
		return fmt.Errorf("%w: event %s references %s but the latest event from %s is %s", library.ErrReplay, event.ID, claimedHash, event.PubKey, current)
	}
	return nil
}

// Commit records event as its signer's latest. It must only be called after the event has been
// applied.
func (g *Guard) Commit(event nostr.Event) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	if err := g.check(event); err != nil {
		return err
	}
	previous, existed := g.data[event.PubKey]
	g.data[event.PubKey] = event.ID
	if err := g.persistToDisk(); err != nil {
		if existed {
			g.data[event.PubKey] = previous
		} else {
			delete(g.data, event.PubKey)
		}
		return err
	}
	return nil
}

func (g *Guard) persistToDisk() error {
	if len(g.dir) == 0 {
		return nil
	}
	b, err := json.MarshalIndent(g.data, "", " ")
	if err != nil {
		return err
	}
	return actors.Write(g.dir, "replay", "current", b)
}

func (g *Guard) GetCurrentHashForAccount(account library.Account) string {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return g.current(account)
}

func (g *Guard) current(account library.Account) string {
	if hash, ok := g.data[account]; ok {
		return hash
	}
	return actors.ReplayPrevention
}

func (g *Guard) GetMap() Mapped {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	m := make(Mapped, len(g.data))
	for account, id := range g.data {
		m[account] = id
	}
	return m
}

// StateHash hashes every signer's latest event ID in account order.
func (m Mapped) StateHash() (library.Sha256, error) {
	sl := make([]library.Account, 0, len(m))
	for account := range m {
		sl = append(sl, account)
	}
	sort.Slice(sl, func(i, j int) bool {
		return sl[i] > sl[j]
	})
	b := bytes.Buffer{}
	for _, account := range sl {
		decodedString, err := hex.DecodeString(m[account])
		if err != nil {
			return "", fmt.Errorf("%w: latest event of %s is %q", library.ErrInvalidEvent, account, m[account])
		}
		b.Write(decodedString)
	}
	return library.Sha256Sum(b.Bytes()), nil
}
