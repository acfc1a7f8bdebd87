package blocks

import (
	"github.com/sasha-s/go-deadlock"
	"golang.org/x/exp/slices"

	"bountyboard/engine/library"
)

// Chain follows block headers published by trusted oracles. Its Now is the median time of the tip,
// which only moves forward, so it can serve as the clock for bounty deadlines.
type Chain struct {
	blocks   Mapped
	oracles  []library.Account
	fallback library.Clock
	mutex    *deadlock.Mutex
}

// NewChain accepts headers signed by any of oracles. Until the first header arrives Now reads
// fallback, or zero if fallback is nil.
func NewChain(fallback library.Clock, oracles ...library.Account) *Chain {
	return &Chain{
		blocks:   make(Mapped),
		oracles:  slices.Clone(oracles),
		fallback: fallback,
		mutex:    &deadlock.Mutex{},
	}
}

func (c *Chain) Tip() (t Block, b bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.tip()
}

func (c *Chain) tip() (t Block, b bool) {
	for _, block := range c.blocks {
		if !b || block.Height > t.Height {
			t = block
			b = true
		}
	}
	return
}

func (c *Chain) Now() int64 {
	if t, ok := c.Tip(); ok {
		return t.MedianTime.Unix()
	}
	if c.fallback != nil {
		return c.fallback.Now()
	}
	return 0
}

func (c *Chain) GetMapped() Mapped {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	m := make(Mapped, len(c.blocks))
	for height, block := range c.blocks {
		m[height] = block
	}
	return m
}

func (c *Chain) isOracle(account library.Account) bool {
	return slices.Contains(c.oracles, account)
}
