package blocks

import (
	"fmt"
	"strconv"
	"time"

	"github.com/nbd-wtf/go-nostr"

	"bountyboard/engine/library"
)

func (c *Chain) HandleEvent(event nostr.Event) (m Mapped, e error) {
	if event.Kind != Kind {
		return nil, fmt.Errorf("%w: kind %d is not a block header", library.ErrInvalidEvent, event.Kind)
	}
	block, err := parse(event)
	if err != nil {
		return nil, err
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if !c.isOracle(event.PubKey) {
		return nil, fmt.Errorf("%w: %s is not a clock oracle", library.ErrUnauthorized, event.PubKey)
	}
	if existing, exists := c.blocks[block.Height]; exists && existing.Hash == block.Hash {
		return nil, fmt.Errorf("%w: we already have block %d", library.ErrInvalidEvent, block.Height)
	}
	if t, ok := c.tip(); ok {
		if t.Height >= block.Height {
			return nil, fmt.Errorf("%w: block %d is not higher than our current block %d", library.ErrInvalidEvent, block.Height, t.Height)
		}
		if block.MedianTime.Before(t.MedianTime) {
			return nil, fmt.Errorf("%w: block %d moves the clock back", library.ErrInvalidEvent, block.Height)
		}
	}
	c.blocks[block.Height] = block
	m = make(Mapped, len(c.blocks))
	for height, b := range c.blocks {
		m[height] = b
	}
	return m, nil
}

func parse(event nostr.Event) (Block, error) {
	hash, ok := library.GetFirstTag(event, "hash")
	if !ok {
		return Block{}, fmt.Errorf("%w: failed to get block hash from event", library.ErrInvalidEvent)
	}
	var values [4]int64
	for i, name := range []string{"height", "minertime", "mediantime", "difficulty"} {
		tag, ok := library.GetFirstTag(event, name)
		if !ok {
			return Block{}, fmt.Errorf("%w: failed to get block %s from event", library.ErrInvalidEvent, name)
		}
		n, err := strconv.ParseInt(tag, 10, 64)
		if err != nil {
			return Block{}, fmt.Errorf("%w: block %s: %s", library.ErrInvalidEvent, name, err.Error())
		}
		values[i] = n
	}
	return Block{
		Height:     values[0],
		Hash:       hash,
		MinerTime:  time.Unix(values[1], 0),
		MedianTime: time.Unix(values[2], 0),
		Difficulty: values[3],
		Oracle:     event.PubKey,
	}, nil
}

// Header builds an unsigned block header event.
func Header(height int64, hash library.Sha256, minerTime, medianTime, difficulty int64) nostr.Event {
	return nostr.Event{
		CreatedAt: nostr.Timestamp(time.Now().Unix()),
		Kind:      Kind,
		Tags: nostr.Tags{
			nostr.Tag{"hash", hash},
			nostr.Tag{"height", strconv.FormatInt(height, 10)},
			nostr.Tag{"minertime", strconv.FormatInt(minerTime, 10)},
			nostr.Tag{"mediantime", strconv.FormatInt(medianTime, 10)},
			nostr.Tag{"difficulty", strconv.FormatInt(difficulty, 10)},
		},
	}
}
