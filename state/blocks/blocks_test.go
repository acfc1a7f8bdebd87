package blocks

import (
	"strconv"
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bountyboard/engine/library"
)

var oracle = library.Sha256Sum("oracle")

func header(height, medianTime int64) (e nostr.Event) {
	e = Header(height, library.Sha256Sum(strconv.FormatInt(height, 10)), medianTime+60, medianTime, 1)
	e.PubKey = oracle
	return
}

func TestChainClock(t *testing.T) {
	c := NewChain(library.FixedClock(42), oracle)
	assert.Equal(t, int64(42), c.Now())

	_, err := c.HandleEvent(header(100, 1_000))
	require.NoError(t, err)
	assert.Equal(t, int64(1_000), c.Now())

	m, err := c.HandleEvent(header(101, 1_100))
	require.NoError(t, err)
	assert.Len(t, m, 2)
	assert.Equal(t, int64(1_100), c.Now())

	tip, ok := c.Tip()
	require.True(t, ok)
	assert.Equal(t, int64(101), tip.Height)
	assert.Equal(t, oracle, tip.Oracle)
}

func TestChainRejects(t *testing.T) {
	c := NewChain(nil, oracle)
	assert.Equal(t, int64(0), c.Now())
	_, err := c.HandleEvent(header(100, 1_000))
	require.NoError(t, err)

	_, err = c.HandleEvent(header(100, 1_000))
	assert.ErrorIs(t, err, library.ErrInvalidEvent)
	_, err = c.HandleEvent(header(99, 1_200))
	assert.ErrorIs(t, err, library.ErrInvalidEvent)
	_, err = c.HandleEvent(header(101, 900))
	assert.ErrorIs(t, err, library.ErrInvalidEvent)

	stranger := header(102, 1_300)
	stranger.PubKey = library.Sha256Sum("stranger")
	_, err = c.HandleEvent(stranger)
	assert.ErrorIs(t, err, library.ErrUnauthorized)

	missing := header(103, 1_300)
	missing.Tags = missing.Tags[:2]
	_, err = c.HandleEvent(missing)
	assert.ErrorIs(t, err, library.ErrInvalidEvent)

	wrongKind := header(104, 1_300)
	wrongKind.Kind = 1
	_, err = c.HandleEvent(wrongKind)
	assert.ErrorIs(t, err, library.ErrInvalidEvent)

	assert.Len(t, c.GetMapped(), 1)
}
