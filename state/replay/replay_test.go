package replay

import (
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bountyboard/engine/actors"
	"bountyboard/engine/library"
)

func event(id, pubkey, r string) nostr.Event {
	e := nostr.Event{ID: id, PubKey: pubkey}
	if len(r) > 0 {
		e.Tags = nostr.Tags{nostr.Tag{"r", r}}
	}
	return e
}

func TestGuardChainsEvents(t *testing.T) {
	g := NewGuard()
	alice := library.Sha256Sum("alice")
	first := event(library.Sha256Sum("1"), alice, actors.ReplayPrevention)
	require.NoError(t, g.Check(first))
	require.NoError(t, g.Commit(first))
	assert.Equal(t, first.ID, g.GetCurrentHashForAccount(alice))

	assert.ErrorIs(t, g.Check(first), library.ErrReplay)
	assert.ErrorIs(t, g.Check(event(library.Sha256Sum("x"), alice, "")), library.ErrReplay)

	second := event(library.Sha256Sum("2"), alice, first.ID)
	require.NoError(t, g.Check(second))
	require.NoError(t, g.Commit(second))
	assert.ErrorIs(t, g.Commit(second), library.ErrReplay)

	bob := library.Sha256Sum("bob")
	assert.Equal(t, actors.ReplayPrevention, g.GetCurrentHashForAccount(bob))
	assert.ErrorIs(t, g.Check(event(library.Sha256Sum("3"), bob, first.ID)), library.ErrReplay)
}

func TestGuardPersists(t *testing.T) {
	dir := t.TempDir()
	g, err := OpenGuard(dir)
	require.NoError(t, err)
	alice := library.Sha256Sum("alice")
	first := event(library.Sha256Sum("1"), alice, actors.ReplayPrevention)
	require.NoError(t, g.Commit(first))

	restored, err := OpenGuard(dir)
	require.NoError(t, err)
	assert.Equal(t, g.GetMap(), restored.GetMap())
	hash, err := restored.GetMap().StateHash()
	require.NoError(t, err)
	empty, err := NewGuard().GetMap().StateHash()
	require.NoError(t, err)
	assert.NotEqual(t, empty, hash)
}

func TestStateHashRejectsMalformedIDs(t *testing.T) {
	_, err := Mapped{library.Sha256Sum("alice"): "not hex"}.StateHash()
	assert.ErrorIs(t, err, library.ErrInvalidEvent)
}
