package library

import (
	"fmt"
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventQueueIsFIFOAcrossGrowth(t *testing.T) {
	q := NewEventQueue(2)
	for i := 0; i < 7; i++ {
		q.Push(nostr.Event{ID: fmt.Sprintf("%d", i)})
		if i == 2 {
			e, ok := q.Pop()
			require.True(t, ok)
			assert.Equal(t, "0", e.ID)
		}
	}
	assert.Equal(t, 6, q.Len())
	for i := 1; i < 7; i++ {
		e, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("%d", i), e.ID)
	}
	_, ok := q.Pop()
	assert.False(t, ok)
	assert.Equal(t, 0, q.Len())
}
