package csp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastDeliversToAllSubscribers(t *testing.T) {
	source := NewQueue[int](10)
	b := NewBroadcast(source, 10)

	sub1 := b.Subscribe()
	sub2 := b.Subscribe()

	for i := 1; i <= 3; i++ {
		require.NoError(t, source.Put(i))
	}
	source.Close()

	for _, sub := range []*Queue[int]{sub1, sub2} {
		for i := 1; i <= 3; i++ {
			v, ok := sub.Pop()
			require.True(t, ok)
			assert.Equal(t, i, v)
		}
		_, ok := sub.Pop()
		assert.False(t, ok)
	}
}

func TestBroadcastSubscribersAreIndependent(t *testing.T) {
	source := NewQueue[int](10)
	b := NewBroadcast(source, 10)

	sub1 := b.Subscribe()
	sub2 := b.Subscribe()

	require.NoError(t, source.Put(1))
	require.NoError(t, source.Put(2))

	// sub1 consumes both; sub2 hasn't consumed anything yet
	v, ok := sub1.Pop()
	require.True(t, ok)
	assert.Equal(t, 1, v)
	v, ok = sub1.Pop()
	require.True(t, ok)
	assert.Equal(t, 2, v)

	// sub2 still sees both, in order
	v, ok = sub2.Pop()
	require.True(t, ok)
	assert.Equal(t, 1, v)
	v, ok = sub2.Pop()
	require.True(t, ok)
	assert.Equal(t, 2, v)

	source.Close()
}

func TestBroadcastClosedConsumerDetaches(t *testing.T) {
	source := NewQueue[int](10)
	b := NewBroadcast(source, 10)

	quitter := b.Subscribe()
	stayer := b.Subscribe()

	quitter.Close()

	require.NoError(t, source.Put(42))

	v, ok := stayer.Pop()
	require.True(t, ok)
	assert.Equal(t, 42, v)

	// The detached subscriber no longer receives anything; the source
	// keeps flowing
	require.NoError(t, source.Put(43))
	v, ok = stayer.Pop()
	require.True(t, ok)
	assert.Equal(t, 43, v)

	source.Close()
	_, ok = stayer.Pop()
	assert.False(t, ok)
}

func TestBroadcastSourceCloseClosesSubscribers(t *testing.T) {
	source := NewQueue[int](10)
	b := NewBroadcast(source, 10)

	sub := b.Subscribe()

	source.Close()

	_, ok := sub.Pop()
	assert.False(t, ok)
}

func TestBroadcastSubscribeAfterSourceClosed(t *testing.T) {
	source := NewQueue[int](10)
	b := NewBroadcast(source, 10)

	source.Close()

	// Wait for the fan-out task to observe the close
	deadline := time.Now().Add(time.Second)
	for {
		sub := b.Subscribe()
		if sub.Closed() {
			_, ok := sub.Pop()
			assert.False(t, ok)
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("subscriber not closed after source shutdown")
		}
		sub.Close()
		time.Sleep(time.Millisecond)
	}
}
