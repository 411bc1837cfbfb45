package ledger

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActiveIndex_SwapAndPop(t *testing.T) {
	x := newActiveIndex()
	for id := uint64(10); id < 15; id++ {
		x.add(id)
	}

	assert.Equal(t, 1, x.remove(11))
	assert.Equal(t, []uint64{10, 14, 12, 13}, x.IDs())

	p, ok := x.Position(14)
	assert.True(t, ok)
	assert.Equal(t, 1, p)
	assert.False(t, x.Contains(11))

	assert.Equal(t, 3, x.remove(13), "removing the tail moves nothing")
	assert.Equal(t, []uint64{10, 14, 12}, x.IDs())
	assert.Equal(t, -1, x.remove(99))
	require.NoError(t, x.Verify())
}

func TestActiveIndex_RestoreUndoesRemove(t *testing.T) {
	for _, victim := range []uint64{1, 2, 3, 4} {
		x := newActiveIndex()
		for id := uint64(1); id <= 4; id++ {
			x.add(id)
		}
		before := x.IDs()

		x.restore(victim, x.remove(victim))
		assert.Equal(t, before, x.IDs(), "victim %d", victim)
		require.NoError(t, x.Verify())
	}
}

func TestActiveIndex_RandomOperations(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	x := newActiveIndex()
	live := make(map[uint64]bool)

	for i := 0; i < 5000; i++ {
		id := uint64(rnd.Intn(200))
		if live[id] {
			x.remove(id)
			delete(live, id)
		} else {
			x.add(id)
			live[id] = true
		}
		require.NoError(t, x.Verify())
		require.Equal(t, len(live), x.Len())
	}

	for id := range live {
		assert.True(t, x.Contains(id))
	}
}

func TestActiveIndex_PageClamps(t *testing.T) {
	x := newActiveIndex()
	for id := uint64(0); id < 3; id++ {
		x.add(id)
	}

	tests := []struct {
		skip, take int
		want       []uint64
	}{
		{0, 2, []uint64{0, 1}},
		{1, 10, []uint64{1, 2}},
		{3, 1, []uint64{}},
		{-1, 1, []uint64{0}},
		{0, -1, []uint64{}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, x.Page(tt.skip, tt.take), "skip %d take %d", tt.skip, tt.take)
	}
}
