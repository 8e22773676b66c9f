package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Tick uint64
	Lap  int
}

func TestQueue_PushPop(t *testing.T) {
	q := New[sample]()
	assert.True(t, q.Empty())

	_, ok := q.Pop()
	assert.False(t, ok)

	q.Push(sample{Tick: 1}, sample{Tick: 2})
	assert.Equal(t, 2, q.Len())

	s, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, uint64(1), s.Tick)
	assert.Equal(t, 1, q.Len())
}

func TestQueue_PopN(t *testing.T) {
	q := New[sample]()
	for i := 1; i <= 5; i++ {
		q.Push(sample{Tick: uint64(i)})
	}

	batch := q.PopN(2)
	require.Len(t, batch, 2)
	assert.Equal(t, uint64(1), batch[0].Tick)
	assert.Equal(t, uint64(2), batch[1].Tick)
	assert.Equal(t, 3, q.Len())

	rest := q.PopN(10)
	assert.Len(t, rest, 3)
	assert.True(t, q.Empty())

	assert.Empty(t, q.PopN(0))
}

func TestQueue_Requeue(t *testing.T) {
	q := New[sample]()
	q.Push(sample{Tick: 1}, sample{Tick: 2})
	batch := q.GetAndEmpty()
	q.Push(sample{Tick: 3})

	q.Requeue(batch)

	all := q.GetAndEmpty()
	require.Len(t, all, 3)
	assert.Equal(t, []uint64{1, 2, 3}, []uint64{all[0].Tick, all[1].Tick, all[2].Tick})

	q.Requeue(nil)
	assert.True(t, q.Empty())
}

func TestQueue_Bounded(t *testing.T) {
	q := NewBounded[sample](3)
	for i := 1; i <= 5; i++ {
		q.Push(sample{Tick: uint64(i)})
	}

	assert.Equal(t, 3, q.Len())
	assert.Equal(t, uint64(2), q.Dropped())
	s, _ := q.Pop()
	assert.Equal(t, uint64(3), s.Tick)

	q.Requeue([]sample{{Tick: 10}, {Tick: 11}})
	assert.Equal(t, 3, q.Len())
	assert.Equal(t, uint64(3), q.Dropped())
	s, _ = q.Pop()
	assert.Equal(t, uint64(11), s.Tick)
}

func TestQueue_Clear(t *testing.T) {
	q := New[sample]()
	q.Push(sample{}, sample{})
	q.Clear()
	assert.True(t, q.Empty())
}

func TestQueue_ConcurrentPush(t *testing.T) {
	q := New[sample]()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(lap int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				q.Push(sample{Tick: uint64(i), Lap: lap})
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 800, q.Len())
	assert.Len(t, q.GetAndEmpty(), 800)
}
