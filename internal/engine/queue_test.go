package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskQueue_FIFO(t *testing.T) {
	q := newTaskQueue()

	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		require.True(t, q.Enqueue(func() { order = append(order, i) }))
	}

	for {
		task, ok := q.TryDequeue()
		if !ok {
			break
		}
		task()
	}

	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestTaskQueue_TryDequeue_Empty(t *testing.T) {
	q := newTaskQueue()

	_, ok := q.TryDequeue()
	assert.False(t, ok, "dequeue from empty queue should return false")
}

func TestTaskQueue_Enqueue_AfterClose(t *testing.T) {
	q := newTaskQueue()
	q.Close()

	assert.False(t, q.Enqueue(func() {}), "enqueue after close should fail")
	assert.Equal(t, 0, q.Len())
}

func TestTaskQueue_Close_Idempotent(t *testing.T) {
	q := newTaskQueue()
	q.Close()
	q.Close()

	assert.True(t, q.Drained())
}

func TestTaskQueue_Wait_Signals(t *testing.T) {
	q := newTaskQueue()

	go func() {
		time.Sleep(10 * time.Millisecond)
		q.Enqueue(func() {})
	}()

	select {
	case <-q.Wait():
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for signal")
	}
	assert.Equal(t, 1, q.Len())
}

func TestTaskQueue_Drained_NotUntilEmpty(t *testing.T) {
	q := newTaskQueue()
	q.Enqueue(func() {})
	q.Close()

	assert.False(t, q.Drained(), "closed queue with work is not drained")
	_, ok := q.TryDequeue()
	require.True(t, ok)
	assert.True(t, q.Drained())
}
