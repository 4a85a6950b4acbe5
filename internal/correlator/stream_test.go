package correlator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rivecq/internal/command"
	"github.com/roach88/rivecq/internal/engine"
)

type subscription struct {
	subs   *issued
	unsubs *issued
}

func newSubscription() *subscription {
	return &subscription{subs: newIssued(), unsubs: newIssued()}
}

func subscribeNumbers(table *Streams, ids command.IDSource, s *subscription) *Stream[float32] {
	return Subscribe[float32](table, ids, s.subs.record, s.unsubs.record)
}

func TestStream_ValuesInOrder_CloseUnsubscribesOnce(t *testing.T) {
	e := newTestEngine(t)
	table := NewStreams(e)
	ids := command.NewRequestIDs()
	s := newSubscription()

	st := subscribeNumbers(table, ids, s)
	id := s.subs.next(t)

	on(t, e, func() {
		assert.True(t, table.Yield(id, float32(10)))
		assert.True(t, table.Yield(id, float32(7)))
		assert.True(t, table.Active(id), "yield keeps the registration")
	})

	ctx := context.Background()
	v, err := st.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, float32(10), v)
	v, err = st.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, float32(7), v)

	st.Close()
	st.Close()

	assert.Equal(t, id, s.unsubs.next(t), "unsubscribe reuses the subscribe id")
	on(t, e, func() { assert.Equal(t, 0, table.Len()) })
	s.unsubs.none(t)

	_, err = st.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestStream_MismatchFailsAndRemoves(t *testing.T) {
	e := newTestEngine(t)
	table := NewStreams(e)
	ids := command.NewRequestIDs()
	s := newSubscription()

	st := subscribeNumbers(table, ids, s)
	id := s.subs.next(t)

	on(t, e, func() {
		table.Yield(id, "not a number")
		assert.False(t, table.Active(id))
		assert.False(t, table.Yield(id, float32(1)), "no sink after failure")
	})

	_, err := st.Next(context.Background())
	var mm *TypeMismatchError
	require.ErrorAs(t, err, &mm)
	assert.Equal(t, "float32", mm.Expected)
	assert.Equal(t, "string", mm.Actual)

	assert.Equal(t, id, s.unsubs.next(t))
	st.Close()
	on(t, e, func() {})
	s.unsubs.none(t)
}

func TestStream_FinishWithError(t *testing.T) {
	e := newTestEngine(t)
	table := NewStreams(e)
	ids := command.NewRequestIDs()
	s := newSubscription()

	st := subscribeNumbers(table, ids, s)
	id := s.subs.next(t)

	boom := errors.New("missing data")
	on(t, e, func() {
		table.Yield(id, float32(1))
		assert.True(t, table.Finish(id, boom))
		assert.False(t, table.Finish(id, boom))
	})

	ctx := context.Background()
	v, err := st.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, float32(1), v)

	_, err = st.Next(ctx)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, st.Err(), boom)
	assert.Equal(t, id, s.unsubs.next(t))
}

func TestStream_FinishNormally(t *testing.T) {
	e := newTestEngine(t)
	table := NewStreams(e)
	s := newSubscription()

	st := subscribeNumbers(table, command.NewRequestIDs(), s)
	id := s.subs.next(t)
	on(t, e, func() { table.Finish(id, nil) })

	_, err := st.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestStream_UnmatchedYieldDropped(t *testing.T) {
	e := newTestEngine(t)
	table := NewStreams(e)

	on(t, e, func() {
		assert.False(t, table.Yield(5, float32(1)))
		assert.False(t, table.Finish(5, nil))
	})
}

func TestStream_ValuesIterator_BreakCloses(t *testing.T) {
	e := newTestEngine(t)
	table := NewStreams(e)
	s := newSubscription()

	st := subscribeNumbers(table, command.NewRequestIDs(), s)
	id := s.subs.next(t)
	on(t, e, func() {
		table.Yield(id, float32(1))
		table.Yield(id, float32(2))
		table.Yield(id, float32(3))
	})

	var got []float32
	for v, err := range st.Values(context.Background()) {
		require.NoError(t, err)
		got = append(got, v)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []float32{1, 2}, got)
	assert.Equal(t, id, s.unsubs.next(t))
}

func TestStream_TriggerUnitValues(t *testing.T) {
	e := newTestEngine(t)
	table := NewStreams(e)
	s := newSubscription()

	st := Subscribe[struct{}](table, command.NewRequestIDs(), s.subs.record, s.unsubs.record)
	id := s.subs.next(t)
	on(t, e, func() {
		table.Yield(id, struct{}{})
		table.Yield(id, struct{}{})
	})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := st.Next(ctx)
		require.NoError(t, err)
	}
	st.Close()
	_, err := st.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestStream_NextContextCancelled(t *testing.T) {
	e := newTestEngine(t)
	table := NewStreams(e)
	s := newSubscription()

	st := subscribeNumbers(table, command.NewRequestIDs(), s)
	defer st.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := st.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStream_IndependentSubscriptionsPerCall(t *testing.T) {
	e := newTestEngine(t)
	table := NewStreams(e)
	ids := command.NewRequestIDs()
	s := newSubscription()

	a := subscribeNumbers(table, ids, s)
	b := subscribeNumbers(table, ids, s)
	idA := s.subs.next(t)
	idB := s.subs.next(t)
	assert.NotEqual(t, idA, idB)

	a.Close()
	assert.Equal(t, idA, s.unsubs.next(t))
	on(t, e, func() { assert.True(t, table.Active(idB)) })
	b.Close()
	assert.Equal(t, idB, s.unsubs.next(t))
}

func TestStream_ExecutorStopped(t *testing.T) {
	e := newTestEngine(t)
	e.Stop()
	<-e.Done()

	st := subscribeNumbers(NewStreams(e), command.NewRequestIDs(), newSubscription())
	_, err := st.Next(context.Background())
	assert.ErrorIs(t, err, ErrStopped)
}

func TestStream_EndsWhenExecutorStops(t *testing.T) {
	e := engine.New()
	go func() { _ = e.Run(context.Background()) }()
	stopped := fmt.Errorf("worker stopped: %w", ErrStopped)
	table := NewStreams(e, WithStopped(stopped))
	s := newSubscription()

	st := subscribeNumbers(table, command.NewRequestIDs(), s)
	id := s.subs.next(t)
	require.NoError(t, e.Do(context.Background(), func() { table.Yield(id, float32(3)) }))

	e.Stop()
	<-e.Done()

	select {
	case <-st.Done():
	case <-timeout():
		t.Fatal("stream still open after executor stopped")
	}

	ctx := context.Background()
	v, err := st.Next(ctx)
	require.NoError(t, err, "buffered values are still delivered")
	assert.Equal(t, float32(3), v)

	_, err = st.Next(ctx)
	assert.Equal(t, stopped, err)
	assert.ErrorIs(t, err, ErrStopped)
}
