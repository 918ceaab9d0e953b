package fixture

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBarrier_EmptyRunFiresOnSeal(t *testing.T) {
	var fired atomic.Int32
	b := NewBarrier()
	b.Reset(func(err error) {
		assert.NoError(t, err)
		fired.Add(1)
	})

	assert.Equal(t, 1, b.Pending())
	b.Seal()

	assert.Equal(t, int32(1), fired.Load())
	assert.Equal(t, 0, b.Pending())
}

func TestBarrier_SynchronousCompletionsDoNotFireBeforeSeal(t *testing.T) {
	var fired atomic.Int32
	b := NewBarrier()
	b.Reset(func(error) { fired.Add(1) })

	for i := 0; i < 3; i++ {
		b.Add()
		b.Done()
	}
	assert.Equal(t, int32(0), fired.Load(), "must not fire while dispatch is in progress")

	b.Seal()
	assert.Equal(t, int32(1), fired.Load())
}

func TestBarrier_FiresOnceUnderSpuriousChecks(t *testing.T) {
	var fired atomic.Int32
	b := NewBarrier()
	b.Reset(func(error) { fired.Add(1) })

	b.Add()
	b.Seal()
	b.Done()
	b.Done()
	b.Seal()
	b.Fail(errors.New("late"))

	assert.Equal(t, int32(1), fired.Load())
	assert.True(t, b.Fired())
}

func TestBarrier_FailFiresImmediately(t *testing.T) {
	var got error
	b := NewBarrier()
	b.Reset(func(err error) { got = err })

	b.Add()
	b.Add()
	boom := errors.New("boom")
	b.Fail(boom)
	require.ErrorIs(t, got, boom)

	// Remaining completions are ignored.
	b.Done()
	b.Seal()
	b.Done()
	require.ErrorIs(t, got, boom)
}

func TestBarrier_ResetStartsNewRun(t *testing.T) {
	var first, second atomic.Int32
	b := NewBarrier()
	b.Reset(func(error) { first.Add(1) })
	b.Seal()
	require.False(t, b.Ready())

	b.Reset(func(error) { second.Add(1) })
	require.True(t, b.Ready())
	assert.Equal(t, 1, b.Pending())
	b.Seal()

	assert.Equal(t, int32(1), first.Load())
	assert.Equal(t, int32(1), second.Load())
}

func TestBarrier_ConcurrentCompletions(t *testing.T) {
	const n = 200
	var fired atomic.Int32
	b := NewBarrier()
	b.Reset(func(error) { fired.Add(1) })

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		b.Add()
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Done()
		}()
	}
	b.Seal()
	wg.Wait()

	assert.Equal(t, int32(1), fired.Load())
	assert.Equal(t, 0, b.Pending())
}

func TestBarrier_NilCallback(t *testing.T) {
	b := NewBarrier()
	b.Seal()
	assert.True(t, b.Fired())
}

func TestBarrier_StaleRunIsIgnored(t *testing.T) {
	var first, second atomic.Int32
	b := NewBarrier()
	run1 := b.Reset(func(error) { first.Add(1) })
	b.Add()
	b.Add()
	b.Seal()
	b.Abort(run1, errors.New("boom"))
	require.Equal(t, int32(1), first.Load())

	run2 := b.Reset(func(error) { second.Add(1) })
	require.NotEqual(t, run1, run2)
	b.Add()
	b.Seal()

	committed := false
	assert.False(t, b.Complete(run1, func() { committed = true }))
	b.Abort(run1, errors.New("late"))
	assert.False(t, committed, "stale completion must not commit")
	assert.Equal(t, int32(0), second.Load())
	assert.Equal(t, 1, b.Pending())

	assert.True(t, b.Complete(run2, func() { committed = true }))
	assert.True(t, committed)
	assert.Equal(t, int32(1), second.Load())
	assert.Equal(t, int32(1), first.Load())
}

func TestBarrier_CompleteAfterFailDoesNotCommit(t *testing.T) {
	b := NewBarrier()
	run := b.Reset(nil)
	b.Add()
	b.Add()
	b.Seal()
	b.Abort(run, errors.New("boom"))

	committed := false
	assert.False(t, b.Complete(run, func() { committed = true }))
	assert.False(t, committed)
}
