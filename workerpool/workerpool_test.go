// SPDX-License-Identifier: MIT

package workerpool_test

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/katalvlaran/lazymat/workerpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	pool := workerpool.New(0)
	defer pool.Close()
	require.Equal(t, runtime.GOMAXPROCS(0), pool.NumWorkers())
	require.Equal(t, 1, pool.NumNodes())
}

func TestSlot_OutsidePool(t *testing.T) {
	t.Parallel()
	require.Equal(t, workerpool.NoSlot, workerpool.Slot(context.Background()))
	require.Equal(t, 3, workerpool.Slot(workerpool.WithSlot(context.Background(), 3)))
}

func TestParallelFor_EveryIndexOnceWithValidSlot(t *testing.T) {
	t.Parallel()

	pool := workerpool.New(4)
	defer pool.Close()

	const n = 200
	var hits [n]atomic.Int32
	var badSlot atomic.Bool
	err := pool.ParallelFor(context.Background(), n, func(ctx context.Context, i int) error {
		s := workerpool.Slot(ctx)
		if s < 0 || s >= pool.NumWorkers() {
			badSlot.Store(true)
		}
		hits[i].Add(1)
		return nil
	})
	require.NoError(t, err)
	require.False(t, badSlot.Load())
	for i := range hits {
		require.Equal(t, int32(1), hits[i].Load(), "index %d", i)
	}
}

func TestParallelFor_SlotsAreExclusive(t *testing.T) {
	t.Parallel()

	pool := workerpool.New(4)
	defer pool.Close()

	busy := make([]atomic.Bool, pool.NumWorkers())
	var clash atomic.Bool
	err := pool.ParallelFor(context.Background(), 500, func(ctx context.Context, i int) error {
		s := workerpool.Slot(ctx)
		if !busy[s].CompareAndSwap(false, true) {
			clash.Store(true)
		}
		runtime.Gosched()
		busy[s].Store(false)
		return nil
	})
	require.NoError(t, err)
	require.False(t, clash.Load())
}

func TestParallelFor_FirstErrorStopsScheduling(t *testing.T) {
	t.Parallel()

	pool := workerpool.New(2)
	defer pool.Close()

	boom := errors.New("boom")
	var calls atomic.Int32
	err := pool.ParallelFor(context.Background(), 10_000, func(ctx context.Context, i int) error {
		calls.Add(1)
		if i == 0 {
			return boom
		}
		return nil
	})
	require.ErrorIs(t, err, boom)
	assert.Less(t, calls.Load(), int32(10_000))
}

func TestParallelFor_CanceledContext(t *testing.T) {
	t.Parallel()

	pool := workerpool.New(2)
	defer pool.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var calls atomic.Int32
	err := pool.ParallelFor(ctx, 10, func(context.Context, int) error {
		calls.Add(1)
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, calls.Load())
}

func TestParallelForAffinity_CoversAllIndices(t *testing.T) {
	t.Parallel()

	pool := workerpool.New(4, workerpool.WithNumNodes(2))
	defer pool.Close()
	require.Equal(t, 1, pool.NodeOf(3))
	require.Equal(t, -1, pool.NodeOf(workerpool.NoSlot))

	const n = 64
	var mu sync.Mutex
	ran := make(map[int]int)
	err := pool.ParallelForAffinity(context.Background(), n,
		func(i int) int { return i % 2 },
		func(ctx context.Context, i int) error {
			mu.Lock()
			ran[i] = pool.NodeOf(workerpool.Slot(ctx))
			mu.Unlock()
			return nil
		})
	require.NoError(t, err)
	require.Len(t, ran, n)
}

func TestClosedPool_RunsSequentiallyOnSlotZero(t *testing.T) {
	t.Parallel()

	pool := workerpool.New(3)
	pool.Close()
	pool.Close()

	var slots []int
	err := pool.ParallelFor(context.Background(), 3, func(ctx context.Context, i int) error {
		slots = append(slots, workerpool.Slot(ctx))
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []int{0, 0, 0}, slots)

	var wg sync.WaitGroup
	ran := false
	pool.Submit(context.Background(), &wg, func(ctx context.Context) { ran = workerpool.Slot(ctx) == 0 })
	wg.Wait()
	require.True(t, ran)
}

func TestSubmit_RunsOnWorker(t *testing.T) {
	t.Parallel()

	pool := workerpool.New(2)
	defer pool.Close()

	var wg sync.WaitGroup
	var count atomic.Int32
	for range 50 {
		pool.Submit(context.Background(), &wg, func(ctx context.Context) {
			if workerpool.Slot(ctx) != workerpool.NoSlot {
				count.Add(1)
			}
		})
	}
	wg.Wait()
	require.Equal(t, int32(50), count.Load())
}

func TestOptions_PanicOnNonsense(t *testing.T) {
	t.Parallel()
	require.Panics(t, func() { workerpool.WithNumNodes(0) })
	require.Panics(t, func() { workerpool.WithLogger(nil) })
}

func TestWithPinning_PoolStillRuns(t *testing.T) {
	t.Parallel()

	pool := workerpool.New(2, workerpool.WithPinning())
	defer pool.Close()

	var sum atomic.Int64
	require.NoError(t, pool.ParallelFor(context.Background(), 10, func(_ context.Context, i int) error {
		sum.Add(int64(i))
		return nil
	}))
	require.Equal(t, int64(45), sum.Load())
}
