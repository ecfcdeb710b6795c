// SPDX-License-Identifier: MIT

package engine_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/katalvlaran/lazymat/engine"
	"github.com/stretchr/testify/require"
)

func TestCoordinator_FiresOnceWithFirstError(t *testing.T) {
	t.Parallel()

	var fired atomic.Int32
	var got error
	errA, errB := errors.New("a"), errors.New("b")
	c := engine.NewCoordinator(0, func(err error) {
		fired.Add(1)
		got = err
	})

	// Two completions before the count is known.
	c.Done(nil)
	c.Done(errA)
	require.False(t, c.Fired())

	c.SetExpected(3)
	require.False(t, c.Fired())
	require.False(t, c.Released())

	c.Done(errB)
	require.True(t, c.Fired())
	require.True(t, c.Released())
	require.EqualValues(t, 1, fired.Load())
	require.ErrorIs(t, got, errA)

	// Extra completions are ignored.
	c.Done(nil)
	require.EqualValues(t, 1, fired.Load())
}

func TestCoordinator_SetExpectedAfterAllCompleted(t *testing.T) {
	t.Parallel()

	var fired atomic.Int32
	c := engine.NewCoordinator(0, func(err error) {
		require.NoError(t, err)
		fired.Add(1)
	})
	c.Done(nil)
	c.Done(nil)
	c.SetExpected(2)
	require.EqualValues(t, 1, fired.Load())
}

func TestCoordinator_ConcurrentCompletions(t *testing.T) {
	t.Parallel()

	const n = 64
	var fired atomic.Int32
	c := engine.NewCoordinator(n, func(error) { fired.Add(1) })

	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Done(nil)
		}()
	}
	wg.Wait()
	require.EqualValues(t, 1, fired.Load())
}

func TestCoordinator_ThreeFetchesAnyOrder(t *testing.T) {
	t.Parallel()

	errs := []error{nil, errors.New("fetch 1"), nil}
	orders := [][]int{{0, 1, 2}, {2, 1, 0}, {1, 2, 0}, {2, 0, 1}}
	for _, order := range orders {
		var fired atomic.Int32
		var got error
		c := engine.NewCoordinator(3, func(err error) {
			fired.Add(1)
			got = err
		})
		for n, i := range order {
			require.Zero(t, fired.Load(), "fired after %d of 3 completions", n)
			c.Done(errs[i])
		}
		require.EqualValues(t, 1, fired.Load())
		require.ErrorIs(t, got, errs[1])
		require.True(t, c.Released())
	}
}
