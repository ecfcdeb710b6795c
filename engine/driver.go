// SPDX-License-Identifier: MIT
// Package: engine
//
// Purpose:
//   - Drive a sequence of lazy portions to materialization on the pool.
//
// Algorithm:
//   - Stage 1 (Schedule): ParallelForAffinity hands out portion indices,
//     preferring workers on the portion's NUMA node.
//   - Stage 2 (Fetch): each task fetches its portion asynchronously. An
//     available portion is materialized inline on the worker. A pending one
//     is materialized by a task submitted to the pool from the completion
//     callback, so it still runs with a worker slot.
//   - Stage 3 (Barrier): wait for every submitted task; return the first
//     error of any stage.
//
// Notes:
//   - On a closed pool fetches are synchronous: completion callbacks would
//     otherwise run on slot 0 concurrently with the caller.

package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/katalvlaran/lazymat/portion"
	"github.com/katalvlaran/lazymat/workerpool"
)

// fetchFunc fetches portion i; see ComputeMatrix.GetPortionAsync.
type fetchFunc func(ctx context.Context, i int, done func(*portion.Lazy, error)) (bool, *portion.Lazy, error)

// errOnce keeps the first non-nil error.
type errOnce struct {
	mu  sync.Mutex
	err error
}

func (e *errOnce) set(err error) {
	if err == nil {
		return
	}
	e.mu.Lock()
	if e.err == nil {
		e.err = err
	}
	e.mu.Unlock()
}

func (e *errOnce) get() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// drive materializes portions [0, n) of fetch on pool.
func drive(ctx context.Context, pool *workerpool.Pool, n int, nodeOf func(int) int, fetch fetchFunc, log *slog.Logger) error {
	start := time.Now()
	var (
		wg      sync.WaitGroup
		failed  errOnce
		pending atomic.Int64
	)
	async := !pool.Closed()

	onFetched := func(lz *portion.Lazy, err error) {
		defer wg.Done()
		if err != nil {
			failed.set(err)
			return
		}
		pool.Submit(ctx, &wg, func(ctx context.Context) {
			failed.set(lz.Materialize(ctx))
		})
	}

	err := pool.ParallelForAffinity(ctx, n, nodeOf, func(ctx context.Context, i int) error {
		if !async {
			_, lz, err := fetch(ctx, i, nil)
			if err != nil {
				return err
			}
			return lz.Materialize(ctx)
		}
		wg.Add(1)
		ok, lz, err := fetch(ctx, i, onFetched)
		if err != nil {
			wg.Done()
			return err
		}
		if ok {
			wg.Done()
			return lz.Materialize(ctx)
		}
		pending.Add(1)
		return nil
	})
	wg.Wait()
	if err == nil {
		err = failed.get()
	}
	log.Debug("engine: drive done",
		"portions", n,
		"async", pending.Load(),
		"duration", time.Since(start),
		"err", err)
	return err
}
