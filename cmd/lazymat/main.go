// SPDX-License-Identifier: MIT

// Command lazymat runs lazy matrix products on generated data and reports
// timing and checksums.
//
// Usage:
//
//	lazymat multiply --rows 64 --long 1000000 --cols 16 --type float32
//	lazymat multiply --sparse 0.01 --file
//	lazymat inner --left-op add --right-op min --type int64
//	lazymat blocksink --grid 2x3 --group
//
// Global flags pick the worker count, the number of NUMA nodes workers are
// spread over, thread pinning and debug logging.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/katalvlaran/lazymat/workerpool"
	"github.com/spf13/cobra"
)

// globals are the persistent flags shared by every subcommand.
type globals struct {
	verbose bool
	workers int
	nodes   int
	pin     bool
	seed    uint64

	log  *slog.Logger
	pool *workerpool.Pool
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "lazymat",
		Short:         "Lazy portion-based matrix products",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if g.nodes < 1 {
				return fmt.Errorf("--nodes %d: must be >= 1", g.nodes)
			}
			level := slog.LevelInfo
			if g.verbose {
				level = slog.LevelDebug
			}
			g.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			opts := []workerpool.Option{workerpool.WithLogger(g.log), workerpool.WithNumNodes(g.nodes)}
			if g.pin {
				opts = append(opts, workerpool.WithPinning())
			}
			g.pool = workerpool.New(g.workers, opts...)
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if g.pool != nil {
				g.pool.Close()
			}
		},
	}
	pf := root.PersistentFlags()
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "log engine internals at debug level")
	pf.IntVarP(&g.workers, "workers", "w", 0, "worker count (0 = GOMAXPROCS)")
	pf.IntVar(&g.nodes, "nodes", workerpool.DefaultNumNodes, "NUMA nodes to spread workers and portions over")
	pf.BoolVar(&g.pin, "pin", false, "pin workers to CPUs")
	pf.Uint64Var(&g.seed, "seed", 1, "random seed for generated operands")

	root.AddCommand(newMultiplyCmd(g), newInnerCmd(g), newBlockSinkCmd(g))
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "lazymat:", err)
		os.Exit(1)
	}
}
