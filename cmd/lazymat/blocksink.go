// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"time"

	"github.com/katalvlaran/lazymat/engine"
	"github.com/katalvlaran/lazymat/matrix"
	"github.com/spf13/cobra"
)

func newBlockSinkCmd(g *globals) *cobra.Command {
	pf := &productFlags{}
	br, bc := 2, 2
	var group bool
	cmd := &cobra.Command{
		Use:   "blocksink",
		Short: "Multiply row blocks of A by column blocks of B as one block grid",
		Long: "Splits a rows x long left operand into R row blocks and a long x cols\n" +
			"right operand into C column blocks, builds one product per pair and\n" +
			"stitches the grid. With --group all tiles share one pass over the long\n" +
			"dimension.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := pf.validate(); err != nil {
				return err
			}
			if br > pf.rows || bc > pf.cols {
				return fmt.Errorf("--grid %dx%d larger than %dx%d result", br, bc, pf.rows, pf.cols)
			}

			// 1) One operand per block row and block column.
			var lefts, rights []matrix.Matrix
			for i := range br {
				m, cleanup, err := build(g.seed+uint64(i), split(pf.rows, br, i), pf.long, pf.typ, pf.portionLen, pf.left)
				if err != nil {
					return err
				}
				defer cleanup()
				lefts = append(lefts, m)
			}
			for j := range bc {
				m, cleanup, err := build(g.seed+uint64(br+j), pf.long, split(pf.cols, bc, j), pf.typ, pf.portionLen, pf.right)
				if err != nil {
					return err
				}
				defer cleanup()
				rights = append(rights, m)
			}

			// 2) Tiles in row-major grid order.
			opts := pf.engineOptions(g)
			if group {
				opts = append(opts, engine.WithGroupMaterialize())
			}
			tiles := make([]*engine.Sink, 0, br*bc)
			for _, l := range lefts {
				for _, r := range rights {
					tiles = append(tiles, engine.NewMultiply(l, r, opts...))
				}
			}
			bs := engine.NewBlockSink(br, bc, tiles, opts...)

			// 3) Materialize and report.
			start := time.Now()
			res, err := bs.Materialize(cmd.Context())
			if err != nil {
				return err
			}
			took := time.Since(start)
			fmt.Fprintf(cmd.OutOrStdout(), "%s grid %dx%d group=%v deps=%d\n", bs.Name(), br, bc, group, len(bs.Underlying()))
			pf.check = false
			return report(cmd, pf, bs.Name(), nil, nil, res, took)
		},
	}
	pf.register(cmd.Flags())
	cmd.Flags().Var(gridValue{&br, &bc}, "grid", "block grid RxC")
	cmd.Flags().BoolVar(&group, "group", false, "materialize all tiles in one pass")
	return cmd
}

// split returns the size of block i when n is cut into k near-equal blocks.
func split(n, k, i int) int {
	return n/k + min(1, max(0, n%k-i))
}
