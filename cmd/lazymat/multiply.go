// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"time"

	"github.com/katalvlaran/lazymat/engine"
	"github.com/katalvlaran/lazymat/matrix"
	"github.com/katalvlaran/lazymat/portion"
	"github.com/katalvlaran/lazymat/scalar"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// productFlags are shared by the product subcommands.
type productFlags struct {
	rows, long, cols int
	typ              scalar.Type
	left, right      operandFlags
	portionLen       int
	chunk            int
	fold             int
	check            bool
}

func (pf *productFlags) register(fs *pflag.FlagSet) {
	pf.typ = scalar.Float64
	pf.left.layout, pf.right.layout = portion.RowMajor, portion.RowMajor
	pf.left.density, pf.right.density = 1, 1

	fs.IntVar(&pf.rows, "rows", 32, "rows of the left operand")
	fs.IntVar(&pf.long, "long", 100000, "shared (long) dimension")
	fs.IntVar(&pf.cols, "cols", 16, "columns of the right operand")
	fs.Var(typeValue{&pf.typ}, "type", "element type: int64, float32, float64")
	fs.Var(layoutValue{&pf.left.layout}, "left-layout", "left operand layout: row, col")
	fs.Var(layoutValue{&pf.right.layout}, "right-layout", "right operand layout: row, col")
	fs.Float64Var(&pf.right.density, "sparse", 1, "density of a sparse right operand (1 = dense)")
	fs.BoolVar(&pf.left.file, "file", false, "serve the left operand from a file")
	fs.IntVar(&pf.portionLen, "portion-len", matrix.DefaultPortionLen, "portion length along the long dimension")
	fs.IntVar(&pf.chunk, "chunk", engine.DefaultChunkSize, "elements per product chunk")
	fs.IntVar(&pf.fold, "fold", 0, "sparse chunks per fold (0 = derived from --chunk)")
	fs.BoolVar(&pf.check, "check", false, "compare with a float64 reference product")
}

func (pf *productFlags) validate() error {
	if pf.rows <= 0 || pf.long <= 0 || pf.cols <= 0 {
		return fmt.Errorf("dimensions %dx%dx%d: must be > 0", pf.rows, pf.long, pf.cols)
	}
	if pf.right.density <= 0 || pf.right.density > 1 {
		return fmt.Errorf("--sparse %g: want (0, 1]", pf.right.density)
	}
	if pf.portionLen <= 0 || pf.chunk <= 0 || pf.fold < 0 {
		return fmt.Errorf("--portion-len, --chunk must be > 0 and --fold >= 0")
	}
	return nil
}

func (pf *productFlags) engineOptions(g *globals) []engine.Option {
	opts := []engine.Option{engine.WithPool(g.pool), engine.WithLogger(g.log), engine.WithChunkSize(pf.chunk)}
	if pf.fold > 0 {
		opts = append(opts, engine.WithSparseFoldThreshold(pf.fold))
	}
	return opts
}

// operands builds left (rows x long) and right (long x cols).
func (pf *productFlags) operands(g *globals) (left, right matrix.Matrix, cleanup func(), err error) {
	left, cl, err := build(g.seed, pf.rows, pf.long, pf.typ, pf.portionLen, pf.left)
	if err != nil {
		return nil, nil, nil, err
	}
	right, cr, err := build(g.seed+1, pf.long, pf.cols, pf.typ, pf.portionLen, pf.right)
	if err != nil {
		cl()
		return nil, nil, nil, err
	}
	return left, right, func() { cl(); cr() }, nil
}

// report prints the summary of a materialized product.
func report(cmd *cobra.Command, pf *productFlags, name string, left, right matrix.Matrix, res *matrix.Mem, took time.Duration) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n  result   %dx%d %v %v\n  time     %v\n  checksum %.6g\n",
		name, res.Rows(), res.Cols(), res.Type(), res.Layout(), took, checksum(res))
	if !pf.check {
		return nil
	}
	diff, err := maxAbsDiff(cmd.Context(), left, right, res)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "  max |err| %.3g\n", diff)
	return nil
}

func newMultiplyCmd(g *globals) *cobra.Command {
	pf := &productFlags{}
	cmd := &cobra.Command{
		Use:   "multiply",
		Short: "Multiply a wide left operand by a tall right operand",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := pf.validate(); err != nil {
				return err
			}
			// 1) Generate operands.
			left, right, cleanup, err := pf.operands(g)
			if err != nil {
				return err
			}
			defer cleanup()

			// 2) Build the lazy product and materialize it.
			s := engine.NewMultiply(left, right, pf.engineOptions(g)...)
			start := time.Now()
			res, err := s.Materialize(cmd.Context())
			if err != nil {
				return err
			}

			// 3) Report.
			return report(cmd, pf, s.Name(), left, right, res, time.Since(start))
		},
	}
	pf.register(cmd.Flags())
	return cmd
}

func newInnerCmd(g *globals) *cobra.Command {
	pf := &productFlags{}
	var leftName, rightName string
	cmd := &cobra.Command{
		Use:   "inner",
		Short: "Generalized inner product with named operators",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := pf.validate(); err != nil {
				return err
			}
			reg := scalar.NewRegistry()
			leftOp, err := reg.Lookup(leftName, pf.typ)
			if err != nil {
				return err
			}
			rightOp, err := reg.Lookup(rightName, leftOp.OutputType())
			if err != nil {
				return err
			}
			left, right, cleanup, err := pf.operands(g)
			if err != nil {
				return err
			}
			defer cleanup()

			s := engine.NewInnerProduct(left, right, leftOp, rightOp, pf.engineOptions(g)...)
			start := time.Now()
			res, err := s.Materialize(cmd.Context())
			if err != nil {
				return err
			}
			pf.check = pf.check && leftName == "mul" && rightName == "add"
			return report(cmd, pf, s.Name(), left, right, res, time.Since(start))
		},
	}
	pf.register(cmd.Flags())
	cmd.Flags().StringVar(&leftName, "left-op", "mul", "element-wise operator (add, sub, mul, max, min)")
	cmd.Flags().StringVar(&rightName, "right-op", "add", "reduce operator (add, mul, max, min)")
	return cmd
}
