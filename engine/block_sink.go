// SPDX-License-Identifier: MIT
// Package: engine
//
// Purpose:
//   - BlockSink is an R x C grid of sinks forming one matrix: tile (i, j)
//     covers the rows of block row i and the columns of block column j.
//
// Contract:
//   - Tiles in a block row share their row count, tiles in a block column
//     share their column count, and all tiles share the element type;
//     NewBlockSink panics with ErrBadTiling otherwise.
//   - Materialize materializes the tiles (one at a time, or in one pass
//     with WithGroupMaterialize) and stitches them into one result.

package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/katalvlaran/lazymat/matrix"
	"github.com/katalvlaran/lazymat/portion"
	"github.com/katalvlaran/lazymat/scalar"
	"github.com/samber/lo"
)

// BlockSink is a grid of product tiles.
type BlockSink struct {
	id      matrix.ID
	name    string
	br, bc  int
	tiles   []*Sink // row-major: tile (i, j) at i*bc + j
	heights []int
	widths  []int
	opts    Options
	user    []Option

	mu     sync.Mutex
	result *matrix.Mem
}

var _ matrix.Matrix = (*BlockSink)(nil)

// NewBlockSink builds a blockRows x blockCols grid from tiles in row-major
// order. Panics with ErrBadTiling on an inconsistent grid.
func NewBlockSink(blockRows, blockCols int, tiles []*Sink, opts ...Option) *BlockSink {
	if blockRows <= 0 || blockCols <= 0 || len(tiles) != blockRows*blockCols {
		panic(engineErrorf(fmt.Sprintf("NewBlockSink %dx%d with %d tiles", blockRows, blockCols, len(tiles)), ErrBadTiling))
	}
	if lo.Contains(tiles, nil) {
		panic(engineErrorf("NewBlockSink", matrix.ErrNilMatrix))
	}
	heights := make([]int, blockRows)
	widths := make([]int, blockCols)
	for i := range blockRows {
		heights[i] = tiles[i*blockCols].Rows()
	}
	for j := range blockCols {
		widths[j] = tiles[j].Cols()
	}
	t := tiles[0].Type()
	for i := range blockRows {
		for j := range blockCols {
			tl := tiles[i*blockCols+j]
			if tl.Rows() != heights[i] || tl.Cols() != widths[j] || tl.Type() != t {
				panic(engineErrorf(fmt.Sprintf("NewBlockSink tile (%d,%d) %dx%d %v", i, j, tl.Rows(), tl.Cols(), tl.Type()), ErrBadTiling))
			}
		}
	}
	o := gatherOptions(opts...)
	b := &BlockSink{
		id:      matrix.NewID(),
		name:    o.name,
		br:      blockRows,
		bc:      blockCols,
		tiles:   tiles,
		heights: heights,
		widths:  widths,
		opts:    o,
		user:    opts,
	}
	if b.name == "" {
		b.name = fmt.Sprintf("block%d", b.id)
	}
	return b
}

// Tile returns tile (i, j).
func (b *BlockSink) Tile(i, j int) *Sink { return b.tiles[i*b.bc+j] }

// Grid returns the number of block rows and columns.
func (b *BlockSink) Grid() (rows, cols int) { return b.br, b.bc }

func (b *BlockSink) ID() matrix.ID     { return b.id }
func (b *BlockSink) Name() string      { return b.name }
func (b *BlockSink) Rows() int         { return lo.Sum(b.heights) }
func (b *BlockSink) Cols() int         { return lo.Sum(b.widths) }
func (b *BlockSink) Type() scalar.Type { return b.tiles[0].Type() }

// Layout implements matrix.Matrix: the first tile's layout.
func (b *BlockSink) Layout() portion.Layout { return b.tiles[0].Layout() }

// InMem implements matrix.Matrix.
func (b *BlockSink) InMem() bool { return true }

// Node implements matrix.Matrix.
func (b *BlockSink) Node() int { return -1 }

// IsSparse implements matrix.Matrix.
func (b *BlockSink) IsSparse() bool { return false }

// PortionSize implements matrix.Matrix.
func (b *BlockSink) PortionSize() (int, int) {
	rows, cols := b.Rows(), b.Cols()
	if rows >= cols {
		return min(matrix.DefaultPortionLen, rows), cols
	}
	return rows, min(matrix.DefaultPortionLen, cols)
}

// GetPortion implements matrix.Matrix; it materializes the grid first.
func (b *BlockSink) GetPortion(ctx context.Context, a portion.Area) (portion.Window, error) {
	res, err := b.Materialize(ctx)
	if err != nil {
		return nil, err
	}
	return res.GetPortion(ctx, a)
}

// GetPortionAsync implements matrix.Matrix.
func (b *BlockSink) GetPortionAsync(ctx context.Context, a portion.Area, _ func(error)) (bool, portion.Window, error) {
	w, err := b.GetPortion(ctx, a)
	return err == nil, w, err
}

// Underlying implements matrix.Matrix: the union over all tiles.
func (b *BlockSink) Underlying() matrix.Deps {
	deps := lo.Map(b.tiles, func(t *Sink, _ int) matrix.Deps { return t.Underlying() })
	return matrix.Deps{}.Merge(deps...)
}

// Transpose implements matrix.Matrix. Before materialization the grid is
// transposed tile by tile.
func (b *BlockSink) Transpose() matrix.Matrix {
	b.mu.Lock()
	res := b.result
	b.mu.Unlock()
	if res != nil {
		return res.T()
	}
	tiles := make([]*Sink, 0, len(b.tiles))
	for j := range b.bc {
		for i := range b.br {
			tiles = append(tiles, b.Tile(i, j).transposed())
		}
	}
	return NewBlockSink(b.bc, b.br, tiles, append(append([]Option(nil), b.user...), WithName("t("+b.name+")"))...)
}

// HasMaterialized reports whether every tile has materialized data.
func (b *BlockSink) HasMaterialized() bool {
	return lo.EveryBy(b.tiles, (*Sink).HasMaterialized)
}

// Result returns the stitched matrix, nil before Materialize.
func (b *BlockSink) Result() *matrix.Mem {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.result
}

// ComputeMatrices returns the compute matrices of the tiles still pending.
func (b *BlockSink) ComputeMatrices() []*ComputeMatrix {
	return lo.FlatMap(b.tiles, func(t *Sink, _ int) []*ComputeMatrix { return t.ComputeMatrices() })
}

// Materialize computes every tile and stitches the result, once.
func (b *BlockSink) Materialize(ctx context.Context) (*matrix.Mem, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.result != nil {
		return b.result, nil
	}
	start := time.Now()
	if b.opts.group {
		if err := MaterializeTogether(ctx, b.tiles...); err != nil {
			return nil, err
		}
	} else {
		for _, t := range b.tiles {
			if _, err := t.Materialize(ctx); err != nil {
				return nil, err
			}
		}
	}
	res, err := b.stitch()
	if err != nil {
		return nil, err
	}
	b.result = res
	b.opts.logger.Debug("engine: block sink materialized",
		"name", b.name,
		"grid", fmt.Sprintf("%dx%d", b.br, b.bc),
		"group", b.opts.group,
		"duration", time.Since(start))
	return res, nil
}

// stitch copies the tile results into one matrix.
func (b *BlockSink) stitch() (*matrix.Mem, error) {
	layout := b.Layout()
	if b.opts.outLayout.Valid() {
		layout = b.opts.outLayout
	}
	res, err := matrix.NewMem(b.Rows(), b.Cols(), b.Type(), matrix.WithLayout(layout), matrix.WithName(b.name))
	if err != nil {
		return nil, err
	}
	row := 0
	for i := range b.br {
		col := 0
		for j := range b.bc {
			a := portion.Area{Row: row, Col: col, Rows: b.heights[i], Cols: b.widths[j]}
			dst, err := res.Window(a)
			if err != nil {
				return nil, err
			}
			dst.CopyFrom(b.Tile(i, j).Result().Buf())
			col += b.widths[j]
		}
		row += b.heights[i]
	}
	return res, nil
}

func (b *BlockSink) prepare(ctx context.Context) error {
	_, err := b.Materialize(ctx)
	return err
}
