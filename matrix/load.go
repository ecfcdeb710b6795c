// SPDX-License-Identifier: MIT

package matrix

import (
	"context"

	"github.com/katalvlaran/lazymat/portion"
	"golang.org/x/sync/errgroup"
)

// Load copies any matrix into memory, fetching its portions concurrently
// (at most IO depth at a time). An in-memory dense matrix is returned as is.
// The result keeps m's layout unless WithLayout overrides it.
func Load(ctx context.Context, m Matrix, opts ...Option) (*Mem, error) {
	if m == nil {
		return nil, matrixErrorf("Load", ErrNilMatrix)
	}
	if mem, ok := m.(*Mem); ok {
		return mem, nil
	}
	layout := m.Layout()
	if !layout.Valid() {
		layout = DefaultLayout
	}
	opts = append([]Option{WithLayout(layout), WithName("load(" + m.Name() + ")")}, opts...)
	res, err := NewMem(m.Rows(), m.Cols(), m.Type(), opts...)
	if err != nil {
		return nil, err
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(gatherOptions(opts...).ioDepth)
	for _, a := range PortionAreas(m) {
		g.Go(func() error { return loadPortion(gctx, m, res, a) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

func loadPortion(ctx context.Context, m Matrix, dst *Mem, a portion.Area) error {
	w, err := m.GetPortion(ctx, a)
	if err != nil {
		return err
	}
	if err := w.Materialize(ctx); err != nil {
		return err
	}
	out, err := dst.Window(a)
	if err != nil {
		return err
	}
	out.CopyFrom(w)
	return nil
}
