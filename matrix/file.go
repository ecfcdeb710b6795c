// SPDX-License-Identifier: MIT
// Package: matrix
//
// Purpose:
//   - FileBackend keeps one matrix in one file: raw little-endian elements
//     in the matrix layout, no header. It is the simplest Backend that
//     exercises asynchronous portion fetches.
//
// Concurrency:
//   - Reads use ReadAt and may run concurrently; a weighted semaphore bounds
//     them to the configured IO depth.
//   - Asynchronous fetches run on their own goroutine and report through done.

package matrix

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"

	"github.com/katalvlaran/lazymat/portion"
	"github.com/katalvlaran/lazymat/scalar"
	"golang.org/x/sync/semaphore"
)

// FileBackend serves portions from a file.
type FileBackend struct {
	f      *os.File
	rows   int
	cols   int
	typ    scalar.Type
	layout portion.Layout
	sem    *semaphore.Weighted
	log    *slog.Logger
}

// Compile-time conformance.
var _ Backend = (*FileBackend)(nil)

// OpenFile opens path as a rows x cols matrix of type t stored in the
// configured layout.
//
// Errors: ErrInvalidDimensions, ErrFileSize, os errors unchanged.
func OpenFile(path string, rows, cols int, t scalar.Type, opts ...Option) (*External, error) {
	if rows <= 0 || cols <= 0 {
		return nil, matrixErrorf(fmt.Sprintf("OpenFile(%d,%d)", rows, cols), ErrInvalidDimensions)
	}
	if !t.Valid() {
		return nil, matrixErrorf("OpenFile", scalar.ErrInvalidType)
	}
	o := gatherOptions(opts...)
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if want := int64(rows) * int64(cols) * int64(t.Size()); st.Size() != want {
		f.Close()
		return nil, matrixErrorf(fmt.Sprintf("OpenFile %s: %d bytes, want %d", path, st.Size(), want), ErrFileSize)
	}
	if err := adviseRandom(f); err != nil {
		o.logger.Debug("matrix: fadvise failed", "path", path, "err", err)
	}
	fb := &FileBackend{
		f:      f,
		rows:   rows,
		cols:   cols,
		typ:    t,
		layout: o.layout,
		sem:    semaphore.NewWeighted(int64(o.ioDepth)),
		log:    o.logger,
	}
	fb.log.Debug("matrix: file opened", "path", path, "rows", rows, "cols", cols, "type", t, "layout", o.layout)
	if o.name == "" {
		opts = append(opts, WithName(path))
	}
	return NewExternal(rows, cols, t, fb, opts...)
}

// Fetch implements Backend.
func (fb *FileBackend) Fetch(ctx context.Context, a portion.Area, done func(error)) (bool, portion.Window, error) {
	b := portion.NewBuf(fb.typ, a.Rows, a.Cols, fb.layout).Place(a.Row, a.Col, -1)
	if done == nil {
		if err := fb.read(ctx, a, b); err != nil {
			return false, nil, err
		}
		return true, b, nil
	}
	go func() {
		err := fb.read(ctx, a, b)
		if err != nil {
			fb.log.Debug("matrix: async read failed", "area", a, "err", err)
		}
		done(err)
	}()
	return false, b, nil
}

// read fills b with area a, one ReadAt per stored line (or one in total
// when a spans whole lines).
func (fb *FileBackend) read(ctx context.Context, a portion.Area, b *portion.Buf) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fb.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer fb.sem.Release(1)

	// Stored orientation: lines are rows (RowMajor) or columns (ColMajor).
	line0, nlines, off, width, ld := a.Row, a.Rows, a.Col, a.Cols, fb.cols
	if fb.layout == portion.ColMajor {
		line0, nlines, off, width, ld = a.Col, a.Cols, a.Row, a.Rows, fb.rows
	}
	size := fb.typ.Size()
	buf := make([]byte, a.Size()*size)
	if width == ld {
		if _, err := fb.f.ReadAt(buf, int64(line0*ld*size)); err != nil {
			return err
		}
	} else {
		for i := 0; i < nlines; i++ {
			seg := buf[i*width*size : (i+1)*width*size]
			if _, err := fb.f.ReadAt(seg, int64(((line0+i)*ld+off)*size)); err != nil {
				return err
			}
		}
	}
	raw, _ := b.Raw(fb.layout)
	return decodeInto(buf, raw.Data)
}

// Close closes the file.
func (fb *FileBackend) Close() error { return fb.f.Close() }

func decodeInto(b []byte, v scalar.Vec) error {
	var err error
	switch v.Type() {
	case scalar.Int64:
		_, err = binary.Decode(b, binary.LittleEndian, v.Int64s())
	case scalar.Float32:
		_, err = binary.Decode(b, binary.LittleEndian, v.Float32s())
	case scalar.Float64:
		_, err = binary.Decode(b, binary.LittleEndian, v.Float64s())
	}
	return err
}

// WriteFile stores m at path in m's layout, in the format OpenFile reads.
func WriteFile(path string, m *Mem) error {
	data, ok := m.buf.Contiguous()
	if !ok {
		data, _ = m.buf.Clone().Contiguous()
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	switch data.Type() {
	case scalar.Int64:
		err = binary.Write(w, binary.LittleEndian, data.Int64s())
	case scalar.Float32:
		err = binary.Write(w, binary.LittleEndian, data.Float32s())
	case scalar.Float64:
		err = binary.Write(w, binary.LittleEndian, data.Float64s())
	}
	if err == nil {
		err = w.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
