// SPDX-License-Identifier: MIT

package matrix_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/katalvlaran/lazymat/matrix"
	"github.com/katalvlaran/lazymat/portion"
	"github.com/katalvlaran/lazymat/scalar"
	"github.com/stretchr/testify/suite"
)

// FileBackendSuite round-trips matrices through files and reads them back
// synchronously and asynchronously.
type FileBackendSuite struct {
	suite.Suite
	dir string
	ctx context.Context
}

func (s *FileBackendSuite) SetupTest() {
	s.dir = s.T().TempDir()
	s.ctx = context.Background()
}

func (s *FileBackendSuite) write(name string, m *matrix.Mem) string {
	path := filepath.Join(s.dir, name)
	s.Require().NoError(matrix.WriteFile(path, m))
	return path
}

func (s *FileBackendSuite) TestSyncRead_RowMajor() {
	m := mustSeq(s.T(), 7, 5)
	ext, err := matrix.OpenFile(s.write("a.bin", m), 7, 5, scalar.Float64, matrix.WithIODepth(2))
	s.Require().NoError(err)
	defer ext.Close()

	s.False(ext.InMem())
	w, err := ext.GetPortion(s.ctx, portion.Area{Row: 2, Col: 1, Rows: 3, Cols: 3})
	s.Require().NoError(err)
	requireWindowSeq(s.T(), w)

	w, err = ext.GetPortion(s.ctx, portion.Area{Row: 4, Rows: 3, Cols: 5})
	s.Require().NoError(err)
	requireWindowSeq(s.T(), w)
}

func (s *FileBackendSuite) TestAsyncRead_ColMajor() {
	m := mustSeq(s.T(), 6, 4, matrix.WithLayout(portion.ColMajor))
	ext, err := matrix.OpenFile(s.write("b.bin", m), 6, 4, scalar.Float64, matrix.WithLayout(portion.ColMajor))
	s.Require().NoError(err)
	defer ext.Close()

	done := make(chan error, 1)
	ok, w, err := ext.GetPortionAsync(s.ctx, portion.Area{Row: 1, Col: 2, Rows: 4, Cols: 2}, func(err error) { done <- err })
	s.Require().NoError(err)
	s.False(ok)
	s.Require().NoError(<-done)
	s.Equal(portion.ColMajor, w.Layout())
	requireWindowSeq(s.T(), w)
}

func (s *FileBackendSuite) TestTransposedExternal() {
	m := mustSeq(s.T(), 3, 4, matrix.WithLayout(portion.RowMajor))
	ext, err := matrix.OpenFile(s.write("c.bin", m), 3, 4, scalar.Float64)
	s.Require().NoError(err)
	defer ext.Close()

	tr := ext.Transpose()
	s.Equal(ext.ID(), tr.ID())
	s.Equal(4, tr.Rows())
	s.Equal(portion.ColMajor, tr.Layout())

	loaded, err := matrix.Load(s.ctx, tr)
	s.Require().NoError(err)
	s.Equal(m.T().Float64s(), loaded.Float64s())
}

func (s *FileBackendSuite) TestLoadMatchesSource() {
	for _, typ := range []scalar.Type{scalar.Int64, scalar.Float32, scalar.Float64} {
		src, err := matrix.NewMem(9, 3, typ, matrix.WithPortionLen(2))
		s.Require().NoError(err)
		for i := 0; i < 9; i++ {
			for j := 0; j < 3; j++ {
				s.Require().NoError(src.Set(i, j, float64(i*3-j)))
			}
		}
		ext, err := matrix.OpenFile(s.write(typ.String()+".bin", src), 9, 3, typ, matrix.WithPortionLen(2))
		s.Require().NoError(err)

		loaded, err := matrix.Load(s.ctx, ext)
		s.Require().NoError(err)
		s.Equal(typ, loaded.Type())
		s.Equal(src.Float64s(), loaded.Float64s(), typ.String())
		s.Require().NoError(ext.Close())
	}
}

func (s *FileBackendSuite) TestOpenFile_Errors() {
	path := filepath.Join(s.dir, "short.bin")
	s.Require().NoError(os.WriteFile(path, make([]byte, 10), 0o600))

	_, err := matrix.OpenFile(path, 2, 2, scalar.Float64)
	s.ErrorIs(err, matrix.ErrFileSize)

	_, err = matrix.OpenFile(filepath.Join(s.dir, "missing.bin"), 2, 2, scalar.Float64)
	s.ErrorIs(err, os.ErrNotExist)

	_, err = matrix.OpenFile(path, 0, 2, scalar.Float64)
	s.ErrorIs(err, matrix.ErrInvalidDimensions)
}

func (s *FileBackendSuite) TestCanceledContext() {
	m := mustSeq(s.T(), 2, 2)
	ext, err := matrix.OpenFile(s.write("d.bin", m), 2, 2, scalar.Float64)
	s.Require().NoError(err)
	defer ext.Close()

	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	_, err = ext.GetPortion(ctx, portion.Full(2, 2))
	s.ErrorIs(err, context.Canceled)
}

func TestFileBackendSuite(t *testing.T) {
	suite.Run(t, new(FileBackendSuite))
}
