// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"strings"

	"github.com/katalvlaran/lazymat/portion"
	"github.com/katalvlaran/lazymat/scalar"
	"github.com/spf13/pflag"
)

// typeValue is a pflag.Value for an element type.
type typeValue struct{ t *scalar.Type }

var _ pflag.Value = typeValue{}

func (v typeValue) String() string { return v.t.String() }
func (v typeValue) Type() string   { return "type" }

func (v typeValue) Set(s string) error {
	for _, t := range []scalar.Type{scalar.Int64, scalar.Float32, scalar.Float64} {
		if strings.EqualFold(s, t.String()) {
			*v.t = t
			return nil
		}
	}
	return fmt.Errorf("unknown element type %q (int64, float32, float64)", s)
}

// layoutValue is a pflag.Value for a storage layout.
type layoutValue struct{ l *portion.Layout }

var _ pflag.Value = layoutValue{}

func (v layoutValue) String() string { return v.l.String() }
func (v layoutValue) Type() string   { return "layout" }

func (v layoutValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "row", "row-major":
		*v.l = portion.RowMajor
	case "col", "col-major":
		*v.l = portion.ColMajor
	default:
		return fmt.Errorf("unknown layout %q (row, col)", s)
	}
	return nil
}

// gridValue is a pflag.Value for an RxC block grid.
type gridValue struct{ r, c *int }

var _ pflag.Value = gridValue{}

func (v gridValue) String() string { return fmt.Sprintf("%dx%d", *v.r, *v.c) }
func (v gridValue) Type() string   { return "grid" }

func (v gridValue) Set(s string) error {
	var r, c int
	if _, err := fmt.Sscanf(s, "%dx%d", &r, &c); err != nil || r <= 0 || c <= 0 {
		return fmt.Errorf("grid %q: want RxC with R, C > 0", s)
	}
	*v.r, *v.c = r, c
	return nil
}
