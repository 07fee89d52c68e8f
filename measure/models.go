// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package measure

import (
	"gonum.org/v1/gonum/mat"

	"github.com/cpmech/gosl/fun"

	"github.com/cpmech/gogbp/gbperr"
)

func init() {
	Register("difference", func() Model { return &Difference{} })
	Register("identity", func() Model { return &Identity{} })
	Register("linear", func() Model { return &Linear{} })
}

// Difference implements h(x) = x0 - x1, the two-variable relative
// measurement used by end-to-end scenarios 1 and 2 (spec §8).
type Difference struct{}

func (o *Difference) Dim() int { return 1 }

func (o *Difference) Predict(x []float64, args fun.Prms) ([]float64, error) {
	if len(x) != 2 {
		return nil, gbperr.New(gbperr.DimensionMismatch, "difference model expects 2 scalars, got %d", len(x))
	}
	return []float64{x[0] - x[1]}, nil
}

func (o *Difference) Jacobian(x []float64, args fun.Prms) (*mat.Dense, error) {
	if len(x) != 2 {
		return nil, gbperr.New(gbperr.DimensionMismatch, "difference model expects 2 scalars, got %d", len(x))
	}
	return mat.NewDense(1, 2, []float64{1, -1}), nil
}

// Identity implements h(x) = x, the unary prior/odometry-style factor on
// a dofs-sized block (scenario 3: a 6-D pose prior at the origin).
type Identity struct{}

func (o *Identity) Dim() int { return -1 } // dimension is that of x; see Jacobian

func (o *Identity) Predict(x []float64, args fun.Prms) ([]float64, error) {
	out := make([]float64, len(x))
	copy(out, x)
	return out, nil
}

func (o *Identity) Jacobian(x []float64, args fun.Prms) (*mat.Dense, error) {
	n := len(x)
	j := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		j.Set(i, i, 1)
	}
	return j, nil
}

// Linear implements the general affine model h(x) = A·x + b for a
// caller-supplied constant matrix, the vehicle for validating P2 (linear
// exactness) against arbitrary tree topologies. A and B are set via
// SetCoeffs before the model is used; fun.Prms is unused (nil-safe).
type Linear struct {
	A *mat.Dense
	B []float64
}

// SetCoeffs installs the affine coefficients; rows(A) must equal len(B).
func (o *Linear) SetCoeffs(a *mat.Dense, b []float64) error {
	r, _ := a.Dims()
	if r != len(b) {
		return gbperr.New(gbperr.DimensionMismatch, "A has %d rows but b has %d entries", r, len(b))
	}
	o.A, o.B = a, b
	return nil
}

func (o *Linear) Dim() int {
	if o.A == nil {
		return -1
	}
	r, _ := o.A.Dims()
	return r
}

func (o *Linear) Predict(x []float64, args fun.Prms) ([]float64, error) {
	_, c := o.A.Dims()
	if c != len(x) {
		return nil, gbperr.New(gbperr.DimensionMismatch, "A has %d cols but x has %d entries", c, len(x))
	}
	xv := mat.NewVecDense(len(x), x)
	yv := mat.NewVecDense(o.Dim(), nil)
	yv.MulVec(o.A, xv)
	out := make([]float64, o.Dim())
	for i := range out {
		out[i] = yv.AtVec(i) + o.B[i]
	}
	return out, nil
}

func (o *Linear) Jacobian(x []float64, args fun.Prms) (*mat.Dense, error) {
	return o.A, nil
}
