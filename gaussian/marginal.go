// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gaussian

import (
	"gonum.org/v1/gonum/mat"

	"github.com/cpmech/gogbp/gbperr"
)

// MarginalizeTo returns the Schur-complement marginal of g onto the
// contiguous block [start, start+size): the canonical-form analogue of
// "keep these dofs, integrate out the rest."
//
//	Λ_msg = Λ_oo − Λ_on · Λ_nn⁻¹ · Λ_no
//	η_msg = η_o  − Λ_on · Λ_nn⁻¹ · η_n
//
// where "o" is the kept block and "n" is everything else, in its
// original relative order (before-block followed by after-block). Fails
// with NonInvertible if Λ_nn is singular. If size == g.Dim (no "n" block
// at all, the unary case) the marginal is g itself.
func (g *Gaussian) MarginalizeTo(start, size int) (*Gaussian, error) {
	if start < 0 || size <= 0 || start+size > g.Dim {
		return nil, gbperr.New(gbperr.DimensionMismatch, "block [%d,%d) out of range for dim %d", start, start+size, g.Dim)
	}
	if size == g.Dim {
		return g.Clone(), nil
	}

	other := complementIndices(g.Dim, start, size)

	lamOO := subSym(g.Lam, rangeIndices(start, size))
	lamNN := subSym(g.Lam, other)
	lamON := subMat(g.Lam, rangeIndices(start, size), other)
	lamNO := subMat(g.Lam, other, rangeIndices(start, size))
	etaO := subVec(g.Eta, rangeIndices(start, size))
	etaN := subVec(g.Eta, other)

	var chol mat.Cholesky
	if ok := chol.Factorize(lamNN); !ok {
		return nil, gbperr.New(gbperr.NonInvertible, "Λ_nn (size %d) is not invertible during marginalization", lamNN.SymmetricDim())
	}
	lamNNinv := mat.NewSymDense(lamNN.SymmetricDim(), nil)
	if err := chol.InverseTo(lamNNinv); err != nil {
		return nil, gbperr.New(gbperr.NonInvertible, "cannot invert Λ_nn: %v", err)
	}

	// Λ_on · Λ_nn⁻¹
	var onInv mat.Dense
	onInv.Mul(lamON, lamNNinv)

	var lamMsgDense mat.Dense
	lamMsgDense.Mul(&onInv, lamNO)
	lamMsg := mat.NewSymDense(size, nil)
	for i := 0; i < size; i++ {
		for j := i; j < size; j++ {
			lamMsg.SetSym(i, j, lamOO.At(i, j)-lamMsgDense.At(i, j))
		}
	}

	etaMsgCorrection := mat.NewVecDense(size, nil)
	etaMsgCorrection.MulVec(&onInv, etaN)
	etaMsg := mat.NewVecDense(size, nil)
	etaMsg.SubVec(etaO, etaMsgCorrection)

	return &Gaussian{Dim: size, Eta: etaMsg, Lam: lamMsg}, nil
}

func rangeIndices(start, size int) []int {
	idx := make([]int, size)
	for i := range idx {
		idx[i] = start + i
	}
	return idx
}

func complementIndices(dim, start, size int) []int {
	idx := make([]int, 0, dim-size)
	for i := 0; i < start; i++ {
		idx = append(idx, i)
	}
	for i := start + size; i < dim; i++ {
		idx = append(idx, i)
	}
	return idx
}

func subSym(m *mat.SymDense, idx []int) *mat.SymDense {
	n := len(idx)
	out := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			out.SetSym(i, j, m.At(idx[i], idx[j]))
		}
	}
	return out
}

func subMat(m mat.Matrix, rows, cols []int) *mat.Dense {
	out := mat.NewDense(len(rows), len(cols), nil)
	for i, r := range rows {
		for j, c := range cols {
			out.Set(i, j, m.At(r, c))
		}
	}
	return out
}

func subVec(v *mat.VecDense, idx []int) *mat.VecDense {
	out := mat.NewVecDense(len(idx), nil)
	for i, k := range idx {
		out.SetVec(i, v.AtVec(k))
	}
	return out
}
