// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fnode

import (
	"gonum.org/v1/gonum/mat"

	"github.com/cpmech/gogbp/gaussian"
)

// ComputeMessages computes all outgoing messages from this factor, per
// spec §4.C. For each neighbor v, the factor is combined with the cavity
// (every other neighbor's belief minus the message previously sent to
// it), then the Schur marginal onto v's block is taken and the η
// component is damped against the previous outgoing message. A unary
// factor (one neighbor) needs no Schur complement: its message is simply
// the (possibly damped) factor itself.
//
// sink, if non-nil, is notified with each newly computed Λ_msg — the
// "optional observer" of spec §9; it is never required for correctness.
func (f *Factor) ComputeMessages(damping float64, sink MessageSink) error {
	n := len(f.AdjVarIDs)

	newEtas := make([]*mat.VecDense, n)
	newLams := make([]*mat.SymDense, n)

	for v := 0; v < n; v++ {
		augmented := f.Factor.Clone()

		// product with cavity: every neighbor other than v contributes
		// (belief − previously-sent message) onto its own diagonal block.
		for u := 0; u < n; u++ {
			if u == v {
				continue
			}
			cavity := &gaussian.Gaussian{
				Dim: f.AdjDofs[u],
				Eta: subVecDiff(f.AdjBeliefs[u].Eta, f.Messages[u].Eta),
				Lam: subSymDiff(f.AdjBeliefs[u].Lam, f.Messages[u].Lam),
			}
			addBlock(augmented, f.offsets[u], cavity)
		}

		msg, err := augmented.MarginalizeTo(f.offsets[v], f.AdjDofs[v])
		if err != nil {
			return err
		}

		dampedEta := mat.NewVecDense(f.AdjDofs[v], nil)
		dampedEta.AddScaledVec(dampedEta, 1-damping, msg.Eta)
		dampedEta.AddScaledVec(dampedEta, damping, f.Messages[v].Eta)

		newEtas[v] = dampedEta
		newLams[v] = msg.Lam
	}

	for v := 0; v < n; v++ {
		f.Messages[v] = &gaussian.Gaussian{Dim: f.AdjDofs[v], Eta: newEtas[v], Lam: newLams[v]}
		if sink != nil {
			sink.OnMessage(f.ID, f.AdjVarIDs[v], newLams[v])
		}
	}
	return nil
}

func subVecDiff(a, b *mat.VecDense) *mat.VecDense {
	out := mat.NewVecDense(a.Len(), nil)
	out.SubVec(a, b)
	return out
}

func subSymDiff(a, b *mat.SymDense) *mat.SymDense {
	n := a.SymmetricDim()
	out := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			out.SetSym(i, j, a.At(i, j)-b.At(i, j))
		}
	}
	return out
}

// addBlock adds g onto the diagonal block [offset, offset+g.Dim) of
// augmented in place (η and Λ).
func addBlock(augmented *gaussian.Gaussian, offset int, g *gaussian.Gaussian) {
	for i := 0; i < g.Dim; i++ {
		augmented.Eta.SetVec(offset+i, augmented.Eta.AtVec(offset+i)+g.Eta.AtVec(i))
	}
	for i := 0; i < g.Dim; i++ {
		for j := i; j < g.Dim; j++ {
			augmented.Lam.SetSym(offset+i, offset+j, augmented.Lam.At(offset+i, offset+j)+g.Lam.At(i, j))
		}
	}
}
