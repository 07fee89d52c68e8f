// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package vnode implements the variable node of the factor graph: prior,
// current belief, and incoming-message aggregation (component B of the
// design, ~15% of the core). A variable holds direct pointers to its
// adjacent factors — safe because fnode never points back at vnode — and
// announces its updated belief to them each time UpdateBelief runs.
package vnode

import (
	"gonum.org/v1/gonum/mat"

	"github.com/cpmech/gogbp/fnode"
	"github.com/cpmech/gogbp/gaussian"
	"github.com/cpmech/gogbp/gbperr"
)

// Variable is a variable node: a camera pose, landmark, or other
// estimation unknown of dimension Dofs.
type Variable struct {
	ID   int
	Dofs int

	Prior  *gaussian.Gaussian // never mutated by propagation
	Belief *gaussian.Gaussian // updated each iteration

	Mu    *mat.VecDense // cached mean, derived from Belief
	Sigma *mat.SymDense // cached covariance, derived from Belief

	AdjFactors []*fnode.Factor

	// Timestamp is used only for trajectory export; New sets it to -1.
	// Whether a variable is exported as a keyframe depends on Dofs only.
	Timestamp float64
}

// New builds a variable node with the given prior. Belief starts equal
// to the prior (no incoming messages yet).
func New(id, dofs int, prior *gaussian.Gaussian) (*Variable, error) {
	if prior.Dim != dofs {
		return nil, gbperr.New(gbperr.DimensionMismatch, "prior has dim %d but variable has %d dofs", prior.Dim, dofs)
	}
	return &Variable{
		ID:        id,
		Dofs:      dofs,
		Prior:     prior,
		Belief:    prior.Clone(),
		AdjFactors: nil,
		Timestamp: -1,
	}, nil
}

// UpdateBelief recomputes this variable's belief as the product of its
// prior and every adjacent factor's incoming message, then announces the
// new belief to each adjacent factor (spec §4.B). Fails with
// NonInvertible if the resulting Λ is singular; the caller is expected to
// treat this as iteration failure (spec §7) — no rollback happens here.
func (v *Variable) UpdateBelief() error {
	belief := v.Prior.Clone()
	for _, f := range v.AdjFactors {
		m := f.IndexOf(v.ID)
		if m < 0 {
			return gbperr.New(gbperr.InvariantBroken, "variable %d is not adjacent to factor %d despite being in its adj_factors", v.ID, f.ID)
		}
		if err := belief.AddInPlace(f.Messages[m]); err != nil {
			return err
		}
	}
	v.Belief = belief

	sigma, err := belief.Covariance()
	if err != nil {
		return err
	}
	v.Sigma = sigma
	mu := mat.NewVecDense(v.Dofs, nil)
	mu.MulVec(sigma, belief.Eta)
	v.Mu = mu

	for _, f := range v.AdjFactors {
		m := f.IndexOf(v.ID)
		if err := f.SetAdjBelief(m, belief); err != nil {
			return err
		}
	}
	return nil
}
