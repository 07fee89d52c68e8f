// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vnode

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/gogbp/fnode"
	"github.com/cpmech/gogbp/gaussian"
	"github.com/cpmech/gogbp/measure"
)

func Test_update_belief_no_messages(tst *testing.T) {

	//verbose()
	chk.PrintTitle("update_belief with no adjacent factors equals prior")

	mu := mat.NewVecDense(1, []float64{3})
	sigma := mat.NewSymDense(1, []float64{2})
	prior, _ := gaussian.PriorFrom(mu, sigma)
	v, err := New(0, 1, prior)
	if err != nil {
		tst.Errorf("New failed: %v\n", err)
		return
	}
	err = v.UpdateBelief()
	if err != nil {
		tst.Errorf("UpdateBelief failed: %v\n", err)
		return
	}
	chk.Scalar(tst, "mu", 1e-12, v.Mu.AtVec(0), 3)
}

func Test_update_belief_announces_to_factor(tst *testing.T) {

	//verbose()
	chk.PrintTitle("update_belief writes back into F.adj_beliefs (invariant 1)")

	model, _ := measure.New("difference")
	f, _ := fnode.New(0, []int{0, 1}, []int{1, 1}, model, nil, []float64{2}, 1.0, fnode.LossNone, 2.0)

	v0, _ := New(0, 1, gaussian.Identity(1))
	v1, _ := New(1, 1, gaussian.Identity(1))
	v0.AdjFactors = []*fnode.Factor{f}
	v1.AdjFactors = []*fnode.Factor{f}

	if err := v0.UpdateBelief(); err != nil {
		tst.Errorf("v0.UpdateBelief failed: %v\n", err)
		return
	}
	if err := v1.UpdateBelief(); err != nil {
		tst.Errorf("v1.UpdateBelief failed: %v\n", err)
		return
	}

	chk.Scalar(tst, "f.AdjBeliefs[0].Eta", 1e-12, f.AdjBeliefs[0].Eta.AtVec(0), v0.Belief.Eta.AtVec(0))
	chk.Scalar(tst, "f.AdjBeliefs[1].Eta", 1e-12, f.AdjBeliefs[1].Eta.AtVec(0), v1.Belief.Eta.AtVec(0))
}
