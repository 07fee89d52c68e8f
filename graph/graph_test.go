// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package graph

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/gogbp/fnode"
	"github.com/cpmech/gogbp/gaussian"
	"github.com/cpmech/gogbp/measure"
	"github.com/cpmech/gogbp/sink"
	"github.com/cpmech/gogbp/vnode"
)

func unitPrior(tst *testing.T) *gaussian.Gaussian {
	mu := mat.NewVecDense(1, []float64{0})
	sigma := mat.NewSymDense(1, []float64{1})
	p, err := gaussian.PriorFrom(mu, sigma)
	if err != nil {
		tst.Fatalf("unitPrior: %v\n", err)
	}
	return p
}

// Test_two_variable_linear_chain reproduces spec §8 scenario 1: two
// scalar variables x0, x1 with unit Gaussian priors at 0 and a difference
// factor measuring x0 - x1 = 2 with unit noise. Converged means are
// ±2/3.
func Test_two_variable_linear_chain(tst *testing.T) {

	//verbose()
	chk.PrintTitle("two-variable linear chain converges to ±2/3")

	g := New(Config{NonlinearFactors: false})

	v0, err := vnode.New(0, 1, unitPrior(tst))
	if err != nil {
		tst.Errorf("vnode.New(0): %v\n", err)
		return
	}
	v1, err := vnode.New(1, 1, unitPrior(tst))
	if err != nil {
		tst.Errorf("vnode.New(1): %v\n", err)
		return
	}
	if err := g.AddVariable(v0); err != nil {
		tst.Errorf("AddVariable(0): %v\n", err)
		return
	}
	if err := g.AddVariable(v1); err != nil {
		tst.Errorf("AddVariable(1): %v\n", err)
		return
	}

	model, _ := measure.New("difference")
	f, err := fnode.New(0, []int{0, 1}, []int{1, 1}, model, nil, []float64{2}, 1.0, fnode.LossNone, 1e9)
	if err != nil {
		tst.Errorf("fnode.New: %v\n", err)
		return
	}
	if err := g.AddFactor(f); err != nil {
		tst.Errorf("AddFactor: %v\n", err)
		return
	}
	if err := f.ComputeFactor([]float64{0, 0}); err != nil {
		tst.Errorf("ComputeFactor: %v\n", err)
		return
	}

	for i := 0; i < 20; i++ {
		if err := g.SynchronousIteration(false, false); err != nil {
			tst.Errorf("iteration %d: %v\n", i, err)
			return
		}
	}

	chk.Scalar(tst, "mu[0]", 1e-6, v0.Mu.AtVec(0), 2.0/3.0)
	chk.Scalar(tst, "mu[1]", 1e-6, v1.Mu.AtVec(0), -2.0/3.0)
}

// Test_three_variable_chain reproduces spec §8 scenario 2: a chain
// x0 - x1 = 1, x1 - x2 = 1, unit priors at 0, converging to
// (0.5, -0.5, -1.5).
func Test_three_variable_chain(tst *testing.T) {

	//verbose()
	chk.PrintTitle("three-variable chain converges to (0.5,-0.5,-1.5)")

	g := New(Config{NonlinearFactors: false})

	ids := []int{0, 1, 2}
	vars := make([]*vnode.Variable, 3)
	for i, id := range ids {
		v, err := vnode.New(id, 1, unitPrior(tst))
		if err != nil {
			tst.Errorf("vnode.New(%d): %v\n", id, err)
			return
		}
		vars[i] = v
		if err := g.AddVariable(v); err != nil {
			tst.Errorf("AddVariable(%d): %v\n", id, err)
			return
		}
	}

	model, _ := measure.New("difference")
	f0, _ := fnode.New(0, []int{0, 1}, []int{1, 1}, model, nil, []float64{1}, 1.0, fnode.LossNone, 1e9)
	model2, _ := measure.New("difference")
	f1, _ := fnode.New(1, []int{1, 2}, []int{1, 1}, model2, nil, []float64{1}, 1.0, fnode.LossNone, 1e9)

	for _, f := range []*fnode.Factor{f0, f1} {
		if err := g.AddFactor(f); err != nil {
			tst.Errorf("AddFactor(%d): %v\n", f.ID, err)
			return
		}
		if err := f.ComputeFactor([]float64{0, 0}); err != nil {
			tst.Errorf("ComputeFactor(%d): %v\n", f.ID, err)
			return
		}
	}

	for i := 0; i < 30; i++ {
		if err := g.SynchronousIteration(false, false); err != nil {
			tst.Errorf("iteration %d: %v\n", i, err)
			return
		}
	}

	chk.Scalar(tst, "mu[0]", 1e-5, vars[0].Mu.AtVec(0), 0.5)
	chk.Scalar(tst, "mu[1]", 1e-5, vars[1].Mu.AtVec(0), -0.5)
	chk.Scalar(tst, "mu[2]", 1e-5, vars[2].Mu.AtVec(0), -1.5)
}

// Test_joint_distribution_matches_converged_belief checks that, at
// convergence on the two-variable chain, the converged per-variable means
// equal the means recovered from the full joint distribution (ground
// truth cross-check, spec §4.D).
func Test_joint_distribution_matches_converged_belief(tst *testing.T) {

	//verbose()
	chk.PrintTitle("joint distribution mean matches converged belief means")

	g := New(Config{NonlinearFactors: false})
	v0, _ := vnode.New(0, 1, unitPrior(tst))
	v1, _ := vnode.New(1, 1, unitPrior(tst))
	g.AddVariable(v0)
	g.AddVariable(v1)

	model, _ := measure.New("difference")
	f, _ := fnode.New(0, []int{0, 1}, []int{1, 1}, model, nil, []float64{2}, 1.0, fnode.LossNone, 1e9)
	g.AddFactor(f)
	f.ComputeFactor([]float64{0, 0})

	for i := 0; i < 20; i++ {
		if err := g.SynchronousIteration(false, false); err != nil {
			tst.Errorf("iteration %d: %v\n", i, err)
			return
		}
	}

	eta, lam, err := g.JointDistributionInf()
	if err != nil {
		tst.Errorf("JointDistributionInf: %v\n", err)
		return
	}
	joint := &gaussian.Gaussian{Dim: 2, Eta: eta, Lam: lam}
	mu, err := joint.Mean()
	if err != nil {
		tst.Errorf("joint.Mean: %v\n", err)
		return
	}
	chk.Scalar(tst, "joint mu[0]", 1e-6, mu.AtVec(0), v0.Mu.AtVec(0))
	chk.Scalar(tst, "joint mu[1]", 1e-6, mu.AtVec(1), v1.Mu.AtVec(0))
}

// Test_remove_outlier reproduces spec §8 scenario 5: three factors with
// losses (1.0, 2.0, 500.0) at threshold 300 — only the last is pruned,
// and every adjacent variable loses it from AdjFactors (invariant 4).
func Test_remove_outlier(tst *testing.T) {

	//verbose()
	chk.PrintTitle("RemoveOutlier prunes only the factor exceeding the threshold")

	g := New(Config{OutlierThreshold: 300})
	v0, _ := vnode.New(0, 1, unitPrior(tst))
	v1, _ := vnode.New(1, 1, unitPrior(tst))
	v2, _ := vnode.New(2, 1, unitPrior(tst))
	g.AddVariable(v0)
	g.AddVariable(v1)
	g.AddVariable(v2)

	m0, _ := measure.New("difference")
	f0, _ := fnode.New(0, []int{0, 1}, []int{1, 1}, m0, nil, []float64{1}, 1.0, fnode.LossNone, 1e9)
	m1, _ := measure.New("difference")
	f1, _ := fnode.New(1, []int{1, 2}, []int{1, 1}, m1, nil, []float64{1}, 1.0, fnode.LossNone, 1e9)
	m2, _ := measure.New("difference")
	f2, _ := fnode.New(2, []int{0, 2}, []int{1, 1}, m2, nil, []float64{1}, 1.0, fnode.LossNone, 1e9)

	for _, f := range []*fnode.Factor{f0, f1, f2} {
		if err := g.AddFactor(f); err != nil {
			tst.Errorf("AddFactor(%d): %v\n", f.ID, err)
			return
		}
	}

	if err := g.RemoveOutlier([]float64{1.0, 2.0, 500.0}); err != nil {
		tst.Errorf("RemoveOutlier: %v\n", err)
		return
	}

	chk.IntAssert(len(g.Factors), 2)
	chk.IntAssert(len(v0.AdjFactors), 1) // lost f2
	chk.IntAssert(len(v1.AdjFactors), 2) // kept f0, f1
	chk.IntAssert(len(v2.AdjFactors), 1) // lost f2

	for _, f := range v0.AdjFactors {
		if f.ID == 2 {
			tst.Errorf("variable 0 still references pruned factor 2\n")
		}
	}
	for _, f := range v2.AdjFactors {
		if f.ID == 2 {
			tst.Errorf("variable 2 still references pruned factor 2\n")
		}
	}
}

// Test_relinearization_gate reproduces spec §8 scenario 6: with
// min_linear_iters=3 and a tight beta, a factor must NOT relinearize
// before its residence count reaches the minimum, even though its
// adjacent means have already drifted past beta; it must relinearize on
// the call where the residence count finally reaches the minimum.
func Test_relinearization_gate(tst *testing.T) {

	//verbose()
	chk.PrintTitle("relinearization respects min_linear_iters before beta gates it")

	g := New(Config{
		NonlinearFactors: true,
		Beta:             0.01,
		MinLinearIters:   3,
		NumUndampedIters: 1,
	})
	v0, _ := vnode.New(0, 1, unitPrior(tst))
	v1, _ := vnode.New(1, 1, unitPrior(tst))
	g.AddVariable(v0)
	g.AddVariable(v1)

	model, _ := measure.New("difference")
	f, _ := fnode.New(0, []int{0, 1}, []int{1, 1}, model, nil, []float64{2}, 1.0, fnode.LossNone, 1e9)
	g.AddFactor(f)
	if err := f.ComputeFactor([]float64{0, 0}); err != nil {
		tst.Errorf("ComputeFactor: %v\n", err)
		return
	}
	f.ItersSinceRelin = 0

	// drift the adjacent belief on slot 1 far past beta, without touching
	// the factor's own linpoint or letting a full iteration run.
	drifted, err := gaussian.PriorFrom(mat.NewVecDense(1, []float64{5}), mat.NewSymDense(1, []float64{1}))
	if err != nil {
		tst.Errorf("PriorFrom: %v\n", err)
		return
	}
	if err := f.SetAdjBelief(1, drifted); err != nil {
		tst.Errorf("SetAdjBelief: %v\n", err)
		return
	}

	linpointBefore := append([]float64{}, f.Linpoint...)

	for i := 0; i < 3; i++ {
		if err := g.RelineariseFactors(); err != nil {
			tst.Errorf("RelineariseFactors call %d: %v\n", i, err)
			return
		}
		chk.IntAssert(f.ItersSinceRelin, i+1)
		chk.Vector(tst, "linpoint unchanged", 1e-12, f.Linpoint, linpointBefore)
	}

	// on the 4th call, iters_since_relin has reached min_linear_iters and
	// drift(5) exceeds beta(0.01): relinearization fires.
	if err := g.RelineariseFactors(); err != nil {
		tst.Errorf("RelineariseFactors call 3: %v\n", err)
		return
	}
	chk.IntAssert(f.ItersSinceRelin, 0)
	chk.Vector(tst, "linpoint updated to adjacent means", 1e-12, f.Linpoint, []float64{0, 5})
}

// Test_message_sink_records_every_update wires a sink.Recorder into a
// small graph and checks that messages were observed for both directions
// of the single factor.
func Test_message_sink_records_every_update(tst *testing.T) {

	//verbose()
	chk.PrintTitle("MessageSink observes outgoing messages on both adjacency slots")

	rec := sink.NewRecorder()
	g := New(Config{})
	g.Sink = rec

	v0, _ := vnode.New(0, 1, unitPrior(tst))
	v1, _ := vnode.New(1, 1, unitPrior(tst))
	g.AddVariable(v0)
	g.AddVariable(v1)

	model, _ := measure.New("difference")
	f, _ := fnode.New(0, []int{0, 1}, []int{1, 1}, model, nil, []float64{2}, 1.0, fnode.LossNone, 1e9)
	g.AddFactor(f)
	f.ComputeFactor([]float64{0, 0})

	if err := g.SynchronousIteration(false, false); err != nil {
		tst.Errorf("iteration: %v\n", err)
		return
	}

	if rec.Last(0, 0) == nil {
		tst.Errorf("no message recorded for (factor 0, var 0)\n")
	}
	if rec.Last(0, 1) == nil {
		tst.Errorf("no message recorded for (factor 0, var 1)\n")
	}
}
