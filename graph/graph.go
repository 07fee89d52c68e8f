// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package graph implements the factor graph: it owns all variable and
// factor nodes and orchestrates one GBP iteration (component D, ~25% of
// the core), plus the outlier/relinearization policy (component E, ~10%)
// in policy.go. The orchestration loop follows the shape of
// github.com/cpmech/gofem/msolid.Driver.Run (Init → per-step update →
// accumulate results), adapted from an incremental-loading FEM driver to
// a synchronous message-passing driver.
package graph

import (
	"gonum.org/v1/gonum/mat"

	"github.com/cpmech/gosl/io"

	"github.com/cpmech/gogbp/fnode"
	"github.com/cpmech/gogbp/gbperr"
	"github.com/cpmech/gogbp/vnode"
)

// Config enumerates the graph-level options of spec §6.
type Config struct {
	NonlinearFactors bool    // enables relinearize/damping machinery
	EtaDamping       float64 // default damping, in [0,1)
	Beta             float64 // relinearization threshold on ‖x − linpoint‖
	NumUndampedIters int     // grace period before damping re-arms
	MinLinearIters   int     // minimum residence between relinearizations
	OutlierThreshold float64 // per-factor loss above which RemoveOutlier prunes
}

// FactorGraph owns all nodes and factors for their full lifetime and
// runs the GBP iteration.
type FactorGraph struct {
	Vars    []*vnode.Variable
	Factors []*fnode.Factor
	Config  Config
	Sink    fnode.MessageSink
	Verbose bool

	varIndex map[int]*vnode.Variable
}

// New builds an empty factor graph with the given configuration.
func New(cfg Config) *FactorGraph {
	return &FactorGraph{
		Config:   cfg,
		varIndex: make(map[int]*vnode.Variable),
	}
}

// AddVariable registers a variable node. Ids must be unique.
func (g *FactorGraph) AddVariable(v *vnode.Variable) error {
	if _, ok := g.varIndex[v.ID]; ok {
		return gbperr.New(gbperr.InvariantBroken, "variable id %d already registered", v.ID)
	}
	g.Vars = append(g.Vars, v)
	g.varIndex[v.ID] = v
	return nil
}

// AddFactor registers a factor node and wires adjacency both ways:
// the factor is appended to each adjacent variable's AdjFactors, and
// the factor's initial AdjBeliefs snapshot is taken from each variable's
// current belief (invariant 1).
func (g *FactorGraph) AddFactor(f *fnode.Factor) error {
	for i, id := range f.AdjVarIDs {
		v, ok := g.varIndex[id]
		if !ok {
			return gbperr.New(gbperr.InvariantBroken, "factor %d references unknown variable id %d", f.ID, id)
		}
		if v.Dofs != f.AdjDofs[i] {
			return gbperr.New(gbperr.DimensionMismatch, "factor %d expects variable %d to have %d dofs, has %d", f.ID, id, f.AdjDofs[i], v.Dofs)
		}
		v.AdjFactors = append(v.AdjFactors, f)
		if err := f.SetAdjBelief(i, v.Belief); err != nil {
			return err
		}
	}
	f.Verbose = g.Verbose
	g.Factors = append(g.Factors, f)
	return nil
}

// VarByID looks up a variable by its stable id.
func (g *FactorGraph) VarByID(id int) (*vnode.Variable, bool) {
	v, ok := g.varIndex[id]
	return v, ok
}

// SynchronousIteration runs one GBP iteration per spec §4.D: (optional)
// robustify, (optional) relinearize, compute all messages, update all
// beliefs.
func (g *FactorGraph) SynchronousIteration(localRelin, robustify bool) error {
	if robustify {
		if err := g.RobustifyAllFactors(); err != nil {
			return err
		}
	}
	if g.Config.NonlinearFactors && localRelin {
		if err := g.RelineariseFactors(); err != nil {
			return err
		}
	}
	if err := g.ComputeAllMessages(localRelin); err != nil {
		return err
	}
	return g.UpdateAllBeliefs()
}

// ComputeAllMessages computes outgoing messages at every factor. When
// nonlinear factors and local relinearization are both active, damping is
// armed per-factor: a factor's own eta_damping is set to the graph
// default exactly num_undamped_iters iterations after it last
// relinearized, giving fresh linearizations a transient undamped phase
// (spec §4.D, §4.E).
func (g *FactorGraph) ComputeAllMessages(localRelin bool) error {
	localArm := g.Config.NonlinearFactors && localRelin
	for _, f := range g.Factors {
		damping := g.Config.EtaDamping
		if localArm {
			if f.ItersSinceRelin == g.Config.NumUndampedIters {
				f.EtaDamping = g.Config.EtaDamping
			}
			damping = f.EtaDamping
		}
		if err := f.ComputeMessages(damping, g.Sink); err != nil {
			return err
		}
	}
	return nil
}

// UpdateAllBeliefs sweeps every variable. This is a synchronous sweep:
// all messages were already computed into each factor's Messages slice,
// so variable update order is semantically immaterial (spec §5).
func (g *FactorGraph) UpdateAllBeliefs() error {
	for _, v := range g.Vars {
		if err := v.UpdateBelief(); err != nil {
			return err
		}
	}
	return nil
}

// Energy returns the global cost: the sum over factors of their
// individual energy (spec §4.D).
func (g *FactorGraph) Energy() (float64, error) {
	total := 0.0
	for _, f := range g.Factors {
		e, err := f.Energy()
		if err != nil {
			return 0, err
		}
		total += e
	}
	return total, nil
}

// JointDistributionInf concatenates priors on the diagonal and adds each
// factor's (η_F, Λ_F) into its adjacent blocks — diagonal and both
// off-diagonal copies — returning (η, Λ) over all variables in ascending
// id order (spec §4.D, debug/ground-truth use).
func (g *FactorGraph) JointDistributionInf() (*mat.VecDense, *mat.SymDense, error) {
	totalDim := 0
	offset := make(map[int]int, len(g.Vars))
	for _, v := range orderedByID(g.Vars) {
		offset[v.ID] = totalDim
		totalDim += v.Dofs
	}

	eta := mat.NewVecDense(totalDim, nil)
	lam := mat.NewSymDense(totalDim, nil)

	for _, v := range orderedByID(g.Vars) {
		o := offset[v.ID]
		for i := 0; i < v.Dofs; i++ {
			eta.SetVec(o+i, eta.AtVec(o+i)+v.Prior.Eta.AtVec(i))
			for j := i; j < v.Dofs; j++ {
				lam.SetSym(o+i, o+j, lam.At(o+i, o+j)+v.Prior.Lam.At(i, j))
			}
		}
	}

	for _, f := range g.Factors {
		fOff := 0
		for i, vid := range f.AdjVarIDs {
			vOff := offset[vid]
			d := f.AdjDofs[i]
			for a := 0; a < d; a++ {
				eta.SetVec(vOff+a, eta.AtVec(vOff+a)+f.Factor.Eta.AtVec(fOff+a))
				for b := a; b < d; b++ {
					lam.SetSym(vOff+a, vOff+b, lam.At(vOff+a, vOff+b)+f.Factor.Lam.At(fOff+a, fOff+b))
				}
			}

			// off-diagonal contributions: each unordered neighbor pair is
			// visited exactly once (k > i) to avoid double-adding through
			// SetSym's symmetric write-back.
			oFOff := fOff + d
			for k := i + 1; k < len(f.AdjVarIDs); k++ {
				dk := f.AdjDofs[k]
				oVOff := offset[f.AdjVarIDs[k]]
				for a := 0; a < d; a++ {
					for b := 0; b < dk; b++ {
						lam.SetSym(vOff+a, oVOff+b, lam.At(vOff+a, oVOff+b)+f.Factor.Lam.At(fOff+a, oFOff+b))
					}
				}
				oFOff += dk
			}
			fOff += d
		}
	}

	return eta, lam, nil
}

func orderedByID(vars []*vnode.Variable) []*vnode.Variable {
	out := append([]*vnode.Variable{}, vars...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].ID < out[j-1].ID; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func (g *FactorGraph) tracef(format string, args ...interface{}) {
	if g.Verbose {
		io.Pf(format, args...)
	}
}
