// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package fnode implements the factor node of the factor graph: it holds
// the measurement, linearization point, factor distribution and outgoing
// messages, and performs linearize/robustify/marginalize (component C of
// the design, ~45% of the core per spec). A factor never holds pointers
// to its adjacent variables — only their stable ids, dofs, and a cached
// snapshot of their belief — so the graph can own both node kinds without
// a pointer cycle (spec §9 "graph cycles without cycles-in-ownership").
package fnode

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/cpmech/gosl/fun"

	"github.com/cpmech/gogbp/gaussian"
	"github.com/cpmech/gogbp/gbperr"
	"github.com/cpmech/gogbp/measure"
)

// Loss names the M-estimator reweighting applied by RobustifyLoss.
type Loss string

const (
	LossNone     Loss = "none"
	LossHuber    Loss = "huber"
	LossConstant Loss = "constant"
)

// MessageSink optionally observes each newly computed outgoing message,
// per spec §9's note that compute_messages may "optionally emit each new
// Λ_msg to an observer sink." nil means no observer.
type MessageSink interface {
	OnMessage(factorID, varID int, lam *mat.SymDense)
}

// Factor is a factor node: a likelihood term h(x) ≈ z with Gaussian
// noise, linearized to canonical form about a linearization point.
type Factor struct {
	ID int

	AdjVarIDs []int // ordered variable ids this factor touches
	AdjDofs   []int // dofs per adjacent variable, same order
	offsets   []int // precomputed block offset per adjacent variable (design note §9)

	AdjBeliefs []*gaussian.Gaussian // cached snapshot, refreshed by the variable
	Messages   []*gaussian.Gaussian // last outgoing message per adjacent variable

	Measurement []float64 // vector-always (dim 1 for scalar measurements)
	Model       measure.Model
	Args        fun.Prms

	Linpoint []float64
	Factor   *gaussian.Gaussian // canonical form, size D = Σ dofs

	GaussNoiseVar         float64
	AdaptiveGaussNoiseVar float64
	Loss                  Loss
	MahalanobisThreshold  float64
	RobustFlag            bool

	ItersSinceRelin int
	EtaDamping      float64

	Verbose bool
}

// New builds a factor node. sigma is the nominal measurement noise
// std-dev (gauss_noise_var = sigma²). adjDofs and adjVarIDs must be the
// same length; measurement length must equal model.Dim() when Dim() is
// not the "depends on x" sentinel (-1, used by Identity/Linear models
// whose output dimension equals the block dimension).
func New(id int, adjVarIDs, adjDofs []int, model measure.Model, args fun.Prms, measurement []float64, sigma float64, loss Loss, mahalanobisThreshold float64) (*Factor, error) {
	if len(adjVarIDs) != len(adjDofs) {
		return nil, gbperr.New(gbperr.DimensionMismatch, "adjVarIDs has %d entries but adjDofs has %d", len(adjVarIDs), len(adjDofs))
	}
	if loss != LossNone && loss != LossHuber && loss != LossConstant {
		return nil, gbperr.New(gbperr.UnknownLoss, "loss tag %q is not one of {none,huber,constant}", loss)
	}

	d := 0
	offsets := make([]int, len(adjDofs))
	adjBeliefs := make([]*gaussian.Gaussian, len(adjDofs))
	messages := make([]*gaussian.Gaussian, len(adjDofs))
	for i, dof := range adjDofs {
		offsets[i] = d
		d += dof
		adjBeliefs[i] = gaussian.Identity(dof)
		messages[i] = gaussian.Identity(dof)
	}

	sigma2 := sigma * sigma
	f := &Factor{
		ID:                    id,
		AdjVarIDs:             append([]int{}, adjVarIDs...),
		AdjDofs:               append([]int{}, adjDofs...),
		offsets:               offsets,
		AdjBeliefs:            adjBeliefs,
		Messages:              messages,
		Measurement:           append([]float64{}, measurement...),
		Model:                 model,
		Args:                  args,
		Linpoint:              make([]float64, d),
		Factor:                gaussian.Identity(d),
		GaussNoiseVar:         sigma2,
		AdaptiveGaussNoiseVar: sigma2,
		Loss:                  loss,
		MahalanobisThreshold:  mahalanobisThreshold,
		ItersSinceRelin:       1,
		EtaDamping:            0,
	}
	return f, nil
}

// D returns the total factor dimension Σ dofs.
func (f *Factor) D() int {
	n := 0
	for _, d := range f.AdjDofs {
		n += d
	}
	return n
}

// IndexOf returns the adjacency slot for varID, or -1 if not adjacent.
func (f *Factor) IndexOf(varID int) int {
	for i, id := range f.AdjVarIDs {
		if id == varID {
			return i
		}
	}
	return -1
}

// SetAdjBelief overwrites the cached belief snapshot for the variable at
// adjacency slot i. This is how a variable announces its updated belief
// to a neighboring factor (spec §4.B step 4, invariant 1).
func (f *Factor) SetAdjBelief(i int, belief *gaussian.Gaussian) error {
	if i < 0 || i >= len(f.AdjBeliefs) {
		return gbperr.New(gbperr.DimensionMismatch, "adjacency slot %d out of range for factor %d", i, f.ID)
	}
	f.AdjBeliefs[i] = belief
	return nil
}

// AdjMeans concatenates the means of all adjacent belief snapshots, in
// adjacency order. Fails with NonInvertible if any adjacent belief's Λ
// is singular.
func (f *Factor) AdjMeans() ([]float64, error) {
	out := make([]float64, 0, f.D())
	for _, b := range f.AdjBeliefs {
		mu, err := b.Mean()
		if err != nil {
			return nil, err
		}
		for i := 0; i < mu.Len(); i++ {
			out = append(out, mu.AtVec(i))
		}
	}
	return out, nil
}

// Residual returns h(x) − z at x (vector-always, dim == len(Measurement)).
func (f *Factor) Residual(x []float64) ([]float64, error) {
	h, err := f.Model.Predict(x, f.Args)
	if err != nil {
		return nil, err
	}
	if len(h) != len(f.Measurement) {
		return nil, gbperr.New(gbperr.DimensionMismatch, "measurement model returned dim %d, expected %d", len(h), len(f.Measurement))
	}
	r := make([]float64, len(h))
	for i := range h {
		r[i] = h[i] - f.Measurement[i]
	}
	return r, nil
}

func norm(v []float64) float64 {
	s := 0.0
	for _, x := range v {
		s += x * x
	}
	return math.Sqrt(s)
}

// Energy returns ½·‖residual‖²/σ²_adaptive, residual evaluated at the
// current adjacent belief means.
func (f *Factor) Energy() (float64, error) {
	x, err := f.AdjMeans()
	if err != nil {
		return 0, err
	}
	r, err := f.Residual(x)
	if err != nil {
		return 0, err
	}
	n := norm(r)
	return 0.5 * n * n / f.AdaptiveGaussNoiseVar, nil
}
