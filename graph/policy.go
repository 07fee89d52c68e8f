// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package graph

import (
	"math"

	"github.com/cpmech/gogbp/fnode"
	"github.com/cpmech/gogbp/gbperr"
)

// RobustifyAllFactors reweights every factor's stored distribution via
// its configured M-estimator (spec §4.D). Must run before
// RelineariseFactors within one iteration (spec §4.E): robustify only
// rescales; relinearize overwrites.
func (g *FactorGraph) RobustifyAllFactors() error {
	for _, f := range g.Factors {
		if err := f.RobustifyLoss(); err != nil {
			return err
		}
	}
	return nil
}

// RelineariseFactors implements the local relinearization policy (§4.D,
// component E): a factor relinearizes when its adjacent belief means
// have drifted past beta from its current linpoint AND it has resided at
// that linpoint for at least min_linear_iters. Relinearizing disarms
// damping on that factor (set to 0); ComputeAllMessages re-arms it
// num_undamped_iters iterations later.
func (g *FactorGraph) RelineariseFactors() error {
	if !g.Config.NonlinearFactors {
		return nil
	}
	for _, f := range g.Factors {
		xNow, err := f.AdjMeans()
		if err != nil {
			return err
		}
		drift := diffNorm(f.Linpoint, xNow)
		if drift > g.Config.Beta && f.ItersSinceRelin >= g.Config.MinLinearIters {
			if err := f.ComputeFactor(xNow); err != nil {
				return err
			}
			f.ItersSinceRelin = 0
			f.EtaDamping = 0
			g.tracef("factor %d relinearized (drift=%.6g)\n", f.ID, drift)
		} else {
			f.ItersSinceRelin++
		}
	}
	return nil
}

func diffNorm(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return math.Sqrt(s)
}

// RemoveOutlier drops every factor whose loss (losses[i], parallel to
// g.Factors at call time) exceeds Config.OutlierThreshold, removing it
// from both sides of the adjacency (spec §4.D, invariants 4 and 5). The
// threshold is configuration; the mechanism preserves invariant 4.
func (g *FactorGraph) RemoveOutlier(losses []float64) error {
	if len(losses) != len(g.Factors) {
		return gbperr.New(gbperr.DimensionMismatch, "losses has %d entries but graph has %d factors", len(losses), len(g.Factors))
	}

	kept := make([]*fnode.Factor, 0, len(g.Factors))
	pruned := make(map[int]bool)
	for i, f := range g.Factors {
		if losses[i] > g.Config.OutlierThreshold {
			pruned[f.ID] = true
			g.tracef("factor %d pruned as outlier (loss=%.6g)\n", f.ID, losses[i])
			continue
		}
		kept = append(kept, f)
	}
	g.Factors = kept

	for _, v := range g.Vars {
		remaining := v.AdjFactors[:0]
		for _, f := range v.AdjFactors {
			if !pruned[f.ID] {
				remaining = append(remaining, f)
			}
		}
		v.AdjFactors = remaining
	}
	return nil
}
