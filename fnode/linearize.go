// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fnode

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/cpmech/gosl/io"

	"github.com/cpmech/gogbp/gaussian"
	"github.com/cpmech/gogbp/gbperr"
)

// ComputeFactor linearizes h about linpoint (or, if nil, about the
// concatenation of adjacent belief means) and stores the result as
// f.Factor, per spec §4.C:
//
//	J  = jac_fn(x0);  ẑ = meas_fn(x0)
//	W  = I / σ²_adaptive
//	Λ_F = Jᵀ W J
//	η_F = Jᵀ W (J·x0 + z − ẑ)
func (f *Factor) ComputeFactor(linpoint []float64) error {
	x0 := linpoint
	if x0 == nil {
		means, err := f.AdjMeans()
		if err != nil {
			return err
		}
		x0 = means
	}
	f.Linpoint = append([]float64{}, x0...)

	j, err := f.Model.Jacobian(x0, f.Args)
	if err != nil {
		return err
	}
	zhat, err := f.Model.Predict(x0, f.Args)
	if err != nil {
		return err
	}
	jr, jc := j.Dims()
	if jr != len(f.Measurement) || jc != f.D() {
		return gbperr.New(gbperr.DimensionMismatch, "jacobian has shape [%d,%d], expected [%d,%d]", jr, jc, len(f.Measurement), f.D())
	}

	x0v := mat.NewVecDense(jc, x0)

	// target = J·x0 + z − ẑ
	target := mat.NewVecDense(jr, nil)
	target.MulVec(j, x0v)
	for i := 0; i < jr; i++ {
		target.SetVec(i, target.AtVec(i)+f.Measurement[i]-zhat[i])
	}

	w := 1.0 / f.AdaptiveGaussNoiseVar

	var jtW mat.Dense
	jtW.Scale(w, j.T())

	lamDense := mat.NewDense(jc, jc, nil)
	lamDense.Mul(&jtW, j)
	lam := mat.NewSymDense(jc, nil)
	for i := 0; i < jc; i++ {
		for k := i; k < jc; k++ {
			lam.SetSym(i, k, lamDense.At(i, k))
		}
	}

	eta := mat.NewVecDense(jc, nil)
	eta.MulVec(&jtW, target)

	f.Factor = &gaussian.Gaussian{Dim: jc, Eta: eta, Lam: lam}

	if f.Verbose {
		io.Pforan("factor %d: linearized at iters_since_relin=%d\n", f.ID, f.ItersSinceRelin)
	}
	return nil
}

// RobustifyLoss rescales the stored factor in place per the active M-
// estimator, per spec §4.C. The factor is not re-linearized here — only
// reweighted, using the *existing* linearization point.
func (f *Factor) RobustifyLoss() error {
	oldVar := f.AdaptiveGaussNoiseVar

	switch f.Loss {
	case LossNone:
		f.AdaptiveGaussNoiseVar = f.GaussNoiseVar

	case LossHuber, LossConstant:
		zhat, err := f.Model.Predict(f.Linpoint, f.Args)
		if err != nil {
			return err
		}
		diff := make([]float64, len(f.Measurement))
		for i := range diff {
			diff[i] = f.Measurement[i] - zhat[i]
		}
		d := norm(diff) / math.Sqrt(f.GaussNoiseVar)
		tau := f.MahalanobisThreshold

		if d > tau {
			f.RobustFlag = true
			if f.Loss == LossHuber {
				f.AdaptiveGaussNoiseVar = f.GaussNoiseVar * d * d / (2 * (tau*d - 0.5*tau*tau))
			} else {
				f.AdaptiveGaussNoiseVar = d * d
			}
		} else {
			f.RobustFlag = false
			f.AdaptiveGaussNoiseVar = f.GaussNoiseVar
		}

	default:
		return gbperr.New(gbperr.UnknownLoss, "loss tag %q is not one of {none,huber,constant}", f.Loss)
	}

	f.Factor.ScaleInPlace(oldVar / f.AdaptiveGaussNoiseVar)
	return nil
}
