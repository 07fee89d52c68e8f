// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package gaussian implements the canonical (information) form Gaussian
// {η, Λ} and its elementary operations: identity, construction from
// mean/covariance, mean recovery, product (sum), and Schur-complement
// marginalization. All dense linear algebra runs through gonum/mat, the
// way github.com/milosgajdos/go-estimate's EKF/UKF hold covariance state
// in mat.SymDense/mat.VecDense.
package gaussian

import (
	"gonum.org/v1/gonum/mat"

	"github.com/cpmech/gogbp/gbperr"
)

// Gaussian is a canonical-form Gaussian of dimension Dim: η = Λµ, Λ = Σ⁻¹.
// Products are component-wise sums; see Product.
type Gaussian struct {
	Dim int
	Eta *mat.VecDense
	Lam *mat.SymDense
}

// Identity returns the vacuous (zero-information) Gaussian of size d.
func Identity(d int) *Gaussian {
	return &Gaussian{
		Dim: d,
		Eta: mat.NewVecDense(d, nil),
		Lam: mat.NewSymDense(d, nil),
	}
}

// PriorFrom builds a canonical Gaussian from a mean and covariance:
// η = Σ⁻¹µ, Λ = Σ⁻¹. Fails with NonInvertible if Σ is singular.
func PriorFrom(mu *mat.VecDense, sigma mat.Symmetric) (*Gaussian, error) {
	d := mu.Len()
	if sigma.SymmetricDim() != d {
		return nil, gbperr.New(gbperr.DimensionMismatch, "mean has dim %d but covariance has dim %d", d, sigma.SymmetricDim())
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(sigma); !ok {
		return nil, gbperr.New(gbperr.NonInvertible, "prior covariance is not positive definite")
	}
	lam := mat.NewSymDense(d, nil)
	if err := chol.InverseTo(lam); err != nil {
		return nil, gbperr.New(gbperr.NonInvertible, "cannot invert prior covariance: %v", err)
	}
	eta := mat.NewVecDense(d, nil)
	eta.MulVec(lam, mu)
	return &Gaussian{Dim: d, Eta: eta, Lam: lam}, nil
}

// Clone returns a deep copy.
func (g *Gaussian) Clone() *Gaussian {
	eta := mat.NewVecDense(g.Dim, nil)
	eta.CopyVec(g.Eta)
	lam := mat.NewSymDense(g.Dim, nil)
	lam.CopySym(g.Lam)
	return &Gaussian{Dim: g.Dim, Eta: eta, Lam: lam}
}

// Mean returns µ = Λ⁻¹η. Fails with NonInvertible when Λ is singular.
func (g *Gaussian) Mean() (*mat.VecDense, error) {
	sigma, err := g.Covariance()
	if err != nil {
		return nil, err
	}
	mu := mat.NewVecDense(g.Dim, nil)
	mu.MulVec(sigma, g.Eta)
	return mu, nil
}

// Covariance returns Σ = Λ⁻¹. Fails with NonInvertible when Λ is singular.
func (g *Gaussian) Covariance() (*mat.SymDense, error) {
	var chol mat.Cholesky
	if ok := chol.Factorize(g.Lam); !ok {
		return nil, gbperr.New(gbperr.NonInvertible, "Λ (dim %d) is not invertible", g.Dim)
	}
	sigma := mat.NewSymDense(g.Dim, nil)
	if err := chol.InverseTo(sigma); err != nil {
		return nil, gbperr.New(gbperr.NonInvertible, "cannot invert Λ: %v", err)
	}
	return sigma, nil
}

// Product returns the information-form product (component-wise sum) of
// gs. All operands must share the same dimension.
func Product(gs ...*Gaussian) (*Gaussian, error) {
	if len(gs) == 0 {
		return nil, gbperr.New(gbperr.DimensionMismatch, "product of zero Gaussians")
	}
	d := gs[0].Dim
	out := Identity(d)
	for _, g := range gs {
		if g.Dim != d {
			return nil, gbperr.New(gbperr.DimensionMismatch, "cannot take product of Gaussians with dims %d and %d", d, g.Dim)
		}
		out.Eta.AddVec(out.Eta, g.Eta)
		out.Lam.AddSym(out.Lam, g.Lam)
	}
	return out, nil
}

// AddInPlace adds other into g in place: g ← (η+Δη, Λ+ΔΛ).
func (g *Gaussian) AddInPlace(other *Gaussian) error {
	if g.Dim != other.Dim {
		return gbperr.New(gbperr.DimensionMismatch, "cannot add Gaussians with dims %d and %d", g.Dim, other.Dim)
	}
	g.Eta.AddVec(g.Eta, other.Eta)
	g.Lam.AddSym(g.Lam, other.Lam)
	return nil
}

// ScaleInPlace multiplies both η and Λ by factor. Used by robustify's
// in-place reweighting of the stored factor distribution.
func (g *Gaussian) ScaleInPlace(factor float64) {
	g.Eta.ScaleVec(factor, g.Eta)
	g.Lam.ScaleSym(factor, g.Lam)
}

// IsSymmetric reports whether Λ is symmetric within tol (relative, ∞-norm),
// per invariant 3. Always true by construction since Λ is stored as
// mat.SymDense, but kept as an explicit debug-assertion hook for callers
// that hold a plain *mat.Dense copy (e.g. after block surgery).
func IsSymmetric(lam mat.Matrix, tol float64) bool {
	r, c := lam.Dims()
	if r != c {
		return false
	}
	for i := 0; i < r; i++ {
		for j := i + 1; j < c; j++ {
			a, b := lam.At(i, j), lam.At(j, i)
			denom := 1.0
			if abs(a) > denom {
				denom = abs(a)
			}
			if abs(a-b)/denom > tol {
				return false
			}
		}
	}
	return true
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
