// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package measure defines the measurement-model capability interface
// {predict(x,args), jacobian(x,args)} called for by spec §9 and a small
// factory registry for named measurement kinds, mirroring the element
// factory in github.com/cpmech/gofem/ele (ele.SetAllocator/ele.New).
package measure

import (
	"gonum.org/v1/gonum/mat"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun"

	"github.com/cpmech/gogbp/gbperr"
)

// Model is the capability interface a factor's measurement function must
// implement: h(x) = prediction, J = ∂h/∂x at x. Dim is the measurement
// dimension (1 for scalar models — spec §9's "collapse to vector-always").
type Model interface {
	Dim() int
	Predict(x []float64, args fun.Prms) ([]float64, error)
	Jacobian(x []float64, args fun.Prms) (*mat.Dense, error)
}

// Allocator builds a fresh Model instance for a named measurement kind.
type Allocator func() Model

// allocators holds all registered measurement-model kinds.
var allocators = make(map[string]Allocator)

// Register adds a new measurement-model kind to the factory. Panics if
// the name is already registered, mirroring ele.SetAllocator.
func Register(name string, fn Allocator) {
	if _, ok := allocators[name]; ok {
		chk.Panic("cannot register measurement model %q because it exists already", name)
	}
	allocators[name] = fn
}

// New allocates a measurement model by its registered name.
func New(name string) (Model, error) {
	fn, ok := allocators[name]
	if !ok {
		return nil, gbperr.New(gbperr.DimensionMismatch, "no measurement model registered under name %q", name)
	}
	return fn(), nil
}
