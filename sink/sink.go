// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package sink provides fnode.MessageSink implementations used by tests
// and diagnostics to observe the message traffic a factor graph produces
// without threading extra bookkeeping through the graph itself.
package sink

import (
	"gonum.org/v1/gonum/mat"

	"github.com/cpmech/gosl/io"
)

// Entry records one observed outgoing message.
type Entry struct {
	FactorID int
	VarID    int
	Lam      *mat.SymDense
}

// Recorder appends every observed message to Entries, in arrival order.
// Used by tests to check which (factor, variable) messages were sent
// during a run; the recorded Λ copies also allow checking P1 (message
// symmetry).
type Recorder struct {
	Entries []Entry
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// OnMessage implements fnode.MessageSink.
func (r *Recorder) OnMessage(factorID, varID int, lam *mat.SymDense) {
	cp := mat.NewSymDense(lam.SymmetricDim(), nil)
	cp.CopySym(lam)
	r.Entries = append(r.Entries, Entry{FactorID: factorID, VarID: varID, Lam: cp})
}

// Last returns the most recent message recorded for (factorID, varID), or
// nil if none was ever observed.
func (r *Recorder) Last(factorID, varID int) *mat.SymDense {
	for i := len(r.Entries) - 1; i >= 0; i-- {
		e := r.Entries[i]
		if e.FactorID == factorID && e.VarID == varID {
			return e.Lam
		}
	}
	return nil
}

// Logger prints the trace of each message's Λ via io.Pf, mirroring the
// teacher's verbose-output convention (e.g. msolid.Driver's Pfyel traces).
type Logger struct {
	Verbose bool
}

// OnMessage implements fnode.MessageSink.
func (l *Logger) OnMessage(factorID, varID int, lam *mat.SymDense) {
	if !l.Verbose {
		return
	}
	n := lam.SymmetricDim()
	trace := 0.0
	for i := 0; i < n; i++ {
		trace += lam.At(i, i)
	}
	io.Pf("factor %d -> var %d: Λ_msg trace = %.6g\n", factorID, varID, trace)
}
