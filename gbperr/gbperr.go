// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package gbperr defines the error kinds surfaced by the GBP solver core.
//
// Only NonInvertible is meant to be inspected programmatically by callers
// (e.g. an optimizer driver deciding whether to damp further); the other
// three kinds mark programmer or configuration errors. All four kinds are
// returned as ordinary error values; the core does not panic with them.
package gbperr

import (
	"github.com/cpmech/gosl/io"
)

// Kind classifies a core error per spec §7.
type Kind int

const (
	// NonInvertible: a required matrix inversion failed (Schur complement
	// or belief update). Recoverable-looking but non-recoverable from
	// inside the core; the caller decides what to do next.
	NonInvertible Kind = iota
	// DimensionMismatch: Jacobian shape vs. measurement/dofs mismatch, or
	// adjacency-block mismatch. Programmer error.
	DimensionMismatch
	// UnknownLoss: robustify called with a loss tag outside {None, Huber, Constant}.
	UnknownLoss
	// InvariantBroken: a data-model invariant (§3) was violated.
	InvariantBroken
)

func (k Kind) String() string {
	switch k {
	case NonInvertible:
		return "NonInvertible"
	case DimensionMismatch:
		return "DimensionMismatch"
	case UnknownLoss:
		return "UnknownLoss"
	case InvariantBroken:
		return "InvariantBroken"
	}
	return "Unknown"
}

// Error is the concrete error type returned by the core.
type Error struct {
	Kind Kind
	msg  string
}

func (e *Error) Error() string {
	return e.msg
}

// Is lets errors.Is(err, gbperr.NonInvertible) work by comparing Kind
// against a target *Error with the same Kind and an empty message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New builds an *Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, msg: io.Sf("%s: %s", kind, io.Sf(format, args...))}
}

// Sentinel values usable with errors.Is; e.g. errors.Is(err, gbperr.ErrNonInvertible).
var (
	ErrNonInvertible     = &Error{Kind: NonInvertible}
	ErrDimensionMismatch = &Error{Kind: DimensionMismatch}
	ErrUnknownLoss       = &Error{Kind: UnknownLoss}
	ErrInvariantBroken   = &Error{Kind: InvariantBroken}
)
