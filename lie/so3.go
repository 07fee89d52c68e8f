// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package lie implements the small slice of SO(3) Lie-group machinery the
// trajectory exporter needs: the exponential map from a 3-vector rotation
// increment to a rotation matrix, its inverse (the Log map), and
// rotation-matrix/quaternion conversion in both directions for the
// keyframe wire format (spec §6.F) and for verifying P6 (export
// round-trip). No example repo in the pack carries a Lie-group
// exponential map, so this is necessarily grounded on the standard
// library plus utl.Dot3d for the dot product used throughout the
// teacher's beam and frame code (ele/solid/beam.go, fem/e_beam.go)
// rather than on a third-party quaternion or Lie library; cross-product
// terms are written out through the skew3 matrix. Log and FromQuaternion are the Go equivalent of the
// scipy.spatial.transform.Rotation.as_rotvec/from_matrix machinery
// original_source/gbp/gbp.py:14,229 relies on.
package lie

import (
	"math"

	"github.com/cpmech/gosl/utl"
)

// Exp computes the rotation matrix R = exp([phi]_x) via Rodrigues'
// formula, where phi is the axis-angle rotation vector and [phi]_x is its
// skew-symmetric cross-product matrix. R is returned row-major, 3x3.
func Exp(phi []float64) [3][3]float64 {
	theta := math.Sqrt(utl.Dot3d(phi, phi))
	var r [3][3]float64
	if theta < 1e-12 {
		// first-order: R ≈ I + [phi]_x
		skew := skew3(phi)
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				r[i][j] = skew[i][j]
			}
			r[i][i] += 1
		}
		return r
	}
	axis := []float64{phi[0] / theta, phi[1] / theta, phi[2] / theta}
	skew := skew3(axis)
	sinT, cosT := math.Sin(theta), math.Cos(theta)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			outer := axis[i] * axis[j]
			kron := 0.0
			if i == j {
				kron = 1
			}
			r[i][j] = cosT*kron + sinT*skew[i][j] + (1-cosT)*outer
		}
	}
	return r
}

// Log is the inverse of Exp: given R = exp([phi]_x), recovers phi (axis
// scaled by rotation angle). Uses the standard skew-part/trace formula;
// degenerates to the zero vector at theta = 0.
func Log(r [3][3]float64) []float64 {
	trace := r[0][0] + r[1][1] + r[2][2]
	cosTheta := (trace - 1) / 2
	if cosTheta > 1 {
		cosTheta = 1
	}
	if cosTheta < -1 {
		cosTheta = -1
	}
	theta := math.Acos(cosTheta)
	if theta < 1e-12 {
		return []float64{0, 0, 0}
	}
	scale := theta / (2 * math.Sin(theta))
	return []float64{
		scale * (r[2][1] - r[1][2]),
		scale * (r[0][2] - r[2][0]),
		scale * (r[1][0] - r[0][1]),
	}
}

func skew3(v []float64) [3][3]float64 {
	return [3][3]float64{
		{0, -v[2], v[1]},
		{v[2], 0, -v[0]},
		{-v[1], v[0], 0},
	}
}

// Transpose returns Rᵀ.
func Transpose(r [3][3]float64) [3][3]float64 {
	var out [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = r[j][i]
		}
	}
	return out
}

// ApplyT returns Rᵀ·v.
func ApplyT(r [3][3]float64, v []float64) []float64 {
	out := make([]float64, 3)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i] += r[j][i] * v[j]
		}
	}
	return out
}

// Quaternion converts a rotation matrix to a unit quaternion (x,y,z,w),
// using the standard trace-based branch selection to avoid cancellation
// near theta = pi.
func Quaternion(r [3][3]float64) (x, y, z, w float64) {
	trace := r[0][0] + r[1][1] + r[2][2]
	switch {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1)
		w = 0.25 / s
		x = (r[2][1] - r[1][2]) * s
		y = (r[0][2] - r[2][0]) * s
		z = (r[1][0] - r[0][1]) * s
	case r[0][0] > r[1][1] && r[0][0] > r[2][2]:
		s := 2 * math.Sqrt(1+r[0][0]-r[1][1]-r[2][2])
		w = (r[2][1] - r[1][2]) / s
		x = 0.25 * s
		y = (r[0][1] + r[1][0]) / s
		z = (r[0][2] + r[2][0]) / s
	case r[1][1] > r[2][2]:
		s := 2 * math.Sqrt(1+r[1][1]-r[0][0]-r[2][2])
		w = (r[0][2] - r[2][0]) / s
		x = (r[0][1] + r[1][0]) / s
		y = 0.25 * s
		z = (r[1][2] + r[2][1]) / s
	default:
		s := 2 * math.Sqrt(1+r[2][2]-r[0][0]-r[1][1])
		w = (r[1][0] - r[0][1]) / s
		x = (r[0][2] + r[2][0]) / s
		y = (r[1][2] + r[2][1]) / s
		z = 0.25 * s
	}
	return
}

// FromQuaternion is the inverse of Quaternion: builds the rotation
// matrix for a unit quaternion (x,y,z,w).
func FromQuaternion(x, y, z, w float64) [3][3]float64 {
	return [3][3]float64{
		{1 - 2*(y*y+z*z), 2 * (x*y - z*w), 2 * (x*z + y*w)},
		{2 * (x*y + z*w), 1 - 2*(x*x+z*z), 2 * (y*z - x*w)},
		{2 * (x*z - y*w), 2 * (y*z + x*w), 1 - 2*(x*x+y*y)},
	}
}
