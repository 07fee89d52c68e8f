// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lie

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
)

func Test_exp_zero_is_identity(tst *testing.T) {

	//verbose()
	chk.PrintTitle("Exp(0) is the identity rotation")

	r := Exp([]float64{0, 0, 0})
	chk.Matrix(tst, "R", 1e-12, [][]float64{r[0][:], r[1][:], r[2][:]}, [][]float64{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	})
}

func Test_exp_quarter_turn_about_z(tst *testing.T) {

	//verbose()
	chk.PrintTitle("Exp(pi/2 ez) rotates x into y")

	phi := []float64{0, 0, math.Pi / 2}
	r := Exp(phi)
	rotated := ApplyRow(r, []float64{1, 0, 0})
	chk.Vector(tst, "R*ex", 1e-9, rotated, []float64{0, 1, 0})
}

func Test_quaternion_roundtrip_identity(tst *testing.T) {

	//verbose()
	chk.PrintTitle("quaternion of identity rotation is (0,0,0,1)")

	r := Exp([]float64{0, 0, 0})
	x, y, z, w := Quaternion(r)
	chk.Vector(tst, "quat", 1e-12, []float64{x, y, z, w}, []float64{0, 0, 0, 1})
}

// Test_log_exp_roundtrip_nontrivial is P6 (spec §8): exporting a pose
// and re-reading through the inverse SO(3) exponential must reproduce
// the original rotation, for a genuinely non-trivial rotation where a
// buggy Quaternion/Exp could plausibly still pass the identity case.
func Test_log_exp_roundtrip_nontrivial(tst *testing.T) {

	//verbose()
	chk.PrintTitle("P6: Log(Exp(phi)) recovers phi for a non-trivial rotation")

	phi := []float64{0.3, -0.2, 0.1}
	r := Exp(phi)
	back := Log(r)
	chk.Vector(tst, "phi", 1e-9, back, phi)
}

// Test_quaternion_fromquaternion_roundtrip_nontrivial closes the other
// leg of P6: Quaternion and FromQuaternion must be mutual inverses for a
// non-trivial rotation, not only at the identity.
func Test_quaternion_fromquaternion_roundtrip_nontrivial(tst *testing.T) {

	//verbose()
	chk.PrintTitle("P6: FromQuaternion(Quaternion(R)) recovers R for a non-trivial rotation")

	phi := []float64{0.3, -0.2, 0.1}
	r := Exp(phi)
	x, y, z, w := Quaternion(r)
	back := FromQuaternion(x, y, z, w)
	chk.Matrix(tst, "R", 1e-9, [][]float64{back[0][:], back[1][:], back[2][:]}, [][]float64{
		r[0][:], r[1][:], r[2][:],
	})
}

// ApplyRow returns R*v, treating r as row-major (test-only helper
// distinct from ApplyT, which applies Rᵀ).
func ApplyRow(r [3][3]float64, v []float64) []float64 {
	out := make([]float64, 3)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i] += r[i][j] * v[j]
		}
	}
	return out
}
