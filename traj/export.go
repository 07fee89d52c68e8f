// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package traj exports converged pose variables as a TUM-style keyframe
// trajectory (spec §6.F), the format consumed by the downstream
// evaluation tooling this solver feeds. Only variables with 6 dofs
// (position + so(3) rotation increment) are exported; every other
// variable (landmarks, biases, ...) is silently skipped.
package traj

import (
	"fmt"
	"io"
	"sort"

	"github.com/cpmech/gogbp/gbperr"
	"github.com/cpmech/gogbp/lie"
	"github.com/cpmech/gogbp/vnode"
)

// WriteKeyframes writes one line per 6-dof variable, in ascending id
// order: "timestamp tx ty tz qx qy qz qw". The stored pose is
// camera-from-world in the driver's own (t_cw, phi_cw) parameterization;
// the exported pose is its inverse, world-from-camera, matching the
// convention the evaluation tooling expects (spec §6.F).
func WriteKeyframes(w io.Writer, vars []*vnode.Variable) error {
	keyframes := make([]*vnode.Variable, 0, len(vars))
	for _, v := range vars {
		if v.Dofs == 6 {
			keyframes = append(keyframes, v)
		}
	}
	sort.Slice(keyframes, func(i, j int) bool {
		return keyframes[i].ID < keyframes[j].ID
	})

	for _, v := range keyframes {
		if v.Mu == nil {
			return gbperr.New(gbperr.InvariantBroken, "variable %d has no cached mean; call UpdateBelief first", v.ID)
		}
		tcw := []float64{v.Mu.AtVec(0), v.Mu.AtVec(1), v.Mu.AtVec(2)}
		phiCw := []float64{v.Mu.AtVec(3), v.Mu.AtVec(4), v.Mu.AtVec(5)}

		rCw := lie.Exp(phiCw)
		rWc := lie.Transpose(rCw)
		negTcw := []float64{-tcw[0], -tcw[1], -tcw[2]}
		tWc := lie.ApplyT(rCw, negTcw)
		qx, qy, qz, qw := lie.Quaternion(rWc)

		if _, err := fmt.Fprintf(w, "%.9f %.9f %.9f %.9f %.9f %.9f %.9f %.9f\n",
			v.Timestamp, tWc[0], tWc[1], tWc[2], qx, qy, qz, qw); err != nil {
			return err
		}
	}
	return nil
}
