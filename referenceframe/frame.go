// Package referenceframe defines the kinematic frames of the robot and does the math of
// transforming joint configurations into poses.
package referenceframe

import (
	"math"
	"math/rand"

	spatial "go.viam.com/manipulation/spatialmath"
)

// OOBErrString is a string that all OOB errors should contain, so that they can be checked for distinct from other Transform errors.
const OOBErrString = "input out of bounds"

// Limit represents the limits of motion for a referenceframe.
type Limit struct {
	Min float64
	Max float64
}

// Frame represents a reference frame, e.g. an arm, a joint, a gripper.
type Frame interface {
	// Name returns the name of the referenceframe.
	Name() string

	// Transform is the pose (rotation and translation) that goes FROM current frame TO parent's referenceframe.
	Transform([]Input) (spatial.Pose, error)

	// DoF will return a slice with length equal to the number of joints/degrees of freedom.
	// Each element describes the min and max movement limit of that joint/degree of freedom.
	DoF() []Limit
}

// RandomFrameInputs will produce a list of valid, in-bounds inputs for the referenceframe.
func RandomFrameInputs(m Frame, rSeed *rand.Rand) []Input {
	if rSeed == nil {
		//nolint:gosec
		rSeed = rand.New(rand.NewSource(1))
	}
	dof := m.DoF()
	pos := make([]Input, 0, len(dof))
	for _, lim := range dof {
		l, u := lim.Min, lim.Max

		// Default to [-999,999] as range if limits are infinite
		if l == math.Inf(-1) {
			l = -999
		}
		if u == math.Inf(1) {
			u = 999
		}

		jRange := math.Abs(u - l)
		pos = append(pos, Input{rSeed.Float64()*jRange + l})
	}
	return pos
}

// InputsAtLimits returns whether any of the given inputs are out of bounds of the frame's
// motion limits.
func InputsAtLimits(m Frame, inputs []Input) bool {
	for i, lim := range m.DoF() {
		if inputs[i].Value < lim.Min || inputs[i].Value > lim.Max {
			return true
		}
	}
	return false
}
