package grasp

import (
	"github.com/golang/geo/r3"

	spatial "go.viam.com/manipulation/spatialmath"
)

// number of points sampled along each finger and across the palm for collision testing.
const gripperSamplesPerBody = 5

// Gripper describes the geometry of a parallel jaw gripper in its own frame: x is the
// opening axis between the fingers, z the approach axis pointing at the object, and the
// origin the grasp point between the fingertips.
type Gripper struct {
	// FingerLength is the usable finger length from root to tip.
	FingerLength float64

	// MaxOpening is the gap between the finger faces when fully open.
	MaxOpening float64

	// PlaneOffset is the offset of each containment ray plane from the gripper center
	// along the finger thickness direction.
	PlaneOffset float64

	// Standoff is the distance between the approach pose and the grasp pose along the
	// approach axis.
	Standoff float64

	// OpenPosition is the per finger joint command for an open gripper.
	OpenPosition float64

	// ClosedPosition is the per finger joint command for a closed gripper.
	ClosedPosition float64
}

// NewPandaGripper returns the geometry of the Franka Emika Panda two finger gripper.
func NewPandaGripper() *Gripper {
	return &Gripper{
		FingerLength:   0.05,
		MaxOpening:     0.08,
		PlaneOffset:    0.015,
		Standoff:       0.15,
		OpenPosition:   0.04,
		ClosedPosition: 0.005,
	}
}

// SamplePoints returns world frame points on the open fingers and the palm bar, used to
// test a candidate grasp pose for collisions with the object.
func (g *Gripper) SamplePoints(pose spatial.Pose) []r3.Vector {
	rm := pose.Orientation().RotationMatrix()
	xAxis, zAxis := rm.Col(0), rm.Col(2)
	center := pose.Point()
	halfOpen := g.MaxOpening / 2

	points := make([]r3.Vector, 0, 3*gripperSamplesPerBody)
	for i := 0; i < gripperSamplesPerBody; i++ {
		along := -g.FingerLength * float64(i) / float64(gripperSamplesPerBody-1)
		fingerOffset := zAxis.Mul(along)
		points = append(points,
			center.Add(fingerOffset).Add(xAxis.Mul(-halfOpen)),
			center.Add(fingerOffset).Add(xAxis.Mul(halfOpen)),
		)
	}
	palm := center.Add(zAxis.Mul(-g.FingerLength))
	for i := 0; i < gripperSamplesPerBody; i++ {
		across := -halfOpen + g.MaxOpening*float64(i)/float64(gripperSamplesPerBody-1)
		points = append(points, palm.Add(xAxis.Mul(across)))
	}
	return points
}
