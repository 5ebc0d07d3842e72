// Package grasp generates and scores grasp poses for a parallel jaw gripper over the
// perceived geometry of a target object.
package grasp

import (
	"fmt"

	spatial "go.viam.com/manipulation/spatialmath"
)

// Candidate is a scored grasp pose. Score components are kept individually so callers
// can log and compare them.
type Candidate struct {
	Pose spatial.Pose

	// Containment is the fraction of finger plane rays crossing the object.
	Containment float64

	// Depth is the mean object thickness along the opening axis, as a fraction of the
	// maximum gripper opening.
	Depth float64

	// Centering rewards grasp centers close to the centroid of the ray crossings.
	Centering float64

	// HorizontalCentering rewards grasp centers horizontally close to the object
	// centroid.
	HorizontalCentering float64

	// Total is the weighted sum of the component scores.
	Total float64
}

func (c *Candidate) String() string {
	return fmt.Sprintf("grasp candidate total %.3f (containment %.3f depth %.3f centering %.3f horizontal %.3f)",
		c.Total, c.Containment, c.Depth, c.Centering, c.HorizontalCentering)
}

// PoseSet pairs a grasp pose with its approach pose. The approach pose sits a fixed
// standoff back along the grasp pose's own approach axis with an identical orientation,
// so the approach to grasp segment is a pure straight line translation.
type PoseSet struct {
	Grasp    spatial.Pose
	Approach spatial.Pose
}

// NewPoseSet builds the approach pose for a winning grasp pose by backing off the given
// standoff along the grasp approach axis.
func NewPoseSet(grasp spatial.Pose, standoff float64) *PoseSet {
	approachAxis := grasp.Orientation().RotationMatrix().Col(2)
	return &PoseSet{
		Grasp:    grasp,
		Approach: spatial.NewPose(grasp.Point().Sub(approachAxis.Mul(standoff)), grasp.Orientation()),
	}
}
