package spatialmath

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Pose represents a 6dof pose, position and orientation, with respect to the origin.
// The Point() method returns the position in (x,y,z) mm coordinates,
// and the Orientation() method returns an Orientation object, which has methods to parametrize
// the rotation in multiple different representations.
type Pose interface {
	// Point returns the position of the pose.
	Point() r3.Vector

	// Orientation returns the orientation of the pose.
	Orientation() Orientation
}

type basicPose struct {
	point       r3.Vector
	orientation Orientation
}

// NewZeroPose returns a pose at (0,0,0) with same orientation as whatever frame it is placed in.
func NewZeroPose() Pose {
	return &basicPose{orientation: NewZeroOrientation()}
}

// NewPose takes in a position and orientation and returns a Pose.
func NewPose(p r3.Vector, o Orientation) Pose {
	if o == nil {
		return NewPoseFromPoint(p)
	}
	return &basicPose{point: p, orientation: o}
}

// NewPoseFromPoint takes in a cartesian (x,y,z) and stores it as a vector.
// It will have the same orientation as the frame it is in reference to.
func NewPoseFromPoint(point r3.Vector) Pose {
	return &basicPose{point: point, orientation: NewZeroOrientation()}
}

// NewPoseFromOrientation takes in an orientation and returns a Pose at the origin.
func NewPoseFromOrientation(o Orientation) Pose {
	if o == nil {
		return NewZeroPose()
	}
	return &basicPose{orientation: o}
}

func (p *basicPose) Point() r3.Vector {
	return p.point
}

func (p *basicPose) Orientation() Orientation {
	return p.orientation
}

// Compose treats Poses as functions A(x) and B(x), and produces a new function C(x) = A(B(x)).
// It converts the poses to quaternions and multiplies them together, normalizing the result.
func Compose(a, b Pose) Pose {
	return &basicPose{
		point:       a.Point().Add(Rotate(a.Orientation(), b.Point())),
		orientation: NewOrientationFromQuaternion(quat.Mul(a.Orientation().Quaternion(), b.Orientation().Quaternion())),
	}
}

// PoseBetween returns the pose representing the transformation from a to b.
func PoseBetween(a, b Pose) Pose {
	invOrient := quat.Conj(a.Orientation().Quaternion())
	return &basicPose{
		point:       Rotate(NewOrientationFromQuaternion(invOrient), b.Point().Sub(a.Point())),
		orientation: NewOrientationFromQuaternion(quat.Mul(invOrient, b.Orientation().Quaternion())),
	}
}

// PoseInverse returns the inverse of a pose. If a point is transformed by a pose, and then transformed by the
// inverse of that pose, it will arrive back where it started.
func PoseInverse(p Pose) Pose {
	return PoseBetween(p, NewZeroPose())
}

// PoseDelta returns the difference between two poses as a six-element vector:
// the linear displacement in the first three elements, and the orientation
// difference as an R3 rotation vector in the last three. This is the error term
// consumed by the damped least squares solver.
func PoseDelta(a, b Pose) []float64 {
	lin := b.Point().Sub(a.Point())
	rot := QuatToR3AA(OrientationBetween(a.Orientation(), b.Orientation()).Quaternion())
	return []float64{lin.X, lin.Y, lin.Z, rot.X, rot.Y, rot.Z}
}

// Interpolate will return a new Pose that has been interpolated the set amount between two poses.
// by == 0 will return the first pose, by == 1 the second, and by == 0.5 will return the pose
// halfway between the two.
func Interpolate(p1, p2 Pose, by float64) Pose {
	return NewPose(
		p1.Point().Add(p2.Point().Sub(p1.Point()).Mul(by)),
		NewOrientationFromQuaternion(Slerp(p1.Orientation().Quaternion(), p2.Orientation().Quaternion(), by)),
	)
}

// PoseAlmostCoincidentEps checks if two poses are within a given epsilon of each
// other in both linear and orientation (rotation vector norm) distance.
func PoseAlmostCoincidentEps(a, b Pose, epsilon float64) bool {
	return a.Point().Sub(b.Point()).Norm() < epsilon && OrientationAlmostEqualEps(a.Orientation(), b.Orientation(), epsilon)
}

// PoseAlmostCoincident checks if two poses approximately coincident with a reasonable default epsilon.
func PoseAlmostCoincident(a, b Pose) bool {
	return PoseAlmostCoincidentEps(a, b, defaultCoincidentEpsilon)
}

const defaultCoincidentEpsilon = 1e-6
