// Package spatialmath defines spatial mathematical operations: poses, orientations,
// and the collision geometries used by the grasp scorer and the motion planners.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Orientation is an interface used to express the different parameterizations of a rotation in 3D Euclidean space.
type Orientation interface {
	// Quaternion returns the rotation as a unit quaternion.
	Quaternion() quat.Number

	// RotationMatrix returns the rotation as a 3x3 matrix.
	RotationMatrix() *RotationMatrix
}

// Quaternion is a rotation in quaternion representation.
type Quaternion quat.Number

// NewZeroOrientation returns an orientation which signifies no rotation.
func NewZeroOrientation() Orientation {
	return &Quaternion{Real: 1}
}

// NewOrientationFromQuaternion returns an Orientation from the given quaternion, normalizing it first.
func NewOrientationFromQuaternion(q quat.Number) Orientation {
	qn := Normalize(q)
	return &Quaternion{qn.Real, qn.Imag, qn.Jmag, qn.Kmag}
}

// NewOrientationFromAxisAngle returns an Orientation rotating by theta radians about the
// given axis. The axis need not be normalized.
func NewOrientationFromAxisAngle(axis r3.Vector, theta float64) Orientation {
	if axis.Norm() == 0 {
		return NewZeroOrientation()
	}
	n := axis.Normalize()
	s := math.Sin(theta / 2)
	return NewOrientationFromQuaternion(quat.Number{
		Real: math.Cos(theta / 2),
		Imag: s * n.X,
		Jmag: s * n.Y,
		Kmag: s * n.Z,
	})
}

// Quaternion returns the orientation in quaternion representation.
func (q *Quaternion) Quaternion() quat.Number {
	return quat.Number(*q)
}

// RotationMatrix returns the orientation in rotation matrix representation.
func (q *Quaternion) RotationMatrix() *RotationMatrix {
	return QuatToRotationMatrix(quat.Number(*q))
}

// Normalize a quaternion, returning its, versor (unit quaternion).
func Normalize(q quat.Number) quat.Number {
	length := math.Sqrt(q.Real*q.Real + q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
	if math.Abs(length-1.0) < 1e-10 {
		return q
	}
	if length == 0 {
		return quat.Number{Real: 1}
	}
	if math.IsInf(length, 1) {
		length = float64(math.MaxFloat64)
	}
	return quat.Number{Real: q.Real / length, Imag: q.Imag / length, Jmag: q.Jmag / length, Kmag: q.Kmag / length}
}

// QuatToR3AA converts a quaternion to an R3 axis angle (the rotation vector whose norm
// is the rotation angle in radians and whose direction is the rotation axis).
func QuatToR3AA(q quat.Number) r3.Vector {
	denom := math.Sqrt(q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
	angle := 2 * math.Atan2(denom, math.Abs(q.Real))
	if q.Real < 0 {
		angle *= -1
	}
	if denom < 1e-12 {
		return r3.Vector{}
	}
	return r3.Vector{X: q.Imag, Y: q.Jmag, Z: q.Kmag}.Mul(angle / denom)
}

// OrientationBetween returns the orientation representing the rotation from o1 to o2.
func OrientationBetween(o1, o2 Orientation) Orientation {
	return NewOrientationFromQuaternion(quat.Mul(quat.Conj(o1.Quaternion()), o2.Quaternion()))
}

// OrientationAlmostEqualEps will return a bool describing whether 2 orientations are within the given epsilon of
// each other, measured as the norm of the rotation vector between them.
func OrientationAlmostEqualEps(o1, o2 Orientation, epsilon float64) bool {
	return QuatToR3AA(OrientationBetween(o1, o2).Quaternion()).Norm() < epsilon
}

// Slerp performs spherical linear interpolation between two unit quaternions, returning
// the rotation the given fraction of the way from q1 to q2 along the shortest arc.
func Slerp(q1, q2 quat.Number, by float64) quat.Number {
	dot := q1.Real*q2.Real + q1.Imag*q2.Imag + q1.Jmag*q2.Jmag + q1.Kmag*q2.Kmag
	// take the short way around
	if dot < 0 {
		q2 = quat.Number{Real: -q2.Real, Imag: -q2.Imag, Jmag: -q2.Jmag, Kmag: -q2.Kmag}
		dot = -dot
	}
	if dot > 1-1e-9 {
		// nearly parallel, fall back to normalized linear interpolation
		return Normalize(quat.Number{
			Real: q1.Real + by*(q2.Real-q1.Real),
			Imag: q1.Imag + by*(q2.Imag-q1.Imag),
			Jmag: q1.Jmag + by*(q2.Jmag-q1.Jmag),
			Kmag: q1.Kmag + by*(q2.Kmag-q1.Kmag),
		})
	}
	theta := math.Acos(dot)
	sinTheta := math.Sin(theta)
	w1 := math.Sin((1-by)*theta) / sinTheta
	w2 := math.Sin(by*theta) / sinTheta
	return Normalize(quat.Number{
		Real: w1*q1.Real + w2*q2.Real,
		Imag: w1*q1.Imag + w2*q2.Imag,
		Jmag: w1*q1.Jmag + w2*q2.Jmag,
		Kmag: w1*q1.Kmag + w2*q2.Kmag,
	})
}

// Rotate rotates the given point by the given orientation.
func Rotate(o Orientation, pt r3.Vector) r3.Vector {
	q := o.Quaternion()
	p := quat.Number{Imag: pt.X, Jmag: pt.Y, Kmag: pt.Z}
	rotated := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return r3.Vector{X: rotated.Imag, Y: rotated.Jmag, Z: rotated.Kmag}
}
