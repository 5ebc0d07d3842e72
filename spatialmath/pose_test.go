package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

func TestBasicPoseConstruction(t *testing.T) {
	p := NewZeroPose()
	// Should return an identity pose
	test.That(t, p.Point(), test.ShouldResemble, r3.Vector{})
	test.That(t, p.Orientation().Quaternion(), test.ShouldResemble, quat.Number{Real: 1})

	p = NewPoseFromPoint(r3.Vector{X: 1, Y: 2, Z: 3})
	test.That(t, p.Point(), test.ShouldResemble, r3.Vector{X: 1, Y: 2, Z: 3})
	test.That(t, p.Orientation().Quaternion(), test.ShouldResemble, quat.Number{Real: 1})
}

func TestPoseComposeInverse(t *testing.T) {
	// 90 degree rotation about Z
	q := quat.Number{Real: math.Cos(math.Pi / 4), Kmag: math.Sin(math.Pi / 4)}
	p := NewPose(r3.Vector{X: 1, Y: 0, Z: 0}, NewOrientationFromQuaternion(q))

	// composing a pose with its inverse should yield identity
	identity := Compose(p, PoseInverse(p))
	test.That(t, PoseAlmostCoincident(identity, NewZeroPose()), test.ShouldBeTrue)

	// rotating the x unit vector by 90 degrees about z gives the y unit vector
	moved := Compose(p, NewPoseFromPoint(r3.Vector{X: 1}))
	test.That(t, moved.Point().X, test.ShouldAlmostEqual, 1, 1e-9)
	test.That(t, moved.Point().Y, test.ShouldAlmostEqual, 1, 1e-9)
	test.That(t, moved.Point().Z, test.ShouldAlmostEqual, 0, 1e-9)
}

func TestPoseBetween(t *testing.T) {
	q := quat.Number{Real: math.Cos(math.Pi / 6), Jmag: math.Sin(math.Pi / 6)}
	a := NewPose(r3.Vector{X: 1, Y: 2, Z: 3}, NewOrientationFromQuaternion(q))
	b := NewPose(r3.Vector{X: -4, Y: 0, Z: 9}, NewOrientationFromQuaternion(quat.Number{Real: 1}))

	delta := PoseBetween(a, b)
	test.That(t, PoseAlmostCoincident(Compose(a, delta), b), test.ShouldBeTrue)
}

func TestPoseDelta(t *testing.T) {
	a := NewPoseFromPoint(r3.Vector{X: 1, Y: 2, Z: 3})
	b := NewPoseFromPoint(r3.Vector{X: 2, Y: 4, Z: 6})
	delta := PoseDelta(a, b)
	test.That(t, delta, test.ShouldHaveLength, 6)
	test.That(t, delta[0], test.ShouldAlmostEqual, 1)
	test.That(t, delta[1], test.ShouldAlmostEqual, 2)
	test.That(t, delta[2], test.ShouldAlmostEqual, 3)
	// identical orientations have zero orientation delta
	test.That(t, delta[3], test.ShouldAlmostEqual, 0)
	test.That(t, delta[4], test.ShouldAlmostEqual, 0)
	test.That(t, delta[5], test.ShouldAlmostEqual, 0)

	// a quarter turn about z appears as a rotation vector of magnitude pi/2 along z
	q := quat.Number{Real: math.Cos(math.Pi / 4), Kmag: math.Sin(math.Pi / 4)}
	c := NewPose(a.Point(), NewOrientationFromQuaternion(q))
	delta = PoseDelta(a, c)
	test.That(t, delta[5], test.ShouldAlmostEqual, math.Pi/2, 1e-9)
}

func TestInterpolatePose(t *testing.T) {
	q := quat.Number{Real: math.Cos(math.Pi / 4), Kmag: math.Sin(math.Pi / 4)}
	p1 := NewPoseFromPoint(r3.Vector{X: 1})
	p2 := NewPose(r3.Vector{X: 3}, NewOrientationFromQuaternion(q))

	// halfway is the midpoint translation and a 45 degree rotation about z
	mid := Interpolate(p1, p2, 0.5)
	test.That(t, mid.Point().X, test.ShouldAlmostEqual, 2)
	aa := QuatToR3AA(mid.Orientation().Quaternion())
	test.That(t, aa.Z, test.ShouldAlmostEqual, math.Pi/4, 1e-9)

	// the sign flipped representation of the same goal takes the same short arc
	negQ := quat.Number{Real: -q.Real, Kmag: -q.Kmag}
	p3 := NewPose(r3.Vector{X: 3}, NewOrientationFromQuaternion(negQ))
	mid2 := Interpolate(p1, p3, 0.5)
	test.That(t, OrientationAlmostEqualEps(mid.Orientation(), mid2.Orientation(), 1e-9), test.ShouldBeTrue)
}

func TestRotationMatrixRoundTrip(t *testing.T) {
	q := Normalize(quat.Number{Real: 0.6, Imag: 0.2, Jmag: -0.5, Kmag: 0.3})
	rm := QuatToRotationMatrix(q)
	q2 := rm.Quaternion()
	test.That(t, OrientationAlmostEqualEps(
		NewOrientationFromQuaternion(q),
		NewOrientationFromQuaternion(q2),
		1e-9,
	), test.ShouldBeTrue)
}

func TestRotationMatrixFromAxes(t *testing.T) {
	// axes of a 90 degree rotation about z
	rm := NewRotationMatrixFromAxes(
		r3.Vector{Y: 1},
		r3.Vector{X: -1},
		r3.Vector{Z: 1},
	)
	rotated := rm.Mul(r3.Vector{X: 1})
	test.That(t, rotated.X, test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, rotated.Y, test.ShouldAlmostEqual, 1, 1e-9)
	// columns recover the axes
	test.That(t, rm.Col(0).Y, test.ShouldAlmostEqual, 1)
	test.That(t, rm.Col(2).Z, test.ShouldAlmostEqual, 1)
}
