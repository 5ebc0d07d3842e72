package spatialmath

import (
	"fmt"

	"github.com/golang/geo/r3"
)

// Sphere is a collision geometry that represents a sphere, it has a pose and a radius that fully define it.
// It is the geometry used to represent tracked obstacles.
type Sphere struct {
	pose   Pose
	radius float64
	label  string
}

// NewSphere instantiates a new sphere Geometry.
func NewSphere(pose Pose, radius float64, label string) (*Sphere, error) {
	if radius <= 0 {
		return nil, newBadGeometryDimensionsError(&Sphere{})
	}
	return &Sphere{pose: pose, radius: radius, label: label}, nil
}

// String returns a human readable string that represents the sphere.
func (s *Sphere) String() string {
	p := s.pose.Point()
	return fmt.Sprintf("Type: Sphere, Center: X:%.0f, Y:%.0f, Z:%.0f, Radius: %.0f", p.X, p.Y, p.Z, s.radius)
}

// Label returns the label of this sphere.
func (s *Sphere) Label() string {
	return s.label
}

// SetLabel sets the label of this sphere.
func (s *Sphere) SetLabel(label string) {
	s.label = label
}

// Pose returns the pose of the sphere.
func (s *Sphere) Pose() Pose {
	return s.pose
}

// Radius returns the radius of the sphere.
func (s *Sphere) Radius() float64 {
	return s.radius
}

// Transform premultiplies the sphere pose with a transform, allowing the sphere to be moved in space.
func (s *Sphere) Transform(toPremultiply Pose) Geometry {
	return &Sphere{pose: Compose(toPremultiply, s.pose), radius: s.radius, label: s.label}
}

// DistanceFromPoint returns the distance from the given point to the surface of the
// sphere, negative if the point is inside.
func (s *Sphere) DistanceFromPoint(pt r3.Vector) float64 {
	return pt.Sub(s.pose.Point()).Norm() - s.radius
}
