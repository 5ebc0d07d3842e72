package spatialmath

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Geometry is an entry point with which to access all types of collision geometries.
type Geometry interface {
	// Pose returns the pose of the geometry with respect to its reference frame.
	Pose() Pose

	// Label returns the name of the geometry, used to uniquely identify it in collision sets.
	Label() string

	// SetLabel sets the name of the geometry.
	SetLabel(string)

	// Transform premultiplies the geometry's pose by the given pose, returning a new geometry.
	Transform(Pose) Geometry

	// DistanceFromPoint returns the distance from the given point to the surface of the
	// geometry. A negative value means the point is inside the geometry.
	DistanceFromPoint(r3.Vector) float64
}

func newRotationMatrixInputError(m []float64) error {
	return errors.Errorf("input slice has %d elements, need exactly 9", len(m))
}

func newBadGeometryDimensionsError(g Geometry) error {
	return fmt.Errorf("invalid dimensions for %T geometry, must be positive", g)
}
