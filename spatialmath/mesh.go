package spatialmath

import (
	"math"
	"sort"

	"github.com/golang/geo/r3"
)

// Mesh is a collision geometry that represents a set of triangles that represent a mesh.
type Mesh struct {
	pose      Pose
	triangles []*Triangle
	label     string
}

// NewMesh creates a mesh from the given triangles. Triangle points are expressed in the
// frame of the mesh.
func NewMesh(pose Pose, triangles []*Triangle) *Mesh {
	return &Mesh{
		pose:      pose,
		triangles: triangles,
	}
}

// Pose returns the pose of the mesh.
func (m *Mesh) Pose() Pose {
	return m.pose
}

// Label returns the label of this mesh.
func (m *Mesh) Label() string {
	return m.label
}

// SetLabel sets the label of this mesh.
func (m *Mesh) SetLabel(label string) {
	m.label = label
}

// Triangles returns the triangles associated with the mesh.
func (m *Mesh) Triangles() []*Triangle {
	return m.triangles
}

// Transform premultiplies the mesh pose with a transform, allowing the mesh to be moved in space.
func (m *Mesh) Transform(toPremultiply Pose) Geometry {
	// Triangle points are in frame of mesh, like the corners of a box, so no need to transform them
	return &Mesh{
		pose:      Compose(toPremultiply, m.pose),
		triangles: m.triangles,
		label:     m.label,
	}
}

// DistanceFromPoint returns the distance from the given point to the closest triangle of
// the mesh. A mesh has no volume so the returned distance is never negative.
func (m *Mesh) DistanceFromPoint(pt r3.Vector) float64 {
	// transform the query point into the mesh frame rather than all triangles into world
	localPt := Compose(PoseInverse(m.pose), NewPoseFromPoint(pt)).Point()
	best := math.Inf(1)
	for _, tri := range m.triangles {
		if d := tri.ClosestPointToPoint(localPt).Sub(localPt).Norm(); d < best {
			best = d
		}
	}
	return best
}

// RayHit is a single intersection of a ray with a mesh, at the given distance along the ray.
type RayHit struct {
	Distance float64
	Point    r3.Vector
}

// RayIntersections casts a ray from the given world-frame origin along the given unit
// direction and returns all intersections with the mesh up to maxDist away, sorted by
// increasing distance.
func (m *Mesh) RayIntersections(origin, dir r3.Vector, maxDist float64) []RayHit {
	inv := PoseInverse(m.pose)
	localOrigin := Compose(inv, NewPoseFromPoint(origin)).Point()
	localDir := Rotate(inv.Orientation(), dir)

	var hits []RayHit
	for _, tri := range m.triangles {
		dist, ok := tri.RayIntersection(localOrigin, localDir)
		if !ok || dist > maxDist {
			continue
		}
		hits = append(hits, RayHit{
			Distance: dist,
			Point:    origin.Add(dir.Mul(dist)),
		})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	// a ray crossing the shared edge of two triangles reports one hit, not two
	deduped := hits[:0]
	for i, hit := range hits {
		if i > 0 && hit.Distance-deduped[len(deduped)-1].Distance < floatEpsilon {
			continue
		}
		deduped = append(deduped, hit)
	}
	return deduped
}
