package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

const floatEpsilon = 1e-9

// Triangle is three points and a normal vector.
type Triangle struct {
	p0 r3.Vector
	p1 r3.Vector
	p2 r3.Vector

	normal r3.Vector
}

// NewTriangle creates a Triangle from three points. The Normal is computed; directionality is random.
func NewTriangle(p0, p1, p2 r3.Vector) *Triangle {
	return &Triangle{
		p0:     p0,
		p1:     p1,
		p2:     p2,
		normal: PlaneNormal(p0, p1, p2),
	}
}

// Points returns the three points associated with the triangle.
func (t *Triangle) Points() []r3.Vector {
	return []r3.Vector{t.p0, t.p1, t.p2}
}

// Normal returns the triangle's normal vector.
func (t *Triangle) Normal() r3.Vector {
	return t.normal
}

// Transform premultiplies the triangle's points with a transform, allowing the triangle to be moved in space.
func (t *Triangle) Transform(toPremultiply Pose) *Triangle {
	return NewTriangle(
		Compose(toPremultiply, NewPoseFromPoint(t.p0)).Point(),
		Compose(toPremultiply, NewPoseFromPoint(t.p1)).Point(),
		Compose(toPremultiply, NewPoseFromPoint(t.p2)).Point(),
	)
}

// ClosestPointToPoint takes a point, and returns the closest point on the triangle to the given point.
func (t *Triangle) ClosestPointToPoint(point r3.Vector) r3.Vector {
	closestPtInside, inside := t.ClosestInsidePoint(point)
	if inside {
		return closestPtInside
	}

	// If the closest point is outside the triangle, it must be on an edge, so we
	// check each triangle edge for a closest point to the point pt.
	closestPt := ClosestPointSegmentPoint(t.p0, t.p1, point)
	bestDist := point.Sub(closestPt).Norm2()

	newPt := ClosestPointSegmentPoint(t.p1, t.p2, point)
	if newDist := point.Sub(newPt).Norm2(); newDist < bestDist {
		closestPt = newPt
		bestDist = newDist
	}

	newPt = ClosestPointSegmentPoint(t.p2, t.p0, point)
	if newDist := point.Sub(newPt).Norm2(); newDist < bestDist {
		return newPt
	}
	return closestPt
}

// ClosestInsidePoint returns the closest point on a triangle IF AND ONLY IF the query point's projection overlaps the triangle.
// Otherwise it will return the query point.
// To visualize this- if one draws a tetrahedron using the triangle and the query point, all angles from the triangle to the query point
// must be <= 90 degrees.
func (t *Triangle) ClosestInsidePoint(point r3.Vector) (r3.Vector, bool) {
	eps := 1e-6

	// Parametrize the triangle s.t. a point inside the triangle is
	// Q = p0 + u * e0 + v * e1, when 0 <= u <= 1, 0 <= v <= 1, and
	// 0 <= u + v <= 1. Let e0 = (p1 - p0) and e1 = (p2 - p0).
	// We analytically minimize the distance between the point pt and Q.
	e0 := t.p1.Sub(t.p0)
	e1 := t.p2.Sub(t.p0)
	a := e0.Norm2()
	b := e0.Dot(e1)
	c := e1.Norm2()
	d := point.Sub(t.p0)
	// The determinant is 0 only if the angle between e1 and e0 is 0
	// (i.e. the triangle has overlapping lines).
	det := (a*c - b*b)
	u := (c*e0.Dot(d) - b*e1.Dot(d)) / det
	v := (-b*e0.Dot(d) + a*e1.Dot(d)) / det
	inside := (0 <= u+eps) && (u <= 1+eps) && (0 <= v+eps) && (v <= 1+eps) && (u+v <= 1+eps)
	return t.p0.Add(e0.Mul(u)).Add(e1.Mul(v)), inside
}

// RayIntersection computes the intersection of a ray with the triangle using the
// Moller-Trumbore algorithm. It returns the distance along the ray at which the
// intersection occurs and whether an intersection exists. The ray direction must be
// a unit vector. Intersections behind the ray origin are not reported, and neither
// are grazing hits exactly on a triangle edge, so a ray tangent to a surface does
// not register.
func (t *Triangle) RayIntersection(origin, dir r3.Vector) (float64, bool) {
	e0 := t.p1.Sub(t.p0)
	e1 := t.p2.Sub(t.p0)
	h := dir.Cross(e1)
	det := e0.Dot(h)
	if math.Abs(det) < floatEpsilon {
		// ray is parallel to the triangle plane
		return 0, false
	}
	invDet := 1. / det
	s := origin.Sub(t.p0)
	u := invDet * s.Dot(h)
	if u < floatEpsilon || u > 1-floatEpsilon {
		return 0, false
	}
	q := s.Cross(e0)
	v := invDet * dir.Dot(q)
	if v < floatEpsilon || u+v > 1-floatEpsilon {
		return 0, false
	}
	dist := invDet * e1.Dot(q)
	if dist < floatEpsilon {
		return 0, false
	}
	return dist, true
}

// PlaneNormal returns the plane normal of the plane defined by three points.
func PlaneNormal(p0, p1, p2 r3.Vector) r3.Vector {
	return p1.Sub(p0).Cross(p2.Sub(p0)).Normalize()
}

// ClosestPointSegmentPoint takes a line segment defined by pt1 and pt2, and a point,
// and returns the point on the segment closest to the given point.
func ClosestPointSegmentPoint(pt1, pt2, point r3.Vector) r3.Vector {
	ab := pt2.Sub(pt1)
	t := point.Sub(pt1).Dot(ab) / ab.Norm2()
	if t <= 0 {
		return pt1
	} else if t >= 1 {
		return pt2
	}
	return pt1.Add(ab.Mul(t))
}
