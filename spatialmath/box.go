package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/manipulation/utils"
)

// Box is a collision geometry that represents a 3D rectangular prism, it has a pose and half size that fully define it.
// It is the geometry used to represent the oriented bounding box of a target object.
type Box struct {
	pose     Pose
	halfSize [3]float64
	label    string
}

// NewBox instantiates a new box Geometry.
func NewBox(pose Pose, dims r3.Vector, label string) (*Box, error) {
	if dims.X < 0 || dims.Y < 0 || dims.Z < 0 {
		return nil, newBadGeometryDimensionsError(&Box{})
	}
	return &Box{
		pose:     pose,
		halfSize: [3]float64{0.5 * dims.X, 0.5 * dims.Y, 0.5 * dims.Z},
		label:    label,
	}, nil
}

// String returns a human readable string that represents the box.
func (b *Box) String() string {
	p := b.pose.Point()
	return fmt.Sprintf("Type: Box, Center: X:%.3f, Y:%.3f, Z:%.3f, Dims: X:%.3f, Y:%.3f, Z:%.3f",
		p.X, p.Y, p.Z, 2*b.halfSize[0], 2*b.halfSize[1], 2*b.halfSize[2])
}

// Label returns the label of this box.
func (b *Box) Label() string {
	return b.label
}

// SetLabel sets the label of this box.
func (b *Box) SetLabel(label string) {
	b.label = label
}

// Pose returns the pose of the box.
func (b *Box) Pose() Pose {
	return b.pose
}

// Dims returns the full dimensions of the box along its local axes.
func (b *Box) Dims() r3.Vector {
	return r3.Vector{X: 2 * b.halfSize[0], Y: 2 * b.halfSize[1], Z: 2 * b.halfSize[2]}
}

// HalfSize returns the half sizes of the box along its local axes.
func (b *Box) HalfSize() [3]float64 {
	return b.halfSize
}

// Axis returns the i'th local axis of the box expressed in the box's parent frame.
func (b *Box) Axis(i int) r3.Vector {
	return b.pose.Orientation().RotationMatrix().Col(i)
}

// Transform premultiplies the box pose with a transform, allowing the box to be moved in space.
func (b *Box) Transform(toPremultiply Pose) Geometry {
	return &Box{pose: Compose(toPremultiply, b.pose), halfSize: b.halfSize, label: b.label}
}

// Vertices returns the vertices defining the box.
func (b *Box) Vertices() []r3.Vector {
	verts := make([]r3.Vector, 0, 8)
	for _, x := range []float64{1, -1} {
		for _, y := range []float64{1, -1} {
			for _, z := range []float64{1, -1} {
				offset := NewPoseFromPoint(r3.Vector{X: x * b.halfSize[0], Y: y * b.halfSize[1], Z: z * b.halfSize[2]})
				verts = append(verts, Compose(b.pose, offset).Point())
			}
		}
	}
	return verts
}

// closestPoint returns the closest point on the specified box to the specified point
// Reference: https://github.com/gszauer/GamePhysicsCookbook/blob/f2e38d791d19a002ef02e74f3a5cbc123a64e0af/Code/Geometry3D.cpp#L165
func (b *Box) closestPoint(pt r3.Vector) r3.Vector {
	result := b.pose.Point()
	direction := pt.Sub(result)
	rm := b.pose.Orientation().RotationMatrix()
	for i := 0; i < 3; i++ {
		axis := rm.Col(i)
		distance := utils.Clamp(direction.Dot(axis), -b.halfSize[i], b.halfSize[i])
		result = result.Add(axis.Mul(distance))
	}
	return result
}

// pointPenetrationDepth returns the minimum distance from the given point (assumed inside
// the box) to one of the box's faces.
func (b *Box) pointPenetrationDepth(pt r3.Vector) float64 {
	direction := pt.Sub(b.pose.Point())
	rm := b.pose.Orientation().RotationMatrix()
	min := float64(999999999)
	for i := 0; i < 3; i++ {
		dist := b.halfSize[i] - math.Abs(direction.Dot(rm.Col(i)))
		if dist < min {
			min = dist
		}
	}
	return min
}

// DistanceFromPoint returns the distance from the given point to the surface of the
// box, negative if the point is inside.
func (b *Box) DistanceFromPoint(pt r3.Vector) float64 {
	closest := b.closestPoint(pt)
	if closest.Sub(pt).Norm() > 1e-12 {
		return closest.Sub(pt).Norm()
	}
	return -b.pointPenetrationDepth(pt)
}

// ToMesh converts a box to a mesh consisting of 12 triangles (two per face).
func (b *Box) ToMesh() *Mesh {
	verts := b.Vertices()
	// vertices are ordered (+++)(++-)(+-+)(+--)(-++)(-+-)(--+)(---)
	triangleIndices := [12][3]int{
		{0, 1, 3}, {0, 3, 2}, // +x face
		{4, 7, 5}, {4, 6, 7}, // -x face
		{0, 5, 1}, {0, 4, 5}, // +y face
		{2, 3, 7}, {2, 7, 6}, // -y face
		{0, 2, 6}, {0, 6, 4}, // +z face
		{1, 5, 7}, {1, 7, 3}, // -z face
	}
	triangles := make([]*Triangle, 0, 12)
	for _, idx := range triangleIndices {
		triangles = append(triangles, NewTriangle(verts[idx[0]], verts[idx[1]], verts[idx[2]]))
	}
	return NewMesh(NewZeroPose(), triangles)
}
