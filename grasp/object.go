package grasp

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/manipulation/pointcloud"
	spatial "go.viam.com/manipulation/spatialmath"
)

// Object is the perceived geometry of a grasp target: an oriented bounding box plus a
// mesh, a point cloud, or both.
type Object struct {
	// Box is the oriented bounding box of the object. Required.
	Box *spatial.Box

	// Mesh is the reconstructed surface of the object, used for ray casting and
	// collision testing when present.
	Mesh *spatial.Mesh

	// Cloud is the observed point cloud of the object.
	Cloud *pointcloud.PointCloud

	// CloudCollision forces collision tests against the point cloud instead of the
	// mesh. Set for objects whose reconstructed meshes are non-convex or low quality
	// enough that mesh distance queries are unreliable.
	CloudCollision bool
}

// Validate checks that the object carries enough geometry to be scored.
func (o *Object) Validate() error {
	if o.Box == nil {
		return errors.New("grasp target is missing a bounding box")
	}
	if o.CloudCollision && o.Cloud == nil {
		return errors.New("grasp target requests point cloud collision but has no cloud")
	}
	return nil
}

// rayMesh returns the surface the containment rays are cast against. When no mesh was
// reconstructed the bounding box stands in for it.
func (o *Object) rayMesh() *spatial.Mesh {
	if o.Mesh != nil {
		return o.Mesh
	}
	return o.Box.ToMesh()
}

// Centroid returns the best available estimate of the object's center of mass: the
// point cloud centroid when a cloud exists, the bounding box center otherwise.
func (o *Object) Centroid() r3.Vector {
	if o.Cloud != nil && o.Cloud.Size() > 0 {
		return o.Cloud.Centroid()
	}
	return o.Box.Pose().Point()
}

// Distance returns the distance from the given point to the object surface, negative
// when inside. Uses the mesh unless point cloud collision was requested.
func (o *Object) Distance(pt r3.Vector) float64 {
	if o.CloudCollision {
		return o.Cloud.NearestDistance(pt)
	}
	if o.Mesh != nil {
		return o.Mesh.DistanceFromPoint(pt)
	}
	return o.Box.DistanceFromPoint(pt)
}
