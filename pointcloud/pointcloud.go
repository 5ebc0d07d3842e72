// Package pointcloud defines a point cloud and provides an implementation for one.
//
// Its points can be accessed by iteration and are used by the grasp scorer as a
// fallback collision representation when no mesh is available for a target object.
package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

// PointCloud is a set of 3D points.
type PointCloud struct {
	points []r3.Vector
}

// New returns an empty PointCloud.
func New() *PointCloud {
	return &PointCloud{}
}

// NewFromPoints returns a PointCloud backed by the given points.
func NewFromPoints(points []r3.Vector) *PointCloud {
	return &PointCloud{points: points}
}

// Size returns the number of points in the cloud.
func (cloud *PointCloud) Size() int {
	return len(cloud.points)
}

// Add appends a point to the cloud.
func (cloud *PointCloud) Add(p r3.Vector) {
	cloud.points = append(cloud.points, p)
}

// At returns the i'th point of the cloud.
func (cloud *PointCloud) At(i int) r3.Vector {
	return cloud.points[i]
}

// Iterate iterates over all points in the cloud, calling the given function for each
// point. If the function returns false the iteration stops early.
func (cloud *PointCloud) Iterate(fn func(p r3.Vector) bool) {
	for _, p := range cloud.points {
		if !fn(p) {
			return
		}
	}
}

// Centroid returns the mean position of all points in the cloud. The zero vector is
// returned for an empty cloud.
func (cloud *PointCloud) Centroid() r3.Vector {
	if len(cloud.points) == 0 {
		return r3.Vector{}
	}
	sum := r3.Vector{}
	for _, p := range cloud.points {
		sum = sum.Add(p)
	}
	return sum.Mul(1. / float64(len(cloud.points)))
}

// Bounds returns the axis aligned bounding box of the cloud as min and max corners.
func (cloud *PointCloud) Bounds() (r3.Vector, r3.Vector) {
	if len(cloud.points) == 0 {
		return r3.Vector{}, r3.Vector{}
	}
	min := cloud.points[0]
	max := cloud.points[0]
	for _, p := range cloud.points[1:] {
		min.X = math.Min(min.X, p.X)
		min.Y = math.Min(min.Y, p.Y)
		min.Z = math.Min(min.Z, p.Z)
		max.X = math.Max(max.X, p.X)
		max.Y = math.Max(max.Y, p.Y)
		max.Z = math.Max(max.Z, p.Z)
	}
	return min, max
}

// NearestDistance returns the distance from the given point to the nearest point in the
// cloud. Returns +Inf for an empty cloud.
func (cloud *PointCloud) NearestDistance(pt r3.Vector) float64 {
	best := math.Inf(1)
	for _, p := range cloud.points {
		if d := p.Sub(pt).Norm2(); d < best {
			best = d
		}
	}
	return math.Sqrt(best)
}

// RemoveStatisticalOutliers removes points whose mean distance to their meanK nearest
// neighbors is more than stddevMult standard deviations above the average such distance.
func (cloud *PointCloud) RemoveStatisticalOutliers(meanK int, stddevMult float64) (*PointCloud, error) {
	if meanK <= 0 {
		return nil, errors.Errorf("argument meanK must be a positive int, got %d", meanK)
	}
	if stddevMult <= 0 {
		return nil, errors.Errorf("argument stddevMult must be a positive float, got %.2f", stddevMult)
	}
	if len(cloud.points) <= meanK {
		return NewFromPoints(append([]r3.Vector{}, cloud.points...)), nil
	}

	avgDistances := make([]float64, len(cloud.points))
	for i, p := range cloud.points {
		neighborDists := make([]float64, 0, len(cloud.points)-1)
		for j, q := range cloud.points {
			if i == j {
				continue
			}
			neighborDists = append(neighborDists, p.Sub(q).Norm())
		}
		neighborDists = nearestK(neighborDists, meanK)
		avg, err := stats.Mean(neighborDists)
		if err != nil {
			return nil, err
		}
		avgDistances[i] = avg
	}

	mean, err := stats.Mean(avgDistances)
	if err != nil {
		return nil, err
	}
	stddev, err := stats.StandardDeviation(avgDistances)
	if err != nil {
		return nil, err
	}
	threshold := mean + stddevMult*stddev

	filtered := New()
	for i, p := range cloud.points {
		if avgDistances[i] <= threshold {
			filtered.Add(p)
		}
	}
	return filtered, nil
}

// nearestK returns the k smallest values of the input slice. The input is modified.
func nearestK(dists []float64, k int) []float64 {
	if len(dists) <= k {
		return dists
	}
	// a partial selection sort, k is small
	for i := 0; i < k; i++ {
		minIdx := i
		for j := i + 1; j < len(dists); j++ {
			if dists[j] < dists[minIdx] {
				minIdx = j
			}
		}
		dists[i], dists[minIdx] = dists[minIdx], dists[i]
	}
	return dists[:k]
}
