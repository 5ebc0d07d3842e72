package grasp

import (
	"math"

	"github.com/golang/geo/r3"

	spatial "go.viam.com/manipulation/spatialmath"
)

// score component weights and falloffs.
const (
	containmentWeight = 1.0
	depthWeight       = 0.5
	centeringWeight   = 1.0
	horizontalWeight  = 1.5

	// gaussian falloff of the centering score with distance to the crossing centroid.
	centeringSigma = 0.05

	// gaussian falloff of the horizontal centering score with horizontal distance to
	// the object centroid.
	horizontalSigma = 0.03
)

// score evaluates a single candidate pose against the object geometry. Returns nil when
// the candidate collides with the object or fails the containment hard gate.
func (g *Generator) score(pose spatial.Pose, obj *Object, mesh *spatial.Mesh) *Candidate {
	for _, pt := range g.gripper.SamplePoints(pose) {
		if obj.Distance(pt) < g.opts.CollisionClearance {
			return nil
		}
	}

	rm := pose.Orientation().RotationMatrix()
	xAxis, yAxis, zAxis := rm.Col(0), rm.Col(1), rm.Col(2)
	center := pose.Point()
	halfOpen := g.gripper.MaxOpening / 2

	crossings := 0
	depthSum := 0.
	depthCount := 0
	hitSum := r3.Vector{}
	hitCount := 0

	// one ray plane per finger, offset to either side of the grasp center along the
	// finger thickness direction
	for _, side := range []float64{1, -1} {
		planeCrossings := 0
		for i := 0; i < g.opts.RaysPerPlane; i++ {
			along := -g.gripper.FingerLength * float64(i) / float64(g.opts.RaysPerPlane-1)
			base := center.Add(zAxis.Mul(along)).Add(yAxis.Mul(side * g.gripper.PlaneOffset))

			// cast from both finger faces toward each other, recovering the
			// near side surface from each direction
			leftHits := mesh.RayIntersections(base.Sub(xAxis.Mul(halfOpen)), xAxis, g.gripper.MaxOpening)
			rightHits := mesh.RayIntersections(base.Add(xAxis.Mul(halfOpen)), xAxis.Mul(-1), g.gripper.MaxOpening)
			if len(leftHits) == 0 || len(rightHits) == 0 {
				continue
			}
			crossings++
			planeCrossings++

			// thickness of the object along the opening axis at this ray; skip
			// rays whose two sided hits disagree, crossing counts other than two
			// are possible on messy meshes
			if thickness := g.gripper.MaxOpening - leftHits[0].Distance - rightHits[0].Distance; thickness > 0 {
				depthSum += thickness / g.gripper.MaxOpening
				depthCount++
			}
			hitSum = hitSum.Add(leftHits[0].Point).Add(rightHits[0].Point)
			hitCount += 2
		}
		// hard safety gate: every finger plane must register at least one crossing
		if planeCrossings == 0 {
			return nil
		}
	}

	candidate := &Candidate{Pose: pose}
	candidate.Containment = float64(crossings) / float64(2*g.opts.RaysPerPlane)
	if depthCount > 0 {
		candidate.Depth = depthSum / float64(depthCount)
	}

	hitCentroid := hitSum.Mul(1 / float64(hitCount))
	candidate.Centering = gaussianScore(center.Sub(hitCentroid).Norm(), centeringSigma)

	objCentroid := obj.Centroid()
	horizontalDist := math.Hypot(center.X-objCentroid.X, center.Y-objCentroid.Y)
	candidate.HorizontalCentering = gaussianScore(horizontalDist, horizontalSigma)

	candidate.Total = containmentWeight*candidate.Containment +
		depthWeight*candidate.Depth +
		centeringWeight*candidate.Centering +
		horizontalWeight*candidate.HorizontalCentering
	return candidate
}

func gaussianScore(dist, sigma float64) float64 {
	return math.Exp(-(dist * dist) / (2 * sigma * sigma))
}
