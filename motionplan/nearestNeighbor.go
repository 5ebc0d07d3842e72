package motionplan

import (
	"math"

	frame "go.viam.com/manipulation/referenceframe"
)

// node is a single tree vertex. Nodes live in a flat arena slice and refer to their
// parent by index, -1 for the root.
type node struct {
	q      []frame.Input
	parent int
	cost   float64
}

// nearestNode returns the index of the tree node closest to the target configuration.
func nearestNode(arena []node, target []frame.Input) int {
	bestDist := math.Inf(1)
	best := 0
	for i := range arena {
		if dist := frame.InputsL2Distance(arena[i].q, target); dist < bestDist {
			bestDist = dist
			best = i
		}
	}
	return best
}

// neighborsWithinRadius returns the indices of all tree nodes within the given joint
// space radius of the target configuration.
func neighborsWithinRadius(arena []node, target []frame.Input, radius float64) []int {
	var neighbors []int
	for i := range arena {
		if frame.InputsL2Distance(arena[i].q, target) <= radius {
			neighbors = append(neighbors, i)
		}
	}
	return neighbors
}
