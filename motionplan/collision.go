package motionplan

import (
	"math"

	"go.viam.com/manipulation/obstacle"
	frame "go.viam.com/manipulation/referenceframe"
)

const (
	// Base clearance kept between any robot link point and any obstacle surface.
	defaultCollisionMargin = 0.05

	// Additional clearance per unit of obstacle radius, so larger obstacles are
	// avoided with proportionally larger margins.
	defaultMarginScale = 0.5
)

// collisionChecker validates joint configurations against a snapshot of spherical
// obstacles. A configuration collides when any link point falls within an obstacle's
// radius plus its scaled margin.
type collisionChecker struct {
	model       *frame.Model
	obstacles   []obstacle.State
	margin      float64
	marginScale float64
}

func newCollisionChecker(model *frame.Model, obstacles []obstacle.State) *collisionChecker {
	return &collisionChecker{
		model:       model,
		obstacles:   obstacles,
		margin:      defaultCollisionMargin,
		marginScale: defaultMarginScale,
	}
}

// clearance returns the minimum obstacle clearance over all link points at the given
// configuration, negative when in collision. Invalid configurations report -Inf.
func (c *collisionChecker) clearance(inputs []frame.Input) float64 {
	positions, err := c.model.LinkPositions(inputs)
	if err != nil {
		return math.Inf(-1)
	}
	min := math.Inf(1)
	for _, obs := range c.obstacles {
		keepOut := obs.Radius + c.margin + c.marginScale*obs.Radius
		for _, pt := range positions {
			if d := pt.Sub(obs.Center).Norm() - keepOut; d < min {
				min = d
			}
		}
	}
	return min
}

// checkInputs reports whether the configuration is collision free and within limits.
func (c *collisionChecker) checkInputs(inputs []frame.Input) bool {
	return c.clearance(inputs) > 0
}

// checkPath reports whether the straight joint space segment between two configurations
// is collision free, checked at the given resolution in radians.
func (c *collisionChecker) checkPath(from, to []frame.Input, resolution float64) bool {
	dist := frame.InputsL2Distance(from, to)
	steps := int(math.Ceil(dist / resolution))
	if steps < 1 {
		steps = 1
	}
	for i := 0; i <= steps; i++ {
		interp := frame.InterpolateInputs(from, to, float64(i)/float64(steps))
		if !c.checkInputs(interp) {
			return false
		}
	}
	return true
}
