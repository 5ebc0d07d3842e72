// Package obstacle tracks the state of moving spherical obstacles in the workspace.
//
// Obstacle positions arrive as surface observations from an external tracker and are
// compensated to sphere centers here. Each obstacle also carries a clear condition, a
// threshold on one world axis that marks when the obstacle has moved away from the
// target area enough for a held object to be released.
package obstacle

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Axis selects a world coordinate axis for a clear condition.
type Axis int

// The world axes an obstacle clear condition can be defined on.
const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	}
	return "unknown"
}

// Component returns the coordinate of the given vector along the axis.
func (a Axis) Component(v r3.Vector) float64 {
	switch a {
	case AxisY:
		return v.Y
	case AxisZ:
		return v.Z
	default:
		return v.X
	}
}

// State is the tracked state of a single spherical obstacle.
type State struct {
	Center r3.Vector
	Radius float64
}

// NewStateFromSurfacePoint builds an obstacle state from a surface observation. The
// observed point lies on the sphere surface nearest the observer, so the center is the
// observation pushed one radius further along the viewing ray.
func NewStateFromSurfacePoint(observer, surface r3.Vector, radius float64) (State, error) {
	if radius <= 0 {
		return State{}, errors.Errorf("obstacle radius must be positive, got %f", radius)
	}
	ray := surface.Sub(observer)
	if ray.Norm() == 0 {
		return State{}, errors.New("obstacle surface observation coincides with the observer")
	}
	return State{
		Center: surface.Add(ray.Normalize().Mul(radius)),
		Radius: radius,
	}, nil
}

// ClearCondition is a threshold on one axis of an obstacle's center. The obstacle counts
// as clear of the target area once its coordinate on that axis drops below the threshold.
type ClearCondition struct {
	Axis      Axis
	Threshold float64
}

// Clear reports whether the obstacle satisfies the given clear condition.
func (s State) Clear(cond ClearCondition) bool {
	return cond.Axis.Component(s.Center) < cond.Threshold
}

// AllClear reports whether every obstacle satisfies its paired clear condition. The two
// slices must be the same length; extra obstacles without conditions are never clear.
func AllClear(states []State, conds []ClearCondition) bool {
	if len(states) != len(conds) {
		return false
	}
	for i, s := range states {
		if !s.Clear(conds[i]) {
			return false
		}
	}
	return true
}

// Provider supplies live obstacle states from an external tracker.
type Provider interface {
	ObstacleStates() ([]State, error)
}
