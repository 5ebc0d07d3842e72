package motionplan

import (
	"github.com/golang/geo/r3"

	frame "go.viam.com/manipulation/referenceframe"
)

// Trajectory is an ordered sequence of joint configurations from a start to a goal.
type Trajectory struct {
	Steps [][]frame.Input
}

// Cost returns the total joint space path length of the trajectory.
func (t *Trajectory) Cost() float64 {
	cost := 0.
	for i := 1; i < len(t.Steps); i++ {
		cost += frame.InputsL2Distance(t.Steps[i-1], t.Steps[i])
	}
	return cost
}

// Interpolate returns a copy of the trajectory with each segment subdivided so that no
// two adjacent steps are further apart than the given joint space resolution.
func (t *Trajectory) Interpolate(resolution float64) *Trajectory {
	if len(t.Steps) == 0 {
		return &Trajectory{}
	}
	steps := [][]frame.Input{t.Steps[0]}
	for i := 1; i < len(t.Steps); i++ {
		from, to := t.Steps[i-1], t.Steps[i]
		subdivisions := int(frame.InputsL2Distance(from, to) / resolution)
		for s := 1; s <= subdivisions; s++ {
			steps = append(steps, frame.InterpolateInputs(from, to, float64(s)/float64(subdivisions+1)))
		}
		steps = append(steps, to)
	}
	return &Trajectory{Steps: steps}
}

// CartesianWaypoints maps the trajectory through the model's forward kinematics,
// returning the end effector position at each step. This is the reference path handed
// to the local planner.
func (t *Trajectory) CartesianWaypoints(model *frame.Model) ([]r3.Vector, error) {
	waypoints := make([]r3.Vector, 0, len(t.Steps))
	for _, step := range t.Steps {
		pose, err := model.Transform(step)
		if err != nil {
			return nil, err
		}
		waypoints = append(waypoints, pose.Point())
	}
	return waypoints, nil
}
