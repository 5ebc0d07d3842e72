package motionplan

import (
	"context"
	"encoding/json"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/manipulation/obstacle"
)

const (
	// Gain on the attraction toward the goal position.
	defaultAttractiveGain = 1.0

	// Gain on the attraction toward the nearest point of the reference path.
	defaultPathGain = 0.5

	// Gain on the repulsion away from obstacle centers.
	defaultRepulsiveGain = 0.005

	// Clearance added to an obstacle's physical radius to form the distance at which
	// repulsion starts acting.
	defaultEffectiveRadiusBase = 0.1

	// Additional effective radius per unit of obstacle radius.
	defaultEffectiveRadiusScale = 2.0

	// Largest Cartesian displacement produced in a single control step.
	defaultMaxStep = 0.02

	// Number of control steps before the controller gives up.
	defaultStepBudget = 500

	// Distance to the goal below which the move is complete.
	defaultGoalTolerance = 0.02

	// Number of trailing steps over which progress is measured.
	defaultStallWindow = 20

	// Minimum distance the end effector must cover over the stall window.
	defaultStallThreshold = 1e-4
)

type potentialFieldOptions struct {
	// Gain on the attraction toward the goal position.
	AttractiveGain float64 `json:"attractive_gain"`

	// Gain on the attraction toward the nearest point of the reference path.
	PathGain float64 `json:"path_gain"`

	// Gain on the repulsion away from obstacle centers.
	RepulsiveGain float64 `json:"repulsive_gain"`

	// Clearance added to an obstacle's physical radius to form its effective radius.
	EffectiveRadiusBase float64 `json:"effective_radius_base"`

	// Additional effective radius per unit of obstacle radius.
	EffectiveRadiusScale float64 `json:"effective_radius_scale"`

	// Largest Cartesian displacement produced in a single control step.
	MaxStep float64 `json:"max_step"`

	// Number of control steps before the controller gives up.
	StepBudget int `json:"step_budget"`

	// Distance to the goal below which the move is complete.
	GoalTolerance float64 `json:"goal_tolerance"`

	// Number of trailing steps over which progress is measured.
	StallWindow int `json:"stall_window"`

	// Minimum distance the end effector must cover over the stall window.
	StallThreshold float64 `json:"stall_threshold"`
}

// newPotentialFieldOptions creates a struct controlling a single controller invocation.
// All values are pre-set to reasonable defaults, but can be tweaked if needed.
func newPotentialFieldOptions(extra map[string]interface{}) (*potentialFieldOptions, error) {
	opts := &potentialFieldOptions{
		AttractiveGain:       defaultAttractiveGain,
		PathGain:             defaultPathGain,
		RepulsiveGain:        defaultRepulsiveGain,
		EffectiveRadiusBase:  defaultEffectiveRadiusBase,
		EffectiveRadiusScale: defaultEffectiveRadiusScale,
		MaxStep:              defaultMaxStep,
		StepBudget:           defaultStepBudget,
		GoalTolerance:        defaultGoalTolerance,
		StallWindow:          defaultStallWindow,
		StallThreshold:       defaultStallThreshold,
	}
	// convert map to json
	jsonString, err := json.Marshal(extra)
	if err != nil {
		return nil, err
	}
	err = json.Unmarshal(jsonString, opts)
	if err != nil {
		return nil, err
	}
	return opts, nil
}

// PotentialFieldPlanner produces incremental Cartesian displacement commands for the end
// effector, blending attraction to the goal, attraction to the global reference path,
// and repulsion away from live obstacle states.
type PotentialFieldPlanner struct {
	logger golog.Logger
	opts   *potentialFieldOptions
}

// NewPotentialFieldPlanner creates a local planner. Parameters may be overridden
// through the extra map.
func NewPotentialFieldPlanner(logger golog.Logger, extra map[string]interface{}) (*PotentialFieldPlanner, error) {
	opts, err := newPotentialFieldOptions(extra)
	if err != nil {
		return nil, err
	}
	return &PotentialFieldPlanner{logger: logger, opts: opts}, nil
}

// GoalTolerance returns the distance to the goal at which a move completes.
func (pf *PotentialFieldPlanner) GoalTolerance() float64 {
	return pf.opts.GoalTolerance
}

// NextStep returns the Cartesian displacement for one control step from the current end
// effector position. The returned step never exceeds the configured maximum.
func (pf *PotentialFieldPlanner) NextStep(
	current, goal r3.Vector,
	path []r3.Vector,
	obstacles []obstacle.State,
) r3.Vector {
	force := goal.Sub(current).Mul(pf.opts.AttractiveGain)

	if len(path) > 0 {
		force = force.Add(nearestPathPoint(path, current).Sub(current).Mul(pf.opts.PathGain))
	}

	for _, obs := range obstacles {
		force = force.Add(pf.repulsion(current, obs))
	}

	if norm := force.Norm(); norm > pf.opts.MaxStep {
		force = force.Mul(pf.opts.MaxStep / norm)
	}
	return force
}

// repulsion is the classic inverse square barrier: zero at and beyond the effective
// radius, growing without bound as the distance to the obstacle center goes to zero.
func (pf *PotentialFieldPlanner) repulsion(current r3.Vector, obs obstacle.State) r3.Vector {
	effectiveRadius := pf.opts.EffectiveRadiusBase + pf.opts.EffectiveRadiusScale*obs.Radius
	away := current.Sub(obs.Center)
	dist := away.Norm()
	if dist >= effectiveRadius || dist == 0 {
		return r3.Vector{}
	}
	magnitude := pf.opts.RepulsiveGain * (1/dist - 1/effectiveRadius) / (dist * dist)
	return away.Mul(magnitude / dist)
}

// Move runs the control loop from the given position until the goal is within
// tolerance. Each step asks obstacles for a fresh snapshot, computes a displacement,
// and hands it to apply, which performs the motion and reports the achieved position.
// Returns ErrLocalPlanningStalled when the step budget runs out or the end effector
// stops making progress.
func (pf *PotentialFieldPlanner) Move(
	ctx context.Context,
	start, goal r3.Vector,
	path []r3.Vector,
	obstacles func() ([]obstacle.State, error),
	apply func(target r3.Vector) (r3.Vector, error),
) error {
	current := start
	history := make([]r3.Vector, 0, pf.opts.StepBudget)
	for step := 0; step < pf.opts.StepBudget; step++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if current.Sub(goal).Norm() < pf.opts.GoalTolerance {
			pf.logger.Debugf("local planner reached goal in %d steps", step)
			return nil
		}

		obs, err := obstacles()
		if err != nil {
			return err
		}
		next, err := apply(current.Add(pf.NextStep(current, goal, path, obs)))
		if err != nil {
			return err
		}
		current = next

		history = append(history, current)
		if len(history) > pf.opts.StallWindow {
			if current.Sub(history[len(history)-1-pf.opts.StallWindow]).Norm() < pf.opts.StallThreshold {
				return errors.Wrapf(ErrLocalPlanningStalled, "no progress over %d steps", pf.opts.StallWindow)
			}
		}
	}
	return errors.Wrapf(ErrLocalPlanningStalled, "step budget of %d exhausted", pf.opts.StepBudget)
}

// nearestPathPoint returns the point of the polyline closest to the query position.
func nearestPathPoint(path []r3.Vector, query r3.Vector) r3.Vector {
	best := path[0]
	bestDist := query.Sub(best).Norm2()
	for i := 1; i < len(path); i++ {
		candidate := closestPointOnSegment(path[i-1], path[i], query)
		if d := query.Sub(candidate).Norm2(); d < bestDist {
			best = candidate
			bestDist = d
		}
	}
	return best
}

func closestPointOnSegment(a, b, query r3.Vector) r3.Vector {
	ab := b.Sub(a)
	norm2 := ab.Norm2()
	if norm2 == 0 {
		return a
	}
	t := query.Sub(a).Dot(ab) / norm2
	if t <= 0 {
		return a
	} else if t >= 1 {
		return b
	}
	return a.Add(ab.Mul(t))
}
