// Package motionplan plans robot motions: an inverse kinematics solver, a global joint
// space planner, and a local Cartesian potential field controller.
package motionplan

import (
	"context"
	"encoding/json"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	frame "go.viam.com/manipulation/referenceframe"
	spatial "go.viam.com/manipulation/spatialmath"
)

const (
	// Damping factor of the least squares solver. Trades convergence speed for stability
	// near singular configurations.
	defaultDamping = 0.05

	// Number of solver iterations before giving up.
	defaultIKIterations = 50

	// Norm of the six element pose error below which a solution is accepted.
	defaultIKTolerance = 1e-3
)

type ikOptions struct {
	// Damping factor of the least squares solver.
	Damping float64 `json:"damping"`

	// Number of solver iterations before giving up.
	MaxIterations int `json:"max_iterations"`

	// Norm of the pose error below which a solution is accepted.
	Tolerance float64 `json:"tolerance"`
}

// newIKOptions creates a struct controlling the running of a single solver invocation.
// All values are pre-set to reasonable defaults, but can be tweaked if needed.
func newIKOptions(extra map[string]interface{}) (*ikOptions, error) {
	opts := &ikOptions{
		Damping:       defaultDamping,
		MaxIterations: defaultIKIterations,
		Tolerance:     defaultIKTolerance,
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

// InverseKinematicsSolver solves for joint configurations reaching a goal pose using
// damped least squares iteration. It is a pure function of its inputs and commits
// nothing to the live robot.
type InverseKinematicsSolver struct {
	model  *frame.Model
	logger golog.Logger
	opts   *ikOptions
}

// NewIKSolver creates an InverseKinematicsSolver for the given model. Algorithm
// parameters may be overridden through the extra map.
func NewIKSolver(model *frame.Model, logger golog.Logger, extra map[string]interface{}) (*InverseKinematicsSolver, error) {
	opts, err := newIKOptions(extra)
	if err != nil {
		return nil, err
	}
	return &InverseKinematicsSolver{model: model, logger: logger, opts: opts}, nil
}

// Model returns the kinematic model the solver plans for.
func (ik *InverseKinematicsSolver) Model() *frame.Model {
	return ik.model
}

// Solve runs damped least squares iteration from the seed configuration toward the goal
// pose. Joint values are clamped to their limits after every update so the returned
// configuration is always valid. Returns ErrIKDivergence if the iteration budget is
// exhausted before the pose error drops below tolerance.
func (ik *InverseKinematicsSolver) Solve(ctx context.Context, goal spatial.Pose, seed []frame.Input) ([]frame.Input, error) {
	limits := ik.model.DoF()
	if len(seed) != len(limits) {
		return nil, frame.NewIncorrectInputLengthError(len(seed), len(limits))
	}
	q := frame.ClampToLimits(seed, limits)
	dof := len(q)

	errNorm := 0.
	for iteration := 0; iteration < ik.opts.MaxIterations; iteration++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		pose, err := ik.model.Transform(q)
		if err != nil {
			return nil, err
		}
		poseErr := spatial.PoseDelta(pose, goal)
		errNorm = floats.Norm(poseErr, 2)
		if errNorm < ik.opts.Tolerance {
			ik.logger.Debugf("ik converged in %d iterations with error %.2e", iteration, errNorm)
			return q, nil
		}

		jacobian, err := ik.model.Jacobian(q)
		if err != nil {
			return nil, err
		}

		// solve (J^T J + damping^2 I) dq = J^T e
		var jtj mat.Dense
		jtj.Mul(jacobian.T(), jacobian)
		for i := 0; i < dof; i++ {
			jtj.Set(i, i, jtj.At(i, i)+ik.opts.Damping*ik.opts.Damping)
		}
		var jte mat.VecDense
		jte.MulVec(jacobian.T(), mat.NewVecDense(6, poseErr))
		var dq mat.VecDense
		if err := dq.SolveVec(&jtj, &jte); err != nil {
			return nil, errors.Wrap(err, "ik normal equations are singular")
		}

		for i := 0; i < dof; i++ {
			q[i] = frame.Input{Value: q[i].Value + dq.AtVec(i)}
		}
		q = frame.ClampToLimits(q, limits)
	}
	return nil, errors.Wrapf(ErrIKDivergence, "error norm %.5f after %d iterations", errNorm, ik.opts.MaxIterations)
}

// SolveSegmented attempts a direct solve toward the goal pose, and on divergence retries
// by decomposing the Cartesian straight line into the given number of segments, solving
// toward each intermediate pose in turn. The returned configurations end at the goal.
func (ik *InverseKinematicsSolver) SolveSegmented(
	ctx context.Context,
	goal spatial.Pose,
	seed []frame.Input,
	segments int,
) ([][]frame.Input, error) {
	if direct, err := ik.Solve(ctx, goal, seed); err == nil {
		return [][]frame.Input{direct}, nil
	} else if !errors.Is(err, ErrIKDivergence) {
		return nil, err
	}

	start, err := ik.model.Transform(frame.ClampToLimits(seed, ik.model.DoF()))
	if err != nil {
		return nil, err
	}
	ik.logger.Debugf("direct ik solve diverged, decomposing into %d segments", segments)

	configurations := make([][]frame.Input, 0, segments)
	q := seed
	for s := 1; s <= segments; s++ {
		target := spatial.Interpolate(start, goal, float64(s)/float64(segments))
		q, err = ik.Solve(ctx, target, q)
		if err != nil {
			return nil, errors.Wrapf(err, "segment %d of %d", s, segments)
		}
		configurations = append(configurations, q)
	}
	return configurations, nil
}
