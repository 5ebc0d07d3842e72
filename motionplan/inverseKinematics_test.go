package motionplan

import (
	"context"
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	frame "go.viam.com/manipulation/referenceframe"
	spatial "go.viam.com/manipulation/spatialmath"
)

func TestIKSolveReachablePose(t *testing.T) {
	logger := golog.NewTestLogger(t)
	model := frame.NewPandaModel()
	ik, err := NewIKSolver(model, logger, nil)
	test.That(t, err, test.ShouldBeNil)

	home := frame.PandaHomePosition()
	homePose, err := model.Transform(home)
	test.That(t, err, test.ShouldBeNil)

	// a goal a few centimeters from the home pose with the same orientation
	goal := spatial.NewPose(homePose.Point().Add(r3.Vector{X: 0.05, Z: -0.03}), homePose.Orientation())
	solution, err := ik.Solve(context.Background(), goal, home)
	test.That(t, err, test.ShouldBeNil)

	// the solution must reach the goal and stay within the joint limits
	solved, err := model.Transform(solution)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatial.PoseAlmostCoincidentEps(solved, goal, 1e-2), test.ShouldBeTrue)
	test.That(t, frame.InputsAtLimits(model, solution), test.ShouldBeFalse)
}

func TestIKIdempotence(t *testing.T) {
	logger := golog.NewTestLogger(t)
	model := frame.NewPandaModel()
	ik, err := NewIKSolver(model, logger, nil)
	test.That(t, err, test.ShouldBeNil)

	// solving for a pose already reached returns the seed unchanged
	for _, seed := range [][]frame.Input{
		frame.PandaHomePosition(),
		frame.FloatsToInputs([]float64{0.3, -0.5, 0.2, -2, 0.1, 1.5, 0}),
	} {
		pose, err := model.Transform(seed)
		test.That(t, err, test.ShouldBeNil)
		solution, err := ik.Solve(context.Background(), pose, seed)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, frame.InputsL2Distance(seed, solution), test.ShouldAlmostEqual, 0)
	}
}

func TestIKDivergence(t *testing.T) {
	logger := golog.NewTestLogger(t)
	model := frame.NewPandaModel()
	ik, err := NewIKSolver(model, logger, nil)
	test.That(t, err, test.ShouldBeNil)

	// three meters away is outside the reachable workspace
	goal := spatial.NewPoseFromPoint(r3.Vector{X: 3})
	_, err = ik.Solve(context.Background(), goal, frame.PandaHomePosition())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, ErrIKDivergence), test.ShouldBeTrue)
}

func TestIKOptionOverrides(t *testing.T) {
	logger := golog.NewTestLogger(t)
	model := frame.NewPandaModel()
	ik, err := NewIKSolver(model, logger, map[string]interface{}{"max_iterations": 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ik.opts.MaxIterations, test.ShouldEqual, 1)
	test.That(t, ik.opts.Damping, test.ShouldAlmostEqual, defaultDamping)

	home := frame.PandaHomePosition()
	homePose, err := model.Transform(home)
	test.That(t, err, test.ShouldBeNil)

	// a single iteration cannot close a ten centimeter gap
	goal := spatial.NewPose(homePose.Point().Add(r3.Vector{X: 0.1}), homePose.Orientation())
	_, err = ik.Solve(context.Background(), goal, home)
	test.That(t, errors.Is(err, ErrIKDivergence), test.ShouldBeTrue)
}

func TestIKSolveSegmented(t *testing.T) {
	logger := golog.NewTestLogger(t)
	model := frame.NewPandaModel()
	ik, err := NewIKSolver(model, logger, nil)
	test.That(t, err, test.ShouldBeNil)

	home := frame.PandaHomePosition()
	homePose, err := model.Transform(home)
	test.That(t, err, test.ShouldBeNil)

	goal := spatial.NewPose(homePose.Point().Add(r3.Vector{Y: 0.04}), homePose.Orientation())
	configurations, err := ik.SolveSegmented(context.Background(), goal, home, 5)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(configurations), test.ShouldBeGreaterThan, 0)

	// the final configuration reaches the goal regardless of decomposition
	final, err := model.Transform(configurations[len(configurations)-1])
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatial.PoseAlmostCoincidentEps(final, goal, 1e-2), test.ShouldBeTrue)

	// an unreachable goal fails even with decomposition
	_, err = ik.SolveSegmented(context.Background(), spatial.NewPoseFromPoint(r3.Vector{Z: 5}), home, 3)
	test.That(t, errors.Is(err, ErrIKDivergence), test.ShouldBeTrue)
}

func TestIKRespectsCancellation(t *testing.T) {
	logger := golog.NewTestLogger(t)
	model := frame.NewPandaModel()
	ik, err := NewIKSolver(model, logger, nil)
	test.That(t, err, test.ShouldBeNil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ik.Solve(ctx, spatial.NewPoseFromPoint(r3.Vector{X: 0.4, Z: 0.4}), frame.PandaHomePosition())
	test.That(t, err, test.ShouldBeError, context.Canceled)
}
