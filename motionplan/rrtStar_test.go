package motionplan

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/manipulation/obstacle"
	frame "go.viam.com/manipulation/referenceframe"
	spatial "go.viam.com/manipulation/spatialmath"
)

// planarArm returns a two joint arm moving in the xy plane with half meter links.
func planarArm(t *testing.T) *frame.Model {
	t.Helper()
	model, err := frame.NewModel(
		"planar2R",
		[]frame.DHParam{
			{A: 0, D: 0, Alpha: 0},
			{A: 0.5, D: 0, Alpha: 0},
		},
		[]frame.Limit{
			{Min: -math.Pi, Max: math.Pi},
			{Min: -math.Pi, Max: math.Pi},
		},
		spatial.NewPoseFromPoint(r3.Vector{X: 0.5}),
	)
	test.That(t, err, test.ShouldBeNil)
	return model
}

func TestRRTStarFreeSpace(t *testing.T) {
	logger := golog.NewTestLogger(t)
	model := planarArm(t)
	//nolint:gosec
	mp := NewRRTStarMotionPlannerWithSeed(model, rand.New(rand.NewSource(42)), logger)

	start := frame.FloatsToInputs([]float64{0, 0})
	goal := frame.FloatsToInputs([]float64{1, 1})
	trajectory, err := mp.Plan(context.Background(), start, goal, nil, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(trajectory.Steps), test.ShouldBeGreaterThan, 1)

	// path begins at the start and ends exactly at the goal
	test.That(t, frame.InputsL2Distance(trajectory.Steps[0], start), test.ShouldAlmostEqual, 0)
	test.That(t, frame.InputsL2Distance(trajectory.Steps[len(trajectory.Steps)-1], goal), test.ShouldAlmostEqual, 0)

	// cost can never beat the straight line distance
	test.That(t, trajectory.Cost(), test.ShouldBeGreaterThanOrEqualTo, frame.InputsL2Distance(start, goal)-1e-9)
}

func TestRRTStarAvoidsObstacles(t *testing.T) {
	logger := golog.NewTestLogger(t)
	model := planarArm(t)
	//nolint:gosec
	mp := NewRRTStarMotionPlannerWithSeed(model, rand.New(rand.NewSource(7)), logger)

	// an obstacle sitting directly on the arc the outstretched arm would sweep
	obstacles := []obstacle.State{
		{Center: r3.Vector{X: math.Cos(math.Pi / 4), Y: math.Sin(math.Pi / 4)}, Radius: 0.05},
	}
	start := frame.FloatsToInputs([]float64{0, 0})
	goal := frame.FloatsToInputs([]float64{math.Pi / 2, 0})
	trajectory, err := mp.Plan(context.Background(), start, goal, obstacles, nil)
	test.That(t, err, test.ShouldBeNil)

	// no configuration along the path may put a link point inside the keep-out sphere
	checker := newCollisionChecker(model, obstacles)
	for i := 1; i < len(trajectory.Steps); i++ {
		test.That(t, checker.checkPath(trajectory.Steps[i-1], trajectory.Steps[i], 0.01), test.ShouldBeTrue)
	}
}

func TestRRTStarTimeout(t *testing.T) {
	logger := golog.NewTestLogger(t)
	model := planarArm(t)
	//nolint:gosec
	mp := NewRRTStarMotionPlannerWithSeed(model, rand.New(rand.NewSource(1)), logger)

	// five iterations of 0.2 steps cannot cover three radians
	planOpts := NewBasicPlannerOptions()
	planOpts.SetExtra("plan_iter", 5)
	start := frame.FloatsToInputs([]float64{0, 0})
	goal := frame.FloatsToInputs([]float64{3, 0})
	_, err := mp.Plan(context.Background(), start, goal, nil, planOpts)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, ErrPlanningTimeout), test.ShouldBeTrue)
}

func TestRRTStarRejectsCollidingEndpoints(t *testing.T) {
	logger := golog.NewTestLogger(t)
	model := planarArm(t)
	mp := NewRRTStarMotionPlanner(model, logger)

	// obstacle swallowing the outstretched start configuration
	obstacles := []obstacle.State{{Center: r3.Vector{X: 1}, Radius: 0.2}}
	start := frame.FloatsToInputs([]float64{0, 0})
	goal := frame.FloatsToInputs([]float64{math.Pi / 2, 0})
	_, err := mp.Plan(context.Background(), start, goal, obstacles, nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "start configuration")
}

func TestCollisionChecker(t *testing.T) {
	model := planarArm(t)
	obstacles := []obstacle.State{{Center: r3.Vector{X: 1}, Radius: 0.1}}
	checker := newCollisionChecker(model, obstacles)

	// outstretched along x, the end effector sits at the obstacle center
	test.That(t, checker.checkInputs(frame.FloatsToInputs([]float64{0, 0})), test.ShouldBeFalse)
	// pointing along y the arm is far away
	test.That(t, checker.checkInputs(frame.FloatsToInputs([]float64{math.Pi / 2, 0})), test.ShouldBeTrue)
	// the path between them sweeps through the obstacle
	test.That(t, checker.checkPath(
		frame.FloatsToInputs([]float64{math.Pi / 2, 0}),
		frame.FloatsToInputs([]float64{-math.Pi / 2, 0}),
		0.01,
	), test.ShouldBeFalse)
}

func TestTrajectoryInterpolate(t *testing.T) {
	trajectory := &Trajectory{Steps: [][]frame.Input{
		frame.FloatsToInputs([]float64{0, 0}),
		frame.FloatsToInputs([]float64{1, 0}),
	}}
	dense := trajectory.Interpolate(0.1)
	test.That(t, len(dense.Steps), test.ShouldBeGreaterThan, 9)
	// interpolation preserves endpoints and total cost
	test.That(t, dense.Steps[0][0].Value, test.ShouldAlmostEqual, 0)
	test.That(t, dense.Steps[len(dense.Steps)-1][0].Value, test.ShouldAlmostEqual, 1)
	test.That(t, dense.Cost(), test.ShouldAlmostEqual, trajectory.Cost(), 1e-9)
}

func TestCartesianWaypoints(t *testing.T) {
	model := planarArm(t)
	trajectory := &Trajectory{Steps: [][]frame.Input{
		frame.FloatsToInputs([]float64{0, 0}),
		frame.FloatsToInputs([]float64{math.Pi / 2, 0}),
	}}
	waypoints, err := trajectory.CartesianWaypoints(model)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, waypoints, test.ShouldHaveLength, 2)
	test.That(t, waypoints[0].X, test.ShouldAlmostEqual, 1, 1e-9)
	test.That(t, waypoints[1].Y, test.ShouldAlmostEqual, 1, 1e-9)
}
