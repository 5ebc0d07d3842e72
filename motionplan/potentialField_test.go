package motionplan

import (
	"context"
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/manipulation/obstacle"
)

func TestRepulsionProfile(t *testing.T) {
	logger := golog.NewTestLogger(t)
	pf, err := NewPotentialFieldPlanner(logger, nil)
	test.That(t, err, test.ShouldBeNil)

	obs := obstacle.State{Center: r3.Vector{}, Radius: 0.05}
	effectiveRadius := defaultEffectiveRadiusBase + defaultEffectiveRadiusScale*obs.Radius

	// exactly zero at and beyond the effective radius
	test.That(t, pf.repulsion(r3.Vector{X: effectiveRadius}, obs).Norm(), test.ShouldEqual, 0)
	test.That(t, pf.repulsion(r3.Vector{X: 2 * effectiveRadius}, obs).Norm(), test.ShouldEqual, 0)

	// monotonically decreasing magnitude with distance inside the effective radius
	prev := pf.repulsion(r3.Vector{X: 0.01}, obs).Norm()
	test.That(t, prev, test.ShouldBeGreaterThan, 0)
	for _, d := range []float64{0.05, 0.1, 0.15, 0.19} {
		mag := pf.repulsion(r3.Vector{X: d}, obs).Norm()
		test.That(t, mag, test.ShouldBeLessThan, prev)
		prev = mag
	}

	// direction points away from the obstacle center
	force := pf.repulsion(r3.Vector{X: 0.1}, obs)
	test.That(t, force.X, test.ShouldBeGreaterThan, 0)
	test.That(t, force.Y, test.ShouldAlmostEqual, 0)
}

func TestNextStep(t *testing.T) {
	logger := golog.NewTestLogger(t)
	pf, err := NewPotentialFieldPlanner(logger, nil)
	test.That(t, err, test.ShouldBeNil)

	// with no obstacles the step points straight at the goal, capped in length
	step := pf.NextStep(r3.Vector{}, r3.Vector{X: 1}, nil, nil)
	test.That(t, step.Norm(), test.ShouldAlmostEqual, defaultMaxStep, 1e-9)
	test.That(t, step.Y, test.ShouldAlmostEqual, 0)
	test.That(t, step.X, test.ShouldBeGreaterThan, 0)

	// an obstacle in the way bends the step off the straight line
	obstacles := []obstacle.State{{Center: r3.Vector{X: 0.05, Y: 0.01}, Radius: 0.05}}
	deflected := pf.NextStep(r3.Vector{}, r3.Vector{X: 1}, nil, obstacles)
	test.That(t, deflected.Y, test.ShouldBeLessThan, 0)

	// the reference path pulls the step toward itself
	path := []r3.Vector{{Y: 0.1}, {X: 1, Y: 0.1}}
	pulled := pf.NextStep(r3.Vector{}, r3.Vector{X: 1}, path, nil)
	test.That(t, pulled.Y, test.ShouldBeGreaterThan, 0)
}

func TestMoveReachesGoal(t *testing.T) {
	logger := golog.NewTestLogger(t)
	pf, err := NewPotentialFieldPlanner(logger, nil)
	test.That(t, err, test.ShouldBeNil)

	noObstacles := func() ([]obstacle.State, error) { return nil, nil }
	perfectActuation := func(target r3.Vector) (r3.Vector, error) { return target, nil }

	err = pf.Move(context.Background(), r3.Vector{}, r3.Vector{X: 0.2}, nil, noObstacles, perfectActuation)
	test.That(t, err, test.ShouldBeNil)
}

func TestMoveStalls(t *testing.T) {
	logger := golog.NewTestLogger(t)
	pf, err := NewPotentialFieldPlanner(logger, nil)
	test.That(t, err, test.ShouldBeNil)

	noObstacles := func() ([]obstacle.State, error) { return nil, nil }
	// the arm never moves no matter what is commanded
	stuck := func(r3.Vector) (r3.Vector, error) { return r3.Vector{}, nil }

	err = pf.Move(context.Background(), r3.Vector{}, r3.Vector{X: 0.5}, nil, noObstacles, stuck)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, ErrLocalPlanningStalled), test.ShouldBeTrue)
}

func TestMoveRespectsCancellation(t *testing.T) {
	logger := golog.NewTestLogger(t)
	pf, err := NewPotentialFieldPlanner(logger, nil)
	test.That(t, err, test.ShouldBeNil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = pf.Move(ctx, r3.Vector{}, r3.Vector{X: 0.5}, nil,
		func() ([]obstacle.State, error) { return nil, nil },
		func(target r3.Vector) (r3.Vector, error) { return target, nil },
	)
	test.That(t, err, test.ShouldBeError, context.Canceled)
}

func TestNearestPathPoint(t *testing.T) {
	path := []r3.Vector{{}, {X: 1}, {X: 1, Y: 1}}
	// query beside the first segment projects onto it
	pt := nearestPathPoint(path, r3.Vector{X: 0.5, Y: -1})
	test.That(t, pt.X, test.ShouldAlmostEqual, 0.5)
	test.That(t, pt.Y, test.ShouldAlmostEqual, 0)
	// query beyond the last vertex clamps to it
	pt = nearestPathPoint(path, r3.Vector{X: 2, Y: 2})
	test.That(t, pt.X, test.ShouldAlmostEqual, 1)
	test.That(t, pt.Y, test.ShouldAlmostEqual, 1)
}
