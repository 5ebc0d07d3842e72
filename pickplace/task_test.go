package pickplace

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/manipulation/grasp"
	"go.viam.com/manipulation/obstacle"
	"go.viam.com/manipulation/robot"
	spatial "go.viam.com/manipulation/spatialmath"
)

// countingGeometry serves the standard test object, a 0.06m x 0.03m footprint box
// 0.04m tall centered at (0.5, 0, 0.02), and counts how often it is re-acquired.
type countingGeometry struct {
	mu    sync.Mutex
	calls int
}

func (g *countingGeometry) ObjectGeometry(ctx context.Context) (*grasp.Object, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	box, err := spatial.NewBox(
		spatial.NewPoseFromPoint(r3.Vector{X: 0.5, Y: 0, Z: 0.02}),
		r3.Vector{X: 0.06, Y: 0.03, Z: 0.04},
		"target",
	)
	if err != nil {
		return nil, err
	}
	return &grasp.Object{Box: box}, nil
}

func (g *countingGeometry) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// scriptedObstacles returns a settable obstacle snapshot.
type scriptedObstacles struct {
	mu     sync.Mutex
	states []obstacle.State
}

func (o *scriptedObstacles) ObstacleStates() ([]obstacle.State, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	held := make([]obstacle.State, len(o.states))
	copy(held, o.states)
	return held, nil
}

func (o *scriptedObstacles) set(states []obstacle.State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.states = states
}

func clearObstacles() []obstacle.State {
	return []obstacle.State{
		{Center: r3.Vector{X: 0.0, Y: 0.4, Z: 0.1}, Radius: 0.05},
		{Center: r3.Vector{X: 0.3, Y: -0.4, Z: 0.1}, Radius: 0.03},
	}
}

func clearConditions() []obstacle.ClearCondition {
	return []obstacle.ClearCondition{
		{Axis: obstacle.AxisX, Threshold: 0.03},
		{Axis: obstacle.AxisY, Threshold: 0.03},
	}
}

func testConfig(arm *robot.FakeArm, geometry GeometryProvider, obstacles obstacle.Provider) Config {
	return Config{
		Robot:           arm,
		Geometry:        geometry,
		Obstacles:       obstacles,
		ClearConditions: clearConditions(),
		DropPosition:    r3.Vector{X: 0.45, Y: 0.15, Z: 0.35},
	}
}

func TestStateTransitions(t *testing.T) {
	cases := []struct {
		from State
		ev   event
		to   State
	}{
		{StatePerceive, eventSucceeded, StateSelectGrasp},
		{StatePerceive, eventFailed, StateRetry},
		{StateSelectGrasp, eventSucceeded, StateMoveToApproach},
		{StateMoveToApproach, eventSucceeded, StateMoveToGrasp},
		{StateMoveToGrasp, eventSucceeded, StateCloseGripper},
		{StateCloseGripper, eventSucceeded, StateVerify},
		{StateVerify, eventSucceeded, StateSuccess},
		{StateVerify, eventFailed, StateRetry},
		{StateSuccess, eventSucceeded, StatePlanTransit},
		{StateRetry, eventSucceeded, StatePerceive},
		{StateRetry, eventFailed, StateFail},
		{StatePlanTransit, eventSucceeded, StateExecuteTransit},
		{StatePlanTransit, eventFailed, StateRetry},
		{StateExecuteTransit, eventSucceeded, StateWaitObstaclesClear},
		{StateExecuteTransit, eventFailed, StatePlanTransit},
		{StateWaitObstaclesClear, eventSucceeded, StateRelease},
		{StateRelease, eventSucceeded, StateDone},
	}
	for _, c := range cases {
		next, err := transition(c.from, c.ev)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, next, test.ShouldEqual, c.to)
	}

	test.That(t, StateDone.terminal(), test.ShouldBeTrue)
	test.That(t, StateFail.terminal(), test.ShouldBeTrue)
	test.That(t, StateVerify.terminal(), test.ShouldBeFalse)

	_, err := transition(StateDone, eventSucceeded)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestNewTaskValidation(t *testing.T) {
	logger := golog.NewTestLogger(t)
	_, err := NewTask(Config{}, logger, nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "execution context")
	test.That(t, err.Error(), test.ShouldContainSubstring, "geometry provider")
	test.That(t, err.Error(), test.ShouldContainSubstring, "obstacle provider")
}

func TestRetryBudgetExhaustion(t *testing.T) {
	logger := golog.NewTestLogger(t)
	arm := robot.NewFakeArm(logger)
	geometry := &countingGeometry{}
	obstacles := &scriptedObstacles{states: clearObstacles()}

	//nolint:gosec
	task, err := NewTaskWithSeed(testConfig(arm, geometry, obstacles), rand.New(rand.NewSource(3)), logger,
		map[string]interface{}{"sample_budget": 300, "max_iterations": 200})
	test.That(t, err, test.ShouldBeNil)

	// three empty grasps in a row, then a good reading that must never be reached
	arm.InjectFingerGapReadings(0.001, 0.001, 0.001, 0.03)

	err = task.Run(context.Background())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, ErrManipulationFailed), test.ShouldBeTrue)
	test.That(t, task.Attempts(), test.ShouldEqual, 3)
	test.That(t, geometry.count(), test.ShouldEqual, 3)
}

func TestRunDeliversObject(t *testing.T) {
	logger := golog.NewTestLogger(t)
	arm := robot.NewFakeArm(logger)
	geometry := &countingGeometry{}
	obstacles := &scriptedObstacles{states: clearObstacles()}

	//nolint:gosec
	task, err := NewTaskWithSeed(testConfig(arm, geometry, obstacles), rand.New(rand.NewSource(3)), logger,
		map[string]interface{}{"sample_budget": 300, "max_iterations": 200})
	test.That(t, err, test.ShouldBeNil)

	// the fingers stop on the 0.03m wide object
	arm.InjectFingerGapReadings(0.03)

	err = task.Run(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, task.Attempts(), test.ShouldEqual, 0)
	test.That(t, geometry.count(), test.ShouldEqual, 1)

	// gripper released at the drop position
	test.That(t, arm.GripperPosition(), test.ShouldAlmostEqual, 0.04)
	inputs, err := arm.CurrentInputs(context.Background())
	test.That(t, err, test.ShouldBeNil)
	pose, err := arm.Model().Transform(inputs)
	test.That(t, err, test.ShouldBeNil)
	drop := r3.Vector{X: 0.45, Y: 0.15, Z: 0.35}
	test.That(t, pose.Point().Sub(drop).Norm(), test.ShouldBeLessThan, 0.05)
}

func TestWaitObstaclesClear(t *testing.T) {
	logger := golog.NewTestLogger(t)
	arm := robot.NewFakeArm(logger)
	geometry := &countingGeometry{}
	obstacles := &scriptedObstacles{states: []obstacle.State{
		// first obstacle still over the drop zone
		{Center: r3.Vector{X: 0.3, Y: 0.4, Z: 0.1}, Radius: 0.05},
		{Center: r3.Vector{X: 0.3, Y: -0.4, Z: 0.1}, Radius: 0.03},
	}}

	mock := clock.NewMock()
	cfg := testConfig(arm, geometry, obstacles)
	cfg.Clock = mock
	task, err := NewTask(cfg, logger, nil)
	test.That(t, err, test.ShouldBeNil)

	done := make(chan event)
	go func() {
		ev, waitErr := task.waitObstaclesClear(context.Background())
		test.That(t, waitErr, test.ShouldBeNil)
		done <- ev
	}()

	// the wait must hold while the first obstacle is not clear
	time.Sleep(50 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("released before obstacles were clear")
	default:
	}

	obstacles.set(clearObstacles())
	mock.Add(200 * time.Millisecond)
	select {
	case ev := <-done:
		test.That(t, ev, test.ShouldEqual, eventSucceeded)
	case <-time.After(5 * time.Second):
		t.Fatal("wait did not observe cleared obstacles")
	}
}

func TestWaitObstaclesClearCancellation(t *testing.T) {
	logger := golog.NewTestLogger(t)
	arm := robot.NewFakeArm(logger)
	geometry := &countingGeometry{}
	obstacles := &scriptedObstacles{states: []obstacle.State{
		{Center: r3.Vector{X: 0.3, Y: 0.4, Z: 0.1}, Radius: 0.05},
		{Center: r3.Vector{X: 0.3, Y: -0.4, Z: 0.1}, Radius: 0.03},
	}}

	cfg := testConfig(arm, geometry, obstacles)
	task, err := NewTask(cfg, logger, nil)
	test.That(t, err, test.ShouldBeNil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = task.waitObstaclesClear(ctx)
	test.That(t, err, test.ShouldEqual, context.Canceled)
}
