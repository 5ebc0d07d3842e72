package robot

import (
	"context"
	"sync"

	"github.com/edaniels/golog"

	frame "go.viam.com/manipulation/referenceframe"
)

// FakeArm is an in-memory ExecutionContext that simply records what it is commanded.
// Finger gap readings can be injected to script grasp verification outcomes in tests.
type FakeArm struct {
	mu              sync.Mutex
	model           *frame.Model
	inputs          []frame.Input
	gripperPosition float64
	gapReadings     []float64
	logger          golog.Logger

	// MoveCount records how many joint commands have been applied.
	MoveCount int
}

// NewFakeArm returns a fake Panda at its home position with the gripper open.
func NewFakeArm(logger golog.Logger) *FakeArm {
	return &FakeArm{
		model:           frame.NewPandaModel(),
		inputs:          frame.PandaHomePosition(),
		gripperPosition: 0.04,
		logger:          logger,
	}
}

// Model returns the kinematic model of the arm.
func (a *FakeArm) Model() *frame.Model {
	return a.model
}

// CurrentInputs returns the last commanded joint configuration.
func (a *FakeArm) CurrentInputs(ctx context.Context) ([]frame.Input, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	held := make([]frame.Input, len(a.inputs))
	copy(held, a.inputs)
	return held, nil
}

// GoToInputs records a joint command after validating it against the joint limits.
func (a *FakeArm) GoToInputs(ctx context.Context, inputs []frame.Input) error {
	if _, err := a.model.Transform(inputs); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.inputs = make([]frame.Input, len(inputs))
	copy(a.inputs, inputs)
	a.MoveCount++
	return nil
}

// MoveGripper records a finger position command.
func (a *FakeArm) MoveGripper(ctx context.Context, position float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gripperPosition = position
	return nil
}

// GripperPosition returns the last commanded finger position.
func (a *FakeArm) GripperPosition() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gripperPosition
}

// FingerGap returns the next injected reading, or twice the commanded finger position
// when no readings are queued.
func (a *FakeArm) FingerGap(ctx context.Context) (float64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.gapReadings) > 0 {
		reading := a.gapReadings[0]
		a.gapReadings = a.gapReadings[1:]
		return reading, nil
	}
	return 2 * a.gripperPosition, nil
}

// InjectFingerGapReadings queues measured finger gaps to be returned by FingerGap in
// order.
func (a *FakeArm) InjectFingerGapReadings(readings ...float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gapReadings = append(a.gapReadings, readings...)
}
