// Package robot defines the execution surface the manipulation engine drives: the live
// arm and gripper, and a shadow state for evaluating configurations offline.
package robot

import (
	"context"

	frame "go.viam.com/manipulation/referenceframe"
)

// ExecutionContext is the live robot the engine commands. Joint configurations applied
// here move the physical (or simulated) arm; everything else in the engine is pure
// computation.
type ExecutionContext interface {
	// Model returns the kinematic model of the arm.
	Model() *frame.Model

	// CurrentInputs returns the current joint configuration of the arm.
	CurrentInputs(ctx context.Context) ([]frame.Input, error)

	// GoToInputs commands the arm to the given joint configuration.
	GoToInputs(ctx context.Context, inputs []frame.Input) error

	// MoveGripper commands both gripper fingers to the given position.
	MoveGripper(ctx context.Context, position float64) error

	// FingerGap returns the measured distance between the gripper fingers.
	FingerGap(ctx context.Context) (float64, error)
}
