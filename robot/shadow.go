package robot

import (
	"context"

	frame "go.viam.com/manipulation/referenceframe"
	spatial "go.viam.com/manipulation/spatialmath"
)

// ShadowState is an offline copy of the arm's joint state. Candidate configurations can
// be set and inspected here without moving the live robot; only an explicit Commit
// applies the held configuration to an execution context.
type ShadowState struct {
	model  *frame.Model
	inputs []frame.Input
}

// NewShadowState creates a shadow of the given model at the given configuration.
func NewShadowState(model *frame.Model, inputs []frame.Input) (*ShadowState, error) {
	s := &ShadowState{model: model}
	if err := s.SetInputs(inputs); err != nil {
		return nil, err
	}
	return s, nil
}

// NewShadowStateFromContext creates a shadow initialized to the live robot's current
// configuration.
func NewShadowStateFromContext(ctx context.Context, exec ExecutionContext) (*ShadowState, error) {
	inputs, err := exec.CurrentInputs(ctx)
	if err != nil {
		return nil, err
	}
	return NewShadowState(exec.Model(), inputs)
}

// SetInputs replaces the shadow configuration, validating it against the joint limits.
func (s *ShadowState) SetInputs(inputs []frame.Input) error {
	if _, err := s.model.Transform(inputs); err != nil {
		return err
	}
	held := make([]frame.Input, len(inputs))
	copy(held, inputs)
	s.inputs = held
	return nil
}

// Inputs returns the currently held configuration.
func (s *ShadowState) Inputs() []frame.Input {
	return s.inputs
}

// EndEffectorPose returns the end effector pose at the held configuration.
func (s *ShadowState) EndEffectorPose() (spatial.Pose, error) {
	return s.model.Transform(s.inputs)
}

// Commit applies the held configuration to the live robot.
func (s *ShadowState) Commit(ctx context.Context, exec ExecutionContext) error {
	return exec.GoToInputs(ctx, s.inputs)
}
