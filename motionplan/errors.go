package motionplan

import "github.com/pkg/errors"

var (
	// ErrIKDivergence is returned when the damped least squares solver exhausts its
	// iteration budget without converging to the goal pose.
	ErrIKDivergence = errors.New("unable to solve for position, ik exceeded iteration budget")

	// ErrPlanningTimeout is returned when the global planner exhausts its iteration
	// budget without finding a path that reaches the goal configuration.
	ErrPlanningTimeout = errors.New("motion planner failed to find path within iteration budget")

	// ErrLocalPlanningStalled is returned when the potential field controller exhausts
	// its step budget or stops making progress toward the goal.
	ErrLocalPlanningStalled = errors.New("local planner stalled before reaching goal")
)
