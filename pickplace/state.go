package pickplace

import "github.com/pkg/errors"

// State is a phase of the pick and place sequence. The task runs as an explicit finite
// state machine so the bounded retry behavior can be tested on its own.
type State int

// The pick and place states in execution order. Verify branches to Success or Retry on
// the measured finger gap, and Retry branches to Perceive or the terminal Fail on the
// attempt budget.
const (
	StatePerceive State = iota
	StateSelectGrasp
	StateMoveToApproach
	StateMoveToGrasp
	StateCloseGripper
	StateVerify
	StateSuccess
	StateRetry
	StateFail
	StatePlanTransit
	StateExecuteTransit
	StateWaitObstaclesClear
	StateRelease
	StateDone
)

func (s State) String() string {
	switch s {
	case StatePerceive:
		return "Perceive"
	case StateSelectGrasp:
		return "SelectGrasp"
	case StateMoveToApproach:
		return "MoveToApproach"
	case StateMoveToGrasp:
		return "MoveToGrasp"
	case StateCloseGripper:
		return "CloseGripper"
	case StateVerify:
		return "Verify"
	case StateSuccess:
		return "Success"
	case StateRetry:
		return "Retry"
	case StateFail:
		return "Fail"
	case StatePlanTransit:
		return "PlanTransit"
	case StateExecuteTransit:
		return "ExecuteTransit"
	case StateWaitObstaclesClear:
		return "WaitObstaclesClear"
	case StateRelease:
		return "Release"
	case StateDone:
		return "Done"
	}
	return "Unknown"
}

// terminal reports whether the state ends the task.
func (s State) terminal() bool {
	return s == StateDone || s == StateFail
}

// event is the outcome of executing one state.
type event int

const (
	eventSucceeded event = iota
	eventFailed
)

// transition maps a state and the outcome of executing it to the next state. A failed
// phase before the object is secured falls back to Retry for a full re-acquisition; a
// stalled transit falls back to PlanTransit for a fresh global plan.
func transition(s State, e event) (State, error) {
	switch s {
	case StatePerceive, StateSelectGrasp, StateMoveToApproach, StateMoveToGrasp:
		if e == eventSucceeded {
			return s + 1, nil
		}
		return StateRetry, nil
	case StateCloseGripper:
		return StateVerify, nil
	case StateVerify:
		if e == eventSucceeded {
			return StateSuccess, nil
		}
		return StateRetry, nil
	case StateSuccess:
		return StatePlanTransit, nil
	case StateRetry:
		if e == eventSucceeded {
			return StatePerceive, nil
		}
		return StateFail, nil
	case StatePlanTransit:
		if e == eventSucceeded {
			return StateExecuteTransit, nil
		}
		return StateRetry, nil
	case StateExecuteTransit:
		if e == eventSucceeded {
			return StateWaitObstaclesClear, nil
		}
		return StatePlanTransit, nil
	case StateWaitObstaclesClear:
		return StateRelease, nil
	case StateRelease:
		return StateDone, nil
	}
	return s, errors.Errorf("no transition out of state %s", s)
}
