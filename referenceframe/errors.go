package referenceframe

import "github.com/pkg/errors"

// NewIncorrectInputLengthError returns an error indicating that a slice of Inputs does not
// match the degrees of freedom of a frame.
func NewIncorrectInputLengthError(actual, expected int) error {
	return errors.Errorf("number of inputs does not match frame DoF, expected %d but got %d", expected, actual)
}

// NewLimitViolationError returns an error indicating that a joint was commanded beyond its
// motion limits.
func NewLimitViolationError(joint int, value, min, max float64) error {
	return errors.Errorf("%s: joint %d input %.5f is not in limits [%.5f, %.5f]", OOBErrString, joint, value, min, max)
}
