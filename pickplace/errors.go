package pickplace

import "github.com/pkg/errors"

var (
	// ErrGraspVerificationFailed is returned when the measured finger gap after closing
	// is at or below the verification threshold, meaning the fingers closed on nothing.
	ErrGraspVerificationFailed = errors.New("grasp verification failed, finger gap below threshold")

	// ErrManipulationFailed is the terminal failure, reported only once the grasp
	// attempt budget is exhausted.
	ErrManipulationFailed = errors.New("manipulation failed, grasp attempt budget exhausted")
)
