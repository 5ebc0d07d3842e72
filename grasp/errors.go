package grasp

import "github.com/pkg/errors"

// ErrNoFeasibleGrasp is returned when no sampled candidate passes the collision and
// containment gates with a total score above the safety threshold.
var ErrNoFeasibleGrasp = errors.New("no grasp candidate cleared the safety threshold")
