package motionplan

import (
	"context"
	"encoding/json"
	"math"
	"math/rand"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/manipulation/obstacle"
	frame "go.viam.com/manipulation/referenceframe"
)

const (
	// Number of planner iterations before giving up.
	defaultPlanIter = 1000

	// Maximum joint space distance covered by a single tree extension.
	defaultStepSize = 0.2

	// Probability of sampling the goal configuration instead of a random one.
	defaultGoalBias = 0.05

	// Joint space radius used for choosing a parent and rewiring.
	defaultNeighborhoodRadius = 0.5

	// Joint space distance below which a node is considered to reach the goal.
	defaultGoalThreshold = 0.1

	// Fraction of the iteration budget over which cost improvement is measured for
	// early termination.
	defaultConvergenceWindow = 0.1

	// Relative cost improvement below which the planner is considered converged.
	defaultConvergenceThreshold = 0.01
)

type rrtStarOptions struct {
	// Number of planner iterations before giving up.
	PlanIter int `json:"plan_iter"`

	// Maximum joint space distance covered by a single tree extension.
	StepSize float64 `json:"step_size"`

	// Probability of sampling the goal configuration instead of a random one.
	GoalBias float64 `json:"goal_bias"`

	// Joint space radius used for choosing a parent and rewiring.
	NeighborhoodRadius float64 `json:"neighborhood_radius"`

	// Joint space distance below which a node is considered to reach the goal.
	GoalThreshold float64 `json:"goal_threshold"`

	// Fraction of the iteration budget over which cost improvement is measured.
	ConvergenceWindow float64 `json:"convergence_window"`

	// Relative cost improvement below which the planner is considered converged.
	ConvergenceThreshold float64 `json:"convergence_threshold"`
}

// newRRTStarOptions creates a struct controlling the running of a single invocation of the algorithm.
// All values are pre-set to reasonable defaults, but can be tweaked if needed.
func newRRTStarOptions(planOpts *PlannerOptions) (*rrtStarOptions, error) {
	algOpts := &rrtStarOptions{
		PlanIter:             defaultPlanIter,
		StepSize:             defaultStepSize,
		GoalBias:             defaultGoalBias,
		NeighborhoodRadius:   defaultNeighborhoodRadius,
		GoalThreshold:        defaultGoalThreshold,
		ConvergenceWindow:    defaultConvergenceWindow,
		ConvergenceThreshold: defaultConvergenceThreshold,
	}
	// convert map to json
	jsonString, err := json.Marshal(planOpts.extra)
	if err != nil {
		return nil, err
	}
	err = json.Unmarshal(jsonString, algOpts)
	if err != nil {
		return nil, err
	}
	return algOpts, nil
}

// RRTStarMotionPlanner plans collision free joint space paths by growing a tree of
// sampled configurations, rewiring it toward lower cost as it grows. The plan it
// returns is advisory, it seeds the local planner rather than being executed directly.
type RRTStarMotionPlanner struct {
	model    *frame.Model
	logger   golog.Logger
	randseed *rand.Rand
}

type planReturn struct {
	trajectory *Trajectory
	err        error
}

// NewRRTStarMotionPlanner creates a joint space RRT* planner for the given model.
func NewRRTStarMotionPlanner(model *frame.Model, logger golog.Logger) *RRTStarMotionPlanner {
	//nolint:gosec
	return NewRRTStarMotionPlannerWithSeed(model, rand.New(rand.NewSource(1)), logger)
}

// NewRRTStarMotionPlannerWithSeed creates a joint space RRT* planner with a user specified random seed.
func NewRRTStarMotionPlannerWithSeed(model *frame.Model, seed *rand.Rand, logger golog.Logger) *RRTStarMotionPlanner {
	return &RRTStarMotionPlanner{
		model:    model,
		logger:   logger,
		randseed: seed,
	}
}

// Plan grows a tree from the start configuration toward the goal configuration, avoiding
// the given obstacle snapshot, and returns the lowest cost trajectory found. Returns
// ErrPlanningTimeout if no path reaches the goal within the iteration budget.
func (mp *RRTStarMotionPlanner) Plan(
	ctx context.Context,
	start, goal []frame.Input,
	obstacles []obstacle.State,
	planOpts *PlannerOptions,
) (*Trajectory, error) {
	if planOpts == nil {
		planOpts = NewBasicPlannerOptions()
	}
	solutionChan := make(chan *planReturn, 1)
	goutils.PanicCapturingGo(func() {
		mp.planRunner(ctx, start, goal, obstacles, planOpts, solutionChan)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case plan := <-solutionChan:
		return plan.trajectory, plan.err
	}
}

// planRunner will execute the plan. When Plan() is called, it will call planRunner in a separate thread and wait for the results.
func (mp *RRTStarMotionPlanner) planRunner(
	ctx context.Context,
	start, goal []frame.Input,
	obstacles []obstacle.State,
	planOpts *PlannerOptions,
	solutionChan chan *planReturn,
) {
	defer close(solutionChan)

	algOpts, err := newRRTStarOptions(planOpts)
	if err != nil {
		solutionChan <- &planReturn{err: err}
		return
	}

	checker := newCollisionChecker(mp.model, obstacles)
	if !checker.checkInputs(start) {
		solutionChan <- &planReturn{err: errors.New("start configuration is in collision")}
		return
	}
	if !checker.checkInputs(goal) {
		solutionChan <- &planReturn{err: errors.New("goal configuration is in collision")}
		return
	}

	arena := []node{{q: start, parent: -1}}
	bestGoalNode := -1
	bestCost := math.Inf(1)

	// Number of iterations after which a log will be printed
	logIteration := int(float64(algOpts.PlanIter) * planOpts.LoggingInterval)
	if logIteration < 1 {
		logIteration = 1
	}
	convergenceWindow := int(algOpts.ConvergenceWindow * float64(algOpts.PlanIter))
	if convergenceWindow < 1 {
		convergenceWindow = 1
	}
	costHistory := make([]float64, 0, algOpts.PlanIter)

	for i := 1; i <= algOpts.PlanIter; i++ {
		select {
		case <-ctx.Done():
			solutionChan <- &planReturn{err: ctx.Err()}
			return
		default:
		}

		target := mp.sample(goal, algOpts)
		nearest := nearestNode(arena, target)
		if dist := frame.InputsL2Distance(arena[nearest].q, target); dist > algOpts.StepSize {
			target = frame.InterpolateInputs(arena[nearest].q, target, algOpts.StepSize/dist)
		}
		if !checker.checkInputs(target) {
			costHistory = append(costHistory, bestCost)
			continue
		}

		// choose the minimum cost parent among the neighborhood
		neighbors := neighborsWithinRadius(arena, target, algOpts.NeighborhoodRadius)
		if len(neighbors) == 0 {
			neighbors = []int{nearest}
		}
		parent := -1
		minCost := math.Inf(1)
		for _, idx := range neighbors {
			cost := arena[idx].cost + frame.InputsL2Distance(arena[idx].q, target)
			if cost < minCost && checker.checkPath(arena[idx].q, target, planOpts.Resolution) {
				parent = idx
				minCost = cost
			}
		}
		if parent < 0 {
			costHistory = append(costHistory, bestCost)
			continue
		}
		arena = append(arena, node{q: target, parent: parent, cost: minCost})
		newIdx := len(arena) - 1

		// rewire the neighborhood through the new node where it shortens paths
		for _, idx := range neighbors {
			if idx == parent {
				continue
			}
			cost := minCost + frame.InputsL2Distance(target, arena[idx].q)
			if cost < arena[idx].cost && checker.checkPath(target, arena[idx].q, planOpts.Resolution) {
				arena[idx].parent = newIdx
				arena[idx].cost = cost
			}
		}

		// try to connect the new node to the goal
		goalDist := frame.InputsL2Distance(target, goal)
		if goalDist < algOpts.GoalThreshold && checker.checkPath(target, goal, planOpts.Resolution) {
			if cost := minCost + goalDist; cost < bestCost {
				bestCost = cost
				bestGoalNode = newIdx
			}
		}
		costHistory = append(costHistory, bestCost)

		// log status of planner to periodically inform user
		if i%logIteration == 0 {
			mp.logger.Debugf("RRT* progress: %d%%\ttree size: %d\tbest cost: %.3f",
				100*i/algOpts.PlanIter, len(arena), bestCost)
		}

		// once a solution exists, stop early when the cost has stopped improving
		if bestGoalNode >= 0 && i > convergenceWindow {
			prior := costHistory[i-1-convergenceWindow]
			if !math.IsInf(prior, 1) && (prior-bestCost)/prior < algOpts.ConvergenceThreshold {
				mp.logger.Debugf("RRT* converged after %d iterations with cost %.3f", i, bestCost)
				break
			}
		}
	}

	if bestGoalNode < 0 {
		solutionChan <- &planReturn{err: errors.Wrapf(ErrPlanningTimeout,
			"no path found in %d iterations, tree size %d", algOpts.PlanIter, len(arena))}
		return
	}

	// walk parent indices back to the root, then append the exact goal configuration
	var reversed [][]frame.Input
	for idx := bestGoalNode; idx >= 0; idx = arena[idx].parent {
		reversed = append(reversed, arena[idx].q)
	}
	steps := make([][]frame.Input, 0, len(reversed)+1)
	for i := len(reversed) - 1; i >= 0; i-- {
		steps = append(steps, reversed[i])
	}
	steps = append(steps, goal)
	solutionChan <- &planReturn{trajectory: &Trajectory{Steps: steps}}
}

func (mp *RRTStarMotionPlanner) sample(goal []frame.Input, algOpts *rrtStarOptions) []frame.Input {
	if mp.randseed.Float64() < algOpts.GoalBias {
		sampled := make([]frame.Input, len(goal))
		copy(sampled, goal)
		return sampled
	}
	return frame.RandomFrameInputs(mp.model, mp.randseed)
}
