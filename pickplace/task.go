// Package pickplace sequences perception, grasping, and delivery of an object as a
// finite state machine with a bounded number of grasp attempts.
package pickplace

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/manipulation/grasp"
	"go.viam.com/manipulation/motionplan"
	"go.viam.com/manipulation/obstacle"
	frame "go.viam.com/manipulation/referenceframe"
	"go.viam.com/manipulation/robot"
	spatial "go.viam.com/manipulation/spatialmath"
)

const (
	// defaultMaxAttempts is how many grasp attempts are made before giving up.
	defaultMaxAttempts = 3

	// defaultVerifyThreshold is the finger gap in meters above which a closed gripper
	// is considered to be holding the object.
	defaultVerifyThreshold = 0.01

	// defaultLiftHeight is how far the object is lifted straight up before the grasp
	// is verified.
	defaultLiftHeight = 0.5

	// defaultIKSegments is the number of Cartesian segments a long displacement is
	// decomposed into when the direct solve diverges.
	defaultIKSegments = 10

	// defaultMaxReplans bounds how many times a stalled transit triggers a fresh
	// global plan.
	defaultMaxReplans = 3

	// defaultPollInterval is the obstacle clearance polling period in seconds.
	defaultPollInterval = 0.1
)

type taskOptions struct {
	// MaxAttempts is the grasp attempt budget.
	MaxAttempts int `json:"max_attempts"`

	// VerifyThreshold is the minimum finger gap of a held object.
	VerifyThreshold float64 `json:"verify_threshold"`

	// LiftHeight is the vertical lift before verification.
	LiftHeight float64 `json:"lift_height"`

	// IKSegments is the segment count for decomposed inverse kinematics solves.
	IKSegments int `json:"ik_segments"`

	// MaxReplans bounds global replanning after transit stalls.
	MaxReplans int `json:"max_replans"`

	// PollInterval is the obstacle clearance polling period in seconds.
	PollInterval float64 `json:"poll_interval"`
}

func newTaskOptions(extra map[string]interface{}) (*taskOptions, error) {
	opts := &taskOptions{
		MaxAttempts:     defaultMaxAttempts,
		VerifyThreshold: defaultVerifyThreshold,
		LiftHeight:      defaultLiftHeight,
		IKSegments:      defaultIKSegments,
		MaxReplans:      defaultMaxReplans,
		PollInterval:    defaultPollInterval,
	}
	// convert map to json
	jsonString, err := json.Marshal(extra)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(jsonString, opts); err != nil {
		return nil, err
	}
	return opts, nil
}

// GeometryProvider supplies the perceived geometry of the target object. Each call
// re-acquires the object, so a dropped or jostled object is seen fresh on retry.
type GeometryProvider interface {
	ObjectGeometry(ctx context.Context) (*grasp.Object, error)
}

// Config collects the collaborators a pick and place task is built from.
type Config struct {
	// Robot is the live arm and gripper the task commands.
	Robot robot.ExecutionContext

	// Geometry supplies the target object.
	Geometry GeometryProvider

	// Obstacles tracks the moving obstacles between the pick and drop locations.
	Obstacles obstacle.Provider

	// ClearConditions gate the release, one condition per tracked obstacle.
	ClearConditions []obstacle.ClearCondition

	// DropPosition is where the object is delivered.
	DropPosition r3.Vector

	// Gripper describes the gripper geometry. Defaults to the Panda gripper.
	Gripper *grasp.Gripper

	// Clock drives clearance polling. Defaults to the wall clock.
	Clock clock.Clock
}

func (cfg *Config) validate() error {
	var err error
	if cfg.Robot == nil {
		err = multierr.Append(err, errors.New("an execution context is required"))
	}
	if cfg.Geometry == nil {
		err = multierr.Append(err, errors.New("a geometry provider is required"))
	}
	if cfg.Obstacles == nil {
		err = multierr.Append(err, errors.New("an obstacle provider is required"))
	}
	return err
}

// Task is a single pick and place job: grasp the perceived object, carry it past the
// tracked obstacles, and release it at the drop position.
type Task struct {
	cfg       Config
	logger    golog.Logger
	clock     clock.Clock
	opts      *taskOptions
	generator *grasp.Generator
	ik        *motionplan.InverseKinematicsSolver
	global    *motionplan.RRTStarMotionPlanner
	local     *motionplan.PotentialFieldPlanner
	planOpts  *motionplan.PlannerOptions
	attempts  int
}

// attempt is the state carried across phases of one grasp attempt.
type attempt struct {
	id          uuid.UUID
	object      *grasp.Object
	poses       *grasp.PoseSet
	shadow      *robot.ShadowState
	approach    [][]frame.Input
	waypoints   []r3.Vector
	orientation spatial.Orientation
}

// NewTask creates a pick and place task. Extra options for the task and its planners
// may be overridden through the extra map.
func NewTask(cfg Config, logger golog.Logger, extra map[string]interface{}) (*Task, error) {
	//nolint:gosec
	return NewTaskWithSeed(cfg, rand.New(rand.NewSource(1)), logger, extra)
}

// NewTaskWithSeed creates a pick and place task whose grasp sampling and planning use a
// user specified random seed.
func NewTaskWithSeed(cfg Config, seed *rand.Rand, logger golog.Logger, extra map[string]interface{}) (*Task, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Gripper == nil {
		cfg.Gripper = grasp.NewPandaGripper()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	opts, err := newTaskOptions(extra)
	if err != nil {
		return nil, err
	}
	generator, err := grasp.NewGeneratorWithSeed(cfg.Gripper, seed, logger, extra)
	if err != nil {
		return nil, err
	}
	ik, err := motionplan.NewIKSolver(cfg.Robot.Model(), logger, extra)
	if err != nil {
		return nil, err
	}
	local, err := motionplan.NewPotentialFieldPlanner(logger, extra)
	if err != nil {
		return nil, err
	}
	return &Task{
		cfg:       cfg,
		logger:    logger,
		clock:     cfg.Clock,
		opts:      opts,
		generator: generator,
		ik:        ik,
		global:    motionplan.NewRRTStarMotionPlannerWithSeed(cfg.Robot.Model(), seed, logger),
		local:     local,
		planOpts:  motionplan.NewBasicPlannerOptions(),
	}, nil
}

// Attempts returns how many grasp attempts have failed so far.
func (t *Task) Attempts() int {
	return t.attempts
}

// Run drives the state machine from perception to release. It returns nil once the
// object is released at the drop position, ErrManipulationFailed once the grasp attempt
// budget is exhausted, and any other error for unrecoverable faults.
func (t *Task) Run(ctx context.Context) error {
	t.attempts = 0
	replans := 0
	state := StatePerceive
	att := &attempt{}
	for !state.terminal() {
		ev, err := t.execute(ctx, state, att)
		if err != nil {
			return err
		}
		if state == StateExecuteTransit && ev == eventFailed {
			replans++
			if replans > t.opts.MaxReplans {
				return errors.Wrapf(motionplan.ErrLocalPlanningStalled,
					"transit stalled after %d global replans", t.opts.MaxReplans)
			}
		}
		next, err := transition(state, ev)
		if err != nil {
			return err
		}
		t.logger.Debugf("state %s -> %s", state, next)
		state = next
	}
	if state == StateFail {
		return errors.Wrapf(ErrManipulationFailed, "%d attempts", t.attempts)
	}
	return nil
}

func (t *Task) execute(ctx context.Context, state State, att *attempt) (event, error) {
	switch state {
	case StatePerceive:
		return t.perceive(ctx, att)
	case StateSelectGrasp:
		return t.selectGrasp(ctx, att)
	case StateMoveToApproach:
		return t.moveToApproach(ctx, att)
	case StateMoveToGrasp:
		return t.moveToGrasp(ctx, att)
	case StateCloseGripper:
		return t.closeGripper(ctx)
	case StateVerify:
		return t.verify(ctx, att)
	case StateSuccess:
		t.logger.Infof("attempt %s: grasp verified, transporting object", att.id)
		return eventSucceeded, nil
	case StateRetry:
		return t.retry(ctx)
	case StatePlanTransit:
		return t.planTransit(ctx, att)
	case StateExecuteTransit:
		return t.executeTransit(ctx, att)
	case StateWaitObstaclesClear:
		return t.waitObstaclesClear(ctx)
	case StateRelease:
		return t.release(ctx, att)
	}
	return eventFailed, errors.Errorf("state %s has no handler", state)
}

// perceive re-acquires the object geometry and opens a new attempt.
func (t *Task) perceive(ctx context.Context, att *attempt) (event, error) {
	*att = attempt{id: uuid.New()}
	obj, err := t.cfg.Geometry.ObjectGeometry(ctx)
	if err != nil {
		t.logger.Warnf("attempt %s: perception failed: %v", att.id, err)
		return eventFailed, nil
	}
	if err := obj.Validate(); err != nil {
		return eventFailed, err
	}
	att.object = obj
	t.logger.Debugf("attempt %s: object centroid %v", att.id, obj.Centroid())
	return eventSucceeded, nil
}

// selectGrasp picks the best grasp pose set and checks the approach pose is reachable
// on a shadow of the arm, without moving it.
func (t *Task) selectGrasp(ctx context.Context, att *attempt) (event, error) {
	poses, best, err := t.generator.Generate(ctx, att.object)
	if err != nil {
		if errors.Is(err, grasp.ErrNoFeasibleGrasp) {
			t.logger.Warnf("attempt %s: %v", att.id, err)
			return eventFailed, nil
		}
		return eventFailed, err
	}
	t.logger.Debugf("attempt %s: selected %s", att.id, best)

	shadow, err := robot.NewShadowStateFromContext(ctx, t.cfg.Robot)
	if err != nil {
		return eventFailed, err
	}
	configurations, err := t.ik.SolveSegmented(ctx, poses.Approach, shadow.Inputs(), t.opts.IKSegments)
	if err != nil {
		if errors.Is(err, motionplan.ErrIKDivergence) {
			t.logger.Warnf("attempt %s: approach pose unreachable: %v", att.id, err)
			return eventFailed, nil
		}
		return eventFailed, err
	}
	if err := shadow.SetInputs(configurations[len(configurations)-1]); err != nil {
		return eventFailed, err
	}
	att.poses = poses
	att.shadow = shadow
	att.approach = configurations
	return eventSucceeded, nil
}

// moveToApproach opens the gripper and moves the arm to the approach pose, committing
// the configuration accepted during grasp selection as the final step.
func (t *Task) moveToApproach(ctx context.Context, att *attempt) (event, error) {
	if err := t.cfg.Robot.MoveGripper(ctx, t.cfg.Gripper.OpenPosition); err != nil {
		return eventFailed, err
	}
	for _, q := range att.approach[:len(att.approach)-1] {
		if err := t.cfg.Robot.GoToInputs(ctx, q); err != nil {
			return eventFailed, err
		}
	}
	if err := att.shadow.Commit(ctx, t.cfg.Robot); err != nil {
		return eventFailed, err
	}
	return eventSucceeded, nil
}

// moveToGrasp descends from the approach pose to the grasp pose. The two poses share an
// orientation, so the decomposed targets lie on a straight Cartesian line.
func (t *Task) moveToGrasp(ctx context.Context, att *attempt) (event, error) {
	return t.moveTo(ctx, att.poses.Grasp)
}

func (t *Task) closeGripper(ctx context.Context) (event, error) {
	if err := t.cfg.Robot.MoveGripper(ctx, t.cfg.Gripper.ClosedPosition); err != nil {
		return eventFailed, err
	}
	return eventSucceeded, nil
}

// verify lifts the object clear of the table and measures the finger gap. A gap at or
// below the threshold means the fingers closed on air.
func (t *Task) verify(ctx context.Context, att *attempt) (event, error) {
	pose, err := t.currentPose(ctx)
	if err != nil {
		return eventFailed, err
	}
	lifted := spatial.NewPose(pose.Point().Add(r3.Vector{Z: t.opts.LiftHeight}), pose.Orientation())
	if ev, err := t.moveTo(ctx, lifted); err != nil || ev == eventFailed {
		return ev, err
	}
	gap, err := t.cfg.Robot.FingerGap(ctx)
	if err != nil {
		return eventFailed, err
	}
	if gap <= t.opts.VerifyThreshold {
		t.logger.Warnf("attempt %s: %v", att.id,
			errors.Wrapf(ErrGraspVerificationFailed, "gap %.4f threshold %.4f", gap, t.opts.VerifyThreshold))
		return eventFailed, nil
	}
	t.logger.Debugf("attempt %s: holding object, finger gap %.4f", att.id, gap)
	return eventSucceeded, nil
}

// retry opens the gripper to drop anything held and charges the attempt budget.
func (t *Task) retry(ctx context.Context) (event, error) {
	if err := t.cfg.Robot.MoveGripper(ctx, t.cfg.Gripper.OpenPosition); err != nil {
		return eventFailed, err
	}
	t.attempts++
	if t.attempts >= t.opts.MaxAttempts {
		t.logger.Warnf("grasp attempt budget of %d exhausted", t.opts.MaxAttempts)
		return eventFailed, nil
	}
	t.logger.Infof("grasp attempt %d of %d failed, reacquiring object", t.attempts, t.opts.MaxAttempts)
	return eventSucceeded, nil
}

// planTransit computes a global joint space plan from the current configuration to the
// drop position against a snapshot of the obstacle states.
func (t *Task) planTransit(ctx context.Context, att *attempt) (event, error) {
	obstacles, err := t.cfg.Obstacles.ObstacleStates()
	if err != nil {
		return eventFailed, err
	}
	inputs, err := t.cfg.Robot.CurrentInputs(ctx)
	if err != nil {
		return eventFailed, err
	}
	pose, err := t.cfg.Robot.Model().Transform(inputs)
	if err != nil {
		return eventFailed, err
	}

	att.orientation = pose.Orientation()
	dropPose := spatial.NewPose(t.cfg.DropPosition, att.orientation)
	configurations, err := t.ik.SolveSegmented(ctx, dropPose, inputs, t.opts.IKSegments)
	if err != nil {
		if errors.Is(err, motionplan.ErrIKDivergence) {
			t.logger.Warnf("attempt %s: drop pose unreachable: %v", att.id, err)
			return eventFailed, nil
		}
		return eventFailed, err
	}
	goal := configurations[len(configurations)-1]

	plan, err := t.global.Plan(ctx, inputs, goal, obstacles, t.planOpts)
	if err != nil {
		if errors.Is(err, motionplan.ErrPlanningTimeout) {
			t.logger.Warnf("attempt %s: %v", att.id, err)
			return eventFailed, nil
		}
		return eventFailed, err
	}
	waypoints, err := plan.Interpolate(t.planOpts.Resolution).CartesianWaypoints(t.cfg.Robot.Model())
	if err != nil {
		return eventFailed, err
	}
	att.waypoints = waypoints
	t.logger.Debugf("attempt %s: transit plan cost %.3f over %d waypoints", att.id, plan.Cost(), len(waypoints))
	return eventSucceeded, nil
}

// executeTransit follows the global plan reactively: each control step blends goal
// attraction, path attraction, and repulsion from the live obstacle states, then solves
// inverse kinematics for the stepped Cartesian target and applies it.
func (t *Task) executeTransit(ctx context.Context, att *attempt) (event, error) {
	inputs, err := t.cfg.Robot.CurrentInputs(ctx)
	if err != nil {
		return eventFailed, err
	}
	pose, err := t.cfg.Robot.Model().Transform(inputs)
	if err != nil {
		return eventFailed, err
	}

	seed := inputs
	err = t.local.Move(ctx, pose.Point(), t.cfg.DropPosition, att.waypoints,
		t.cfg.Obstacles.ObstacleStates,
		func(target r3.Vector) (r3.Vector, error) {
			q, err := t.ik.Solve(ctx, spatial.NewPose(target, att.orientation), seed)
			if err != nil {
				return r3.Vector{}, err
			}
			if err := t.cfg.Robot.GoToInputs(ctx, q); err != nil {
				return r3.Vector{}, err
			}
			seed = q
			achieved, err := t.cfg.Robot.Model().Transform(q)
			if err != nil {
				return r3.Vector{}, err
			}
			return achieved.Point(), nil
		})
	if err != nil {
		if errors.Is(err, motionplan.ErrLocalPlanningStalled) || errors.Is(err, motionplan.ErrIKDivergence) {
			t.logger.Warnf("attempt %s: transit interrupted, replanning: %v", att.id, err)
			return eventFailed, nil
		}
		return eventFailed, err
	}
	return eventSucceeded, nil
}

// waitObstaclesClear polls the obstacle tracker until every obstacle satisfies its
// clear condition, holding the object in place above the drop position.
func (t *Task) waitObstaclesClear(ctx context.Context) (event, error) {
	interval := time.Duration(t.opts.PollInterval * float64(time.Second))
	for {
		states, err := t.cfg.Obstacles.ObstacleStates()
		if err != nil {
			return eventFailed, err
		}
		if obstacle.AllClear(states, t.cfg.ClearConditions) {
			return eventSucceeded, nil
		}
		t.logger.Debugf("waiting for %d obstacles to clear", len(states))
		select {
		case <-ctx.Done():
			return eventFailed, ctx.Err()
		case <-t.clock.After(interval):
		}
	}
}

func (t *Task) release(ctx context.Context, att *attempt) (event, error) {
	if err := t.cfg.Robot.MoveGripper(ctx, t.cfg.Gripper.OpenPosition); err != nil {
		return eventFailed, err
	}
	t.logger.Infof("attempt %s: object released at %v", att.id, t.cfg.DropPosition)
	return eventSucceeded, nil
}

// moveTo solves for the goal pose, decomposing on divergence, and applies each
// configuration in turn.
func (t *Task) moveTo(ctx context.Context, goal spatial.Pose) (event, error) {
	inputs, err := t.cfg.Robot.CurrentInputs(ctx)
	if err != nil {
		return eventFailed, err
	}
	configurations, err := t.ik.SolveSegmented(ctx, goal, inputs, t.opts.IKSegments)
	if err != nil {
		if errors.Is(err, motionplan.ErrIKDivergence) {
			t.logger.Warnf("pose %v unreachable: %v", goal.Point(), err)
			return eventFailed, nil
		}
		return eventFailed, err
	}
	for _, q := range configurations {
		if err := t.cfg.Robot.GoToInputs(ctx, q); err != nil {
			return eventFailed, err
		}
	}
	return eventSucceeded, nil
}

func (t *Task) currentPose(ctx context.Context) (spatial.Pose, error) {
	inputs, err := t.cfg.Robot.CurrentInputs(ctx)
	if err != nil {
		return nil, err
	}
	return t.cfg.Robot.Model().Transform(inputs)
}
