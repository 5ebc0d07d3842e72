package motionplan

// default values for planning options.
const (
	// Check a candidate tree edge for collisions every this many radians of joint movement.
	defaultResolution = 0.05

	// Fraction of the iteration budget between progress log lines.
	defaultLoggingInterval = 0.1
)

// PlannerOptions are the options shared by all planners. Algorithm-specific parameters
// are passed through the extra map and decoded by each planner.
type PlannerOptions struct {
	// Check constraints are still met every this many radians of joint movement.
	Resolution float64

	// Fraction of the iteration budget between progress log lines.
	LoggingInterval float64

	extra map[string]interface{}
}

// NewBasicPlannerOptions specifies a set of default planner options.
func NewBasicPlannerOptions() *PlannerOptions {
	return &PlannerOptions{
		Resolution:      defaultResolution,
		LoggingInterval: defaultLoggingInterval,
		extra:           map[string]interface{}{},
	}
}

// SetExtra sets an algorithm-specific parameter by name, overriding its default.
func (p *PlannerOptions) SetExtra(key string, value interface{}) {
	if p.extra == nil {
		p.extra = map[string]interface{}{}
	}
	p.extra[key] = value
}
