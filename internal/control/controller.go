package control

import "fmt"

// Decision is everything computed for one tick.
type Decision struct {
	State     StateVector
	Raw       float64
	Command   float64
	Saturated bool
}

// Controller runs normalize → evaluate → limit. It holds only configuration.
type Controller struct {
	policy  Policy
	cfg     ControllerConfig
	norm    Normalizer
	limiter *Limiter
}

func NewController(kind Kind, cfg ControllerConfig, norm Normalizer) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, err := New(kind)
	if err != nil {
		return nil, err
	}
	limiter, err := NewLimiter(cfg.Bound)
	if err != nil {
		return nil, err
	}
	return &Controller{
		policy:  policy,
		cfg:     cfg,
		norm:    norm,
		limiter: limiter,
	}, nil
}

func (c *Controller) Policy() Policy           { return c.policy }
func (c *Controller) Config() ControllerConfig { return c.cfg }
func (c *Controller) Normalizer() Normalizer   { return c.norm }
func (c *Controller) Limiter() *Limiter        { return c.limiter }

// Decide runs the full pipeline. On error nothing past normalization runs.
func (c *Controller) Decide(raw []float64) (Decision, error) {
	s, err := c.norm.Normalize(raw)
	if err != nil {
		return Decision{}, err
	}
	u := c.policy.Evaluate(s, c.cfg)
	return Decision{
		State:     s,
		Raw:       u,
		Command:   c.limiter.Limit(u),
		Saturated: c.limiter.Saturated(u),
	}, nil
}

// Command is the host entry point: one observation in, one bounded command out.
func (c *Controller) Command(raw []float64) (float64, error) {
	d, err := c.Decide(raw)
	if err != nil {
		return 0, fmt.Errorf("%s policy: %w", c.policy.Kind(), err)
	}
	return d.Command, nil
}
