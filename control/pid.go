package control

import (
	"github.com/benbjohnson/clock"
)

// Gains holds the proportional, integral and derivative gains of a PID controller.
type Gains struct {
	Kp float64 `json:"kp"`
	Ki float64 `json:"ki"`
	Kd float64 `json:"kd"`
}

// State is everything a PID controller carries from one update to the next. It is a plain value
// so callers that want full control over ownership can drive it through Step themselves.
type State struct {
	PreviousTime  float64 `json:"previous_time"`
	PreviousError float64 `json:"previous_error"`

	// Proportional is the error seen by the last update.
	Proportional float64 `json:"proportional"`
	// Integral is the running sum of error*dt. It is never reset by Step.
	Integral float64 `json:"integral"`
	// Derivative is the last de/dt.
	Derivative float64 `json:"derivative"`
}

// Terms returns the gain-scaled contribution of each term as of the last update.
func (s State) Terms(g Gains) (p, i, d float64) {
	return g.Kp * s.Proportional, g.Ki * s.Integral, g.Kd * s.Derivative
}

// Step computes one PID update at time now (in seconds) and returns the new state with the
// correction. When now is not after s.PreviousTime the state is returned untouched with a zero
// correction. The integral uses rectangular integration and the correction is never clamped.
func Step(g Gains, s State, err, now float64) (State, float64) {
	dt := now - s.PreviousTime
	if dt <= 0 {
		return s, 0
	}

	de := err - s.PreviousError
	s.Proportional = err
	s.Integral += err * dt
	s.Derivative = de / dt
	s.PreviousTime = now
	s.PreviousError = err

	return s, g.Kp*s.Proportional + g.Ki*s.Integral + g.Kd*s.Derivative
}

// PID is a single loop PID controller. It is not safe for concurrent use.
type PID struct {
	gains Gains
	state State
	clock clock.Clock
}

// Option configures a PID at construction.
type Option func(*pidOptions)

type pidOptions struct {
	clock     clock.Clock
	origin    float64
	hasOrigin bool
}

// WithClock sets the time source used when no timestamp is given.
func WithClock(c clock.Clock) Option {
	return func(o *pidOptions) {
		o.clock = c
	}
}

// WithOrigin sets the timestamp, in seconds, the first update is measured from. Without it the
// origin is read from the time source.
func WithOrigin(t float64) Option {
	return func(o *pidOptions) {
		o.origin = t
		o.hasOrigin = true
	}
}

// NewPID returns a PID controller with the given gains.
func NewPID(g Gains, opts ...Option) *PID {
	o := pidOptions{clock: clock.New()}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.hasOrigin {
		o.origin = Seconds(o.clock)
	}
	return &PID{
		gains: g,
		state: State{PreviousTime: o.origin},
		clock: o.clock,
	}
}

// Update feeds the latest error at the current time of the controller's time source and returns
// the correction.
func (p *PID) Update(err float64) float64 {
	return p.UpdateAt(err, Seconds(p.clock))
}

// UpdateAt feeds the latest error observed at now, in seconds, and returns the correction.
func (p *PID) UpdateAt(err, now float64) float64 {
	var out float64
	p.state, out = Step(p.gains, p.state, err, now)
	return out
}

// Gains returns the controller gains.
func (p *PID) Gains() Gains {
	return p.gains
}

// SetGains replaces the gains. The accumulated state is kept.
func (p *PID) SetGains(g Gains) {
	p.gains = g
}

// State returns a copy of the controller state.
func (p *PID) State() State {
	return p.state
}

// Terms returns the gain-scaled proportional, integral and derivative contributions of the last
// update.
func (p *PID) Terms() (float64, float64, float64) {
	return p.state.Terms(p.gains)
}

// Reset discards the accumulated state and restarts the controller at the current time of its
// time source. Nothing calls this implicitly.
func (p *PID) Reset() {
	p.state = State{PreviousTime: Seconds(p.clock)}
}
