package control

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"go.viam.com/pid/logging"
)

// pidBlock drives a PID from the loop. The loop only hands blocks a dt, so the block keeps its
// own clock starting at zero and advances it by dt on every Next.
type pidBlock struct {
	mu     sync.Mutex
	cfg    BlockConfig
	pid    *PID
	now    float64
	y      []*Signal
	logger logging.Logger
}

func newPID(config BlockConfig, logger logging.Logger) (Block, error) {
	p := &pidBlock{cfg: config, logger: logger}
	if err := p.reset(); err != nil {
		return nil, err
	}
	return p, nil
}

// Next feeds the single input signal as the error and outputs the correction.
func (p *pidBlock) Next(ctx context.Context, x []*Signal, dt time.Duration) ([]*Signal, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(x) != 1 {
		return p.y, false
	}
	p.now += dt.Seconds()
	err := x[0].GetSignalValueAt(0)
	out := p.pid.UpdateAt(err, p.now)
	p.y[0].SetSignalValueAt(0, out)
	p.logger.CDebugw(ctx, "pid update", "block", p.cfg.Name, "error", err, "correction", out)
	return p.y, true
}

func (p *pidBlock) reset() error {
	if !p.cfg.Attribute.Has("ki") &&
		!p.cfg.Attribute.Has("kd") &&
		!p.cfg.Attribute.Has("kp") {
		return errors.Errorf("pid block %s should have at least one ki, kp or kd field", p.cfg.Name)
	}
	if len(p.cfg.DependsOn) != 1 {
		return errors.Errorf("pid block %s should have 1 input got %d", p.cfg.Name, len(p.cfg.DependsOn))
	}
	g, err := p.gains()
	if err != nil {
		return err
	}
	p.now = 0
	p.pid = NewPID(g, WithOrigin(p.now))
	p.y = []*Signal{makeSignal(p.cfg.Name)}
	return nil
}

func (p *pidBlock) gains() (Gains, error) {
	var g Gains
	var err error
	if g.Kp, err = floatAttribute(p.cfg, "pid", "kp", 0.0); err != nil {
		return Gains{}, err
	}
	if g.Ki, err = floatAttribute(p.cfg, "pid", "ki", 0.0); err != nil {
		return Gains{}, err
	}
	if g.Kd, err = floatAttribute(p.cfg, "pid", "kd", 0.0); err != nil {
		return Gains{}, err
	}
	return g, nil
}

func (p *pidBlock) Reset(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reset()
}

// UpdateConfig applies new gains and starts the controller over. A rejected config leaves the
// block as it was.
func (p *pidBlock) UpdateConfig(ctx context.Context, config BlockConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	prev := p.cfg
	p.cfg = config
	if err := p.reset(); err != nil {
		p.cfg = prev
		return err
	}
	return nil
}

func (p *pidBlock) Output(ctx context.Context) []*Signal {
	return p.y
}

func (p *pidBlock) Config(ctx context.Context) BlockConfig {
	return p.cfg
}

// State returns the state of the wrapped controller.
func (p *pidBlock) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pid.State()
}
