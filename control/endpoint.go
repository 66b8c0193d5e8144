package control

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"go.viam.com/pid/logging"
)

// Controllable is the process a loop is closed around.
type Controllable interface {
	// State returns the measured output of the process.
	State(ctx context.Context) (float64, error)
	// SetOutput applies a correction to the process.
	SetOutput(ctx context.Context, value float64) error
}

type endpoint struct {
	mu     sync.Mutex
	ctr    Controllable
	cfg    BlockConfig
	y      []*Signal
	logger logging.Logger
}

func newEndpoint(config BlockConfig, logger logging.Logger, ctr Controllable) (Block, error) {
	e := &endpoint{cfg: config, logger: logger, ctr: ctr}
	if err := e.reset(); err != nil {
		return nil, err
	}
	return e, nil
}

// Next without inputs samples the process and emits its state. With one input it applies the
// input as the correction and emits nothing.
func (e *endpoint) Next(ctx context.Context, x []*Signal, dt time.Duration) ([]*Signal, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctr == nil {
		return e.y, false
	}
	switch len(x) {
	case 0:
		state, err := e.ctr.State(ctx)
		if err != nil {
			e.logger.CWarnw(ctx, "failed to read endpoint state", "block", e.cfg.Name, "error", err)
			return e.y, false
		}
		e.y[0].SetSignalValueAt(0, state)
		return e.y, true
	case 1:
		if err := e.ctr.SetOutput(ctx, x[0].GetSignalValueAt(0)); err != nil {
			e.logger.CWarnw(ctx, "failed to set endpoint output", "block", e.cfg.Name, "error", err)
		}
		return e.y, false
	default:
		return e.y, false
	}
}

func (e *endpoint) reset() error {
	if len(e.cfg.DependsOn) > 1 {
		return errors.Errorf("invalid number of inputs for endpoint block %s expected at most 1 got %d",
			e.cfg.Name, len(e.cfg.DependsOn))
	}
	e.y = []*Signal{makeSignal(e.cfg.Name)}
	return nil
}

func (e *endpoint) Reset(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reset()
}

func (e *endpoint) UpdateConfig(ctx context.Context, config BlockConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg = config
	return e.reset()
}

func (e *endpoint) Output(ctx context.Context) []*Signal {
	return e.y
}

func (e *endpoint) Config(ctx context.Context) BlockConfig {
	return e.cfg
}
