package control

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"go.viam.com/pid/logging"
	"go.viam.com/pid/utils"
)

type constant struct {
	mu       sync.Mutex
	cfg      BlockConfig
	y        []*Signal
	constant float64
	logger   logging.Logger
}

func newConstant(config BlockConfig, logger logging.Logger) (Block, error) {
	c := &constant{cfg: config, logger: logger}
	if err := c.reset(); err != nil {
		return nil, err
	}
	return c, nil
}

func (b *constant) Next(ctx context.Context, x []*Signal, dt time.Duration) ([]*Signal, bool) {
	return b.y, true
}

func (b *constant) reset() error {
	if !b.cfg.Attribute.Has("constant_val") {
		return errors.Errorf("constant block %s doesn't have a constant_val field", b.cfg.Name)
	}
	if len(b.cfg.DependsOn) > 0 {
		return errors.Errorf("invalid number of inputs for constant block %s expected 0 got %d", b.cfg.Name, len(b.cfg.DependsOn))
	}
	val, err := utils.ToFloat64(b.cfg.Attribute["constant_val"])
	if err != nil {
		return errors.Wrapf(err, "constant block %s", b.cfg.Name)
	}
	b.constant = val
	b.y = []*Signal{makeSignal(b.cfg.Name)}
	b.y[0].SetSignalValueAt(0, b.constant)
	return nil
}

func (b *constant) Reset(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reset()
}

func (b *constant) UpdateConfig(ctx context.Context, config BlockConfig) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	prev := b.cfg
	b.cfg = config
	if err := b.reset(); err != nil {
		b.cfg = prev
		return err
	}
	return nil
}

func (b *constant) Output(ctx context.Context) []*Signal {
	return b.y
}

func (b *constant) Config(ctx context.Context) BlockConfig {
	return b.cfg
}
