package control

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/pid/logging"
)

// maxLoopFrequency is the highest rate, in Hz, a loop may tick at.
const maxLoopFrequency = 200.0

// Config configures a control loop.
type Config struct {
	Blocks    []BlockConfig `json:"blocks"`    // Blocks Control Block Config
	Frequency float64       `json:"frequency"` // Frequency loop Frequency
}

// Validate checks the loop frequency, that every dependency names a block and that every block
// can be built from its attributes.
func (cfg Config) Validate() error {
	if cfg.Frequency <= 0.0 || cfg.Frequency > maxLoopFrequency {
		return errors.New("loop frequency shouldn't be 0 or above 200Hz")
	}
	names := make(map[string]struct{}, len(cfg.Blocks))
	for _, bcfg := range cfg.Blocks {
		if bcfg.Name == "" {
			return errors.New("every block needs a name")
		}
		if _, ok := names[bcfg.Name]; ok {
			return errors.Errorf("duplicate block name %s", bcfg.Name)
		}
		names[bcfg.Name] = struct{}{}
	}
	for _, bcfg := range cfg.Blocks {
		for _, dep := range bcfg.DependsOn {
			if _, ok := names[dep]; !ok {
				return errors.Errorf("block %s depends on %s but it does not exist", bcfg.Name, dep)
			}
		}
	}
	for _, bcfg := range cfg.Blocks {
		if _, err := createBlock(bcfg, logging.NewBlankLogger(bcfg.Name)); err != nil {
			return err
		}
	}
	return nil
}

// controlBlockInternal Holds internal variables to control the flow of data between blocks.
type controlBlockInternal struct {
	mu   sync.Mutex
	ins  []chan []*Signal
	outs []chan []*Signal
	blk  Block
}

// controlTicker Used to emit impulse on blocks which do not depend on inputs or are endpoints.
type controlTicker struct {
	ticker *clock.Ticker
	stop   chan bool
}

// Loop holds the loop config.
type Loop struct {
	cfg                     Config
	blocks                  map[string]*controlBlockInternal
	ct                      controlTicker
	logger                  logging.Logger
	clock                   clock.Clock
	ts                      []chan time.Time
	dt                      time.Duration
	activeBackgroundWorkers sync.WaitGroup
	cancelCtx               context.Context
	cancel                  context.CancelFunc
	running                 bool
	// ticking is set once something owns closing ts.
	ticking bool
}

// LoopOption configures a Loop at construction.
type LoopOption func(*Loop)

// WithLoopClock sets the time source the loop ticks from.
func WithLoopClock(c clock.Clock) LoopOption {
	return func(l *Loop) {
		l.clock = c
	}
}

// WithLoopContext sets the context blocks run under. Cancelling it stops the ticker the same way
// Stop does, and a context in logging debug mode traces every block update.
func WithLoopContext(ctx context.Context) LoopOption {
	return func(l *Loop) {
		l.cancelCtx = ctx
	}
}

// NewLoop construct a new control loop for a specific endpoint.
func NewLoop(logger logging.Logger, cfg Config, m Controllable, opts ...LoopOption) (*Loop, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	l := &Loop{
		logger:    logger,
		cfg:       cfg,
		clock:     clock.New(),
		blocks:    make(map[string]*controlBlockInternal),
		cancelCtx: context.Background(),
	}
	for _, opt := range opts {
		opt(l)
	}
	cancelCtx, cancel := context.WithCancel(l.cancelCtx)
	l.cancelCtx = cancelCtx
	l.cancel = cancel
	l.dt = time.Duration(float64(time.Second) * (1.0 / (l.cfg.Frequency)))
	for _, bcfg := range cfg.Blocks {
		blk, err := createBlock(bcfg, logger.Sublogger(bcfg.Name))
		if err != nil {
			cancel()
			return nil, err
		}
		if bcfg.Type == blockEndpoint {
			blk.(*endpoint).ctr = m
		}
		l.blocks[bcfg.Name] = &controlBlockInternal{blk: blk}
	}
	for _, bcfg := range cfg.Blocks {
		b := l.blocks[bcfg.Name]
		for _, dep := range bcfg.DependsOn {
			blockDep := l.blocks[dep]
			blockDep.outs = append(blockDep.outs, make(chan []*Signal))
			b.ins = append(b.ins, blockDep.outs[len(blockDep.outs)-1])
		}
	}
	for _, bcfg := range cfg.Blocks {
		b := l.blocks[bcfg.Name]
		ticked := len(bcfg.DependsOn) == 0 || bcfg.Type == blockEndpoint
		if ticked {
			t := make(chan time.Time, 1)
			l.ts = append(l.ts, t)
			l.activeBackgroundWorkers.Add(1)
			utils.ManagedGo(func() {
				l.runTicked(b, t)
			}, l.activeBackgroundWorkers.Done)
		}
		if len(bcfg.DependsOn) != 0 {
			l.activeBackgroundWorkers.Add(1)
			// A ticked block owns its outputs from the ticker side; its inputs only feed it.
			emit := !ticked
			utils.ManagedGo(func() {
				l.runFed(b, emit)
			}, l.activeBackgroundWorkers.Done)
		}
	}
	return l, nil
}

func (l *Loop) runTicked(b *controlBlockInternal, t <-chan time.Time) {
	defer l.closeOuts(b)
	for range t {
		v, ok := b.blk.Next(l.cancelCtx, nil, l.dt)
		if !ok {
			continue
		}
		for _, out := range b.outs {
			out <- v
		}
	}
}

func (l *Loop) runFed(b *controlBlockInternal, emit bool) {
	defer func() {
		if emit {
			l.closeOuts(b)
		}
		// Producers may still hold values for this block, keep reading until they are all closed.
		for _, c := range b.ins {
			for range c {
			}
		}
	}()
	nInputs := len(b.ins)
	for {
		sw := make([]*Signal, 0, nInputs)
		for _, c := range b.ins {
			r, ok := <-c
			if !ok {
				return
			}
			sw = append(sw, r...)
		}
		v, ok := b.blk.Next(l.cancelCtx, sw, l.dt)
		if ok && emit {
			for _, out := range b.outs {
				out <- v
			}
		}
	}
}

func (l *Loop) closeOuts(b *controlBlockInternal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, out := range b.outs {
		close(out)
	}
	b.outs = nil
}

// OutputAt returns the Signal at the block name, error when the block doesn't exist.
func (l *Loop) OutputAt(ctx context.Context, name string) ([]*Signal, error) {
	blk, ok := l.blocks[name]
	if !ok {
		return []*Signal{}, errors.Errorf("cannot return Signals for non existing block %s", name)
	}
	return blk.blk.Output(ctx), nil
}

// ConfigAt returns the Config at the block name, error when the block doesn't exist.
func (l *Loop) ConfigAt(ctx context.Context, name string) (BlockConfig, error) {
	blk, ok := l.blocks[name]
	if !ok {
		return BlockConfig{}, errors.Errorf("cannot return Config for non existing block %s", name)
	}
	return blk.blk.Config(ctx), nil
}

// SetConfigAt updates the Config at the block name, error when the block doesn't exist or the new
// config would rewire the loop.
func (l *Loop) SetConfigAt(ctx context.Context, name string, config BlockConfig) error {
	blk, ok := l.blocks[name]
	if !ok {
		return errors.Errorf("cannot set Config for non existing block %s", name)
	}
	current := blk.blk.Config(ctx)
	if config.Type != current.Type || !slices.Equal(config.DependsOn, current.DependsOn) {
		return errors.Errorf("cannot change the type or inputs of block %s on a running loop", name)
	}
	return blk.blk.UpdateConfig(ctx, config)
}

// BlockList returns the list of blocks in a control loop error when the list is empty.
func (l *Loop) BlockList(ctx context.Context) ([]string, error) {
	if len(l.blocks) == 0 {
		return nil, errors.New("control loop has no blocks")
	}
	out := make([]string, 0, len(l.blocks))
	for k := range l.blocks {
		out = append(out, k)
	}
	slices.Sort(out)
	return out, nil
}

// Frequency returns the loop's frequency.
func (l *Loop) Frequency(ctx context.Context) (float64, error) {
	return l.cfg.Frequency, nil
}

// Start starts the loop.
func (l *Loop) Start() error {
	if len(l.ts) == 0 {
		return errors.New("cannot start the control loop if there are no blocks depending on an impulse")
	}
	if l.running {
		return errors.New("control loop is already running")
	}
	if l.ticking {
		return errors.New("control loop has already been started")
	}
	l.ticking = true
	l.logger.Infof("Running loop on %1.4f %+v", l.cfg.Frequency, l.dt)
	l.ct = controlTicker{
		ticker: l.clock.Ticker(l.dt),
		stop:   make(chan bool, 1),
	}
	ct := l.ct
	ts := l.ts
	l.activeBackgroundWorkers.Add(1)
	utils.ManagedGo(func() {
		defer func() {
			for _, c := range ts {
				close(c)
			}
		}()
		for {
			if l.cancelCtx.Err() != nil {
				return
			}
			select {
			case t := <-ct.ticker.C:
				for _, c := range ts {
					c <- t
				}
			case <-ct.stop:
				return
			case <-l.cancelCtx.Done():
				return
			}
		}
	}, l.activeBackgroundWorkers.Done)
	l.running = true
	return nil
}

// startBenchmark pushes a fixed number of impulses through the loop as fast as the blocks allow
// and then shuts the blocks down.
func (l *Loop) startBenchmark(loops int) error {
	if len(l.ts) == 0 {
		return errors.New("cannot start the control loop if there are no blocks depending on an impulse")
	}
	if l.ticking {
		return errors.New("control loop has already been started")
	}
	l.ticking = true
	ts := l.ts
	l.activeBackgroundWorkers.Add(1)
	utils.ManagedGo(func() {
		defer func() {
			for _, c := range ts {
				close(c)
			}
		}()
		for i := 0; i < loops; i++ {
			if l.cancelCtx.Err() != nil {
				return
			}
			now := l.clock.Now()
			for _, c := range ts {
				c <- now
			}
		}
	}, l.activeBackgroundWorkers.Done)
	return nil
}

// Stop stops the loop and waits for every block to exit. A stopped loop cannot be restarted.
func (l *Loop) Stop() {
	l.cancel()
	if l.running {
		l.logger.Debug("closing loop")
		l.ct.ticker.Stop()
		close(l.ct.stop)
		l.running = false
	} else if !l.ticking {
		for _, c := range l.ts {
			close(c)
		}
	}
	l.ticking = true
	l.activeBackgroundWorkers.Wait()
}

// GetConfig return the control loop config.
func (l *Loop) GetConfig(ctx context.Context) Config {
	return l.cfg
}
