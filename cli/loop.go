package cli

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	goutils "go.viam.com/utils"

	"go.viam.com/pid/config"
	"go.viam.com/pid/control"
	"go.viam.com/pid/logging"
	"go.viam.com/pid/sim"
)

const defaultLoopDuration = 5 * time.Second

// plantEndpoint exposes a simulated plant to a control loop. Every correction is held for one
// loop period.
type plantEndpoint struct {
	mu    sync.Mutex
	plant sim.Plant
	dt    float64
	count int
}

func (p *plantEndpoint) State(ctx context.Context) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.plant.Output(), nil
}

func (p *plantEndpoint) SetOutput(ctx context.Context, value float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.plant.Apply(value, p.dt)
	p.count++
	return nil
}

func (p *plantEndpoint) snapshot() (float64, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.plant.Output(), p.count
}

// applyLoopConfig pushes every PID block of cfg into the running loop.
func applyLoopConfig(ctx context.Context, loop *control.Loop, cfg *config.Config, logger logging.Logger) {
	if cfg.Loop == nil {
		logger.Warn("new config has no loop section, keeping the running loop as is")
		return
	}
	for _, b := range cfg.Loop.Blocks {
		if b.Type != control.BlockTypePID {
			continue
		}
		if err := loop.SetConfigAt(ctx, b.Name, b); err != nil {
			logger.Warnw("cannot update block", "block", b.Name, "error", err)
			continue
		}
		logger.Infow("updated block", "block", b.Name, "attributes", b.Attribute)
	}
}

// LoopAction runs the configured control loop against the configured plant for a while and
// prints the last output of every block.
func LoopAction(c *cli.Context) error {
	logger := newLogger(c)
	cfg, err := readConfig(c, logger)
	if err != nil {
		return err
	}
	if cfg.Loop == nil {
		return errors.New("loop needs a config with a loop section, use --config")
	}
	if c.Bool(watchFlag) && c.Path(configFlag) == "" {
		return errors.New("--watch needs --config")
	}

	plantCfg := sim.PlantConfig{Type: sim.PlantIntegrator}
	if cfg.Simulation != nil {
		plantCfg = cfg.Simulation.Plant
	}
	plant, err := sim.NewPlant(plantCfg)
	if err != nil {
		return err
	}
	ep := &plantEndpoint{plant: plant, dt: 1 / cfg.Loop.Frequency}
	loop, err := control.NewLoop(logger.Sublogger("loop"), *cfg.Loop, ep, control.WithLoopContext(runContext(c, cfg)))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, c.Duration(durationFlag))
	defer cancel()

	var activeBackgroundWorkers sync.WaitGroup
	if c.Bool(watchFlag) {
		path := c.Path(configFlag)
		activeBackgroundWorkers.Add(1)
		goutils.ManagedGo(func() {
			err := config.Watch(ctx, path, logger.Sublogger("watch"), func(newCfg *config.Config) {
				applyLoopConfig(ctx, loop, newCfg, logger)
			})
			if err != nil {
				logger.Warnw("stopped watching config", "error", err)
			}
		}, activeBackgroundWorkers.Done)
	}

	if err := loop.Start(); err != nil {
		loop.Stop()
		cancel()
		activeBackgroundWorkers.Wait()
		return err
	}
	<-ctx.Done()
	loop.Stop()
	activeBackgroundWorkers.Wait()

	names, err := loop.BlockList(c.Context)
	if err != nil {
		return err
	}
	t := table.NewWriter()
	t.AppendHeader(table.Row{"block", "output"})
	for _, name := range names {
		out, err := loop.OutputAt(c.Context, name)
		if err != nil {
			return err
		}
		t.AppendRow(table.Row{name, strconv.FormatFloat(out[0].GetSignalValueAt(0), 'g', 6, 64)})
	}
	t.SetStyle(table.StyleLight)
	printf(c.App.Writer, "%s", t.Render())

	y, corrections := ep.snapshot()
	printf(c.App.Writer, "plant output %g after %d corrections", y, corrections)
	return nil
}
