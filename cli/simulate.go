package cli

import (
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"go.viam.com/pid/config"
	"go.viam.com/pid/control"
	"go.viam.com/pid/sim"
	"go.viam.com/pid/utils"
)

// parseSetpoint parses VALUE or AT=VALUE.
func parseSetpoint(s string) (sim.Step, error) {
	at, value, found := strings.Cut(s, "=")
	if !found {
		value, at = at, "0"
	}
	atF, err := strconv.ParseFloat(strings.TrimSpace(at), 64)
	if err != nil {
		return sim.Step{}, errors.Wrapf(err, "invalid setpoint time in %q", s)
	}
	valueF, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return sim.Step{}, errors.Wrapf(err, "invalid setpoint value in %q", s)
	}
	return sim.Step{At: atF, Value: valueF}, nil
}

// gainsFromFlags starts from the configured gains and applies any gain flag that was set.
func gainsFromFlags(c *cli.Context, cfg *config.Config) control.Gains {
	g := cfg.Controller
	if c.IsSet(kpFlag) {
		g.Kp = c.Float64(kpFlag)
	}
	if c.IsSet(kiFlag) {
		g.Ki = c.Float64(kiFlag)
	}
	if c.IsSet(kdFlag) {
		g.Kd = c.Float64(kdFlag)
	}
	return g
}

// simConfigFromFlags starts from the configured simulation, or the flag defaults when there is
// none, and applies every flag that was set.
func simConfigFromFlags(c *cli.Context, cfg *config.Config) (sim.Config, error) {
	var out sim.Config
	if cfg.Simulation != nil {
		out = *cfg.Simulation
	} else {
		out = sim.Config{
			Steps:      c.Int(stepsFlag),
			SampleTime: c.Float64(sampleTimeFlag),
			Setpoints:  []sim.Step{{At: 0, Value: 1}},
			Plant:      sim.PlantConfig{Type: c.String(plantFlag)},
		}
	}
	if c.IsSet(stepsFlag) {
		out.Steps = c.Int(stepsFlag)
	}
	if c.IsSet(sampleTimeFlag) {
		out.SampleTime = c.Float64(sampleTimeFlag)
	}
	if c.IsSet(setpointFlag) {
		out.Setpoints = nil
		for _, s := range c.StringSlice(setpointFlag) {
			step, err := parseSetpoint(s)
			if err != nil {
				return sim.Config{}, err
			}
			out.Setpoints = append(out.Setpoints, step)
		}
	}
	if c.IsSet(plantFlag) && c.String(plantFlag) != out.Plant.Type {
		out.Plant = sim.PlantConfig{Type: c.String(plantFlag)}
	}
	attrs := utils.AttributeMap{}
	for k, v := range out.Plant.Attributes {
		attrs[k] = v
	}
	if c.IsSet(tauFlag) {
		attrs["tau"] = c.Float64(tauFlag)
	}
	if c.IsSet(plantGainFlag) {
		attrs["gain"] = c.Float64(plantGainFlag)
	}
	out.Plant.Attributes = attrs
	return out, out.Validate()
}

// SimulateAction runs a closed loop simulation and prints a summary of how it tracked.
func SimulateAction(c *cli.Context) error {
	logger := newLogger(c)
	cfg, err := readConfig(c, logger)
	if err != nil {
		return err
	}
	gains := gainsFromFlags(c, cfg)
	simCfg, err := simConfigFromFlags(c, cfg)
	if err != nil {
		return err
	}
	plant, err := sim.NewPlant(simCfg.Plant)
	if err != nil {
		return err
	}

	pid := control.NewPID(gains, control.WithOrigin(0))
	h, err := sim.Run(runContext(c, cfg), simCfg, pid, plant, logger.Sublogger("sim"))
	if err != nil {
		return err
	}
	summary, err := h.Summarize()
	if err != nil {
		return err
	}

	printf(c.App.Writer, "kp=%g ki=%g kd=%g plant=%s steps=%d", gains.Kp, gains.Ki, gains.Kd,
		simCfg.Plant.Type, simCfg.Steps)
	if c.Bool(tableFlag) {
		printf(c.App.Writer, "%s", h.Table())
	}
	printf(c.App.Writer, "%s", summary.String())

	if path := c.Path(csvFlag); path != "" {
		if err := writeCSV(c, h, path); err != nil {
			return err
		}
	}
	if path := c.Path(plotFlag); path != "" {
		if err := h.PlotPNG(path, 8, 5); err != nil {
			return errors.Wrap(err, "cannot save plot")
		}
		logger.Infow("saved plot", "path", path)
	}
	return nil
}

func writeCSV(c *cli.Context, h *sim.History, path string) (err error) {
	if path == "-" {
		return h.WriteCSV(c.App.Writer)
	}
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "cannot create csv file")
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return h.WriteCSV(f)
}
