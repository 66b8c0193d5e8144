package sim

import (
	"context"

	"github.com/pkg/errors"

	"go.viam.com/pid/control"
	"go.viam.com/pid/logging"
)

// Defaults used when a Config leaves them out.
const (
	DefaultSteps      = 200
	DefaultSampleTime = 0.05
)

// Config describes a closed loop simulation.
type Config struct {
	Steps      int         `json:"steps"`
	SampleTime float64     `json:"sample_time"`
	Setpoints  []Step      `json:"setpoints"`
	Plant      PlantConfig `json:"plant"`
}

// Validate fills in defaults and checks the configuration, including the plant description.
func (cfg *Config) Validate() error {
	if err := cfg.validateRun(); err != nil {
		return err
	}
	if _, err := NewPlant(cfg.Plant); err != nil {
		return err
	}
	return nil
}

// validateRun fills in defaults and checks the step settings. Run drives the plant it is given,
// so cfg.Plant is not looked at.
func (cfg *Config) validateRun() error {
	if cfg.Steps == 0 {
		cfg.Steps = DefaultSteps
	}
	if cfg.SampleTime == 0 {
		cfg.SampleTime = DefaultSampleTime
	}
	if cfg.Plant.Type == "" {
		cfg.Plant.Type = PlantIntegrator
	}
	if cfg.Steps < 0 {
		return errors.Errorf("simulation steps must be positive got %d", cfg.Steps)
	}
	if cfg.SampleTime < 0 {
		return errors.Errorf("simulation sample_time must be positive got %v", cfg.SampleTime)
	}
	return nil
}

// Sample is one simulation step.
type Sample struct {
	Time     float64 `json:"time"`
	Setpoint float64 `json:"setpoint"`
	Error    float64 `json:"error"`
	Output   float64 `json:"output"`
	Feedback float64 `json:"feedback"`
}

// History is the record of a simulation run.
type History struct {
	Gains   control.Gains
	Final   float64
	Samples []Sample
}

// Run closes pid around plant for cfg.Steps samples. Time is measured from the controller's
// previous update, so a fresh controller built WithOrigin(0) sees times SampleTime, 2*SampleTime
// and so on.
func Run(ctx context.Context, cfg Config, pid *control.PID, plant Plant, logger logging.Logger) (*History, error) {
	if err := cfg.validateRun(); err != nil {
		return nil, err
	}
	schedule := NewSchedule(cfg.Setpoints...)
	origin := pid.State().PreviousTime
	h := &History{
		Gains:   pid.Gains(),
		Final:   schedule.Final(),
		Samples: make([]Sample, 0, cfg.Steps),
	}
	logger.Debugw("starting simulation", "steps", cfg.Steps, "sample_time", cfg.SampleTime, "plant", cfg.Plant.Type)
	for i := 1; i <= cfg.Steps; i++ {
		if err := ctx.Err(); err != nil {
			return h, err
		}
		t := float64(i) * cfg.SampleTime
		sp := schedule.At(t)
		e := sp - plant.Output()
		u := pid.UpdateAt(e, origin+t)
		plant.Apply(u, cfg.SampleTime)
		s := Sample{
			Time:     t,
			Setpoint: sp,
			Error:    e,
			Output:   u,
			Feedback: plant.Output(),
		}
		h.Samples = append(h.Samples, s)
		logger.CDebugw(ctx, "sample", "time", s.Time, "error", s.Error, "output", s.Output, "feedback", s.Feedback)
	}
	logger.Debugw("simulation done", "samples", len(h.Samples))
	return h, nil
}
