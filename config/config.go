// Package config defines the structures to configure a PID controller, its simulation and its
// control loop.
package config

import (
	"github.com/pkg/errors"

	"go.viam.com/pid/control"
	"go.viam.com/pid/logging"
	"go.viam.com/pid/sim"
)

// A Config describes the configuration of a controller.
type Config struct {
	ConfigFilePath string          `json:"-"`
	Controller     control.Gains   `json:"controller"`
	Simulation     *sim.Config     `json:"simulation,omitempty"`
	Loop           *control.Config `json:"loop,omitempty"`
	// Debug traces every simulation sample and block update.
	Debug bool `json:"debug,omitempty"`
}

// Ensure ensures all parts of the config are valid and fills in defaults.
func (c *Config) Ensure(logger logging.Logger) error {
	if c.Simulation != nil {
		if err := c.Simulation.Validate(); err != nil {
			return errors.Wrap(err, "simulation")
		}
	}
	if c.Loop != nil {
		if err := c.Loop.Validate(); err != nil {
			return errors.Wrap(err, "loop")
		}
		if !hasPIDBlock(c.Loop) {
			logger.Warnw("loop has no PID block, controller gains will not be applied to it", "path", c.ConfigFilePath)
		}
	}
	if c.Controller == (control.Gains{}) {
		logger.Debug("controller gains are all zero")
	}
	return nil
}

func hasPIDBlock(cfg *control.Config) bool {
	for _, b := range cfg.Blocks {
		if b.Type == control.BlockTypePID {
			return true
		}
	}
	return false
}
