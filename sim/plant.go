// Package sim closes a PID controller around a simulated process and records how it behaves.
package sim

import (
	"github.com/pkg/errors"

	"go.viam.com/pid/utils"
)

// Plant is a simulated process driven by a controller correction.
type Plant interface {
	// Output returns the current process value.
	Output() float64
	// Apply advances the process by dt seconds under correction u.
	Apply(u, dt float64)
}

// Plant types.
const (
	PlantIntegrator = "integrator"
	PlantFirstOrder = "first_order"
)

// PlantConfig selects and parameterizes a plant.
type PlantConfig struct {
	Type       string             `json:"type"`
	Attributes utils.AttributeMap `json:"attributes,omitempty"`
}

type integratorAttrs struct {
	Gain    *float64 `json:"gain"`
	Initial float64  `json:"initial"`
}

type firstOrderAttrs struct {
	Gain    *float64 `json:"gain"`
	Tau     float64  `json:"tau"`
	Initial float64  `json:"initial"`
}

func gainOrDefault(g *float64) float64 {
	if g == nil {
		return 1
	}
	return *g
}

// NewPlant builds the plant described by cfg.
func NewPlant(cfg PlantConfig) (Plant, error) {
	switch cfg.Type {
	case PlantIntegrator, "":
		attrs, err := utils.TransformAttributeMap[integratorAttrs](cfg.Attributes)
		if err != nil {
			return nil, errors.Wrap(err, "integrator plant")
		}
		return &integrator{gain: gainOrDefault(attrs.Gain), y: attrs.Initial}, nil
	case PlantFirstOrder:
		attrs, err := utils.TransformAttributeMap[firstOrderAttrs](cfg.Attributes)
		if err != nil {
			return nil, errors.Wrap(err, "first_order plant")
		}
		if attrs.Tau <= 0 {
			return nil, errors.Errorf("first_order plant needs a positive tau got %v", attrs.Tau)
		}
		return &firstOrder{gain: gainOrDefault(attrs.Gain), tau: attrs.Tau, y: attrs.Initial}, nil
	}
	return nil, errors.Errorf("unsupported plant type %s", cfg.Type)
}

// integrator accumulates the correction: dy/dt = gain*u.
type integrator struct {
	gain float64
	y    float64
}

func (p *integrator) Output() float64 {
	return p.y
}

func (p *integrator) Apply(u, dt float64) {
	p.y += p.gain * u * dt
}

// firstOrder lags toward gain*u with time constant tau: tau*dy/dt = gain*u - y.
type firstOrder struct {
	gain float64
	tau  float64
	y    float64
}

func (p *firstOrder) Output() float64 {
	return p.y
}

func (p *firstOrder) Apply(u, dt float64) {
	p.y += dt / p.tau * (p.gain*u - p.y)
}
