// Package cli contains the pidctl command line application.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"

	"go.viam.com/pid/sim"
)

const (
	// Global flags.
	configFlag = "config"
	debugFlag  = "debug"

	// Controller flags.
	kpFlag = "kp"
	kiFlag = "ki"
	kdFlag = "kd"

	// Simulation flags.
	stepsFlag      = "steps"
	sampleTimeFlag = "sample-time"
	setpointFlag   = "setpoint"
	plantFlag      = "plant"
	tauFlag        = "tau"
	plantGainFlag  = "plant-gain"
	csvFlag        = "csv"
	tableFlag      = "table"
	plotFlag       = "plot"

	// Loop flags.
	durationFlag = "duration"
	watchFlag    = "watch"
)

func gainFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Float64Flag{
			Name:  kpFlag,
			Usage: "proportional gain",
		},
		&cli.Float64Flag{
			Name:  kiFlag,
			Usage: "integral gain",
		},
		&cli.Float64Flag{
			Name:  kdFlag,
			Usage: "derivative gain",
		},
	}
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:            "pidctl",
		Usage:           "tune and exercise PID controllers",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Flags: []cli.Flag{
			&cli.PathFlag{
				Name:    configFlag,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:    debugFlag,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "simulate",
				Usage:     "close a PID controller around a simulated plant and report how it tracks",
				UsageText: "pidctl simulate [--kp N] [--ki N] [--kd N] [--setpoint [AT=]VALUE]... [other options]",
				Flags: append(gainFlags(),
					&cli.IntFlag{
						Name:  stepsFlag,
						Usage: "number of samples to simulate",
						Value: sim.DefaultSteps,
					},
					&cli.Float64Flag{
						Name:  sampleTimeFlag,
						Usage: "seconds between samples",
						Value: sim.DefaultSampleTime,
					},
					&cli.StringSliceFlag{
						Name:  setpointFlag,
						Usage: "setpoint step as VALUE (from time 0) or AT=VALUE, repeatable",
					},
					&cli.StringFlag{
						Name:  plantFlag,
						Usage: "plant model: integrator or first_order",
						Value: sim.PlantIntegrator,
					},
					&cli.Float64Flag{
						Name:  tauFlag,
						Usage: "time constant of a first_order plant",
					},
					&cli.Float64Flag{
						Name:  plantGainFlag,
						Usage: "static gain of the plant",
						Value: 1,
					},
					&cli.PathFlag{
						Name:  csvFlag,
						Usage: "write every sample as CSV to `FILE`, - for stdout",
					},
					&cli.BoolFlag{
						Name:  tableFlag,
						Usage: "print every sample as a table",
					},
					&cli.PathFlag{
						Name:  plotFlag,
						Usage: "save a PNG plot of the run to `FILE`",
					},
				),
				Action: SimulateAction,
			},
			{
				Name:  "loop",
				Usage: "run the configured control loop against a simulated plant",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  durationFlag,
						Usage: "how long to run the loop",
						Value: defaultLoopDuration,
					},
					&cli.BoolFlag{
						Name:  watchFlag,
						Usage: "apply PID block changes from the config file while running",
					},
				},
				Action: LoopAction,
			},
			{
				Name:   "version",
				Usage:  "print version info for this program",
				Action: VersionAction,
			},
		},
	}
}
