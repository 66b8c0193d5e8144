package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/pid/config"
	"go.viam.com/pid/logging"
)

// printf prints a message with no decoration.
func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}

func newLogger(c *cli.Context) logging.Logger {
	logger := logging.NewBlankLogger("pidctl")
	logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))
	if c.Bool(debugFlag) {
		logger.SetLevel(logging.DEBUG)
	} else {
		logger.SetLevel(logging.INFO)
	}
	return logger
}

// readConfig reads the --config file, or returns an empty config when none is given.
func readConfig(c *cli.Context, logger logging.Logger) (*config.Config, error) {
	path := c.Path(configFlag)
	if path == "" {
		return &config.Config{}, nil
	}
	cfg, err := config.Read(c.Context, path, logger)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read config %s", path)
	}
	return cfg, nil
}

// runContext is the command context, in debug mode when the config asks for tracing.
func runContext(c *cli.Context, cfg *config.Config) context.Context {
	if cfg.Debug {
		return logging.EnableDebugMode(c.Context)
	}
	return c.Context
}
