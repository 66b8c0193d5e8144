package control

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"go.viam.com/pid/logging"
	"go.viam.com/pid/utils"
)

type controlBlockType string

const (
	blockEndpoint controlBlockType = "endpoint"
	blockPID      controlBlockType = "PID"
	blockGain     controlBlockType = "gain"
	blockSum      controlBlockType = "sum"
	blockConstant controlBlockType = "constant"
)

// Block types accepted in a BlockConfig.
const (
	BlockTypeEndpoint = blockEndpoint
	BlockTypePID      = blockPID
	BlockTypeGain     = blockGain
	BlockTypeSum      = blockSum
	BlockTypeConstant = blockConstant
)

// BlockConfig configuration of a given block.
type BlockConfig struct {
	Name      string             `json:"name"`       // Control Block name
	Type      controlBlockType   `json:"type"`       // Control Block type
	Attribute utils.AttributeMap `json:"attributes"` // Internal block configuration
	DependsOn []string           `json:"depends_on"` // List of blocks needed for calling Next
}

// Block interface for a control block.
type Block interface {
	// Reset will reset the control block to initial state. Returns an error on failure
	Reset(ctx context.Context) error

	// Next calculate the next output. Takes an array of float64 , a delta time returns True and the output value on success false otherwise
	Next(ctx context.Context, x []*Signal, dt time.Duration) ([]*Signal, bool)

	// UpdateConfig update the configuration of a pre-existing control block returns an error on failure
	UpdateConfig(ctx context.Context, config BlockConfig) error

	// Output returns the most recent valid value, useful for block aggregating signals
	Output(ctx context.Context) []*Signal

	// Config returns the underlying config for a Block
	Config(ctx context.Context) BlockConfig
}

// floatAttribute reads the numeric attribute name of a kind block, def when it is absent.
func floatAttribute(cfg BlockConfig, kind, name string, def float64) (float64, error) {
	x, ok := cfg.Attribute[name]
	if !ok {
		return def, nil
	}
	v, err := utils.ToFloat64(x)
	if err != nil {
		return 0, errors.Wrapf(err, "%s block %s field %s", kind, cfg.Name, name)
	}
	return v, nil
}

func createBlock(cfg BlockConfig, logger logging.Logger) (Block, error) {
	t := cfg.Type
	switch t {
	case blockEndpoint:
		return newEndpoint(cfg, logger, nil)
	case blockSum:
		return newSum(cfg, logger)
	case blockGain:
		return newGain(cfg, logger)
	case blockPID:
		return newPID(cfg, logger)
	case blockConstant:
		return newConstant(cfg, logger)
	}
	return nil, errors.Errorf("unsupported block type %s", t)
}
