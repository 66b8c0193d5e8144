package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"

	"go.viam.com/pid/control"
	"go.viam.com/pid/logging"
	"go.viam.com/pid/sim"
	"go.viam.com/pid/utils"
)

const fullConfig = `{
	"controller": {"kp": ${PID_KP}, "ki": 0.5, "kd": 0.01},
	"simulation": {
		"sample_time": 0.1,
		"setpoints": [{"at": 0, "value": 1}, {"at": 5, "value": -1}],
		"plant": {"type": "first_order", "attributes": {"tau": 0.8, "gain": 2}}
	},
	"loop": {
		"frequency": 50,
		"blocks": [
			{"name": "sp", "type": "constant", "attributes": {"constant_val": 1}},
			{"name": "err", "type": "sum", "attributes": {"sum_string": "+-"}, "depends_on": ["sp", "plant"]},
			{"name": "pid", "type": "PID", "attributes": {"kp": 2}, "depends_on": ["err"]},
			{"name": "plant", "type": "endpoint", "depends_on": ["pid"]}
		]
	}
}`

func writeConfig(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, "pid.json")
	test.That(t, os.WriteFile(path, []byte(contents), 0o600), test.ShouldBeNil)
	return path
}

func TestRead(t *testing.T) {
	logger := logging.NewTestLogger(t)
	t.Setenv("PID_KP", "1.25")
	path := writeConfig(t, t.TempDir(), fullConfig)

	cfg, err := Read(context.Background(), path, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.ConfigFilePath, test.ShouldEqual, path)
	test.That(t, cfg.Controller, test.ShouldResemble, control.Gains{Kp: 1.25, Ki: 0.5, Kd: 0.01})

	test.That(t, cfg.Simulation, test.ShouldNotBeNil)
	test.That(t, cfg.Simulation.Steps, test.ShouldEqual, sim.DefaultSteps)
	test.That(t, cfg.Simulation.SampleTime, test.ShouldEqual, 0.1)
	test.That(t, cfg.Simulation.Setpoints, test.ShouldResemble, []sim.Step{{At: 0, Value: 1}, {At: 5, Value: -1}})
	test.That(t, cfg.Simulation.Plant.Type, test.ShouldEqual, sim.PlantFirstOrder)
	test.That(t, cfg.Simulation.Plant.Attributes.Float64("tau", 0), test.ShouldEqual, 0.8)

	test.That(t, cfg.Loop, test.ShouldNotBeNil)
	test.That(t, cfg.Loop.Frequency, test.ShouldEqual, 50.0)
	test.That(t, len(cfg.Loop.Blocks), test.ShouldEqual, 4)
	test.That(t, cfg.Loop.Blocks[2].Type, test.ShouldEqual, control.BlockTypePID)
	test.That(t, cfg.Loop.Blocks[1].DependsOn, test.ShouldResemble, []string{"sp", "plant"})

	_, err = Read(context.Background(), filepath.Join(t.TempDir(), "missing.json"), logger)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestFromReaderErrors(t *testing.T) {
	logger := logging.NewTestLogger(t)
	for _, c := range []struct {
		name string
		json string
		err  string
	}{
		{"not json", `{"controller":`, "failed to decode Config from json"},
		{"bad plant", `{"simulation": {"plant": {"type": "first_order"}}}`, "simulation: first_order plant needs a positive tau"},
		{"bad frequency", `{"loop": {"frequency": 500, "blocks": []}}`, "loop: loop frequency shouldn't be 0 or above 200Hz"},
		{"missing block", `{"loop": {"frequency": 10, "blocks": [{"name": "g", "type": "gain", "depends_on": ["x"]}]}}`, "block g depends on x"},
		{
			"string gain",
			`{"loop": {"frequency": 10, "blocks": [
				{"name": "e", "type": "constant", "attributes": {"constant_val": 1}},
				{"name": "p", "type": "PID", "attributes": {"kp": "2"}, "depends_on": ["e"]}
			]}}`,
			"loop: pid block p field kp: expected float64 but got string",
		},
		{
			"numeric sum string",
			`{"loop": {"frequency": 10, "blocks": [
				{"name": "e", "type": "constant", "attributes": {"constant_val": 1}},
				{"name": "s", "type": "sum", "attributes": {"sum_string": 1}, "depends_on": ["e"]}
			]}}`,
			"loop: sum block s field sum_string: expected string but got float64",
		},
		{
			"block without attributes",
			`{"loop": {"frequency": 10, "blocks": [{"name": "c", "type": "constant"}]}}`,
			"loop: constant block c doesn't have a constant_val field",
		},
	} {
		t.Run(c.name, func(t *testing.T) {
			_, err := FromReader(context.Background(), "", strings.NewReader(c.json), logger)
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, c.err)
		})
	}
}

func TestEnsureWarnsWithoutPIDBlock(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	cfg := Config{
		Controller: control.Gains{Kp: 1},
		Loop: &control.Config{
			Frequency: 10,
			Blocks: []control.BlockConfig{
				{Name: "c", Type: control.BlockTypeConstant, Attribute: utils.AttributeMap{"constant_val": 1.0}},
			},
		},
	}
	test.That(t, cfg.Ensure(logger), test.ShouldBeNil)
	test.That(t, logs.FilterMessageSnippet("no PID block").Len(), test.ShouldEqual, 1)

	cfg = Config{}
	test.That(t, cfg.Ensure(logger), test.ShouldBeNil)
	test.That(t, cfg.Simulation, test.ShouldBeNil)
}
