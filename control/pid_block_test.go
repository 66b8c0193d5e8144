package control

import (
	"context"
	"testing"
	"time"

	"go.viam.com/test"

	"go.viam.com/pid/logging"
	"go.viam.com/pid/utils"
)

func TestPIDBlockConfig(t *testing.T) {
	logger := logging.NewTestLogger(t)
	for _, c := range []struct {
		conf BlockConfig
		err  string
	}{
		{
			BlockConfig{
				Name:      "PID1",
				Type:      blockPID,
				Attribute: utils.AttributeMap{"kp": 1.0, "ki": 0.5},
				DependsOn: []string{"A"},
			},
			"",
		},
		{
			BlockConfig{
				Name:      "PID1",
				Type:      blockPID,
				Attribute: utils.AttributeMap{"kpp": 1.0},
				DependsOn: []string{"A"},
			},
			"pid block PID1 should have at least one ki, kp or kd field",
		},
		{
			BlockConfig{
				Name:      "PID1",
				Type:      blockPID,
				Attribute: utils.AttributeMap{"kd": 1.0},
				DependsOn: []string{"A", "B"},
			},
			"pid block PID1 should have 1 input got 2",
		},
		{
			BlockConfig{
				Name:      "PID1",
				Type:      blockPID,
				Attribute: utils.AttributeMap{"kp": "2"},
				DependsOn: []string{"A"},
			},
			"pid block PID1 field kp: expected float64 but got string",
		},
	} {
		b, err := newPID(c.conf, logger)
		if c.err == "" {
			test.That(t, err, test.ShouldBeNil)
			p := b.(*pidBlock)
			test.That(t, p.pid.Gains(), test.ShouldResemble, Gains{Kp: 1.0, Ki: 0.5})
		} else {
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldResemble, c.err)
		}
	}
}

func TestPIDBlockNext(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)
	c := BlockConfig{
		Name:      "PID1",
		Type:      blockPID,
		Attribute: utils.AttributeMap{"kp": 2.0, "ki": 1.0, "kd": 0.5},
		DependsOn: []string{"A"},
	}
	b, err := newPID(c, logger)
	test.That(t, err, test.ShouldBeNil)
	p := b.(*pidBlock)

	a := makeSignal("A")
	a.SetSignalValueAt(0, 4.0)

	// dt=0.5: P=4, I=2, D=8
	out, ok := p.Next(ctx, []*Signal{a}, 500*time.Millisecond)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, out[0].GetSignalValueAt(0), test.ShouldEqual, 2*4.0+1*2.0+0.5*8.0)

	// dt=0.5: P=2, I=3, D=-4
	a.SetSignalValueAt(0, 2.0)
	out, ok = p.Next(ctx, []*Signal{a}, 500*time.Millisecond)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, out[0].GetSignalValueAt(0), test.ShouldEqual, 2*2.0+1*3.0+0.5*-4.0)
	test.That(t, p.State(), test.ShouldResemble, State{
		PreviousTime:  1,
		PreviousError: 2,
		Proportional:  2,
		Integral:      3,
		Derivative:    -4,
	})

	// no elapsed time leaves the controller untouched and outputs zero
	out, ok = p.Next(ctx, []*Signal{a}, 0)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, out[0].GetSignalValueAt(0), test.ShouldEqual, 0.0)
	test.That(t, p.State().Integral, test.ShouldEqual, 3.0)

	_, ok = p.Next(ctx, []*Signal{}, 500*time.Millisecond)
	test.That(t, ok, test.ShouldBeFalse)

	c.Attribute = utils.AttributeMap{"ki": 4.0}
	test.That(t, p.UpdateConfig(ctx, c), test.ShouldBeNil)
	test.That(t, p.State(), test.ShouldResemble, State{})
	out, ok = p.Next(ctx, []*Signal{a}, time.Second)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, out[0].GetSignalValueAt(0), test.ShouldEqual, 8.0)
}

func TestPIDBlockRejectedConfigKeepsController(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)
	c := BlockConfig{
		Name:      "PID1",
		Type:      blockPID,
		Attribute: utils.AttributeMap{"ki": 1},
		DependsOn: []string{"A"},
	}
	b, err := newPID(c, logger)
	test.That(t, err, test.ShouldBeNil)
	p := b.(*pidBlock)

	a := makeSignal("A")
	a.SetSignalValueAt(0, 2.0)
	_, ok := p.Next(ctx, []*Signal{a}, time.Second)
	test.That(t, ok, test.ShouldBeTrue)

	bad := c
	bad.Attribute = utils.AttributeMap{"ki": "fast"}
	err = p.UpdateConfig(ctx, bad)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldEqual, "pid block PID1 field ki: expected float64 but got string")
	test.That(t, p.Config(ctx), test.ShouldResemble, c)
	test.That(t, p.State().Integral, test.ShouldEqual, 2.0)

	// ints are accepted as gains
	out, ok := p.Next(ctx, []*Signal{a}, time.Second)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, out[0].GetSignalValueAt(0), test.ShouldEqual, 4.0)
}
