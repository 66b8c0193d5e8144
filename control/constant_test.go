package control

import (
	"context"
	"testing"
	"time"

	"go.viam.com/test"

	"go.viam.com/pid/logging"
	"go.viam.com/pid/utils"
)

func TestConstantConfig(t *testing.T) {
	logger := logging.NewTestLogger(t)
	for _, c := range []struct {
		conf BlockConfig
		err  string
	}{
		{
			BlockConfig{
				Name: "Constant1",
				Type: blockConstant,
				Attribute: utils.AttributeMap{
					"constant_val": 1.89345,
				},
				DependsOn: []string{},
			},
			"",
		},
		{
			BlockConfig{
				Name: "Constant1",
				Type: blockConstant,
				Attribute: utils.AttributeMap{
					"constantS": 1.89345,
				},
				DependsOn: []string{},
			},
			"constant block Constant1 doesn't have a constant_val field",
		},
		{
			BlockConfig{
				Name: "Constant1",
				Type: blockConstant,
				Attribute: utils.AttributeMap{
					"constant_val": 1.89345,
				},
				DependsOn: []string{"A", "B"},
			},
			"invalid number of inputs for constant block Constant1 expected 0 got 2",
		},
		{
			BlockConfig{
				Name: "Constant1",
				Type: blockConstant,
				Attribute: utils.AttributeMap{
					"constant_val": "1.89345",
				},
			},
			"constant block Constant1: expected float64 but got string",
		},
	} {
		b, err := newConstant(c.conf, logger)
		if c.err == "" {
			test.That(t, err, test.ShouldBeNil)
			s := b.(*constant)
			test.That(t, len(s.y), test.ShouldEqual, 1)
		} else {
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldResemble, c.err)
		}
	}
}

func TestConstantNext(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)
	c := BlockConfig{
		Name: "Constant1",
		Type: blockConstant,
		Attribute: utils.AttributeMap{
			"constant_val": 1.89345,
		},
		DependsOn: []string{},
	}
	s, err := newConstant(c, logger)
	test.That(t, err, test.ShouldBeNil)

	out, ok := s.Next(ctx, []*Signal{}, time.Millisecond*1)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, out[0].GetSignalValueAt(0), test.ShouldEqual, 1.89345)
	test.That(t, out[0].Name(), test.ShouldEqual, "Constant1")

	c.Attribute = utils.AttributeMap{"constant_val": 4}
	test.That(t, s.UpdateConfig(ctx, c), test.ShouldBeNil)
	test.That(t, s.Output(ctx)[0].GetSignalValueAt(0), test.ShouldEqual, 4.0)
}
