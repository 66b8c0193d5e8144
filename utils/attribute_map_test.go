package utils

import (
	"testing"

	"go.viam.com/test"
)

var sampleAttributeMap = AttributeMap{
	"ok_boolean_false": false,
	"ok_boolean_true":  true,
	"bad_boolean":      "true",
	"json_number":      2.5,
	"int_number":       3,
	"name":             "pid",
	"bad_name":         7,
}

func TestAttributeMap(t *testing.T) {
	test.That(t, sampleAttributeMap.Has("name"), test.ShouldBeTrue)
	test.That(t, sampleAttributeMap.Has("junk_key"), test.ShouldBeFalse)

	// Bool
	test.That(t, sampleAttributeMap.Bool("ok_boolean_true", false), test.ShouldBeTrue)
	test.That(t, sampleAttributeMap.Bool("ok_boolean_false", true), test.ShouldBeFalse)
	test.That(t, sampleAttributeMap.Bool("junk_key", true), test.ShouldBeTrue)
	test.That(t, func() { sampleAttributeMap.Bool("bad_boolean", false) }, test.ShouldPanic)

	// Float64 accepts both json floats and go ints
	test.That(t, sampleAttributeMap.Float64("json_number", 0), test.ShouldEqual, 2.5)
	test.That(t, sampleAttributeMap.Float64("int_number", 0), test.ShouldEqual, 3.0)
	test.That(t, sampleAttributeMap.Float64("junk_key", 1.5), test.ShouldEqual, 1.5)
	test.That(t, func() { sampleAttributeMap.Float64("name", 0) }, test.ShouldPanic)
	for _, v := range []interface{}{int32(4), uint(4), uint32(4), uint64(4), float32(4)} {
		f, err := ToFloat64(v)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, AttributeMap{"n": v}.Float64("n", 0), test.ShouldEqual, f)
	}
	test.That(t, AttributeMap{"n": int32(-7)}.Float64("n", 0), test.ShouldEqual, -7.0)
	test.That(t, AttributeMap{"n": uint64(7)}.Float64("n", 0), test.ShouldEqual, 7.0)

	// Int truncates json floats
	test.That(t, sampleAttributeMap.Int("int_number", 0), test.ShouldEqual, 3)
	test.That(t, sampleAttributeMap.Int("json_number", 0), test.ShouldEqual, 2)
	test.That(t, sampleAttributeMap.Int("junk_key", 9), test.ShouldEqual, 9)
	test.That(t, func() { sampleAttributeMap.Int("name", 0) }, test.ShouldPanic)

	// String
	test.That(t, sampleAttributeMap.String("name"), test.ShouldEqual, "pid")
	test.That(t, sampleAttributeMap.String("junk_key"), test.ShouldEqual, "")
	test.That(t, func() { sampleAttributeMap.String("bad_name") }, test.ShouldPanic)
}

type plantAttrs struct {
	Gain float64 `json:"gain"`
	Tau  float64 `json:"tau"`
}

func TestTransformAttributeMap(t *testing.T) {
	out, err := TransformAttributeMap[plantAttrs](AttributeMap{"gain": 2, "tau": 0.5})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldResemble, plantAttrs{Gain: 2, Tau: 0.5})

	ptr, err := TransformAttributeMap[*plantAttrs](AttributeMap{"gain": 1.5})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ptr, test.ShouldResemble, &plantAttrs{Gain: 1.5})

	_, err = TransformAttributeMap[plantAttrs](AttributeMap{"gain": 1.0, "zeta": 1.0, "omega": 2.0})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldEqual, "unknown attributes [omega zeta]")

	_, err = TransformAttributeMap[plantAttrs](AttributeMap{"gain": "fast"})
	test.That(t, err, test.ShouldNotBeNil)
}
