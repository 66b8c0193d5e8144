package sim

import (
	"sort"
)

// Step changes the setpoint to Value from time At, in seconds, onward.
type Step struct {
	At    float64 `json:"at"`
	Value float64 `json:"value"`
}

// Schedule is a piecewise constant setpoint. Before the first step it is zero.
type Schedule []Step

// NewSchedule returns the steps ordered by time. Steps sharing a time keep their given order so
// the last one wins.
func NewSchedule(steps ...Step) Schedule {
	s := make(Schedule, len(steps))
	copy(s, steps)
	sort.SliceStable(s, func(i, j int) bool { return s[i].At < s[j].At })
	return s
}

// At returns the setpoint at time t.
func (s Schedule) At(t float64) float64 {
	v := 0.0
	for _, step := range s {
		if step.At > t {
			break
		}
		v = step.Value
	}
	return v
}

// Final returns the setpoint once every step has happened.
func (s Schedule) Final() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].Value
}
