package control

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Seconds returns the current time of c as real-valued seconds since the Unix epoch.
func Seconds(c clock.Clock) float64 {
	return toSeconds(c.Now())
}

func toSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
