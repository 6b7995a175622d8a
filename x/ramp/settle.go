// Package ramp computes settle delays for regulator outputs that slew
// at a bounded rate after a selector change.
package ramp

import (
	"time"

	"powercode-go/x/mathx"
)

// Sleep blocks for d. Tests substitute a recorder.
type Sleep func(d time.Duration)

// Settle returns the time an output needs to cross steps selector steps
// of stepUV microvolts each, slewing at rateUVPerUs microvolts per
// microsecond. Non-positive inputs need no wait.
func Settle(steps int, stepUV, rateUVPerUs int32) time.Duration {
	if steps <= 0 || stepUV <= 0 || rateUVPerUs <= 0 {
		return 0
	}
	us := mathx.CeilDiv(uint64(steps)*uint64(stepUV), uint64(rateUVPerUs))
	return time.Duration(us) * time.Microsecond
}

// Wait blocks on sleep for the settle time, if any.
// A nil sleep falls back to time.Sleep.
func Wait(steps int, stepUV, rateUVPerUs int32, sleep Sleep) {
	d := Settle(steps, stepUV, rateUVPerUs)
	if d == 0 {
		return
	}
	if sleep == nil {
		sleep = time.Sleep
	}
	sleep(d)
}
