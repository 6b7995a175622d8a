package max8997

import (
	"powercode-go/errcode"
	"powercode-go/x/mathx"
)

// railClass describes one linear selector table. Values are kept in the
// chip's table units: millivolts for voltage rails, microamps for current
// rails. scale converts a table value to the microvolt/microamp boundary
// unit, so the two kinds share every code path below.
type railClass struct {
	min   int32
	step  int32
	max   int32
	bits  uint8
	scale int32
}

var (
	classLDO      = &railClass{min: 800, step: 50, max: 3950, bits: 6, scale: 1000}
	classBuck1245 = &railClass{min: 650, step: 25, max: 2225, bits: 6, scale: 1000}
	classBuck37   = &railClass{min: 750, step: 50, max: 3900, bits: 6, scale: 1000}

	classFlashCur  = &railClass{min: 23440, step: 23440, max: 750080, bits: 5, scale: 1}
	classMovieCur  = &railClass{min: 15625, step: 15625, max: 250000, bits: 4, scale: 1}
	classChgCur    = &railClass{min: 200000, step: 50000, max: 950000, bits: 4, scale: 1}
	classTopoffCur = &railClass{min: 50000, step: 10000, max: 200000, bits: 4, scale: 1}
)

// count returns the number of selectable values.
func (c *railClass) count() int { return int((c.max-c.min)/c.step) + 1 }

// valueAt returns the table value for a selector code, in table units.
func (c *railClass) valueAt(sel int) (int32, error) {
	if sel < 0 {
		return 0, errcode.New(errcode.Range, "value_at", "negative selector")
	}
	v := c.min + c.step*int32(sel)
	if v > c.max {
		return 0, errcode.New(errcode.Range, "value_at", "selector beyond table")
	}
	return v, nil
}

// selectorFor returns the smallest selector whose value lies inside
// [lo, hi] (table units). Values are never interpolated; a window that
// admits no table value is a range error.
func (c *railClass) selectorFor(lo, hi int32) (int, error) {
	if lo > hi {
		return 0, errcode.New(errcode.Range, "selector_for", "window inverted")
	}
	i := 0
	for c.min+c.step*int32(i) < lo && c.min+c.step*int32(i) < c.max {
		i++
	}
	v := c.min + c.step*int32(i)
	if v < lo || v > hi {
		return 0, errcode.New(errcode.Range, "selector_for", "window admits no value")
	}
	if i >= 1<<c.bits {
		return 0, errcode.New(errcode.Range, "selector_for", "selector beyond field")
	}
	return i, nil
}

// codeCeil returns the selector holding the next table value at or above
// v, the conversion used when loading DVS slot targets.
func (c *railClass) codeCeil(v int32) (int, error) {
	return c.selectorFor(v, v+c.step)
}

// codeExact requires v to sit exactly on the table, used for safety caps.
func (c *railClass) codeExact(v int32) (int, error) {
	return c.selectorFor(v, v)
}

// buildCodes turns per-slot voltages (boundary units) into register codes.
// Slot 0 and every unspecified slot are pinned to the cap code, and no
// slot may exceed it.
func buildCodes(c *railClass, uv []int32, capCode uint8) ([dvsSlots]uint8, error) {
	var out [dvsSlots]uint8
	for i := range out {
		out[i] = capCode
	}
	for i, v := range uv {
		if i >= dvsSlots {
			break
		}
		if i == 0 {
			continue // reserved for the reset cap
		}
		code, err := c.codeCeil(v / c.scale)
		if err != nil {
			return out, err
		}
		out[i] = uint8(mathx.Min(code, int(capCode)))
	}
	return out, nil
}
