package max8997

import (
	"math"
	"strconv"

	"powercode-go/errcode"
	"powercode-go/x/mathx"
)

// Selector drives the shared SET1..SET3 lines that pick the live DVS slot
// for every GPIO-driven buck at once.
type Selector interface {
	Set(slot int) error
}

const (
	dvsSlots = 8

	// Slot used to address a DVS-capable buck that is not GPIO-driven.
	// Slot 0 is reserved: a watchdog reset snaps the selector lines to
	// zero, so slot 0 always holds the safety-cap voltage.
	fixedDVSSlot = 1
)

// dvsMembers lists the gang in cost-accounting order.
var dvsMembers = [3]RailID{Buck1, Buck2, Buck5}

func dvsMemberIndex(r RailID) (int, bool) {
	for i, m := range dvsMembers {
		if m == r {
			return i, true
		}
	}
	return 0, false
}

// dvsMember caches one buck's programmed slot table. codes mirrors the
// BUCKnDVS1..8 registers; capCode bounds every entry.
type dvsMember struct {
	enabled bool // GPIO-driven selection in effect
	codes   [dvsSlots]uint8
	capCode uint8
}

// dvsState is the shared-selector state guarded by Device.mu. enabled and
// capCode are fixed at bring-up; index and codes change at runtime.
type dvsState struct {
	members    [3]dvsMember
	index      int // committed shared slot
	allowDrift bool
	notify     func(DriftEvent)
}

// DriftEvent reports a committed selector move that changed the output of
// sibling bucks. CostSteps sums the selector steps the siblings jumped.
type DriftEvent struct {
	Rail      RailID
	FromSlot  int
	ToSlot    int
	CostSteps int
}

// assess scans the member's slot table for entries holding exactly code
// and weighs the damage selecting each would do: the summed selector
// movement of the other GPIO-driven bucks relative to the committed slot.
// A harmless slot wins outright; otherwise the cheapest (lowest slot on a
// tie, since the scan ascends). ok is false when no slot holds the code.
func (s *dvsState) assess(member, code int) (slot, cost int, ok bool) {
	bestSlot, bestCost := -1, math.MaxInt
	for i := 0; i < dvsSlots; i++ {
		if int(s.members[member].codes[i]) != code {
			continue
		}
		c := 0
		for o := range s.members {
			if o == member || !s.members[o].enabled {
				continue
			}
			c += mathx.Abs(int(s.members[o].codes[i]) - int(s.members[o].codes[s.index]))
		}
		if c == 0 {
			return i, 0, true
		}
		if c < bestCost {
			bestSlot, bestCost = i, c
		}
	}
	if bestSlot < 0 {
		return 0, 0, false
	}
	return bestSlot, bestCost, true
}

// resolveDVS serves SetVoltage for a GPIO-driven buck. The initial
// candidate is the lowest table code inside [minUV, maxUV]; the scan then
// walks the code upward across the class table, preferring the first slot
// that moves no sibling and otherwise remembering the cheapest match.
// Without a harmless slot the move either commits the cheapest one (when
// the configuration tolerates drift) or fails leaving every output as it
// was. The committed slot is driven out through the selector lines before
// the cached index moves, so a failed line write cannot desync the cache.
func (d *Device) resolveDVS(member int, minUV, maxUV int32) (int, error) {
	rail := dvsMembers[member]
	dsc := &descs[rail]
	code, err := dsc.class.selectorFor(minUV/dsc.class.scale, maxUV/dsc.class.scale)
	if err != nil {
		return 0, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	bestSlot, bestCost, bestCode := -1, math.MaxInt, -1
	for ; ; code++ {
		if _, err := dsc.class.valueAt(code); err != nil {
			break // ran off the table
		}
		slot, cost, ok := d.dvs.assess(member, code)
		if !ok {
			continue // code not programmed into any slot
		}
		if cost == 0 {
			bestSlot, bestCost, bestCode = slot, 0, code
			break
		}
		if cost < bestCost {
			bestSlot, bestCost, bestCode = slot, cost, code
		}
	}
	if bestSlot < 0 {
		return 0, errcode.New(errcode.Range, "set_voltage",
			dsc.name+": no programmed slot reaches the window")
	}
	if bestCost > 0 && !d.dvs.allowDrift {
		return 0, errcode.New(errcode.CollateralDrift, "set_voltage",
			dsc.name+": best slot moves siblings by "+strconv.Itoa(bestCost)+" steps")
	}

	from := d.dvs.index
	if err := d.commitSlot(bestSlot); err != nil {
		return 0, err
	}
	if bestCost > 0 && d.dvs.notify != nil {
		// Runs under the device lock; handlers must not call back in.
		d.dvs.notify(DriftEvent{Rail: rail, FromSlot: from, ToSlot: bestSlot, CostSteps: bestCost})
	}
	return bestCode, nil
}

// commitSlot drives the selector lines and only then moves the cached
// index; after a line failure the cache still names the last slot that
// was actually driven. Callers hold d.mu.
func (d *Device) commitSlot(slot int) error {
	if d.sel == nil {
		return errcode.New(errcode.InvalidConfig, "dvs", "no selector wired")
	}
	if err := d.sel.Set(slot); err != nil {
		return errcode.Wrap(errcode.Transport, "dvs selector", err)
	}
	d.dvs.index = slot
	return nil
}

// DVSSlot reports the committed shared slot.
func (d *Device) DVSSlot() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dvs.index
}

// OnDrift installs a handler for committed moves that disturbed sibling
// bucks. The handler runs with the device locked and must return quickly.
func (d *Device) OnDrift(fn func(DriftEvent)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dvs.notify = fn
}

// SetDVSTable reprograms one GPIO-driven buck's slot table from per-slot
// microvolt targets. Slot 0 and unspecified slots keep the safety cap; no
// entry may exceed it. The register file and the cache move together.
func (d *Device) SetDVSTable(rail RailID, uv []int32) error {
	if err := checkRail("set_dvs_table", rail); err != nil {
		return err
	}
	m, ok := dvsMemberIndex(rail)
	if !ok {
		return errcode.New(errcode.UnsupportedRail, "set_dvs_table",
			descs[rail].name+" has no slot table")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	mem := &d.dvs.members[m]
	if !mem.enabled {
		return errcode.New(errcode.UnsupportedRail, "set_dvs_table",
			descs[rail].name+" is not gpio-driven")
	}
	codes, err := buildCodes(descs[rail].class, uv, mem.capCode)
	if err != nil {
		return err
	}
	if err := d.writeDVSCodes(rail, codes); err != nil {
		return err
	}
	mem.codes = codes
	return nil
}

// writeDVSCodes programs the eight consecutive slot registers of a
// DVS-capable buck.
func (d *Device) writeDVSCodes(rail RailID, codes [dvsSlots]uint8) error {
	base := descs[rail].vReg
	for i, code := range codes {
		if err := d.conn.WriteReg(base+uint8(i), code); err != nil {
			return errcode.Wrap(errcode.Transport, "program "+descs[rail].name+" table", err)
		}
	}
	return nil
}
