package max8997

import (
	"sync"

	"powercode-go/errcode"
	"powercode-go/regio"
	"powercode-go/x/ramp"
)

// Device is one MAX8997 PMIC instance. All rail operations go through the
// register connection; GPIO-driven slot moves additionally go through the
// selector. mu guards the shared DVS state only: non-ganged rails touch
// disjoint registers and rely on the connection's atomic read-modify-write.
type Device struct {
	conn regio.Conn
	sel  Selector

	mu  sync.Mutex
	dvs dvsState

	rampUVPerUs int32 // BUCK1/2/4/5 output slew rate

	// raw enable registers captured on suspend, one per rail
	saved    [railCount]uint8
	savedSet [railCount]bool

	sleep ramp.Sleep
}

func checkRail(op string, r RailID) error {
	if !r.valid() {
		return errcode.New(errcode.UnknownRail, op, "no such rail")
	}
	return nil
}

// update performs a masked register write, mapping connection failures to
// transport errors.
func (d *Device) update(reg, val, mask uint8, op string) error {
	if err := d.conn.UpdateReg(reg, val, mask); err != nil {
		return errcode.Wrap(errcode.Transport, op, err)
	}
	return nil
}

// IsEnabled reports whether any enable bit of the rail's field is set.
// Conditional power-off leaves a bit latched, so a parked LDO1/10/21
// still reads as enabled; that matches the chip's own notion of "not
// fully off".
func (d *Device) IsEnabled(rail RailID) (bool, error) {
	if err := checkRail("is_enabled", rail); err != nil {
		return false, err
	}
	reg, shift, mask, _, err := enableField(rail)
	if err != nil {
		return false, err
	}
	v, err := d.conn.ReadReg(reg)
	if err != nil {
		return false, errcode.Wrap(errcode.Transport, "is_enabled "+rail.String(), err)
	}
	return v&(mask<<shift) != 0, nil
}

// Enable switches the rail on by setting its full enable field.
func (d *Device) Enable(rail RailID) error {
	if err := checkRail("enable", rail); err != nil {
		return err
	}
	reg, shift, mask, _, err := enableField(rail)
	if err != nil {
		return err
	}
	return d.update(reg, mask<<shift, mask<<shift, "enable "+rail.String())
}

// Disable switches the rail off. LDO1, LDO10 and LDO21 park in
// conditional power-off (field value 1) rather than switching fully off.
func (d *Device) Disable(rail RailID) error {
	if err := checkRail("disable", rail); err != nil {
		return err
	}
	reg, shift, mask, disVal, err := enableField(rail)
	if err != nil {
		return err
	}
	return d.update(reg, disVal<<shift, mask<<shift, "disable "+rail.String())
}

// readCode reads the selector code latched in the rail's value field. For
// a GPIO-driven buck the register depends on the committed slot, so the
// read holds the device lock to stay consistent with concurrent commits.
func (d *Device) readCode(rail RailID) (int, error) {
	slot := fixedDVSSlot
	if m, ok := dvsMemberIndex(rail); ok && d.dvs.members[m].enabled {
		d.mu.Lock()
		defer d.mu.Unlock()
		slot = d.dvs.index
	}
	reg, shift, mask, err := voltageField(rail, slot)
	if err != nil {
		return 0, err
	}
	v, err := d.conn.ReadReg(reg)
	if err != nil {
		return 0, errcode.Wrap(errcode.Transport, "read "+rail.String(), err)
	}
	return int(v>>shift) & int(mask), nil
}

// SelectorCode reads the raw selector code currently addressing the rail.
func (d *Device) SelectorCode(rail RailID) (int, error) {
	if err := checkRail("selector_code", rail); err != nil {
		return 0, err
	}
	return d.readCode(rail)
}

// Voltage reads the rail's output voltage in microvolts.
func (d *Device) Voltage(rail RailID) (int32, error) {
	if err := checkRail("voltage", rail); err != nil {
		return 0, err
	}
	dsc := &descs[rail]
	if dsc.f&flagCurrent != 0 {
		return 0, errcode.New(errcode.UnsupportedRail, "voltage", dsc.name+" is a current rail")
	}
	code, err := d.readCode(rail)
	if err != nil {
		return 0, err
	}
	switch {
	case dsc.f&flagSafeout != 0:
		return safeoutVoltage(code)
	case dsc.f&flagChargerCV != 0:
		return chargerCVVoltage(code)
	}
	v, err := dsc.class.valueAt(code)
	if err != nil {
		return 0, err
	}
	return v * dsc.class.scale, nil
}

// CurrentLimit reads a current rail's programmed limit in microamps.
func (d *Device) CurrentLimit(rail RailID) (int32, error) {
	if err := checkRail("current_limit", rail); err != nil {
		return 0, err
	}
	dsc := &descs[rail]
	if dsc.f&flagCurrent == 0 {
		return 0, errcode.New(errcode.UnsupportedRail, "current_limit", dsc.name+" is not a current rail")
	}
	code, err := d.readCode(rail)
	if err != nil {
		return 0, err
	}
	v, err := dsc.class.valueAt(code)
	if err != nil {
		return 0, err
	}
	return v * dsc.class.scale, nil
}

// SetVoltage programs the lowest supported voltage inside [minUV, maxUV]
// and returns the selector code written. GPIO-driven bucks route through
// the shared-slot resolver; the safeout and charger-CV rails use their
// discrete code maps; everything else takes the plain table path.
func (d *Device) SetVoltage(rail RailID, minUV, maxUV int32) (int, error) {
	if err := checkRail("set_voltage", rail); err != nil {
		return 0, err
	}
	dsc := &descs[rail]
	switch {
	case dsc.f&flagChargerCV != 0:
		return d.setChargerCV(minUV, maxUV)
	case dsc.f&flagSafeout != 0:
		return d.setSafeout(rail, minUV, maxUV)
	case dsc.f&flagCurrent != 0 || dsc.class == nil:
		return 0, errcode.New(errcode.UnsupportedRail, "set_voltage", dsc.name+" has no settable voltage")
	}
	if m, ok := dvsMemberIndex(rail); ok && d.dvs.members[m].enabled {
		return d.resolveDVS(m, minUV, maxUV)
	}
	return d.setTable(rail, minUV, maxUV)
}

// SetCurrentLimit programs the lowest supported current limit inside
// [minUA, maxUA] and returns the selector code written.
func (d *Device) SetCurrentLimit(rail RailID, minUA, maxUA int32) (int, error) {
	if err := checkRail("set_current", rail); err != nil {
		return 0, err
	}
	dsc := &descs[rail]
	if dsc.f&flagCurrent == 0 {
		return 0, errcode.New(errcode.UnsupportedRail, "set_current", dsc.name+" has no current limit")
	}
	return d.setTable(rail, minUA, maxUA)
}

// setTable is the common linear-table path: pick the lowest qualifying
// selector, write it, and for ramp-limited bucks block until the output
// has had time to slew up to the new level. Moves downward return
// immediately; the hardware settles down on its own. The wait never holds
// the device lock.
func (d *Device) setTable(rail RailID, lo, hi int32) (int, error) {
	dsc := &descs[rail]
	sel, err := dsc.class.selectorFor(lo/dsc.class.scale, hi/dsc.class.scale)
	if err != nil {
		return 0, err
	}
	reg, shift, mask, err := voltageField(rail, fixedDVSSlot)
	if err != nil {
		return 0, err
	}
	old, err := d.conn.ReadReg(reg)
	if err != nil {
		return 0, errcode.Wrap(errcode.Transport, "set "+dsc.name, err)
	}
	oldCode := int(old>>shift) & int(mask)
	if err := d.update(reg, uint8(sel)<<shift, mask<<shift, "set "+dsc.name); err != nil {
		return 0, err
	}
	if dsc.f&flagRamped != 0 && sel > oldCode {
		ramp.Wait(sel-oldCode, dsc.class.step*dsc.class.scale, d.rampUVPerUs, d.sleep)
	}
	return sel, nil
}

// setChargerCV programs the charger float voltage through its three-zone
// code map.
func (d *Device) setChargerCV(minUV, maxUV int32) (int, error) {
	code, err := chargerCVCode(minUV, maxUV)
	if err != nil {
		return 0, err
	}
	reg, shift, mask, err := voltageField(ChargerCV, fixedDVSSlot)
	if err != nil {
		return 0, err
	}
	if err := d.update(reg, uint8(code)<<shift, mask<<shift, "set charger_cv"); err != nil {
		return 0, err
	}
	return code, nil
}

// setSafeout matches the window against the discrete safeout list.
func (d *Device) setSafeout(rail RailID, minUV, maxUV int32) (int, error) {
	code, err := safeoutCode(minUV, maxUV)
	if err != nil {
		return 0, err
	}
	reg, shift, mask, err := voltageField(rail, fixedDVSSlot)
	if err != nil {
		return 0, err
	}
	if err := d.update(reg, uint8(code)<<shift, mask<<shift, "set "+descs[rail].name); err != nil {
		return 0, err
	}
	return code, nil
}
