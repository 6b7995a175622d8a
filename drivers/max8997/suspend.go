package max8997

import "powercode-go/errcode"

// SuspendDisable parks a rail for system suspend. The raw enable register
// is captured first so the pre-suspend state stays inspectable, then the
// conditional power-off rails arm their parked pattern and everything
// else switches fully off.
func (d *Device) SuspendDisable(rail RailID) error {
	if err := checkRail("suspend_disable", rail); err != nil {
		return err
	}
	reg, shift, mask, _, err := enableField(rail)
	if err != nil {
		return err
	}
	v, err := d.conn.ReadReg(reg)
	if err != nil {
		return errcode.Wrap(errcode.Transport, "suspend "+rail.String(), err)
	}
	d.saved[rail] = v
	d.savedSet[rail] = true

	if descs[rail].f&flagCondOff != 0 {
		return d.update(reg, 0x1<<shift, mask<<shift, "suspend "+rail.String())
	}
	return d.update(reg, 0, mask<<shift, "suspend "+rail.String())
}

// SuspendEnable restores a rail on resume: rails with users come back up,
// unused rails stay parked.
func (d *Device) SuspendEnable(rail RailID, inUse bool) error {
	if err := checkRail("suspend_enable", rail); err != nil {
		return err
	}
	if inUse {
		return d.Enable(rail)
	}
	return d.Disable(rail)
}

// SavedEnable reports the raw enable register captured by the most recent
// SuspendDisable of the rail, if any.
func (d *Device) SavedEnable(rail RailID) (uint8, bool) {
	if !rail.valid() {
		return 0, false
	}
	return d.saved[rail], d.savedSet[rail]
}
