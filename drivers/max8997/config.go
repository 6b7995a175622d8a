package max8997

import (
	"powercode-go/errcode"
	"powercode-go/regio"
	"powercode-go/x/mathx"
)

const defaultRampMvPerUs = 10

// DVSRail configures one of the GPIO-capable bucks. MaxUV is the safety
// cap every slot is bounded by; it must sit exactly on the buck's table.
// UV holds per-slot targets (slot 0 is ignored, it always carries the
// cap); unspecified slots fall back to the cap as well.
type DVSRail struct {
	Enable bool
	MaxUV  int32
	UV     []int32
}

// Config is the pre-validated bring-up input for one chip.
type Config struct {
	Buck1 DVSRail
	Buck2 DVSRail
	Buck5 DVSRail

	// AllowDrift permits ganged voltage moves that disturb sibling
	// bucks; without it such moves fail and leave all outputs alone.
	AllowDrift bool

	// InitialSlot is the shared selector position driven at bring-up.
	// Zero means the default slot 1; slot 0 is reserved for the
	// watchdog-reset cap.
	InitialSlot int

	// RampMvPerUs programs the buck output slew rate, 1-16 mV/µs.
	// Zero means the chip default of 10.
	RampMvPerUs int32

	// FlashCntl, when non-zero, is written verbatim to the flash LED
	// controller init register.
	FlashCntl uint8
}

func (c *Config) member(i int) *DVSRail {
	switch dvsMembers[i] {
	case Buck1:
		return &c.Buck1
	case Buck2:
		return &c.Buck2
	default:
		return &c.Buck5
	}
}

// New validates the configuration, programs the DVS tables and ramp rate,
// and drives the initial selector position. Nothing is written until the
// whole configuration has validated. The safety pass parks every slot of
// an enabled buck at its cap before the per-slot targets land, so the
// registers never hold a stale above-cap code while the selector settles.
func New(conn regio.Conn, sel Selector, cfg Config) (*Device, error) {
	d := &Device{conn: conn, sel: sel}
	d.dvs.allowDrift = cfg.AllowDrift

	slot := cfg.InitialSlot
	if slot == 0 {
		slot = fixedDVSSlot
	}
	if slot < 0 || slot >= dvsSlots {
		return nil, errcode.New(errcode.InvalidConfig, "bring-up", "initial slot beyond table")
	}

	anyDVS := false
	for i, rail := range dvsMembers {
		mc := cfg.member(i)
		if !mc.Enable {
			continue
		}
		anyDVS = true
		class := descs[rail].class
		if mc.MaxUV == 0 {
			return nil, errcode.New(errcode.InvalidConfig, "bring-up",
				descs[rail].name+" needs a max-voltage cap")
		}
		capCode, err := class.codeExact(mc.MaxUV / class.scale)
		if err != nil {
			return nil, errcode.New(errcode.InvalidConfig, "bring-up",
				descs[rail].name+" cap is off the table")
		}
		codes, err := buildCodes(class, mc.UV, uint8(capCode))
		if err != nil {
			return nil, err
		}
		d.dvs.members[i] = dvsMember{enabled: true, codes: codes, capCode: uint8(capCode)}
	}
	if anyDVS && sel == nil {
		return nil, errcode.New(errcode.InvalidConfig, "bring-up", "gpio-driven bucks need a selector")
	}

	for i, rail := range dvsMembers {
		m := &d.dvs.members[i]
		if !m.enabled {
			continue
		}
		var caps [dvsSlots]uint8
		for j := range caps {
			caps[j] = m.capCode
		}
		if err := d.writeDVSCodes(rail, caps); err != nil {
			return nil, err
		}
		if err := d.writeDVSCodes(rail, m.codes); err != nil {
			return nil, err
		}
	}
	if anyDVS {
		if err := d.commitSlot(slot); err != nil {
			return nil, err
		}
	} else {
		d.dvs.index = slot
	}

	rate := cfg.RampMvPerUs
	if rate == 0 {
		rate = defaultRampMvPerUs
	}
	rate = mathx.Clamp(rate, 1, 16)
	d.rampUVPerUs = rate * 1000
	if err := conn.WriteReg(regBuckRamp, 0xf0|uint8(rate-1)); err != nil {
		return nil, errcode.Wrap(errcode.Transport, "program ramp rate", err)
	}

	if cfg.FlashCntl != 0 {
		if err := conn.WriteReg(regFlashCntl, cfg.FlashCntl); err != nil {
			return nil, errcode.Wrap(errcode.Transport, "flash init", err)
		}
	}
	return d, nil
}
