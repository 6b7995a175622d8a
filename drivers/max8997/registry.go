package max8997

import (
	"powercode-go/errcode"
	"powercode-go/types"
)

// Handle identifies one registered rail inside a Framework.
type Handle any

// Framework is the external collaborator rails register with. The power
// service implements it on the bus; tests implement it in-process.
type Framework interface {
	Register(info types.RailInfo) (Handle, error)
	Unregister(h Handle)
}

// Info describes a rail for registration: its kind, the span of its
// table in boundary units, and how many distinct values it can take.
// Enable-only rails report a single value. Ganged reflects the live
// configuration, not the chip's wiring capability.
func (d *Device) Info(rail RailID) (types.RailInfo, error) {
	if err := checkRail("info", rail); err != nil {
		return types.RailInfo{}, err
	}
	dsc := &descs[rail]
	info := types.RailInfo{
		Name:   dsc.name,
		Kind:   types.RailFixed,
		Values: 1,
		Ramped: dsc.f&flagRamped != 0,
	}
	if m, ok := dvsMemberIndex(rail); ok {
		info.Ganged = d.dvs.members[m].enabled
	}
	switch {
	case dsc.f&flagCurrent != 0:
		info.Kind = types.RailCurrent
		info.MinUA = dsc.class.min * dsc.class.scale
		info.MaxUA = dsc.class.max * dsc.class.scale
		info.StepUA = dsc.class.step * dsc.class.scale
		info.Values = dsc.class.count()
	case dsc.f&flagSafeout != 0:
		info.Kind = types.RailVoltage
		info.MinUV = 3_300_000
		info.MaxUV = 4_950_000
		info.Values = len(safeoutUV)
	case dsc.f&flagChargerCV != 0:
		info.Kind = types.RailVoltage
		info.MinUV = chargerCVFloorUV
		info.MaxUV = chargerCVCeilUV
		info.Values = 16
	case dsc.class != nil:
		info.Kind = types.RailVoltage
		info.MinUV = dsc.class.min * dsc.class.scale
		info.MaxUV = dsc.class.max * dsc.class.scale
		info.StepUV = dsc.class.step * dsc.class.scale
		info.Values = dsc.class.count()
	}
	return info, nil
}

type regEntry struct {
	rail   RailID
	handle Handle
}

// Registry tracks the framework handles of registered rails.
type Registry struct {
	fw      Framework
	entries []regEntry
}

// RegisterAll registers every listed rail, skipping those the admission
// predicate rejects. Bring-up is all-or-nothing: the first failure
// unwinds every registration this call already made and nothing stays
// registered.
func (d *Device) RegisterAll(fw Framework, rails []RailID, admit func(RailID) bool) (*Registry, error) {
	reg := &Registry{fw: fw}
	for _, r := range rails {
		if admit != nil && !admit(r) {
			continue
		}
		info, err := d.Info(r)
		if err != nil {
			reg.Teardown()
			return nil, err
		}
		h, err := fw.Register(info)
		if err != nil {
			reg.Teardown()
			return nil, errcode.Wrap(errcode.Of(err), "register "+info.Name, err)
		}
		reg.entries = append(reg.entries, regEntry{rail: r, handle: h})
	}
	return reg, nil
}

// Rails lists the registered rails in registration order.
func (r *Registry) Rails() []RailID {
	out := make([]RailID, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.rail
	}
	return out
}

// Teardown unregisters every rail. Safe to call more than once.
func (r *Registry) Teardown() {
	for _, e := range r.entries {
		r.fw.Unregister(e.handle)
	}
	r.entries = nil
}
