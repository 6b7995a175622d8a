package max8997

import (
	"testing"

	"powercode-go/errcode"
)

// Every rail has a unique wire name that parses back to itself.
func TestRailCatalog(t *testing.T) {
	rails := AllRails()
	if len(rails) != int(railCount) {
		t.Fatalf("AllRails lists %d rails, want %d", len(rails), railCount)
	}
	seen := map[string]RailID{}
	for _, r := range rails {
		name := r.String()
		if name == "" {
			t.Errorf("rail %d has no name", r)
			continue
		}
		if prev, dup := seen[name]; dup {
			t.Errorf("name %q assigned to both %d and %d", name, prev, r)
		}
		seen[name] = r
		got, ok := ParseRail(name)
		if !ok || got != r {
			t.Errorf("ParseRail(%q) = %v, %v, want %v", name, got, ok, r)
		}
	}
	if _, ok := ParseRail("ldo19"); ok {
		t.Errorf("ParseRail accepted a rail the chip does not have")
	}
}

// The chip leaves some rails without an enable or a value control; the
// locators refuse exactly those and resolve everything else.
func TestRailFieldLocators(t *testing.T) {
	noEnable := map[RailID]bool{ChargerCV: true, ChargerTopoff: true}
	noValue := map[RailID]bool{Buck6: true, EN32kHzAP: true, EN32kHzCP: true, EnViChg: true}

	for _, r := range AllRails() {
		_, _, _, _, err := enableField(r)
		if noEnable[r] != (err != nil) {
			t.Errorf("enableField(%v) = %v, want refused=%v", r, err, noEnable[r])
		}
		if err != nil && errcode.Of(err) != errcode.UnsupportedRail {
			t.Errorf("enableField(%v) = %v, want unsupported_rail", r, err)
		}
		_, _, _, verr := voltageField(r, 0)
		if noValue[r] != (verr != nil) {
			t.Errorf("voltageField(%v) = %v, want refused=%v", r, verr, noValue[r])
		}
		if verr != nil && errcode.Of(verr) != errcode.UnsupportedRail {
			t.Errorf("voltageField(%v) = %v, want unsupported_rail", r, verr)
		}
	}
}

// Ganged bucks index their slot register file; everything else ignores
// the slot argument.
func TestVoltageFieldGangedSlot(t *testing.T) {
	reg0, _, _, err := voltageField(Buck1, 0)
	if err != nil {
		t.Fatalf("voltageField(buck1, 0): %v", err)
	}
	reg5, _, _, err := voltageField(Buck1, 5)
	if err != nil {
		t.Fatalf("voltageField(buck1, 5): %v", err)
	}
	if reg0 != regBuck1DVS1 || reg5 != regBuck1DVS1+5 {
		t.Errorf("buck1 slot regs = %#02x, %#02x, want %#02x, %#02x",
			reg0, reg5, regBuck1DVS1, regBuck1DVS1+5)
	}
	r0, _, _, _ := voltageField(Buck4, 0)
	r3, _, _, _ := voltageField(Buck4, 3)
	if r0 != r3 {
		t.Errorf("buck4 slot regs differ: %#02x vs %#02x", r0, r3)
	}
}
