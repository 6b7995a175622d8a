package max8997

import "powercode-go/errcode"

// The charger float voltage is not a linear table. Codes 0x0 and 0x1 are
// reserved points at 4.2V and 3.95V; 0x2..0xE step 20mV upward from
// 4.02V; 0xF caps the range at 4.35V.
const (
	chargerCVFloorUV = 3_950_000
	chargerCVCeilUV  = 4_350_000
)

// chargerCVCode maps a float-voltage window onto the three-zone code
// space. A window reaching below 4.0V must stay fully below it and takes
// the 3.95V code; a window opening anywhere in the 4.0-4.2V zone takes
// the 4.2V code; only windows fully above 4.2V land in the linear zone.
// The boundary checks are asymmetric on purpose: spanning 4.0V is
// ambiguous and rejected, spanning 4.2V snaps to the reserved code.
func chargerCVCode(minUV, maxUV int32) (int, error) {
	if maxUV < chargerCVFloorUV || minUV > chargerCVCeilUV {
		return 0, errcode.New(errcode.Range, "set charger_cv", "window outside 3.95V-4.35V")
	}
	if minUV <= 4_000_000 {
		if maxUV >= 4_000_000 {
			return 0, errcode.New(errcode.Range, "set charger_cv", "window spans the 4.0V boundary")
		}
		return 0x1, nil
	}
	if minUV <= 4_200_000 {
		return 0x0, nil
	}
	lb := int(minUV-4_000_001)/20_000 + 2
	ub := int(maxUV-4_000_000)/20_000 + 1
	switch {
	case lb > ub:
		return 0, errcode.New(errcode.Range, "set charger_cv", "window admits no code")
	case lb < 0xf:
		return lb, nil
	case ub >= 0xf:
		return 0xf, nil
	default:
		return 0, errcode.New(errcode.Range, "set charger_cv", "window admits no code")
	}
}

// chargerCVVoltage is the inverse map, code to microvolts.
func chargerCVVoltage(code int) (int32, error) {
	switch {
	case code == 0x0:
		return 4_200_000, nil
	case code == 0x1:
		return chargerCVFloorUV, nil
	case code >= 0x2 && code <= 0xe:
		return 4_000_000 + 20_000*int32(code-1), nil
	case code == 0xf:
		return chargerCVCeilUV, nil
	}
	return 0, errcode.New(errcode.Range, "charger_cv", "code beyond table")
}
