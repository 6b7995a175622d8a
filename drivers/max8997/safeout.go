package max8997

import "powercode-go/errcode"

// USB safeout outputs pick from four discrete levels. Code order follows
// the register encoding; the 3.3V bypass level sits last.
var safeoutUV = [4]int32{4_850_000, 4_900_000, 4_950_000, 3_300_000}

// safeoutCode returns the lowest code whose level lies inside the window.
func safeoutCode(minUV, maxUV int32) (int, error) {
	for code, uv := range safeoutUV {
		if minUV <= uv && uv <= maxUV {
			return code, nil
		}
	}
	return 0, errcode.New(errcode.Range, "set safeout", "window admits no level")
}

func safeoutVoltage(code int) (int32, error) {
	if code < 0 || code >= len(safeoutUV) {
		return 0, errcode.New(errcode.Range, "safeout", "code beyond table")
	}
	return safeoutUV[code], nil
}
