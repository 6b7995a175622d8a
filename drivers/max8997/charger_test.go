package max8997

import (
	"testing"

	"powercode-go/errcode"
)

func TestChargerCVCode(t *testing.T) {
	cases := []struct {
		name  string
		minUV int32
		maxUV int32
		want  int
	}{
		{"floor zone", 3_900_000, 3_950_000, 0x1},
		{"floor zone wide", 3_950_000, 3_990_000, 0x1},
		{"reserved zone point", 4_100_000, 4_100_000, 0x0},
		{"reserved zone ceiling", 4_200_000, 4_200_000, 0x0},
		{"window spanning 4.2V", 4_150_000, 4_250_000, 0x0},
		{"linear zone", 4_220_000, 4_240_000, 0xc},
		{"linear zone bottom", 4_201_000, 4_220_000, 0xc},
		{"linear zone upper", 4_240_001, 4_280_000, 0xe},
		{"ceiling zone", 4_300_000, 4_400_000, 0xf},
		{"ceiling zone narrow", 4_340_000, 4_360_000, 0xf},
	}
	for _, tc := range cases {
		got, err := chargerCVCode(tc.minUV, tc.maxUV)
		if err != nil {
			t.Errorf("%s: chargerCVCode(%d, %d): %v", tc.name, tc.minUV, tc.maxUV, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%s: chargerCVCode(%d, %d) = %#x, want %#x",
				tc.name, tc.minUV, tc.maxUV, got, tc.want)
		}
	}
}

func TestChargerCVCodeRejects(t *testing.T) {
	cases := []struct {
		name  string
		minUV int32
		maxUV int32
	}{
		{"below floor", 3_800_000, 3_900_000},
		{"above ceiling", 4_360_000, 4_400_000},
		{"spans 4.0V", 3_980_000, 4_050_000},
		{"exactly 4.0V", 4_000_000, 4_000_000},
		{"between linear steps", 4_201_000, 4_205_000},
		{"point at ceiling", 4_350_000, 4_350_000},
	}
	for _, tc := range cases {
		if _, err := chargerCVCode(tc.minUV, tc.maxUV); errcode.Of(err) != errcode.Range {
			t.Errorf("%s: chargerCVCode(%d, %d) = %v, want range_error",
				tc.name, tc.minUV, tc.maxUV, err)
		}
	}
}

func TestChargerCVVoltage(t *testing.T) {
	cases := []struct {
		code int
		want int32
	}{
		{0x0, 4_200_000},
		{0x1, 3_950_000},
		{0x2, 4_020_000},
		{0xe, 4_260_000},
		{0xf, 4_350_000},
	}
	for _, tc := range cases {
		got, err := chargerCVVoltage(tc.code)
		if err != nil {
			t.Errorf("chargerCVVoltage(%#x): %v", tc.code, err)
			continue
		}
		if got != tc.want {
			t.Errorf("chargerCVVoltage(%#x) = %d, want %d", tc.code, got, tc.want)
		}
	}
	if _, err := chargerCVVoltage(0x10); errcode.Of(err) != errcode.Range {
		t.Errorf("chargerCVVoltage(0x10) = %v, want range_error", err)
	}
}

// Only the reserved codes and the linear codes above 4.2V survive a
// voltage round trip: the mid-range codes sit inside the reserved
// 4.0–4.2V window and snap back to it, and the 4.35V code is only
// reachable through windows wider than one step.
func TestChargerCVRoundTrip(t *testing.T) {
	for code := 0; code < 0xf; code++ {
		v, err := chargerCVVoltage(code)
		if err != nil {
			t.Fatalf("chargerCVVoltage(%#x): %v", code, err)
		}
		got, err := chargerCVCode(v, v)
		if err != nil {
			t.Fatalf("chargerCVCode(%d, %d): %v", v, v, err)
		}
		want := code
		if code >= 0x2 && code <= 0xb {
			want = 0x0
		}
		if got != want {
			t.Errorf("code %#x -> %duV -> code %#x, want %#x", code, v, got, want)
		}
	}
}
