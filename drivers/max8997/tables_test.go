package max8997

import (
	"testing"

	"powercode-go/errcode"
)

func TestClassRoundTrip(t *testing.T) {
	classes := map[string]*railClass{
		"ldo":      classLDO,
		"buck1245": classBuck1245,
		"buck37":   classBuck37,
		"flash":    classFlashCur,
		"movie":    classMovieCur,
		"charger":  classChgCur,
		"topoff":   classTopoffCur,
	}
	for name, c := range classes {
		for i := 0; i < c.count(); i++ {
			v, err := c.valueAt(i)
			if err != nil {
				t.Fatalf("%s: valueAt(%d): %v", name, i, err)
			}
			got, err := c.selectorFor(v, v)
			if err != nil {
				t.Fatalf("%s: selectorFor(%d, %d): %v", name, v, v, err)
			}
			if got != i {
				t.Errorf("%s: selector %d -> %dmV -> selector %d", name, i, v, got)
			}
		}
	}
}

func TestClassCounts(t *testing.T) {
	cases := []struct {
		c    *railClass
		want int
	}{
		{classLDO, 64},
		{classBuck1245, 64},
		{classBuck37, 64},
		{classFlashCur, 32},
		{classMovieCur, 16},
		{classChgCur, 16},
		{classTopoffCur, 16},
	}
	for _, tc := range cases {
		if got := tc.c.count(); got != tc.want {
			t.Errorf("count(min=%d step=%d max=%d) = %d, want %d",
				tc.c.min, tc.c.step, tc.c.max, got, tc.want)
		}
	}
}

func TestValueAtBeyondTable(t *testing.T) {
	if _, err := classLDO.valueAt(64); errcode.Of(err) != errcode.Range {
		t.Errorf("valueAt(64) = %v, want range_error", err)
	}
	if _, err := classLDO.valueAt(-1); errcode.Of(err) != errcode.Range {
		t.Errorf("valueAt(-1) = %v, want range_error", err)
	}
	if v, err := classLDO.valueAt(63); err != nil || v != 3950 {
		t.Errorf("valueAt(63) = %d, %v, want 3950", v, err)
	}
}

// The lowest qualifying selector wins, never a closer or interpolated one.
func TestSelectorForPicksLowest(t *testing.T) {
	// [800, 3950] admits the whole LDO table; selector 0 qualifies first.
	sel, err := classLDO.selectorFor(800, 3950)
	if err != nil || sel != 0 {
		t.Fatalf("selectorFor(800, 3950) = %d, %v, want 0", sel, err)
	}
	// 1810 is off the 50mV grid; the next value up (1850) is inside.
	sel, err = classLDO.selectorFor(1810, 1900)
	if err != nil || sel != 21 {
		t.Fatalf("selectorFor(1810, 1900) = %d, %v, want 21", sel, err)
	}
	// Window below the table clamps to the minimum.
	sel, err = classBuck1245.selectorFor(100, 700)
	if err != nil || sel != 0 {
		t.Fatalf("selectorFor(100, 700) = %d, %v, want 0", sel, err)
	}
}

func TestSelectorForRejectsEmptyWindows(t *testing.T) {
	cases := []struct{ lo, hi int32 }{
		{1810, 1840}, // between grid points
		{4000, 4100}, // above the table
		{100, 700},   // below the table
		{1900, 1800}, // inverted
	}
	for _, tc := range cases {
		if _, err := classLDO.selectorFor(tc.lo, tc.hi); errcode.Of(err) != errcode.Range {
			t.Errorf("selectorFor(%d, %d) = %v, want range_error", tc.lo, tc.hi, err)
		}
	}
	// All but the in-between case still hold for bucks.
	if _, err := classBuck1245.selectorFor(2250, 2300); errcode.Of(err) != errcode.Range {
		t.Errorf("selectorFor above buck table: want range_error")
	}
}

func TestCodeCeilAndExact(t *testing.T) {
	// 1087mV rounds up to the next buck step, 1100mV (code 18).
	code, err := classBuck1245.codeCeil(1087)
	if err != nil || code != 18 {
		t.Fatalf("codeCeil(1087) = %d, %v, want 18", code, err)
	}
	// Exact values map to their own code...
	code, err = classBuck1245.codeExact(1100)
	if err != nil || code != 18 {
		t.Fatalf("codeExact(1100) = %d, %v, want 18", code, err)
	}
	// ...and off-grid values are refused.
	if _, err := classBuck1245.codeExact(1087); errcode.Of(err) != errcode.Range {
		t.Errorf("codeExact(1087) = %v, want range_error", err)
	}
}

func TestBuildCodes(t *testing.T) {
	capCode := uint8(62) // 2200mV on the buck1245 table
	uv := []int32{
		1_100_000, // slot 0: ignored, pinned to the cap
		1_100_000,
		1_075_000,
		2_225_000, // on the table but above the cap: clamped
		987_000,   // off-grid: next step up (1000mV, code 14)
	}
	codes, err := buildCodes(classBuck1245, uv, capCode)
	if err != nil {
		t.Fatalf("buildCodes: %v", err)
	}
	want := [dvsSlots]uint8{62, 18, 17, 62, 14, 62, 62, 62}
	if codes != want {
		t.Errorf("buildCodes = %v, want %v", codes, want)
	}
}

func TestBuildCodesRejectsOffTable(t *testing.T) {
	_, err := buildCodes(classBuck1245, []int32{0, 5_000_000}, 62)
	if errcode.Of(err) != errcode.Range {
		t.Errorf("buildCodes above table = %v, want range_error", err)
	}
}
