package max8997

import (
	"strconv"

	"powercode-go/errcode"
)

// RailID names one controllable output of the PMIC.
type RailID uint8

const (
	LDO1 RailID = iota
	LDO2
	LDO3
	LDO4
	LDO5
	LDO6
	LDO7
	LDO8
	LDO9
	LDO10
	LDO11
	LDO12
	LDO13
	LDO14
	LDO15
	LDO16
	LDO17
	LDO18
	LDO21
	Buck1
	Buck2
	Buck3
	Buck4
	Buck5
	Buck6
	Buck7
	EN32kHzAP
	EN32kHzCP
	EnViChg
	ESafeout1
	ESafeout2
	Flash
	Movie
	ChargerCV
	Charger
	ChargerTopoff

	railCount
)

type railFlags uint8

const (
	flagGanged    railFlags = 1 << iota // selector may come from the shared DVS lines
	flagRamped                          // output slews at a bounded rate after a selector change
	flagCondOff                         // disable leaves the conditional power-off mode armed
	flagSafeout                         // discrete USB safeout table
	flagChargerCV                       // three-zone charger float table
	flagCurrent                         // table programs a current limit, microamps
)

// railDesc locates the enable and value fields of one rail. A zero enMask
// means the rail has no enable control; a zero vMask means it has no
// value field. Ganged bucks add the live slot index to vReg.
type railDesc struct {
	name    string
	class   *railClass
	enReg   uint8
	enShift uint8
	enMask  uint8
	disVal  uint8
	vReg    uint8
	vShift  uint8
	vMask   uint8
	f       railFlags
}

var descs [railCount]railDesc

func ldoDesc(n int) railDesc {
	d := railDesc{
		name:    "ldo" + strconv.Itoa(n),
		class:   classLDO,
		enReg:   ldoCtrlReg(n),
		enShift: 6,
		enMask:  0x3,
		vReg:    ldoCtrlReg(n),
		vMask:   0x3f,
	}
	// LDO1, LDO10 and LDO21 park in conditional power-off instead of
	// switching fully off.
	switch n {
	case 1, 10, 21:
		d.disVal = 1
		d.f |= flagCondOff
	}
	return d
}

func buckDesc(n int, class *railClass, ctrl, dvs uint8, f railFlags) railDesc {
	return railDesc{
		name:   "buck" + strconv.Itoa(n),
		class:  class,
		enReg:  ctrl,
		enMask: 0x1,
		vReg:   dvs,
		vMask:  0xff,
		f:      f,
	}
}

func init() {
	for n := 1; n <= 18; n++ {
		descs[LDO1+RailID(n-1)] = ldoDesc(n)
	}
	descs[LDO21] = ldoDesc(21)

	descs[Buck1] = buckDesc(1, classBuck1245, regBuck1Ctrl, regBuck1DVS1, flagGanged|flagRamped)
	descs[Buck2] = buckDesc(2, classBuck1245, regBuck2Ctrl, regBuck2DVS1, flagGanged|flagRamped)
	descs[Buck3] = buckDesc(3, classBuck37, regBuck3Ctrl, regBuck3DVS, 0)
	descs[Buck4] = buckDesc(4, classBuck1245, regBuck4Ctrl, regBuck4DVS, flagRamped)
	descs[Buck5] = buckDesc(5, classBuck1245, regBuck5Ctrl, regBuck5DVS1, flagGanged|flagRamped)
	descs[Buck6] = railDesc{name: "buck6", enReg: regBuck6Ctrl, enMask: 0x1}
	descs[Buck7] = buckDesc(7, classBuck37, regBuck7Ctrl, regBuck7DVS, 0)

	descs[EN32kHzAP] = railDesc{name: "en32khz_ap", enReg: regControl1, enMask: 0x1}
	descs[EN32kHzCP] = railDesc{name: "en32khz_cp", enReg: regControl1, enShift: 1, enMask: 0x1}
	descs[EnViChg] = railDesc{name: "envichg", enReg: regMBCCtrl1, enShift: 7, enMask: 0x1}

	descs[ESafeout1] = railDesc{
		name: "esafeout1", f: flagSafeout,
		enReg: regSafeoutCtrl, enShift: 6, enMask: 0x1,
		vReg: regSafeoutCtrl, vMask: 0x3,
	}
	descs[ESafeout2] = railDesc{
		name: "esafeout2", f: flagSafeout,
		enReg: regSafeoutCtrl, enShift: 7, enMask: 0x1,
		vReg: regSafeoutCtrl, vShift: 2, vMask: 0x3,
	}

	descs[Flash] = railDesc{
		name: "flash", class: classFlashCur, f: flagCurrent,
		enReg: regLenCntl, enMask: 0x1,
		vReg: regFlashCur, vShift: 3, vMask: 0x1f,
	}
	descs[Movie] = railDesc{
		name: "movie", class: classMovieCur, f: flagCurrent,
		enReg: regLenCntl, enShift: 1, enMask: 0x1,
		vReg: regMovieCur, vShift: 4, vMask: 0xf,
	}

	// The charger float voltage and top-off threshold have no enable of
	// their own; only the charging current does.
	descs[ChargerCV] = railDesc{
		name: "charger_cv", f: flagChargerCV,
		vReg: regMBCCtrl3, vMask: 0xf,
	}
	descs[Charger] = railDesc{
		name: "charger", class: classChgCur, f: flagCurrent,
		enReg: regMBCCtrl2, enShift: 6, enMask: 0x1,
		vReg: regMBCCtrl4, vMask: 0xf,
	}
	descs[ChargerTopoff] = railDesc{
		name: "charger_topoff", class: classTopoffCur, f: flagCurrent,
		vReg: regMBCCtrl5, vMask: 0xf,
	}
}

func (r RailID) valid() bool { return r < railCount }

func (r RailID) String() string {
	if !r.valid() {
		return "rail(" + strconv.Itoa(int(r)) + ")"
	}
	return descs[r].name
}

// ParseRail resolves a rail by its wire name.
func ParseRail(s string) (RailID, bool) {
	for r := RailID(0); r < railCount; r++ {
		if descs[r].name == s {
			return r, true
		}
	}
	return railCount, false
}

// AllRails lists every rail in catalog order.
func AllRails() []RailID {
	out := make([]RailID, railCount)
	for i := range out {
		out[i] = RailID(i)
	}
	return out
}

// enableField locates the register field that powers a rail on and off.
// disVal is the field value that turns the rail off.
func enableField(r RailID) (reg, shift, mask, disVal uint8, err error) {
	d := &descs[r]
	if d.enMask == 0 {
		return 0, 0, 0, 0, errcode.New(errcode.UnsupportedRail, "enable_field", d.name+" has no enable control")
	}
	return d.enReg, d.enShift, d.enMask, d.disVal, nil
}

// voltageField locates the register field that holds a rail's selector.
// slot is only meaningful for ganged bucks, whose table spans eight
// consecutive registers.
func voltageField(r RailID, slot int) (reg, shift, mask uint8, err error) {
	d := &descs[r]
	if d.vMask == 0 {
		return 0, 0, 0, errcode.New(errcode.UnsupportedRail, "voltage_field", d.name+" has no value field")
	}
	reg = d.vReg
	if d.f&flagGanged != 0 {
		reg += uint8(slot)
	}
	return reg, d.vShift, d.vMask, nil
}
