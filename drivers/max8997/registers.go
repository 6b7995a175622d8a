// Package max8997 provides constants for the PMIC register addresses and
// field layouts used by the rail controller.
package max8997

const (
	// 7-bit I2C address of the PMIC block.
	AddressDefault = 0x66

	// --- Buck converters ---

	regBuckRamp = 0x15 // R/W, [7:4] ramp enables, [3:0] rate-1 in mV/us

	regBuck1Ctrl = 0x18 // R/W, bit0 enable
	regBuck1DVS1 = 0x19 // R/W, 8 consecutive DVS slots
	regBuck2Ctrl = 0x21 // R/W, bit0 enable
	regBuck2DVS1 = 0x22 // R/W, 8 consecutive DVS slots
	regBuck3Ctrl = 0x2A // R/W, bit0 enable
	regBuck3DVS  = 0x2B // R/W
	regBuck4Ctrl = 0x2C // R/W, bit0 enable
	regBuck4DVS  = 0x2D // R/W
	regBuck5Ctrl = 0x2E // R/W, bit0 enable
	regBuck5DVS1 = 0x2F // R/W, 8 consecutive DVS slots
	regBuck6Ctrl = 0x37 // R/W, bit0 enable (no voltage field)
	regBuck7Ctrl = 0x39 // R/W, bit0 enable
	regBuck7DVS  = 0x3A // R/W

	// --- LDOs ---
	// LDO1..LDO18 control registers are consecutive; LDO21 follows.
	// Layout per register: [7:6] enable mode, [5:0] voltage selector.

	regLDO1Ctrl  = 0x3B // R/W
	regLDO18Ctrl = 0x4C // R/W
	regLDO21Ctrl = 0x4D // R/W

	// --- Charger block ---

	regMBCCtrl1 = 0x50 // R/W, bit7 ENVICHG
	regMBCCtrl2 = 0x51 // R/W, bit6 charger enable
	regMBCCtrl3 = 0x52 // R/W, [3:0] constant-voltage code
	regMBCCtrl4 = 0x53 // R/W, [3:0] fast-charge current code
	regMBCCtrl5 = 0x54 // R/W, [3:0] top-off current code
	regMBCCtrl6 = 0x55 // R/W

	// --- Safeouts and misc controls ---

	regSafeoutCtrl = 0x5A // R/W, [1:0]/[3:2] voltage codes, bits 6/7 enables
	regControl1    = 0x5B // R/W, bits 0/1 32kHz clock enables

	// --- Flash / movie LED current sources ---

	regLenCntl   = 0x5C // R/W, bits 0/1 output enables
	regFlashCur  = 0x5D // R/W, [7:3] current code
	regMovieCur  = 0x5E // R/W, [7:4] current code
	regFlashCntl = 0x5F // R/W, raw controller setup
)

// ldoCtrlReg returns the control register for 1-based LDO numbers,
// including the gap before LDO21.
func ldoCtrlReg(n int) uint8 {
	if n == 21 {
		return regLDO21Ctrl
	}
	return regLDO1Ctrl + uint8(n-1)
}
