// Package regio abstracts byte-register access to a PMIC behind a small
// connection interface, keeping wire mechanics out of the rail logic.
//
// Bindings provided here:
// • I2CDev  — tinygo-style I²C bus (firmware builds)
// • Bridge  — MCP2221A USB adapter (host tooling)
// • SMBus   — Linux i2c-dev via SMBus byte-data calls
// • Mem     — in-memory register file (tests, demos)
package regio

// Conn is a connection to one chip's 8-bit register file.
//
// UpdateReg replaces the masked field: new = (old &^ mask) | (val & mask).
// Implementations serialise the read-modify-write so concurrent field
// updates on distinct bits never lose writes.
type Conn interface {
	ReadReg(reg uint8) (uint8, error)
	WriteReg(reg, val uint8) error
	UpdateReg(reg, val, mask uint8) error
}
