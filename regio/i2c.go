package regio

import (
	"sync"

	"github.com/pkg/errors"
	"tinygo.org/x/drivers"
)

// I2CDev binds Conn to a tinygo-style I²C bus. 8-bit register addresses,
// 8-bit data, register pointer written before each read.
type I2CDev struct {
	bus  drivers.I2C
	addr uint16

	mu sync.Mutex
	// Fixed buffers to avoid per-call heap allocations.
	w [2]byte
	r [1]byte
}

func NewI2C(bus drivers.I2C, addr uint16) *I2CDev {
	return &I2CDev{bus: bus, addr: addr}
}

func (d *I2CDev) ReadReg(reg uint8) (uint8, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readLocked(reg)
}

func (d *I2CDev) WriteReg(reg, val uint8) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeLocked(reg, val)
}

func (d *I2CDev) UpdateReg(reg, val, mask uint8) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	old, err := d.readLocked(reg)
	if err != nil {
		return err
	}
	return d.writeLocked(reg, old&^mask|val&mask)
}

func (d *I2CDev) readLocked(reg uint8) (uint8, error) {
	d.w[0] = reg
	if err := d.bus.Tx(d.addr, d.w[:1], d.r[:1]); err != nil {
		return 0, errors.Wrap(err, "regio: i2c read")
	}
	return d.r[0], nil
}

func (d *I2CDev) writeLocked(reg, val uint8) error {
	d.w[0] = reg
	d.w[1] = val
	if err := d.bus.Tx(d.addr, d.w[:2], nil); err != nil {
		return errors.Wrap(err, "regio: i2c write")
	}
	return nil
}
