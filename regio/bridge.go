package regio

import (
	"sync"

	mcp2221a "github.com/ardnew/mcp2221a"
	"github.com/pkg/errors"
)

// Bridge binds Conn to an MCP2221A USB-to-I²C adapter, for host tools
// poking a PMIC on a bench harness.
type Bridge struct {
	dev  *mcp2221a.MCP2221A
	addr uint8
	mu   sync.Mutex
}

func NewBridge(dev *mcp2221a.MCP2221A, addr uint8) *Bridge {
	return &Bridge{dev: dev, addr: addr}
}

func (b *Bridge) ReadReg(reg uint8) (uint8, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.readLocked(reg)
}

func (b *Bridge) WriteReg(reg, val uint8) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writeLocked(reg, val)
}

func (b *Bridge) UpdateReg(reg, val, mask uint8) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	old, err := b.readLocked(reg)
	if err != nil {
		return err
	}
	return b.writeLocked(reg, old&^mask|val&mask)
}

func (b *Bridge) readLocked(reg uint8) (uint8, error) {
	buf, err := b.dev.I2CReadReg(b.addr, reg, 1)
	if err != nil {
		return 0, errors.Wrap(err, "regio: bridge read")
	}
	if len(buf) < 1 {
		return 0, errors.New("regio: bridge short read")
	}
	return buf[0], nil
}

func (b *Bridge) writeLocked(reg, val uint8) error {
	out := []byte{reg, val}
	if err := b.dev.I2CWrite(true, b.addr, out, uint16(len(out))); err != nil {
		return errors.Wrap(err, "regio: bridge write")
	}
	return nil
}
