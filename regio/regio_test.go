package regio_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"powercode-go/regio"
)

func TestMemUpdateReplacesField(t *testing.T) {
	m := regio.NewMem()
	m.Load(0x18, 0xC3)

	// Replace the two-bit field at bits [7:6] with 0b01.
	err := m.UpdateReg(0x18, 0x1<<6, 0x3<<6)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x43), m.Reg(0x18))

	// Bits outside the mask are ignored in val.
	err = m.UpdateReg(0x18, 0xFF, 0x0F)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x4F), m.Reg(0x18))
}

func TestMemFailInjection(t *testing.T) {
	m := regio.NewMem()
	boom := errors.New("boom")
	m.Fail(boom)

	_, err := m.ReadReg(0x01)
	assert.Equal(t, boom, err)
	assert.Equal(t, boom, m.WriteReg(0x01, 1))
	assert.Equal(t, boom, m.UpdateReg(0x01, 1, 1))

	m.Fail(nil)
	require.NoError(t, m.WriteReg(0x01, 0xAA))
	assert.Equal(t, uint8(0xAA), m.Reg(0x01))
}

// fakeI2C is a register-file I²C slave recording wire frames.
type fakeI2C struct {
	regs map[uint8]uint8
	fail error
	log  [][]byte
}

func (f *fakeI2C) Tx(addr uint16, w, r []byte) error {
	if f.fail != nil {
		return f.fail
	}
	f.log = append(f.log, append([]byte(nil), w...))
	switch {
	case len(w) == 2 && len(r) == 0:
		f.regs[w[0]] = w[1]
		return nil
	case len(w) == 1 && len(r) == 1:
		r[0] = f.regs[w[0]]
		return nil
	}
	return errors.New("unexpected tx shape")
}

func TestI2CDevFrames(t *testing.T) {
	bus := &fakeI2C{regs: map[uint8]uint8{}}
	d := regio.NewI2C(bus, 0x66)

	require.NoError(t, d.WriteReg(0x3B, 0x52))
	v, err := d.ReadReg(0x3B)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x52), v)

	// write frame is [reg val], read frame writes just [reg]
	require.Len(t, bus.log, 2)
	assert.Equal(t, []byte{0x3B, 0x52}, bus.log[0])
	assert.Equal(t, []byte{0x3B}, bus.log[1])
}

func TestI2CDevUpdate(t *testing.T) {
	bus := &fakeI2C{regs: map[uint8]uint8{0x51: 0x81}}
	d := regio.NewI2C(bus, 0x66)

	require.NoError(t, d.UpdateReg(0x51, 1<<6, 1<<6))
	assert.Equal(t, uint8(0xC1), bus.regs[0x51])

	bus.fail = errors.New("nak")
	err := d.UpdateReg(0x51, 0, 1<<6)
	assert.Error(t, err)
	// failed update must not have altered the register
	assert.Equal(t, uint8(0xC1), bus.regs[0x51])
}
