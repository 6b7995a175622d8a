//go:build linux

package regio

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/platinasystems/i2c"
)

// SMBus binds Conn to the Linux i2c-dev interface using SMBus byte-data
// transfers.
type SMBus struct {
	mu  sync.Mutex
	bus i2c.Bus
}

// OpenSMBus opens /dev/i2c-<busIndex> and targets the 7-bit address addr.
func OpenSMBus(busIndex, addr int) (*SMBus, error) {
	s := &SMBus{}
	if err := s.bus.Open(busIndex); err != nil {
		return nil, errors.Wrapf(err, "regio: open i2c-%d", busIndex)
	}
	if err := s.bus.ForceSlaveAddress(addr); err != nil {
		s.bus.Close()
		return nil, errors.Wrapf(err, "regio: slave 0x%02x", addr)
	}
	return s, nil
}

func (s *SMBus) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bus.Close()
}

func (s *SMBus) ReadReg(reg uint8) (uint8, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked(reg)
}

func (s *SMBus) WriteReg(reg, val uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(reg, val)
}

func (s *SMBus) UpdateReg(reg, val, mask uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, err := s.readLocked(reg)
	if err != nil {
		return err
	}
	return s.writeLocked(reg, old&^mask|val&mask)
}

func (s *SMBus) readLocked(reg uint8) (uint8, error) {
	var sd i2c.SMBusData
	if err := s.bus.Do(i2c.Read, reg, i2c.ByteData, &sd); err != nil {
		return 0, errors.Wrapf(err, "regio: smbus read 0x%02x", reg)
	}
	return sd[0], nil
}

func (s *SMBus) writeLocked(reg, val uint8) error {
	var sd i2c.SMBusData
	sd[0] = val
	if err := s.bus.Do(i2c.Write, reg, i2c.ByteData, &sd); err != nil {
		return errors.Wrapf(err, "regio: smbus write 0x%02x", reg)
	}
	return nil
}
