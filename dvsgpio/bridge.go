package dvsgpio

import (
	mcp2221a "github.com/ardnew/mcp2221a"
	"github.com/pkg/errors"
)

// BridgePins drives the selector through MCP2221A GP pins. The pins are
// written in SET1..SET3 order; unlike Lines this is not a single bulk
// update, which is acceptable on a bench harness.
type BridgePins struct {
	dev  *mcp2221a.MCP2221A
	pins [3]byte
}

func NewBridgePins(dev *mcp2221a.MCP2221A, set1, set2, set3 byte, initial int) (*BridgePins, error) {
	if initial < 0 || initial > 7 {
		return nil, errors.Errorf("dvsgpio: initial slot %d out of range", initial)
	}
	p := &BridgePins{dev: dev, pins: [3]byte{set1, set2, set3}}
	b := Bits(initial)
	for i, pin := range p.pins {
		if err := dev.GPIOSetConfig(pin, byte(b[i]), mcp2221a.ModeGPIO, mcp2221a.DirOutput); err != nil {
			return nil, errors.Wrapf(err, "dvsgpio: configure gp%d", pin)
		}
	}
	return p, nil
}

func (p *BridgePins) Set(slot int) error {
	if slot < 0 || slot > 7 {
		return errors.Errorf("dvsgpio: slot %d out of range", slot)
	}
	b := Bits(slot)
	for i, pin := range p.pins {
		if err := p.dev.GPIOSet(pin, byte(b[i])); err != nil {
			return errors.Wrapf(err, "dvsgpio: set gp%d", pin)
		}
	}
	return nil
}
