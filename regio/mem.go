package regio

import "sync"

// Mem is an in-memory register file. Tests and demos use it in place of
// hardware; Fail makes every subsequent operation return the given error.
type Mem struct {
	mu   sync.Mutex
	regs [256]uint8
	err  error
}

func NewMem() *Mem { return &Mem{} }

func (m *Mem) ReadReg(reg uint8) (uint8, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	return m.regs[reg], nil
}

func (m *Mem) WriteReg(reg, val uint8) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.regs[reg] = val
	return nil
}

func (m *Mem) UpdateReg(reg, val, mask uint8) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.regs[reg] = m.regs[reg]&^mask | val&mask
	return nil
}

// Fail arms (or with nil, clears) an injected transport error.
func (m *Mem) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Reg returns the current raw value, bypassing error injection.
func (m *Mem) Reg(reg uint8) uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.regs[reg]
}

// Load seeds a register, bypassing error injection.
func (m *Mem) Load(reg, val uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.regs[reg] = val
}
