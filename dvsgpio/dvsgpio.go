// Package dvsgpio drives the three-line DVS slot selector shared by the
// GPIO-ganged bucks. A slot index 0..7 is presented on the SET1..SET3
// pins, SET1 carrying the most significant bit.
package dvsgpio

// Func adapts a plain function to a selector sink; handy for demos and
// custom transports.
type Func func(slot int) error

func (f Func) Set(slot int) error { return f(slot) }

// Bits expands slot (0..7) into line levels in SET1, SET2, SET3 order.
func Bits(slot int) [3]int {
	return [3]int{slot >> 2 & 1, slot >> 1 & 1, slot & 1}
}
