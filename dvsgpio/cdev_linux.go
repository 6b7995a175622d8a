//go:build linux

package dvsgpio

import (
	"github.com/pkg/errors"
	gpiocdev "github.com/warthog618/go-gpiocdev"
)

// Lines holds the selector's three requested GPIO lines. Each Set is a
// single bulk SetValues call, so the slot pattern changes in one go.
type Lines struct {
	req *gpiocdev.Lines
}

// RequestLines claims set1..set3 on chip (a path or chip name) as outputs
// driving the initial slot.
func RequestLines(chip string, set1, set2, set3, initial int, consumer string) (*Lines, error) {
	if initial < 0 || initial > 7 {
		return nil, errors.Errorf("dvsgpio: initial slot %d out of range", initial)
	}
	if consumer == "" {
		consumer = "pmic-dvs"
	}
	b := Bits(initial)
	req, err := gpiocdev.RequestLines(chip, []int{set1, set2, set3},
		gpiocdev.AsOutput(b[0], b[1], b[2]),
		gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, errors.Wrap(err, "dvsgpio: request lines")
	}
	return &Lines{req: req}, nil
}

func (l *Lines) Set(slot int) error {
	if slot < 0 || slot > 7 {
		return errors.Errorf("dvsgpio: slot %d out of range", slot)
	}
	b := Bits(slot)
	if err := l.req.SetValues(b[:]); err != nil {
		return errors.Wrap(err, "dvsgpio: set values")
	}
	return nil
}

func (l *Lines) Close() error { return l.req.Close() }
