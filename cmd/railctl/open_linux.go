//go:build linux

package main

import (
	"log"
	"strconv"
	"strings"

	"powercode-go/dvsgpio"
	"powercode-go/regio"
)

func openSMBus() (regio.Conn, func()) {
	s, err := regio.OpenSMBus(*busIndex, *addr)
	if err != nil {
		log.Fatalf("open smbus: %v", err)
	}
	return s, s.Close
}

// driveSlotLines claims kernel GPIO lines ("gpiochip0:8,9,10", SET1 first)
// and presents the slot on them.
func driveSlotLines(slot int) (func(), error) {
	chip, rest, ok := strings.Cut(*dvsLines, ":")
	if !ok {
		log.Fatalf(`-dvs wants "chip:set1,set2,set3", got %q`, *dvsLines)
	}
	var offs [3]int
	parts := strings.Split(rest, ",")
	if len(parts) != 3 {
		log.Fatalf("-dvs wants three line offsets, got %q", rest)
	}
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			log.Fatalf("-dvs line %q: %v", p, err)
		}
		offs[i] = n
	}
	lines, err := dvsgpio.RequestLines(chip, offs[0], offs[1], offs[2], slot, "railctl")
	if err != nil {
		return nil, err
	}
	return func() { lines.Close() }, nil
}
