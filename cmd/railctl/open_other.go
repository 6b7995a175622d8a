//go:build !linux

package main

import (
	"log"

	"powercode-go/regio"
)

func openSMBus() (regio.Conn, func()) {
	log.Fatal("-transport smbus needs linux i2c-dev")
	return nil, nil
}

func driveSlotLines(int) (func(), error) {
	log.Fatal("kernel GPIO selector lines need linux; use -transport bridge pins")
	return nil, nil
}
