// cmd/railctl/main.go
//
// railctl pokes a MAX8997 PMIC from a host machine, either through an
// MCP2221A USB bridge or the Linux i2c-dev interface. It is a bench
// bring-up tool: constructing the device programs the default buck ramp
// rate, and every verb except list talks to the chip.
//
//	railctl [flags] list
//	railctl [flags] info <rail>
//	railctl [flags] get <rail>
//	railctl [flags] set <rail> <min_uv> [max_uv]
//	railctl [flags] setcur <rail> <min_ua> [max_ua]
//	railctl [flags] enable|disable <rail>
//	railctl [flags] suspend <rail>
//	railctl [flags] resume <rail> [inuse]
//	railctl [flags] dump
//	railctl [flags] slot <n>
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"powercode-go/drivers/max8997"
	"powercode-go/dvsgpio"
	"powercode-go/errcode"
	"powercode-go/regio"
	"powercode-go/types"

	mcp2221a "github.com/ardnew/mcp2221a"
)

var (
	transport = flag.String("transport", "bridge", "register transport: bridge (MCP2221A) or smbus (/dev/i2c-N)")
	busIndex  = flag.Int("bus", 1, "i2c-dev bus index for -transport smbus")
	addr      = flag.Int("addr", int(max8997.AddressDefault), "7-bit chip address")
	dvsLines  = flag.String("dvs", "", `selector lines for the slot verb: bridge "0,1,2" (GP pins), smbus "gpiochip0:8,9,10"`)
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: railctl [flags] <verb> [args]")
	fmt.Fprintln(os.Stderr, "verbs: list | info <rail> | get <rail> | set <rail> <min_uv> [max_uv] |")
	fmt.Fprintln(os.Stderr, "       setcur <rail> <min_ua> [max_ua] | enable <rail> | disable <rail> |")
	fmt.Fprintln(os.Stderr, "       suspend <rail> | resume <rail> [inuse] | dump | slot <n>")
	flag.PrintDefaults()
}

func main() {
	log.SetFlags(0)
	flag.Usage = usage
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}
	verb := args[0]

	// slot drives the DVS selector lines directly, no register traffic.
	if verb == "slot" {
		n := intArg(args, 1, "slot")
		if n < 0 || n > 7 {
			log.Fatalf("slot %d out of range 0..7", n)
		}
		closeSel, err := driveSlot(n)
		if err != nil {
			log.Fatalf("drive slot: %v", err)
		}
		defer closeSel()
		fmt.Printf("dvs selector -> slot %d\n", n)
		return
	}

	conn, closeConn := openConn()
	defer closeConn()

	if verb == "dump" {
		dumpRegs(conn)
		return
	}

	dev, err := max8997.New(conn, nil, max8997.Config{})
	if err != nil {
		log.Fatalf("bring-up: %v", err)
	}

	switch verb {
	case "list":
		for _, r := range max8997.AllRails() {
			info, err := dev.Info(r)
			if err != nil {
				log.Fatalf("info %s: %v", r, err)
			}
			fmt.Println(describe(info))
		}

	case "info":
		info, err := dev.Info(railArg(args))
		if err != nil {
			log.Fatalf("info: %v", err)
		}
		fmt.Println(describe(info))

	case "get":
		printValue(dev, railArg(args))

	case "set":
		rail := railArg(args)
		lo := intArg(args, 2, "min_uv")
		hi := lo
		if len(args) > 3 {
			hi = intArg(args, 3, "max_uv")
		}
		sel, err := dev.SetVoltage(rail, int32(lo), int32(hi))
		if err != nil {
			log.Fatalf("set %s: %v", rail, err)
		}
		uv, _ := dev.Voltage(rail)
		fmt.Printf("%s: sel=%d uv=%d\n", rail, sel, uv)

	case "setcur":
		rail := railArg(args)
		lo := intArg(args, 2, "min_ua")
		hi := lo
		if len(args) > 3 {
			hi = intArg(args, 3, "max_ua")
		}
		sel, err := dev.SetCurrentLimit(rail, int32(lo), int32(hi))
		if err != nil {
			log.Fatalf("setcur %s: %v", rail, err)
		}
		ua, _ := dev.CurrentLimit(rail)
		fmt.Printf("%s: sel=%d ua=%d\n", rail, sel, ua)

	case "enable":
		rail := railArg(args)
		if err := dev.Enable(rail); err != nil {
			log.Fatalf("enable %s: %v", rail, err)
		}
		fmt.Printf("%s: enabled\n", rail)

	case "disable":
		rail := railArg(args)
		if err := dev.Disable(rail); err != nil {
			log.Fatalf("disable %s: %v", rail, err)
		}
		fmt.Printf("%s: disabled\n", rail)

	case "suspend":
		rail := railArg(args)
		if err := dev.SuspendDisable(rail); err != nil {
			log.Fatalf("suspend %s: %v", rail, err)
		}
		fmt.Printf("%s: suspended\n", rail)

	case "resume":
		rail := railArg(args)
		inUse := len(args) > 2 && args[2] == "inuse"
		if err := dev.SuspendEnable(rail, inUse); err != nil {
			log.Fatalf("resume %s: %v", rail, err)
		}
		fmt.Printf("%s: resumed (inuse=%v)\n", rail, inUse)

	default:
		usage()
		os.Exit(2)
	}
}

// -----------------------------------------------------------------------------
// Verb helpers
// -----------------------------------------------------------------------------

func railArg(args []string) max8997.RailID {
	if len(args) < 2 {
		usage()
		os.Exit(2)
	}
	rail, ok := max8997.ParseRail(args[1])
	if !ok {
		log.Fatalf("unknown rail %q (try: railctl list)", args[1])
	}
	return rail
}

func intArg(args []string, i int, name string) int {
	if len(args) <= i {
		usage()
		os.Exit(2)
	}
	n, err := strconv.Atoi(args[i])
	if err != nil {
		log.Fatalf("%s: %v", name, err)
	}
	return n
}

func describe(info types.RailInfo) string {
	switch info.Kind {
	case types.RailVoltage:
		if info.StepUV != 0 {
			return fmt.Sprintf("%-14s voltage  %d..%d uV step %d (%d values)",
				info.Name, info.MinUV, info.MaxUV, info.StepUV, info.Values)
		}
		return fmt.Sprintf("%-14s voltage  %d..%d uV (%d discrete)",
			info.Name, info.MinUV, info.MaxUV, info.Values)
	case types.RailCurrent:
		return fmt.Sprintf("%-14s current  %d..%d uA step %d (%d values)",
			info.Name, info.MinUA, info.MaxUA, info.StepUA, info.Values)
	default:
		return fmt.Sprintf("%-14s fixed", info.Name)
	}
}

func printValue(dev *max8997.Device, rail max8997.RailID) {
	info, err := dev.Info(rail)
	if err != nil {
		log.Fatalf("info %s: %v", rail, err)
	}

	state := "enabled"
	on, err := dev.IsEnabled(rail)
	switch {
	case err == nil && !on:
		state = "disabled"
	case err != nil && errcode.Of(err) == errcode.UnsupportedRail:
		state = "always-on"
	case err != nil:
		log.Fatalf("get %s: %v", rail, err)
	}

	switch info.Kind {
	case types.RailVoltage:
		uv, err := dev.Voltage(rail)
		if err != nil {
			log.Fatalf("get %s: %v", rail, err)
		}
		sel, _ := dev.SelectorCode(rail)
		fmt.Printf("%s: %s uv=%d sel=%d\n", rail, state, uv, sel)
	case types.RailCurrent:
		ua, err := dev.CurrentLimit(rail)
		if err != nil {
			log.Fatalf("get %s: %v", rail, err)
		}
		sel, _ := dev.SelectorCode(rail)
		fmt.Printf("%s: %s ua=%d sel=%d\n", rail, state, ua, sel)
	default:
		fmt.Printf("%s: %s\n", rail, state)
	}
}

func dumpRegs(conn regio.Conn) {
	// The chip's register file ends just past the flash controller block.
	for base := 0; base <= 0x60; base += 16 {
		fmt.Printf("%02x:", base)
		for i := 0; i < 16; i++ {
			v, err := conn.ReadReg(uint8(base + i))
			if err != nil {
				log.Fatalf("read 0x%02x: %v", base+i, err)
			}
			fmt.Printf(" %02x", v)
		}
		fmt.Println()
	}
}

// -----------------------------------------------------------------------------
// Transports
// -----------------------------------------------------------------------------

func openConn() (regio.Conn, func()) {
	switch *transport {
	case "bridge":
		m := openBridgeDev()
		return regio.NewBridge(m, uint8(*addr)), func() { m.Close() }
	case "smbus":
		return openSMBus()
	default:
		log.Fatalf("unknown transport %q", *transport)
		return nil, nil
	}
}

func openBridgeDev() *mcp2221a.MCP2221A {
	m, err := mcp2221a.New(0, mcp2221a.VID, mcp2221a.PID)
	if err != nil {
		log.Fatalf("open mcp2221a: %v", err)
	}
	if err := m.I2CSetConfig(mcp2221a.I2CBaudRate); err != nil {
		m.Close()
		log.Fatalf("i2c config: %v", err)
	}
	return m
}

// driveSlot claims the selector lines named by -dvs and presents slot on
// them. Bridge GP pins work everywhere; kernel lines are linux-only.
func driveSlot(slot int) (func(), error) {
	if *dvsLines == "" {
		log.Fatal("slot verb needs -dvs selector lines")
	}
	if *transport != "bridge" {
		return driveSlotLines(slot)
	}
	var pins [3]byte
	parts := strings.Split(*dvsLines, ",")
	if len(parts) != 3 {
		log.Fatalf("-dvs wants three GP pins, got %q", *dvsLines)
	}
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			log.Fatalf("-dvs pin %q: %v", p, err)
		}
		pins[i] = byte(n)
	}
	m := openBridgeDev()
	if _, err := dvsgpio.NewBridgePins(m, pins[0], pins[1], pins[2], slot); err != nil {
		m.Close()
		return nil, err
	}
	return func() { m.Close() }, nil
}
