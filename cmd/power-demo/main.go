// Command power-demo: MAX8997 power service against an in-memory register
// file, exercising bring-up, control verbs, a ganged DVS move and the
// periodic sampler without any hardware attached.
//
// Run:
//
//	go run ./cmd/power-demo
package main

import (
	"context"
	"fmt"
	"time"

	"powercode-go/bus"
	"powercode-go/dvsgpio"
	"powercode-go/regio"
	"powercode-go/services/power"
	"powercode-go/types"
)

func main() {
	fmt.Println("== powercode: MAX8997 service demo (in-memory registers) ==")

	// In-process bus and connection.
	b := bus.NewBus(64)
	conn := b.NewConnection("main")

	// Subscriptions.
	stateSub := conn.Subscribe(bus.T("power", "state"))
	railSub := conn.Subscribe(bus.T("power", "rail", bus.TokenHash))
	driftSub := conn.Subscribe(bus.T("power", "event", "dvs_drift"))
	defer conn.Unsubscribe(stateSub)
	defer conn.Unsubscribe(railSub)
	defer conn.Unsubscribe(driftSub)

	// Fake hardware: a register file plus a selector that just reports
	// the line pattern it would drive.
	mem := regio.NewMem()
	sel := dvsgpio.Func(func(slot int) error {
		lv := dvsgpio.Bits(slot)
		fmt.Printf("[gpio]  dvs slot -> %d (SET1..3 = %d%d%d)\n", slot, lv[0], lv[1], lv[2])
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go power.Run(ctx, conn, power.StaticHardware{Conn: mem, Selector: sel})

	waitState(stateSub, "idle")

	// ----------------------------------------------------------------------------
	// EDITABLE CONFIGURATION
	// ----------------------------------------------------------------------------
	cfg := types.PowerConfig{
		Rails: []types.RailSpec{
			{Name: "ldo3"},
			{Name: "buck1"},
			{Name: "buck2"},
			{Name: "charger"},
			{Name: "esafeout1"},
		},
		DVS: types.DVSSpec{
			AllowDrift: true,
			Bucks: []types.DVSBuckSpec{
				{Rail: "buck1", MaxUV: 2_200_000, UV: []int32{0, 1_000_000, 1_050_000}},
				{Rail: "buck2", MaxUV: 2_200_000, UV: []int32{0, 1_200_000, 1_175_000}},
			},
		},
		RampMvPerUs: 10,
		SampleMs:    1000,
	}
	// ----------------------------------------------------------------------------

	conn.Publish(conn.NewMessage(bus.T("config", "power"), cfg, false))
	waitState(stateSub, "ready")
	fmt.Println("Config applied. Driving rails...")

	request(ctx, conn, "ldo3", "set_voltage", types.SetVoltage{MinUV: 1_810_000, MaxUV: 1_900_000})
	request(ctx, conn, "ldo3", "enable", nil)
	request(ctx, conn, "charger", "set_current", types.SetCurrent{MinUA: 450_000, MaxUA: 520_000})
	request(ctx, conn, "esafeout1", "set_voltage", types.SetVoltage{MinUV: 4_900_000, MaxUV: 4_900_000})

	// Only slot 2 carries 1.05V for buck1; committing it drags buck2 one
	// step, which the configuration above allows.
	request(ctx, conn, "buck1", "set_voltage", types.SetVoltage{MinUV: 1_050_000, MaxUV: 1_050_000})

	// A window between grid points is refused with its code.
	request(ctx, conn, "ldo3", "set_voltage", types.SetVoltage{MinUV: 1_812_000, MaxUV: 1_813_000})

	fmt.Println("Watching telemetry...")
	watch(stateSub, railSub, driftSub, 3*time.Second)
	fmt.Println("done")
}

// ---------------- Request–reply ----------------

func request(ctx context.Context, conn *bus.Connection, rail, verb string, payload any) {
	topic := bus.T("power", "rail", rail, "control", verb)
	rctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	rep, err := conn.RequestWait(rctx, conn.NewMessage(topic, payload, false))
	if err != nil {
		fmt.Printf("[ctrl]  %s %s: %v\n", rail, verb, err)
		return
	}
	switch v := rep.Payload.(type) {
	case types.RailSetReply:
		if v.UA != 0 {
			fmt.Printf("[ctrl]  %s %s: ok sel=%d ua=%d\n", rail, verb, v.Selector, v.UA)
		} else {
			fmt.Printf("[ctrl]  %s %s: ok sel=%d uv=%d\n", rail, verb, v.Selector, v.UV)
		}
	case types.OKReply:
		fmt.Printf("[ctrl]  %s %s: ok\n", rail, verb)
	case types.ErrorReply:
		fmt.Printf("[ctrl]  %s %s: refused (%s)\n", rail, verb, v.Error)
	default:
		fmt.Printf("[ctrl]  %s %s: unexpected reply %#v\n", rail, verb, v)
	}
}

// ---------------- Printing helpers ----------------

func waitState(sub *bus.Subscription, level string) {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case m := <-sub.Channel():
			if st, ok := m.Payload.(types.PowerState); ok {
				fmt.Printf("[state] %s (%s)\n", st.Level, st.Status)
				if st.Level == level {
					return
				}
			}
		case <-time.After(20 * time.Millisecond):
		}
	}
	fmt.Printf("[state] still waiting for %q, continuing\n", level)
}

func watch(state, rail, drift *bus.Subscription, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	for {
		select {
		case m := <-rail.Channel():
			printRail(m)
		case m := <-drift.Channel():
			if ev, ok := m.Payload.(types.DVSDrift); ok {
				fmt.Printf("[event] dvs drift: %s slot %d -> %d (cost %d steps)\n",
					ev.Rail, ev.FromSlot, ev.ToSlot, ev.CostSteps)
			}
		case m := <-state.Channel():
			if st, ok := m.Payload.(types.PowerState); ok {
				fmt.Printf("[state] %s (%s)\n", st.Level, st.Status)
			}
		case <-timer.C:
			return
		}
	}
}

func printRail(m *bus.Message) {
	// power/rail/<name>/{info,state,value}; control traffic is longer.
	if len(m.Topic) != 4 {
		return
	}
	name, _ := m.Topic[2].(string)
	switch v := m.Payload.(type) {
	case types.Info:
		if ri, ok := v.Detail.(types.RailInfo); ok {
			switch ri.Kind {
			case types.RailVoltage:
				fmt.Printf("[info]  %s: voltage %d..%d uV (%d values)\n",
					name, ri.MinUV, ri.MaxUV, ri.Values)
			case types.RailCurrent:
				fmt.Printf("[info]  %s: current %d..%d uA (%d values)\n",
					name, ri.MinUA, ri.MaxUA, ri.Values)
			default:
				fmt.Printf("[info]  %s: fixed\n", name)
			}
		}
	case types.RailStatus:
		if v.Error != "" {
			fmt.Printf("[state] %s: %s (%s)\n", name, v.Link, v.Error)
		} else {
			fmt.Printf("[state] %s: %s\n", name, v.Link)
		}
	case types.RailValue:
		switch {
		case v.UA != 0:
			fmt.Printf("[value] %s: enabled=%v ua=%d sel=%d\n", name, v.Enabled, v.UA, v.Selector)
		case v.UV != 0:
			fmt.Printf("[value] %s: enabled=%v uv=%d sel=%d\n", name, v.Enabled, v.UV, v.Selector)
		default:
			fmt.Printf("[value] %s: enabled=%v\n", name, v.Enabled)
		}
	}
}
