// services/power/power.go
package power

import (
	"context"
	"encoding/json"
	"time"

	"powercode-go/bus"
	"powercode-go/drivers/max8997"
	"powercode-go/errcode"
	"powercode-go/regio"
	"powercode-go/types"
	"powercode-go/x/mathx"
)

// -----------------------------------------------------------------------------
// Entry point
// -----------------------------------------------------------------------------

// Hardware supplies the chip collaborators. The service rebuilds the
// device on every configuration, so it asks again each time.
type Hardware interface {
	RegConn() (regio.Conn, error)
	DVSSelector() (max8997.Selector, error)
}

// StaticHardware serves fixed collaborators, the common case where the
// process owns one register connection and one set of selector lines.
type StaticHardware struct {
	Conn     regio.Conn
	Selector max8997.Selector
}

func (h StaticHardware) RegConn() (regio.Conn, error) { return h.Conn, nil }

func (h StaticHardware) DVSSelector() (max8997.Selector, error) {
	if h.Selector == nil {
		return nil, errcode.New(errcode.InvalidConfig, "hardware", "no selector lines wired")
	}
	return h.Selector, nil
}

func Run(ctx context.Context, conn *bus.Connection, hw Hardware) {
	s := &service{
		conn:     conn,
		hw:       hw,
		periodMS: map[max8997.RailID]int{},
		nextDue:  map[max8997.RailID]time.Time{},
		results:  make(chan sampleResult, 32),
		drift:    make(chan max8997.DriftEvent, 8),
	}
	s.loop(ctx)
}

// -----------------------------------------------------------------------------
// Types
// -----------------------------------------------------------------------------

const (
	minSampleMS = 50
	maxSampleMS = 3_600_000
)

type service struct {
	conn *bus.Connection
	hw   Hardware

	dev   *max8997.Device
	reg   *max8997.Registry
	rails map[string]max8997.RailID // registered, by wire name

	periodMS map[max8997.RailID]int
	nextDue  map[max8997.RailID]time.Time

	timer *time.Timer

	// Snapshot fan-in
	worker       *sampleWorker
	workerCancel context.CancelFunc
	results      chan sampleResult

	// Selector moves that disturbed siblings, pushed from under the
	// device lock
	drift chan max8997.DriftEvent
}

// -----------------------------------------------------------------------------
// Main loop
// -----------------------------------------------------------------------------

func (s *service) loop(ctx context.Context) {
	cfgSub := s.conn.Subscribe(bus.T("config", "power"))
	ctrlSub := s.conn.Subscribe(bus.T("power", "rail", bus.TokenPlus, "control", bus.TokenPlus))
	defer s.conn.Unsubscribe(cfgSub)
	defer s.conn.Unsubscribe(ctrlSub)

	s.publishState("idle", "awaiting_config", nil)

	s.timer = time.NewTimer(time.Hour)
	if !s.timer.Stop() {
		drainTimer(s.timer)
	}

	for {
		// (re)arm timer
		if next := s.earliestDue(); next.IsZero() {
			if !s.timer.Stop() {
				drainTimer(s.timer)
			}
			s.timer.Reset(time.Hour)
		} else {
			d := time.Until(next)
			if d < 0 {
				d = 0
			}
			if !s.timer.Stop() {
				drainTimer(s.timer)
			}
			s.timer.Reset(d)
		}

		select {
		case <-ctx.Done():
			s.teardown()
			s.publishState("stopped", "context_cancelled", nil)
			return

		case msg := <-cfgSub.Channel():
			var cfg types.PowerConfig
			if err := decodeJSON(msg.Payload, &cfg); err != nil {
				s.publishState("error", "config_decode_failed", err)
				continue
			}
			if err := s.applyConfig(ctx, cfg); err != nil {
				s.publishState("error", "apply_config_failed", err)
				continue
			}
			s.publishState("ready", "configured", nil)

		case msg := <-ctrlSub.Channel():
			s.handleControl(msg)

		case <-s.timer.C:
			now := time.Now()
			for r, due := range s.nextDue {
				if !now.Before(due) {
					s.submitSample(r, false)
					s.bumpNext(r, now)
				}
			}

		case res := <-s.results:
			s.handleSample(res)

		case ev := <-s.drift:
			s.conn.Publish(s.conn.NewMessage(bus.T("power", "event", "dvs_drift"), types.DVSDrift{
				Rail:      ev.Rail.String(),
				FromSlot:  ev.FromSlot,
				ToSlot:    ev.ToSlot,
				CostSteps: ev.CostSteps,
				TS:        time.Now().UnixNano(),
			}, false))
		}
	}
}

// -----------------------------------------------------------------------------
// Configuration
// -----------------------------------------------------------------------------

func (s *service) applyConfig(ctx context.Context, cfg types.PowerConfig) error {
	// A new configuration replaces the previous device wholesale.
	s.teardown()

	mcfg, err := deviceConfig(cfg)
	if err != nil {
		return err
	}
	rails, skip, err := railSet(cfg.Rails)
	if err != nil {
		return err
	}

	conn, err := s.hw.RegConn()
	if err != nil {
		return err
	}
	var sel max8997.Selector
	if len(cfg.DVS.Bucks) > 0 {
		if sel, err = s.hw.DVSSelector(); err != nil {
			return err
		}
	}
	dev, err := max8997.New(conn, sel, mcfg)
	if err != nil {
		return err
	}

	reg, err := dev.RegisterAll(busFramework{s}, rails, func(r max8997.RailID) bool { return !skip[r] })
	if err != nil {
		return err
	}

	s.dev, s.reg = dev, reg
	s.rails = map[string]max8997.RailID{}
	infos := map[max8997.RailID]types.RailInfo{}
	for _, r := range reg.Rails() {
		s.rails[r.String()] = r
		if info, ierr := dev.Info(r); ierr == nil {
			infos[r] = info
		}
		if cfg.SampleMs > 0 {
			s.periodMS[r] = mathx.Clamp(int(cfg.SampleMs), minSampleMS, maxSampleMS)
			s.nextDue[r] = time.Now().Add(50 * time.Millisecond)
		}
	}

	dev.OnDrift(func(ev max8997.DriftEvent) {
		// Runs under the device lock; never block.
		select {
		case s.drift <- ev:
		default:
		}
	})

	wctx, cancel := context.WithCancel(ctx)
	s.worker = newSampleWorker(dev, infos, s.results)
	s.worker.Start(wctx)
	s.workerCancel = cancel
	return nil
}

// deviceConfig maps the bus configuration onto the driver's bring-up input.
func deviceConfig(cfg types.PowerConfig) (max8997.Config, error) {
	out := max8997.Config{
		AllowDrift:  cfg.DVS.AllowDrift,
		InitialSlot: cfg.DVS.InitialSlot,
		RampMvPerUs: cfg.RampMvPerUs,
		FlashCntl:   cfg.FlashCntl,
	}
	for _, b := range cfg.DVS.Bucks {
		spec := max8997.DVSRail{Enable: true, MaxUV: b.MaxUV, UV: b.UV}
		switch b.Rail {
		case "buck1":
			out.Buck1 = spec
		case "buck2":
			out.Buck2 = spec
		case "buck5":
			out.Buck5 = spec
		default:
			return out, errcode.New(errcode.InvalidConfig, "apply_config", b.Rail+" cannot be gpio-driven")
		}
	}
	return out, nil
}

func railSet(specs []types.RailSpec) ([]max8997.RailID, map[max8997.RailID]bool, error) {
	rails := make([]max8997.RailID, 0, len(specs))
	skip := map[max8997.RailID]bool{}
	for _, rs := range specs {
		r, ok := max8997.ParseRail(rs.Name)
		if !ok {
			return nil, nil, errcode.New(errcode.UnknownRail, "apply_config", "no such rail: "+rs.Name)
		}
		rails = append(rails, r)
		if rs.Skip {
			skip[r] = true
		}
	}
	return rails, skip, nil
}

func (s *service) teardown() {
	if s.workerCancel != nil {
		s.workerCancel()
		s.workerCancel = nil
	}
	s.worker = nil
	if s.reg != nil {
		s.reg.Teardown()
		s.reg = nil
	}
	s.dev = nil
	s.rails = nil
	s.periodMS = map[max8997.RailID]int{}
	s.nextDue = map[max8997.RailID]time.Time{}
}

// -----------------------------------------------------------------------------
// Registration framework
// -----------------------------------------------------------------------------

// busFramework announces rails as retained info/state pairs under
// power/rail/<name>; the handle is the wire name.
type busFramework struct{ s *service }

func (f busFramework) Register(info types.RailInfo) (max8997.Handle, error) {
	f.s.pubRet(railTopic(info.Name, "info"), types.Info{
		SchemaVersion: 1,
		Driver:        "max8997",
		Detail:        info,
	})
	f.s.pubRet(railTopic(info.Name, "state"), types.RailStatus{
		Link: types.LinkUp,
		TS:   time.Now().UnixNano(),
	})
	return info.Name, nil
}

func (f busFramework) Unregister(h max8997.Handle) {
	name, ok := h.(string)
	if !ok {
		return
	}
	f.s.pubRet(railTopic(name, "info"), nil) // clears the retained info
	f.s.pubRet(railTopic(name, "state"), types.RailStatus{
		Link: types.LinkDown,
		TS:   time.Now().UnixNano(),
	})
}

// -----------------------------------------------------------------------------
// Controls
// -----------------------------------------------------------------------------

func (s *service) handleControl(msg *bus.Message) {
	// power/rail/<name>/control/<verb>
	if len(msg.Topic) < 5 {
		return
	}
	name, _ := msg.Topic[2].(string)
	verb, _ := msg.Topic[4].(string)

	if s.dev == nil {
		s.replyErr(msg, errcode.NotReady)
		return
	}
	rail, ok := s.rails[name]
	if !ok {
		s.replyErr(msg, errcode.UnknownRail)
		return
	}

	switch verb {
	case "enable":
		s.replyOutcome(msg, s.dev.Enable(rail))

	case "disable":
		s.replyOutcome(msg, s.dev.Disable(rail))

	case "set_voltage":
		var p types.SetVoltage
		if err := decodeJSON(msg.Payload, &p); err != nil {
			s.replyErr(msg, errcode.InvalidPayload)
			return
		}
		sel, err := s.dev.SetVoltage(rail, p.MinUV, p.MaxUV)
		if err != nil {
			s.replyErr(msg, errcode.Of(err))
			return
		}
		uv, _ := s.dev.Voltage(rail)
		s.reply(msg, types.RailSetReply{OK: true, Selector: sel, UV: uv})

	case "set_current":
		var p types.SetCurrent
		if err := decodeJSON(msg.Payload, &p); err != nil {
			s.replyErr(msg, errcode.InvalidPayload)
			return
		}
		sel, err := s.dev.SetCurrentLimit(rail, p.MinUA, p.MaxUA)
		if err != nil {
			s.replyErr(msg, errcode.Of(err))
			return
		}
		ua, _ := s.dev.CurrentLimit(rail)
		s.reply(msg, types.RailSetReply{OK: true, Selector: sel, UA: ua})

	case "set_dvs_table":
		var p types.SetDVSTable
		if err := decodeJSON(msg.Payload, &p); err != nil {
			s.replyErr(msg, errcode.InvalidPayload)
			return
		}
		s.replyOutcome(msg, s.dev.SetDVSTable(rail, p.UV))

	case "read_now":
		if s.submitSample(rail, true) {
			s.bumpNext(rail, time.Now())
			s.replyOK(msg)
		} else {
			s.replyErr(msg, errcode.Busy)
		}

	case "set_rate":
		var p types.SetRate
		if err := decodeJSON(msg.Payload, &p); err != nil {
			s.replyErr(msg, errcode.InvalidPayload)
			return
		}
		if p.IntervalMs == 0 {
			delete(s.periodMS, rail)
			delete(s.nextDue, rail)
			s.replyOK(msg)
			return
		}
		s.periodMS[rail] = mathx.Clamp(int(p.IntervalMs), minSampleMS, maxSampleMS)
		s.bumpNext(rail, time.Now())
		s.replyOK(msg)

	default:
		s.replyErr(msg, errcode.Unsupported)
	}
}

// -----------------------------------------------------------------------------
// Sampling
// -----------------------------------------------------------------------------

func (s *service) submitSample(rail max8997.RailID, prio bool) bool {
	if s.worker == nil {
		return false
	}
	return s.worker.Submit(sampleReq{rail: rail, prio: prio})
}

// bumpNext reschedules the rail's next periodic sample; rails without a
// period are left alone.
func (s *service) bumpNext(rail max8997.RailID, from time.Time) {
	ms, ok := s.periodMS[rail]
	if !ok {
		return
	}
	s.nextDue[rail] = from.Add(time.Duration(ms) * time.Millisecond)
}

func (s *service) earliestDue() time.Time {
	var min time.Time
	for _, t := range s.nextDue {
		if !t.IsZero() && (min.IsZero() || t.Before(min)) {
			min = t
		}
	}
	return min
}

func (s *service) handleSample(r sampleResult) {
	name := r.rail.String()
	if _, ok := s.rails[name]; !ok {
		return
	}
	now := time.Now().UnixNano()

	if r.err != nil {
		s.pubRet(railTopic(name, "state"), types.RailStatus{
			Link:  types.LinkDegraded,
			TS:    now,
			Error: string(errcode.Of(r.err)),
		})
		return
	}
	r.value.TS = now
	s.pubRet(railTopic(name, "value"), r.value)
	s.pubRet(railTopic(name, "state"), types.RailStatus{Link: types.LinkUp, TS: now})
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func (s *service) publishState(level, status string, err error) {
	st := types.PowerState{Level: level, Status: status, TS: time.Now().UnixNano()}
	if err != nil {
		st.Status = status + ": " + err.Error()
	}
	s.conn.Publish(s.conn.NewMessage(bus.T("power", "state"), st, true))
}

func (s *service) pubRet(t bus.Topic, p any) {
	s.conn.Publish(s.conn.NewMessage(t, p, true))
}

func (s *service) reply(req *bus.Message, payload any) {
	if !req.CanReply() {
		return
	}
	s.conn.Reply(req, payload, false)
}

func (s *service) replyOK(req *bus.Message) {
	s.reply(req, types.OKReply{OK: true})
}

func (s *service) replyErr(req *bus.Message, code errcode.Code) {
	s.reply(req, types.ErrorReply{OK: false, Error: string(code)})
}

// replyOutcome acknowledges err-only operations.
func (s *service) replyOutcome(req *bus.Message, err error) {
	if err != nil {
		s.replyErr(req, errcode.Of(err))
		return
	}
	s.replyOK(req)
}

func railTopic(name, leaf string) bus.Topic {
	return bus.T("power", "rail", name, leaf)
}

func decodeJSON[T any](src any, dst *T) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		// Accept maps and structs by re-encoding into T.
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return json.Unmarshal(b, dst)
	}
}

func drainTimer(t *time.Timer) {
	select {
	case <-t.C:
	default:
	}
}
