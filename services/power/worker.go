// services/power/worker.go
package power

import (
	"context"
	"time"

	"powercode-go/drivers/max8997"
	"powercode-go/errcode"
	"powercode-go/types"
)

// sampleWorker serializes rail snapshots off the service loop. A snapshot
// is several register transactions, so it runs on its own goroutine and
// feeds results back through the sink.
type sampleWorker struct {
	dev   *max8997.Device
	infos map[max8997.RailID]types.RailInfo // immutable after construction
	reqQ  chan sampleReq
	sink  chan<- sampleResult
}

type sampleReq struct {
	rail max8997.RailID
	prio bool
}

type sampleResult struct {
	rail  max8997.RailID
	value types.RailValue
	err   error
}

func newSampleWorker(dev *max8997.Device, infos map[max8997.RailID]types.RailInfo, sink chan<- sampleResult) *sampleWorker {
	return &sampleWorker{
		dev:   dev,
		infos: infos,
		reqQ:  make(chan sampleReq, 16),
		sink:  sink,
	}
}

// Submit queues a snapshot request without blocking the caller. Priority
// requests get a short grace period before giving up.
func (w *sampleWorker) Submit(req sampleReq) bool {
	select {
	case w.reqQ <- req:
		return true
	default:
	}
	if !req.prio {
		return false
	}
	select {
	case w.reqQ <- req:
		return true
	case <-time.After(5 * time.Millisecond):
		return false
	}
}

func (w *sampleWorker) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case req := <-w.reqQ:
				v, err := w.snapshot(req.rail)
				select {
				case w.sink <- sampleResult{rail: req.rail, value: v, err: err}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
}

// snapshot reads the enable state and, where the rail has one, its
// programmed level.
func (w *sampleWorker) snapshot(rail max8997.RailID) (types.RailValue, error) {
	var v types.RailValue

	on, err := w.dev.IsEnabled(rail)
	switch {
	case err == nil:
		v.Enabled = on
	case errcode.Of(err) == errcode.UnsupportedRail:
		v.Enabled = true // no enable control means always on
	default:
		return v, err
	}

	switch w.infos[rail].Kind {
	case types.RailVoltage:
		uv, err := w.dev.Voltage(rail)
		if err != nil {
			return v, err
		}
		sel, err := w.dev.SelectorCode(rail)
		if err != nil {
			return v, err
		}
		v.UV, v.Selector = uv, sel

	case types.RailCurrent:
		ua, err := w.dev.CurrentLimit(rail)
		if err != nil {
			return v, err
		}
		sel, err := w.dev.SelectorCode(rail)
		if err != nil {
			return v, err
		}
		v.UA, v.Selector = ua, sel
	}
	return v, nil
}
