package types

// Rail payloads published under power/rail/<name>/...

type RailKind string

const (
	RailVoltage RailKind = "voltage" // adjustable voltage output
	RailCurrent RailKind = "current" // adjustable current limit
	RailFixed   RailKind = "fixed"   // enable/disable only
)

// RailInfo is the retained Info.Detail for a registered rail.
// Voltage spans are microvolts, current spans microamps; a rail fills
// one set or neither.
type RailInfo struct {
	Name   string   `json:"name"`
	Kind   RailKind `json:"kind"`
	MinUV  int32    `json:"min_uv,omitempty"`
	MaxUV  int32    `json:"max_uv,omitempty"`
	StepUV int32    `json:"step_uv,omitempty"`
	MinUA  int32    `json:"min_ua,omitempty"`
	MaxUA  int32    `json:"max_ua,omitempty"`
	StepUA int32    `json:"step_ua,omitempty"`
	Values int      `json:"n_values"`
	Ganged bool     `json:"ganged,omitempty"` // moves via the shared GPIO selector
	Ramped bool     `json:"ramped,omitempty"` // settle delay on upward moves
}

// RailValue is the retained sample published at .../value.
type RailValue struct {
	Enabled  bool  `json:"enabled"`
	UV       int32 `json:"uv,omitempty"`
	UA       int32 `json:"ua,omitempty"`
	Selector int   `json:"selector"`
	TS       int64 `json:"ts_ns"`
}

// ------------------------
// Controls
// ------------------------

// SetVoltage asks for any supported voltage inside [MinUV, MaxUV].
type SetVoltage struct {
	MinUV int32 `json:"min_uv"`
	MaxUV int32 `json:"max_uv"`
}

// SetCurrent asks for any supported current limit inside [MinUA, MaxUA].
type SetCurrent struct {
	MinUA int32 `json:"min_ua"`
	MaxUA int32 `json:"max_ua"`
}

// SetDVSTable reprograms the per-slot voltage table of one ganged buck.
type SetDVSTable struct {
	UV []int32 `json:"uv"` // up to 8 slot voltages, slot 0 stays capped
}

// SetRate adjusts the periodic sampling interval; 0 stops sampling.
type SetRate struct {
	IntervalMs uint32 `json:"interval_ms"`
}

// RailSetReply acknowledges a successful set_voltage/set_current.
type RailSetReply struct {
	OK       bool  `json:"ok"`
	Selector int   `json:"selector"`
	UV       int32 `json:"uv,omitempty"`
	UA       int32 `json:"ua,omitempty"`
}

// ------------------------
// Events
// ------------------------

// DVSDrift reports a shared-selector move that disturbed sibling bucks.
type DVSDrift struct {
	Rail      string `json:"rail"`
	FromSlot  int    `json:"from_slot"`
	ToSlot    int    `json:"to_slot"`
	CostSteps int    `json:"cost_steps"` // summed sibling selector movement
	TS        int64  `json:"ts_ns"`
}
