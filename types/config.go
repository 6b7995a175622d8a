package types

// Power configuration supplied on topic "config/power".

type PowerConfig struct {
	Rails       []RailSpec `json:"rails"`
	DVS         DVSSpec    `json:"dvs,omitempty"`
	RampMvPerUs int32      `json:"ramp_mv_per_us,omitempty"` // BUCK1/2/4/5 slew rate
	FlashCntl   uint8      `json:"flash_cntl,omitempty"`     // raw flash controller init
	SampleMs    uint32     `json:"sample_ms,omitempty"`      // 0 disables periodic sampling
}

type RailSpec struct {
	Name string `json:"name"`           // e.g. "ldo3", "buck1"
	Skip bool   `json:"skip,omitempty"` // platform marks the rail invalid
}

type DVSSpec struct {
	AllowDrift  bool          `json:"allow_drift,omitempty"`
	InitialSlot int           `json:"initial_slot,omitempty"` // default 1; slot 0 is the reset cap
	Bucks       []DVSBuckSpec `json:"bucks,omitempty"`
}

// DVSBuckSpec opts one of buck1/buck2/buck5 into GPIO-driven selection.
type DVSBuckSpec struct {
	Rail  string  `json:"rail"`
	MaxUV int32   `json:"max_uv"`       // required safety cap
	UV    []int32 `json:"uv,omitempty"` // up to 8 slot voltages
}
