package latency

import (
	"fmt"

	"github.com/sarchlab/ooosim/insts"
)

// TimingConfig holds the execution latency of each functional-unit class,
// in cycles. Every latency must be at least 1.
type TimingConfig struct {
	// IntAddLatency covers integer add/sub/logic/shift and NOP. Default: 1.
	IntAddLatency uint64 `json:"int_add_latency" toml:"int_add_latency"`

	// IntMulLatency covers MULT. Default: 2.
	IntMulLatency uint64 `json:"int_mul_latency" toml:"int_mul_latency"`

	// FloatAddLatency covers ADDF and SUBF. Default: 4.
	FloatAddLatency uint64 `json:"float_add_latency" toml:"float_add_latency"`

	// FloatMulLatency covers MULTF. Default: 6.
	FloatMulLatency uint64 `json:"float_mul_latency" toml:"float_mul_latency"`

	// MemoryLatency covers loads and stores when no data cache is
	// modelled. Default: 4.
	MemoryLatency uint64 `json:"memory_latency" toml:"memory_latency"`

	// JumpLatency covers branch resolution. Default: 2.
	JumpLatency uint64 `json:"jump_latency" toml:"jump_latency"`
}

// DefaultTimingConfig returns the default latencies.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		IntAddLatency:   1,
		IntMulLatency:   2,
		FloatAddLatency: 4,
		FloatMulLatency: 6,
		MemoryLatency:   4,
		JumpLatency:     2,
	}
}

// ForUnit returns the latency configured for a functional-unit class.
func (c *TimingConfig) ForUnit(u insts.Unit) uint64 {
	switch u {
	case insts.UnitIntAdd:
		return c.IntAddLatency
	case insts.UnitIntMul:
		return c.IntMulLatency
	case insts.UnitFloatAdd:
		return c.FloatAddLatency
	case insts.UnitFloatMul:
		return c.FloatMulLatency
	case insts.UnitMemory:
		return c.MemoryLatency
	case insts.UnitJump:
		return c.JumpLatency
	default:
		return 1
	}
}

// Validate checks that all latency values are valid (> 0).
func (c *TimingConfig) Validate() error {
	if c.IntAddLatency == 0 {
		return fmt.Errorf("int_add_latency must be > 0")
	}
	if c.IntMulLatency == 0 {
		return fmt.Errorf("int_mul_latency must be > 0")
	}
	if c.FloatAddLatency == 0 {
		return fmt.Errorf("float_add_latency must be > 0")
	}
	if c.FloatMulLatency == 0 {
		return fmt.Errorf("float_mul_latency must be > 0")
	}
	if c.MemoryLatency == 0 {
		return fmt.Errorf("memory_latency must be > 0")
	}
	if c.JumpLatency == 0 {
		return fmt.Errorf("jump_latency must be > 0")
	}
	return nil
}
