// Package latency provides the instruction timing model of the functional
// units.
//
// Latencies are fixed per functional-unit class and can be configured via
// TimingConfig.
package latency

import (
	"github.com/sarchlab/ooosim/insts"
)

// Table provides instruction latency lookups.
type Table struct {
	config *TimingConfig
}

// NewTableWithConfig creates a new latency table with custom timing configuration.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{
		config: config,
	}
}

// UnitLatency returns the latency of a functional-unit class.
func (t *Table) UnitLatency(u insts.Unit) uint64 {
	return t.config.ForUnit(u)
}
