package pipeline

import "github.com/sarchlab/ooosim/insts"

// RenameTable maps each architectural register to the tag of its most
// recent in-flight producer, or NoTag when the register file holds the
// current value.
type RenameTable struct {
	GPR [insts.NumGPR]int
	FPR [insts.NumFPR]int
}

func (t *RenameTable) reset() {
	for i := range t.GPR {
		t.GPR[i] = NoTag
	}
	for i := range t.FPR {
		t.FPR[i] = NoTag
	}
}

func (t *RenameTable) slot(reg insts.Reg) *int {
	if reg.Class == insts.ClassFPR {
		return &t.FPR[reg.Index]
	}
	return &t.GPR[reg.Index]
}

// Lookup returns the producer tag of reg, or NoTag.
func (t RenameTable) Lookup(reg insts.Reg) int {
	if reg.Index == 0 {
		return NoTag
	}
	return *t.slot(reg)
}

// set records tag as the newest producer of reg. Register 0 is never
// renamed.
func (t *RenameTable) set(reg insts.Reg, tag int) {
	if reg.Index == 0 {
		return
	}
	*t.slot(reg) = tag
}

// release clears reg if tag is still its newest producer.
func (t *RenameTable) release(reg insts.Reg, tag int) {
	if reg.Index == 0 {
		return
	}
	if s := t.slot(reg); *s == tag {
		*s = NoTag
	}
}

// drop clears every entry naming a tag in discarded.
func (t *RenameTable) drop(discarded map[int]bool) {
	for i, tag := range t.GPR {
		if discarded[tag] {
			t.GPR[i] = NoTag
		}
	}
	for i, tag := range t.FPR {
		if discarded[tag] {
			t.FPR[i] = NoTag
		}
	}
}

// Pending returns true if any register waits on an in-flight producer.
func (t RenameTable) Pending() bool {
	for _, tag := range t.GPR {
		if tag != NoTag {
			return true
		}
	}
	for _, tag := range t.FPR {
		if tag != NoTag {
			return true
		}
	}
	return false
}
