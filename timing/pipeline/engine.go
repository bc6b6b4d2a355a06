// Package pipeline provides the out-of-order execution engine: a reorder
// buffer, register renaming, per-class reservation stations and functional
// units, a jump predictor and a prefetch buffer, advanced one clock cycle
// per Step.
package pipeline

import (
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/ooosim/emu"
	"github.com/sarchlab/ooosim/insts"
	"github.com/sarchlab/ooosim/loader"
	"github.com/sarchlab/ooosim/timing/cache"
	"github.com/sarchlab/ooosim/timing/latency"
)

// Status is the outcome of one Step.
type Status uint8

// Engine statuses.
const (
	// Running means at least one stage made progress.
	Running Status = iota
	// Stalled means no instruction was fetched, decoded, issued,
	// broadcast or committed this cycle. A functional unit counting down
	// its latency does not count as progress.
	Stalled
	// Ended means the program has fully retired.
	Ended
)

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case Stalled:
		return "stalled"
	case Ended:
		return "ended"
	default:
		return "unknown"
	}
}

// Statistics holds engine performance statistics.
type Statistics struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Committed is the number of instructions retired.
	Committed uint64
	// Stalls is the number of cycles in which no stage made progress.
	Stalls uint64
	// Flushes is the number of misprediction flushes.
	Flushes uint64
	// Forwards is the number of loads satisfied by an in-flight store.
	Forwards uint64
	// Squashed is the number of reorder buffer entries discarded by
	// flushes.
	Squashed uint64
}

// CPI returns cycles per committed instruction.
func (s Statistics) CPI() float64 {
	if s.Committed == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Committed)
}

// IPC returns committed instructions per cycle.
func (s Statistics) IPC() float64 {
	if s.Cycles == 0 {
		return 0
	}
	return float64(s.Committed) / float64(s.Cycles)
}

// Option is a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default logger only reports warnings.
func WithLogger(log logrus.FieldLogger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithObserver registers an observer notified after every cycle.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// Engine is the out-of-order execution engine. It exclusively owns the
// architectural and speculative state of one program run.
type Engine struct {
	prog   *loader.Program
	config Config

	log      logrus.FieldLogger
	observer Observer

	latencies *latency.Table
	dcache    *cache.Cache
	predictor *BranchPredictor

	regs     emu.RegFile
	memory   *emu.Memory
	rob      *reorderBuffer
	rename   RenameTable
	stations [insts.NumUnits]*reservationStation
	units    [insts.NumUnits]*functionalUnit
	prefetch *prefetchBuffer

	// pc is the next instruction to fetch.
	pc      int
	nextSeq uint64

	cycle  uint64
	status Status
	stats  Statistics
}

// NewEngine creates an engine for prog. It returns a *ConfigurationError if
// cfg is invalid.
func NewEngine(prog *loader.Program, cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg = cfg.Clone()
	timing := cfg.Timing

	e := &Engine{
		prog:      prog,
		config:    cfg,
		latencies: latency.NewTableWithConfig(&timing),
		predictor: NewBranchPredictor(cfg.Predictor),
		memory:    emu.NewMemory(),
		rob:       newReorderBuffer(cfg.ROBSize),
		prefetch:  newPrefetchBuffer(cfg.PrefetchSize),
	}

	if cfg.DCache != nil {
		e.dcache = cache.New(*cfg.DCache)
	}

	for _, u := range insts.Units() {
		e.stations[u] = newReservationStation(u, cfg.Stations.ForUnit(u))
		e.units[u] = &functionalUnit{unit: u}
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		e.log = l
	}

	e.Reset()

	return e, nil
}

// Program returns the program being executed.
func (e *Engine) Program() *loader.Program {
	return e.prog
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	return e.config.Clone()
}

// Reset restores the initial state: empty registers, memory and buffers,
// fetch at the first instruction, cycle 0.
func (e *Engine) Reset() {
	e.regs.Reset()
	e.memory.Reset()
	e.rob.reset()
	e.rename.reset()
	for u := range e.stations {
		e.stations[u].reset()
		e.units[u].release()
	}
	e.prefetch.clear()
	e.predictor.Reset()
	if e.dcache != nil {
		e.dcache.Reset()
	}

	e.pc = 0
	e.nextSeq = 0
	e.cycle = 0
	e.status = Running
	e.stats = Statistics{}
}

// Status returns the status of the last cycle.
func (e *Engine) Status() Status {
	return e.status
}

// Run steps the engine until the program ends or MaxCycles is reached.
func (e *Engine) Run() Status {
	for e.status != Ended {
		if e.config.MaxCycles > 0 && e.cycle >= e.config.MaxCycles {
			break
		}
		e.Step()
	}
	return e.status
}

// progress counts what the stages did in one cycle.
type progress struct {
	committed  []ROBEntry
	broadcasts int
	issued     int
	decoded    int
	fetched    int
}

func (p progress) any() bool {
	return len(p.committed) > 0 || p.broadcasts > 0 || p.issued > 0 ||
		p.decoded > 0 || p.fetched > 0
}

// Step advances the engine by one clock cycle.
//
// Stages run in reverse pipeline order so that a value produced by a stage
// is only seen by earlier stages in the next cycle:
//
//	commit -> writeback -> execute -> issue -> decode -> fetch
//
// Committing a mispredicted branch flushes all younger state and ends the
// cycle. Once the program has ended, Step returns Ended without advancing
// the cycle count.
func (e *Engine) Step() Status {
	if e.status == Ended {
		return Ended
	}
	if e.drained() {
		e.status = Ended
		return Ended
	}

	e.cycle++
	e.stats.Cycles++

	var p progress
	var flushed bool
	p.committed, flushed = e.commit()
	if !flushed {
		p.broadcasts = e.writeback()
		e.execute()
		p.issued = e.issue()
		p.decoded = e.decode()
		p.fetched = e.fetch()
	}

	switch {
	case e.drained():
		e.status = Ended
	case p.any():
		e.status = Running
	default:
		e.status = Stalled
		e.stats.Stalls++
	}

	e.log.WithFields(logrus.Fields{
		"cycle":     e.cycle,
		"status":    e.status.String(),
		"committed": len(p.committed),
		"issued":    p.issued,
		"decoded":   p.decoded,
		"fetched":   p.fetched,
	}).Debug("cycle")

	if e.observer != nil {
		e.observer.OnCycle(CycleEvent{
			Cycle:     e.cycle,
			Status:    e.status,
			Committed: p.committed,
		})
	}

	return e.status
}

// drained returns true when nothing is left to fetch or in flight.
func (e *Engine) drained() bool {
	if !e.rob.empty() || !e.prefetch.empty() || e.pc < e.prog.Len() {
		return false
	}
	for u := range e.stations {
		if !e.stations[u].empty() || e.units[u].busy {
			return false
		}
	}
	return true
}

func (e *Engine) commit() ([]ROBEntry, bool) {
	var committed []ROBEntry

	for n := 0; n < e.config.CommitWidth && !e.rob.empty(); n++ {
		if e.rob.peek().State != StateCompleted {
			break
		}

		entry := e.rob.pop()
		if entry.Seq != e.stats.Committed {
			panic("pipeline: commit out of program order")
		}

		switch entry.DestKind {
		case DestRegister:
			e.regs.WriteBits(entry.Dest, entry.Value)
			e.rename.release(entry.Dest, entry.Tag)
		case DestMemory:
			e.memory.Write(entry.Addr, entry.Value)
		}

		entry.State = StateCommitted
		committed = append(committed, entry)
		e.stats.Committed++

		if entry.Mispredicted {
			e.flush(entry)
			return committed, true
		}
	}

	return committed, false
}

// flush discards everything younger than the mispredicted branch and
// redirects fetch to its actual successor.
func (e *Engine) flush(branch ROBEntry) {
	tags := e.rob.discardYounger(branch.Seq)
	discarded := make(map[int]bool, len(tags))
	for _, t := range tags {
		discarded[t] = true
	}

	for u := range e.stations {
		e.stations[u].drop(discarded)
		if fu := e.units[u]; fu.busy && discarded[fu.occupant.Dest] {
			fu.release()
		}
	}
	e.rename.drop(discarded)
	e.prefetch.clear()

	e.pc = branch.ActualNext
	e.nextSeq = branch.Seq + 1
	e.stats.Flushes++
	e.stats.Squashed += uint64(len(tags))

	e.log.WithFields(logrus.Fields{
		"cycle":    e.cycle,
		"branch":   branch.InstID,
		"target":   branch.ActualNext,
		"squashed": len(tags),
	}).Info("flush")
}

func (e *Engine) writeback() int {
	n := 0
	for _, fu := range e.units {
		if !fu.done() {
			continue
		}

		occ := fu.occupant
		entry := e.rob.get(occ.Dest)

		switch {
		case occ.Op.IsStore():
			entry.Addr = fu.result.addr
			entry.Value = fu.result.value
		case occ.Op.IsBranch():
			e.resolve(entry, fu.result.taken)
		default:
			entry.Value = fu.result.value
			for _, s := range e.stations {
				s.broadcast(occ.Dest, entry.Value)
			}
		}

		entry.State = StateCompleted
		fu.release()
		n++
	}
	return n
}

// resolve records a branch outcome and trains the predictor.
func (e *Engine) resolve(entry *ROBEntry, taken bool) {
	inst := &e.prog.Instructions[entry.InstID]

	entry.ActualNext = entry.InstID + 1
	if taken {
		entry.ActualNext = e.prog.BlockStart(inst.Target())
	}
	entry.Mispredicted = entry.ActualNext != entry.PredictedNext

	e.predictor.Update(entry.InstID, taken, inst.Target(), !entry.Mispredicted)
}

func (e *Engine) execute() {
	for _, fu := range e.units {
		fu.tick()
	}
}

func (e *Engine) issue() int {
	n := 0
	for u, fu := range e.units {
		if fu.busy {
			continue
		}

		st := e.stations[u]
		i := st.oldestReady(e.canIssue)
		if i < 0 {
			continue
		}

		se := st.remove(i)
		lat, result := e.compute(se)
		fu.start(se, lat, result)
		e.rob.get(se.Dest).State = StateExecuting
		n++

		e.log.WithFields(logrus.Fields{
			"cycle": e.cycle,
			"tag":   se.Dest,
			"inst":  se.InstID,
			"op":    se.Op.String(),
			"unit":  fu.unit.String(),
		}).Debug("issue")
	}
	return n
}

// canIssue holds loads back until every older store has its address and
// data.
func (e *Engine) canIssue(se StationEntry) bool {
	if !se.Op.IsLoad() {
		return true
	}
	ok := true
	e.rob.each(func(r *ROBEntry) bool {
		if r.Seq >= se.Seq {
			return false
		}
		if r.Op.IsStore() && r.State != StateCompleted {
			ok = false
			return false
		}
		return true
	})
	return ok
}

// compute produces an instruction's result as it enters its functional
// unit, along with the number of cycles it occupies the unit.
func (e *Engine) compute(se StationEntry) (uint64, execution) {
	lat := e.latencies.UnitLatency(se.Unit)

	switch {
	case se.Op.IsLoad():
		addr := emu.EffectiveAddress(se.Vj, se.Imm)
		if v, ok := e.forward(se.Seq, addr); ok {
			e.stats.Forwards++
			return lat, execution{value: v, addr: addr}
		}
		if e.dcache != nil {
			lat = e.dcache.Read(addr).Latency
		}
		return lat, execution{value: e.memory.Read(addr), addr: addr}

	case se.Op.IsStore():
		addr := emu.EffectiveAddress(se.Vj, se.Imm)
		if e.dcache != nil {
			lat = e.dcache.Write(addr).Latency
		}
		return lat, execution{value: se.Vk, addr: addr}

	case se.Op.IsBranch():
		return lat, execution{taken: emu.EvalBranch(se.Op, se.Vj, se.Vk)}

	default:
		return lat, execution{value: emu.Execute(se.Op, se.Vj, se.Vk, se.Imm)}
	}
}

// forward returns the data of the youngest store older than seq that
// writes addr.
func (e *Engine) forward(seq uint64, addr uint64) (uint64, bool) {
	var value uint64
	found := false
	e.rob.each(func(r *ROBEntry) bool {
		if r.Seq >= seq {
			return false
		}
		if r.DestKind == DestMemory && r.State == StateCompleted && r.Addr == addr {
			value = r.Value
			found = true
		}
		return true
	})
	return value, found
}

func (e *Engine) decode() int {
	n := 0
	for n < e.config.IssueWidth && !e.prefetch.empty() {
		f := e.prefetch.peek()
		inst := &e.prog.Instructions[f.InstID]
		unit := inst.Op.Unit()

		if e.rob.full() || e.stations[unit].full() {
			break
		}
		e.prefetch.pop()

		entry := ROBEntry{
			Seq:           e.nextSeq,
			InstID:        inst.ID,
			Op:            inst.Op,
			State:         StateIssued,
			PredictedNext: f.PredictedNext,
			ActualNext:    inst.ID + 1,
		}
		if dest, ok := inst.Dest(); ok {
			entry.DestKind = DestRegister
			entry.Dest = dest
		} else if inst.Op.IsStore() {
			entry.DestKind = DestMemory
		}

		se := StationEntry{
			InstID: inst.ID,
			Op:     inst.Op,
			Unit:   unit,
			Qj:     NoTag,
			Qk:     NoTag,
			Imm:    inst.Imm(),
			Seq:    e.nextSeq,
		}
		j, k, jok, kok := inst.Sources()
		if jok {
			se.Vj, se.Qj = e.readOperand(j)
		}
		if kok {
			se.Vk, se.Qk = e.readOperand(k)
		}

		tag := e.rob.alloc(entry)
		se.Dest = tag
		if entry.DestKind == DestRegister {
			e.rename.set(entry.Dest, tag)
		}
		e.stations[unit].add(se)

		e.nextSeq++
		n++
	}
	return n
}

// readOperand returns a source value, or the tag of the producer it must
// wait for.
func (e *Engine) readOperand(reg insts.Reg) (uint64, int) {
	tag := e.rename.Lookup(reg)
	if tag == NoTag {
		return e.regs.ReadBits(reg), NoTag
	}
	if p := e.rob.get(tag); p.State == StateCompleted {
		return p.Value, NoTag
	}
	return 0, tag
}

func (e *Engine) fetch() int {
	n := 0
	for n < e.config.IssueWidth && !e.prefetch.full() && e.pc >= 0 && e.pc < e.prog.Len() {
		inst := &e.prog.Instructions[e.pc]

		next := e.pc + 1
		if inst.Op.IsBranch() {
			next = e.predictNext(inst)
		}

		e.prefetch.push(FetchedInst{InstID: e.pc, PredictedNext: next})
		e.pc = next
		n++
	}
	return n
}

func (e *Engine) predictNext(inst *insts.Instruction) int {
	pred := e.predictor.Predict(inst)
	if pred.Taken && pred.TargetKnown {
		if start := e.prog.BlockStart(pred.Target); start >= 0 {
			return start
		}
	}
	return inst.ID + 1
}
