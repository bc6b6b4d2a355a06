package main

import (
	"fmt"
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/sarchlab/ooosim/timing/pipeline"
)

// TraceRecord is the per-cycle entry of a trace file.
type TraceRecord struct {
	Cycle  uint64 `msgpack:"cycle"`
	Status string `msgpack:"status"`
	// Committed holds the instruction ids retired this cycle, oldest first.
	Committed []int `msgpack:"committed"`
	PC        int   `msgpack:"pc"`
	ROB       int   `msgpack:"rob"`
	// Stations holds the occupancy of each reservation station.
	Stations map[string]int `msgpack:"stations"`
	// Busy lists the functional units executing at the end of the cycle.
	Busy []string `msgpack:"busy"`
}

// Trace is the content of a trace file.
type Trace struct {
	Program string          `msgpack:"program"`
	Config  pipeline.Config `msgpack:"config"`
	Records []TraceRecord   `msgpack:"records"`
}

// traceRecorder collects a TraceRecord per cycle. The engine is looked up
// lazily since it only exists once the core is initialized.
type traceRecorder struct {
	engine func() *pipeline.Engine
	trace  Trace
}

func (t *traceRecorder) OnCycle(ev pipeline.CycleEvent) {
	rec := TraceRecord{
		Cycle:     ev.Cycle,
		Status:    ev.Status.String(),
		Committed: make([]int, 0, len(ev.Committed)),
		Stations:  map[string]int{},
	}
	for _, c := range ev.Committed {
		rec.Committed = append(rec.Committed, c.InstID)
	}

	if e := t.engine(); e != nil {
		rec.PC = e.PC()
		rec.ROB = len(e.ROB())
		for _, s := range e.Stations() {
			rec.Stations[s.Unit.String()] = len(s.Entries)
		}
		for _, u := range e.Units() {
			if u.Busy {
				rec.Busy = append(rec.Busy, u.Unit.String())
			}
		}
	}

	t.trace.Records = append(t.trace.Records, rec)
}

func (t *traceRecorder) write(w io.Writer) error {
	if err := msgpack.NewEncoder(w).Encode(&t.trace); err != nil {
		return fmt.Errorf("failed to encode trace: %w", err)
	}
	return nil
}

func (t *traceRecorder) save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create trace: %w", err)
	}
	defer f.Close()
	return t.write(f)
}

// readTrace decodes a trace written by the run command.
func readTrace(r io.Reader) (*Trace, error) {
	var t Trace
	if err := msgpack.NewDecoder(r).Decode(&t); err != nil {
		return nil, fmt.Errorf("failed to decode trace: %w", err)
	}
	return &t, nil
}
