package main

import (
	"fmt"
	"io"
	"math"

	"github.com/fatih/color"

	"github.com/sarchlab/ooosim/emu"
	"github.com/sarchlab/ooosim/loader"
	"github.com/sarchlab/ooosim/timing/pipeline"
)

type palette struct {
	head *color.Color
	ok   *color.Color
	warn *color.Color
	bad  *color.Color
	dim  *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		head: color.New(color.FgCyan, color.Bold),
		ok:   color.New(color.FgGreen, color.Bold),
		warn: color.New(color.FgYellow, color.Bold),
		bad:  color.New(color.FgRed, color.Bold),
		dim:  color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.head, p.ok, p.warn, p.bad, p.dim} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) status(s pipeline.Status) string {
	switch s {
	case pipeline.Ended:
		return p.ok.Sprint(s)
	case pipeline.Stalled:
		return p.warn.Sprint(s)
	default:
		return p.bad.Sprint(s)
	}
}

// printReport writes the outcome of one run.
func printReport(w io.Writer, p palette, r runResult) {
	_, _ = fmt.Fprintf(w, "%s %s\n", p.head.Sprint("==>"), r.path)
	if r.err != nil && r.engine == nil {
		_, _ = fmt.Fprintf(w, "  %s %v\n", p.bad.Sprint("error:"), r.err)
		return
	}

	e := r.engine
	stats := e.Stats()
	bp := e.PredictorStats()

	_, _ = fmt.Fprintf(w, "  Status:           %s\n", p.status(e.Status()))
	if r.err != nil {
		_, _ = fmt.Fprintf(w, "  %s %v\n", p.bad.Sprint("error:"), r.err)
	}
	_, _ = fmt.Fprintf(w, "  Cycles:           %d\n", stats.Cycles)
	_, _ = fmt.Fprintf(w, "  Committed:        %d\n", stats.Committed)
	_, _ = fmt.Fprintf(w, "  CPI:              %.3f\n", stats.CPI())
	_, _ = fmt.Fprintf(w, "  IPC:              %.3f\n", stats.IPC())
	_, _ = fmt.Fprintf(w, "  Stall cycles:     %d\n", stats.Stalls)
	_, _ = fmt.Fprintf(w, "  Flushes:          %d (%d squashed)\n", stats.Flushes, stats.Squashed)
	_, _ = fmt.Fprintf(w, "  Store forwards:   %d\n", stats.Forwards)
	if bp.Predictions > 0 {
		_, _ = fmt.Fprintf(w, "  Branch accuracy:  %.1f%% of %d resolved\n",
			bp.Accuracy(), bp.Correct+bp.Mispredictions)
	}
	if dc, ok := e.DCacheStats(); ok {
		_, _ = fmt.Fprintf(w, "  D-cache hit rate: %.1f%% (%d hits, %d misses)\n", dc.HitRate(), dc.Hits, dc.Misses)
	}

	printRegisters(w, p, e.Registers())
	printMemory(w, p, e.Memory())
}

func printRegisters(w io.Writer, p palette, regs emu.RegFile) {
	_, _ = fmt.Fprintln(w, p.head.Sprint("  Registers:"))
	printed := false
	for i, v := range regs.X {
		if v != 0 {
			_, _ = fmt.Fprintf(w, "    r%-2d = %d\n", i, int64(v))
			printed = true
		}
	}
	for i, v := range regs.F {
		if v != 0 || math.Signbit(v) {
			_, _ = fmt.Fprintf(w, "    f%-2d = %g\n", i, v)
			printed = true
		}
	}
	if !printed {
		_, _ = fmt.Fprintln(w, p.dim.Sprint("    (all zero)"))
	}
}

func printMemory(w io.Writer, p palette, cells []emu.Cell) {
	if len(cells) == 0 {
		return
	}
	_, _ = fmt.Fprintln(w, p.head.Sprint("  Memory:"))
	for _, c := range cells {
		_, _ = fmt.Fprintf(w, "    [%d] = %d\n", c.Addr, int64(c.Value))
	}
}

// printBlocks writes the control-flow graph of a program.
func printBlocks(w io.Writer, p palette, prog *loader.Program) {
	for _, b := range prog.Blocks {
		start, _ := b.Start.Line()
		end := prog.Len()
		if b.Next >= 0 {
			end = prog.BlockStart(b.Next)
		}

		succ := "none"
		if len(b.Successors) > 0 {
			succ = ""
			for i, s := range b.Successors {
				if i > 0 {
					succ += ", "
				}
				succ += fmt.Sprintf("B%d", s)
			}
		}

		_, _ = fmt.Fprintf(w, "%s  -> %s\n", p.head.Sprintf("B%d", b.ID), succ)
		for i := start; i < end && i < prog.Len(); i++ {
			inst := &prog.Instructions[i]
			_, _ = fmt.Fprintf(w, "  %s %s  %s\n",
				p.dim.Sprintf("%3d", i), inst.String(), p.dim.Sprint(inst.Op.Unit()))
		}
	}
	if len(prog.Labels) > 0 {
		_, _ = fmt.Fprintln(w, p.head.Sprint("Labels:"))
		for _, l := range prog.Labels {
			_, _ = fmt.Fprintf(w, "  %s -> B%d\n", l.Name, l.Block)
		}
	}
}
