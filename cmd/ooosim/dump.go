package main

import (
	"io"

	"github.com/k0kubun/pp/v3"

	"github.com/sarchlab/ooosim/timing/pipeline"
)

// dumpSnapshot pretty-prints the complete engine state.
func dumpSnapshot(w io.Writer, s pipeline.Snapshot, colored bool) {
	printer := pp.New()
	printer.SetOutput(w)
	printer.SetColoringEnabled(colored)
	printer.SetExportedOnly(true)
	_, _ = printer.Println(s)
}
