package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/ooosim/loader"
)

var blocksCmd = &cobra.Command{
	Use:   "blocks <file>",
	Short: "Print the basic blocks and control-flow edges of a program",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prog, err := loader.LoadFile(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		p := newPalette(useColor(cmd, os.Stdout))
		_, _ = fmt.Fprintf(out, "%d instructions, %d blocks\n", prog.Len(), prog.NumBlocks())
		printBlocks(out, p, prog)
		return nil
	},
}
