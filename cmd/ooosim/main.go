// Command ooosim loads assembly programs and runs them on the out-of-order
// timing engine.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var rootCmd = &cobra.Command{
	Use:   "ooosim",
	Short: "Superscalar out-of-order CPU simulator",
	Long: `ooosim loads assembly programs, builds their control-flow graph and
executes them cycle by cycle on a reorder-buffer based out-of-order engine.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(blocksCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(benchCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log every cycle to stderr")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// useColor resolves the --color flag for output written to f.
func useColor(cmd *cobra.Command, f *os.File) bool {
	flag, _ := cmd.Root().PersistentFlags().GetString("color")
	switch flag {
	case "on":
		return true
	case "off":
		return false
	default:
		return isTerminal(f)
	}
}
