package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	debugFlag      bool
	searchPathFlag string
	outputFlag     string
)

var rootCmd = &cobra.Command{
	Use:           "pasc",
	SilenceUsage:  true,
	SilenceErrors: true,
	Short:         "A compiler and runtime for an ISO 7185 Pascal core",
	Long: `pasc lexes, parses, type-checks, and runs programs written in an
ISO 7185:1990 Level 0 Pascal core extended with a built-in string type and a
Turbo-Pascal-style unit system.

Programs run either through a tree-walking interpreter (the default) or a
bytecode compiler and stack VM (--vm). Programs and units can also be
compiled ahead of time to .pbc/.pbu bytecode files and disassembled.`,
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false, "print verbose diagnostics to stderr")
	rootCmd.PersistentFlags().StringVar(&searchPathFlag, "search-path", "", "directory to search for used units, after the current directory")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", "", "output file path")
}

func debugf(format string, args ...any) {
	if debugFlag {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
