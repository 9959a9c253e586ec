// Package cmd provides the command-line interface of ppscal.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// NewRootCmd creates the ppscal command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ppscal",
		Short: "ppscal simulates the calibration loop of a PPS counter peripheral.",
		Long: `ppscal drives a simulated PPS counter peripheral over a byte-wide ` +
			`bus, reads its 1 s, 10 s and 100 s counters after every PPS ` +
			`interrupt and steps a tunable clock by a fixed amount each round.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newReportCmd())

	return rootCmd
}

// Execute runs the root command and exits with status 1 on error.
func Execute() {
	err := NewRootCmd().Execute()
	if err != nil {
		if !errors.Is(err, errRunFailed) {
			fmt.Fprintln(os.Stderr, err)
		}

		atexit.Exit(1)
	}

	atexit.Exit(0)
}
