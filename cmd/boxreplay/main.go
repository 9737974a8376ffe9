// Command boxreplay replays editing scripts against the box editor and
// probes its hit-testing from the command line.
//
// Usage:
//
//	boxreplay run session.yaml [--json]
//	boxreplay hit --box 10,10,60,60 --at 12,11 [--zoom 2] [--threshold 5]
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "boxreplay",
	Short:         "Replay bounding-box editing sessions",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(runCmd, hitCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "boxreplay:", err)
		os.Exit(1)
	}
}
