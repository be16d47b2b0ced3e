// Package cmd implements the fpchecker command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// ExitError is an error that carries a specific exit code.
// cobra.RunE returns this so the caller can set the process exit code.
type ExitError struct {
	Message string
	Code    int
}

func (e *ExitError) Error() string {
	return e.Message
}

var rootCmd = &cobra.Command{
	Use:   "fpchecker [flags] -- <build command...>",
	Short: "Instrument a CUDA build for floating-point checking",
	Long: `fpchecker records the commands of a build, rewrites every device compilation
to load the FPChecker instrumentation, and replays the rewritten build.

Without --record, --replay or --inst-replay (or with all three) the build is
recorded and then instrumented and replayed.

Settings are read from ./fpchecker_conf.json:
  "--skip_files":      sources to leave uninstrumented (matched by suffix)
  "--restart_command": database entry to resume from`,
	Example: `  fpchecker -- make -j8
  fpchecker --no-abort --inst-replay`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

// Execute runs the root command
func Execute() error {
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		var exitErr *ExitError
		if !errors.As(err, &exitErr) || exitErr.Message != "" {
			fmt.Fprintf(os.Stderr, "fpchecker: error: %v\n", err)
		}
	}
	return err
}

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Code != 0 {
		return exitErr.Code
	}
	return 1
}

func init() {
	f := rootCmd.Flags()
	// Everything after the build program belongs to the build.
	f.SetInterspersed(false)
	f.Bool("record", false, "Record build traces only")
	f.Bool("replay", false, "Replay build traces (without instrumentation)")
	f.Bool("inst-replay", false, "Instrument and replay build traces")
	f.Bool("no-subnormal", false, "Disable checking for subnormal numbers (underflows)")
	f.Bool("no-warnings", false, "Disable warnings of small or large numbers (overflows and underflows)")
	f.Bool("no-abort", false, "Print reports without aborting")
	f.Bool("no-checking", false, "Do not perform any checking")
	f.String("mode", "", "Device-compile strategy: plugin or pass (overrides config)")
	f.Bool("no-store", false, "Do not record the replay in the state database")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ./"+configFileName+")")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}
