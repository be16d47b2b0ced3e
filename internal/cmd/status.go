package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ganeshutah/FPChecker/internal/replay"
	"github.com/ganeshutah/FPChecker/internal/storage"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the last replay",
	Long: `Show the most recent replay recorded in the state database: its trace,
how far it got, and the "--restart_command" value that resumes it.

Examples:
  fpchecker status`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := loadConfig(path)
	if err != nil {
		return err
	}
	display := replay.NewDisplay(cmd.OutOrStdout())
	out := cmd.OutOrStdout()

	dbPath := cfg.StateDBPath()
	if _, err := os.Stat(dbPath); err != nil {
		display.Info("No replay recorded (" + dbPath + " not created)")
		return nil
	}

	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.LastRun(cmd.Context())
	if errors.Is(err, storage.ErrRunNotFound) {
		display.Info("No replay recorded")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Run:      %s (%s)\n", run.RunID, run.Mode)
	fmt.Fprintf(out, "Trace:    %s\n", run.TracePath)
	if run.WorkDir != "" {
		fmt.Fprintf(out, "Dir:      %s\n", run.WorkDir)
	}
	fmt.Fprintf(out, "Commands: %d (started at %d)\n", run.Total, run.RestartIndex)

	switch run.Status {
	case replay.StatusPassed:
		display.Banner(fmt.Sprintf("Status:   passed (%.1fs)", float64(run.DurationMs)/1000))
	case replay.StatusFailed:
		display.Error(fmt.Sprintf("Status:   failed at command %d", run.FailedIndex))
		entries, err := store.RunEntries(cmd.Context(), run.RunID)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if e.Index == run.FailedIndex {
				fmt.Fprintf(out, "Command:  %s\n", e.Primary)
				if e.Secondary != "" {
					fmt.Fprintf(out, "Fallback: %s\n", e.Secondary)
				}
				fmt.Fprintf(out, "Exit:     %d\n", e.ExitCode)
			}
		}
		if run.Mode == modeInstReplay {
			display.Info(fmt.Sprintf("Resume with \"--restart_command\": %d in %s", run.ResumeIndex(), configFileName))
		}
	default:
		display.Info("Status:   " + run.Status)
	}
	return nil
}
