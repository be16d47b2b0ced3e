package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ganeshutah/FPChecker/internal/config"
	"github.com/ganeshutah/FPChecker/internal/logging"
	"github.com/ganeshutah/FPChecker/internal/replay"
	"github.com/ganeshutah/FPChecker/internal/rewrite"
	"github.com/ganeshutah/FPChecker/internal/trace"
	"github.com/ganeshutah/FPChecker/internal/translate"
)

const configFileName = config.FileName

// phases selects what a run does.
type phases struct {
	record     bool
	replay     bool
	instReplay bool
}

// resolvePhases applies the default behaviour: with none or all of the phase
// flags set, the build is recorded and then instrumented and replayed.
func resolvePhases(record, replay, instReplay bool) phases {
	none := !record && !replay && !instReplay
	all := record && replay && instReplay
	if none || all {
		return phases{record: true, instReplay: true}
	}
	return phases{record: record, replay: replay, instReplay: instReplay}
}

// runFlags holds the root command's flags.
type runFlags struct {
	phases     phases
	features   rewrite.Features
	mode       string
	noStore    bool
	configPath string
}

func readFlags(cmd *cobra.Command) runFlags {
	f := cmd.Flags()
	record, _ := f.GetBool("record")
	replayFlag, _ := f.GetBool("replay")
	instReplay, _ := f.GetBool("inst-replay")

	var fl runFlags
	fl.phases = resolvePhases(record, replayFlag, instReplay)
	fl.features.DisableSubnormal, _ = f.GetBool("no-subnormal")
	fl.features.DisableWarnings, _ = f.GetBool("no-warnings")
	fl.features.NoAbort, _ = f.GetBool("no-abort")
	fl.features.DisableChecking, _ = f.GetBool("no-checking")
	fl.mode, _ = f.GetString("mode")
	fl.noStore, _ = f.GetBool("no-store")
	fl.configPath, _ = cmd.Flags().GetString("config")
	return fl
}

// loadConfig reads the config file. An explicit --config must exist.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	return config.LoadFromFile(path)
}

func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	return logging.New(&logging.Config{
		Output: cmd.ErrOrStderr(),
		Level:  logging.ParseLevel(cfg.LogLevel),
		Format: cfg.LogFormat,
	})
}

func runRoot(cmd *cobra.Command, args []string) error {
	fl := readFlags(cmd)

	// The config file is loaded before flags are applied; its skip-list and
	// restart index are used as-is.
	cfg, err := loadConfig(fl.configPath)
	if err != nil {
		return err
	}
	if fl.mode != "" {
		cfg.Mode = fl.mode
	}
	logger := newLogger(cmd, cfg)

	display := replay.NewDisplay(cmd.OutOrStdout())
	display.Banner("FPChecker")
	if cfg.Path != "" {
		display.Info("Loading " + cfg.Path)
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	tracePath := trace.TraceFile(cfg.TracesDir)

	if fl.phases.record {
		if len(args) == 0 {
			return errors.New("no build command given")
		}
		display.Banner("Command: " + strings.Join(args, " "))
		display.Info("Tracing and saving compilation commands...")
		rec := &trace.StraceRecorder{
			Dir:    cfg.TracesDir,
			Tools:  trace.DefaultTools("nvcc"),
			Stdout: cmd.OutOrStdout(),
			Stderr: cmd.ErrOrStderr(),
			Logger: logger,
		}
		lines, err := rec.Record(ctx, args)
		if err != nil {
			return fmt.Errorf("record build: %w", err)
		}
		if err := trace.WriteFile(tracePath, lines); err != nil {
			return err
		}
		logger.Info("trace recorded", "path", tracePath, "commands", len(lines))
	}

	recorder := openRunRecorder(ctx, cfg, fl.noStore, logger)
	defer recorder.Close()

	if fl.phases.replay {
		display.Info("Attempting to re-compile (without instrumentation)...")
		if err := passthroughReplay(ctx, tracePath, display, recorder, logger); err != nil {
			return err
		}
	}

	if fl.phases.instReplay {
		display.Info("Attempting to instrument and re-compile...")
		if err := instrumentedReplay(ctx, cfg, fl.features, tracePath, display, recorder, logger); err != nil {
			return err
		}
	}
	return nil
}

func readTrace(tracePath string) ([]string, error) {
	if err := trace.CheckExists(tracePath); err != nil {
		return nil, err
	}
	return trace.ReadFile(tracePath)
}

func passthroughReplay(ctx context.Context, tracePath string, display *replay.Display, recorder *runRecorder, logger *slog.Logger) error {
	lines, err := readTrace(tracePath)
	if err != nil {
		return err
	}

	recorder.Start(modeReplay, tracePath, 1, len(lines))
	engine := replay.NewEngine(replay.Config{
		Observer: replay.Observers{display, recorder},
		Logger:   logger,
	})
	res, err := engine.RunTrace(ctx, lines)
	recorder.Finish(res)
	display.Summary(res)
	return replayError(err)
}

func instrumentedReplay(ctx context.Context, cfg *config.Config, features rewrite.Features, tracePath string, display *replay.Display, recorder *runRecorder, logger *slog.Logger) error {
	lines, err := readTrace(tracePath)
	if err != nil {
		return err
	}

	session, err := newSession(cfg, features, logger)
	if err != nil {
		return err
	}
	db, err := session.Build(lines)
	if err != nil {
		return err
	}
	logger.Info("command database built", "entries", db.Len(), "renamed", session.Names().Len())

	recorder.Start(modeInstReplay, tracePath, cfg.RestartCommand, db.Len())
	engine := replay.NewEngine(replay.Config{
		Restart:      cfg.RestartCommand,
		SkipSuffixes: cfg.SkipFiles,
		RunSecondary: session.Strategy().RunsFallback(),
		Observer:     replay.Observers{display, recorder},
		Logger:       logger,
	})
	res, err := engine.Run(ctx, db)
	recorder.Finish(res)
	display.Summary(res)
	return replayError(err)
}

// newSession builds the rewriter for cfg. The options are assembled once and
// not changed afterwards.
func newSession(cfg *config.Config, features rewrite.Features, logger *slog.Logger) (*rewrite.Session, error) {
	mode, err := rewrite.ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}
	strategy, err := rewrite.NewStrategy(mode, cfg.PluginLibPath(), cfg.PassLibPath(),
		cfg.PassRuntimeHeaderPath(), cfg.RuntimeHeaderPath())
	if err != nil {
		return nil, err
	}

	opts := rewrite.DefaultOptions()
	opts.RuntimeHeader = cfg.RuntimeHeaderPath()
	opts.Macros = features.Macros()
	opts.SkipSuffixes = cfg.SkipFiles
	return rewrite.NewSession(opts, strategy, translate.NewNVCC(), logger), nil
}

// replayError turns a failed command into a silent exit: the display has
// already reported it.
func replayError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, replay.ErrCommandFailed) {
		return &ExitError{Code: 1}
	}
	return err
}
