package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ganeshutah/FPChecker/internal/replay"
	"github.com/ganeshutah/FPChecker/internal/trace"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("replay tests use /bin/sh")
	}
}

func resetFlags() {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	rootCmd.Flags().VisitAll(reset)
	rootCmd.PersistentFlags().VisitAll(reset)
	statusCmd.Flags().VisitAll(reset)
}

func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// setupProject writes a trace and a config pointing at it under a temp dir.
func setupProject(t *testing.T, lines []string, extra string) (dir, cfgPath string) {
	t.Helper()
	dir = t.TempDir()
	traces := filepath.Join(dir, "traces")
	require.NoError(t, trace.WriteFile(trace.TraceFile(traces), lines))

	cfgPath = filepath.Join(dir, configFileName)
	body := fmt.Sprintf(`{"traces_dir": %q, "state_db": %q%s}`, traces, filepath.Join(dir, "state.db"), extra)
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o644))
	return dir, cfgPath
}

func TestResolvePhases(t *testing.T) {
	tests := []struct {
		name                       string
		record, replay, instReplay bool
		want                       phases
	}{
		{"none", false, false, false, phases{record: true, instReplay: true}},
		{"all", true, true, true, phases{record: true, instReplay: true}},
		{"record only", true, false, false, phases{record: true}},
		{"replay only", false, true, false, phases{replay: true}},
		{"inst-replay only", false, false, true, phases{instReplay: true}},
		{"record and replay", true, true, false, phases{record: true, replay: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolvePhases(tt.record, tt.replay, tt.instReplay))
		})
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(errors.New("boom")))
	assert.Equal(t, 3, ExitCode(fmt.Errorf("wrapped: %w", &ExitError{Code: 3})))
	assert.Equal(t, 1, ExitCode(&ExitError{}))
}

func TestReplayError(t *testing.T) {
	assert.NoError(t, replayError(nil))

	err := replayError(&replay.CommandError{Index: 2, Phase: replay.PhasePrimary, ExitCode: 1})
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
	assert.Empty(t, exitErr.Message)

	plain := errors.New("other")
	assert.Equal(t, plain, replayError(plain))
}

func TestVersionCommand(t *testing.T) {
	out, err := executeRoot(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "fpchecker dev")
}

func TestRoot_InstReplayRunsTrace(t *testing.T) {
	skipOnWindows(t)
	dir, cfgPath := setupProject(t, nil, "")
	logFile := filepath.Join(dir, "log.txt")
	require.NoError(t, trace.WriteFile(trace.TraceFile(filepath.Join(dir, "traces")), []string{
		"echo one >> " + logFile,
		"echo two >> " + logFile,
	}))

	out, err := executeRoot(t, "--inst-replay", "--config", cfgPath)
	require.NoError(t, err)

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(data))
	assert.Contains(t, out, "Instrumenting 1/2")
	assert.Contains(t, out, "Instrumenting 2/2")
	assert.Contains(t, out, "Done")
}

func TestRoot_RestartFromConfig(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	logFile := filepath.Join(dir, "log.txt")
	var lines []string
	for i := 1; i <= 4; i++ {
		lines = append(lines, fmt.Sprintf("echo %d >> %s", i, logFile))
	}
	_, cfgPath := setupProject(t, lines, `, "--restart_command": 3`)

	_, err := executeRoot(t, "--inst-replay", "--config", cfgPath)
	require.NoError(t, err)

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Equal(t, "3\n4\n", string(data))
}

func TestRoot_FailureThenStatus(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	marker := filepath.Join(dir, "after")
	_, cfgPath := setupProject(t, []string{"true", "exit 7", "touch " + marker}, "")

	out, err := executeRoot(t, "--inst-replay", "--config", cfgPath)
	require.Error(t, err)
	assert.Equal(t, 1, ExitCode(err))
	assert.Contains(t, out, "Failed at command 2/3")
	assert.NoFileExists(t, marker)

	out, err = executeRoot(t, "status", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "failed at command 2")
	assert.Contains(t, out, "Exit:     7")
	assert.Contains(t, out, `"--restart_command": 2`)
}

func TestRoot_PassthroughReplay(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	logFile := filepath.Join(dir, "log.txt")
	_, cfgPath := setupProject(t, []string{"echo raw >> " + logFile}, "")

	out, err := executeRoot(t, "--replay", "--no-store", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "without instrumentation")
	assert.NotContains(t, out, "Instrumenting")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Equal(t, "raw\n", string(data))
}

func TestRoot_MissingTraceFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, configFileName)
	body := fmt.Sprintf(`{"traces_dir": %q}`, filepath.Join(dir, "none"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o644))

	_, err := executeRoot(t, "--inst-replay", "--no-store", "--config", cfgPath)
	require.Error(t, err)
	assert.ErrorIs(t, err, trace.ErrMissingTraceFile)
	assert.Equal(t, 1, ExitCode(err))
}

func TestRoot_RecordNeedsBuildCommand(t *testing.T) {
	_, cfgPath := setupProject(t, []string{"true"}, "")

	_, err := executeRoot(t, "--record", "--no-store", "--config", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no build command")
}

func TestRoot_BadMode(t *testing.T) {
	_, cfgPath := setupProject(t, []string{"true"}, "")

	_, err := executeRoot(t, "--inst-replay", "--no-store", "--mode", "jit", "--config", cfgPath)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unknown mode"), err.Error())
}

func TestStatus_NoDatabase(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, configFileName)
	body := fmt.Sprintf(`{"state_db": %q}`, filepath.Join(dir, "missing.db"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o644))

	out, err := executeRoot(t, "status", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No replay recorded")
}
