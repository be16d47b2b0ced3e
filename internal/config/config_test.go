package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"FPCHECKER_PATH", "FPCHECKER_PLUGIN", "FPCHECKER_RUNTIME", "FPCHECKER_TRACES_DIR", "FPCHECKER_DEBUG", "FPCHECKER_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 1, cfg.RestartCommand)
	assert.Empty(t, cfg.SkipFiles)
	assert.Equal(t, "plugin", cfg.Mode)
	assert.Equal(t, filepath.Join(".fpchecker", "traces"), cfg.TracesDir)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile_Missing(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFromFile_JSON(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `{
  "--skip_files": ["src/a.cu", "b.cpp"],
  "--restart_command": 3,
  "mode": "pass",
  "install_path": "/opt/fpchecker"
}`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"src/a.cu", "b.cpp"}, cfg.SkipFiles)
	assert.Equal(t, 3, cfg.RestartCommand)
	assert.Equal(t, "pass", cfg.Mode)
	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, filepath.Join("/opt/fpchecker", "lib64", "libfpchecker.so"), cfg.PassLibPath())
	assert.Equal(t, filepath.Join("/opt/fpchecker", "src", "Runtime.h"), cfg.PassRuntimeHeaderPath())
}

func TestLoadFromFile_Invalid(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name string
		body string
	}{
		{"syntax", `{"--restart_command": `},
		{"restart zero", `{"--restart_command": 0}`},
		{"bad mode", `{"mode": "jit"}`},
		{"empty skip entry", `{"--skip_files": [""]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadFromFile_MissingValidatesEnv(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.json")

	tests := []struct {
		name, key, value string
	}{
		{"bad debug", "FPCHECKER_DEBUG", "yes please"},
		{"bad log level", "FPCHECKER_LOG_LEVEL", "loud"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := LoadFromFile(missing)
			assert.ErrorContains(t, err, "got: "+tt.value)
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("FPCHECKER_PATH", "/opt/fpc")
	t.Setenv("FPCHECKER_RUNTIME", "/tmp/Runtime_plugin.h")
	t.Setenv("FPCHECKER_TRACES_DIR", "/tmp/traces")
	t.Setenv("FPCHECKER_DEBUG", "true")

	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, "/opt/fpc", cfg.InstallPath)
	assert.Equal(t, "/tmp/traces", cfg.TracesDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/tmp/Runtime_plugin.h", cfg.RuntimeHeaderPath())
	assert.Equal(t, filepath.Join("/opt/fpc", "lib64", "libfpchecker_plugin.so"), cfg.PluginLibPath())
}

func TestStateDBPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StateDB = "/tmp/x.db"
	assert.Equal(t, "/tmp/x.db", cfg.StateDBPath())

	cfg.StateDB = ""
	assert.Equal(t, DefaultPaths().DatabaseFile(), cfg.StateDBPath())
}
