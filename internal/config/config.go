package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the per-project configuration file read from the working directory.
const FileName = "fpchecker_conf.json"

// Config represents the fpchecker configuration. The file is JSON; it is
// decoded as YAML, of which JSON is a subset.
type Config struct {
	SkipFiles      []string `yaml:"--skip_files"`      // device sources left uninstrumented
	RestartCommand int      `yaml:"--restart_command"` // 1-based first database entry to replay

	Mode              string `yaml:"mode"`                // plugin or pass
	InstallPath       string `yaml:"install_path"`        // FPChecker installation prefix
	PluginLib         string `yaml:"plugin_lib"`          // clang plugin (default <install>/lib64/libfpchecker_plugin.so)
	RuntimeHeader     string `yaml:"runtime_header"`      // plugin runtime (default <install>/src/Runtime_plugin.h)
	PassLib           string `yaml:"pass_lib"`            // LLVM pass (default <install>/lib64/libfpchecker.so)
	PassRuntimeHeader string `yaml:"pass_runtime_header"` // pass runtime (default <install>/src/Runtime.h)
	TracesDir         string `yaml:"traces_dir"`          // directory holding executable_traces.txt
	StateDB           string `yaml:"state_db"`            // replay history database (empty = XDG data dir)
	LogLevel          string `yaml:"log_level"`           // debug, info, warn, error
	LogFormat         string `yaml:"log_format"`          // text or json

	// Path is the file the config was loaded from, empty when defaults are used.
	Path string `yaml:"-"`

	envErr error
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		RestartCommand: 1,
		Mode:           "plugin",
		TracesDir:      filepath.Join(".fpchecker", "traces"),
		LogLevel:       "warn",
		LogFormat:      "text",
	}
}

// Load loads the configuration from the current directory.
func Load() (*Config, error) {
	return LoadFromFile(FileName)
}

// LoadFromFile loads configuration from the specified file.
// If the file doesn't exist, returns default configuration.
// Environment variable overrides are applied after file loading.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		cfg.Path = path
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.envErr != nil {
		return c.envErr
	}
	if c.RestartCommand < 1 {
		return fmt.Errorf("--restart_command must be >= 1 (got: %d)", c.RestartCommand)
	}

	if !isValidMode(c.Mode) {
		return fmt.Errorf("mode must be plugin or pass (got: %s)", c.Mode)
	}

	if !isValidLogLevel(c.LogLevel) {
		return fmt.Errorf("log_level must be debug, info, warn, or error (got: %s)", c.LogLevel)
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("log_format must be text or json (got: %s)", c.LogFormat)
	}

	if c.TracesDir == "" {
		return errors.New("traces_dir must not be empty")
	}

	for _, s := range c.SkipFiles {
		if strings.TrimSpace(s) == "" {
			return errors.New("--skip_files entries must not be empty")
		}
	}

	return nil
}

func isValidMode(mode string) bool {
	switch mode {
	case "plugin", "pass":
		return true
	default:
		return false
	}
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// ApplyEnvOverrides applies environment variable overrides to the config. A
// malformed value is reported by the next Validate.
func (c *Config) ApplyEnvOverrides() {
	c.envErr = nil
	if v := os.Getenv("FPCHECKER_PATH"); v != "" {
		c.InstallPath = v
	}
	if v := os.Getenv("FPCHECKER_PLUGIN"); v != "" {
		c.PluginLib = v
	}
	if v := os.Getenv("FPCHECKER_RUNTIME"); v != "" {
		c.RuntimeHeader = v
	}
	if v := os.Getenv("FPCHECKER_TRACES_DIR"); v != "" {
		c.TracesDir = v
	}
	if v := os.Getenv("FPCHECKER_LOG_LEVEL"); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("FPCHECKER_DEBUG"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			c.envErr = fmt.Errorf("FPCHECKER_DEBUG must be a boolean (got: %s)", v)
			return
		}
		if b {
			c.LogLevel = "debug"
		}
	}
}

// PluginLibPath returns the clang plugin library.
func (c *Config) PluginLibPath() string {
	return c.orInstall(c.PluginLib, "lib64", "libfpchecker_plugin.so")
}

// RuntimeHeaderPath returns the runtime header of the plugin mode.
func (c *Config) RuntimeHeaderPath() string {
	return c.orInstall(c.RuntimeHeader, "src", "Runtime_plugin.h")
}

// PassLibPath returns the LLVM pass library.
func (c *Config) PassLibPath() string {
	return c.orInstall(c.PassLib, "lib64", "libfpchecker.so")
}

// PassRuntimeHeaderPath returns the runtime header of the pass mode.
func (c *Config) PassRuntimeHeaderPath() string {
	return c.orInstall(c.PassRuntimeHeader, "src", "Runtime.h")
}

// StateDBPath returns the replay history database.
func (c *Config) StateDBPath() string {
	if c.StateDB != "" {
		return c.StateDB
	}
	return DefaultPaths().DatabaseFile()
}

func (c *Config) orInstall(explicit string, elem ...string) string {
	if explicit != "" {
		return explicit
	}
	return filepath.Join(append([]string{c.InstallPath}, elem...)...)
}
