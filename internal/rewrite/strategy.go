package rewrite

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ganeshutah/FPChecker/internal/classify"
)

// Mode names a device-compile rewriting strategy.
type Mode string

const (
	// ModeHostPlugin instruments a copy of the source with a host-compiler
	// plugin and recompiles the real device binary separately.
	ModeHostPlugin Mode = "plugin"
	// ModeNativePass compiles with a native instrumentation pass in place.
	ModeNativePass Mode = "pass"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeHostPlugin, ModeNativePass:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown mode %q (want %q or %q)", s, ModeHostPlugin, ModeNativePass)
}

// Instrumented is what a strategy makes of a translated device compile.
type Instrumented struct {
	Tokens  []string // host compiler command
	Prelude []string // command that must succeed before Tokens, may be empty
	Copy    string   // source file the fallback compiles instead of the original, may be empty
}

// Strategy rewrites translated device-compile commands.
type Strategy interface {
	Mode() Mode
	// Options are inserted after the host compiler together with the required options.
	Options() []string
	// Instrument rewrites the host command. sourceIdx locates source in host.
	Instrument(host []string, sourceIdx int, source string, names *NameMap) (Instrumented, error)
	// RunsFallback reports whether replay must execute the secondary command.
	RunsFallback() bool
}

// NewStrategy returns the strategy for mode.
func NewStrategy(mode Mode, pluginLib, passLib, passRuntime, runtimeHeader string) (Strategy, error) {
	switch mode {
	case ModeHostPlugin:
		return &HostPlugin{PluginLib: pluginLib, RuntimeHeader: runtimeHeader, Marker: "_copy"}, nil
	case ModeNativePass:
		return &NativePass{PassLib: passLib, RuntimeHeader: passRuntime}, nil
	}
	return nil, fmt.Errorf("unknown mode %q", mode)
}

// HostPlugin compiles a copy of the source with the instrumentation plugin
// loaded into the host compiler. The copy keeps the pristine source available
// for the fallback recompilation.
type HostPlugin struct {
	PluginLib     string
	RuntimeHeader string
	Marker        string // inserted before the source extension
}

func (h *HostPlugin) Mode() Mode { return ModeHostPlugin }

func (h *HostPlugin) RunsFallback() bool { return true }

func (h *HostPlugin) Options() []string {
	return []string{
		"-Xclang", "-load", "-Xclang", h.PluginLib,
		"-Xclang", "-plugin", "-Xclang", "instrumentation_plugin",
		"-include", h.RuntimeHeader,
		"-emit-llvm",
	}
}

func (h *HostPlugin) Instrument(host []string, sourceIdx int, source string, names *NameMap) (Instrumented, error) {
	if sourceIdx < 0 || sourceIdx >= len(host) || host[sourceIdx] != source {
		return Instrumented{}, fmt.Errorf("source %q not found in host command", source)
	}
	marker := h.Marker
	if marker == "" {
		marker = "_copy"
	}
	copyName := CopyName(source, marker)

	tokens := make([]string, 0, len(host))
	output := ""
	for i := 0; i < len(host); i++ {
		switch {
		case i == sourceIdx:
			tokens = append(tokens, copyName)
		case host[i] == "-o" && output == "" && i+1 < len(host):
			output = host[i+1]
			i++
		default:
			tokens = append(tokens, host[i])
		}
	}

	key := classify.BaseName(source)
	if output != "" {
		key = classify.BaseName(output)
	}
	names.Record(key, classify.BaseName(copyName))

	return Instrumented{
		Tokens:  tokens,
		Prelude: []string{"cp", "-f", source, copyName},
		Copy:    copyName,
	}, nil
}

// NativePass loads the instrumentation pass into the compiler and compiles
// the original source in place. No fallback is run.
type NativePass struct {
	PassLib       string
	RuntimeHeader string
}

func (n *NativePass) Mode() Mode { return ModeNativePass }

func (n *NativePass) RunsFallback() bool { return false }

func (n *NativePass) Options() []string {
	return []string{"-Xclang", "-load", "-Xclang", n.PassLib, "-include", n.RuntimeHeader}
}

func (n *NativePass) Instrument(host []string, _ int, _ string, _ *NameMap) (Instrumented, error) {
	tokens := make([]string, len(host))
	copy(tokens, host)
	return Instrumented{Tokens: tokens}, nil
}

// CopyName inserts marker before the extension of path: dir/k.cu -> dir/k_copy.cu.
func CopyName(path, marker string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + marker + ext
}
