// Package rewrite turns a classified build trace into the database of
// instrumented and fallback commands that the replay engine executes.
package rewrite

import (
	"strings"

	"github.com/ganeshutah/FPChecker/internal/classify"
)

// Macros forwarded to fallback compilations by the feature toggles.
const (
	MacroDisableSubnormal = "-DFPC_DISABLE_SUBNORMAL"
	MacroDisableWarnings  = "-DFPC_DISABLE_WARNINGS"
	MacroErrorsDontAbort  = "-DFPC_ERRORS_DONT_ABORT"
	MacroDisableChecking  = "-DFPC_DISABLE_CHECKING"
)

// Options configure the rewriter. Build one with DefaultOptions, adjust it,
// and hand it to NewSession; the session never modifies it.
type Options struct {
	Classify         classify.Options
	ExecutableSuffix string   // appended to final program names
	SourceExtensions []string // files that can hold device code
	RequiredOptions  []string // inserted after the host compiler
	RuntimeHeader    string   // included by fallback compilations
	Macros           []string // feature-toggle definitions for fallback compilations
	SkipSuffixes     []string // device sources left uninstrumented
}

// DefaultOptions returns the options used for nvcc builds.
func DefaultOptions() Options {
	return Options{
		Classify:         classify.DefaultOptions(),
		ExecutableSuffix: "_fpc",
		SourceExtensions: []string{".cu", ".cuda", ".C", ".cc", ".cpp", ".CPP", ".c++", ".cp", ".cxx"},
		RequiredOptions:  []string{"-Qunused-arguments", "-g"},
	}
}

// Features selects the runtime behaviour toggles.
type Features struct {
	DisableSubnormal bool
	DisableWarnings  bool
	NoAbort          bool
	DisableChecking  bool
}

// Macros returns the definitions for the enabled toggles.
func (f Features) Macros() []string {
	var m []string
	if f.DisableSubnormal {
		m = append(m, MacroDisableSubnormal)
	}
	if f.DisableWarnings {
		m = append(m, MacroDisableWarnings)
	}
	if f.NoAbort {
		m = append(m, MacroErrorsDontAbort)
	}
	if f.DisableChecking {
		m = append(m, MacroDisableChecking)
	}
	return m
}

// sourceFile returns the last token naming a device source file.
func (o Options) sourceFile(tokens []string) (idx int, name string) {
	idx = -1
	for i, t := range tokens {
		if strings.HasPrefix(t, "-") {
			continue
		}
		for _, ext := range o.SourceExtensions {
			if strings.HasSuffix(t, ext) {
				idx, name = i, t
				break
			}
		}
	}
	return idx, name
}

// skipped reports whether source matches a skip suffix.
func (o Options) skipped(source string) bool {
	for _, s := range o.SkipSuffixes {
		if s != "" && strings.HasSuffix(source, s) {
			return true
		}
	}
	return false
}
