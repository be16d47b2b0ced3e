package rewrite

import (
	"fmt"

	"github.com/ganeshutah/FPChecker/internal/classify"
	"github.com/ganeshutah/FPChecker/internal/trace"
	"github.com/ganeshutah/FPChecker/internal/translate"
)

// rewriteDeviceCompile builds the instrumented primary and the fallback
// secondary for a device compile of source (found at sourceIdx of cmd.Tokens).
func (s *Session) rewriteDeviceCompile(cmd *classify.Command, sourceIdx int, source string) (Pair, error) {
	host, err := s.translator.Translate(cmd.Tokens)
	if err != nil {
		return Pair{}, fmt.Errorf("translate %q: %w", cmd.Raw, err)
	}

	compilerIdx := -1
	for i, t := range host {
		if translate.IsCompiler(s.translator, t) {
			compilerIdx = i
			break
		}
	}
	if compilerIdx < 0 {
		return Pair{}, fmt.Errorf("translated command has no %s: %q", s.translator.Compiler(), trace.Join(host))
	}

	inserted := append(append([]string{}, s.opts.RequiredOptions...), s.strategy.Options()...)
	host = insertAfter(host, compilerIdx, inserted)

	sp := trace.NewSpelling(cmd.Raw)
	hostSourceIdx := lastIndex(host, source)
	inst, err := s.strategy.Instrument(host, hostSourceIdx, source, s.names)
	if err != nil {
		return Pair{}, fmt.Errorf("instrument %q: %w", cmd.Raw, err)
	}

	// Anything before the compiler (cd dir &&, env assignments) stays in front of the copy.
	prefixLen := compilerIdx
	if prefixLen > len(inst.Tokens) {
		prefixLen = len(inst.Tokens)
	}
	primary := sp.Chain(inst.Prelude, inst.Tokens[prefixLen:])
	if prefixLen > 0 {
		primary = sp.Join(inst.Tokens[:prefixLen]) + " " + primary
	}

	pair := Pair{Category: classify.DeviceCompile, Primary: primary, Source: source}
	// Without a fallback run there is no secondary to store.
	if s.strategy.RunsFallback() {
		pair.Secondary = s.fallback(cmd, sourceIdx, inst.Copy, sp)
	}
	return pair, nil
}

// fallback recompiles with the device compiler, the runtime header and the
// feature macros, using the same source substitution as the primary.
func (s *Session) fallback(cmd *classify.Command, sourceIdx int, copyName string, sp trace.Spelling) string {
	tokens := make([]string, len(cmd.Tokens))
	copy(tokens, cmd.Tokens)
	if copyName != "" && sourceIdx >= 0 {
		tokens[sourceIdx] = copyName
	}

	deviceIdx := -1
	for i, t := range tokens {
		if classify.IsTool(t, s.opts.Classify.DeviceCompiler) {
			deviceIdx = i
			break
		}
	}
	if deviceIdx < 0 {
		return ""
	}

	var extra []string
	if s.opts.RuntimeHeader != "" {
		extra = append(extra, "-include", s.opts.RuntimeHeader)
	}
	extra = append(extra, s.opts.Macros...)
	return sp.Join(insertAfter(tokens, deviceIdx, extra))
}

func insertAfter(tokens []string, idx int, extra []string) []string {
	out := make([]string, 0, len(tokens)+len(extra))
	out = append(out, tokens[:idx+1]...)
	out = append(out, extra...)
	return append(out, tokens[idx+1:]...)
}

func lastIndex(tokens []string, tok string) int {
	for i := len(tokens) - 1; i >= 0; i-- {
		if tokens[i] == tok {
			return i
		}
	}
	return -1
}
