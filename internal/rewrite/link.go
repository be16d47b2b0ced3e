package rewrite

import (
	"path/filepath"
	"strings"

	"github.com/ganeshutah/FPChecker/internal/classify"
	"github.com/ganeshutah/FPChecker/internal/trace"
)

// rewriteFinalLink renames the program output and points object inputs at
// their instrumented names.
func rewriteFinalLink(cmd *classify.Command, opts Options, names *NameMap) (string, error) {
	outIdx := cmd.OutputIndex()
	if outIdx < 0 {
		return "", &classify.MalformedCommandError{Line: cmd.Raw, Reason: "link command without output"}
	}

	tokens := make([]string, len(cmd.Tokens))
	copy(tokens, cmd.Tokens)

	program := tokens[outIdx]
	renamed := program + opts.ExecutableSuffix
	tokens[outIdx] = renamed
	names.Record(classify.BaseName(program), classify.BaseName(program)+opts.ExecutableSuffix)

	suffix := opts.Classify.ObjectSuffix
	for i, t := range tokens {
		if i == outIdx || !strings.HasSuffix(t, suffix) {
			continue
		}
		mapped, ok := names.Lookup(classify.BaseName(t))
		if !ok {
			continue
		}
		dir := t[:len(t)-len(filepath.Base(t))]
		tokens[i] = dir + mapped + suffix
	}

	return trace.NewSpelling(cmd.Raw).Join(tokens), nil
}
