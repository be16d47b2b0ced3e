package trace

import (
	"strings"

	"github.com/google/shlex"
)

// Tokenize splits a shell command line into words. Single and double quotes
// and backslash escapes are honoured, so paths containing spaces survive.
func Tokenize(line string) ([]string, error) {
	return shlex.Split(line)
}

// Quote returns tok in a form the POSIX shell reads back as the same word.
// Shell control operators are returned unchanged.
func Quote(tok string) string {
	if tok == "" {
		return "''"
	}
	if isOperator(tok) || isSafe(tok) {
		return tok
	}
	return "'" + strings.ReplaceAll(tok, "'", `'"'"'`) + "'"
}

// Join is the inverse of Tokenize.
func Join(tokens []string) string {
	return Spelling(nil).Join(tokens)
}

// Chain joins several commands so that each runs only if the previous one succeeded.
func Chain(cmds ...[]string) string {
	return Spelling(nil).Chain(cmds...)
}

func isOperator(tok string) bool {
	switch tok {
	case "&&", "||", ";", "|", ">", ">>", "<", "2>", "2>&1", "&>":
		return true
	}
	return false
}

func isSafe(tok string) bool {
	for _, r := range tok {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("_@%+=:,./-", r):
		default:
			return false
		}
	}
	return true
}
