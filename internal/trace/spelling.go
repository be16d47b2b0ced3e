package trace

import (
	"strings"
)

// Spelling maps the words of one command line to the way they were written,
// so a rewritten command hands unchanged words back to the shell verbatim and
// keeps their variables and globs live.
//
// A word whose text was written two different ways has no spelling and is
// quoted like any new word.
type Spelling map[string]string

// NewSpelling records the written form of every word of line. It returns nil
// when line does not split the way Tokenize splits it.
func NewSpelling(line string) Spelling {
	tokens, err := Tokenize(line)
	if err != nil {
		return nil
	}
	words := rawWords(line)
	if len(words) != len(tokens) {
		return nil
	}
	s := make(Spelling, len(words))
	for i, w := range words {
		if w.text != tokens[i] {
			return nil
		}
		if prev, ok := s[w.text]; ok && prev != w.raw {
			s[w.text] = ""
			continue
		}
		s[w.text] = w.raw
	}
	return s
}

// Spell returns tok as it should appear in a shell command.
//
// Words of the line come back as written. A word derived from one of them by
// appending a suffix, or by replacing the file name after its directory,
// keeps the written form of the unchanged part. Everything else is quoted.
func (s Spelling) Spell(tok string) string {
	if raw, ok := s[tok]; ok && raw != "" {
		return raw
	}
	if raw, ok := s.suffixed(tok); ok {
		return raw
	}
	if raw, ok := s.renamed(tok); ok {
		return raw
	}
	return Quote(tok)
}

// Join spells each token and joins them with spaces.
func (s Spelling) Join(tokens []string) string {
	spelled := make([]string, len(tokens))
	for i, t := range tokens {
		spelled[i] = s.Spell(t)
	}
	return strings.Join(spelled, " ")
}

// Chain joins commands with && like the package-level Chain, spelling each
// with s.
func (s Spelling) Chain(cmds ...[]string) string {
	parts := make([]string, 0, len(cmds))
	for _, c := range cmds {
		if len(c) == 0 {
			continue
		}
		parts = append(parts, s.Join(c))
	}
	return strings.Join(parts, " && ")
}

// suffixed handles prog -> prog_fpc: the longest known word that prefixes tok,
// followed by a plain suffix.
func (s Spelling) suffixed(tok string) (string, bool) {
	best := ""
	for text, raw := range s {
		if text == "" || raw == "" || len(text) <= len(best) || len(text) >= len(tok) {
			continue
		}
		if strings.HasPrefix(tok, text) {
			best = text
		}
	}
	if best == "" {
		return "", false
	}
	raw, suffix := s[best], tok[len(best):]
	if !isSafe(suffix) || (endsInVariable(raw) && startsIdent(suffix)) {
		return "", false
	}
	return raw + suffix, true
}

// renamed handles dir/b.o -> dir/b_copy.o: a known word in the same directory
// whose file name was written literally lends its directory spelling.
func (s Spelling) renamed(tok string) (string, bool) {
	slash := strings.LastIndexByte(tok, '/')
	if slash < 0 {
		return "", false
	}
	dir, base := tok[:slash+1], tok[slash+1:]

	prefix, found := "", false
	for text, raw := range s {
		if raw == "" || !strings.HasPrefix(text, dir) {
			continue
		}
		name := text[len(dir):]
		if name == "" || strings.Contains(name, "/") || !isSafe(name) || !strings.HasSuffix(raw, name) {
			continue
		}
		p := raw[:len(raw)-len(name)]
		if strings.HasSuffix(p, `\`) {
			continue
		}
		if found && p != prefix {
			return "", false
		}
		prefix, found = p, true
	}
	if !found {
		return "", false
	}
	return prefix + Quote(base), true
}

// endsInVariable reports whether raw ends with an unbraced $name, which a
// following identifier character would extend.
func endsInVariable(raw string) bool {
	i := strings.LastIndexByte(raw, '$')
	if i < 0 || i == len(raw)-1 {
		return false
	}
	for _, r := range raw[i+1:] {
		if !isIdent(r) {
			return false
		}
	}
	return true
}

func startsIdent(s string) bool {
	return s != "" && isIdent(rune(s[0]))
}

func isIdent(r rune) bool {
	return r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
}

type word struct {
	raw, text string
}

// rawWords splits line with the same rules as Tokenize: blanks separate
// words, single quotes are literal, double quotes and backslashes escape, and
// a # that starts a word comments out the rest of the line. Each word keeps
// its written form next to its text.
func rawWords(line string) []word {
	var (
		words     []word
		raw, text strings.Builder
		inWord    bool
	)
	flush := func() {
		words = append(words, word{raw: raw.String(), text: text.String()})
		raw.Reset()
		text.Reset()
		inWord = false
	}
	escaped := func(i int) int {
		if i+1 < len(line) {
			i++
			raw.WriteByte(line[i])
			text.WriteByte(line[i])
		}
		return i
	}

	const (
		plain = iota
		single
		double
	)
	state := plain
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch state {
		case single:
			raw.WriteByte(c)
			if c == '\'' {
				state = plain
			} else {
				text.WriteByte(c)
			}
			continue
		case double:
			raw.WriteByte(c)
			switch c {
			case '"':
				state = plain
			case '\\':
				i = escaped(i)
			default:
				text.WriteByte(c)
			}
			continue
		}

		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			if inWord {
				flush()
			}
		case c == '#' && !inWord:
			for i+1 < len(line) && line[i+1] != '\n' {
				i++
			}
		case c == '\'':
			inWord = true
			raw.WriteByte(c)
			state = single
		case c == '"':
			inWord = true
			raw.WriteByte(c)
			state = double
		case c == '\\':
			inWord = true
			raw.WriteByte(c)
			i = escaped(i)
		default:
			inWord = true
			raw.WriteByte(c)
			text.WriteByte(c)
		}
	}
	if inWord {
		flush()
	}
	return words
}
