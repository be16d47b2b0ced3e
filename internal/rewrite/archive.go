package rewrite

import (
	"regexp"
)

// archivePattern matches `ar <flags> <archive>.a <member>`. Group 1 is the
// flags segment.
var archivePattern = regexp.MustCompile(`(?:^|[\s/])ar\s+(\S+(?:\s+-\S+)*)\s+(\S+\.a)\s+\S`)

// RewriteArchive turns quick-append (q) modes into replace (r) modes inside
// the flags segment so that re-archiving on a second replay does not
// duplicate members. The second result is false when the line does not have
// the expected shape; the line is then returned unchanged.
func RewriteArchive(line string) (string, bool) {
	loc := archivePattern.FindStringSubmatchIndex(line)
	if loc == nil {
		return line, false
	}
	start, end := loc[2], loc[3]
	b := []byte(line)
	for i := start; i < end; i++ {
		if b[i] == 'q' {
			b[i] = 'r'
		}
	}
	return string(b), true
}
