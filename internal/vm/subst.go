package vm

import (
	"regexp"
	"strings"
)

// substituteAWK implements sub()/gsub()'s replacement grammar: an
// unescaped & in repl is replaced by the matched text, \& is a literal
// &, and \\ is a literal backslash. global selects gsub's repeated,
// non-overlapping replacement over sub's single first match. A
// zero-width match still advances by one byte so gsub never loops
// forever on a pattern like a*.
func substituteAWK(re *regexp.Regexp, subject, repl string, global bool) (string, int) {
	var out strings.Builder
	count := 0
	pos := 0
	for pos <= len(subject) {
		loc := re.FindStringIndex(subject[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		out.WriteString(subject[pos:start])
		out.WriteString(expandSubstRepl(repl, subject[start:end]))
		count++
		if end == start {
			if end < len(subject) {
				out.WriteByte(subject[end])
			}
			pos = end + 1
		} else {
			pos = end
		}
		if !global {
			break
		}
	}
	if pos <= len(subject) {
		out.WriteString(subject[pos:])
	}
	return out.String(), count
}

func expandSubstRepl(repl, matched string) string {
	var b strings.Builder
	for i := 0; i < len(repl); i++ {
		c := repl[i]
		if c == '\\' && i+1 < len(repl) && (repl[i+1] == '&' || repl[i+1] == '\\') {
			b.WriteByte(repl[i+1])
			i++
			continue
		}
		if c == '&' {
			b.WriteString(matched)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
