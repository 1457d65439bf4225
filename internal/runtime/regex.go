package runtime

import (
	"regexp"
	"strings"
	"sync"
)

// RegexCache compiles AWK ERE patterns to Go's RE2-based regexp once
// per distinct pattern text and keeps the result keyed by that text.
// Most awk programs re-evaluate the same /regex/ literal on every
// record, so this cache is what keeps pattern matching from
// recompiling in the hot loop.
type RegexCache struct {
	mu    sync.RWMutex
	cache map[string]*regexp.Regexp
}

func NewRegexCache() *RegexCache {
	return &RegexCache{cache: map[string]*regexp.Regexp{}}
}

func (c *RegexCache) Compile(pattern string) (*regexp.Regexp, error) {
	c.mu.RLock()
	if re, ok := c.cache[pattern]; ok {
		c.mu.RUnlock()
		return re, nil
	}
	c.mu.RUnlock()

	re, err := regexp.Compile(translateERE(pattern))
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.cache[pattern] = re
	c.mu.Unlock()
	return re, nil
}

// translateERE adjusts one place POSIX ERE and RE2 diverge in ordinary
// awk scripts: a brace that doesn't open a {n}, {n,} or {n,m}
// repetition is escaped as a literal, which RE2 would otherwise reject.
// ERE's named character classes ([:alpha:] etc.) pass straight through
// to RE2 unchanged; "\<digit>" backreferences also pass through
// unchanged, and RE2 rejects them when the pattern is compiled.
func translateERE(pattern string) string {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c == '{' && !looksLikeRepetition(pattern[i:]) {
			b.WriteString(`\{`)
			continue
		}
		if c == '}' && !looksLikeRepetitionEnd(pattern, i) {
			b.WriteString(`\}`)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func looksLikeRepetition(s string) bool {
	// "{n}", "{n,}", "{n,m}"
	i := 1
	sawDigit := false
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
		sawDigit = true
	}
	if i < len(s) && s[i] == ',' {
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
	}
	return sawDigit && i < len(s) && s[i] == '}'
}

func looksLikeRepetitionEnd(s string, closeIdx int) bool {
	open := strings.LastIndexByte(s[:closeIdx], '{')
	if open < 0 {
		return false
	}
	return looksLikeRepetition(s[open:])
}
