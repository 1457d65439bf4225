package vm

import (
	"regexp"
	"testing"
)

func TestSubstituteAWK(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		subject string
		repl    string
		global  bool
		want    string
		count   int
	}{
		{"sub first only", "o", "foo bar foo", "0", false, "f0o bar foo", 1},
		{"gsub all", "o", "foo bar foo", "0", true, "f00 bar f00", 2},
		{"ampersand repeats match", "wor.d", "hello world", "<&>", false, "hello <world>", 1},
		{"escaped ampersand literal", "wor.d", "hello world", `\&`, false, "hello &", 1},
		{"escaped backslash literal", "o", "foo", `\\`, false, `f\o`, 1},
		{"no match unchanged", "xyz", "hello", "!", true, "hello", 0},
		{"gsub zero width match advances", "a*", "b", "-", true, "-b-", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			re := regexp.MustCompile(tt.pattern)
			got, count := substituteAWK(re, tt.subject, tt.repl, tt.global)
			if got != tt.want || count != tt.count {
				t.Errorf("substituteAWK(%q, %q, %q, %v) = (%q, %d), want (%q, %d)",
					tt.pattern, tt.subject, tt.repl, tt.global, got, count, tt.want, tt.count)
			}
		})
	}
}

func TestExpandSubstRepl(t *testing.T) {
	tests := []struct {
		repl    string
		matched string
		want    string
	}{
		{"&", "abc", "abc"},
		{`\&`, "abc", "&"},
		{`\\`, "abc", `\`},
		{"x&y", "abc", "xabcy"},
		{"plain", "abc", "plain"},
	}
	for _, tt := range tests {
		if got := expandSubstRepl(tt.repl, tt.matched); got != tt.want {
			t.Errorf("expandSubstRepl(%q, %q) = %q, want %q", tt.repl, tt.matched, got, tt.want)
		}
	}
}
