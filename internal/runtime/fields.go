package runtime

import "strings"

// SplitFields splits s into fields per the current FS value, following
// POSIX awk's three FS regimes plus the literal-substring resolution
// for a plain multi-character separator: FS==" " splits on runs of
// whitespace after trimming; a single character (any character,
// metacharacter or not) splits literally; a multi-character FS that
// contains no regex metacharacter also splits literally rather than as
// an ERE, matching frawk/gawk's documented behavior, since treating
// every multi-char FS as a regex would silently break a script that set
// FS to something like "::" expecting a literal separator.
func SplitFields(s, fs string, re *RegexCache) []string {
	switch {
	case fs == " ":
		return strings.Fields(s)
	case fs == "":
		out := make([]string, 0, len(s))
		for _, r := range s {
			out = append(out, string(r))
		}
		return out
	case len(fs) == 1:
		return splitLiteral(s, fs)
	case !looksLikeRegexMeta(fs):
		return splitLiteral(s, fs)
	default:
		pat, err := re.Compile(fs)
		if err != nil {
			return splitLiteral(s, fs)
		}
		if s == "" {
			return nil
		}
		return pat.Split(s, -1)
	}
}

func splitLiteral(s, sep string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, sep)
}

func looksLikeRegexMeta(s string) bool {
	return strings.ContainsAny(s, `\.[]()*+?{}|^$`)
}
