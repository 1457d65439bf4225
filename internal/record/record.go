// Package record implements the record/field engine (spec §4.H): line,
// paragraph, regex-RS, and CSV/TSV record splitting, lazy field
// materialization, and the $0/NF invariant (I2) that keeps $0 and
// $1..$NF in agreement after a field mutation. The donor has no analog
// for this — it is a general-purpose security/automation runtime with
// no record-oriented input model — so this package follows the
// donor's general line-oriented I/O style (buffered readers, lazy
// state) while implementing AWK's splitting rules directly from §4.H's
// state tables.
package record

import (
	"strings"

	"zawk/internal/runtime"
)

// Format selects how a record's fields are split. Line and Paragraph
// both use the live FS value (via runtime.SplitFields); CSV and TSV
// always split RFC 4180-style on their fixed delimiter, ignoring FS
// entirely.
type Format int

const (
	FormatLine Format = iota
	FormatCSV
	FormatTSV
)

// Record holds the current $0 and its lazily materialized field
// vector. A script that never references $1..$NF pays nothing beyond
// storing the raw text; the first $i or NF access splits once and
// caches the result until the next SetRaw.
type Record struct {
	format    Format
	paragraph bool // RS=="" : newline is an always-active extra separator (§4.H)
	regex     *runtime.RegexCache

	raw    string
	lastFS string
	fields []string
	nf     int
	split  bool
	dirty  bool // a field was mutated since the last Raw(); $0 needs rejoining
}

func NewRecord(format Format, regex *runtime.RegexCache) *Record {
	return &Record{format: format, regex: regex}
}

// SetParagraphMode is called by the input driver whenever RS is "",
// since paragraph mode changes field splitting (newline becomes an
// additional separator) in a way Record.SetRaw's two-argument
// interface signature can't carry on its own.
func (r *Record) SetParagraphMode(on bool) { r.paragraph = on }

// SetRaw installs a new $0. Splitting into fields is deferred to the
// first Field/NF access, using fs as it stood at this call (AWK's
// "split on the FS in effect at read time" rule — a later `FS = x`
// must not retroactively re-split an already-read record).
func (r *Record) SetRaw(s, fs string) {
	r.raw = s
	r.lastFS = fs
	r.fields = nil
	r.nf = 0
	r.split = false
	r.dirty = false
}

func (r *Record) ensureSplit() {
	if r.split {
		return
	}
	r.split = true
	switch r.format {
	case FormatCSV:
		r.fields = parseCSVFields(r.raw, ',')
	case FormatTSV:
		r.fields = parseCSVFields(r.raw, '\t')
	default:
		if r.paragraph {
			r.fields = splitParagraphFields(r.raw, r.lastFS, r.regex)
		} else {
			r.fields = runtime.SplitFields(r.raw, r.lastFS, r.regex)
		}
	}
	r.nf = len(r.fields)
}

// Raw rebuilds $0 from the fields if a field assignment made it stale
// (I2), joining on ofs; otherwise it returns the cached text untouched
// — re-joining on every access would defeat lazy splitting's purpose
// for the common case where $0 is read far more often than mutated.
func (r *Record) Raw(ofs string) string {
	if r.dirty {
		r.raw = strings.Join(r.fields[:r.nf], ofs)
		r.dirty = false
	}
	return r.raw
}

// Field returns $i for i>=1; out-of-range reads the AWK way: "" for any
// field beyond NF.
func (r *Record) Field(i int) string {
	r.ensureSplit()
	if i < 1 || i > r.nf {
		return ""
	}
	return r.fields[i-1]
}

// SetField assigns $i, extending the field vector with empty strings
// if i>NF (§3's "extends fields with empty strings" rule) and marking
// $0 stale so the next Raw() rejoins it.
func (r *Record) SetField(i int, v, ofs string) {
	r.ensureSplit()
	if i < 1 {
		return
	}
	if i > r.nf {
		grown := make([]string, i)
		copy(grown, r.fields)
		r.fields = grown
		r.nf = i
	}
	r.fields[i-1] = v
	r.dirty = true
}

func (r *Record) NF() int {
	r.ensureSplit()
	return r.nf
}

// SetNF truncates or pads the field vector to n fields and marks $0
// stale, mirroring the effect of assigning $i past the old NF.
func (r *Record) SetNF(n int, ofs string) {
	r.ensureSplit()
	if n < 0 {
		n = 0
	}
	if n <= r.nf {
		r.fields = r.fields[:n]
	} else {
		grown := make([]string, n)
		copy(grown, r.fields)
		r.fields = grown
	}
	r.nf = n
	r.dirty = true
}

// splitParagraphFields applies FS as usual, then additionally treats
// every newline inside the paragraph as a separator, since POSIX's
// paragraph mode (RS=="") always splits on blank-line-delimited text
// with "\n" active alongside whatever FS is set (§4.H). FS==" " already
// treats "\n" as whitespace, so only a non-default FS needs the extra
// pass.
func splitParagraphFields(raw, fs string, re *runtime.RegexCache) []string {
	if fs == " " {
		return runtime.SplitFields(raw, fs, re)
	}
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		out = append(out, runtime.SplitFields(line, fs, re)...)
	}
	return out
}
