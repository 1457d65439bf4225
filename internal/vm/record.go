package vm

// Record is the current input record: $0 and its fields, materialized
// lazily per spec §4.H. The VM never splits or rejoins a record itself
// — that belongs to internal/record, which implements this interface
// so the VM stays ignorant of RS/FS/CSV/TSV splitting rules.
type Record interface {
	// SetRaw installs a new $0, to be split into fields on first field
	// access using fs (awk's "split on the current FS at the time of
	// the read" rule — a later FS assignment must not re-split $0).
	SetRaw(s, fs string)
	// Raw rebuilds $0 from the fields if a field assignment has made it
	// stale, joining on ofs; otherwise returns the cached text.
	Raw(ofs string) string
	Field(i int) string
	SetField(i int, v, ofs string)
	NF() int
	SetNF(n int, ofs string)
	// SetParagraphMode toggles whether a newline is an always-active
	// extra field separator alongside FS, per RS=="" paragraph mode
	// (spec §4.H). The VM checks RS on every record the same way it
	// already reads FS for SetRaw, so this travels the same path
	// rather than living inside Record's own state.
	SetParagraphMode(on bool)
}

// Input drives the main record stream across BEGIN/pattern-action/END:
// ARGV/stdin cycling, RS-based splitting, and NR/FNR/FILENAME
// bookkeeping all live in internal/record's implementation.
type Input interface {
	// Next advances to the next main record. ok is false once every
	// input source is exhausted. rs is the current RS value at the
	// moment of the read, mirroring SetRaw's "read-time FS" rule.
	Next(rs string) (line string, ok bool, err error)
	NR() int
	FNR() int
	Filename() string
	// SkipFile discards whatever is left of the current input source so
	// the next Next() call opens the following file, for nextfile.
	SkipFile()
}
