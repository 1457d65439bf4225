package record

import (
	"testing"

	"zawk/internal/runtime"
)

func TestRecordFieldSplitting(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		fs     string
		fields []string
	}{
		{"default whitespace", "  foo   bar  baz ", " ", []string{"foo", "bar", "baz"}},
		{"single char", "a:b:c", ":", []string{"a", "b", "c"}},
		{"empty FS splits runes", "abc", "", []string{"a", "b", "c"}},
		{"multi-char literal", "a::b::c", "::", []string{"a", "b", "c"}},
		{"empty record", "", " ", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRecord(FormatLine, runtime.NewRegexCache())
			r.SetRaw(tc.raw, tc.fs)
			if got := r.NF(); got != len(tc.fields) {
				t.Fatalf("NF = %d, want %d", got, len(tc.fields))
			}
			for i, want := range tc.fields {
				if got := r.Field(i + 1); got != want {
					t.Errorf("Field(%d) = %q, want %q", i+1, got, want)
				}
			}
		})
	}
}

func TestRecordFieldOutOfRange(t *testing.T) {
	r := NewRecord(FormatLine, runtime.NewRegexCache())
	r.SetRaw("a b", " ")
	if got := r.Field(5); got != "" {
		t.Errorf("Field(5) = %q, want \"\"", got)
	}
}

func TestRecordSetFieldExtendsAndRebuildsZero(t *testing.T) {
	r := NewRecord(FormatLine, runtime.NewRegexCache())
	r.SetRaw("a b", " ")
	r.SetField(4, "d", " ")
	if got := r.NF(); got != 4 {
		t.Fatalf("NF = %d, want 4", got)
	}
	if got := r.Field(3); got != "" {
		t.Errorf("Field(3) = %q, want \"\"", got)
	}
	if got := r.Raw(" "); got != "a b  d" {
		t.Errorf("Raw = %q, want %q", got, "a b  d")
	}
}

func TestRecordSetNFTruncates(t *testing.T) {
	r := NewRecord(FormatLine, runtime.NewRegexCache())
	r.SetRaw("a b c d", " ")
	r.SetNF(2, " ")
	if got := r.Raw(" "); got != "a b" {
		t.Errorf("Raw = %q, want %q", got, "a b")
	}
	if got := r.NF(); got != 2 {
		t.Errorf("NF = %d, want 2", got)
	}
}

func TestRecordReassignZeroResplits(t *testing.T) {
	r := NewRecord(FormatLine, runtime.NewRegexCache())
	r.SetRaw("a b c", " ")
	_ = r.NF()
	r.SetRaw("x:y", ":")
	if got := r.NF(); got != 2 {
		t.Fatalf("NF after reassignment = %d, want 2", got)
	}
	if got := r.Field(1); got != "x" {
		t.Errorf("Field(1) = %q, want %q", got, "x")
	}
}

func TestRecordCSVFields(t *testing.T) {
	r := NewRecord(FormatCSV, runtime.NewRegexCache())
	r.SetRaw(`a,"b,c","d""e",f`, "")
	want := []string{"a", "b,c", `d"e`, "f"}
	if got := r.NF(); got != len(want) {
		t.Fatalf("NF = %d, want %d", got, len(want))
	}
	for i, w := range want {
		if got := r.Field(i + 1); got != w {
			t.Errorf("Field(%d) = %q, want %q", i+1, got, w)
		}
	}
}

func TestRecordParagraphModeNewlineAsSeparator(t *testing.T) {
	r := NewRecord(FormatLine, runtime.NewRegexCache())
	r.SetParagraphMode(true)
	r.SetRaw("a:b\nc:d", ":")
	want := []string{"a", "b", "c", "d"}
	if got := r.NF(); got != len(want) {
		t.Fatalf("NF = %d, want %d", got, len(want))
	}
}
