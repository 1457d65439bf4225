package record

import (
	"os"
	"path/filepath"
	"testing"

	"zawk/internal/runtime"
)

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return p
}

func TestInputAcrossMultipleFiles(t *testing.T) {
	dir := t.TempDir()
	f1 := writeTemp(t, dir, "a.txt", "one\ntwo\n")
	f2 := writeTemp(t, dir, "b.txt", "three\n")

	in := NewInput(FormatLine, []string{f1, f2}, runtime.NewRegexCache())
	var got []string
	var fnrAtEachLine []int
	for {
		line, ok, err := in.Next("\n")
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, line)
		fnrAtEachLine = append(fnrAtEachLine, in.FNR())
	}

	want := []string{"one", "two", "three"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("line %d = %q, want %q", i, got[i], w)
		}
	}
	if in.NR() != 3 {
		t.Errorf("NR = %d, want 3", in.NR())
	}
	// FNR resets when b.txt starts: two lines in a.txt (FNR 1,2), one in b.txt (FNR 1).
	wantFNR := []int{1, 2, 1}
	for i, w := range wantFNR {
		if fnrAtEachLine[i] != w {
			t.Errorf("FNR at line %d = %d, want %d", i, fnrAtEachLine[i], w)
		}
	}
}

func TestInputFilenameTracking(t *testing.T) {
	dir := t.TempDir()
	f1 := writeTemp(t, dir, "a.txt", "x\n")

	in := NewInput(FormatLine, []string{f1}, runtime.NewRegexCache())
	if _, ok, err := in.Next("\n"); err != nil || !ok {
		t.Fatalf("Next: ok=%v err=%v", ok, err)
	}
	if in.Filename() != f1 {
		t.Errorf("Filename = %q, want %q", in.Filename(), f1)
	}
}
