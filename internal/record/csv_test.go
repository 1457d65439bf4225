package record

import (
	"io"
	"strings"
	"testing"
)

func TestCSVReaderNext(t *testing.T) {
	tests := []struct {
		name string
		in   string
		recs [][]string
	}{
		{"plain", "a,b,c\n1,2,3\n", [][]string{{"a", "b", "c"}, {"1", "2", "3"}}},
		{"quoted with comma", "a,\"b,c\",d\n", [][]string{{"a", "b,c", "d"}}},
		{"quoted with newline", "a,\"b\nc\",d\n", [][]string{{"a", "b\nc", "d"}}},
		{"escaped quote", "a,\"b\"\"c\",d\n", [][]string{{"a", `b"c`, "d"}}},
		{"trailing CRLF stripped", "a,b\r\n", [][]string{{"a", "b"}}},
		{"no trailing newline", "a,b", [][]string{{"a", "b"}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cr := NewCSVReader(strings.NewReader(tc.in), ',')
			for i, want := range tc.recs {
				_, fields, err := cr.Next()
				if err != nil && err != io.EOF {
					t.Fatalf("record %d: unexpected error %v", i, err)
				}
				if len(fields) != len(want) {
					t.Fatalf("record %d: got %v, want %v", i, fields, want)
				}
				for j, w := range want {
					if fields[j] != w {
						t.Errorf("record %d field %d = %q, want %q", i, j, fields[j], w)
					}
				}
			}
		})
	}
}

func TestCSVReaderEOFOnEmpty(t *testing.T) {
	cr := NewCSVReader(strings.NewReader(""), ',')
	_, _, err := cr.Next()
	if err != io.EOF {
		t.Fatalf("err = %v, want io.EOF", err)
	}
}

func TestCSVReaderTSVDelimiter(t *testing.T) {
	cr := NewCSVReader(strings.NewReader("a\tb\tc\n"), '\t')
	_, fields, err := cr.Next()
	if err != nil && err != io.EOF {
		t.Fatalf("unexpected error %v", err)
	}
	want := []string{"a", "b", "c"}
	for i, w := range want {
		if fields[i] != w {
			t.Errorf("field %d = %q, want %q", i, fields[i], w)
		}
	}
}
