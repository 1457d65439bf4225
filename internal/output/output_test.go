package output

import (
	"bytes"
	"testing"

	"zawk/internal/runtime"
)

func TestEnginePrintJoinsOFSAndORS(t *testing.T) {
	var buf bytes.Buffer
	e := NewEngine(&buf, FormatLine, runtime.NewIOTable())
	if err := e.Print([]string{"a", "b", "c"}, ",", "\n", "", ""); err != nil {
		t.Fatal(err)
	}
	e.Flush()
	if got, want := buf.String(), "a,b,c\n"; got != want {
		t.Errorf("Print = %q, want %q", got, want)
	}
}

func TestEnginePrintCSVQuoting(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want string
	}{
		{"plain", []string{"a", "b"}, "a,b\n"},
		{"embedded comma", []string{"a,b", "c"}, "\"a,b\",c\n"},
		{"embedded quote", []string{`a"b`}, "\"a\"\"b\"\n"},
		{"embedded newline", []string{"a\nb"}, "\"a\nb\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			e := NewEngine(&buf, FormatCSV, runtime.NewIOTable())
			if err := e.Print(tt.in, ",", "\n", "", ""); err != nil {
				t.Fatal(err)
			}
			e.Flush()
			if got := buf.String(); got != tt.want {
				t.Errorf("Print(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEnginePrintTSVUsesTabDelimiter(t *testing.T) {
	var buf bytes.Buffer
	e := NewEngine(&buf, FormatTSV, runtime.NewIOTable())
	if err := e.Print([]string{"a\tb", "c"}, "\t", "\n", "", ""); err != nil {
		t.Fatal(err)
	}
	e.Flush()
	if got, want := buf.String(), "\"a\tb\"\tc\n"; got != want {
		t.Errorf("Print = %q, want %q", got, want)
	}
}

func TestEnginePrintfVerbs(t *testing.T) {
	tests := []struct {
		name   string
		format string
		args   []runtime.Value
		want   string
	}{
		{"decimal", "%d", []runtime.Value{runtime.Int(42)}, "42"},
		{"i alias", "%i", []runtime.Value{runtime.Int(-7)}, "-7"},
		{"octal", "%o", []runtime.Value{runtime.Int(8)}, "10"},
		{"hex lower", "%x", []runtime.Value{runtime.Int(255)}, "ff"},
		{"hex upper", "%X", []runtime.Value{runtime.Int(255)}, "FF"},
		{"unsigned", "%u", []runtime.Value{runtime.Int(-1)}, "18446744073709551615"},
		{"string", "%s", []runtime.Value{runtime.Str("hi")}, "hi"},
		{"float", "%.2f", []runtime.Value{runtime.Float(3.14159)}, "3.14"},
		{"sci", "%.1e", []runtime.Value{runtime.Float(1234.5)}, "1.2e+03"},
		{"general", "%g", []runtime.Value{runtime.Float(3.5)}, "3.5"},
		{"width", "%5d", []runtime.Value{runtime.Int(3)}, "    3"},
		{"zero pad", "%03d", []runtime.Value{runtime.Int(3)}, "003"},
		{"left justify", "%-5d|", []runtime.Value{runtime.Int(3)}, "3    |"},
		{"percent literal", "100%%", nil, "100%"},
		{"char from int", "%c", []runtime.Value{runtime.Int(65)}, "A"},
		{"char from str", "%c", []runtime.Value{runtime.Str("xyz")}, "x"},
		{"multiple args", "%s=%d", []runtime.Value{runtime.Str("n"), runtime.Int(5)}, "n=5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			e := NewEngine(&buf, FormatLine, runtime.NewIOTable())
			if err := e.Printf(tt.format, tt.args, "%.6g", "", ""); err != nil {
				t.Fatal(err)
			}
			e.Flush()
			if got := buf.String(); got != tt.want {
				t.Errorf("Printf(%q) = %q, want %q", tt.format, got, tt.want)
			}
		})
	}
}

func TestEnginePrintfMissingArgDefaultsToZeroValue(t *testing.T) {
	var buf bytes.Buffer
	e := NewEngine(&buf, FormatLine, runtime.NewIOTable())
	if err := e.Printf("%d,%s", nil, "%.6g", "", ""); err != nil {
		t.Fatal(err)
	}
	e.Flush()
	if got, want := buf.String(), "0,"; got != want {
		t.Errorf("Printf = %q, want %q", got, want)
	}
}
