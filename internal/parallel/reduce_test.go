package parallel

import (
	"testing"

	"zawk/internal/runtime"
)

func TestCombine(t *testing.T) {
	tests := []struct {
		name string
		op   ReduceOp
		a, b runtime.Value
		want float64
	}{
		{"sum", ReduceSum, runtime.Float(3), runtime.Float(4), 7},
		{"min picks smaller", ReduceMin, runtime.Float(3), runtime.Float(1), 1},
		{"min keeps smaller a", ReduceMin, runtime.Float(1), runtime.Float(3), 1},
		{"max picks larger", ReduceMax, runtime.Float(3), runtime.Float(9), 9},
		{"max keeps larger a", ReduceMax, runtime.Float(9), runtime.Float(3), 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := combine(tt.op, tt.a, tt.b, "%.6g").Float64(); got != tt.want {
				t.Errorf("combine(%v, %v, %v) = %v, want %v", tt.op, tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCombineConcat(t *testing.T) {
	got := combine(ReduceConcat, runtime.Str("ab"), runtime.Str("cd"), "%.6g").String("%.6g")
	if got != "abcd" {
		t.Errorf("combine(concat) = %q, want %q", got, "abcd")
	}
}

func TestParseReduceOp(t *testing.T) {
	tests := []struct {
		in   string
		want ReduceOp
		ok   bool
	}{
		{"sum", ReduceSum, true},
		{"min", ReduceMin, true},
		{"max", ReduceMax, true},
		{"concat", ReduceConcat, true},
		{"bogus", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseReduceOp(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ParseReduceOp(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
