package stdlib

import (
	"testing"

	"zawk/internal/runtime"
)

func TestValueToJSON(t *testing.T) {
	tests := []struct {
		name string
		v    runtime.Value
		want interface{}
	}{
		{"int", runtime.Int(42), float64(42)},
		{"float", runtime.Float(3.5), 3.5},
		{"numeric string", runtime.Str("17"), float64(17)},
		{"plain string", runtime.Str("hello"), "hello"},
		{"empty string", runtime.Str(""), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := valueToJSON(tt.v, "%.6g"); got != tt.want {
				t.Errorf("valueToJSON(%v) = %v (%T), want %v (%T)", tt.v, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestJSONToValue(t *testing.T) {
	if got := jsonToValue("hi").String("%.6g"); got != "hi" {
		t.Errorf("jsonToValue(string) = %q, want %q", got, "hi")
	}
	if got := jsonToValue(float64(12)).Float64(); got != 12 {
		t.Errorf("jsonToValue(float64) = %v, want 12", got)
	}
	if got := jsonToValue(true).Int64(); got != 1 {
		t.Errorf("jsonToValue(true) = %v, want 1", got)
	}
	if got := jsonToValue(false).Int64(); got != 0 {
		t.Errorf("jsonToValue(false) = %v, want 0", got)
	}
	if got := jsonToValue(nil).String("%.6g"); got != "" {
		t.Errorf("jsonToValue(nil) = %q, want empty", got)
	}
}
