package stdlib

import "testing"

func TestSubstr(t *testing.T) {
	tests := []struct {
		name   string
		s      string
		start  float64
		hasLen bool
		length float64
		want   string
	}{
		{"middle", "hello world", 7, true, 5, "world"},
		{"no length reads to end", "hello world", 7, false, 0, "world"},
		{"start before 1 eats into length", "hello", -2, true, 5, "he"},
		{"length past end clamps", "hi", 1, true, 99, "hi"},
		{"zero length empty", "hi", 1, true, 0, ""},
		{"negative length treated as zero", "hi", 1, true, -3, ""},
		{"start past end empty", "hi", 5, false, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := substr(tt.s, tt.start, tt.hasLen, tt.length); got != tt.want {
				t.Errorf("substr(%q, %v, %v, %v) = %q, want %q", tt.s, tt.start, tt.hasLen, tt.length, got, tt.want)
			}
		})
	}
}

func TestRoundHalfAwayFromZero(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{2.5, 3},
		{2.4, 2},
		{-2.5, -3},
		{-2.4, -2},
		{0, 0},
	}
	for _, tt := range tests {
		if got := roundHalfAwayFromZero(tt.in); got != tt.want {
			t.Errorf("roundHalfAwayFromZero(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
