package stdlib

import (
	"testing"
	"time"
)

func TestStrftime(t *testing.T) {
	ts := time.Date(2024, time.March, 5, 9, 8, 7, 0, time.UTC)
	tests := []struct {
		format string
		want   string
	}{
		{"%Y-%m-%d", "2024-03-05"},
		{"%F", "2024-03-05"},
		{"%T", "09:08:07"},
		{"%H:%M:%S", "09:08:07"},
		{"%A", "Tuesday"},
		{"%a", "Tue"},
		{"%B", "March"},
		{"%b", "Mar"},
		{"%j", "065"},
		{"%%", "%"},
		{"%q", "%q"}, // unrecognized directive passes through literally
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			if got := strftime(tt.format, ts); got != tt.want {
				t.Errorf("strftime(%q) = %q, want %q", tt.format, got, tt.want)
			}
		})
	}
}
