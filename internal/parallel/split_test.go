package parallel

import "testing"

func TestWalkToByte(t *testing.T) {
	data := []byte("aaa\nbbb\nccc\n")
	tests := []struct {
		name string
		pos  int64
		want int64
	}{
		{"mid first line", 1, 4},
		{"exactly on delim", 3, 4},
		{"mid last line", 9, 12},
		{"past all delims", 11, 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := walkToByte(data, tt.pos, '\n'); got != tt.want {
				t.Errorf("walkToByte(%d) = %d, want %d", tt.pos, got, tt.want)
			}
		})
	}
}

func TestWalkOutOfQuotes(t *testing.T) {
	tests := []struct {
		name string
		data string
		pos  int64
		want int64
	}{
		{"plain line, mid record", "a,b,c\nd,e,f\n", 2, 6},
		{"inside quoted field", "a,\"b\nc\",d\ne,f,g\n", 4, 10},
		{"landing right after closing quote", "a,\"b,c\",d\ne,f,g\n", 9, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := walkOutOfQuotes([]byte(tt.data), tt.pos); got != tt.want {
				t.Errorf("walkOutOfQuotes(%q, %d) = %d, want %d", tt.data, tt.pos, got, tt.want)
			}
		})
	}
}

func TestSplitPointsMonotonic(t *testing.T) {
	var lines []byte
	for i := 0; i < 100; i++ {
		lines = append(lines, []byte("line of text here\n")...)
	}
	pts := splitPoints(lines, 4, false, '\n')
	if len(pts) == 0 {
		t.Fatal("expected at least one split point for 100 lines across 4 shards")
	}
	prev := int64(0)
	for _, p := range pts {
		if p <= prev {
			t.Errorf("split points not strictly increasing: %v", pts)
		}
		if p >= int64(len(lines)) {
			t.Errorf("split point %d is out of range for %d bytes", p, len(lines))
		}
		if lines[p-1] != '\n' {
			t.Errorf("split point %d does not land right after a newline", p)
		}
		prev = p
	}
}

func TestSplitPointsSingleShard(t *testing.T) {
	if pts := splitPoints([]byte("a\nb\n"), 1, false, '\n'); pts != nil {
		t.Errorf("splitPoints(n=1) = %v, want nil", pts)
	}
}
