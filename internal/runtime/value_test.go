package runtime

import "testing"

func TestValueFloat64Coercion(t *testing.T) {
	cases := []struct {
		v    Value
		want float64
	}{
		{Int(3), 3},
		{Float(2.5), 2.5},
		{Str("42abc"), 42},
		{Str("  -3.5e1 trailing"), -35},
		{Str("nope"), 0},
	}
	for _, c := range cases {
		if got := c.v.Float64(); got != c.want {
			t.Errorf("Float64(%+v) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestValueStringCoercion(t *testing.T) {
	if got := Int(7).String(""); got != "7" {
		t.Errorf("Int(7).String() = %q", got)
	}
	if got := Float(3).String(""); got != "3" {
		t.Errorf("Float(3).String() = %q, want integral form", got)
	}
	if got := Float(3.5).String(""); got != "3.5" {
		t.Errorf("Float(3.5).String() = %q", got)
	}
}

func TestValueBoolTruthiness(t *testing.T) {
	if Str("").Bool() {
		t.Error("empty string should be falsy")
	}
	if !Str("0abc").Bool() {
		t.Error(`"0abc" is not a pure numeric string, so it is truthy on non-empty text`)
	}
	if Str("0").Bool() {
		t.Error(`"0" is a pure numeric string equal to zero, so it is falsy`)
	}
	if !Int(1).Bool() {
		t.Error("1 should be truthy")
	}
}

func TestIntMapRoundTrip(t *testing.T) {
	m := NewIntMap()
	m.Set(1, Str("a"))
	m.Set(2, Str("b"))
	if v, ok := m.Get(1); !ok || v.Str.Bytes != "a" {
		t.Errorf("expected a, got %+v ok=%v", v, ok)
	}
	m.Delete(1)
	if _, ok := m.Get(1); ok {
		t.Error("expected key 1 deleted")
	}
	if got := m.Keys(); len(got) != 1 || got[0] != 2 {
		t.Errorf("unexpected keys: %v", got)
	}
}

func TestRegexCacheTranslatesBraces(t *testing.T) {
	rc := NewRegexCache()
	re, err := rc.Compile(`a{2,3}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !re.MatchString("aaa") || re.MatchString("a") {
		t.Errorf("a{2,3} matched incorrectly")
	}
}

func TestPRNGSrandReturnsPreviousSeed(t *testing.T) {
	p := NewPRNG()
	prev := p.Seed(42)
	if prev != 0 {
		t.Errorf("expected initial seed 0, got %d", prev)
	}
	prev = p.Seed(7)
	if prev != 42 {
		t.Errorf("expected previous seed 42, got %d", prev)
	}
}
