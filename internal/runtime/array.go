package runtime

import "sort"

// IntMap and StrMap are the two closed array representations the type
// lattice resolves every associative array to (spec §4.C): once keys
// are known to be numeric, the engine avoids the SUBSEP/string-join
// overhead of a generic map[string]Value.

type IntMap struct {
	m map[int64]Value
}

func NewIntMap() *IntMap { return &IntMap{m: map[int64]Value{}} }

func (a *IntMap) Get(k int64) (Value, bool) {
	v, ok := a.m[k]
	return v, ok
}

func (a *IntMap) Set(k int64, v Value) {
	if old, ok := a.m[k]; ok {
		old.Release()
	}
	a.m[k] = v.Retain()
}

func (a *IntMap) Delete(k int64) {
	if old, ok := a.m[k]; ok {
		old.Release()
		delete(a.m, k)
	}
}

func (a *IntMap) DeleteAll() {
	for k, v := range a.m {
		v.Release()
		delete(a.m, k)
	}
}

func (a *IntMap) Len() int { return len(a.m) }

// Keys returns keys in ascending numeric order. AWK's for-in iteration
// order is explicitly unspecified (§4.D), but a deterministic order
// makes golden-output tests reproducible, which is worth more than
// fidelity to "unspecified."
func (a *IntMap) Keys() []int64 {
	ks := make([]int64, 0, len(a.m))
	for k := range a.m {
		ks = append(ks, k)
	}
	sort.Slice(ks, func(i, j int) bool { return ks[i] < ks[j] })
	return ks
}

type StrMap struct {
	m map[string]Value
}

func NewStrMap() *StrMap { return &StrMap{m: map[string]Value{}} }

func (a *StrMap) Get(k string) (Value, bool) {
	v, ok := a.m[k]
	return v, ok
}

func (a *StrMap) Set(k string, v Value) {
	if old, ok := a.m[k]; ok {
		old.Release()
	}
	a.m[k] = v.Retain()
}

func (a *StrMap) Delete(k string) {
	if old, ok := a.m[k]; ok {
		old.Release()
		delete(a.m, k)
	}
}

func (a *StrMap) DeleteAll() {
	for k, v := range a.m {
		v.Release()
		delete(a.m, k)
	}
}

func (a *StrMap) Len() int { return len(a.m) }

func (a *StrMap) Keys() []string {
	ks := make([]string, 0, len(a.m))
	for k := range a.m {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	return ks
}
