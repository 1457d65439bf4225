package parallel

import (
	"zawk/internal/runtime"
	"zawk/internal/vm"
)

// ReduceOp is the monoid an @reduce clause merges one global by across
// shards (spec §4.I). Sum/min/max apply to numeric globals or
// numeric-valued arrays; concat applies to string accumulators and
// resolves OQ4 (SPEC_FULL.md) as shard-index order, the same
// order the driver later concatenates shard stdout in.
type ReduceOp int

const (
	ReduceSum ReduceOp = iota
	ReduceMin
	ReduceMax
	ReduceConcat
)

// ParseReduceOp maps an @reduce clause's operator name to a ReduceOp,
// for cmd/zawk's --reduce flag parsing.
func ParseReduceOp(s string) (ReduceOp, bool) {
	switch s {
	case "sum":
		return ReduceSum, true
	case "min":
		return ReduceMin, true
	case "max":
		return ReduceMax, true
	case "concat":
		return ReduceConcat, true
	}
	return 0, false
}

// ReduceSpec binds one global name to the monoid its @reduce clause
// declares, the only sanctioned form of cross-shard shared state (spec
// §5: "non-reduction shared state is disallowed").
type ReduceSpec struct {
	Name string
	Op   ReduceOp
}

func combine(op ReduceOp, a, b runtime.Value, convFmt string) runtime.Value {
	switch op {
	case ReduceSum:
		return runtime.Float(a.Float64() + b.Float64())
	case ReduceMin:
		if b.Float64() < a.Float64() {
			return b
		}
		return a
	case ReduceMax:
		if b.Float64() > a.Float64() {
			return b
		}
		return a
	case ReduceConcat:
		return runtime.Str(a.String(convFmt) + b.String(convFmt))
	default:
		return a
	}
}

// mergeGlobal folds one reduction global from every shard Machine into
// dst, visiting shards in index order so @reduce concat's result
// matches the driver's own input-chunk stdout ordering.
func mergeGlobal(dst *vm.Machine, shards []*vm.Machine, spec ReduceSpec) {
	if dstInt, dstStr, ok := dst.GlobalArray(spec.Name); ok {
		mergeArray(dst, shards, spec, dstInt, dstStr)
		return
	}
	// cur starts from dst's own value, which seedFromPrelude already set
	// to whatever BEGIN assigned: the usual AWK idiom of seeding an
	// accumulator in BEGIN (e.g. min = 1e300) becomes the fold's
	// identity element for free, the same way it would in a serial run.
	cur, ok := dst.GlobalScalar(spec.Name)
	if !ok {
		return
	}
	for _, sh := range shards {
		v, ok := sh.GlobalScalar(spec.Name)
		if !ok {
			continue
		}
		cur = combine(spec.Op, cur, v, dst.ConvFmt())
	}
	dst.SetGlobalScalar(spec.Name, cur)
}

// mergeArray folds an array-valued reduction global (the common case:
// @reduce sum counts[$1]++ across shards) key by key, starting from
// dst's own contents (BEGIN's values, as seedFromPrelude set them): a
// key neither BEGIN nor another shard set is copied as is, and a key
// already present is combined by the declared monoid.
func mergeArray(dst *vm.Machine, shards []*vm.Machine, spec ReduceSpec, dstInt *runtime.IntMap, dstStr *runtime.StrMap) {
	for _, sh := range shards {
		im, sm, ok := sh.GlobalArray(spec.Name)
		if !ok {
			continue
		}
		if im != nil && dstInt != nil {
			for _, k := range im.Keys() {
				v, _ := im.Get(k)
				if cur, had := dstInt.Get(k); had {
					v = combine(spec.Op, cur, v, dst.ConvFmt())
				}
				dstInt.Set(k, v)
			}
		}
		if sm != nil && dstStr != nil {
			for _, k := range sm.Keys() {
				v, _ := sm.Get(k)
				if cur, had := dstStr.Get(k); had {
					v = combine(spec.Op, cur, v, dst.ConvFmt())
				}
				dstStr.Set(k, v)
			}
		}
	}
}
