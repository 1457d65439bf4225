package stdlib

import (
	"math"
	"time"

	"zawk/internal/runtime"
	"zawk/internal/vm"
)

func addMathFuncs(t map[string]vm.Builtin) {
	t["sin"] = unaryFloat(math.Sin)
	t["cos"] = unaryFloat(math.Cos)
	t["exp"] = unaryFloat(math.Exp)
	t["log"] = unaryFloat(math.Log)
	t["sqrt"] = unaryFloat(math.Sqrt)
	t["atan2"] = biAtan2
	t["int"] = biInt
	t["rand"] = biRand
	t["srand"] = biSrand
}

func unaryFloat(f func(float64) float64) vm.Builtin {
	return func(m *vm.Machine, args []runtime.Value) (runtime.Value, error) {
		return runtime.Float(f(arg(args, 0).Float64())), nil
	}
}

func biAtan2(m *vm.Machine, args []runtime.Value) (runtime.Value, error) {
	return runtime.Float(math.Atan2(arg(args, 0).Float64(), arg(args, 1).Float64())), nil
}

func biInt(m *vm.Machine, args []runtime.Value) (runtime.Value, error) {
	return runtime.Int(int64(arg(args, 0).Float64())), nil
}

func biRand(m *vm.Machine, args []runtime.Value) (runtime.Value, error) {
	return runtime.Float(m.PRNG().Float()), nil
}

// biSrand seeds the PRNG and returns the previous seed, per AWK's
// srand(); called with no argument it reseeds from the current time.
func biSrand(m *vm.Machine, args []runtime.Value) (runtime.Value, error) {
	var seed int64
	if len(args) > 0 {
		seed = arg(args, 0).Int64()
	} else {
		seed = time.Now().UnixNano()
	}
	return runtime.Int(m.PRNG().Seed(seed)), nil
}
