package stdlib

import (
	"os"
	"os/exec"

	"zawk/internal/errors"
	"zawk/internal/runtime"
	"zawk/internal/vm"
)

func addIOFuncs(t map[string]vm.Builtin) {
	t["system"] = biSystem
	t["close"] = biClose
	t["fflush"] = biFflush
}

// biSystem flushes zawk's own output first so a shelled-out command's
// output interleaves in the right order, then runs it through the
// shell the way awk's system() always has.
func biSystem(m *vm.Machine, args []runtime.Value) (runtime.Value, error) {
	if err := m.FlushOutput(); err != nil {
		return runtime.Uninit, errors.Wrap(err, "run", errors.Location{})
	}
	m.IOTable().FlushAll()
	cmdline := arg(args, 0).String(m.ConvFmt())
	cmd := exec.Command("sh", "-c", cmdline)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	err := cmd.Run()
	if err == nil {
		return runtime.Int(0), nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return runtime.Int(int64(exitErr.ExitCode())), nil
	}
	return runtime.Int(-1), nil
}

func biClose(m *vm.Machine, args []runtime.Value) (runtime.Value, error) {
	name := arg(args, 0).String(m.ConvFmt())
	return runtime.Int(int64(m.IOTable().Close(name))), nil
}

func biFflush(m *vm.Machine, args []runtime.Value) (runtime.Value, error) {
	if err := m.FlushOutput(); err != nil {
		return runtime.Uninit, errors.Wrap(err, "run", errors.Location{})
	}
	if len(args) == 0 {
		m.IOTable().FlushAll()
		return runtime.Int(0), nil
	}
	name := args[0].String(m.ConvFmt())
	return runtime.Int(int64(m.IOTable().Flush(name))), nil
}
