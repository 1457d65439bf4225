package stdlib

import (
	"time"

	"zawk/internal/network"
	"zawk/internal/runtime"
	"zawk/internal/vm"
)

// addNetworkFuncs wires http_get/http_post/wsopen/wssend/wsrecv/wsclose
// to a shared network.Manager. http_get/http_post return the response
// body and set HTTPSTATUS as a side effect, the same way biMatch sets
// RSTART/RLENGTH: the status code doesn't fit either builtin's scalar
// return slot alongside the body, so it rides a predeclared global
// instead of inventing a second return channel.
func addNetworkFuncs(t map[string]vm.Builtin, net *network.Manager) {
	t["http_get"] = func(m *vm.Machine, args []runtime.Value) (runtime.Value, error) {
		url := arg(args, 0).String(m.ConvFmt())
		resp, err := net.Get(url, nil)
		if err != nil {
			m.SetGlobalNum("HTTPSTATUS", 0)
			return runtime.Str(""), nil
		}
		m.SetGlobalNum("HTTPSTATUS", float64(resp.Status))
		return runtime.Str(resp.Body), nil
	}
	t["http_post"] = func(m *vm.Machine, args []runtime.Value) (runtime.Value, error) {
		url := arg(args, 0).String(m.ConvFmt())
		body := arg(args, 1).String(m.ConvFmt())
		contentType := "application/octet-stream"
		if len(args) > 2 {
			contentType = args[2].String(m.ConvFmt())
		}
		resp, err := net.Post(url, body, contentType, nil)
		if err != nil {
			m.SetGlobalNum("HTTPSTATUS", 0)
			return runtime.Str(""), nil
		}
		m.SetGlobalNum("HTTPSTATUS", float64(resp.Status))
		return runtime.Str(resp.Body), nil
	}
	t["wsopen"] = func(m *vm.Machine, args []runtime.Value) (runtime.Value, error) {
		id := arg(args, 0).String(m.ConvFmt())
		url := arg(args, 1).String(m.ConvFmt())
		if err := net.WSOpen(id, url); err != nil {
			return runtime.Int(-1), nil
		}
		return runtime.Int(0), nil
	}
	t["wssend"] = func(m *vm.Machine, args []runtime.Value) (runtime.Value, error) {
		id := arg(args, 0).String(m.ConvFmt())
		msg := arg(args, 1).String(m.ConvFmt())
		if err := net.WSSend(id, msg); err != nil {
			return runtime.Int(-1), nil
		}
		return runtime.Int(0), nil
	}
	t["wsrecv"] = func(m *vm.Machine, args []runtime.Value) (runtime.Value, error) {
		id := arg(args, 0).String(m.ConvFmt())
		timeout := 30 * time.Second
		if len(args) > 1 {
			timeout = time.Duration(args[1].Float64() * float64(time.Second))
		}
		msg, err := net.WSRecv(id, timeout)
		if err != nil {
			return runtime.Str(""), nil
		}
		return runtime.Str(msg), nil
	}
	t["wsclose"] = func(m *vm.Machine, args []runtime.Value) (runtime.Value, error) {
		id := arg(args, 0).String(m.ConvFmt())
		if err := net.WSClose(id); err != nil {
			return runtime.Int(-1), nil
		}
		return runtime.Int(0), nil
	}
}
