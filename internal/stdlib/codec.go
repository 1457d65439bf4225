package stdlib

import (
	"encoding/csv"
	"encoding/json"
	"strconv"
	"strings"

	"zawk/internal/errors"
	"zawk/internal/runtime"
	"zawk/internal/vm"
)

func addCodecFuncs(t map[string]vm.Builtin) {
	t["json_encode"] = biJSONEncode
	t["csv_encode"] = biCSVEncode
}

func addCodecArrayFuncs(t map[string]vm.ArrayOutBuiltin) {
	t["json_decode"] = biJSONDecode
	t["csv_decode"] = biCSVDecode
}

// valueToJSON renders one Value as the JSON primitive it looks like: a
// numeric string or number becomes a JSON number, everything else a
// JSON string, matching AWK's own string/number duality (spec §3)
// rather than always emitting a string.
func valueToJSON(v runtime.Value, convFmt string) interface{} {
	if v.Kind != runtime.KStr && v.Kind != runtime.KUninit {
		return v.Float64()
	}
	if v.NumLooksNumeric() && v.String(convFmt) != "" {
		return v.Float64()
	}
	return v.String(convFmt)
}

// biJSONEncode renders a single argument as one JSON value and several
// arguments as a JSON array of values; each scalar keeps its numeric-vs-string
// identity per valueToJSON.
func biJSONEncode(m *vm.Machine, args []runtime.Value) (runtime.Value, error) {
	if len(args) == 1 {
		b, err := json.Marshal(valueToJSON(args[0], m.ConvFmt()))
		if err != nil {
			return runtime.Uninit, errors.Runtimef(errors.Builtin, errors.Location{}, "json_encode: %s", err)
		}
		return runtime.Str(string(b)), nil
	}
	vals := make([]interface{}, len(args))
	for i, a := range args {
		vals[i] = valueToJSON(a, m.ConvFmt())
	}
	b, err := json.Marshal(vals)
	if err != nil {
		return runtime.Uninit, errors.Runtimef(errors.Builtin, errors.Location{}, "json_encode: %s", err)
	}
	return runtime.Str(string(b)), nil
}

// biJSONDecode decodes a JSON document into a flat destination array:
// a top-level JSON object fills arr[key], a top-level array fills
// arr[1..n]; a nested object/array value is re-encoded back to its own
// JSON text rather than flattened further, since zawk arrays only hold
// scalar cells. Returns the number of entries written.
func biJSONDecode(m *vm.Machine, args []runtime.Value) (runtime.Value, []vm.ArrayEntry, error) {
	text := arg(args, 0).String(m.ConvFmt())
	var doc interface{}
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return runtime.Int(-1), nil, nil
	}
	var entries []vm.ArrayEntry
	switch v := doc.(type) {
	case map[string]interface{}:
		for k, val := range v {
			entries = append(entries, vm.ArrayEntry{Key: k, Val: jsonToValue(val)})
		}
	case []interface{}:
		for i, val := range v {
			entries = append(entries, vm.ArrayEntry{IntKey: int64(i + 1), Key: strconv.Itoa(i + 1), Val: jsonToValue(val)})
		}
	default:
		entries = append(entries, vm.ArrayEntry{IntKey: 1, Key: "1", Val: jsonToValue(v)})
	}
	return runtime.Int(int64(len(entries))), entries, nil
}

func jsonToValue(v interface{}) runtime.Value {
	switch x := v.(type) {
	case nil:
		return runtime.Str("")
	case string:
		return runtime.Str(x)
	case float64:
		return runtime.Float(x)
	case bool:
		if x {
			return runtime.Int(1)
		}
		return runtime.Int(0)
	default:
		b, _ := json.Marshal(x)
		return runtime.Str(string(b))
	}
}

// biCSVEncode renders its arguments as one RFC 4180 record.
func biCSVEncode(m *vm.Machine, args []runtime.Value) (runtime.Value, error) {
	fields := make([]string, len(args))
	for i, a := range args {
		fields[i] = a.String(m.ConvFmt())
	}
	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.Write(fields); err != nil {
		return runtime.Uninit, errors.Runtimef(errors.Builtin, errors.Location{}, "csv_encode: %s", err)
	}
	w.Flush()
	return runtime.Str(strings.TrimRight(b.String(), "\r\n")), nil
}

// biCSVDecode splits one RFC 4180 record into arr[1..n].
func biCSVDecode(m *vm.Machine, args []runtime.Value) (runtime.Value, []vm.ArrayEntry, error) {
	text := arg(args, 0).String(m.ConvFmt())
	r := csv.NewReader(strings.NewReader(text))
	fields, err := r.Read()
	if err != nil {
		return runtime.Int(-1), nil, nil
	}
	entries := make([]vm.ArrayEntry, len(fields))
	for i, f := range fields {
		entries[i] = vm.ArrayEntry{IntKey: int64(i + 1), Key: strconv.Itoa(i + 1), Val: runtime.Str(f)}
	}
	return runtime.Int(int64(len(fields))), entries, nil
}
