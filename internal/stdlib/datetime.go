package stdlib

import (
	"fmt"
	"strings"
	"time"

	"zawk/internal/runtime"
	"zawk/internal/vm"
)

func addDateTimeFuncs(t map[string]vm.Builtin) {
	t["strftime"] = biStrftime
	t["mktime"] = biMktime
	t["systime"] = biSystime
}

func biSystime(m *vm.Machine, args []runtime.Value) (runtime.Value, error) {
	return runtime.Int(time.Now().Unix()), nil
}

// biMktime parses gawk's mktime() spec string ("YYYY MM DD HH MM SS"
// and an optional trailing DST flag, which zawk ignores since Go's
// time.Date always resolves DST from the zone itself) into a Unix
// timestamp in local time, returning -1 on a malformed spec.
func biMktime(m *vm.Machine, args []runtime.Value) (runtime.Value, error) {
	spec := arg(args, 0).String(m.ConvFmt())
	var y, mo, d, h, mi, s int
	n, err := fmt.Sscanf(spec, "%d %d %d %d %d %d", &y, &mo, &d, &h, &mi, &s)
	if err != nil || n < 6 {
		return runtime.Int(-1), nil
	}
	t := time.Date(y, time.Month(mo), d, h, mi, s, 0, time.Local)
	return runtime.Int(t.Unix()), nil
}

func biStrftime(m *vm.Machine, args []runtime.Value) (runtime.Value, error) {
	format := "%a %b %e %H:%M:%S %Z %Y"
	if len(args) > 0 {
		format = args[0].String(m.ConvFmt())
	}
	ts := time.Now()
	if len(args) > 1 {
		ts = time.Unix(arg(args, 1).Int64(), 0)
	}
	return runtime.Str(strftime(format, ts)), nil
}

// strftime translates the C strftime directives awk scripts actually
// use into their formatted values; an unrecognized %-directive passes
// through literally rather than erroring, matching gawk's own leniency.
func strftime(format string, t time.Time) string {
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 >= len(format) {
			b.WriteByte(c)
			continue
		}
		i++
		switch format[i] {
		case 'Y':
			fmt.Fprintf(&b, "%04d", t.Year())
		case 'y':
			fmt.Fprintf(&b, "%02d", t.Year()%100)
		case 'm':
			fmt.Fprintf(&b, "%02d", int(t.Month()))
		case 'd':
			fmt.Fprintf(&b, "%02d", t.Day())
		case 'e':
			fmt.Fprintf(&b, "%2d", t.Day())
		case 'H':
			fmt.Fprintf(&b, "%02d", t.Hour())
		case 'I':
			h := t.Hour() % 12
			if h == 0 {
				h = 12
			}
			fmt.Fprintf(&b, "%02d", h)
		case 'M':
			fmt.Fprintf(&b, "%02d", t.Minute())
		case 'S':
			fmt.Fprintf(&b, "%02d", t.Second())
		case 'p':
			if t.Hour() < 12 {
				b.WriteString("AM")
			} else {
				b.WriteString("PM")
			}
		case 'j':
			fmt.Fprintf(&b, "%03d", t.YearDay())
		case 'A':
			b.WriteString(t.Weekday().String())
		case 'a':
			b.WriteString(t.Weekday().String()[:3])
		case 'B':
			b.WriteString(t.Month().String())
		case 'b', 'h':
			b.WriteString(t.Month().String()[:3])
		case 'Z':
			name, _ := t.Zone()
			b.WriteString(name)
		case 'z':
			b.WriteString(t.Format("-0700"))
		case 'T':
			fmt.Fprintf(&b, "%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
		case 'F':
			fmt.Fprintf(&b, "%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case '%':
			b.WriteByte('%')
		default:
			b.WriteByte('%')
			b.WriteByte(format[i])
		}
	}
	return b.String()
}
