package cel

import "time"

// registerTimeFuncs wires the Timestamp accessor methods, each with an
// optional IANA timezone-name argument (spec §4.5, supplemented from
// original_source/ uom handling).
func registerTimeFuncs(r *funcRegistry) {
	accessor := func(name string, get func(t time.Time) int64) {
		r.registerMethod(name, KindTimestamp, nil, func(recv CelValue, _ []CelValue) CelValue {
			return IntValue(get(recv.AsTimestamp()))
		})
		r.registerMethod(name, KindTimestamp, []ValueKind{KindString}, func(recv CelValue, a []CelValue) CelValue {
			t, errv := inZone(recv.AsTimestamp(), a[0].AsString())
			if errv.IsErr() {
				return errv
			}
			return IntValue(get(t))
		})
	}

	accessor("getFullYear", func(t time.Time) int64 { return int64(t.Year()) })
	accessor("getMonth", func(t time.Time) int64 { return int64(t.Month()) - 1 })
	accessor("getDate", func(t time.Time) int64 { return int64(t.Day()) })
	accessor("getDayOfMonth", func(t time.Time) int64 { return int64(t.Day()) - 1 })
	accessor("getDayOfYear", func(t time.Time) int64 { return int64(t.YearDay()) - 1 })
	accessor("getDayOfWeek", func(t time.Time) int64 { return int64(t.Weekday()) })
	accessor("getHours", func(t time.Time) int64 { return int64(t.Hour()) })
	accessor("getMinutes", func(t time.Time) int64 { return int64(t.Minute()) })
	accessor("getSeconds", func(t time.Time) int64 { return int64(t.Second()) })
	accessor("getMilliseconds", func(t time.Time) int64 { return int64(t.Nanosecond() / 1e6) })
}

func inZone(t time.Time, zone string) (time.Time, CelValue) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return time.Time{}, ErrValue(NewValueError("unknown timezone %q: %s", zone, err))
	}
	return t.In(loc), CelValue{}
}
