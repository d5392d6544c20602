// Package normalize turns raw store documents into domain records.
//
// Nothing in this package returns an error: a value that cannot be resolved
// is reported as absent and the caller decides whether to drop the record.
package normalize

import (
	"encoding/json"
	"math"
	"strings"
	"time"
)

// maxEpochMillis bounds representable instants (±100,000,000 days).
const maxEpochMillis = 8_640_000_000_000_000

// layouts accepted for string timestamps, tried in order.
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

type timeGetter interface{ Time() time.Time }

type asTimer interface{ AsTime() time.Time }

// Timestamp resolves raw into epoch milliseconds. Accepted encodings: a time
// point (time.Time or anything with Time()/AsTime()), integer or float epoch
// milliseconds, an ISO-8601 string, or a {seconds, nanoseconds} map.
func Timestamp(raw any) (int64, bool) {
	switch v := raw.(type) {
	case nil:
		return 0, false
	case time.Time:
		return fromTime(v)
	case *time.Time:
		if v == nil {
			return 0, false
		}
		return fromTime(*v)
	case timeGetter:
		return fromTime(v.Time())
	case asTimer:
		return fromTime(v.AsTime())
	case string:
		return fromString(v)
	case map[string]any:
		return fromSecondsNanos(v)
	}
	if f, ok := Float(raw); ok {
		return fromMillis(f)
	}
	return 0, false
}

func fromTime(t time.Time) (int64, bool) {
	if t.IsZero() {
		return 0, false
	}
	return inRange(t.UnixMilli())
}

func fromMillis(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return inRange(int64(math.Trunc(f)))
}

func fromString(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return inRange(t.UnixMilli())
		}
	}
	return 0, false
}

func fromSecondsNanos(m map[string]any) (int64, bool) {
	secRaw, ok := m["seconds"]
	if !ok {
		secRaw, ok = m["_seconds"]
	}
	if !ok {
		return 0, false
	}
	sec, ok := Int(secRaw)
	if !ok {
		return 0, false
	}
	nanosRaw, ok := m["nanoseconds"]
	if !ok {
		nanosRaw = m["_nanoseconds"]
	}
	var nanos int64
	if nanosRaw != nil {
		n, ok := Int(nanosRaw)
		if !ok {
			return 0, false
		}
		nanos = n
	}
	if sec > maxEpochMillis/1000 || sec < -maxEpochMillis/1000 {
		return 0, false
	}
	return inRange(sec*1000 + nanos/int64(time.Millisecond))
}

func inRange(ms int64) (int64, bool) {
	if ms > maxEpochMillis || ms < -maxEpochMillis {
		return 0, false
	}
	return ms, true
}

// Float converts any numeric encoding to float64.
func Float(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

// Int converts any numeric encoding to int64, truncating fractions.
func Int(raw any) (int64, bool) {
	switch v := raw.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, true
		}
	}
	f, ok := Float(raw)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}
