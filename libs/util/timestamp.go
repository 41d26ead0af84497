package util

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"time"
)

const isoMillisLayout = "2006-01-02T15:04:05.000Z"

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Timestamp метка времени из телеметрии: миллисекунды эпохи или строка ISO-8601.
//
// Отличает отсутствующее значение (null или нет ключа) от присутствующего,
// но нераспознанного. Нераспознанное значение никогда не приводит к ошибке.
type Timestamp struct {
	t     time.Time
	set   bool
	valid bool
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t: t, set: true, valid: !t.IsZero()}
}

// maxEpochMillis граница представимых дат: ±100 000 000 суток от эпохи.
const maxEpochMillis = 8.64e15

// TimestampFromMillis ноль, нечисловые значения и выход за maxEpochMillis считаются нераспознанными.
func TimestampFromMillis(ms float64) Timestamp {
	if ms == 0 || math.IsNaN(ms) || math.Abs(ms) > maxEpochMillis {
		return Timestamp{set: true}
	}
	sec := math.Floor(ms / 1000)
	nsec := math.Round((ms - sec*1000) * float64(time.Millisecond))
	return Timestamp{t: time.Unix(int64(sec), int64(nsec)).UTC(), set: true, valid: true}
}

// ParseTimestamp строки без зоны трактуются как UTC.
func ParseTimestamp(s string) Timestamp {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{set: true}
	}

	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return Timestamp{t: t, set: true, valid: true}
		}
	}

	return Timestamp{set: true}
}

func (ts Timestamp) Time() (time.Time, bool) {
	return ts.t, ts.valid
}

// IsSet значение присутствовало во входных данных, пусть даже нераспознанное.
func (ts Timestamp) IsSet() bool {
	return ts.set
}

func (ts Timestamp) Valid() bool {
	return ts.valid
}

// Millis миллисекунды эпохи; 0 для нераспознанного значения.
func (ts Timestamp) Millis() int64 {
	if !ts.valid {
		return 0
	}
	return ts.t.UnixMilli()
}

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	*ts = Timestamp{}

	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*ts = Timestamp{set: true}
			return nil
		}
		*ts = ParseTimestamp(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		f, err := json.Number(b).Float64()
		if err != nil {
			*ts = Timestamp{set: true}
			return nil
		}
		*ts = TimestampFromMillis(f)
	default:
		*ts = Timestamp{set: true}
	}

	return nil
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if !ts.valid {
		return []byte("null"), nil
	}
	return json.Marshal(FormatISO(ts.t))
}

// FormatISO форматирует время в UTC с миллисекундами: 2025-01-01T11:30:00.000Z.
func FormatISO(t time.Time) string {
	return t.UTC().Format(isoMillisLayout)
}
