package params

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Timeframe is a chart aggregation interval. The value is the duration in minutes,
// so ordering timeframes by value orders them by duration.
type Timeframe int

const (
	M1  Timeframe = 1
	M2  Timeframe = 2
	M3  Timeframe = 3
	M4  Timeframe = 4
	M5  Timeframe = 5
	M6  Timeframe = 6
	M10 Timeframe = 10
	M12 Timeframe = 12
	M15 Timeframe = 15
	M20 Timeframe = 20
	M30 Timeframe = 30
	H1  Timeframe = 60
	H2  Timeframe = 120
	H3  Timeframe = 180
	H4  Timeframe = 240
	H6  Timeframe = 360
	H8  Timeframe = 480
	H12 Timeframe = 720
	D1  Timeframe = 1440
	W1  Timeframe = 10080
	MN1 Timeframe = 43200
)

var timeframeNames = map[Timeframe]string{
	M1: "M1", M2: "M2", M3: "M3", M4: "M4", M5: "M5", M6: "M6", M10: "M10", M12: "M12",
	M15: "M15", M20: "M20", M30: "M30",
	H1: "H1", H2: "H2", H3: "H3", H4: "H4", H6: "H6", H8: "H8", H12: "H12",
	D1: "D1", W1: "W1", MN1: "MN1",
}

// Timeframes returns every supported timeframe, shortest first
func Timeframes() []Timeframe {
	return []Timeframe{M1, M2, M3, M4, M5, M6, M10, M12, M15, M20, M30, H1, H2, H3, H4, H6, H8, H12, D1, W1, MN1}
}

// Valid reports whether tf is one of the enumerated timeframes
func (tf Timeframe) Valid() bool {
	_, ok := timeframeNames[tf]
	return ok
}

// String returns the platform name, e.g. "H1"
func (tf Timeframe) String() string {
	if name, ok := timeframeNames[tf]; ok {
		return name
	}
	return fmt.Sprintf("Timeframe(%d)", int(tf))
}

// Duration returns the nominal bar length. MN1 counts as 30 days.
func (tf Timeframe) Duration() time.Duration {
	return time.Duration(tf) * time.Minute
}

// MarshalText implements encoding.TextMarshaler
func (tf Timeframe) MarshalText() ([]byte, error) {
	if !tf.Valid() {
		return nil, fmt.Errorf("invalid timeframe %d", int(tf))
	}
	return []byte(tf.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (tf *Timeframe) UnmarshalText(b []byte) error {
	parsed, err := ParseTimeframe(string(b))
	if err != nil {
		return err
	}
	*tf = parsed
	return nil
}

// ParseTimeframe accepts platform names ("M15", "PERIOD_M15") and interval
// strings ("15m", "1h", "4h", "1d", "1w", "1M").
func ParseTimeframe(s string) (Timeframe, error) {
	raw := strings.TrimSpace(s)
	upper := strings.TrimPrefix(strings.ToUpper(raw), "PERIOD_")
	for tf, name := range timeframeNames {
		if upper == name {
			return tf, nil
		}
	}

	if len(raw) >= 2 {
		unit := raw[len(raw)-1]
		n, err := strconv.Atoi(raw[:len(raw)-1])
		if err == nil && n > 0 {
			var minutes int
			switch unit {
			case 'm':
				minutes = n
			case 'h', 'H':
				minutes = n * 60
			case 'd', 'D':
				minutes = n * 1440
			case 'w', 'W':
				minutes = n * 10080
			case 'M':
				minutes = n * 43200
			}
			if tf := Timeframe(minutes); tf.Valid() {
				return tf, nil
			}
		}
	}
	return 0, fmt.Errorf("unknown timeframe %q", s)
}
