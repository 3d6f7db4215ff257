package coercer

import (
	"math"
	"strings"
	"time"
)

// DateCoercer turns raw spreadsheet cell values into calendar dates.
// It never panics or errors; failure is reported through the ok result.
type DateCoercer struct {
	config CoercionConfig
}

// CoercionConfig defines where dates are anchored and which string layouts are accepted
type CoercionConfig struct {
	Location *time.Location `json:"-"`
	Layouts  []string       `json:"layouts"` // tried in order
}

// DefaultLayouts are the string formats accepted for date cells
var DefaultLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"01/02/2006 15:04:05",
	"02-Jan-2006",
	"2 January 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	time.RFC1123Z,
	time.RFC1123,
}

// DefaultCoercionConfig returns sensible defaults
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		Location: time.Local,
		Layouts:  DefaultLayouts,
	}
}

// NewDateCoercer creates a coercer with the given config
func NewDateCoercer(config CoercionConfig) *DateCoercer {
	if config.Location == nil {
		config.Location = time.Local
	}
	if len(config.Layouts) == 0 {
		config.Layouts = DefaultLayouts
	}
	return &DateCoercer{config: config}
}

// Location returns the calendar location dates are interpreted in
func (c *DateCoercer) Location() *time.Location {
	return c.config.Location
}

// Epoch is day zero of spreadsheet serial dates (1899-12-30), which keeps the
// 1900 leap-year offset of spreadsheet applications.
func (c *DateCoercer) Epoch() time.Time {
	return time.Date(1899, time.December, 30, 0, 0, 0, 0, c.config.Location)
}

// CoerceDate converts a native date, numeric serial or date string.
// Empty and zero values, as well as unsupported types, yield ok=false.
func (c *DateCoercer) CoerceDate(rawValue interface{}) (time.Time, bool) {
	switch v := rawValue.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false
		}
		return v, true
	case *time.Time:
		if v == nil || v.IsZero() {
			return time.Time{}, false
		}
		return *v, true
	case string:
		return c.parseString(v)
	case float64:
		return c.fromSerial(v)
	case float32:
		return c.fromSerial(float64(v))
	case int:
		return c.fromSerial(float64(v))
	case int8:
		return c.fromSerial(float64(v))
	case int16:
		return c.fromSerial(float64(v))
	case int32:
		return c.fromSerial(float64(v))
	case int64:
		return c.fromSerial(float64(v))
	case uint:
		return c.fromSerial(float64(v))
	case uint8:
		return c.fromSerial(float64(v))
	case uint16:
		return c.fromSerial(float64(v))
	case uint32:
		return c.fromSerial(float64(v))
	case uint64:
		return c.fromSerial(float64(v))
	default:
		return time.Time{}, false
	}
}

// fromSerial adds serial days to the epoch. Whole days are calendar days;
// the fractional part becomes time of day.
func (c *DateCoercer) fromSerial(serial float64) (time.Time, bool) {
	if serial == 0 || math.IsNaN(serial) || math.IsInf(serial, 0) {
		return time.Time{}, false
	}
	// beyond 9999-12-31 no calendar date makes sense
	if math.Abs(serial) > 2958466 {
		return time.Time{}, false
	}

	days := math.Floor(serial)
	frac := serial - days
	t := c.Epoch().AddDate(0, 0, int(days))
	if frac > 0 {
		t = t.Add(time.Duration(math.Round(frac * float64(24*time.Hour))))
	}
	return t, true
}

func (c *DateCoercer) parseString(strVal string) (time.Time, bool) {
	trimmed := strings.TrimSpace(strVal)
	if trimmed == "" {
		return time.Time{}, false
	}

	for _, layout := range c.config.Layouts {
		if t, err := time.ParseInLocation(layout, trimmed, c.config.Location); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
