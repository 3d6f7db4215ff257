package pipeline

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"adherents/adapters/datareadiness/coercer"
	"adherents/domain/membership"
)

// RecordBuilder maps raw rows onto membership records
type RecordBuilder struct {
	coercer *coercer.DateCoercer
}

// NewRecordBuilder creates a builder using c for the date columns
func NewRecordBuilder(c *coercer.DateCoercer) *RecordBuilder {
	return &RecordBuilder{coercer: c}
}

// Build returns the record described by row, or ok=false when a name is
// empty or a date is missing or unparseable. Names are kept verbatim.
func (b *RecordBuilder) Build(row membership.RawRow, mapping membership.ColumnMapping) (membership.Record, bool) {
	lastRaw, _ := row.Get(mapping.LastName)
	lastName, ok := nameValue(lastRaw)
	if !ok {
		return membership.Record{}, false
	}

	firstRaw, _ := row.Get(mapping.FirstName)
	firstName, ok := nameValue(firstRaw)
	if !ok {
		return membership.Record{}, false
	}

	startRaw, _ := row.Get(mapping.Start)
	start, ok := b.coercer.CoerceDate(startRaw)
	if !ok {
		return membership.Record{}, false
	}

	endRaw, _ := row.Get(mapping.End)
	end, ok := b.coercer.CoerceDate(endRaw)
	if !ok {
		return membership.Record{}, false
	}

	return membership.Record{
		LastName:  lastName,
		FirstName: firstName,
		StartDate: start,
		EndDate:   end,
	}, true
}

// nameValue renders a name cell; empty strings, zero and false count as missing
func nameValue(v interface{}) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, val != ""
	case float64:
		if val == 0 || math.IsNaN(val) {
			return "", false
		}
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int:
		return strconv.Itoa(val), val != 0
	case int64:
		return strconv.FormatInt(val, 10), val != 0
	case bool:
		return strconv.FormatBool(val), val
	case time.Time:
		return val.Format(time.RFC3339), !val.IsZero()
	default:
		s := fmt.Sprintf("%v", val)
		return s, s != ""
	}
}
