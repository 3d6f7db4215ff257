package pipeline

import (
	"sort"
	"time"

	"adherents/domain/membership"
)

// FilterActive keeps records whose membership covers asOf (inclusive)
func FilterActive(records []membership.Record, asOf time.Time) []membership.Record {
	active := make([]membership.Record, 0, len(records))
	for _, r := range records {
		if r.ActiveOn(asOf) {
			active = append(active, r)
		}
	}
	return active
}

// SortByStart orders records by ascending start date, keeping the relative
// order of equal start dates.
func SortByStart(records []membership.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].StartDate.Before(records[j].StartDate)
	})
}
