package pipeline

import "adherents/domain/membership"

// Dedupe keeps one record per (last name, first name): the one with the
// earliest start date. Equal start dates resolve to the first one seen, so
// callers sort ascending by start date beforehand. Groups come out in the
// order their first member appeared.
func Dedupe(records []membership.Record) []membership.Record {
	index := make(map[string]int, len(records))
	unique := make([]membership.Record, 0, len(records))

	for _, r := range records {
		key := r.Key()
		i, seen := index[key]
		if !seen {
			index[key] = len(unique)
			unique = append(unique, r)
			continue
		}
		if r.StartDate.Before(unique[i].StartDate) {
			unique[i] = r
		}
	}
	return unique
}
