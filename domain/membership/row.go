package membership

import "sort"

// RawRow maps a header to its cell value (string, float64 or time.Time).
// Rows decoded from the same sheet may carry different keys.
type RawRow map[string]interface{}

// Get looks up a header; absent keys yield (nil, false).
func (r RawRow) Get(header string) (interface{}, bool) {
	if r == nil || header == "" {
		return nil, false
	}
	v, ok := r[header]
	return v, ok
}

// SheetData is one decoded sheet
type SheetData struct {
	Name    string   `json:"name"`
	Headers []string `json:"headers"`
	Rows    []RawRow `json:"-"`
}

// HeadersOf returns the union of keys across rows in first-seen order.
// Within a row, keys follow columns (the sheet's column order); keys not in
// columns come after them, sorted. Columns that no row fills are left out.
func HeadersOf(columns []string, rows []RawRow) []string {
	seen := make(map[string]bool)
	var headers []string
	add := func(h string) {
		if h == "" || seen[h] {
			return
		}
		seen[h] = true
		headers = append(headers, h)
	}

	inColumns := make(map[string]bool, len(columns))
	for _, h := range columns {
		inColumns[h] = true
	}

	for _, row := range rows {
		for _, h := range columns {
			if _, ok := row[h]; ok {
				add(h)
			}
		}
		var extra []string
		for h := range row {
			if !inColumns[h] && !seen[h] {
				extra = append(extra, h)
			}
		}
		sort.Strings(extra)
		for _, h := range extra {
			add(h)
		}
	}
	return headers
}
