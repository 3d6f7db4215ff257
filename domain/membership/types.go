package membership

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"adherents/domain/core"
)

// keySeparator joins the identity fields. Control characters never occur in names.
const keySeparator = "\u0001"

// Record is one adherent with a bounded membership interval.
// Records are only built from rows carrying all four fields.
type Record struct {
	LastName  string    `json:"last_name"`
	FirstName string    `json:"first_name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// Key is the identity used for deduplication
func (r Record) Key() string {
	return r.LastName + keySeparator + r.FirstName
}

// NameLength counts the characters of last and first name together
func (r Record) NameLength() int {
	return utf8.RuneCountInString(r.LastName) + utf8.RuneCountInString(r.FirstName)
}

// ExceedsNameLimit reports whether the combined name is longer than limit
func (r Record) ExceedsNameLimit(limit int) bool {
	return r.NameLength() > limit
}

// ActiveOn reports whether the calendar day of asOf falls inside
// [StartDate, EndDate], both ends included.
func (r Record) ActiveOn(asOf time.Time) bool {
	day := core.DateKey(asOf)
	return core.DateKey(r.StartDate) <= day && day <= core.DateKey(r.EndDate)
}

// CSV renders the record as a semicolon separated export line (no terminator)
func (r Record) CSV() string {
	return strings.Join([]string{r.LastName, r.FirstName, core.FormatDate(r.StartDate), core.FormatDate(r.EndDate)}, ";")
}

// String renders "{last} {first} : {start} - {end}" for operator reports
func (r Record) String() string {
	return fmt.Sprintf("%s %s : %s - %s", r.LastName, r.FirstName, core.FormatDate(r.StartDate), core.FormatDate(r.EndDate))
}
