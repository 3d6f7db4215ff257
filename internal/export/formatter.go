package export

import (
	"strings"
	"time"

	"adherents/domain/core"
	"adherents/domain/membership"
)

const (
	// DefaultBannerLabel fills the two label fields of the provenance line
	DefaultBannerLabel = "Base de données"
	// DefaultNameLimit is the longest combined name the chat display accepts
	DefaultNameLimit = 32
	// DefaultFilename is used when the caller does not pick one
	DefaultFilename = "adherent.csv"

	overflowStatusPrefix = "Exportation terminée avec des erreurs de nom trop longs pour Discord :"
)

// Config controls the export rendering
type Config struct {
	BannerLabel string `json:"banner_label"`
	NameLimit   int    `json:"name_limit"`
}

// DefaultConfig returns the production rendering
func DefaultConfig() Config {
	return Config{BannerLabel: DefaultBannerLabel, NameLimit: DefaultNameLimit}
}

// Result is the rendered export and the records flagged for review
type Result struct {
	Payload  string              `json:"payload"`
	Overflow []membership.Record `json:"overflow"`
}

// Formatter renders record sets as the semicolon separated export
type Formatter struct {
	config Config
}

// NewFormatter creates a formatter
func NewFormatter(config Config) *Formatter {
	if config.BannerLabel == "" {
		config.BannerLabel = DefaultBannerLabel
	}
	if config.NameLimit <= 0 {
		config.NameLimit = DefaultNameLimit
	}
	return &Formatter{config: config}
}

// Format writes a banner line then one line per record, in the given order.
// Records whose combined name exceeds the limit are exported too and also
// listed in Overflow.
func (f *Formatter) Format(records []membership.Record, generatedOn time.Time) Result {
	var b strings.Builder
	generated := core.FormatDate(generatedOn)
	b.WriteString(strings.Join([]string{f.config.BannerLabel, f.config.BannerLabel, generated, generated}, ";"))
	b.WriteByte('\n')

	var overflow []membership.Record
	for _, r := range records {
		if r.ExceedsNameLimit(f.config.NameLimit) {
			overflow = append(overflow, r)
		}
		b.WriteString(r.CSV())
		b.WriteByte('\n')
	}

	return Result{Payload: b.String(), Overflow: overflow}
}

// OverflowReport lists flagged records, one "{last} {first} : {start} - {end}" line each
func (r Result) OverflowReport() string {
	var b strings.Builder
	for _, rec := range r.Overflow {
		b.WriteString(rec.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// StatusMessage is the operator warning for flagged names, empty when there are none
func (r Result) StatusMessage() string {
	if len(r.Overflow) == 0 {
		return ""
	}
	return overflowStatusPrefix + "\n" + r.OverflowReport() + "\n"
}
