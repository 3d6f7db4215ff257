package mapping

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"adherents/domain/membership"
)

// shortTerm is the longest term that must match a whole word. "nom" or
// "end" would otherwise hit "Nombre d'enfants" or "Gender".
const shortTerm = 3

// RoleTerms lists lower-case header fragments that hint at a role
type RoleTerms struct {
	Role  membership.Role
	Terms []string
}

// DefaultTerms covers French and English headers. First name comes before
// last name so "first name" never reads as a last name.
var DefaultTerms = []RoleTerms{
	{Role: membership.RoleFirstName, Terms: []string{"prénom", "prenom", "first name", "firstname", "first_name", "given name"}},
	{Role: membership.RoleLastName, Terms: []string{"nom", "last name", "lastname", "last_name", "surname", "family name"}},
	{Role: membership.RoleStart, Terms: []string{"début", "debut", "start", "since"}},
	{Role: membership.RoleEnd, Terms: []string{"expiration", "fin", "end", "expiry", "expires"}},
}

// Suggester guesses a column mapping from header names
type Suggester struct {
	terms []RoleTerms
}

// NewSuggester creates a suggester; nil terms means DefaultTerms
func NewSuggester(terms []RoleTerms) *Suggester {
	if terms == nil {
		terms = DefaultTerms
	}
	return &Suggester{terms: terms}
}

// Suggest assigns each header to the first role whose terms it contains,
// case-insensitively. Terms of up to three letters must be a whole word of
// the header. When several headers match a role the last one wins.
func (s *Suggester) Suggest(headers []string) membership.ColumnMapping {
	var m membership.ColumnMapping
	for _, h := range headers {
		if role, ok := s.classify(h); ok {
			m = m.With(role, h)
		}
	}
	return m
}

func (s *Suggester) classify(header string) (membership.Role, bool) {
	lower := strings.ToLower(header)
	padded := " " + words(lower) + " "
	for _, rt := range s.terms {
		for _, term := range rt.Terms {
			if strings.Contains(padded, " "+words(term)+" ") {
				return rt.Role, true
			}
			if utf8.RuneCountInString(term) > shortTerm && strings.Contains(lower, term) {
				return rt.Role, true
			}
		}
	}
	return "", false
}

// words splits s on anything that is not a letter and rejoins with spaces
func words(s string) string {
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool { return !unicode.IsLetter(r) }), " ")
}
