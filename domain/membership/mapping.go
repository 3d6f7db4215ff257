package membership

import "fmt"

// Role is the semantic meaning a source column can be assigned
type Role string

const (
	RoleLastName  Role = "last_name"
	RoleFirstName Role = "first_name"
	RoleStart     Role = "start"
	RoleEnd       Role = "end"
)

// Roles lists every role in display order
var Roles = []Role{RoleLastName, RoleFirstName, RoleStart, RoleEnd}

// ParseRole parses a role name
func ParseRole(s string) (Role, error) {
	for _, r := range Roles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// ColumnMapping names the source header supplying each role.
// An empty string means the role is not assigned yet.
type ColumnMapping struct {
	LastName  string `json:"last_name" db:"last_name"`
	FirstName string `json:"first_name" db:"first_name"`
	Start     string `json:"start" db:"start_col"`
	End       string `json:"end" db:"end_col"`
}

// Header returns the header assigned to role
func (m ColumnMapping) Header(role Role) string {
	switch role {
	case RoleLastName:
		return m.LastName
	case RoleFirstName:
		return m.FirstName
	case RoleStart:
		return m.Start
	case RoleEnd:
		return m.End
	}
	return ""
}

// With returns a copy of m with role assigned to header
func (m ColumnMapping) With(role Role, header string) ColumnMapping {
	switch role {
	case RoleLastName:
		m.LastName = header
	case RoleFirstName:
		m.FirstName = header
	case RoleStart:
		m.Start = header
	case RoleEnd:
		m.End = header
	}
	return m
}

// Complete reports whether all four roles are assigned
func (m ColumnMapping) Complete() bool {
	return m.LastName != "" && m.FirstName != "" && m.Start != "" && m.End != ""
}

// Missing lists roles without a header
func (m ColumnMapping) Missing() []Role {
	var missing []Role
	for _, r := range Roles {
		if m.Header(r) == "" {
			missing = append(missing, r)
		}
	}
	return missing
}

// Merge overlays the assigned roles of override onto m
func (m ColumnMapping) Merge(override ColumnMapping) ColumnMapping {
	for _, r := range Roles {
		if h := override.Header(r); h != "" {
			m = m.With(r, h)
		}
	}
	return m
}

// CoveredBy reports whether every assigned header is present in headers
func (m ColumnMapping) CoveredBy(headers []string) bool {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}
	for _, r := range Roles {
		if h := m.Header(r); h != "" && !present[h] {
			return false
		}
	}
	return true
}
