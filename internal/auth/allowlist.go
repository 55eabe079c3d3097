package auth

import (
	"strings"
)

// Policy decides whether an authenticated identity may use the internal
// finance endpoints. It exists as a single injected object so the set of
// permitted identities has one source of truth.
type Policy interface {
	IsAuthorized(email string) bool
}

// AllowList is a fixed set of permitted identity emails, matched
// case-insensitively.
type AllowList struct {
	emails map[string]bool
}

// NewAllowList builds an allow-list from a slice of emails. Blank entries
// are ignored.
func NewAllowList(emails []string) *AllowList {
	set := make(map[string]bool, len(emails))
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			set[e] = true
		}
	}
	return &AllowList{emails: set}
}

// ParseAllowList builds an allow-list from a comma-separated string, the
// form it takes as a flag or environment variable.
func ParseAllowList(csv string) *AllowList {
	return NewAllowList(strings.Split(csv, ","))
}

// IsAuthorized implements Policy.
func (a *AllowList) IsAuthorized(email string) bool {
	return a.emails[strings.ToLower(strings.TrimSpace(email))]
}

// Len reports how many identities are allow-listed.
func (a *AllowList) Len() int {
	return len(a.emails)
}

var _ Policy = (*AllowList)(nil)
