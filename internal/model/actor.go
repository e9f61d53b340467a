package model

import "strings"

type Role string

const (
	RoleReader     Role = "Reader"
	RoleJournalist Role = "Journalist"
	RoleEditor     Role = "Editor"
)

// Roles is the closed set of roles an actor can hold.
var Roles = []Role{RoleReader, RoleJournalist, RoleEditor}

// ParseRole accepts a role name in any letter case.
func ParseRole(s string) (Role, bool) {
	for _, r := range Roles {
		if strings.EqualFold(strings.TrimSpace(s), string(r)) {
			return r, true
		}
	}
	return "", false
}

// Valid reports whether r is one of Roles.
func (r Role) Valid() bool {
	switch r {
	case RoleReader, RoleJournalist, RoleEditor:
		return true
	}
	return false
}

// Actor is an authenticated user record as handed over by the identity provider.
type Actor struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}

// Publisher is an organisation journalists and editors can be affiliated with.
type Publisher struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
