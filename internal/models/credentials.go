package models

import (
	"fmt"
	"sort"
)

// Credential is one login for the target application
type Credential struct {
	Username string `toml:"username" yaml:"username" validate:"required"`
	Password string `toml:"password" yaml:"password" validate:"required"`
}

// CredentialSet maps role names (e.g. "RECRUITER") to logins.
// It is immutable once built; roles iterate in sorted order.
type CredentialSet struct {
	byRole map[string]Credential
	roles  []string
}

// NewCredentialSet copies the supplied mapping
func NewCredentialSet(users map[string]Credential) CredentialSet {
	cs := CredentialSet{byRole: make(map[string]Credential, len(users))}
	for role, cred := range users {
		cs.byRole[role] = cred
		cs.roles = append(cs.roles, role)
	}
	sort.Strings(cs.roles)
	return cs
}

// Roles returns the role names in deterministic order
func (cs CredentialSet) Roles() []string {
	out := make([]string, len(cs.roles))
	copy(out, cs.roles)
	return out
}

// Get returns the credential for a role
func (cs CredentialSet) Get(role string) (Credential, bool) {
	c, ok := cs.byRole[role]
	return c, ok
}

// Len returns the number of roles
func (cs CredentialSet) Len() int {
	return len(cs.roles)
}

// Only returns a set restricted to the given roles
func (cs CredentialSet) Only(roles ...string) (CredentialSet, error) {
	subset := make(map[string]Credential, len(roles))
	for _, role := range roles {
		c, ok := cs.byRole[role]
		if !ok {
			return CredentialSet{}, fmt.Errorf("no credentials configured for role %s", role)
		}
		subset[role] = c
	}
	return NewCredentialSet(subset), nil
}
