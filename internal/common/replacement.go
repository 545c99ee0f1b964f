// Package common provides {NAME} reference replacement for credential values.
//
// A credentials entry may hold a reference instead of a literal secret:
//
//	password = "{RECRUITER_PASSWORD}"
//
// References resolve through a lookup (os.LookupEnv for credentials).
// Replacement is case-sensitive and unresolved references are left intact.
package common

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ternarybob/talentcheck/internal/models"
)

// keyRefPattern matches {key-name} references.
// Allows alphanumeric characters, hyphens, and underscores.
var keyRefPattern = regexp.MustCompile(`\{([a-zA-Z0-9_-]+)\}`)

// LookupFunc resolves a reference name
type LookupFunc func(name string) (string, bool)

// ReplaceKeyReferences replaces every {name} in input and returns the names
// that could not be resolved, in order of appearance.
func ReplaceKeyReferences(input string, lookup LookupFunc) (string, []string) {
	if input == "" || !strings.Contains(input, "{") {
		return input, nil
	}

	var unresolved []string
	result := keyRefPattern.ReplaceAllStringFunc(input, func(match string) string {
		name := match[1 : len(match)-1]
		if value, ok := lookup(name); ok {
			return value
		}
		unresolved = append(unresolved, name)
		return match
	})
	return result, unresolved
}

// resolveCredential expands {NAME} references in one credential.
// The first unresolved reference is returned as an error.
func resolveCredential(cred models.Credential, lookup LookupFunc) (models.Credential, error) {
	username, missing := ReplaceKeyReferences(cred.Username, lookup)
	if len(missing) > 0 {
		return models.Credential{}, fmt.Errorf("unresolved reference {%s} in username", missing[0])
	}
	password, missing := ReplaceKeyReferences(cred.Password, lookup)
	if len(missing) > 0 {
		return models.Credential{}, fmt.Errorf("unresolved reference {%s} in password", missing[0])
	}
	return models.Credential{Username: username, Password: password}, nil
}
