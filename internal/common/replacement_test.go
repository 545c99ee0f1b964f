package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/talentcheck/internal/models"
)

func mapLookup(m map[string]string) LookupFunc {
	return func(name string) (string, bool) {
		v, ok := m[name]
		return v, ok
	}
}

func TestReplaceKeyReferences(t *testing.T) {
	lookup := mapLookup(map[string]string{
		"RECRUITER_PASSWORD": "s3cret",
		"domain":             "example.com",
		"key1":               "val1",
	})

	tests := []struct {
		name       string
		input      string
		expected   string
		unresolved []string
	}{
		{"simple", "{RECRUITER_PASSWORD}", "s3cret", nil},
		{"embedded", "recruiter@{domain}", "recruiter@example.com", nil},
		{"repeated", "{key1}-{key1}", "val1-val1", nil},
		{"missing", "{NOPE}", "{NOPE}", []string{"NOPE"}},
		{"mixed", "{key1}:{NOPE}:{ALSO}", "val1:{NOPE}:{ALSO}", []string{"NOPE", "ALSO"}},
		{"invalid syntax", "{not a key}", "{not a key}", nil},
		{"empty", "", "", nil},
		{"no references", "plain-password", "plain-password", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, unresolved := ReplaceKeyReferences(tt.input, lookup)
			assert.Equal(t, tt.expected, result)
			assert.Equal(t, tt.unresolved, unresolved)
		})
	}
}

func TestResolveCredential(t *testing.T) {
	lookup := mapLookup(map[string]string{"RECRUITER_PASSWORD": "s3cret"})

	cred, err := resolveCredential(models.Credential{Username: "recruiter@example.com", Password: "{RECRUITER_PASSWORD}"}, lookup)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cred.Password)
	assert.Equal(t, "recruiter@example.com", cred.Username)

	_, err = resolveCredential(models.Credential{Username: "admin@example.com", Password: "{ADMIN_PASSWORD}"}, lookup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "{ADMIN_PASSWORD} in password")

	_, err = resolveCredential(models.Credential{Username: "{ADMIN_USER}", Password: "x"}, lookup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "{ADMIN_USER} in username")
}
