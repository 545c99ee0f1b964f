package common

import (
	"github.com/google/uuid"
)

// NewContextID generates a unique execution context ID with the "ctx_" prefix.
// Format: ctx_<uuid>. Recordings are named after it.
func NewContextID() string {
	return "ctx_" + uuid.New().String()
}
