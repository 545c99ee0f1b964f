package models

import "time"

// ArtifactKind classifies a diagnostic file
type ArtifactKind string

const (
	ArtifactImage ArtifactKind = "image" // Failure screenshot (PNG)
	ArtifactVideo ArtifactKind = "video" // Session recording (MJPEG)
	ArtifactDOM   ArtifactKind = "dom"   // Page snapshot converted to markdown
)

// ArtifactRecord describes one file written during a test
type ArtifactRecord struct {
	Path      string       `json:"path"`
	Kind      ArtifactKind `json:"kind"`
	TestName  string       `json:"test_name"`
	ContextID string       `json:"context_id,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}
