package artifacts

import "fmt"

// ArtifactIOError is a failed screenshot/video/snapshot write or delete.
// Callers log it; it never fails the test that produced it.
type ArtifactIOError struct {
	Op   string
	Path string
	Err  error
}

func (e *ArtifactIOError) Error() string {
	return fmt.Sprintf("artifact %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ArtifactIOError) Unwrap() error {
	return e.Err
}
