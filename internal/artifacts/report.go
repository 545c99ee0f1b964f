package artifacts

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/ternarybob/talentcheck/internal/common"
	"github.com/ternarybob/talentcheck/internal/models"
)

// Report collects failure artifacts for the host runner's report directory.
// A nil *Report is valid and ignores every call.
type Report struct {
	dir    string
	logger *common.Logger

	mu      sync.Mutex
	entries []models.ArtifactRecord
}

// NewReport returns nil when dir is empty
func NewReport(dir string, logger *common.Logger) *Report {
	if dir == "" {
		return nil
	}
	return &Report{dir: dir, logger: logger}
}

// Dir returns the report root
func (r *Report) Dir() string {
	if r == nil {
		return ""
	}
	return r.dir
}

// AttachmentsDir returns <dir>/attachments
func (r *Report) AttachmentsDir() string {
	if r == nil {
		return ""
	}
	return filepath.Join(r.dir, "attachments")
}

// Attach copies an artifact into the attachments directory.
// The returned record points at the copy.
func (r *Report) Attach(record models.ArtifactRecord) (models.ArtifactRecord, error) {
	if r == nil {
		return record, nil
	}

	dst := filepath.Join(r.AttachmentsDir(), filepath.Base(record.Path))
	if err := copyFile(record.Path, dst); err != nil {
		return record, err
	}

	attached := record
	attached.Path = dst

	r.mu.Lock()
	r.entries = append(r.entries, attached)
	r.mu.Unlock()

	r.logger.Debug().
		Str("source", record.Path).
		Str("attachment", dst).
		Str("kind", string(record.Kind)).
		Msg("Artifact attached to report")
	return attached, nil
}

// Entries returns the attached artifacts sorted by test name then time
func (r *Report) Entries() []models.ArtifactRecord {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.ArtifactRecord, len(r.entries))
	copy(out, r.entries)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TestName != out[j].TestName {
			return out[i].TestName < out[j].TestName
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Markdown renders the attachment table
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("# Failure artifacts\n\n")

	entries := r.Entries()
	if len(entries) == 0 {
		b.WriteString("No failures recorded.\n")
		return b.String()
	}

	b.WriteString("| Test | Kind | Context | Captured | File |\n")
	b.WriteString("|------|------|---------|----------|------|\n")
	for _, e := range entries {
		name := filepath.Base(e.Path)
		fmt.Fprintf(&b, "| %s | %s | %s | %s | [%s](attachments/%s) |\n",
			escapeCell(e.TestName), e.Kind, escapeCell(e.ContextID),
			e.CreatedAt.Format(time.RFC3339), name, name)
	}
	return b.String()
}

// WriteIndex renders <dir>/index.html
func (r *Report) WriteIndex() error {
	if r == nil {
		return nil
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var body bytes.Buffer
	if err := md.Convert([]byte(r.Markdown()), &body); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>talentcheck report</title></head><body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body></html>\n")

	path := filepath.Join(r.dir, "index.html")
	if err := writeFile(path, page.Bytes()); err != nil {
		return err
	}
	r.logger.Info().Str("path", path).Int("attachments", len(r.Entries())).Msg("Report index written")
	return nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return &ArtifactIOError{Op: "open", Path: src, Err: err}
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return &ArtifactIOError{Op: "mkdir", Path: filepath.Dir(dst), Err: err}
	}
	out, err := os.Create(dst)
	if err != nil {
		return &ArtifactIOError{Op: "create", Path: dst, Err: err}
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return &ArtifactIOError{Op: "copy", Path: dst, Err: err}
	}
	if err := out.Close(); err != nil {
		return &ArtifactIOError{Op: "close", Path: dst, Err: err}
	}
	return nil
}
