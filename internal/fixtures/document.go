package fixtures

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/ternarybob/talentcheck/internal/common"
	"github.com/ternarybob/talentcheck/internal/models"
)

// ErrEmptyDocument is returned for a PDF without pages
var ErrEmptyDocument = errors.New("document has no pages")

// DocumentInfo describes a validated fixture document
type DocumentInfo struct {
	Path  string
	Pages int
	Size  int64
}

// Inspect validates the PDF at path and reports its page count
func Inspect(path string) (DocumentInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return DocumentInfo{}, fmt.Errorf("stat %s: %w", path, err)
	}

	conf := model.NewDefaultConfiguration()
	if err := api.ValidateFile(path, conf); err != nil {
		return DocumentInfo{}, fmt.Errorf("validate %s: %w", path, err)
	}

	ctx, err := api.ReadContextFile(path)
	if err != nil {
		return DocumentInfo{}, fmt.Errorf("read %s: %w", path, err)
	}
	if ctx.PageCount < 1 {
		return DocumentInfo{}, fmt.Errorf("%s: %w", path, ErrEmptyDocument)
	}
	return DocumentInfo{Path: path, Pages: ctx.PageCount, Size: info.Size()}, nil
}

// EnsureJobFile makes sure a valid job description PDF exists at path,
// generating one from job when the file is missing.
func EnsureJobFile(path string, job models.JobPosting, logger *common.Logger) (DocumentInfo, error) {
	if _, err := os.Stat(path); err == nil {
		info, err := Inspect(path)
		if err != nil {
			return DocumentInfo{}, err
		}
		logger.Debug().Str("path", path).Int("pages", info.Pages).Msg("Job document present")
		return info, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return DocumentInfo{}, fmt.Errorf("stat %s: %w", path, err)
	}

	if err := validator.New().Struct(job); err != nil {
		return DocumentInfo{}, fmt.Errorf("invalid job posting: %w", err)
	}
	data, err := RenderPDF(JobDescriptionMarkdown(job), job.JobTitle)
	if err != nil {
		return DocumentInfo{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return DocumentInfo{}, fmt.Errorf("create fixture dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return DocumentInfo{}, fmt.Errorf("write %s: %w", path, err)
	}

	info, err := Inspect(path)
	if err != nil {
		return DocumentInfo{}, err
	}
	logger.Info().Str("path", path).Int("pages", info.Pages).Msg("Generated job document")
	return info, nil
}
