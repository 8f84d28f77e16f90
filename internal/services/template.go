package services

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/campusbridge/taxforms-backend/internal/logger"
)

// TemplateNotFoundError reports a missing fillable template for a tax year.
// The IRS changes the form layout between years, so silently falling back to
// another year's template would fill the wrong fields.
type TemplateNotFoundError struct {
	TaxYear int
	Path    string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf(
		"1098-T template for %d not found at %s. Add the PDF template as %d.pdf under the template directory",
		e.TaxYear, e.Path, e.TaxYear,
	)
}

type TemplateResolver interface {
	Resolve(taxYear int) (string, error)
	Dir() string
}

type templateResolver struct {
	log *logger.Logger
	dir string
}

func NewTemplateResolver(log *logger.Logger, dir string) TemplateResolver {
	serviceLog := log.With("service", "TemplateResolver")
	return &templateResolver{log: serviceLog, dir: dir}
}

func (r *templateResolver) Dir() string { return r.dir }

func (r *templateResolver) Resolve(taxYear int) (string, error) {
	path := filepath.Join(r.dir, fmt.Sprintf("%d.pdf", taxYear))
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &TemplateNotFoundError{TaxYear: taxYear, Path: path}
		}
		return "", fmt.Errorf("stat 1098-T template %s: %w", path, err)
	}
	return path, nil
}
