package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/campusbridge/taxforms-backend/internal/logger"
	"github.com/campusbridge/taxforms-backend/internal/repos"
	"github.com/campusbridge/taxforms-backend/internal/types"
)

const zipManifestName = "tax_form_exports.csv"

var exportHeader = []string{
	"Student ID", "Name", "TIN", "Email", "Address", "City", "State", "Zip",
	"High School", "Box1", "Box5", "Payments",
}

// ExportService produces staff-facing bulk extracts for a date range:
// a flat CSV of per-student totals, and a zip of filled forms with a
// manifest. Rows are ordered by last name, first name.
type ExportService interface {
	DataCSV(ctx context.Context, start, end time.Time) ([]byte, error)
	FilledFormsZip(ctx context.Context, generator FormGenerator, start, end time.Time) ([]byte, error)
}

type exportService struct {
	db          *gorm.DB
	log         *logger.Logger
	summary     SummaryProvider
	studentRepo repos.StudentRepo
	txRepo      repos.StudentTransactionRepo
}

func NewExportService(
	db *gorm.DB,
	baseLog *logger.Logger,
	summary SummaryProvider,
	studentRepo repos.StudentRepo,
	txRepo repos.StudentTransactionRepo,
) ExportService {
	serviceLog := baseLog.With("service", "ExportService")
	return &exportService{
		db:          db,
		log:         serviceLog,
		summary:     summary,
		studentRepo: studentRepo,
		txRepo:      txRepo,
	}
}

type exportRow struct {
	student *types.Student
	summary TransactionSummary
}

func (s *exportService) rows(ctx context.Context, start, end time.Time, include func(TransactionSummary) bool) ([]exportRow, error) {
	ids, err := s.txRepo.DistinctStudentIDsInRange(ctx, nil, start, end)
	if err != nil {
		return nil, fmt.Errorf("find students with activity: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	students, err := s.studentRepo.ListByIDsOrdered(ctx, nil, ids)
	if err != nil {
		return nil, fmt.Errorf("load students: %w", err)
	}
	summaries, err := s.summary.BulkSummary(ctx, ids, start, end)
	if err != nil {
		return nil, fmt.Errorf("bulk financial summary: %w", err)
	}

	rows := make([]exportRow, 0, len(students))
	for _, student := range students {
		sum := summaries[student.ID]
		if !include(sum) {
			continue
		}
		rows = append(rows, exportRow{student: student, summary: sum})
	}
	return rows, nil
}

func csvRecord(row exportRow) []string {
	st := row.student
	return []string{
		st.ID.String(),
		st.FullName(),
		st.TIN,
		st.Email,
		st.Address1,
		st.City,
		st.State,
		st.PostalCode,
		st.HighSchool,
		FormatCurrency(row.summary.Charges),
		FormatCurrency(row.summary.Scholarships),
		FormatCurrency(row.summary.Payments),
	}
}

func (s *exportService) DataCSV(ctx context.Context, start, end time.Time) ([]byte, error) {
	rows, err := s.rows(ctx, start, end, func(sum TransactionSummary) bool {
		return sum.Charges.IsPositive() || sum.Scholarships.IsPositive()
	})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(csvRecord(row)); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *exportService) FilledFormsZip(ctx context.Context, generator FormGenerator, start, end time.Time) ([]byte, error) {
	if generator == nil {
		return nil, fmt.Errorf("zip export requires a form generator")
	}
	rows, err := s.rows(ctx, start, end, func(sum TransactionSummary) bool {
		return sum.Qualifies()
	})
	if err != nil {
		return nil, err
	}
	taxYear := start.Year()

	// Rendering is CPU-bound and independent per student, so it runs in a
	// bounded group. The zip itself is written afterward, in row order, so
	// the archive layout does not depend on scheduling.
	pdfs := make([][]byte, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, row := range rows {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pdf, err := generator.Generate(
				studentFormData(row.student),
				FormAmounts{Payments: row.summary.Payments, Scholarships: row.summary.Scholarships},
				zeroOptionalAmounts(),
				nil,
			)
			if err != nil {
				return fmt.Errorf("render form for student %s: %w", row.student.ID, err)
			}
			pdfs[i] = pdf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	var manifest bytes.Buffer
	mw := csv.NewWriter(&manifest)
	if err := mw.Write(append(append([]string{}, exportHeader...), "Filled-Form-Path")); err != nil {
		return nil, fmt.Errorf("write manifest header: %w", err)
	}

	used := make(map[string]int, len(rows))
	for i, row := range rows {
		name := uniqueName(used, FormFilename(taxYear, row.student.FullName()))
		fw, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("add %s to zip: %w", name, err)
		}
		if _, err := fw.Write(pdfs[i]); err != nil {
			return nil, fmt.Errorf("write %s to zip: %w", name, err)
		}
		if err := mw.Write(append(csvRecord(row), name)); err != nil {
			return nil, fmt.Errorf("write manifest row: %w", err)
		}
	}
	mw.Flush()
	if err := mw.Error(); err != nil {
		return nil, fmt.Errorf("flush manifest: %w", err)
	}

	fw, err := zw.Create(zipManifestName)
	if err != nil {
		return nil, fmt.Errorf("add manifest to zip: %w", err)
	}
	if _, err := fw.Write(manifest.Bytes()); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize zip: %w", err)
	}

	s.log.Info("Built filled-forms export", "students", len(rows), "bytes", buf.Len())
	return buf.Bytes(), nil
}

// uniqueName disambiguates same-named students inside one archive.
func uniqueName(used map[string]int, name string) string {
	n := used[name]
	used[name] = n + 1
	if n == 0 {
		return name
	}
	ext := ".pdf"
	base := name[:len(name)-len(ext)]
	return fmt.Sprintf("%s_%d%s", base, n+1, ext)
}
