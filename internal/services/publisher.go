package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/campusbridge/taxforms-backend/internal/logger"
	"github.com/campusbridge/taxforms-backend/internal/repos"
	"github.com/campusbridge/taxforms-backend/internal/types"
)

type PublishOutcome string

const (
	OutcomePublished PublishOutcome = "published"
	OutcomeSkipped   PublishOutcome = "skipped"
)

type PublishError struct {
	StudentID   uuid.UUID `json:"student_id"`
	StudentName string    `json:"student_name"`
	Error       string    `json:"error"`
}

type BatchResult struct {
	SuccessCount int            `json:"success_count"`
	SkippedCount int            `json:"skipped_count"`
	ErrorCount   int            `json:"error_count"`
	Errors       []PublishError `json:"errors,omitempty"`
}

// Publisher runs the per-student publish state machine for one tax year:
// NoForm -> Published -> Superseded (-> Published again). One Publisher is
// built per batch so the template, field map and filer info are loaded once.
type Publisher interface {
	TaxYear() int
	PublishStudent(ctx context.Context, student *types.Student, regenerate bool) (PublishOutcome, error)
	PublishAll(ctx context.Context, studentIDs []uuid.UUID, regenerate bool) (BatchResult, error)
}

type publisher struct {
	db          *gorm.DB
	log         *logger.Logger
	taxYear     int
	publishedBy *uuid.UUID
	generator   FormGenerator
	storage     FormStorage
	summary     SummaryProvider
	formRepo    repos.Form1098TRepo
	studentRepo repos.StudentRepo
	txRepo      repos.StudentTransactionRepo
}

// PublisherFactory builds a Publisher for a tax year, failing fast when the
// year has no template, no field map, or no configured filer identity.
type PublisherFactory interface {
	ForYear(ctx context.Context, taxYear int, publishedBy *uuid.UUID) (Publisher, error)
	GeneratorForYear(ctx context.Context, taxYear int) (FormGenerator, error)
}

type publisherFactory struct {
	db          *gorm.DB
	log         *logger.Logger
	resolver    TemplateResolver
	settings    SettingsService
	storage     FormStorage
	summary     SummaryProvider
	formRepo    repos.Form1098TRepo
	studentRepo repos.StudentRepo
	txRepo      repos.StudentTransactionRepo
}

func NewPublisherFactory(
	db *gorm.DB,
	baseLog *logger.Logger,
	resolver TemplateResolver,
	settings SettingsService,
	storage FormStorage,
	summary SummaryProvider,
	formRepo repos.Form1098TRepo,
	studentRepo repos.StudentRepo,
	txRepo repos.StudentTransactionRepo,
) PublisherFactory {
	serviceLog := baseLog.With("service", "PublisherFactory")
	return &publisherFactory{
		db:          db,
		log:         serviceLog,
		resolver:    resolver,
		settings:    settings,
		storage:     storage,
		summary:     summary,
		formRepo:    formRepo,
		studentRepo: studentRepo,
		txRepo:      txRepo,
	}
}

func (f *publisherFactory) GeneratorForYear(ctx context.Context, taxYear int) (FormGenerator, error) {
	if taxYear < 1998 || taxYear > time.Now().Year() {
		return nil, fmt.Errorf("invalid tax year %d", taxYear)
	}

	templatePath, err := f.resolver.Resolve(taxYear)
	if err != nil {
		return nil, err
	}
	mapping, err := LoadFieldMap(f.resolver.Dir(), taxYear)
	if err != nil {
		return nil, err
	}
	filer, err := f.settings.FilerInfo(ctx)
	if err != nil {
		return nil, err
	}
	return NewFormGenerator(f.log, templatePath, mapping, filer)
}

func (f *publisherFactory) ForYear(ctx context.Context, taxYear int, publishedBy *uuid.UUID) (Publisher, error) {
	generator, err := f.GeneratorForYear(ctx, taxYear)
	if err != nil {
		return nil, err
	}
	return NewPublisher(f.db, f.log, taxYear, publishedBy, generator, f.storage, f.summary, f.formRepo, f.studentRepo, f.txRepo), nil
}

func NewPublisher(
	db *gorm.DB,
	baseLog *logger.Logger,
	taxYear int,
	publishedBy *uuid.UUID,
	generator FormGenerator,
	storage FormStorage,
	summary SummaryProvider,
	formRepo repos.Form1098TRepo,
	studentRepo repos.StudentRepo,
	txRepo repos.StudentTransactionRepo,
) Publisher {
	serviceLog := baseLog.With("service", "Publisher", "tax_year", taxYear)
	return &publisher{
		db:          db,
		log:         serviceLog,
		taxYear:     taxYear,
		publishedBy: publishedBy,
		generator:   generator,
		storage:     storage,
		summary:     summary,
		formRepo:    formRepo,
		studentRepo: studentRepo,
		txRepo:      txRepo,
	}
}

func (p *publisher) TaxYear() int { return p.taxYear }

// YearRange is the calendar-year window of ledger activity counted toward a
// tax year: inclusive Jan 1, exclusive Jan 1 of the following year.
func YearRange(taxYear int) (time.Time, time.Time) {
	start := time.Date(taxYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(1, 0, 0)
}

func (p *publisher) PublishStudent(ctx context.Context, student *types.Student, regenerate bool) (PublishOutcome, error) {
	if student == nil {
		return "", fmt.Errorf("publish: student is nil")
	}
	start, end := YearRange(p.taxYear)
	summaries, err := p.summary.BulkSummary(ctx, []uuid.UUID{student.ID}, start, end)
	if err != nil {
		return "", fmt.Errorf("financial summary for student: %w", err)
	}
	return p.publishWithSummary(ctx, student, summaries[student.ID], regenerate)
}

func (p *publisher) publishWithSummary(ctx context.Context, student *types.Student, summary TransactionSummary, regenerate bool) (PublishOutcome, error) {
	// No qualifying transactions, no form. No record is created or touched.
	if !summary.Qualifies() {
		return OutcomeSkipped, nil
	}

	outcome := OutcomeSkipped
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := p.formRepo.GetPublished(ctx, tx, student.ID, p.taxYear)
		if err != nil {
			return fmt.Errorf("look up published form: %w", err)
		}

		if existing != nil {
			if !regenerate {
				outcome = OutcomeSkipped
				return nil
			}
			// Retire the old row instead of deleting it; the row is history.
			// Its artifact goes away so storage holds only documents that
			// some published record points at.
			if err := p.storage.Delete(ctx, existing.FilePath); err != nil {
				return fmt.Errorf("delete superseded artifact: %w", err)
			}
			if err := p.formRepo.Unpublish(ctx, tx, existing.ID); err != nil {
				return fmt.Errorf("unpublish superseded form: %w", err)
			}
		}

		pdf, err := p.generator.Generate(
			studentFormData(student),
			FormAmounts{Payments: summary.Payments, Scholarships: summary.Scholarships},
			zeroOptionalAmounts(),
			nil,
		)
		if err != nil {
			return fmt.Errorf("render form: %w", err)
		}

		path, size, err := p.storage.Save(ctx, pdf, student.ID, p.taxYear)
		if err != nil {
			return fmt.Errorf("store artifact: %w", err)
		}

		now := time.Now()
		form := &types.Form1098T{
			ID:                     uuid.New(),
			StudentID:              student.ID,
			TaxYear:                p.taxYear,
			PaymentsReceived:       summary.Payments,
			ScholarshipsGrants:     summary.Scholarships,
			Adjustments:            decimal.Zero,
			ScholarshipAdjustments: decimal.Zero,
			StudentName:            student.FullName(),
			StudentTIN:             student.TIN,
			StudentAddress:         formatStudentAddress(student),
			FilePath:               path,
			FileSize:               size,
			IsPublished:            true,
			PublishedAt:            &now,
			PublishedBy:            p.publishedBy,
		}
		// The partial unique index rejects this insert if another publish
		// won the race for the same (student, year); the whole transaction
		// rolls back and the other row stays authoritative.
		if _, err := p.formRepo.Create(ctx, tx, []*types.Form1098T{form}); err != nil {
			return fmt.Errorf("create form record: %w", err)
		}
		outcome = OutcomePublished
		return nil
	})
	if err != nil {
		return "", err
	}
	return outcome, nil
}

func (p *publisher) PublishAll(ctx context.Context, studentIDs []uuid.UUID, regenerate bool) (BatchResult, error) {
	start, end := YearRange(p.taxYear)

	if len(studentIDs) == 0 {
		ids, err := p.txRepo.DistinctStudentIDsInRange(ctx, nil, start, end)
		if err != nil {
			return BatchResult{}, fmt.Errorf("derive candidate students: %w", err)
		}
		studentIDs = ids
	}

	students, err := p.studentRepo.ListByIDsOrdered(ctx, nil, studentIDs)
	if err != nil {
		return BatchResult{}, fmt.Errorf("load students: %w", err)
	}

	summaries, err := p.summary.BulkSummary(ctx, studentIDs, start, end)
	if err != nil {
		return BatchResult{}, fmt.Errorf("bulk financial summary: %w", err)
	}

	var result BatchResult
	for _, student := range students {
		outcome, err := p.publishWithSummary(ctx, student, summaries[student.ID], regenerate)
		if err != nil {
			result.ErrorCount++
			result.Errors = append(result.Errors, PublishError{
				StudentID:   student.ID,
				StudentName: student.FullName(),
				Error:       err.Error(),
			})
			p.log.Error("Publish failed for student", "student_id", student.ID, "error", err)
			continue
		}
		switch outcome {
		case OutcomePublished:
			result.SuccessCount++
		case OutcomeSkipped:
			result.SkippedCount++
		}
	}
	return result, nil
}

// zeroOptionalAmounts prints an explicit "0.00" in boxes 4, 6 and 10. Issued
// forms carry the zeros rather than blank boxes, matching the stored record's
// zero adjustment snapshots.
func zeroOptionalAmounts() *OptionalAmounts {
	zero := decimal.Zero
	return &OptionalAmounts{
		Adjustments:            &zero,
		ScholarshipAdjustments: &zero,
		InsuranceRefund:        &zero,
	}
}

func studentFormData(student *types.Student) StudentFormData {
	return StudentFormData{
		Name:          student.FullName(),
		TIN:           student.TIN,
		Address:       student.Address1,
		Address2:      cityLine(student),
		AccountNumber: student.AccountNumber(),
	}
}

func cityLine(student *types.Student) string {
	if student.City == "" {
		return ""
	}
	return fmt.Sprintf("%s, %s %s", student.City, student.State, student.PostalCode)
}

func formatStudentAddress(student *types.Student) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{student.Address1, student.City, strings.TrimSpace(student.State + " " + student.PostalCode)} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
