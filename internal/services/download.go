package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campusbridge/taxforms-backend/internal/logger"
	"github.com/campusbridge/taxforms-backend/internal/repos"
	"github.com/campusbridge/taxforms-backend/internal/types"
)

// ErrFormNotFound is the single answer for a form that does not exist, is
// not published, or belongs to someone else. Callers must not distinguish
// the three cases in responses.
var ErrFormNotFound = errors.New("form not found")

// ErrFileNotFound means a published record points at an artifact that is
// gone from storage. Unlike ErrFormNotFound this is a server-side fault.
var ErrFileNotFound = errors.New("form file not found")

type DownloadRequest struct {
	IPAddress string
	UserAgent string
}

type DownloadResult struct {
	NeedsConsent bool
	PDF          []byte
	Filename     string
	Form         *types.Form1098T
}

type DownloadService interface {
	// AuthorizeAndFetch runs the full download gate for one form. Staff
	// callers bypass ownership and consent checks.
	AuthorizeAndFetch(ctx context.Context, user *types.User, formID uuid.UUID, req DownloadRequest) (*DownloadResult, error)
	ListStudentForms(ctx context.Context, studentID uuid.UUID) ([]*types.Form1098T, error)
}

type downloadService struct {
	db           *gorm.DB
	log          *logger.Logger
	storage      FormStorage
	formRepo     repos.Form1098TRepo
	studentRepo  repos.StudentRepo
	downloadRepo repos.Form1098TDownloadRepo
}

func NewDownloadService(
	db *gorm.DB,
	baseLog *logger.Logger,
	storage FormStorage,
	formRepo repos.Form1098TRepo,
	studentRepo repos.StudentRepo,
	downloadRepo repos.Form1098TDownloadRepo,
) DownloadService {
	serviceLog := baseLog.With("service", "DownloadService")
	return &downloadService{
		db:           db,
		log:          serviceLog,
		storage:      storage,
		formRepo:     formRepo,
		studentRepo:  studentRepo,
		downloadRepo: downloadRepo,
	}
}

func (s *downloadService) AuthorizeAndFetch(ctx context.Context, user *types.User, formID uuid.UUID, req DownloadRequest) (*DownloadResult, error) {
	if user == nil {
		return nil, ErrFormNotFound
	}

	forms, err := s.formRepo.GetByIDs(ctx, nil, []uuid.UUID{formID})
	if err != nil {
		return nil, fmt.Errorf("look up form: %w", err)
	}
	if len(forms) == 0 {
		return nil, ErrFormNotFound
	}
	form := forms[0]
	if !form.IsPublished {
		return nil, ErrFormNotFound
	}

	if !user.IsStaff() {
		if user.StudentID == nil || *user.StudentID != form.StudentID {
			return nil, ErrFormNotFound
		}
		student, err := s.studentRepo.GetByID(ctx, nil, form.StudentID)
		if err != nil {
			return nil, fmt.Errorf("look up student: %w", err)
		}
		if student == nil {
			return nil, ErrFormNotFound
		}
		if !student.HasConsent() {
			return &DownloadResult{NeedsConsent: true, Form: form}, nil
		}
	}

	pdf, err := s.storage.Get(ctx, form.FilePath)
	if err != nil {
		if errors.Is(err, ErrArtifactNotFound) {
			s.log.Error("Published form artifact missing from storage",
				"form_id", form.ID, "file_path", form.FilePath)
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("fetch artifact: %w", err)
	}

	// The audit row is written only after the bytes are in hand, so every
	// recorded download corresponds to a response that actually carried
	// the document.
	userAgent := req.UserAgent
	if len(userAgent) > types.UserAgentMaxLen {
		userAgent = userAgent[:types.UserAgentMaxLen]
	}
	download := &types.Form1098TDownload{
		ID:               uuid.New(),
		FormID:           form.ID,
		StudentID:        form.StudentID,
		UserID:           user.ID,
		IPAddress:        req.IPAddress,
		UserAgent:        userAgent,
		FilePathSnapshot: form.FilePath,
	}
	if _, err := s.downloadRepo.Create(ctx, nil, []*types.Form1098TDownload{download}); err != nil {
		return nil, fmt.Errorf("record download: %w", err)
	}

	return &DownloadResult{
		PDF:      pdf,
		Filename: FormFilename(form.TaxYear, form.StudentName),
		Form:     form,
	}, nil
}

func (s *downloadService) ListStudentForms(ctx context.Context, studentID uuid.UUID) ([]*types.Form1098T, error) {
	return s.formRepo.ListPublishedByStudent(ctx, nil, studentID)
}
