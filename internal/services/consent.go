package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/campusbridge/taxforms-backend/internal/logger"
	"github.com/campusbridge/taxforms-backend/internal/repos"
	"github.com/campusbridge/taxforms-backend/internal/types"
)

type ConsentStatus struct {
	Consented   bool       `json:"consented"`
	ConsentedAt *time.Time `json:"consented_at,omitempty"`
}

// ConsentService manages electronic-delivery consent for tax documents.
// Consent is a timestamped marker on the student record; granting twice
// keeps the original timestamp.
type ConsentService interface {
	Status(ctx context.Context, studentID uuid.UUID) (ConsentStatus, error)
	Grant(ctx context.Context, studentID uuid.UUID) (ConsentStatus, error)
	Revoke(ctx context.Context, studentID uuid.UUID) error
}

type consentService struct {
	log         *logger.Logger
	studentRepo repos.StudentRepo
	now         func() time.Time
}

func NewConsentService(baseLog *logger.Logger, studentRepo repos.StudentRepo) ConsentService {
	serviceLog := baseLog.With("service", "ConsentService")
	return &consentService{
		log:         serviceLog,
		studentRepo: studentRepo,
		now:         time.Now,
	}
}

func (s *consentService) Status(ctx context.Context, studentID uuid.UUID) (ConsentStatus, error) {
	student, err := s.load(ctx, studentID)
	if err != nil {
		return ConsentStatus{}, err
	}
	return statusOf(student), nil
}

func (s *consentService) Grant(ctx context.Context, studentID uuid.UUID) (ConsentStatus, error) {
	student, err := s.load(ctx, studentID)
	if err != nil {
		return ConsentStatus{}, err
	}
	if ts, ok := student.ConsentedAt(); ok {
		return ConsentStatus{Consented: true, ConsentedAt: &ts}, nil
	}

	meta := map[string]interface{}(student.Meta)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	ts := s.now().UTC()
	meta[types.MetaKeyConsentedAt] = ts.Format(time.RFC3339)
	if err := s.studentRepo.UpdateMeta(ctx, nil, studentID, meta); err != nil {
		return ConsentStatus{}, fmt.Errorf("record consent: %w", err)
	}
	s.log.Info("Electronic delivery consent granted", "student_id", studentID)
	return ConsentStatus{Consented: true, ConsentedAt: &ts}, nil
}

func (s *consentService) Revoke(ctx context.Context, studentID uuid.UUID) error {
	student, err := s.load(ctx, studentID)
	if err != nil {
		return err
	}
	if !student.HasConsent() {
		return nil
	}

	meta := map[string]interface{}(student.Meta)
	delete(meta, types.MetaKeyConsentedAt)
	if err := s.studentRepo.UpdateMeta(ctx, nil, studentID, meta); err != nil {
		return fmt.Errorf("revoke consent: %w", err)
	}
	s.log.Info("Electronic delivery consent revoked", "student_id", studentID)
	return nil
}

func (s *consentService) load(ctx context.Context, studentID uuid.UUID) (*types.Student, error) {
	student, err := s.studentRepo.GetByID(ctx, nil, studentID)
	if err != nil {
		return nil, fmt.Errorf("look up student: %w", err)
	}
	if student == nil {
		return nil, fmt.Errorf("student %s not found", studentID)
	}
	return student, nil
}

func statusOf(student *types.Student) ConsentStatus {
	if ts, ok := student.ConsentedAt(); ok {
		return ConsentStatus{Consented: true, ConsentedAt: &ts}
	}
	return ConsentStatus{}
}
