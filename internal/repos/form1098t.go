package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campusbridge/taxforms-backend/internal/logger"
	"github.com/campusbridge/taxforms-backend/internal/types"
)

type Form1098TRepo interface {
	Create(ctx context.Context, tx *gorm.DB, forms []*types.Form1098T) ([]*types.Form1098T, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Form1098T, error)
	GetPublished(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, taxYear int) (*types.Form1098T, error)
	ListPublishedByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) ([]*types.Form1098T, error)
	ListPublishedByYear(ctx context.Context, tx *gorm.DB, taxYear int) ([]*types.Form1098T, error)
	Unpublish(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	CountPublishedByYear(ctx context.Context, tx *gorm.DB, taxYear int) (int64, error)
	PublishedStudentIDsByYear(ctx context.Context, tx *gorm.DB, taxYear int) ([]uuid.UUID, error)
}

type form1098tRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewForm1098TRepo(db *gorm.DB, baseLog *logger.Logger) Form1098TRepo {
	repoLog := baseLog.With("repo", "Form1098TRepo")
	return &form1098tRepo{db: db, log: repoLog}
}

func (r *form1098tRepo) Create(ctx context.Context, tx *gorm.DB, forms []*types.Form1098T) ([]*types.Form1098T, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(forms) == 0 {
		return []*types.Form1098T{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&forms).Error; err != nil {
		return nil, err
	}
	return forms, nil
}

func (r *form1098tRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Form1098T, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Form1098T
	if len(ids) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetPublished returns the published form for the pair, or nil when none
// exists. The partial unique index guarantees there is at most one.
func (r *form1098tRepo) GetPublished(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, taxYear int) (*types.Form1098T, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Form1098T
	if err := transaction.WithContext(ctx).
		Where("student_id = ? AND tax_year = ? AND is_published", studentID, taxYear).
		Order("published_at DESC").
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *form1098tRepo) ListPublishedByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) ([]*types.Form1098T, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Form1098T
	if studentID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("student_id = ? AND is_published", studentID).
		Order("tax_year DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *form1098tRepo) ListPublishedByYear(ctx context.Context, tx *gorm.DB, taxYear int) ([]*types.Form1098T, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Form1098T
	if err := transaction.WithContext(ctx).
		Where("tax_year = ? AND is_published", taxYear).
		Order("published_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// Unpublish retires a superseded row. The row is retained for history, never
// deleted.
func (r *form1098tRepo) Unpublish(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&types.Form1098T{}).
		Where("id = ?", id).
		Update("is_published", false).Error
}

func (r *form1098tRepo) CountPublishedByYear(ctx context.Context, tx *gorm.DB, taxYear int) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Form1098T{}).
		Where("tax_year = ? AND is_published", taxYear).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *form1098tRepo) PublishedStudentIDsByYear(ctx context.Context, tx *gorm.DB, taxYear int) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var ids []uuid.UUID
	if err := transaction.WithContext(ctx).
		Model(&types.Form1098T{}).
		Where("tax_year = ? AND is_published", taxYear).
		Distinct().
		Pluck("student_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
