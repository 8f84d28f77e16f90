package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campusbridge/taxforms-backend/internal/logger"
	"github.com/campusbridge/taxforms-backend/internal/types"
)

// Form1098TDownloadRepo is append-only. There is deliberately no update or
// delete method: download rows are the audit trail.
type Form1098TDownloadRepo interface {
	Create(ctx context.Context, tx *gorm.DB, downloads []*types.Form1098TDownload) ([]*types.Form1098TDownload, error)
	GetByFormID(ctx context.Context, tx *gorm.DB, formID uuid.UUID) ([]*types.Form1098TDownload, error)
	CountByFormIDs(ctx context.Context, tx *gorm.DB, formIDs []uuid.UUID) (map[uuid.UUID]int64, error)
}

type form1098tDownloadRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewForm1098TDownloadRepo(db *gorm.DB, baseLog *logger.Logger) Form1098TDownloadRepo {
	repoLog := baseLog.With("repo", "Form1098TDownloadRepo")
	return &form1098tDownloadRepo{db: db, log: repoLog}
}

func (r *form1098tDownloadRepo) Create(ctx context.Context, tx *gorm.DB, downloads []*types.Form1098TDownload) ([]*types.Form1098TDownload, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(downloads) == 0 {
		return []*types.Form1098TDownload{}, nil
	}

	for _, d := range downloads {
		if len(d.UserAgent) > types.UserAgentMaxLen {
			d.UserAgent = d.UserAgent[:types.UserAgentMaxLen]
		}
	}

	if err := transaction.WithContext(ctx).Create(&downloads).Error; err != nil {
		return nil, err
	}
	return downloads, nil
}

func (r *form1098tDownloadRepo) GetByFormID(ctx context.Context, tx *gorm.DB, formID uuid.UUID) ([]*types.Form1098TDownload, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Form1098TDownload
	if formID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("form_id = ?", formID).
		Order("downloaded_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *form1098tDownloadRepo) CountByFormIDs(ctx context.Context, tx *gorm.DB, formIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	counts := make(map[uuid.UUID]int64, len(formIDs))
	if len(formIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		FormID uuid.UUID
		Total  int64
	}
	if err := transaction.WithContext(ctx).
		Model(&types.Form1098TDownload{}).
		Select("form_id, COUNT(*) AS total").
		Where("form_id IN ?", formIDs).
		Group("form_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.FormID] = row.Total
	}
	return counts, nil
}
