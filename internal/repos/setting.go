package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/campusbridge/taxforms-backend/internal/logger"
	"github.com/campusbridge/taxforms-backend/internal/types"
)

type SettingRepo interface {
	Get(ctx context.Context, tx *gorm.DB, key string) (*types.Setting, error)
	Upsert(ctx context.Context, tx *gorm.DB, key string, value map[string]interface{}) error
}

type settingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSettingRepo(db *gorm.DB, baseLog *logger.Logger) SettingRepo {
	repoLog := baseLog.With("repo", "SettingRepo")
	return &settingRepo{db: db, log: repoLog}
}

// Get returns nil when the key was never written.
func (r *settingRepo) Get(ctx context.Context, tx *gorm.DB, key string) (*types.Setting, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Setting
	if err := transaction.WithContext(ctx).
		Where("key = ?", key).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *settingRepo) Upsert(ctx context.Context, tx *gorm.DB, key string, value map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	setting := &types.Setting{
		ID:    uuid.New(),
		Key:   key,
		Value: datatypes.JSONMap(value),
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(setting).Error
}
