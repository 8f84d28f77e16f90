package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/campusbridge/taxforms-backend/internal/logger"
	"github.com/campusbridge/taxforms-backend/internal/types"
)

// TypeSum is one (student, transaction type) aggregate over a date range.
type TypeSum struct {
	StudentID uuid.UUID
	Type      string
	Total     decimal.Decimal
}

// StudentTransactionRepo reads the ledger owned by the transactions
// application. The tax pipeline never writes these rows.
type StudentTransactionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, transactions []*types.StudentTransaction) ([]*types.StudentTransaction, error)
	DistinctStudentIDsInRange(ctx context.Context, tx *gorm.DB, start, end time.Time) ([]uuid.UUID, error)
	SumByStudentAndType(ctx context.Context, tx *gorm.DB, studentIDs []uuid.UUID, start, end time.Time) ([]TypeSum, error)
}

type studentTransactionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStudentTransactionRepo(db *gorm.DB, baseLog *logger.Logger) StudentTransactionRepo {
	repoLog := baseLog.With("repo", "StudentTransactionRepo")
	return &studentTransactionRepo{db: db, log: repoLog}
}

func (r *studentTransactionRepo) Create(ctx context.Context, tx *gorm.DB, transactions []*types.StudentTransaction) ([]*types.StudentTransaction, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(transactions) == 0 {
		return []*types.StudentTransaction{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&transactions).Error; err != nil {
		return nil, err
	}
	return transactions, nil
}

// DistinctStudentIDsInRange returns students with any ledger activity in
// [start, end). Used to derive the publish candidate set for a calendar year.
func (r *studentTransactionRepo) DistinctStudentIDsInRange(ctx context.Context, tx *gorm.DB, start, end time.Time) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var ids []uuid.UUID
	if err := transaction.WithContext(ctx).
		Model(&types.StudentTransaction{}).
		Where("created_on >= ? AND created_on < ?", start, end).
		Distinct().
		Pluck("student_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *studentTransactionRepo) SumByStudentAndType(ctx context.Context, tx *gorm.DB, studentIDs []uuid.UUID, start, end time.Time) ([]TypeSum, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var rows []TypeSum
	if len(studentIDs) == 0 {
		return rows, nil
	}

	if err := transaction.WithContext(ctx).
		Model(&types.StudentTransaction{}).
		Select("student_id, transaction_type AS type, SUM(amount) AS total").
		Where("student_id IN ? AND created_on >= ? AND created_on < ?", studentIDs, start, end).
		Group("student_id, transaction_type").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
