package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction types mirror the ledger application that owns this table. The
// tax pipeline only ever reads these rows.
const (
	TransactionTypePayment     = "payment"
	TransactionTypeCharge      = "charge"
	TransactionTypeRefund      = "refund"
	TransactionTypeScholarship = "scholarship"
	TransactionTypeGrant       = "grant"
)

type StudentTransaction struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID uuid.UUID       `gorm:"type:uuid;not null;index" json:"student_id"`
	Student   *Student        `gorm:"constraint:OnDelete:CASCADE;foreignKey:StudentID;references:ID" json:"student,omitempty"`
	Type      string          `gorm:"not null;column:transaction_type;index" json:"transaction_type"`
	Amount    decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"amount"`
	CreatedOn time.Time       `gorm:"not null;index;column:created_on" json:"created_on"`
}

func (StudentTransaction) TableName() string { return "student_transaction" }
