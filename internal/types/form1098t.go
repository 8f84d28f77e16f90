package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Form1098T is one generated tax document instance. Financial and identity
// columns are snapshots taken at publish time; they are never recomputed from
// the ledger or the student profile afterwards.
//
// At most one row per (student_id, tax_year) may have is_published = true.
// The partial unique index enforcing that lives in internal/db and is the
// correctness mechanism for concurrent publishes; superseded rows stay behind
// with is_published = false.
type Form1098T struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID uuid.UUID `gorm:"type:uuid;not null;index:idx_form1098t_student_year" json:"student_id"`
	Student   *Student  `gorm:"constraint:OnDelete:CASCADE;foreignKey:StudentID;references:ID" json:"student,omitempty"`
	TaxYear   int       `gorm:"not null;index:idx_form1098t_student_year" json:"tax_year"`

	// Box 1, Box 5, Box 4, Box 6.
	PaymentsReceived       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"payments_received"`
	ScholarshipsGrants     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"scholarships_grants"`
	Adjustments            decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"adjustments"`
	ScholarshipAdjustments decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"scholarship_adjustments"`

	StudentName    string `gorm:"not null;column:student_name" json:"student_name"`
	StudentTIN     string `gorm:"column:student_tin" json:"-"`
	StudentAddress string `gorm:"column:student_address" json:"student_address"`

	FilePath string `gorm:"not null;column:file_path" json:"file_path"`
	FileSize int64  `gorm:"not null;default:0;column:file_size" json:"file_size"`

	IsPublished bool       `gorm:"not null;default:false;column:is_published" json:"is_published"`
	PublishedAt *time.Time `gorm:"column:published_at" json:"published_at,omitempty"`
	PublishedBy *uuid.UUID `gorm:"type:uuid;column:published_by" json:"published_by,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Form1098T) TableName() string { return "form_1098t" }
