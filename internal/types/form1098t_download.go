package types

import (
	"time"

	"github.com/google/uuid"
)

// UserAgentMaxLen bounds the stored user-agent string.
const UserAgentMaxLen = 255

// Form1098TDownload is the append-only audit row for one download event.
// The file path is snapshotted so the record survives later regeneration of
// the form under a new artifact path. No update or delete API exists.
type Form1098TDownload struct {
	ID     uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	FormID uuid.UUID  `gorm:"type:uuid;not null;index" json:"form_id"`
	Form   *Form1098T `gorm:"constraint:OnDelete:CASCADE;foreignKey:FormID;references:ID" json:"form,omitempty"`
	// StudentID is the form's owner. UserID is the acting account, which for
	// staff downloads is not the student the form belongs to.
	StudentID uuid.UUID `gorm:"type:uuid;not null;index;column:student_id" json:"student_id"`
	Student   *Student  `gorm:"foreignKey:StudentID;references:ID" json:"student,omitempty"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`

	DownloadedAt     time.Time `gorm:"not null;autoCreateTime;column:downloaded_at" json:"downloaded_at"`
	IPAddress        string    `gorm:"column:ip_address" json:"ip_address,omitempty"`
	UserAgent        string    `gorm:"column:user_agent" json:"user_agent,omitempty"`
	FilePathSnapshot string    `gorm:"not null;column:file_path_snapshot" json:"file_path_snapshot"`
}

func (Form1098TDownload) TableName() string { return "form_1098t_download" }
