package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MetaKeyConsentedAt marks electronic-delivery consent for tax documents.
// Absence of the key means consent was never granted.
const MetaKeyConsentedAt = "f1098t_consented_at"

type Student struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PSID       string    `gorm:"column:psid" json:"psid"`
	FirstName  string    `gorm:"not null;column:first_name" json:"first_name"`
	LastName   string    `gorm:"not null;column:last_name" json:"last_name"`
	TIN        string    `gorm:"column:tin" json:"-"`
	Email      string    `gorm:"column:email" json:"email"`
	Address1   string    `gorm:"column:address1" json:"address1"`
	City       string    `gorm:"column:city" json:"city"`
	State      string    `gorm:"column:state" json:"state"`
	PostalCode string    `gorm:"column:postal_code" json:"postal_code"`
	HighSchool string    `gorm:"column:highschool" json:"highschool"`

	Meta datatypes.JSONMap `gorm:"column:meta;type:jsonb" json:"meta,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Student) TableName() string { return "student" }

func (s *Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// AccountNumber is the service-provider account number printed on the form.
// Students without an institutional PSID fall back to a truncated row id.
func (s *Student) AccountNumber() string {
	switch s.PSID {
	case "", "-":
		id := s.ID.String()
		if len(id) > 20 {
			id = id[:20]
		}
		return id
	default:
		return s.PSID
	}
}

func (s *Student) ConsentedAt() (time.Time, bool) {
	if s.Meta == nil {
		return time.Time{}, false
	}
	raw, ok := s.Meta[MetaKeyConsentedAt]
	if !ok {
		return time.Time{}, false
	}
	str, ok := raw.(string)
	if !ok {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339, str)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

func (s *Student) HasConsent() bool {
	_, ok := s.ConsentedAt()
	return ok
}
