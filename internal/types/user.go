package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleStudent = "student"
	RoleStaff   = "staff"
)

type User struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string     `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password  string     `gorm:"not null;column:password" json:"-"`
	Role      string     `gorm:"not null;default:'student';column:role" json:"role"`
	StudentID *uuid.UUID `gorm:"type:uuid;index;column:student_id" json:"student_id,omitempty"`
	Student   *Student   `gorm:"foreignKey:StudentID;references:ID" json:"student,omitempty"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "user" }

func (u *User) IsStaff() bool   { return u.Role == RoleStaff }
func (u *User) IsStudent() bool { return u.Role == RoleStudent }
