package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/campusbridge/taxforms-backend/internal/db"
	"github.com/campusbridge/taxforms-backend/internal/logger"
	"github.com/campusbridge/taxforms-backend/internal/types"
)

func TestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

// OpenDB opens a fresh in-memory sqlite database with the full schema,
// including the partial unique index on published forms.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.New().String() + "?mode=memory&cache=shared"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func SeedStudent(t *testing.T, gdb *gorm.DB, firstName, lastName string) *types.Student {
	t.Helper()
	student := &types.Student{
		ID:         uuid.New(),
		PSID:       "PS" + uuid.New().String()[:8],
		FirstName:  firstName,
		LastName:   lastName,
		TIN:        "123-45-6789",
		Email:      firstName + "@example.edu",
		Address1:   "100 College Ave",
		City:       "Springfield",
		State:      "IL",
		PostalCode: "62704",
	}
	if err := gdb.Create(student).Error; err != nil {
		t.Fatalf("seed student: %v", err)
	}
	return student
}

func SeedStaffUser(t *testing.T, gdb *gorm.DB, email string) *types.User {
	t.Helper()
	user := &types.User{
		ID:       uuid.New(),
		Email:    email,
		Password: "x",
		Role:     types.RoleStaff,
	}
	if err := gdb.Create(user).Error; err != nil {
		t.Fatalf("seed staff user: %v", err)
	}
	return user
}

func SeedStudentUser(t *testing.T, gdb *gorm.DB, email string, studentID uuid.UUID) *types.User {
	t.Helper()
	user := &types.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  "x",
		Role:      types.RoleStudent,
		StudentID: &studentID,
	}
	if err := gdb.Create(user).Error; err != nil {
		t.Fatalf("seed student user: %v", err)
	}
	return user
}

// SeedTransaction writes one ledger row dated inside the given tax year.
func SeedTransaction(t *testing.T, gdb *gorm.DB, studentID uuid.UUID, txType string, amount string, taxYear int) *types.StudentTransaction {
	t.Helper()
	amt, err := decimal.NewFromString(amount)
	if err != nil {
		t.Fatalf("parse amount %q: %v", amount, err)
	}
	row := &types.StudentTransaction{
		ID:        uuid.New(),
		StudentID: studentID,
		Type:      txType,
		Amount:    amt,
		CreatedOn: time.Date(taxYear, time.June, 15, 12, 0, 0, 0, time.UTC),
	}
	if err := gdb.Create(row).Error; err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
	return row
}

// SeedFilerInfo configures institution identity so publish paths resolve.
func SeedFilerInfo(t *testing.T, gdb *gorm.DB) {
	t.Helper()
	setting := &types.Setting{
		ID:  uuid.New(),
		Key: types.SettingKeyFiler,
		Value: map[string]interface{}{
			"name":    "Springfield Community College",
			"ein":     "12-3456789",
			"address": "100 College Ave, Springfield, IL 62704",
			"phone":   "(217) 555-0100",
		},
	}
	if err := gdb.Create(setting).Error; err != nil {
		t.Fatalf("seed filer setting: %v", err)
	}
}

func Ctx() context.Context { return context.Background() }
