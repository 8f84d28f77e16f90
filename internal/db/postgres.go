package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/campusbridge/taxforms-backend/internal/logger"
	"github.com/campusbridge/taxforms-backend/internal/types"
	"github.com/campusbridge/taxforms-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	log.Info("Loading environment variables...")
	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "taxforms", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	log.Info("Connecting to Postgres...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("Failed to connect to Postgres: %w", err)
	}

	return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := AutoMigrate(s.db); err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}

	s.log.Info("Configuring foreign key relationships for postgres tables...")
	if err := s.db.Exec(`
		ALTER TABLE "user_token"
		DROP CONSTRAINT IF EXISTS "fk_user_token_user_id",
		ADD CONSTRAINT "fk_user_token_user_id"
		FOREIGN KEY ("user_id")
		REFERENCES "user"("id")
		ON DELETE CASCADE
	`).Error; err != nil {
		return fmt.Errorf("Failed to add fk_user_token_user_id: %w", err)
	}
	if err := s.db.Exec(`
		ALTER TABLE "form_1098t"
		DROP CONSTRAINT IF EXISTS "fk_form_1098t_published_by",
		ADD CONSTRAINT "fk_form_1098t_published_by"
		FOREIGN KEY ("published_by")
		REFERENCES "user"("id")
		ON DELETE SET NULL
	`).Error; err != nil {
		return fmt.Errorf("Failed to add fk_form_1098t_published_by: %w", err)
	}
	return nil
}

// AutoMigrate migrates the schema and installs the partial unique index that
// guarantees at most one published form per (student, tax_year). Applications
// must not rely on check-then-insert for that invariant; the index is what
// closes the race between concurrent publishes.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&types.Student{},
		&types.User{},
		&types.UserToken{},
		&types.StudentTransaction{},
		&types.Form1098T{},
		&types.Form1098TDownload{},
		&types.Setting{},
	); err != nil {
		return err
	}

	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS "uniq_published_form_per_student_year"
		ON "form_1098t" ("student_id", "tax_year")
		WHERE "is_published"
	`).Error; err != nil {
		return fmt.Errorf("Failed to create unique published form index: %w", err)
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
