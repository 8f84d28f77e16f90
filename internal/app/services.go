package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/campusbridge/taxforms-backend/internal/logger"
	"github.com/campusbridge/taxforms-backend/internal/services"
	"github.com/campusbridge/taxforms-backend/internal/utils"
)

type Services struct {
	Auth             services.AuthService
	Settings         services.SettingsService
	Summary          services.SummaryProvider
	Storage          services.FormStorage
	Templates        services.TemplateResolver
	PublisherFactory services.PublisherFactory
	Download         services.DownloadService
	Consent          services.ConsentService
	Export           services.ExportService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos) (Services, error) {
	log.Info("Wiring services...")

	var storage services.FormStorage
	if utils.GetEnv("FORMS_STORAGE_BACKEND", "gcs", log) == "memory" {
		storage = services.NewMemoryFormStorage("")
	} else {
		gcs, err := services.NewGCSFormStorage(log)
		if err != nil {
			return Services{}, fmt.Errorf("init form storage: %w", err)
		}
		storage = gcs
	}

	settings := services.NewSettingsService(db, log, reposet.Setting)
	summary := services.NewLedgerSummaryProvider(log, reposet.Transaction, settings)
	templates := services.NewTemplateResolver(log, cfg.TemplateDir)

	publisherFactory := services.NewPublisherFactory(
		db, log, templates, settings, storage, summary,
		reposet.Form1098T, reposet.Student, reposet.Transaction,
	)

	return Services{
		Auth: services.NewAuthService(
			db, log, reposet.User, reposet.UserToken,
			cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL,
		),
		Settings:         settings,
		Summary:          summary,
		Storage:          storage,
		Templates:        templates,
		PublisherFactory: publisherFactory,
		Download: services.NewDownloadService(
			db, log, storage, reposet.Form1098T, reposet.Student, reposet.FormDownload,
		),
		Consent: services.NewConsentService(log, reposet.Student),
		Export: services.NewExportService(
			db, log, summary, reposet.Student, reposet.Transaction,
		),
	}, nil
}
