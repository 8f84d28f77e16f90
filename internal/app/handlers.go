package app

import (
	"github.com/campusbridge/taxforms-backend/internal/handlers"
	"github.com/campusbridge/taxforms-backend/internal/logger"
)

type Handlers struct {
	Auth  *handlers.AuthHandler
	Forms *handlers.FormsHandler
	Admin *handlers.AdminHandler
}

func wireHandlers(log *logger.Logger, serviceset Services, reposet Repos) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Auth:  handlers.NewAuthHandler(serviceset.Auth),
		Forms: handlers.NewFormsHandler(serviceset.Download, serviceset.Consent),
		Admin: handlers.NewAdminHandler(
			serviceset.PublisherFactory,
			serviceset.Export,
			serviceset.Summary,
			serviceset.Settings,
			serviceset.Consent,
			reposet.Form1098T,
			reposet.Student,
			reposet.Transaction,
			reposet.FormDownload,
		),
	}
}
