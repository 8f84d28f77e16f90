package app

import (
	"gorm.io/gorm"

	"github.com/campusbridge/taxforms-backend/internal/logger"
	"github.com/campusbridge/taxforms-backend/internal/repos"
)

type Repos struct {
	User         repos.UserRepo
	UserToken    repos.UserTokenRepo
	Student      repos.StudentRepo
	Transaction  repos.StudentTransactionRepo
	Form1098T    repos.Form1098TRepo
	FormDownload repos.Form1098TDownloadRepo
	Setting      repos.SettingRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:         repos.NewUserRepo(db, log),
		UserToken:    repos.NewUserTokenRepo(db, log),
		Student:      repos.NewStudentRepo(db, log),
		Transaction:  repos.NewStudentTransactionRepo(db, log),
		Form1098T:    repos.NewForm1098TRepo(db, log),
		FormDownload: repos.NewForm1098TDownloadRepo(db, log),
		Setting:      repos.NewSettingRepo(db, log),
	}
}
