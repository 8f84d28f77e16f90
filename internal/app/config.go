package app

import (
	"time"

	"github.com/campusbridge/taxforms-backend/internal/logger"
	"github.com/campusbridge/taxforms-backend/internal/utils"
)

type Config struct {
	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	TemplateDir     string
	AllowOrigins    string
}

func LoadConfig(log *logger.Logger) Config {
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTLSeconds := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTLSeconds := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
	templateDir := utils.GetEnv("FORM_TEMPLATE_DIR", "templates/1098t", log)
	allowOrigins := utils.GetEnv("CORS_ALLOW_ORIGINS", "", log)
	return Config{
		JWTSecretKey:    jwtSecretKey,
		AccessTokenTTL:  time.Duration(accessTokenTTLSeconds) * time.Second,
		RefreshTokenTTL: time.Duration(refreshTokenTTLSeconds) * time.Second,
		TemplateDir:     templateDir,
		AllowOrigins:    allowOrigins,
	}
}
