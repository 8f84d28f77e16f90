package app

import (
	"github.com/gin-gonic/gin"

	"github.com/campusbridge/taxforms-backend/internal/server"
)

func wireRouter(cfg Config, handlerset Handlers, middlewareset Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		AuthHandler:    handlerset.Auth,
		FormsHandler:   handlerset.Forms,
		AdminHandler:   handlerset.Admin,
		AuthMiddleware: middlewareset.Auth,
		AllowOrigins:   server.SplitOrigins(cfg.AllowOrigins),
	})
}
