package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/campusbridge/taxforms-backend/internal/handlers"
	"github.com/campusbridge/taxforms-backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler    *handlers.AuthHandler
	FormsHandler   *handlers.FormsHandler
	AdminHandler   *handlers.AdminHandler
	AuthMiddleware *middleware.AuthMiddleware
	AllowOrigins   []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	allowOrigins := cfg.AllowOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthz", handlers.HealthCheck)

	api := router.Group("/api")
	api.POST("/auth/login", cfg.AuthHandler.Login)
	api.POST("/auth/refresh", cfg.AuthHandler.Refresh)

	protected := api.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	protected.POST("/auth/logout", cfg.AuthHandler.Logout)
	protected.GET("/forms", cfg.FormsHandler.List)
	protected.GET("/forms/:id/download", cfg.FormsHandler.Download)
	protected.GET("/consent", cfg.FormsHandler.ConsentStatus)
	protected.POST("/consent", cfg.FormsHandler.GrantConsent)

	admin := protected.Group("/admin/1098t")
	admin.Use(cfg.AuthMiddleware.RequireStaff())
	admin.POST("/publish", cfg.AdminHandler.Publish)
	admin.GET("/forms", cfg.AdminHandler.Forms)
	admin.GET("/stats", cfg.AdminHandler.Stats)
	admin.GET("/export/csv", cfg.AdminHandler.ExportCSV)
	admin.GET("/export/zip", cfg.AdminHandler.ExportZip)
	admin.DELETE("/consent/:student_id", cfg.AdminHandler.RevokeConsent)
	admin.GET("/settings", cfg.AdminHandler.Settings)
	admin.PUT("/settings/filer", cfg.AdminHandler.SaveFilerInfo)
	admin.PUT("/settings/summary", cfg.AdminHandler.SaveSummaryConfig)

	return router
}

// SplitOrigins turns a comma-separated env value into an origin list.
func SplitOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
