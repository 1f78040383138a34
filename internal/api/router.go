package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"build-hooks/internal/api/handlers"
	"build-hooks/internal/api/middleware"
	"build-hooks/internal/api/templates"
	"build-hooks/internal/buildhook"
	"build-hooks/internal/db/store"
	ws "build-hooks/internal/websocket"
)

// Deps are the collaborators of the admin router
type Deps struct {
	Service    *buildhook.Service
	Store      *store.Store
	Hub        *ws.Hub
	RoleHeader string
	Version    string
}

// NewRouter builds the admin HTTP surface
func NewRouter(deps Deps) (*gin.Engine, error) {
	tmpl, err := templates.Load()
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.Logger(), middleware.CORS(deps.RoleHeader), middleware.Role(deps.RoleHeader))
	router.SetHTMLTemplate(tmpl)

	svc := deps.Service
	canView := middleware.Require(svc.CanView)
	canManage := middleware.Require(svc.CanManageSettings)

	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/build-hooks")
	})

	// Admin pages
	pages := handlers.NewPageHandler(svc)
	router.GET("/build-hooks", canView, pages.StatusPage)
	router.POST("/build-hooks", canView, pages.StatusAction)
	router.GET("/build-hooks/settings", canManage, pages.SettingsPage)
	router.POST("/build-hooks/settings", canManage, pages.SaveSettings)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "version": deps.Version})
		})

		buildHookHandler := handlers.NewBuildHookHandler(svc)
		v1.GET("/status", canView, buildHookHandler.Status)
		v1.POST("/trigger", canView, buildHookHandler.Trigger)
		v1.GET("/workflows", canView, buildHookHandler.ListWorkflows)
		v1.GET("/settings", canManage, buildHookHandler.GetSettings)
		v1.PUT("/settings", canManage, buildHookHandler.UpdateSettings)

		// Trigger history
		triggerHandler := handlers.NewTriggerHandler(deps.Store)
		v1.GET("/triggers", canView, triggerHandler.ListTriggers)
		v1.GET("/triggers/:id", canView, triggerHandler.GetTrigger)
		v1.GET("/stats", canView, triggerHandler.GetStats)

		// Notifications
		notificationHandler := handlers.NewNotificationHandler(deps.Store)
		notifications := v1.Group("/notifications", canManage)
		notifications.POST("", notificationHandler.CreateNotificationChannel)
		notifications.GET("", notificationHandler.ListNotificationChannels)
		notifications.GET("/:id", notificationHandler.GetNotificationChannel)
		notifications.PUT("/:id", notificationHandler.UpdateNotificationChannel)
		notifications.DELETE("/:id", notificationHandler.DeleteNotificationChannel)
		notifications.POST("/:id/test", notificationHandler.TestNotificationChannel)

		// WebSocket for real-time updates
		v1.GET("/ws", canView, func(c *gin.Context) {
			if err := deps.Hub.Serve(c.Writer, c.Request); err != nil {
				slog.Warn("websocket upgrade failed", "err", err)
			}
		})
	}

	return router, nil
}
