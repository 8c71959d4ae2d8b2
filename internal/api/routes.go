// routes.go - Route registration helpers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"fiona/internal/service"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Layouts *service.LayoutService
	Runner  AgentRunner
	Broker  *Broker
	Version string
}

// Handlers holds all handler instances
type Handlers struct {
	Layout LayoutHandler
	Media  MediaHandler
	Export ExportHandler
	Broker *Broker
	health func(echo.Context) error
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	version := deps.Version
	return &Handlers{
		Layout: NewLayoutHandler(deps.Layouts),
		Media:  NewMediaHandler(deps.Layouts),
		Export: NewExportHandler(deps.Layouts, deps.Runner),
		Broker: deps.Broker,
		health: func(c echo.Context) error {
			return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": version})
		},
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	e.GET("/api/health", handlers.health)

	e.GET("/api/layout", handlers.Layout.HandleGetLayout)
	e.POST("/api/layout", handlers.Layout.HandleSaveLayout)
	e.POST("/api/block", handlers.Layout.HandleBlock)
	e.GET("/api/projects", handlers.Layout.HandleProjects)

	e.POST("/api/upload", handlers.Media.HandleUpload)
	e.GET("/project-assets/:project/:filename", handlers.Media.HandleAsset)

	e.POST("/api/agent/run", handlers.Export.HandleAgentRun)
	e.POST("/api/export/pdf", handlers.Export.HandleExportPDF)
	e.GET("/api/snapshot", handlers.Export.HandleSnapshot)

	if handlers.Broker != nil {
		e.GET("/api/events", handlers.Broker.HandleEvents)
	}
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, allowOrigins []string, bodyLimit string) {
	e.HTTPErrorHandler = ErrorHandler
	e.HideBanner = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowOrigins,
	}))
	if bodyLimit != "" {
		e.Use(middleware.BodyLimit(bodyLimit))
	}
}
