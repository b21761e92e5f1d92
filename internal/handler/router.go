package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// Routes groups the handlers served by the API.
type Routes struct {
	Schedules *ScheduleHandler
	Exports   *ExportHandler
	Metrics   *MetricsHandler
}

// Register mounts the routes. guard, when non-nil, protects everything under
// prefix except signed downloads, whose token is the credential.
func (r Routes) Register(engine *gin.Engine, prefix string, guard gin.HandlerFunc) {
	if r.Metrics != nil {
		engine.GET("/metrics", r.Metrics.Prometheus)
		engine.GET("/health", r.Metrics.Health)
		engine.GET("/ready", r.Metrics.Ready)
	}

	prefix = "/" + strings.Trim(prefix, "/")
	public := engine.Group(prefix)
	if r.Exports != nil {
		public.GET("/exports/:token", r.Exports.Download)
	}

	api := engine.Group(prefix)
	if guard != nil {
		api.Use(guard)
	}
	if r.Schedules != nil {
		api.POST("/schedules/runs", r.Schedules.Generate)
		api.GET("/schedules/runs", r.Schedules.List)
		api.GET("/schedules/runs/:id", r.Schedules.Get)
		api.GET("/schedules/runs/:id/export", r.Schedules.Export)
	}
	if r.Exports != nil {
		api.POST("/schedules/runs/:id/exports", r.Exports.Enqueue)
		api.GET("/export-jobs/:id", r.Exports.Status)
	}
}
