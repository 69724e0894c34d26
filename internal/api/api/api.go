package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wb-go/wbf/ginext"

	"nryli/cmd/middleware"
	"nryli/internal/metrics"
	"nryli/internal/service"
)

type Routers struct {
	Service service.Service
	Metrics *metrics.Metrics
	// MetricsHandler serves /metrics; nil means the default prometheus registry.
	MetricsHandler http.Handler
	Mode           string
}

func NewRouters(r *Routers) *ginext.Engine {
	mode := r.Mode
	if mode == "" {
		mode = "release"
	}
	app := ginext.New(mode)

	app.Use(ginext.Recovery())
	app.Use(middleware.LoggingMiddleware())
	if r.Metrics != nil {
		app.Use(middleware.MetricsMiddleware(r.Metrics))
	}
	app.Use(cors.Default())

	app.POST("/register", r.Service.Register)
	app.GET("/register", r.Service.Health)

	admin := app.Group("/admin")
	admin.GET("", r.Service.Dashboard)
	admin.GET("/stats", r.Service.Stats)
	admin.GET("/registrations", r.Service.ListRegistrations)
	admin.GET("/registrations/export.csv", r.Service.ExportCSV)
	admin.PATCH("/registrations/:id/status", r.Service.UpdateStatus)
	admin.POST("/registrations/:id/notify", r.Service.Notify)

	metricsHandler := r.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	app.GET("/metrics", func(c *ginext.Context) {
		metricsHandler.ServeHTTP(c.Writer, c.Request)
	})

	return app
}
