// Package server exposes the reschedule and workload engines over a JSON
// HTTP API.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/replan/internal/notify"
	"github.com/zulandar/replan/internal/reschedule"
	"github.com/zulandar/replan/internal/workload"
	"gorm.io/gorm"
)

// StartOpts holds configuration for the API server.
type StartOpts struct {
	DB         *gorm.DB
	Engine     *reschedule.Engine
	Notifier   notify.Notifier // optional; deliveries are best-effort
	Thresholds workload.Thresholds
	Port       int
	Out        io.Writer
}

// Start launches the HTTP server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.DB == nil {
		return fmt.Errorf("server: db is required")
	}
	if opts.Engine == nil {
		return fmt.Errorf("server: engine is required")
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}
	if opts.Thresholds == (workload.Thresholds{}) {
		opts.Thresholds = workload.DefaultThresholds()
	}

	gin.SetMode(gin.ReleaseMode)
	router := newRouter(opts)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "API listening at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// newRouter builds the Gin router with all API routes registered.
func newRouter(opts StartOpts) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	h := &handlers{
		db:         opts.DB,
		engine:     opts.Engine,
		notifier:   opts.Notifier,
		thresholds: opts.Thresholds,
	}

	api := router.Group("/api")
	api.POST("/projects/:id/reschedule", h.rescheduleProject)
	api.POST("/tasks/:id/complete", h.completeTask)
	api.GET("/projects/:id/workload", h.projectWorkload)
	api.GET("/projects/:id/report", h.projectReport)
	api.GET("/projects/:id/graph", h.projectGraph)

	return router
}
