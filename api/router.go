package api

import (
	"context"
	"errors"
	"github.com/gin-gonic/gin"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/myjd"
	"github.com/shimmeringbee/myjd/entity"
	"github.com/shimmeringbee/myjd/integration"
	"net/http"
	"time"
)

// Integration is the part of integration.Integration served over HTTP.
type Integration interface {
	Entities() []entity.Entity
	Entity(string) (entity.Entity, error)
	Enabled(string) bool
	SetEnabled(string, bool) error
	Devices() []integration.KnownDevice
	TurnOn(context.Context, string) error
	TurnOff(context.Context, string) error
	Install(context.Context, string) error
	CallService(context.Context, string, string) error
}

type Deps struct {
	Integration Integration
	Logger      logwrap.Logger
}

func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(deps.Logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	h := &handler{integration: deps.Integration}

	r.GET("/devices", h.devices)

	r.GET("/entities", h.entities)
	r.GET("/entities/:id", h.entity)
	r.PUT("/entities/:id/enabled", h.setEnabled)
	r.POST("/entities/:id/turn_on", h.command(deps.Integration.TurnOn))
	r.POST("/entities/:id/turn_off", h.command(deps.Integration.TurnOff))
	r.POST("/entities/:id/install", h.command(deps.Integration.Install))

	r.GET("/services", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"services": entity.Services()})
	})
	r.POST("/services/:service", h.callService)

	return r
}

func requestLogger(logger logwrap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.LogDebug(c.Request.Context(), "Served HTTP request.",
			logwrap.Datum("Method", c.Request.Method),
			logwrap.Datum("Path", c.FullPath()),
			logwrap.Datum("Status", c.Writer.Status()),
			logwrap.Datum("Duration", time.Since(start).String()))
	}
}

// statusFor maps integration errors onto HTTP statuses, anything unrecognised is a relay failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, integration.ErrUnknownEntity),
		errors.Is(err, integration.ErrUnknownDevice),
		errors.Is(err, entity.ErrUnknownService):
		return http.StatusNotFound
	case myjd.IsDeviceOffline(err), errors.Is(err, integration.ErrDeviceOnline):
		return http.StatusConflict
	case errors.Is(err, entity.ErrNotSupported):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func abortWithError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

// ListenAndServe serves handler on addr until ctx is cancelled.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)

	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	}
}
