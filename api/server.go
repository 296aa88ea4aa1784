// Package api exposes the engine's boundary operations over HTTP
package api

import (
	"errors"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lixenwraith/voiceloop/engine"
	"github.com/lixenwraith/voiceloop/status"
)

// Options configures the router
type Options struct {
	Engine *engine.Engine

	// Feed enables GET /api/v1/events when set
	Feed *engine.Feed

	// Report refreshes service metrics before /status is served
	Report func(reg *status.Registry)

	// SaveBank persists the current pad settings; nil disables POST /api/v1/bank
	SaveBank func() error
}

// Server holds handler state
type Server struct {
	engine   *engine.Engine
	feed     *engine.Feed
	report   func(reg *status.Registry)
	saveBank func() error
	requests atomic.Int64
}

// NewRouter builds the gin engine with every route registered
func NewRouter(opts Options) (*gin.Engine, *Server) {
	s := &Server{
		engine:   opts.Engine,
		feed:     opts.Feed,
		report:   opts.Report,
		saveBank: opts.SaveBank,
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests(), corsMiddleware())

	r.GET("/health", s.healthCheck)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", s.healthCheck)
		v1.GET("/status", s.getStatus)

		v1.GET("/pads", s.listPads)
		v1.GET("/pads/:id", s.getPad)
		v1.PATCH("/pads/:id", s.updatePad)
		v1.POST("/pads/:id/trigger", s.triggerPad)
		v1.POST("/pads/:id/stop", s.stopPad)
		v1.POST("/pads/:id/record", s.recordPad)
		v1.DELETE("/pads/:id/audio", s.clearPad)

		v1.POST("/stop", s.stopAll)
		v1.GET("/master", s.getMaster)
		v1.POST("/master/record", s.toggleMasterRecord)
		v1.PUT("/master/volume", s.setMasterVolume)
		v1.GET("/bpm", s.getBPM)
		v1.PUT("/bpm", s.setBPM)

		v1.POST("/bank", s.saveBankHandler)
		v1.GET("/events", s.events)
	}

	return r, s
}

// Requests returns the number of requests served
func (s *Server) Requests() int64 {
	return s.requests.Load()
}

// logRequests writes one line per request to the standard logger
func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.requests.Add(1)
		log.Printf("[api] %s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Microsecond))
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// statusFor maps engine errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrUnknownPad):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrAlreadyRecording),
		errors.Is(err, engine.ErrMasterRecording),
		errors.Is(err, engine.ErrNotRecording),
		errors.Is(err, engine.ErrRecordingCancelled):
		return http.StatusConflict
	case errors.Is(err, engine.ErrCaptureUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, engine.ErrDecodeFailed):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error()})
}
