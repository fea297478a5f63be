// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package api exposes the demo actions over HTTP.
package api

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wneessen/roam-tripdemo/internal/logger"
	"github.com/wneessen/roam-tripdemo/internal/permission"
	"github.com/wneessen/roam-tripdemo/internal/presenter"
	"github.com/wneessen/roam-tripdemo/internal/session"
)

const (
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"

	// RequestTimeout bounds how long a request waits for the SDK.
	RequestTimeout = 30 * time.Second
)

// Server serves the demo actions of a session.
type Server struct {
	session   *session.Session
	presenter *presenter.Presenter
	logger    *logger.Logger
	engine    *gin.Engine
	timeout   time.Duration
}

// New returns a Server with all routes registered.
func New(sess *session.Session, pres *presenter.Presenter, log *logger.Logger) *Server {
	s := &Server{
		session:   sess,
		presenter: pres,
		logger:    log,
		engine:    gin.New(),
		timeout:   RequestTimeout,
	}
	s.engine.Use(requestID(), s.requestLogger(), gin.Recovery())
	if err := s.engine.SetTrustedProxies(nil); err != nil {
		log.Warn("failed to set trusted proxies", logger.Err(err))
	}
	s.engine.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, "not_found", "route not found")
	})
	s.routes()
	return s
}

// Handler returns the HTTP handler of the Server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	api := s.engine.Group("/api")
	api.GET("/health", s.health)
	api.GET("/state", s.state)
	api.GET("/report", s.report)

	users := api.Group("/users")
	users.POST("", s.createUser)
	users.POST("/load", s.loadUser)

	trips := api.Group("/trips")
	trips.POST("", s.createTrip)
	trips.POST("/toggle", s.toggleTrip)
	trips.GET("/summary", s.tripSummary)

	api.POST("/events", s.enableEvents)
	api.POST("/listeners", s.enableListeners)

	subscriptions := api.Group("/subscriptions")
	subscriptions.POST("/location", s.subscribeLocation)
	subscriptions.POST("/trip", s.subscribeTrip)

	listen := api.Group("/listen")
	listen.POST("/location", s.listenLocation)
	listen.POST("/trip", s.listenTrip)

	tracking := api.Group("/tracking")
	tracking.POST("/start", s.startTracking)
	tracking.POST("/stop", s.stopTracking)
	tracking.GET("/config", s.trackingConfig)
	tracking.PUT("/config", s.setTrackingConfig)
	tracking.DELETE("/config", s.resetTrackingConfig)

	api.GET("/location", s.currentLocation)
	api.POST("/location/update", s.updateCurrentLocation)

	permissions := api.Group("/permissions")
	permissions.GET("", s.checkPermissions)
	permissions.POST("/:kind", s.requestPermission)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) state(c *gin.Context) {
	c.JSON(http.StatusOK, s.session.Snapshot())
}

func (s *Server) report(c *gin.Context) {
	buf := bytes.NewBuffer(nil)
	if err := s.presenter.Render(buf, s.session.Snapshot(), s.session.Platform()); err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
}

func (s *Server) createUser(c *gin.Context) {
	ctx, cancel := s.requestContext(c)
	defer cancel()
	userID, err := s.session.CreateUser(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"userId": userID})
}

type loadUserRequest struct {
	UserID string `json:"userId"`
}

func (s *Server) loadUser(c *gin.Context) {
	var req loadUserRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()
	userID, err := s.session.LoadUser(ctx, req.UserID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"userId": userID})
}

func (s *Server) createTrip(c *gin.Context) {
	ctx, cancel := s.requestContext(c)
	defer cancel()
	tripID, err := s.session.CreateTrip(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"tripId": tripID})
}

func (s *Server) toggleTrip(c *gin.Context) {
	ctx, cancel := s.requestContext(c)
	defer cancel()
	state, err := s.session.ToggleTrip(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tripState": state})
}

func (s *Server) tripSummary(c *gin.Context) {
	ctx, cancel := s.requestContext(c)
	defer cancel()
	summary, err := s.session.TripSummary(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) enableEvents(c *gin.Context) {
	ctx, cancel := s.requestContext(c)
	defer cancel()
	status, err := s.session.EnableEvents(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (s *Server) enableListeners(c *gin.Context) {
	ctx, cancel := s.requestContext(c)
	defer cancel()
	status, err := s.session.EnableListeners(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (s *Server) subscribeLocation(c *gin.Context) {
	s.action(c, s.session.SubscribeLocation)
}

func (s *Server) subscribeTrip(c *gin.Context) {
	s.action(c, s.session.SubscribeTrip)
}

func (s *Server) listenLocation(c *gin.Context) {
	s.action(c, s.session.ListenLocation)
}

func (s *Server) listenTrip(c *gin.Context) {
	s.action(c, s.session.ListenTripUpdates)
}

type startTrackingRequest struct {
	Mode string `json:"mode"`
}

func (s *Server) startTracking(c *gin.Context) {
	var req startTrackingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()
	if err := s.session.StartTracking(ctx, req.Mode); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tracking": s.session.Snapshot().Tracking})
}

func (s *Server) stopTracking(c *gin.Context) {
	ctx, cancel := s.requestContext(c)
	defer cancel()
	if err := s.session.StopTracking(ctx); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tracking": s.session.Snapshot().Tracking})
}

func (s *Server) trackingConfig(c *gin.Context) {
	ctx, cancel := s.requestContext(c)
	defer cancel()
	conf, err := s.session.TrackingConfig(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, conf)
}

func (s *Server) setTrackingConfig(c *gin.Context) {
	ctx, cancel := s.requestContext(c)
	defer cancel()
	conf, err := s.session.SetTrackingConfig(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, conf)
}

func (s *Server) resetTrackingConfig(c *gin.Context) {
	ctx, cancel := s.requestContext(c)
	defer cancel()
	conf, err := s.session.ResetTrackingConfig(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, conf)
}

func (s *Server) currentLocation(c *gin.Context) {
	ctx, cancel := s.requestContext(c)
	defer cancel()
	loc, err := s.session.CurrentLocation(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, loc)
}

func (s *Server) updateCurrentLocation(c *gin.Context) {
	s.session.UpdateCurrentLocation()
	c.Status(http.StatusAccepted)
}

func (s *Server) checkPermissions(c *gin.Context) {
	ctx, cancel := s.requestContext(c)
	defer cancel()
	status, err := s.session.CheckPermissions(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (s *Server) requestPermission(c *gin.Context) {
	kind := permission.Kind(c.Param("kind"))
	if err := s.session.RequestPermission(kind); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

func (s *Server) action(c *gin.Context, fn func() error) {
	if err := fn(); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), s.timeout)
}

// requestID ensures every request has an ID for tracing and logs.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Header(requestIDHeader, rid)
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			slog.String("request_id", c.GetString(requestIDKey)),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
		)
	}
}
