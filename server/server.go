package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/hrygo/contextsense/ai/observability/logging"
	"github.com/hrygo/contextsense/internal/profile"
	"github.com/hrygo/contextsense/internal/version"
	apiv1 "github.com/hrygo/contextsense/server/router/api/v1"
)

type Server struct {
	Profile *profile.Profile

	echoServer *echo.Echo
}

// NewServer builds the echo server. metricsHandler may be nil.
func NewServer(_ context.Context, profile *profile.Profile, apiV1Service *apiv1.APIV1Service, metricsHandler http.Handler) (*Server, error) {
	if apiV1Service == nil || apiV1Service.Engine == nil {
		return nil, errors.New("api service with an engine is required")
	}
	s := &Server{Profile: profile}

	echoServer := echo.New()
	echoServer.Debug = profile.IsDev()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(requestContext())
	echoServer.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logging.FromContext(c.Request().Context()).Error("http: panic recovered",
				"path", c.Path(),
				"error", err,
				"stack", string(stack),
			)
			return err
		},
	}))
	s.echoServer = echoServer

	echoServer.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"status":   "ok",
			"strategy": apiV1Service.Engine.Strategy(),
			"version":  version.Current(),
		})
	})
	if metricsHandler != nil {
		echoServer.GET("/metrics", echo.WrapHandler(metricsHandler))
	}

	apiV1Service.RegisterRoutes(echoServer)
	return s, nil
}

// Handler exposes the routes for in-process use.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}

// Start listens on the profile address and serves until Shutdown.
func (s *Server) Start(_ context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", address)
	}
	s.echoServer.Listener = listener

	go func() {
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start echo server", "error", err)
		}
	}()
	slog.Info("server started", "address", listener.Addr().String())
	return nil
}

// Addr returns the bound listener address, or empty before Start.
func (s *Server) Addr() string {
	if s.echoServer.Listener == nil {
		return ""
	}
	return s.echoServer.Listener.Addr().String()
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}
	slog.Info("server stopped properly")
}
