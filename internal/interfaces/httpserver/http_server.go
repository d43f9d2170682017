package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/janhq/support-chat/internal/config"
	"github.com/janhq/support-chat/internal/infrastructure"
	"github.com/janhq/support-chat/internal/interfaces/httpserver/handlers"
	middleware "github.com/janhq/support-chat/internal/interfaces/httpserver/middlewares"
	"github.com/janhq/support-chat/internal/interfaces/httpserver/routes"
)

// HTTPServer wraps the gin engine with graceful shutdown helpers.
type HTTPServer struct {
	cfg    *config.Config
	engine *gin.Engine
	log    zerolog.Logger
}

// NewHTTPServer builds the engine with the middleware chain and all routes.
func NewHTTPServer(cfg *config.Config, infra *infrastructure.Infrastructure, handlerProvider *handlers.Provider) *HTTPServer {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	// the rate limit keys on ClientIP, so forwarded headers count only from known proxies
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		infra.Logger.Warn().Err(err).Msg("invalid trusted proxies, trusting none")
		_ = engine.SetTrustedProxies(nil)
	}
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	if cfg.TracingEnabled {
		engine.Use(middleware.TracingMiddleware(cfg.ServiceName))
	}
	engine.Use(middleware.LoggingMiddleware(infra.Logger))
	engine.Use(middleware.MetricsMiddleware())
	engine.Use(middleware.CORSMiddleware(cfg.CORSAllowedOrigins))
	engine.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

	var messageGate gin.HandlerFunc
	if infra.Limiter != nil {
		messageGate = middleware.RateLimitMiddleware(infra.Limiter, cfg.RateLimitWindow)
	}
	routes.NewProvider(handlerProvider, messageGate).Register(engine)

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &HTTPServer{
		cfg:    cfg,
		engine: engine,
		log:    infra.Logger,
	}
}

// Handler exposes the engine for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

// Run starts the HTTP listener and handles graceful shutdown via context cancellation.
func (s *HTTPServer) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr()).Msg("HTTP server listening")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("HTTP server error")
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.log.Info().Msg("context cancelled, shutting down HTTP server")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
