package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/janhq/notes-mcp/internal/config"
	"github.com/janhq/notes-mcp/internal/infrastructure/grant"
	"github.com/janhq/notes-mcp/internal/infrastructure/objectstore"
	"github.com/janhq/notes-mcp/internal/interfaces/httpserver/middlewares"
	"github.com/janhq/notes-mcp/internal/interfaces/httpserver/routes/auth"
	"github.com/janhq/notes-mcp/internal/interfaces/httpserver/routes/mcp"
	"github.com/janhq/notes-mcp/pkg/observability"
	obsmiddleware "github.com/janhq/notes-mcp/pkg/observability/middleware"
)

const readinessTimeout = 3 * time.Second

type HTTPServer struct {
	router    *gin.Engine
	config    *config.Config
	authRoute *auth.AuthRoute
	mcpRoute  *mcp.MCPRoute
	issuer    *grant.Issuer
	store     objectstore.Store
	telemetry *observability.Provider
}

func NewHTTPServer(
	cfg *config.Config,
	authRoute *auth.AuthRoute,
	mcpRoute *mcp.MCPRoute,
	issuer *grant.Issuer,
	store objectstore.Store,
	telemetry *observability.Provider,
) *HTTPServer {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middlewares.RequestID())
	router.Use(middlewares.RequestLogger(telemetry.Sanitizer))
	router.Use(middlewares.CORS())
	router.Use(middlewares.MetricsRecorder())

	server := &HTTPServer{
		router:    router,
		config:    cfg,
		authRoute: authRoute,
		mcpRoute:  mcpRoute,
		issuer:    issuer,
		store:     store,
		telemetry: telemetry,
	}
	server.setupRoutes()
	return server
}

func (s *HTTPServer) setupRoutes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": s.config.ServiceName})
	})

	s.router.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()
		if err := s.store.Health(ctx); err != nil {
			log.Warn().Err(err).Msg("object store not reachable")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "service": s.config.ServiceName, "error": "object store not reachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "service": s.config.ServiceName})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.authRoute.RegisterRouter(s.router)

	bearer := middlewares.BearerGrant(s.issuer, s.authRoute.ResourceMetadataURL())
	s.mcpRoute.RegisterRouter(s.router, bearer)
	s.mcpRoute.RegisterRouter(s.router.Group("/v1"), bearer)
}

// Handler returns the router wrapped in the OpenTelemetry middleware
func (s *HTTPServer) Handler() http.Handler {
	return obsmiddleware.HTTPMiddleware(s.telemetry.Tracer, s.telemetry.Meter, "notes")(s.router)
}

// Run serves until ctx is cancelled, then drains in-flight requests
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	log.Info().Msg("shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
