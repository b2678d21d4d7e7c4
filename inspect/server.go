package inspect

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/iockit/logger"
	"github.com/kbukum/iockit/observability"
)

// Server runs an inspection handler on a TCP address.
type Server struct {
	httpServer *http.Server
	listener   atomic.Pointer[net.Listener]
	running    atomic.Bool
	log        *logger.Logger
}

// NewServer wraps handler for HTTP/1.1 and cleartext HTTP/2. handler may be
// nil and set later with SetHandler. The gin mode follows the global log
// level.
func NewServer(addr string, handler http.Handler, log *logger.Logger) *Server {
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if log == nil {
		log = logger.Get("inspect")
	}

	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		log: log,
	}
	if handler != nil {
		s.SetHandler(handler)
	}
	return s
}

// SetHandler replaces the served handler. Call it before Start.
func (s *Server) SetHandler(handler http.Handler) {
	h2s := &http2.Server{IdleTimeout: 120 * time.Second}
	s.httpServer.Handler = h2c.NewHandler(handler, h2s)
}

// Name implements component.Component.
func (s *Server) Name() string { return "inspect" }

// Start binds the address and serves in a goroutine. It returns once the
// listener is bound.
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("inspect server failed to bind %s: %w", s.httpServer.Addr, err)
	}
	s.listener.Store(&ln)
	s.running.Store(true)

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error("inspect server error", logger.ErrorFields("serve", err))
		}
	}()

	s.log.Info("inspect server started", logger.Fields("addr", s.Addr()))
	return nil
}

// Stop shuts the server down, waiting at most five seconds for requests.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	s.running.Store(false)
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("inspect server shutdown: %w", err)
	}
	s.log.Info("inspect server stopped")
	return nil
}

// Addr returns the bound address once started, else the configured one.
func (s *Server) Addr() string {
	if ln := s.listener.Load(); ln != nil {
		return (*ln).Addr().String()
	}
	return s.httpServer.Addr
}

// CheckHealth is up while the server is listening.
func (s *Server) CheckHealth(context.Context) observability.Health {
	h := observability.Health{Name: s.Name(), Status: observability.HealthStatusUp}
	if !s.running.Load() {
		h.Status = observability.HealthStatusDown
		h.Message = "not listening"
	}
	return h
}
