// Package server exposes the knowledge agent over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"github.com/dotcommander/awsknow/internal/log"
	"github.com/dotcommander/awsknow/internal/server/docs"
)

// Options configures the HTTP server.
type Options struct {
	Addr              string
	CORSOrigins       []string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// Server serves the HTTP surface of a Runtime.
type Server struct {
	rt      *Runtime
	opts    Options
	handler http.Handler

	closeOnce sync.Once
	closers   []func() error
	closeErr  error
}

// New builds the router for rt.
func New(rt *Runtime, opts Options) *Server {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	if opts.ReadHeaderTimeout <= 0 {
		opts.ReadHeaderTimeout = 10 * time.Second
	}
	docs.SwaggerInfo.Version = rt.Info().Version

	s := &Server{rt: rt, opts: opts}

	router := gin.New()
	router.Use(gin.Recovery(), requestID(), accessLog())
	router.GET("/", s.root)
	router.GET("/health", s.health)
	router.POST("/knowledge", s.knowledge)
	router.GET("/docs", s.openAPI)

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Content-Length", "Content-Type", RequestIDHeader},
	})
	s.handler = c.Handler(router)
	return s
}

// Handler returns the HTTP handler, CORS included.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// OnShutdown registers fn to run once after the HTTP server has stopped.
func (s *Server) OnShutdown(fn func() error) {
	s.closers = append(s.closers, fn)
}

// ListenAndServe listens on the configured address and serves until ctx is
// done. The shutdown hooks run even when the address cannot be bound.
func (s *Server) ListenAndServe(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.opts.Addr)
	if err != nil {
		return errors.Join(fmt.Errorf("listen on %s: %w", s.opts.Addr, err), s.shutdownHooks())
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully and runs the shutdown hooks.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: s.opts.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	log.Infof("listening on %s", ln.Addr())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		return errors.Join(err, s.shutdownHooks())
	case <-ctx.Done():
	}

	log.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	if err != nil {
		err = fmt.Errorf("http shutdown: %w", err)
	}
	return errors.Join(err, s.shutdownHooks())
}

func (s *Server) shutdownHooks() error {
	s.closeOnce.Do(func() {
		var errs []error
		for _, fn := range s.closers {
			errs = append(errs, fn())
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}
