// Package server exposes the editor, interpreter, rooms and auth stub over
// HTTP using gin.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/caffeineduck/codecollab/auth"
	"github.com/caffeineduck/codecollab/editor"
	"github.com/caffeineduck/codecollab/internal/logging"
	"github.com/caffeineduck/codecollab/internal/ratelimit"
	"github.com/caffeineduck/codecollab/interp"
	"github.com/caffeineduck/codecollab/room"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Options are the listener settings.
type Options struct {
	Addr            string
	AllowOrigins    []string
	TrustedProxies  []string
	ReadTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Deps are the services the handlers call into. Limiter may be nil.
type Deps struct {
	Interp  *interp.Interpreter
	Editors *editor.Manager
	Rooms   *room.Service
	Auth    *auth.Service
	Limiter *ratelimit.IPLimiter
	Logger  *zap.Logger
}

// Server is the codecollab HTTP API.
type Server struct {
	opts    Options
	engine  *gin.Engine
	interp  *interp.Interpreter
	editors *editor.Manager
	rooms   *room.Service
	auth    *auth.Service
	limiter *ratelimit.IPLimiter
	logger  *zap.Logger
}

// New builds the router.
func New(opts Options, d Deps) *Server {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Interp == nil {
		d.Interp = interp.New()
	}
	if d.Limiter == nil {
		d.Limiter = ratelimit.NewIPLimiter(0, 0)
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		opts:    opts,
		engine:  gin.New(),
		interp:  d.Interp,
		editors: d.Editors,
		rooms:   d.Rooms,
		auth:    d.Auth,
		limiter: d.Limiter,
		logger:  d.Logger,
	}
	if err := s.engine.SetTrustedProxies(opts.TrustedProxies); err != nil {
		s.logger.Error("invalid trusted proxies, trusting none", zap.Error(err))
		_ = s.engine.SetTrustedProxies(nil)
	}
	s.engine.Use(gin.Recovery(), logging.RequestLogger(s.logger), cors.New(s.corsConfig()))
	s.routes()
	return s
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization")
	cfg.ExposeHeaders = []string{"Content-Disposition", logging.RequestIDHeader}
	if len(s.opts.AllowOrigins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = s.opts.AllowOrigins
	}
	return cfg
}

func (s *Server) routes() {
	s.engine.GET("/health", s.handleHealth)

	api := s.engine.Group("/api")
	api.GET("/languages", s.handleLanguages)
	api.GET("/themes", s.handleThemes)
	api.GET("/templates/:lang", s.handleTemplate)
	api.POST("/execute", s.limiter.Middleware(), s.handleExecute)

	authGroup := api.Group("/auth")
	authGroup.POST("/signin", s.handleSignIn)
	authGroup.POST("/signup", s.handleSignUp)
	authGroup.POST("/oauth/:provider", s.handleOAuth)

	ed := api.Group("/editor", s.auth.Optional(s.logger))
	ed.GET("/state", s.handleGetState)
	ed.PUT("/state", s.handlePutState)
	ed.POST("/run", s.handleRun)
	ed.POST("/language", s.handleLanguage)
	ed.GET("/download", s.handleDownload)

	rooms := api.Group("/rooms", s.auth.Require(s.logger))
	rooms.POST("", s.handleCreateRoom)
	rooms.POST("/join", s.handleJoinRoom)
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: s.opts.ReadTimeout,
		ReadTimeout:       s.opts.ReadTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("codecollab server listening", zap.String("addr", s.opts.Addr))
		errCh <- srv.ListenAndServe()
	}()

	sweepDone := make(chan struct{})
	sweepCtx, stopSweep := context.WithCancel(ctx)
	go func() {
		defer close(sweepDone)
		s.sweepLimiter(sweepCtx)
	}()
	defer func() {
		stopSweep()
		<-sweepDone
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("codecollab server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) sweepLimiter(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.limiter.Sweep()
		}
	}
}
