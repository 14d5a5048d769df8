package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/santiagomed/edpgen/config"
	"github.com/santiagomed/edpgen/core"
	"github.com/santiagomed/edpgen/llm"
	"github.com/santiagomed/edpgen/logger"
)

// Server exposes the wizard as a JSON API, one wizard per session.
type Server struct {
	cfg      *config.Config
	router   *gin.Engine
	sessions *Sessions
	logger   logger.Logger
}

func New(cfg *config.Config, clients *llm.Clients, l logger.Logger) (*Server, error) {
	if l == nil {
		l = logger.NewNullLogger()
	}
	opts := core.Options{RemoteRegenerate: cfg.Regenerate.Remote}
	sessions, err := NewSessions(cfg.Server.MaxSessions, func() *core.Wizard {
		return core.NewWizard(clients.Summarizer, clients.Generator, nil, opts, l)
	}, l)
	if err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(l))

	s := &Server{cfg: cfg, router: router, sessions: sessions, logger: l}
	if err := s.routes(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) routes() error {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "sessions": s.sessions.Len()})
	})

	if s.cfg.ProxyTarget != "" {
		proxy, err := newAPIProxy(s.cfg.ProxyTarget, s.logger)
		if err != nil {
			return err
		}
		s.router.Any("/api/*path", proxy)
	}

	h := NewHandler(s.sessions, s.logger)
	sessions := s.router.Group("/sessions")
	sessions.Use(requireToken(s.cfg.Server.Token))
	sessions.POST("", h.CreateSession)
	sessions.GET("/:id", h.GetSession)
	sessions.DELETE("/:id", h.DeleteSession)
	sessions.POST("/:id/events", h.PostEvent)
	sessions.POST("/:id/upload", h.Upload)
	sessions.POST("/:id/summarize", h.Summarize)
	sessions.POST("/:id/generate", h.Generate)
	sessions.POST("/:id/regenerate", h.Regenerate)
	sessions.GET("/:id/files/:fileId/download", h.DownloadFile)
	sessions.GET("/:id/archive", h.DownloadArchive)
	return nil
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.cfg.Timeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info(fmt.Sprintf("Starting edpgen server on %s", s.cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("error starting server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	s.logger.Info("Server exited")
	return nil
}

// newAPIProxy forwards /api/* to target with the /api prefix removed.
func newAPIProxy(target string, l logger.Logger) (gin.HandlerFunc, error) {
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid proxy target %q", target)
	}
	proxy := &httputil.ReverseProxy{
		Rewrite: func(r *httputil.ProxyRequest) {
			r.SetURL(u)
			r.SetXForwarded()
			r.Out.Host = u.Host
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			l.Error(fmt.Sprintf("Proxy error for %s: %v", r.URL.Path, err))
			w.WriteHeader(http.StatusBadGateway)
		},
	}
	return func(c *gin.Context) {
		req := c.Request.Clone(c.Request.Context())
		req.URL.Path = "/" + strings.TrimPrefix(c.Param("path"), "/")
		req.URL.RawPath = ""
		proxy.ServeHTTP(c.Writer, req)
	}, nil
}

// requireToken checks the bearer token when one is configured.
func requireToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		got, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing token"})
			return
		}
		c.Next()
	}
}

// requestLogger logs one structured line per request.
func requestLogger(l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)

		c.Next()

		entry := l.WithField("request_id", requestID).
			WithField("method", c.Request.Method).
			WithField("path", c.Request.URL.Path).
			WithField("status", c.Writer.Status()).
			WithField("latency_ms", time.Since(start).Milliseconds())
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Error("request failed")
		} else {
			entry.Info("request")
		}
	}
}
