// Package api exposes uploads and stored readings over HTTP.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/David-Botos/sensor-ingress/pkg/transfer"
)

// Options tunes the HTTP surface
type Options struct {
	MaxUploadBytes int64
	RequestTimeout time.Duration
}

// Server serves the upload and query endpoints
type Server struct {
	manager *transfer.Manager
	opts    Options
	logger  *zap.Logger
}

// NewServer creates a server around an upload manager
func NewServer(manager *transfer.Manager, opts Options, logger *zap.Logger) (*Server, error) {
	if manager == nil {
		return nil, errors.New("upload manager cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 2 * time.Minute
	}

	return &Server{
		manager: manager,
		opts:    opts,
		logger:  logger.Named("api"),
	}, nil
}

// Router builds the route table
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))
	r.Use(chimiddleware.Timeout(s.opts.RequestTimeout))

	r.Get("/debug", s.handleDebug)
	r.Post("/upload", s.handleUpload)
	r.Get("/get", s.handleGet)
	r.Get("/get/param", s.handleGetParam)

	return r
}

// requestLogger logs one line per request
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info("Request handled",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", chimiddleware.GetReqID(r.Context())))
	})
}
