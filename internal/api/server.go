// Package api serves the read-only listing endpoints over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"estate_bot/internal/api/dto"
	"estate_bot/internal/storage"
)

// Options configures the HTTP handler.
type Options struct {
	// PageSize is the number of listings per page.
	PageSize int
	// PublicBaseURL overrides the scheme and host used for absolute links.
	PublicBaseURL string
	// MediaRoot is the directory served under /media/. Empty disables it.
	MediaRoot   string
	CORSOrigins []string
}

// NewRouter builds the chi router with all routes and middleware.
func NewRouter(store storage.Listings, opts Options, log *slog.Logger) http.Handler {
	if opts.PageSize < 1 {
		opts.PageSize = 10
	}
	h := &handler{
		store:    store,
		pageSize: opts.PageSize,
		baseURL:  opts.PublicBaseURL,
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP, loggerMiddleware(log), middleware.Recoverer, middleware.StripSlashes)
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Trace-ID"},
			MaxAge:         300,
		}))
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/apartments", h.listApartments)
		r.Get("/apartments/feed", h.apartmentsFeed)
		r.Get("/apartments/{id}", h.getApartment)
	})

	if opts.MediaRoot != "" {
		r.Handle(dto.MediaPrefix+"*", mediaFiles(opts.MediaRoot))
	}

	return r
}

// mediaFiles serves image files from root. Directories are never listed.
func mediaFiles(root string) http.Handler {
	dir := http.Dir(root)
	files := http.StripPrefix(dto.MediaPrefix, http.FileServer(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := path.Clean("/" + strings.TrimPrefix(r.URL.Path, dto.MediaPrefix))
		f, err := dir.Open(name)
		if err != nil {
			writeNotFound(w)
			return
		}
		info, err := f.Stat()
		_ = f.Close()
		if err != nil || info.IsDir() {
			writeNotFound(w)
			return
		}
		files.ServeHTTP(w, r)
	})
}

// Server wraps http.Server with logging.
type Server struct {
	httpServer *http.Server
	log        *slog.Logger
}

// NewServer creates a Server listening on addr.
func NewServer(addr string, h http.Handler, log *slog.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Start serves until Stop is called. A clean shutdown returns nil.
func (s *Server) Start() error {
	s.log.Info("starting http server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("stopping http server")
	return s.httpServer.Shutdown(ctx)
}
