package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ppiankov/mdpolish/internal/model"
	"github.com/ppiankov/mdpolish/internal/pipeline"
)

// PageEnhancer enhances one rendered page
type PageEnhancer interface {
	EnhanceHTML(ctx context.Context, input []byte, src pipeline.PageSource) (*pipeline.Result, error)
}

// Server serves a built book, enhancing HTML pages on the fly
type Server struct {
	cfg        model.ServeConfig
	root       http.FileSystem
	enhancer   PageEnhancer
	maxBytes   int64
	logger     *slog.Logger
	router     chi.Router
	httpServer *http.Server
}

// New creates a server for the book directory at root
func New(cfg model.ServeConfig, root string, enhancer PageEnhancer, maxBytes int64, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	s := &Server{
		cfg:      cfg,
		root:     http.Dir(root),
		enhancer: enhancer,
		maxBytes: maxBytes,
		logger:   logger,
	}
	s.router = s.buildRouter()
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.cfg.RequestTimeout))

	if len(s.cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/*", s.serveBook)
	r.Head("/*", s.serveBook)

	return r
}

// Handler returns the router
func (s *Server) Handler() http.Handler { return s.router }

// Start listens on the configured address until Shutdown
func (s *Server) Start() error {
	s.logger.Info("serving book", "addr", s.cfg.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) serveBook(w http.ResponseWriter, r *http.Request) {
	name := path.Clean("/" + r.URL.Path)

	f, err := s.root.Open(name)
	if err != nil {
		s.notFound(w, r, err)
		return
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		s.notFound(w, r, err)
		return
	}

	if info.IsDir() {
		_ = f.Close()
		if !strings.HasSuffix(r.URL.Path, "/") {
			http.Redirect(w, r, r.URL.Path+"/", http.StatusMovedPermanently)
			return
		}
		name = path.Join(name, "index.html")
		if f, err = s.root.Open(name); err != nil {
			s.notFound(w, r, err)
			return
		}
		if info, err = f.Stat(); err != nil || info.IsDir() {
			_ = f.Close()
			s.notFound(w, r, fs.ErrNotExist)
			return
		}
	}
	defer func() { _ = f.Close() }()

	if path.Ext(name) != ".html" {
		http.ServeContent(w, r, name, info.ModTime(), f)
		return
	}

	s.serveEnhanced(w, r, name, info, f)
}

func (s *Server) serveEnhanced(w http.ResponseWriter, r *http.Request, name string, info fs.FileInfo, f http.File) {
	limit := s.maxBytes
	if limit <= 0 {
		limit = math.MaxInt64 - 1
	}
	input, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		http.Error(w, "read page", http.StatusInternalServerError)
		return
	}
	if int64(len(input)) > limit {
		s.logger.Warn("page too large to enhance, serving as-is", "path", name)
		if _, err := f.Seek(0, io.SeekStart); err == nil {
			http.ServeContent(w, r, name, info.ModTime(), f)
			return
		}
		http.Error(w, "page too large", http.StatusInternalServerError)
		return
	}

	out := input
	res, err := s.enhancer.EnhanceHTML(r.Context(), input, pipeline.PageSource{
		Source:  name,
		PageURL: requestURL(r),
	})
	if err != nil {
		// Enhancement is best effort; the reader still gets the page.
		s.logger.Warn("enhance failed, serving original", "path", name, "error", err)
	} else {
		out = res.HTML
		w.Header().Set("X-Mdpolish-Footer", string(res.Report.Footer.Status))
		w.Header().Set("X-Mdpolish-Callouts", strconv.Itoa(res.Report.Classified()))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	w.Header().Set("Last-Modified", info.ModTime().UTC().Format(http.TimeFormat))
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(out)
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, fs.ErrNotExist) {
		http.NotFound(w, r)
		return
	}
	s.logger.Debug("open failed", "path", r.URL.Path, "error", err)
	http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// requestURL reconstructs the public URL of the request
func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	return fmt.Sprintf("%s://%s%s", scheme, r.Host, r.URL.EscapedPath())
}
