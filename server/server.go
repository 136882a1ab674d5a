// Package server exposes the editor over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gekko3d/voxelverse/editor"
	"github.com/gekko3d/voxelverse/merge"
	"github.com/gekko3d/voxelverse/world"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Observer is told about edits that arrive over HTTP.
type Observer interface {
	ObserveInteraction(out editor.Outcome, err error)
	ObserveMerge(res merge.Result)
}

// Structures applies a structure batch. When set, batches are handed to it
// instead of being merged directly into the editor.
type Structures interface {
	Submit(ctx context.Context, message string, batch []merge.Candidate) (merge.Result, error)
}

type Options struct {
	Addr       string
	Logger     Logger
	Observer   Observer
	Structures Structures
	Gatherer   prometheus.Gatherer
	Palette    []world.Color
}

type Server struct {
	ed     *editor.Editor
	opts   Options
	router *chi.Mux

	mu   sync.Mutex
	http *http.Server
	addr string
}

func New(ed *editor.Editor, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = nopLogger{}
	}
	if len(opts.Palette) == 0 {
		opts.Palette = world.DefaultPalette
	}
	s := &Server{ed: ed, opts: opts}
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/world", func(r chi.Router) {
		r.Get("/", s.getWorld)
		r.Get("/count", s.getCount)
		r.Get("/context", s.getContext)
	})
	r.Route("/voxels", func(r chi.Router) {
		r.Post("/", s.addVoxel)
		r.Get("/{id}", s.getVoxel)
		r.Delete("/{id}", s.removeVoxel)
	})
	r.Post("/interact", s.interact)
	r.Post("/click", s.click)
	r.Post("/preview", s.preview)
	r.Post("/clear", s.clear)
	r.Post("/undo", s.undo)

	r.Get("/selection", s.getSelection)
	r.Put("/selection", s.putSelection)
	r.Get("/palette", s.getPalette)

	r.Post("/structures", s.postStructure)
	r.Post("/structures/vox", s.postVox)

	r.Get("/export.glb", s.exportGLB)
	r.Get("/export.gltf", s.exportGLTF)

	if s.opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.opts.Logger.Debugf("%s %s -> %d (%s) [%s]",
			r.Method, r.URL.Path, ww.Status(), time.Since(start), middleware.GetReqID(r.Context()))
	})
}

// Start listens on Options.Addr and serves in the background. Addr reports
// the bound address, which matters when the port is 0.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.Addr, err)
	}
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.mu.Lock()
	s.http = srv
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	s.opts.Logger.Infof("http listening on %s", ln.Addr())
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.opts.Logger.Errorf("http server: %v", err)
		}
	}()
	return nil
}

func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.http
	s.http = nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}
