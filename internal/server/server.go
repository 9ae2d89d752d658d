// Package server serves a built site over HTTP, optionally with live reload.
//
// With live reload enabled every HTML page gets a small script that polls the
// status endpoint and reloads the page once the reported build time moves
// past the time the page was served.
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/build"
	berrors "git.home.luguber.info/inful/blogbuilder/internal/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
	smw "git.home.luguber.info/inful/blogbuilder/internal/server/middleware"
)

const (
	DefaultPort         = 8000
	DefaultStatusPath   = "/__livereload"
	DefaultPollInterval = 500 * time.Millisecond
)

// Options configures a Server.
type Options struct {
	// Host defaults to all interfaces.
	Host string
	Port int
	// Root is the directory served. While a build is being promoted the
	// server falls back to build.BackupDir(Root).
	Root string

	// LiveReload enables the status endpoint and script injection. State is
	// required when it is set.
	LiveReload   bool
	State        *build.State
	StatusPath   string
	PollInterval time.Duration

	// AdminPort, when non-zero, starts a second listener with /metrics and /health.
	AdminPort      int
	MetricsHandler http.Handler

	Recorder metrics.Recorder
	Logger   *slog.Logger
}

// Server manages the site listener and the optional admin listener.
type Server struct {
	opts   Options
	logger *slog.Logger

	mu          sync.Mutex
	siteServer  *http.Server
	adminServer *http.Server
	siteAddr    net.Addr
	adminAddr   net.Addr
}

// New constructs a Server. Zero-valued options take their defaults.
func New(opts Options) *Server {
	if opts.Root != "" {
		opts.Root = filepath.Clean(opts.Root)
	}
	if opts.StatusPath == "" {
		opts.StatusPath = DefaultStatusPath
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Server{opts: opts, logger: opts.Logger}
}

// ValidateRoot reports an error unless dir is an existing directory.
func ValidateRoot(dir string) error {
	fi, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return berrors.OutputDirMissing(dir)
		}
		return berrors.OutputError("stat", dir, err)
	}
	if !fi.IsDir() {
		return berrors.OutputError("stat", dir, fmt.Errorf("%s is not a directory", dir))
	}
	return nil
}

// Handler returns the site handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	files := http.FileServer(fallbackDir{root: s.opts.Root})
	var quiet []string
	if s.opts.LiveReload && s.opts.State != nil {
		mux.Handle(s.opts.StatusPath, statusHandler(s.opts.State))
		in := &injector{
			statusPath: s.opts.StatusPath,
			interval:   s.opts.PollInterval,
			state:      s.opts.State,
			recorder:   s.opts.Recorder,
		}
		mux.Handle("/", in.wrap(files))
		quiet = append(quiet, s.opts.StatusPath)
	} else {
		mux.Handle("/", files)
	}
	return smw.Chain(s.logger, quiet...)(smw.NoCache(mux))
}

func (s *Server) adminHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	if s.opts.MetricsHandler != nil {
		mux.Handle("/metrics", s.opts.MetricsHandler)
	}
	return smw.Chain(s.logger, "/health", "/metrics")(mux)
}

// Start binds all listeners before serving so a port conflict fails fast.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.siteServer != nil {
		return errors.New("server already started")
	}

	type preBind struct {
		name string
		port int
		ln   net.Listener
	}
	binds := []preBind{{name: "site", port: s.opts.Port}}
	if s.opts.AdminPort != 0 {
		binds = append(binds, preBind{name: "admin", port: s.opts.AdminPort})
	}

	var bindErrs []error
	lc := net.ListenConfig{}
	for i := range binds {
		addr := net.JoinHostPort(s.opts.Host, fmt.Sprint(binds[i].port))
		ln, err := lc.Listen(ctx, "tcp", addr)
		if err != nil {
			bindErrs = append(bindErrs, berrors.ListenFailed(addr, err))
			continue
		}
		binds[i].ln = ln
	}
	if len(bindErrs) > 0 {
		for _, b := range binds {
			if b.ln != nil {
				_ = b.ln.Close()
			}
		}
		return errors.Join(bindErrs...)
	}

	s.siteServer = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second, IdleTimeout: 120 * time.Second}
	s.siteAddr = binds[0].ln.Addr()
	s.serve("site", s.siteServer, binds[0].ln)

	if len(binds) > 1 {
		s.adminServer = &http.Server{Handler: s.adminHandler(), ReadHeaderTimeout: 10 * time.Second, WriteTimeout: 30 * time.Second}
		s.adminAddr = binds[1].ln.Addr()
		s.serve("admin", s.adminServer, binds[1].ln)
	}

	s.logger.Info("Serving site",
		logfields.Dir(s.opts.Root),
		logfields.Port(s.siteAddr.(*net.TCPAddr).Port),
		slog.String("url", "http://"+displayAddr(s.siteAddr)),
		slog.Bool("live_reload", s.opts.LiveReload))
	return nil
}

func (s *Server) serve(kind string, srv *http.Server, ln net.Listener) {
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(kind+" server error", logfields.Error(err))
		}
	}()
}

// Addr returns the bound site address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.siteAddr
}

// AdminAddr returns the bound admin address, or nil when disabled.
func (s *Server) AdminAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adminAddr
}

// Stop gracefully shuts down all listeners.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.adminServer != nil {
		if err := s.adminServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("admin server shutdown: %w", err))
		}
	}
	if s.siteServer != nil {
		if err := s.siteServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("site server shutdown: %w", err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

// Wait blocks until ctx is done, then stops the server within timeout.
func (s *Server) Wait(ctx context.Context, timeout time.Duration) error {
	<-ctx.Done()
	s.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.Stop(shutdownCtx)
}

func displayAddr(addr net.Addr) string {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok || !tcp.IP.IsUnspecified() {
		return addr.String()
	}
	return fmt.Sprintf("localhost:%d", tcp.Port)
}

// fallbackDir serves root, or its backup while root is briefly absent during
// build promotion.
type fallbackDir struct {
	root string
}

func (d fallbackDir) Open(name string) (http.File, error) {
	f, err := http.Dir(d.root).Open(name)
	if err == nil || !errors.Is(err, fs.ErrNotExist) {
		return f, err
	}
	if _, statErr := os.Stat(d.root); statErr == nil {
		return nil, err
	}
	return http.Dir(build.BackupDir(d.root)).Open(name)
}
