// Package preview runs the development loop: build once, serve the output
// with live reload, and rebuild whenever posts or templates change.
package preview

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
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/build"
	berrors "git.home.luguber.info/inful/blogbuilder/internal/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
	"git.home.luguber.info/inful/blogbuilder/internal/server"
	"git.home.luguber.info/inful/blogbuilder/internal/watcher"
)

// ShutdownTimeout bounds graceful HTTP shutdown.
const ShutdownTimeout = 5 * time.Second

// Options configures a preview session.
type Options struct {
	Build build.Config

	Host         string
	Port         int
	StatusPath   string
	PollInterval time.Duration
	Cooldown     time.Duration
	QueueSize    int

	AdminPort      int
	MetricsHandler http.Handler
	Recorder       metrics.Recorder
	Logger         *slog.Logger
}

// Session is a running preview: server and watcher share one build.State.
type Session struct {
	opts    Options
	logger  *slog.Logger
	builder *build.Builder
	state   *build.State
	server  *server.Server
	watcher *watcher.Watcher

	mu   sync.Mutex
	last *build.Report

	watchDone chan error
}

// Run starts a session and blocks until ctx is cancelled, then shuts it down.
func Run(ctx context.Context, opts Options) error {
	s, err := Start(ctx, opts)
	if err != nil {
		return err
	}
	<-ctx.Done()
	return s.Shutdown()
}

// Start performs the initial build and starts the server and watcher. A failed
// initial build is logged and an empty output directory is served until the
// next successful rebuild.
func Start(ctx context.Context, opts Options) (*Session, error) {
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if err := validateSourceDirs(opts.Build); err != nil {
		return nil, err
	}

	s := &Session{
		opts:      opts,
		logger:    opts.Logger,
		builder:   build.NewBuilder(opts.Build).WithRecorder(opts.Recorder).WithLogger(opts.Logger),
		watchDone: make(chan error, 1),
	}

	report, err := s.builder.Run(ctx)
	if err != nil {
		s.logger.Error("Initial build failed; serving empty site until the next successful rebuild", logfields.Error(err))
		if mkErr := os.MkdirAll(opts.Build.OutputDir, 0o755); mkErr != nil {
			return nil, berrors.OutputError("create output", opts.Build.OutputDir, mkErr)
		}
	} else {
		s.last = report
	}

	s.state = build.NewState(time.Now())
	s.builder.WithState(s.state)

	s.server = server.New(server.Options{
		Host:           opts.Host,
		Port:           opts.Port,
		Root:           opts.Build.OutputDir,
		LiveReload:     true,
		State:          s.state,
		StatusPath:     opts.StatusPath,
		PollInterval:   opts.PollInterval,
		AdminPort:      opts.AdminPort,
		MetricsHandler: opts.MetricsHandler,
		Recorder:       opts.Recorder,
		Logger:         opts.Logger,
	})
	if err := s.server.Start(ctx); err != nil {
		return nil, err
	}

	w, err := watcher.New(watcher.Config{
		Roots:     []string{opts.Build.PostsDir, opts.Build.TemplatesDir},
		Cooldown:  opts.Cooldown,
		QueueSize: opts.QueueSize,
	}, s.state, s.rebuild)
	if err != nil {
		s.stopServer()
		return nil, berrors.InternalError("start watcher", err)
	}
	s.watcher = w.WithRecorder(opts.Recorder).WithLogger(opts.Logger)

	go func() { s.watchDone <- s.watcher.Run(ctx) }()
	return s, nil
}

// Addr returns the bound site address.
func (s *Session) Addr() net.Addr { return s.server.Addr() }

// State returns the shared build state.
func (s *Session) State() *build.State { return s.state }

// Shutdown stops the watcher, waits for any in-flight rebuild, then shuts the
// server down.
func (s *Session) Shutdown() error {
	s.logger.Info("Shutting down preview server...")
	var errs []error
	if err := s.watcher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close watcher: %w", err))
	}
	if err := <-s.watchDone; err != nil {
		errs = append(errs, err)
	}
	if err := s.stopServer(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *Session) stopServer() error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return s.server.Stop(ctx)
}

// rebuild runs one build and logs which posts changed since the last good one.
func (s *Session) rebuild(ctx context.Context) error {
	report, err := s.builder.Run(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	prev := s.last
	s.last = report
	s.mu.Unlock()

	added, changed, removed := report.Diff(prev)
	s.logger.Info("Site rebuilt",
		logfields.BuildID(report.BuildID),
		slog.Any("added", added),
		slog.Any("changed", changed),
		slog.Any("removed", removed),
		logfields.Duration(report.Duration))
	return nil
}

// validateSourceDirs requires the templates directory; a missing posts
// directory only yields an empty site.
func validateSourceDirs(cfg build.Config) error {
	fi, err := os.Stat(cfg.TemplatesDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return berrors.ValidationFailed("templates_dir", fmt.Sprintf("directory %s does not exist", cfg.TemplatesDir))
		}
		return berrors.OutputError("stat", cfg.TemplatesDir, err)
	}
	if !fi.IsDir() {
		return berrors.ValidationFailed("templates_dir", fmt.Sprintf("%s is not a directory", cfg.TemplatesDir))
	}
	for field, dir := range map[string]string{"posts_dir": cfg.PostsDir, "templates_dir": cfg.TemplatesDir} {
		if within(cfg.OutputDir, dir) {
			return berrors.ValidationFailed("output_dir", "must not be inside "+field)
		}
	}
	return nil
}

// within reports whether path is dir or lies below it.
func within(path, dir string) bool {
	p, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	d, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(d, p)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
