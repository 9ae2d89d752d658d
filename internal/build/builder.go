package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/blogbuilder/internal/content"
	berrors "git.home.luguber.info/inful/blogbuilder/internal/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/markdown"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
	"git.home.luguber.info/inful/blogbuilder/internal/templates"
)

const (
	indexFile = "index.html"
	// MarkerFile tells static hosts such as GitHub Pages not to preprocess the site.
	MarkerFile = ".nojekyll"

	stageSuffix  = "_stage"
	backupSuffix = ".prev"
)

// Config names the directories a build reads from and writes to.
type Config struct {
	PostsDir     string
	TemplatesDir string
	OutputDir    string
}

// Builder runs full site builds.
type Builder struct {
	cfg      Config
	renderer *markdown.Renderer
	recorder metrics.Recorder
	state    *State
	logger   *slog.Logger

	mu sync.Mutex
}

// NewBuilder creates a Builder with a no-op metrics recorder and no shared State.
// Directory paths are cleaned so staging and backup directories land next to
// the output directory, never inside it.
func NewBuilder(cfg Config) *Builder {
	cfg.PostsDir = filepath.Clean(cfg.PostsDir)
	cfg.TemplatesDir = filepath.Clean(cfg.TemplatesDir)
	cfg.OutputDir = filepath.Clean(cfg.OutputDir)
	return &Builder{
		cfg:      cfg,
		renderer: markdown.NewRenderer(),
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
	}
}

// WithRecorder sets the metrics recorder.
func (b *Builder) WithRecorder(r metrics.Recorder) *Builder {
	if r != nil {
		b.recorder = r
	}
	return b
}

// WithState makes the builder update s after every successful build.
func (b *Builder) WithState(s *State) *Builder {
	b.state = s
	return b
}

// WithLogger sets the logger used for build progress and warnings.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	if l != nil {
		b.logger = l
	}
	return b
}

// OutputDir returns the directory the builder promotes finished builds to.
func (b *Builder) OutputDir() string {
	return b.cfg.OutputDir
}

// Run performs a clean build. On error the returned report has StatusFailed
// (or StatusCancelled) and the previous output directory is left in place.
func (b *Builder) Run(ctx context.Context) (*Report, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := time.Now()
	report := &Report{
		BuildID:      uuid.NewString(),
		OutputDir:    b.cfg.OutputDir,
		Fingerprints: map[string]string{},
		StartTime:    start,
	}
	logger := b.logger.With(logfields.BuildID(report.BuildID))
	logger.Info("Building site",
		slog.String("posts_dir", b.cfg.PostsDir),
		slog.String("templates_dir", b.cfg.TemplatesDir),
		slog.String("output", b.cfg.OutputDir))

	stage := stageDir(b.cfg.OutputDir)
	err := b.generate(ctx, logger, stage, report)
	if err == nil {
		err = promote(logger, stage, b.cfg.OutputDir)
	}

	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(start)
	b.recorder.ObserveBuildDuration(report.Duration)

	if err != nil {
		abortStaging(logger, stage)
		logger.Debug("Build failed", failureAttrs(err)...)
		report.Status = StatusFailed
		outcome := metrics.BuildOutcomeFailed
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			report.Status = StatusCancelled
			outcome = metrics.BuildOutcomeCanceled
		}
		b.recorder.IncBuildOutcome(outcome)
		return report, err
	}

	report.Status = StatusSuccess
	b.recorder.IncBuildOutcome(metrics.BuildOutcomeSuccess)
	b.recorder.SetPostsBuilt(report.Posts)
	b.recorder.AddPostsSkipped(len(report.Skipped))
	if b.state != nil {
		b.state.MarkBuilt(report.EndTime)
	}

	logger.Info("Build complete",
		slog.Int("posts", report.Posts),
		slog.Int("files", len(report.Files)),
		slog.Int("skipped", len(report.Skipped)),
		logfields.Duration(report.Duration))
	return report, nil
}

// generate writes the complete site into stage.
func (b *Builder) generate(ctx context.Context, logger *slog.Logger, stage string, report *Report) error {
	if err := os.RemoveAll(stage); err != nil {
		return berrors.OutputError("clean staging", stage, err)
	}
	if err := os.MkdirAll(stage, 0o755); err != nil {
		return berrors.OutputError("create staging", stage, err)
	}

	posts, skipped, err := content.NewLoader(b.cfg.PostsDir, logger).Load(ctx)
	if err != nil {
		return err
	}
	report.Skipped = skipped
	logger.Info("Found posts", logfields.Count(len(posts)))

	tpl, err := templates.Load(b.cfg.TemplatesDir)
	if err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(posts))
	for i := range posts {
		if err := ctx.Err(); err != nil {
			return err
		}
		slug := posts[i].Slug
		if _, dup := seen[slug]; dup {
			return berrors.BuildFailed("render", fmt.Errorf("duplicate slug %q", slug))
		}
		seen[slug] = struct{}{}

		html, err := b.renderer.Render(posts[i].Body)
		if err != nil {
			return berrors.MarkdownFailed(slug, err)
		}
		posts[i].ContentHTML = template.HTML(html) //nolint:gosec // rendered from the site's own markdown
		report.Fingerprints[slug] = posts[i].Fingerprint
	}

	if err := writePage(stage, indexFile, func(w io.Writer) error {
		return tpl.RenderIndex(w, posts)
	}); err != nil {
		return err
	}
	report.Files = append(report.Files, indexFile)
	logger.Debug("Generated page", logfields.Path(indexFile))

	for _, post := range posts {
		rel := path.Join(post.Slug, indexFile)
		if err := writePage(stage, rel, func(w io.Writer) error {
			return tpl.RenderPost(w, post)
		}); err != nil {
			return err
		}
		report.Files = append(report.Files, rel)
		logger.Debug("Generated page", logfields.Path(rel), logfields.Slug(post.Slug))
	}

	marker := filepath.Join(stage, MarkerFile)
	if err := os.WriteFile(marker, nil, 0o644); err != nil {
		return berrors.OutputError("write marker", marker, err)
	}
	report.Files = append(report.Files, MarkerFile)
	report.Posts = len(posts)
	return nil
}

// failureAttrs describes a build error for logging, naming the template when
// one failed.
func failureAttrs(err error) []any {
	attrs := []any{slog.String("category", string(berrors.GetCategory(err)))}
	if berrors.IsCategory(err, berrors.CategoryRender) {
		if be, ok := berrors.As(err); ok {
			if name, ok := be.Context["template"].(string); ok {
				attrs = append(attrs, logfields.Template(name))
			}
		}
	}
	return append(attrs, logfields.Error(err))
}

// writePage renders a page fully in memory before writing it to root/rel.
func writePage(root, rel string, render func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}
	dst := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return berrors.OutputError("mkdir", filepath.Dir(dst), err)
	}
	if err := os.WriteFile(dst, buf.Bytes(), 0o644); err != nil {
		return berrors.OutputError("write", dst, err)
	}
	return nil
}

// BackupDir returns where the previous output lives while a new build is promoted.
func BackupDir(output string) string {
	return filepath.Clean(output) + backupSuffix
}

func stageDir(output string) string {
	return filepath.Clean(output) + stageSuffix
}

// promote replaces output with stage:
//  1. Move the existing output (if any) to <output>.prev, replacing an old backup.
//  2. Rename stage to output.
//  3. Remove the backup.
func promote(logger *slog.Logger, stage, output string) error {
	prev := BackupDir(output)
	if err := os.RemoveAll(prev); err != nil {
		return berrors.OutputError("remove backup", prev, err)
	}
	if _, err := os.Stat(output); err == nil {
		if err := os.Rename(output, prev); err != nil {
			return berrors.OutputError("backup output", output, err)
		}
	}
	if err := os.Rename(stage, output); err != nil {
		return berrors.OutputError("promote staging", output, err)
	}
	if err := os.RemoveAll(prev); err != nil {
		logger.Warn("Failed to remove previous output", logfields.Path(prev), logfields.Error(err))
	}
	logger.Debug("Promoted staging directory", logfields.Path(output))
	return nil
}

// abortStaging removes the staging directory after a failed build.
func abortStaging(logger *slog.Logger, stage string) {
	if err := os.RemoveAll(stage); err != nil {
		logger.Warn("Failed to remove staging directory", logfields.Path(stage), logfields.Error(err))
	}
}
