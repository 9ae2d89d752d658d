package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/inful/mdfp"
	"golang.org/x/text/unicode/norm"

	berrors "git.home.luguber.info/inful/blogbuilder/internal/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/frontmatter"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
)

// ArticleFile is the file name that marks a directory as a post.
const ArticleFile = "article.md"

// Loader reads posts from a root directory.
type Loader struct {
	root   string
	logger *slog.Logger
}

// NewLoader creates a Loader for root. A nil logger uses slog.Default().
func NewLoader(root string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{root: root, logger: logger}
}

// Load returns all valid posts sorted by date, newest first. Posts with equal
// dates keep directory scan order. A missing root yields no posts.
func (l *Loader) Load(ctx context.Context) ([]Post, []Skipped, error) {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("Posts directory does not exist", logfields.Dir(l.root))
			return nil, nil, nil
		}
		return nil, nil, berrors.Wrap(err, berrors.CategoryContent, berrors.SeverityFatal, "read posts directory").
			WithContext("dir", l.root)
	}

	var (
		posts   []Post
		skipped []Skipped
	)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if !entry.IsDir() {
			continue
		}

		slug := norm.NFC.String(entry.Name())
		articlePath := filepath.Join(l.root, entry.Name(), ArticleFile)
		raw, err := os.ReadFile(articlePath)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, nil, berrors.PostLoadFailed(slug, err)
		}

		post, missing, err := parsePost(slug, raw)
		if err != nil {
			return nil, nil, berrors.PostLoadFailed(slug, err)
		}
		if len(missing) > 0 {
			l.logger.Warn("Skipping post: missing required frontmatter",
				logfields.Slug(slug),
				slog.String("missing", strings.Join(missing, ",")))
			skipped = append(skipped, Skipped{Slug: slug, Missing: missing})
			continue
		}
		posts = append(posts, post)
	}

	SortByDateDesc(posts)
	return posts, skipped, nil
}

// parsePost builds a Post from an article file. The returned slice lists the
// required fields that are absent; when non-empty the Post is zero.
func parsePost(slug string, raw []byte) (Post, []string, error) {
	fm, body, _ := frontmatter.Split(raw)
	meta, err := frontmatter.Decode(fm)
	if err != nil {
		return Post{}, nil, err
	}
	if missing := meta.Missing(); len(missing) > 0 {
		return Post{}, missing, nil
	}

	date := meta.Date.Time
	return Post{
		Slug:          slug,
		Title:         *meta.Title,
		Date:          date,
		DateFormatted: date.Format(DisplayDateLayout),
		Category:      meta.Category,
		Subtitle:      meta.Subtitle,
		Excerpt:       meta.Excerpt,
		Body:          string(body),
		Fingerprint:   mdfp.CalculateFingerprintFromParts(string(fm), string(body)),
	}, nil, nil
}

// SortByDateDesc orders posts newest first, keeping input order for equal dates.
func SortByDateDesc(posts []Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Date.After(posts[j].Date)
	})
}

// String implements fmt.Stringer for log output.
func (p Post) String() string {
	return fmt.Sprintf("%s (%s)", p.Slug, p.Date.Format("2006-01-02"))
}
