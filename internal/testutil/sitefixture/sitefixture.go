// Package sitefixture builds throwaway blog sites on disk for tests.
package sitefixture

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Default template bodies. They print enough of each post to assert on
// ordering and content without depending on markup details.
const (
	IndexTemplate = `<!DOCTYPE html>
<html><head><title>Index</title></head>
<body>
{{range .Posts}}<a href="/{{.Slug}}/">{{.Title}}</a> {{.DateFormatted}}
{{end}}</body>
</html>
`
	PostTemplate = `<!DOCTYPE html>
<html><head><title>{{.Post.Title}}</title></head>
<body>
<h1>{{.Post.Title}}</h1>
{{.Post.ContentHTML}}
</body>
</html>
`
)

// Site is a posts/templates/output layout rooted in a temporary directory.
type Site struct {
	t    *testing.T
	Root string
}

// New creates a site with the default templates and no posts.
func New(t *testing.T) *Site {
	t.Helper()
	s := &Site{t: t, Root: t.TempDir()}
	s.WriteTemplate("index.html", IndexTemplate)
	s.WriteTemplate("post.html", PostTemplate)
	s.mkdir(s.PostsDir())
	return s
}

// PostsDir returns the site's posts directory.
func (s *Site) PostsDir() string { return filepath.Join(s.Root, "posts") }

// TemplatesDir returns the site's templates directory.
func (s *Site) TemplatesDir() string { return filepath.Join(s.Root, "templates") }

// OutputDir returns the site's output directory. It is not created.
func (s *Site) OutputDir() string { return filepath.Join(s.Root, "dist") }

// WritePost writes posts/<slug>/article.md with the given title and date
// frontmatter and a one-line body.
func (s *Site) WritePost(slug, title, date string) string {
	s.t.Helper()
	return s.WriteArticle(slug, "---\ntitle: "+title+"\ndate: "+date+"\n---\n\nBody of "+title+".\n")
}

// WriteArticle writes raw article content for slug and returns its path.
func (s *Site) WriteArticle(slug, content string) string {
	s.t.Helper()
	path := filepath.Join(s.PostsDir(), slug, "article.md")
	s.write(path, content)
	return path
}

// WriteTemplate writes a template file relative to the templates directory.
func (s *Site) WriteTemplate(name, content string) string {
	s.t.Helper()
	path := filepath.Join(s.TemplatesDir(), filepath.FromSlash(name))
	s.write(path, content)
	return path
}

func (s *Site) write(path, content string) {
	s.t.Helper()
	s.mkdir(filepath.Dir(path))
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		s.t.Fatalf("write %s: %v", path, err)
	}
}

func (s *Site) mkdir(dir string) {
	s.t.Helper()
	if err := os.MkdirAll(dir, 0o750); err != nil {
		s.t.Fatalf("mkdir %s: %v", dir, err)
	}
}

// Output returns assertions over the output directory.
func (s *Site) Output() *FileAssertions {
	return NewFileAssertions(s.t, s.OutputDir())
}

// ReadOutput returns the content of a file under the output directory.
func (s *Site) ReadOutput(rel string) string {
	s.t.Helper()
	// #nosec G304 - test helper, paths are controlled by test code
	data, err := os.ReadFile(filepath.Join(s.OutputDir(), filepath.FromSlash(rel)))
	if err != nil {
		s.t.Fatalf("read output %s: %v", rel, err)
	}
	return string(data)
}

// FileAssertions checks file system state relative to a base directory.
type FileAssertions struct {
	t       *testing.T
	baseDir string
}

// NewFileAssertions creates a FileAssertions rooted at baseDir.
func NewFileAssertions(t *testing.T, baseDir string) *FileAssertions {
	return &FileAssertions{t: t, baseDir: baseDir}
}

// FileExists fails the test unless rel exists.
func (fa *FileAssertions) FileExists(rel string) *FileAssertions {
	fa.t.Helper()
	if _, err := os.Stat(filepath.Join(fa.baseDir, filepath.FromSlash(rel))); err != nil {
		fa.t.Errorf("expected file to exist: %s", rel)
	}
	return fa
}

// FileNotExists fails the test if rel exists.
func (fa *FileAssertions) FileNotExists(rel string) *FileAssertions {
	fa.t.Helper()
	if _, err := os.Stat(filepath.Join(fa.baseDir, filepath.FromSlash(rel))); err == nil {
		fa.t.Errorf("expected file to not exist: %s", rel)
	}
	return fa
}

// FileContains fails the test unless rel contains want.
func (fa *FileAssertions) FileContains(rel, want string) *FileAssertions {
	fa.t.Helper()
	// #nosec G304 - test helper, paths are controlled by test code
	data, err := os.ReadFile(filepath.Join(fa.baseDir, filepath.FromSlash(rel)))
	if err != nil {
		fa.t.Errorf("failed to read %s: %v", rel, err)
		return fa
	}
	if !strings.Contains(string(data), want) {
		fa.t.Errorf("expected %s to contain %q\nactual content:\n%s", rel, want, data)
	}
	return fa
}

// Before fails the test unless first appears before second in rel.
func (fa *FileAssertions) Before(rel, first, second string) *FileAssertions {
	fa.t.Helper()
	// #nosec G304 - test helper, paths are controlled by test code
	data, err := os.ReadFile(filepath.Join(fa.baseDir, filepath.FromSlash(rel)))
	if err != nil {
		fa.t.Errorf("failed to read %s: %v", rel, err)
		return fa
	}
	i, j := strings.Index(string(data), first), strings.Index(string(data), second)
	if i < 0 || j < 0 || i >= j {
		fa.t.Errorf("expected %q before %q in %s\nactual content:\n%s", first, second, rel, data)
	}
	return fa
}
