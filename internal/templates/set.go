// Package templates loads and executes the site's page templates.
//
// A templates directory holds two page templates, index.html and post.html,
// plus optional shared definitions under partials/*.html that both pages can
// reference with {{template "name" .}}.
package templates

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/blogbuilder/internal/content"
	berrors "git.home.luguber.info/inful/blogbuilder/internal/errors"
)

const (
	IndexTemplate = "index.html"
	PostTemplate  = "post.html"
	partialsGlob  = "partials/*.html"
)

// IndexData is the context passed to the index template.
type IndexData struct {
	Posts []content.Post
}

// PostData is the context passed to the post template.
type PostData struct {
	Post content.Post
}

// Set holds the parsed page templates.
type Set struct {
	index *template.Template
	post  *template.Template
}

// Load parses the page templates found in dir.
func Load(dir string) (*Set, error) {
	partials, err := filepath.Glob(filepath.Join(dir, partialsGlob))
	if err != nil {
		return nil, berrors.TemplateFailed(partialsGlob, err)
	}

	index, err := parsePage(dir, IndexTemplate, partials)
	if err != nil {
		return nil, err
	}
	post, err := parsePage(dir, PostTemplate, partials)
	if err != nil {
		return nil, err
	}
	return &Set{index: index, post: post}, nil
}

func parsePage(dir, name string, partials []string) (*template.Template, error) {
	path := filepath.Join(dir, name)
	src, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, berrors.TemplateFailed(name, fmt.Errorf("template %s not found", path))
		}
		return nil, berrors.TemplateFailed(name, err)
	}

	tpl, err := template.New(name).Option("missingkey=error").Parse(string(src))
	if err != nil {
		return nil, berrors.TemplateFailed(name, err)
	}
	if len(partials) > 0 {
		if tpl, err = tpl.ParseFiles(partials...); err != nil {
			return nil, berrors.TemplateFailed(name, err)
		}
	}
	return tpl, nil
}

// RenderIndex executes the index template with the full ordered post list.
func (s *Set) RenderIndex(w io.Writer, posts []content.Post) error {
	if err := s.index.Execute(w, IndexData{Posts: posts}); err != nil {
		return berrors.TemplateFailed(IndexTemplate, err)
	}
	return nil
}

// RenderPost executes the post template for a single post.
func (s *Set) RenderPost(w io.Writer, post content.Post) error {
	if err := s.post.Execute(w, PostData{Post: post}); err != nil {
		return berrors.TemplateFailed(PostTemplate, err).WithContext("slug", post.Slug)
	}
	return nil
}
