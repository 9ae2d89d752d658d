// Package scaffold writes a small sample site for new projects.
package scaffold

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
)

//go:embed all:site
var siteFS embed.FS

const siteRoot = "site"

// Files lists the scaffolded files, slash-separated and relative to the target directory.
func Files() []string {
	var files []string
	_ = fs.WalkDir(siteFS, siteRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, _ := filepath.Rel(siteRoot, p)
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	slices.Sort(files)
	return files
}

// Write copies the sample site into dir, creating it if needed. Existing files
// are left alone unless force is set; the error then lists the conflicts.
// It returns the files written.
func Write(dir string, force bool) ([]string, error) {
	files := Files()
	if !force {
		var conflicts []string
		for _, rel := range files {
			if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(rel))); err == nil {
				conflicts = append(conflicts, rel)
			}
		}
		if len(conflicts) > 0 {
			return nil, fmt.Errorf("refusing to overwrite existing files (use --force): %v", conflicts)
		}
	}

	var written []string
	for _, rel := range files {
		data, err := siteFS.ReadFile(path.Join(siteRoot, rel))
		if err != nil {
			return written, err
		}
		dst := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return written, err
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return written, errors.Join(fmt.Errorf("write %s", rel), err)
		}
		written = append(written, rel)
	}
	return written, nil
}
