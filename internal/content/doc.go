// Package content loads blog posts from a posts root directory.
//
// Each immediate subdirectory containing an article.md file is one post; the
// directory name is the post's slug. Posts missing a title or date are skipped
// with a warning, and the remaining posts are returned newest first.
package content
