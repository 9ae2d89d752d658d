package content

import (
	"html/template"
	"time"
)

// DisplayDateLayout is the layout used for Post.DateFormatted.
const DisplayDateLayout = "Jan 02, 2006"

// Post is one article. Field names double as template field names.
type Post struct {
	Slug          string
	Title         string
	Date          time.Time
	DateFormatted string
	Category      string
	Subtitle      string
	Excerpt       string

	// Body is the markdown source with frontmatter removed.
	Body string
	// ContentHTML is filled in by the build from Body.
	ContentHTML template.HTML
	// Fingerprint identifies the post's frontmatter+body content.
	Fingerprint string
}

// Skipped records a post directory that was excluded from the build.
type Skipped struct {
	Slug    string
	Missing []string
}
