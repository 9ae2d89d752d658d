package build

import (
	"slices"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/content"
)

// Status represents the outcome of a build execution.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Report describes a finished build.
type Report struct {
	BuildID   string
	Status    Status
	OutputDir string

	// Posts is the number of posts rendered.
	Posts int
	// Files lists generated files relative to OutputDir, slash-separated, in write order.
	Files []string
	// Skipped lists posts excluded for missing required frontmatter.
	Skipped []content.Skipped
	// Fingerprints maps slug to content fingerprint.
	Fingerprints map[string]string

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// Diff compares the posts of r against an earlier report.
// A nil prev reports every post as added.
func (r *Report) Diff(prev *Report) (added, changed, removed []string) {
	var old map[string]string
	if prev != nil {
		old = prev.Fingerprints
	}
	for slug, fp := range r.Fingerprints {
		oldFP, ok := old[slug]
		switch {
		case !ok:
			added = append(added, slug)
		case oldFP != fp:
			changed = append(changed, slug)
		}
	}
	for slug := range old {
		if _, ok := r.Fingerprints[slug]; !ok {
			removed = append(removed, slug)
		}
	}
	slices.Sort(added)
	slices.Sort(changed)
	slices.Sort(removed)
	return added, changed, removed
}
