package markdown

import (
	"regexp"
	"strings"
)

// notePattern matches {note: VISIBLE}(TOOLTIP). It runs on rendered HTML, so it
// sees literal text rather than markdown source.
var notePattern = regexp.MustCompile(`\{note:\s*([^}]+)\}\(([^)]+)\)`)

// ProcessNotes replaces every {note: VISIBLE}(TOOLTIP) occurrence with
//
//	<span class="note">VISIBLE<span class="note-content">TOOLTIP</span></span>
//
// Both captures are trimmed. Nested notes are not supported and malformed
// occurrences are left untouched.
func ProcessNotes(html string) string {
	return notePattern.ReplaceAllStringFunc(html, func(match string) string {
		groups := notePattern.FindStringSubmatch(match)
		var b strings.Builder
		b.WriteString(`<span class="note">`)
		b.WriteString(strings.TrimSpace(groups[1]))
		b.WriteString(`<span class="note-content">`)
		b.WriteString(strings.TrimSpace(groups[2]))
		b.WriteString(`</span></span>`)
		return b.String()
	})
}
