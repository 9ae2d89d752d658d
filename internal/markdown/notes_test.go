package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProcessNotes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "single note",
			in:   "{note: hello}(world)",
			want: `<span class="note">hello<span class="note-content">world</span></span>`,
		},
		{
			name: "captures are trimmed",
			in:   "{note:   hello  }(  world )",
			want: `<span class="note">hello<span class="note-content">world</span></span>`,
		},
		{
			name: "embedded in html",
			in:   "<p>See {note: this}(a tooltip) here.</p>",
			want: `<p>See <span class="note">this<span class="note-content">a tooltip</span></span> here.</p>`,
		},
		{
			name: "multiple occurrences",
			in:   "{note: a}(1) and {note: b}(2)",
			want: `<span class="note">a<span class="note-content">1</span></span> and <span class="note">b<span class="note-content">2</span></span>`,
		},
		{
			name: "no tooltip is left untouched",
			in:   "<p>{note: dangling} text</p>",
			want: "<p>{note: dangling} text</p>",
		},
		{
			name: "space before tooltip is left untouched",
			in:   "{note: a} (b)",
			want: "{note: a} (b)",
		},
		{
			name: "no note text",
			in:   "plain <em>html</em>",
			want: "plain <em>html</em>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ProcessNotes(tt.in))
		})
	}
}

func TestProcessNotes_NotRecursive(t *testing.T) {
	out := ProcessNotes("{note: outer}({note: inner}(x))")
	// The tooltip capture stops at the first ')', so only one replacement happens.
	require.Equal(t, 1, strings.Count(out, `class="note"`))
}
