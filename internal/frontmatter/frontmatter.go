package frontmatter

import (
	"bytes"
)

const delimiter = "---"

// Split separates YAML frontmatter (`---` delimited) from the Markdown body.
//
// If the document does not start with a frontmatter delimiter, or the opening
// delimiter is never closed, had is false and body is the full input.
// When frontmatter is present the body has surrounding whitespace trimmed.
func Split(content []byte) (frontmatter []byte, body []byte, had bool) {
	nl := detectNewline(content)
	open := []byte(delimiter + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false
	}

	rest := content[len(open):]
	if bytes.HasPrefix(rest, []byte(delimiter)) && isLineEnd(rest[len(delimiter):], nl) {
		return []byte{}, trimBody(rest[len(delimiter):]), true
	}

	closeSeq := []byte(nl + delimiter)
	offset := 0
	for {
		idx := bytes.Index(rest[offset:], closeSeq)
		if idx < 0 {
			return nil, content, false
		}
		end := offset + idx
		after := rest[end+len(closeSeq):]
		if isLineEnd(after, nl) {
			return rest[:end+len(nl)], trimBody(after), true
		}
		offset = end + len(closeSeq)
	}
}

// isLineEnd reports whether b starts with a newline or is empty, i.e. the
// delimiter just matched occupies a whole line.
func isLineEnd(b []byte, nl string) bool {
	return len(b) == 0 || bytes.HasPrefix(b, []byte(nl))
}

func trimBody(b []byte) []byte {
	return bytes.TrimSpace(b)
}

func detectNewline(content []byte) string {
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			if i > 0 && content[i-1] == '\r' {
				return "\r\n"
			}
			return "\n"
		}
	}
	return "\n"
}
