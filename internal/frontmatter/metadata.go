package frontmatter

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Metadata is the typed view of a post's frontmatter.
//
// Title and Date are required; a nil pointer means the key was absent.
// The remaining fields are optional and default to the empty string.
type Metadata struct {
	Title    *string `yaml:"title"`
	Date     *Date   `yaml:"date"`
	Category string  `yaml:"category"`
	Subtitle string  `yaml:"subtitle"`
	Excerpt  string  `yaml:"excerpt"`
}

// Missing returns the names of required fields that are absent.
func (m Metadata) Missing() []string {
	var missing []string
	if m.Title == nil {
		missing = append(missing, "title")
	}
	if m.Date == nil {
		missing = append(missing, "date")
	}
	return missing
}

// Decode parses raw YAML frontmatter (without --- delimiters).
// Empty input yields zero Metadata.
func Decode(raw []byte) (Metadata, error) {
	var m Metadata
	if len(strings.TrimSpace(string(raw))) == 0 {
		return m, nil
	}
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return Metadata{}, fmt.Errorf("parse frontmatter: %w", err)
	}
	return m, nil
}

// dateLayouts lists the accepted spellings of the date field, date-only first.
var dateLayouts = []string{
	time.DateOnly,
	"2006-1-2",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	time.DateTime,
	"2006-01-02 15:04:05 -07:00",
	"2006-01-02 15:04:05.999999999 -07:00",
}

// Date is a frontmatter date. YAML may hand it over quoted or as a native
// timestamp; either way it is normalized to UTC.
type Date struct {
	time.Time
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Date) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: date must be a scalar", node.Line)
	}
	t, err := ParseDate(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	d.Time = t
	return nil
}

// ParseDate parses s using the accepted date layouts.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q (want YYYY-MM-DD)", s)
}
