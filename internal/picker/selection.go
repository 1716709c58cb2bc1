// internal/picker/selection.go
package picker

import (
	"strings"
	"unicode/utf8"
)

const (
	maxTextRunes = 200
	maxHTMLRunes = 500
)

// Ancestor is one element on the path from a picked element up to (but not
// including) the document body.
type Ancestor struct {
	Tag   string `json:"tag"`
	ID    string `json:"id"`
	Class string `json:"class"`
}

// RawElement is what the page reports about a clicked element, before any
// trimming or formatting.
type RawElement struct {
	Tag       string     `json:"tag"`
	ID        string     `json:"id"`
	Class     string     `json:"class"`
	Text      string     `json:"text"`
	HTML      string     `json:"html"`
	Ancestors []Ancestor `json:"ancestors"`
}

// Selection describes one picked element. Empty id, class and text are
// reported as null.
type Selection struct {
	Tag     string  `json:"tag"`
	ID      *string `json:"id"`
	Class   *string `json:"class"`
	Text    *string `json:"text"`
	HTML    string  `json:"html"`
	Parents string  `json:"parents"`
}

// BuildSelection turns the page's raw report into a Selection. It is pure:
// the same input always yields the same output.
func BuildSelection(raw RawElement) Selection {
	return Selection{
		Tag:     strings.ToLower(raw.Tag),
		ID:      nullable(raw.ID),
		Class:   nullable(raw.Class),
		Text:    nullable(truncateRunes(strings.TrimSpace(raw.Text), maxTextRunes)),
		HTML:    truncateRunes(raw.HTML, maxHTMLRunes),
		Parents: FormatParents(raw.Ancestors),
	}
}

// FormatParents renders the ancestor chain nearest first, as
// "tag#id.class1.class2 > tag ...".
func FormatParents(ancestors []Ancestor) string {
	parts := make([]string, 0, len(ancestors))
	for _, a := range ancestors {
		var b strings.Builder
		b.WriteString(strings.ToLower(a.Tag))
		if a.ID != "" {
			b.WriteByte('#')
			b.WriteString(a.ID)
		}
		if tokens := strings.Fields(a.Class); len(tokens) > 0 {
			b.WriteByte('.')
			b.WriteString(strings.Join(tokens, "."))
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, " > ")
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
