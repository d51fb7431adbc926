// Package sanitize cleans free text entered by operators before it is stored
// and later rendered into drip messages or exported rows.
package sanitize

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// Text inside these elements is dropped along with the tags.
var dropContent = map[string]bool{
	"script": true,
	"style":  true,
}

// StripHTML removes markup and decodes entities, keeping stray '<' and '>'
// that do not open a tag. Tags hidden behind entities are removed by a
// second pass over the decoded text.
func StripHTML(s string) string {
	return stripTags(stripTags(s))
}

func stripTags(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}

	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	skipping := ""
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			if skipping == "" {
				b.Write(z.Text())
			}
		case html.StartTagToken:
			name, _ := z.TagName()
			if tag := string(name); dropContent[tag] {
				skipping = tag
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if string(name) == skipping {
				skipping = ""
			}
		}
	}
}

// Line sanitizes a single-line field such as a name: tags and control
// characters are removed and inner whitespace collapses to one space.
func Line(s string) string {
	return strings.Join(strings.Fields(dropControl(StripHTML(s), false)), " ")
}

// Text sanitizes a multi-line field such as notes. Line breaks survive,
// normalized to "\n"; other control characters are removed.
func Text(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.TrimSpace(dropControl(StripHTML(s), true))
}

func dropControl(s string, keepNewlines bool) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' && keepNewlines {
			return r
		}
		if r == '\t' {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
