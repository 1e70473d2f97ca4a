package util

import (
	"strings"

	"golang.org/x/net/html"
)

// Tags preserved by SanitizeHTML. Everything else is stripped down to its
// text content; attributes are always dropped.
var allowedTags = map[string]bool{
	"b":      true,
	"i":      true,
	"em":     true,
	"strong": true,
}

// Tags whose text content is dropped along with the tag.
var droppedContentTags = map[string]bool{
	"script": true,
	"style":  true,
}

// SanitizeHTML reduces upstream free-text HTML to an allow-listed subset of
// inline tags. Block tags like <p> disappear but their text survives.
func SanitizeHTML(input string) string {
	if input == "" {
		return ""
	}

	var b strings.Builder
	skipDepth := 0
	tz := html.NewTokenizer(strings.NewReader(input))

	for {
		switch tz.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())

		case html.TextToken:
			if skipDepth == 0 {
				b.WriteString(escapeText(tz.Token().Data))
			}

		case html.StartTagToken:
			name, _ := tz.TagName()
			tag := strings.ToLower(string(name))
			if droppedContentTags[tag] {
				skipDepth++
			} else if skipDepth == 0 && allowedTags[tag] {
				b.WriteString("<" + tag + ">")
			}

		case html.EndTagToken:
			name, _ := tz.TagName()
			tag := strings.ToLower(string(name))
			if droppedContentTags[tag] {
				if skipDepth > 0 {
					skipDepth--
				}
			} else if skipDepth == 0 && allowedTags[tag] {
				b.WriteString("</" + tag + ">")
			}
		}
	}
}

// escapeText re-escapes the markup-significant characters the tokenizer
// decoded, leaving quotes and apostrophes readable.
func escapeText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
