package note

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	maxTitleRunes   = 60
	maxPreviewRunes = 200
	untitled        = "Untitled"
)

var (
	hashtagPattern = regexp.MustCompile(`(?:^|\s)#([\p{L}\p{N}_-]+)`)
	urlPattern     = regexp.MustCompile(`https?://[^\s<>"'()\[\]{}]+`)
)

// DeriveTitle uses the explicit title when present, otherwise the first
// non-empty line of text with markdown heading markers stripped.
func DeriveTitle(explicit, text string) string {
	if t := strings.TrimSpace(explicit); t != "" {
		return t
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
		if line == "" {
			continue
		}
		return truncateRunes(line, maxTitleRunes, "...")
	}
	return untitled
}

// CountChars counts runes, not bytes.
func CountChars(text string) int {
	return utf8.RuneCountInString(text)
}

// CountWords counts whitespace separated tokens.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// Preview returns the first 200 runes of the trimmed text.
func Preview(text string) string {
	return truncateRunes(strings.TrimSpace(text), maxPreviewRunes, "")
}

// ExtractHashtags returns lowercased #tags, unique, in order of appearance.
func ExtractHashtags(text string) []string {
	tags := []string{}
	seen := map[string]bool{}
	for _, m := range hashtagPattern.FindAllStringSubmatch(text, -1) {
		tag := strings.ToLower(m[1])
		if seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

// ExtractURLs returns http(s) links, unique, in order, with trailing punctuation trimmed.
func ExtractURLs(text string) []string {
	urls := []string{}
	seen := map[string]bool{}
	for _, raw := range urlPattern.FindAllString(text, -1) {
		u := strings.TrimRight(raw, ".,;:!?")
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		urls = append(urls, u)
	}
	return urls
}

// encodeMetadataValue keeps object metadata within the US-ASCII header range.
func encodeMetadataValue(value string) string {
	return url.PathEscape(value)
}

func decodeMetadataValue(value string) string {
	decoded, err := url.PathUnescape(value)
	if err != nil {
		return value
	}
	return decoded
}

func truncateRunes(s string, max int, suffix string) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + suffix
}
