package utils

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxFilenameBytes is the longest name most filesystems accept
const MaxFilenameBytes = 255

var (
	spaceRegex   = regexp.MustCompile(`\s+`)
	invalidRegex = regexp.MustCompile(`[<>:"/\\|?*]`)
	nonSlugRegex = regexp.MustCompile(`[^a-z0-9_\-]+`)
)

// CleanText collapses runs of whitespace into single spaces and trims the ends
func CleanText(text string) string {
	return strings.TrimSpace(spaceRegex.ReplaceAllString(text, " "))
}

// Truncate returns at most max characters of text. It counts runes, so
// multi-byte characters are never split.
func Truncate(text string, max int) string {
	if max <= 0 {
		return ""
	}
	n := 0
	for i := range text {
		if n == max {
			return text[:i]
		}
		n++
	}
	return text
}

// RuneLen returns the number of characters in text
func RuneLen(text string) int {
	return len([]rune(text))
}

// Dedupe removes repeated values, keeping the first occurrence of each
func Dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			result = append(result, v)
		}
	}
	return result
}

// ContainsFold reports whether substr is within s, ignoring case
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// SanitizeFilename removes invalid characters from a filename and caps it at
// MaxFilenameBytes, trimming whole runes from the stem so the extension survives.
func SanitizeFilename(filename string) string {
	filename = invalidRegex.ReplaceAllString(filename, "_")

	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, filename)

	if len(cleaned) <= MaxFilenameBytes {
		return cleaned
	}

	ext := filepath.Ext(cleaned)
	if len(ext) > 16 {
		ext = ""
	}
	stem := strings.TrimSuffix(cleaned, ext)
	for len(stem)+len(ext) > MaxFilenameBytes {
		_, size := utf8.DecodeLastRuneInString(stem)
		stem = stem[:len(stem)-size]
	}
	return stem + ext
}

// Slug lower-cases name and joins its words with sep, dropping anything
// that is not a letter, digit, underscore or hyphen.
func Slug(name, sep string) string {
	words := strings.Fields(strings.ToLower(name))
	return nonSlugRegex.ReplaceAllString(strings.Join(words, sep), "")
}
