package utils

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

func GenerateSlug(name string) string {
	// Normalize accents
	t := norm.NFD.String(name)
	var b strings.Builder
	for _, r := range t {
		if unicode.Is(unicode.Mn, r) {
			continue // remove accent marks
		}
		b.WriteRune(r)
	}

	s := strings.ToLower(b.String())
	s = nonSlugChars.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// FileNameSlug slugs the base of a file name and returns it with its
// lower-cased extension, e.g. "Blood Test (Mai).PDF" -> "blood-test-mai", ".pdf".
func FileNameSlug(fileName string) (string, string) {
	ext := strings.ToLower(filepath.Ext(fileName))
	slug := GenerateSlug(strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName)))
	if slug == "" {
		slug = "document"
	}
	return slug, ext
}

// ParseCoordinate parses a latitude or longitude and checks it lies within
// [-limit, limit].
func ParseCoordinate(v string, limit float64) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || f < -limit || f > limit {
		return 0, false
	}
	return f, true
}
