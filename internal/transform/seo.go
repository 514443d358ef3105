package transform

import (
	"regexp"
	"strings"
)

// wordRegex keeps Persian and Latin word characters for keyword extraction.
var wordRegex = regexp.MustCompile(`[^\x{0600}-\x{06FF}\x{0750}-\x{077F}\x{FB50}-\x{FDFF}\x{FE70}-\x{FEFF}a-zA-Z0-9\s]`)

// ExtractKeywords pulls up to five distinct keywords from the title and
// content for the forced-SEO fields.
func ExtractKeywords(title, content string) []string {
	text := wordRegex.ReplaceAllString(title+" "+content, " ")

	seen := make(map[string]bool)
	var keywords []string
	for _, w := range strings.Fields(text) {
		if len([]rune(w)) < 3 || seen[w] {
			continue
		}
		seen[w] = true
		keywords = append(keywords, w)
		if len(keywords) == 5 {
			break
		}
	}
	return keywords
}

// Watermark appends the site attribution line when the settings flag is on.
func Watermark(content, siteURL string) string {
	if siteURL == "" {
		return content
	}
	return content + "\n\n© " + siteURL
}
