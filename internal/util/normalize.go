package util

import (
	"net/url"
	"strings"
)

// trackingParams are stripped from item URLs before dedup comparison so the
// same article shared with different campaign tags still matches.
var trackingParams = []string{
	"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content",
	"ref", "fbclid",
}

// NormalizeURL canonicalizes an item URL for identity comparison: https
// scheme, lowercased host without www, no trailing slash, no tracking
// parameters, no fragment. Unparseable input is returned as-is with the
// error so callers can fall back to exact matching.
func NormalizeURL(rawURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return rawURL, err
	}

	if parsed.Scheme == "http" {
		parsed.Scheme = "https"
	}
	parsed.Host = strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
	parsed.Fragment = ""

	if len(parsed.Path) > 1 && strings.HasSuffix(parsed.Path, "/") {
		parsed.Path = strings.TrimSuffix(parsed.Path, "/")
		parsed.RawPath = ""
	}

	q := parsed.Query()
	for _, param := range trackingParams {
		q.Del(param)
	}
	parsed.RawQuery = q.Encode()

	return parsed.String(), nil
}

// NormalizeTitle prepares a title for dedup comparison: trims, collapses
// internal whitespace, lowercases, and drops common truncation ellipses.
func NormalizeTitle(title string) string {
	t := strings.TrimSpace(title)
	t = strings.TrimSuffix(t, "...")
	t = strings.TrimSuffix(t, "…")
	t = strings.ToLower(t)
	return strings.Join(strings.Fields(t), " ")
}

// TitlesMatch reports whether two normalized titles identify the same item.
// Feeds sometimes truncate long titles, so a title longer than 20 runes that
// is a prefix of the other also counts as a match.
func TitlesMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}

	ra, rb := []rune(a), []rune(b)
	shorter, longer := ra, rb
	if len(rb) < len(ra) {
		shorter, longer = rb, ra
	}
	if len(shorter) <= 20 {
		return false
	}
	return strings.HasPrefix(string(longer), string(shorter))
}
