// Package pageurl turns full page URLs into the normalized form annotations and lists are keyed by.
package pageurl

import (
	"net/url"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// trackingParams are dropped from query strings.
var trackingParams = map[string]bool{
	"utm_source":   true,
	"utm_medium":   true,
	"utm_campaign": true,
	"utm_term":     true,
	"utm_content":  true,
	"fbclid":       true,
	"gclid":        true,
}

// Normalize converts a full URL into its normalized page URL.
// "https://www.Example.com/a/?utm_source=x#top" -> "example.com/a".
// Input that does not parse as a URL is only trimmed and passed through Key.
func Normalize(fullURL string) string {
	raw := strings.TrimSpace(fullURL)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return Key(strings.TrimSpace(fullURL))
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if port := u.Port(); port != "" && port != "80" && port != "443" {
		host += ":" + port
	}

	path := strings.TrimRight(u.EscapedPath(), "/")

	var b strings.Builder
	b.WriteString(host)
	b.WriteString(path)

	if query := cleanQuery(u.Query()); query != "" {
		b.WriteByte('?')
		b.WriteString(query)
	}

	return Key(b.String())
}

// Key canonicalizes an already normalized URL for use as a map key.
// Unicode is composed (NFC) so visually identical URLs collide.
func Key(normalizedURL string) string {
	return norm.NFC.String(normalizedURL)
}

// Equal reports whether two normalized URLs refer to the same page.
func Equal(a, b string) bool {
	return Key(a) == Key(b)
}

func cleanQuery(q url.Values) string {
	for param := range q {
		if trackingParams[strings.ToLower(param)] {
			q.Del(param)
		}
	}
	// Encode sorts by key.
	return q.Encode()
}
