package search

import (
	"net/url"
	"strings"
)

const (
	DefaultPrimaryURL   = "https://www.google.com/search"
	DefaultSecondaryURL = "https://www.bing.com/search"
)

// Link is an external search-engine URL for a query.
type Link struct {
	Engine string `json:"engine"`
	URL    string `json:"url"`
}

// Builder produces search links against two configured engines.
type Builder struct {
	primary   string
	secondary string
}

// NewBuilder returns a Builder. Empty base URLs fall back to Google and Bing.
func NewBuilder(primaryURL, secondaryURL string) *Builder {
	if primaryURL == "" {
		primaryURL = DefaultPrimaryURL
	}
	if secondaryURL == "" {
		secondaryURL = DefaultSecondaryURL
	}
	return &Builder{primary: primaryURL, secondary: secondaryURL}
}

// Links returns the primary and secondary search links for a disease name.
func (b *Builder) Links(disease string) []Link {
	q := strings.TrimSpace(disease)
	if q == "" {
		return nil
	}
	return []Link{
		{Engine: engineName(b.primary), URL: withQuery(b.primary, q)},
		{Engine: engineName(b.secondary), URL: withQuery(b.secondary, q)},
	}
}

func withQuery(base, q string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "?q=" + url.QueryEscape(q)
	}
	values := u.Query()
	values.Set("q", q)
	u.RawQuery = values.Encode()
	return u.String()
}

// engineName derives a short label from a host, e.g. "www.google.com" -> "google".
func engineName(base string) string {
	u, err := url.Parse(base)
	if err != nil || u.Hostname() == "" {
		return base
	}
	parts := strings.Split(strings.TrimPrefix(u.Hostname(), "www."), ".")
	return parts[0]
}
