package domain

import (
	"net/url"
	"strconv"
)

const (
	// FaviconService is queried with the bookmark hostname.
	FaviconService = "https://www.google.com/s2/favicons"
	// FaviconSize is the requested icon edge in pixels.
	FaviconSize = 32
	// DefaultFavicon is served when the bookmark URL cannot be parsed.
	DefaultFavicon = "/assets/favicon-32x32.png"
)

// FaviconURL derives the icon URL for a bookmark URL.
// Example: https://docs.example.com/a -> https://www.google.com/s2/favicons?domain=docs.example.com&sz=32
func FaviconURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return DefaultFavicon
	}
	return FaviconService + "?domain=" + u.Hostname() + "&sz=" + strconv.Itoa(FaviconSize)
}
